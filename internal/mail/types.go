package mail

import (
	"time"

	"github.com/ltran/procurement/internal/model"
)

// Address is a decoded mailbox address.
type Address struct {
	Name string
	Addr string
}

// InboundMessage is the normalized record for one fetched email.
type InboundMessage struct {
	UID       uint32
	MessageID string
	Subject   string
	From      Address
	To        []string
	Date      time.Time

	TextBody string
	HTMLBody string

	// Attachments is raw-capture metadata only; contents are not
	// parsed.
	Attachments []model.AttachmentInfo
}

// Body returns the plain-text body, falling back to a text rendering
// of the HTML body.
func (m *InboundMessage) Body() string {
	if m.TextBody != "" {
		return m.TextBody
	}
	return HTMLToText(m.HTMLBody)
}
