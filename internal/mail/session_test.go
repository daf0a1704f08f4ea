package mail

import (
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const multipartReply = "From: Sales <sales@acme.test>\r\n" +
	"To: procurement@buyer.test\r\n" +
	"Subject: Re: RFP: Laptops\r\n" +
	"Message-ID: <reply-1@acme.test>\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=outer\r\n" +
	"\r\n" +
	"--outer\r\n" +
	"Content-Type: multipart/alternative; boundary=inner\r\n" +
	"\r\n" +
	"--inner\r\n" +
	"Content-Type: text/plain; charset=UTF-8\r\n" +
	"\r\n" +
	"We offer $9,500 total.\r\n" +
	"--inner\r\n" +
	"Content-Type: text/html; charset=UTF-8\r\n" +
	"\r\n" +
	"<p>We offer <b>$9,500</b> total.</p>\r\n" +
	"--inner--\r\n" +
	"--outer\r\n" +
	"Content-Type: application/pdf\r\n" +
	"Content-Disposition: attachment; filename=\"quote.pdf\"\r\n" +
	"\r\n" +
	"%PDF-1.4 fake\r\n" +
	"--outer--\r\n"

func TestParseMIMEBody(t *testing.T) {
	text, html, attachments := parseMIMEBody([]byte(multipartReply))

	assert.Contains(t, text, "$9,500 total")
	assert.Contains(t, html, "<b>$9,500</b>")

	require.Len(t, attachments, 1)
	assert.Equal(t, "quote.pdf", attachments[0].Filename)
	assert.Equal(t, "application/pdf", attachments[0].ContentType)
	assert.Greater(t, attachments[0].Size, int64(0))
}

func TestParseMIMEBodyPlainFallback(t *testing.T) {
	// Not parseable as a MIME message; the raw bytes become the body.
	raw := "just some text without headers"
	text, html, attachments := parseMIMEBody([]byte(raw))

	assert.Equal(t, raw, text)
	assert.Empty(t, html)
	assert.Empty(t, attachments)
}

func TestParseMIMEBodyTextOnly(t *testing.T) {
	msg := "From: sales@acme.test\r\n" +
		"Subject: Re: RFP\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		"Plain reply.\r\n"

	text, html, attachments := parseMIMEBody([]byte(msg))
	assert.Contains(t, text, "Plain reply.")
	assert.Empty(t, html)
	assert.Empty(t, attachments)

	m := &InboundMessage{TextBody: text, HTMLBody: html}
	assert.Equal(t, "Plain reply.", strings.TrimSpace(m.Body()))
}

// A malformed message in a fetch batch must produce a decode error,
// which the fetch loop logs and skips so the rest of the batch still
// goes through.
func TestDecodeMessageRejectsMalformed(t *testing.T) {
	section := &imap.FetchItemBodySection{Peek: true}

	_, err := decodeMessage(&imapclient.FetchMessageBuffer{UID: 7}, section)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no envelope")

	noSender := &imapclient.FetchMessageBuffer{
		UID: 8,
		Envelope: &imap.Envelope{
			Subject: "Re: RFP: Laptops",
			Date:    time.Now(),
		},
	}
	_, err = decodeMessage(noSender, section)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sender")

	noBody := &imapclient.FetchMessageBuffer{
		UID: 9,
		Envelope: &imap.Envelope{
			Subject: "Re: RFP: Laptops",
			Date:    time.Now(),
			From:    []imap.Address{{Name: "Sales", Mailbox: "sales", Host: "acme.test"}},
		},
	}
	_, err = decodeMessage(noBody, section)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no body section")
}
