package mail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ltran/procurement/internal/model"
)

func TestRenderInvitation(t *testing.T) {
	rfp := &model.RFP{
		Title:            "Office Laptops",
		Description:      "10 developer laptops",
		Budget:           25000,
		DeliveryTimeline: "4 weeks",
		Items: []model.LineItem{
			{Name: "Laptop", Quantity: 10, Specifications: "32GB RAM"},
		},
		PaymentTerms: "Net 30",
	}
	vendor := &model.Vendor{Name: "Acme Supplies", Email: "sales@acme.test"}

	html, err := RenderInvitation(rfp, vendor)
	require.NoError(t, err)

	assert.Contains(t, html, "Dear Acme Supplies,")
	assert.Contains(t, html, "Office Laptops")
	assert.Contains(t, html, "25000.00")
	assert.Contains(t, html, "<td>Laptop</td>")
	assert.Contains(t, html, "32GB RAM")
	assert.Contains(t, html, "Payment Terms")
	// Optional sections stay out when empty.
	assert.NotContains(t, html, "Warranty Requirements")
	assert.Contains(t, html, "Please reply to this email")
}

func TestRenderInvitationEscapesHTML(t *testing.T) {
	rfp := &model.RFP{Title: `<script>alert("x")</script>`}
	vendor := &model.Vendor{Name: "Acme"}

	html, err := RenderInvitation(rfp, vendor)
	require.NoError(t, err)
	assert.NotContains(t, html, `<script>alert`)
}

func TestInvitationSubject(t *testing.T) {
	assert.Equal(t, "RFP: Monitors", InvitationSubject(&model.RFP{Title: "Monitors"}))
}

func TestHTMLToText(t *testing.T) {
	html := `<html><head><style>body { color: red; }</style></head>
<body><h1>Request for Proposal</h1>
<p>Dear Vendor,</p>
<ul><li>Pricing</li><li>Timeline</li></ul>
<script>evil()</script>
</body></html>`

	text := HTMLToText(html)
	assert.Contains(t, text, "Request for Proposal")
	assert.Contains(t, text, "Dear Vendor,")
	assert.Contains(t, text, "Pricing")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "evil()")
	assert.NotContains(t, text, "<")

	// Blank runs collapse to single separators.
	assert.NotContains(t, text, "\n\n\n")
}

func TestHTMLToTextEmpty(t *testing.T) {
	assert.Equal(t, "", HTMLToText(""))
}

func TestInboundMessageBodyPrefersText(t *testing.T) {
	msg := &InboundMessage{
		TextBody: "plain body",
		HTMLBody: "<p>html body</p>",
	}
	assert.Equal(t, "plain body", msg.Body())

	msg.TextBody = ""
	assert.Equal(t, "html body", strings.TrimSpace(msg.Body()))
}
