package mail

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ltran/procurement/internal/model"
)

// invitationTmpl is the HTML body of an RFP invitation email.
var invitationTmpl = template.Must(template.New("invitation").Parse(`<!DOCTYPE html>
<html>
<head>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .header { background: #4F46E5; color: white; padding: 20px; }
    .content { padding: 20px; }
    .section { margin-bottom: 20px; }
    .label { font-weight: bold; color: #4F46E5; }
    table { width: 100%; border-collapse: collapse; margin-top: 10px; }
    th, td { padding: 10px; text-align: left; border-bottom: 1px solid #ddd; }
    th { background: #f4f4f4; }
  </style>
</head>
<body>
  <div class="header">
    <h1>Request for Proposal</h1>
  </div>
  <div class="content">
    <p>Dear {{.Vendor.Name}},</p>
    <p>We invite you to submit a proposal for the following requirement:</p>

    <div class="section">
      <div class="label">Title:</div>
      <div>{{.RFP.Title}}</div>
    </div>

    <div class="section">
      <div class="label">Description:</div>
      <div>{{.RFP.Description}}</div>
    </div>

    <div class="section">
      <div class="label">Budget:</div>
      <div>{{printf "%.2f" .RFP.Budget}}</div>
    </div>

    <div class="section">
      <div class="label">Delivery Timeline:</div>
      <div>{{.RFP.DeliveryTimeline}}</div>
    </div>

    <div class="section">
      <div class="label">Items Required:</div>
      <table>
        <thead>
          <tr>
            <th>Item</th>
            <th>Quantity</th>
            <th>Specifications</th>
          </tr>
        </thead>
        <tbody>
          {{range .RFP.Items}}
          <tr>
            <td>{{.Name}}</td>
            <td>{{.Quantity}}</td>
            <td>{{.Specifications}}</td>
          </tr>
          {{end}}
        </tbody>
      </table>
    </div>

    {{if .RFP.PaymentTerms}}
    <div class="section">
      <div class="label">Payment Terms:</div>
      <div>{{.RFP.PaymentTerms}}</div>
    </div>
    {{end}}

    {{if .RFP.WarrantyRequirements}}
    <div class="section">
      <div class="label">Warranty Requirements:</div>
      <div>{{.RFP.WarrantyRequirements}}</div>
    </div>
    {{end}}

    {{if .RFP.AdditionalRequirements}}
    <div class="section">
      <div class="label">Additional Requirements:</div>
      <div>{{.RFP.AdditionalRequirements}}</div>
    </div>
    {{end}}

    <p><strong>Please reply to this email with your proposal including:</strong></p>
    <ul>
      <li>Detailed pricing breakdown</li>
      <li>Delivery timeline</li>
      <li>Payment terms</li>
      <li>Warranty information</li>
      <li>Any additional terms or conditions</li>
    </ul>

    <p>We look forward to receiving your proposal.</p>
    <p>Best regards,<br>Procurement Team</p>
  </div>
</body>
</html>`))

// InvitationSubject returns the subject line for an RFP invitation.
func InvitationSubject(rfp *model.RFP) string {
	return "RFP: " + rfp.Title
}

// RenderInvitation renders the HTML invitation body for one vendor.
func RenderInvitation(rfp *model.RFP, vendor *model.Vendor) (string, error) {
	var buf strings.Builder
	data := struct {
		RFP    *model.RFP
		Vendor *model.Vendor
	}{rfp, vendor}

	if err := invitationTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering invitation: %w", err)
	}

	return buf.String(), nil
}

// blockBreaks turns block-level boundaries into newlines before tag
// stripping so the text rendering keeps its line structure.
var blockBreaks = strings.NewReplacer(
	"<br>", "\n", "<br/>", "\n", "<br />", "\n",
	"</p>", "\n", "</div>", "\n", "</li>", "\n", "</tr>", "\n",
	"</h1>", "\n", "</h2>", "\n", "</h3>", "\n",
)

// HTMLToText produces a plain-text rendering of an HTML body.
func HTMLToText(html string) string {
	if html == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(
		strings.NewReader(blockBreaks.Replace(html)),
	)
	if err != nil {
		return html
	}

	doc.Find("script, style").Remove()
	text := doc.Text()

	// Collapse runs of blank lines left behind by stripped markup.
	lines := strings.Split(text, "\n")
	var out []string
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
