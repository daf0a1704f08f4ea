package ingest

import (
	"context"
	"fmt"

	"github.com/ltran/procurement/internal/logger"
	"github.com/ltran/procurement/internal/mail"
	"github.com/ltran/procurement/internal/model"
	"github.com/ltran/procurement/internal/store"
)

// Transport sends outbound mail. *mail.Sender satisfies it.
type Transport interface {
	From() string
	Send(ctx context.Context, msg mail.OutboundEmail) error
}

// VendorSendResult reports the outcome of one vendor's invitation.
type VendorSendResult struct {
	VendorID   string `json:"vendorId"`
	VendorName string `json:"vendorName"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// Dispatcher sends an RFP invitation to a set of vendors. Sends run
// sequentially; one vendor's failure never aborts the batch, and every
// attempt leaves a ledger entry.
type Dispatcher struct {
	store     store.Store
	transport Transport
	log       *logger.Logger
}

// NewDispatcher builds a dispatcher over the given store and transport.
func NewDispatcher(s store.Store, t Transport, log *logger.Logger) *Dispatcher {
	return &Dispatcher{store: s, transport: t, log: log}
}

// Send delivers the RFP to each vendor in turn and returns a per-vendor
// result list. The RFP flips to sent when the batch completes, whether
// or not every individual send succeeded.
func (d *Dispatcher) Send(ctx context.Context, rfpID string, vendorIDs []string) ([]VendorSendResult, error) {
	rfp, err := d.store.GetRFPByID(ctx, rfpID)
	if err != nil {
		return nil, err
	}

	vendors, err := d.store.GetVendorsByIDs(ctx, vendorIDs)
	if err != nil {
		return nil, err
	}
	if len(vendors) == 0 {
		return nil, fmt.Errorf("no vendors found for ids %v", vendorIDs)
	}

	subject := mail.InvitationSubject(rfp)
	results := make([]VendorSendResult, 0, len(vendors))
	sentTo := make([]string, 0, len(vendors))

	for _, vendor := range vendors {
		result := VendorSendResult{VendorID: vendor.ID, VendorName: vendor.Name}

		html, renderErr := mail.RenderInvitation(rfp, &vendor)
		var sendErr error
		if renderErr != nil {
			sendErr = fmt.Errorf("rendering invitation: %w", renderErr)
		} else {
			sendErr = d.transport.Send(ctx, mail.OutboundEmail{
				To:       vendor.Email,
				Subject:  subject,
				HTMLBody: html,
				TextBody: mail.HTMLToText(html),
			})
		}

		entry := &model.EmailLog{
			RFPID:     rfp.ID,
			VendorID:  vendor.ID,
			Direction: model.DirectionSent,
			Subject:   subject,
			Body:      html,
			From:      d.transport.From(),
			To:        vendor.Email,
		}
		if sendErr != nil {
			d.log.Error("sending rfp failed",
				"rfp", rfp.Title, "vendor", vendor.Name, "error", sendErr)
			result.Error = sendErr.Error()
			entry.Outcome = model.OutcomeFailed
			entry.Error = sendErr.Error()
		} else {
			d.log.Info("rfp sent", "rfp", rfp.Title, "vendor", vendor.Name)
			result.Success = true
			entry.Outcome = model.OutcomeSuccess
			sentTo = append(sentTo, vendor.ID)
		}
		if logErr := d.store.AppendEmailLog(ctx, entry); logErr != nil {
			d.log.Error("recording sent log failed",
				"rfp_id", rfp.ID, "vendor_id", vendor.ID, "error", logErr)
		}

		results = append(results, result)
	}

	if err := d.store.MarkRFPSent(ctx, rfp.ID, sentTo); err != nil {
		return results, fmt.Errorf("marking rfp sent: %w", err)
	}
	return results, nil
}
