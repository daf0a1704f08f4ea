// Package ingest contains the inbound proposal pipeline: correlating
// vendor replies to outstanding RFPs, extracting structured terms, and
// recording every attempt in the audit ledger. It also owns the
// outbound dispatch loop, which seeds the ledger entries correlation
// depends on.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/ltran/procurement/internal/logger"
	"github.com/ltran/procurement/internal/mail"
	"github.com/ltran/procurement/internal/model"
	"github.com/ltran/procurement/internal/store"
)

// Candidate is a fresh proposal candidate: an inbound message resolved
// to its (vendor, RFP) pair.
type Candidate struct {
	Vendor *model.Vendor
	RFP    *model.RFP
}

// Correlator decides whether an inbound message is a new proposal and
// for which (vendor, RFP) pair. The outbound ledger doubles as its
// routing table: the latest successful sent entry for a vendor names
// that vendor's active RFP.
type Correlator struct {
	store store.Store
	log   *logger.Logger
}

// NewCorrelator builds a correlator over the given store.
func NewCorrelator(s store.Store, log *logger.Logger) *Correlator {
	return &Correlator{store: s, log: log}
}

// Resolve applies the ordered correlation rules. A nil candidate with
// a nil error is an expected discard (unknown sender, no outstanding
// RFP, or duplicate); these are logged but produce no ledger entry.
func (c *Correlator) Resolve(ctx context.Context, msg *mail.InboundMessage) (*Candidate, error) {
	vendor, err := c.store.GetVendorByEmail(ctx, msg.From.Addr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.log.Debug("message not from a known vendor, discarding",
				"from", msg.From.Addr)
			return nil, nil
		}
		return nil, fmt.Errorf("resolving sender %s: %w", msg.From.Addr, err)
	}

	sentLog, err := c.store.LatestSentSuccessToVendor(ctx, vendor.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.log.Debug("vendor has no outstanding rfp, discarding",
				"vendor", vendor.Name)
			return nil, nil
		}
		return nil, fmt.Errorf("looking up sent log for vendor %s: %w", vendor.ID, err)
	}
	if sentLog.RFPID == "" {
		c.log.Debug("sent log carries no rfp reference, discarding",
			"vendor", vendor.Name)
		return nil, nil
	}

	rfp, err := c.store.GetRFPByID(ctx, sentLog.RFPID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.log.Debug("rfp referenced by sent log no longer exists, discarding",
				"vendor", vendor.Name, "rfp_id", sentLog.RFPID)
			return nil, nil
		}
		return nil, fmt.Errorf("loading rfp %s: %w", sentLog.RFPID, err)
	}

	_, err = c.store.GetProposalByVendorAndRFP(ctx, vendor.ID, rfp.ID)
	if err == nil {
		c.log.Debug("proposal already exists, discarding duplicate",
			"vendor", vendor.Name, "rfp", rfp.Title)
		return nil, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("checking existing proposal: %w", err)
	}

	return &Candidate{Vendor: vendor, RFP: rfp}, nil
}
