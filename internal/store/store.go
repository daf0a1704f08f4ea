package store

import (
	"context"
	"errors"

	"github.com/ltran/procurement/internal/model"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateProposal is returned by CreateProposal when a proposal
// already exists for the same (RFP, vendor) pair. The uniqueness
// constraint lives in the database, so concurrent creations resolve to
// exactly one winner.
var ErrDuplicateProposal = errors.New("proposal already exists for vendor and rfp")

// EmailLogFilter controls filtering for ledger list queries.
type EmailLogFilter struct {
	RFPID     *string
	VendorID  *string
	Direction *model.LogDirection
	Limit     int
}

// Store defines the persistence interface for RFPs, vendors,
// proposals, and the audit ledger.
type Store interface {
	// === RFPs ===

	CreateRFP(ctx context.Context, rfp *model.RFP) error
	ListRFPs(ctx context.Context) ([]model.RFP, error)
	GetRFPByID(ctx context.Context, id string) (*model.RFP, error)
	UpdateRFP(ctx context.Context, rfp *model.RFP) error

	// DeleteRFP removes an RFP along with its proposals and ledger
	// entries in one transaction.
	DeleteRFP(ctx context.Context, id string) error

	// MarkRFPSent flips the RFP to sent and records the vendor set it
	// was dispatched to.
	MarkRFPSent(ctx context.Context, id string, vendorIDs []string) error

	// === Vendors ===

	CreateVendor(ctx context.Context, v *model.Vendor) error
	ListVendors(ctx context.Context) ([]model.Vendor, error)
	GetVendorByID(ctx context.Context, id string) (*model.Vendor, error)
	GetVendorsByIDs(ctx context.Context, ids []string) ([]model.Vendor, error)
	GetVendorByEmail(ctx context.Context, email string) (*model.Vendor, error)
	UpdateVendor(ctx context.Context, v *model.Vendor) error
	DeleteVendor(ctx context.Context, id string) error

	// === Proposals ===

	CreateProposal(ctx context.Context, p *model.Proposal) error
	GetProposalByID(ctx context.Context, id string) (*model.Proposal, error)
	ListProposalsByRFP(ctx context.Context, rfpID string) ([]model.Proposal, error)
	GetProposalByVendorAndRFP(ctx context.Context, vendorID, rfpID string) (*model.Proposal, error)

	// SetProposalAnalysis attaches a scoring result and advances the
	// proposal to analyzed, leaving every other field untouched.
	SetProposalAnalysis(ctx context.Context, id string, analysis *model.AIAnalysis) error

	// === Audit ledger ===

	AppendEmailLog(ctx context.Context, entry *model.EmailLog) error

	// LatestSentSuccessToVendor is the routing query: the most recent
	// successful sent entry names the vendor's active RFP context.
	// Returns ErrNotFound when the vendor has never been sent an RFP.
	LatestSentSuccessToVendor(ctx context.Context, vendorID string) (*model.EmailLog, error)

	ListEmailLogs(ctx context.Context, filter EmailLogFilter) ([]model.EmailLog, error)
}
