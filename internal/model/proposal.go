package model

import "time"

// ProposalStatus tracks how far a vendor proposal has progressed
// through the ingestion pipeline.
type ProposalStatus string

const (
	// ProposalStatusReceived is a declared-but-unwritten state: the
	// pipeline only creates proposals after successful extraction, so
	// records enter at parsed. Kept for a future raw-capture step.
	ProposalStatusReceived ProposalStatus = "received"

	ProposalStatusParsed   ProposalStatus = "parsed"
	ProposalStatusAnalyzed ProposalStatus = "analyzed"
)

// BreakdownItem is one priced row of a vendor's offer.
type BreakdownItem struct {
	Item       string  `json:"item"`
	UnitPrice  float64 `json:"unitPrice"`
	Quantity   int     `json:"quantity"`
	TotalPrice float64 `json:"totalPrice"`
}

// ParsedData holds the structured commercial terms extracted from a
// vendor's free-text reply.
type ParsedData struct {
	TotalPrice       float64         `json:"totalPrice"`
	Breakdown        []BreakdownItem `json:"breakdown"`
	DeliveryTimeline string          `json:"deliveryTimeline"`
	PaymentTerms     string          `json:"paymentTerms"`
	Warranty         string          `json:"warranty"`
	AdditionalTerms  string          `json:"additionalTerms"`
}

// AIAnalysis is the scoring result for a single proposal.
type AIAnalysis struct {
	Score          int      `json:"score"`
	Strengths      []string `json:"strengths"`
	Weaknesses     []string `json:"weaknesses"`
	Summary        string   `json:"summary"`
	Recommendation string   `json:"recommendation"`
}

// EmailMetadata records where a proposal came from.
type EmailMetadata struct {
	MessageID  string    `json:"messageId,omitempty"`
	ReceivedAt time.Time `json:"receivedAt"`
	Subject    string    `json:"subject"`
	From       string    `json:"from"`
}

// AttachmentInfo is raw-capture metadata for a message attachment.
// Attachment contents are not parsed.
type AttachmentInfo struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Proposal is a vendor's reply to an RFP, extracted into structured
// form. At most one proposal exists per (vendor, RFP) pair; the store
// enforces this with a uniqueness constraint.
type Proposal struct {
	ID       string `json:"id"`
	RFPID    string `json:"rfpId"`
	VendorID string `json:"vendorId"`

	// RawContent is the vendor's reply body as received.
	RawContent string `json:"rawContent"`

	ParsedData ParsedData `json:"parsedData"`

	// AIAnalysis is set only after a successful scoring call; a
	// proposal whose analysis failed stays parsed with a nil analysis.
	AIAnalysis *AIAnalysis `json:"aiAnalysis,omitempty"`

	EmailMetadata EmailMetadata `json:"emailMetadata"`

	Attachments []AttachmentInfo `json:"attachments,omitempty"`

	Status ProposalStatus `json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
