package model

import "time"

// RFPStatus tracks where a request for proposal is in its lifecycle.
type RFPStatus string

const (
	RFPStatusDraft  RFPStatus = "draft"
	RFPStatusSent   RFPStatus = "sent"
	RFPStatusClosed RFPStatus = "closed"
)

// LineItem is a single requested item within an RFP.
type LineItem struct {
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	Specifications string `json:"specifications"`
}

// RFP is a buyer's structured request for vendor pricing and terms.
type RFP struct {
	// ID is the internal unique identifier for this RFP.
	ID string `json:"id"`

	// Title is the short descriptive name shown to vendors.
	Title string `json:"title"`

	// Description is the full statement of what is being procured.
	Description string `json:"description"`

	// Budget is the buyer's budget for the whole request.
	Budget float64 `json:"budget"`

	// DeliveryTimeline is the requested delivery window, free text.
	DeliveryTimeline string `json:"deliveryTimeline"`

	// Items lists the individual goods or services requested.
	Items []LineItem `json:"items"`

	// PaymentTerms, WarrantyRequirements, and AdditionalRequirements
	// are optional commercial terms included in the invitation.
	PaymentTerms           string `json:"paymentTerms,omitempty"`
	WarrantyRequirements   string `json:"warrantyRequirements,omitempty"`
	AdditionalRequirements string `json:"additionalRequirements,omitempty"`

	// Status is the lifecycle state. Dispatch flips draft -> sent;
	// the ingestion pipeline never mutates an RFP.
	Status RFPStatus `json:"status"`

	// SentTo holds the IDs of vendors this RFP was dispatched to.
	SentTo []string `json:"sentTo"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
