package model

import "time"

// LogDirection says whether a ledger entry records an outbound send or
// an inbound processing attempt.
type LogDirection string

const (
	DirectionSent     LogDirection = "sent"
	DirectionReceived LogDirection = "received"
)

// LogOutcome is the terminal result of the attempt a ledger entry
// records.
type LogOutcome string

const (
	OutcomeSuccess LogOutcome = "success"
	OutcomeFailed  LogOutcome = "failed"
)

// EmailLog is one append-only audit ledger entry. Besides auditing,
// the ledger doubles as the correlation engine's routing index: the
// latest sent/success entry for a vendor names that vendor's active
// RFP context.
type EmailLog struct {
	ID string `json:"id"`

	// RFPID and VendorID are optional references; a failure recorded
	// before vendor resolution carries neither.
	RFPID    string `json:"rfpId,omitempty"`
	VendorID string `json:"vendorId,omitempty"`

	Direction LogDirection `json:"direction"`

	Subject string `json:"subject"`
	Body    string `json:"body"`
	From    string `json:"from"`
	To      string `json:"to"`

	// MessageID is the RFC 5322 message id, when known.
	MessageID string `json:"messageId,omitempty"`

	Outcome LogOutcome `json:"outcome"`

	// Error holds the failure text when Outcome is failed.
	Error string `json:"error,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
