package model

import "time"

// Vendor is a supplier that can be invited to bid on RFPs.
// The email address is unique and is the correlation key used to match
// inbound replies back to a vendor.
type Vendor struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone,omitempty"`
	Address  string  `json:"address,omitempty"`
	Category string  `json:"category,omitempty"`
	Rating   float64 `json:"rating"`
	Notes    string  `json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
