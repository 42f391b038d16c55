package types

import "strings"

// Address is the shipping destination snapshotted on an order. Stored as
// jsonb; the fulfillment core treats it as an opaque structured blob.
type Address struct {
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	District   string  `json:"district,omitempty"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
	Phone      string  `json:"phone,omitempty"`
}

// Validate checks the fields checkout requires.
func (a Address) Validate() bool {
	return strings.TrimSpace(a.Line1) != "" &&
		strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.PostalCode) != ""
}
