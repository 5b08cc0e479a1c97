package types

import "strings"

// Address is the delivery destination stored as jsonb on carts and orders.
type Address struct {
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	Region     string  `json:"region"`
	PostalCode *string `json:"postal_code,omitempty"`
	Country    string  `json:"country"`
	Phone      *string `json:"phone,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// Validate reports whether the minimum deliverable fields are present.
func (a Address) Validate() error {
	if strings.TrimSpace(a.Line1) == "" {
		return errMissing("line1")
	}
	if strings.TrimSpace(a.City) == "" {
		return errMissing("city")
	}
	return nil
}

type addressFieldError string

func (e addressFieldError) Error() string {
	return "address: missing " + string(e)
}

func errMissing(field string) error {
	return addressFieldError(field)
}
