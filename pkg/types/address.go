package types

import "strings"

// ShippingAddress is the destination block submitted with an order.
type ShippingAddress struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Address  string `json:"address" validate:"required"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	ZipCode  string `json:"zipCode" validate:"required"`
	Country  string `json:"country" validate:"required"`
}

// IsZero reports whether no field of the address has been filled in.
func (a ShippingAddress) IsZero() bool {
	return strings.TrimSpace(a.FullName) == "" &&
		strings.TrimSpace(a.Email) == "" &&
		strings.TrimSpace(a.Phone) == "" &&
		strings.TrimSpace(a.Address) == "" &&
		strings.TrimSpace(a.City) == "" &&
		strings.TrimSpace(a.State) == "" &&
		strings.TrimSpace(a.ZipCode) == "" &&
		strings.TrimSpace(a.Country) == ""
}
