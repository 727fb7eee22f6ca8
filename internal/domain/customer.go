package domain

import (
	"strings"
	"time"
)

type Customer struct {
	ID                   int64  `json:"id"`
	Name                 string `json:"name"`
	Email                string `json:"email,omitempty"`
	PhoneNumberPrimary   string `json:"phone_number_primary,omitempty"`
	PhoneNumberSecondary string `json:"phone_number_secondary,omitempty"`
	AddressPrimary       string `json:"address_primary,omitempty"`
	AddressSecondary     string `json:"address_secondary,omitempty"`
	IsPermanent          bool   `json:"is_permanent"`
	IsBNIMember          bool   `json:"is_bni_member"`
	ReferenceName        string `json:"reference_name,omitempty"`
	Audit
	CreatedAt time.Time `json:"created_at"`
}

func (c *Customer) Kind() EntityKind { return KindCustomer }
func (c *Customer) EntityID() int64  { return c.ID }

func (c *Customer) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return NewValidationError(KindCustomer, "name", "is required")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return NewValidationError(KindCustomer, "email", "is not a valid address")
	}
	return nil
}

func (c *Customer) ApplyEdit(src *Customer) {
	c.Name = src.Name
	c.Email = src.Email
	c.PhoneNumberPrimary = src.PhoneNumberPrimary
	c.PhoneNumberSecondary = src.PhoneNumberSecondary
	c.AddressPrimary = src.AddressPrimary
	c.AddressSecondary = src.AddressSecondary
	c.IsPermanent = src.IsPermanent
	c.IsBNIMember = src.IsBNIMember
	c.ReferenceName = src.ReferenceName
}
