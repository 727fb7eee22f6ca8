package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RentalStatus string

const (
	RentalStatusOngoing   RentalStatus = "ongoing"
	RentalStatusCompleted RentalStatus = "completed"
)

type Rental struct {
	ID              int64           `json:"id"`
	AssetRef        int64           `json:"asset"`
	CustomerRef     int64           `json:"customer"`
	ContractNumber  string          `json:"contract_number,omitempty"`
	RentalStartDate Date            `json:"rental_start_date"`
	RentalEndDate   *Date           `json:"rental_end_date,omitempty"`
	PaymentAmount   decimal.Decimal `json:"payment_amount"`
	BillingDay      int             `json:"billing_day,omitempty"`
	Status          RentalStatus    `json:"status"`
	Audit
	CreatedAt time.Time `json:"created_at"`
}

func (r *Rental) Kind() EntityKind { return KindRental }
func (r *Rental) EntityID() int64  { return r.ID }

func (r *Rental) Validate() error {
	if r.Status == "" {
		r.Status = RentalStatusOngoing
	}
	if r.Status != RentalStatusOngoing && r.Status != RentalStatusCompleted {
		return NewValidationError(KindRental, "status", "must be ongoing or completed")
	}
	if r.AssetRef <= 0 {
		return NewValidationError(KindRental, "asset", "is required")
	}
	if r.CustomerRef <= 0 {
		return NewValidationError(KindRental, "customer", "is required")
	}
	if r.RentalStartDate.IsZero() {
		return NewValidationError(KindRental, "rental_start_date", "is required")
	}
	if r.RentalEndDate != nil && !r.RentalEndDate.IsZero() && r.RentalEndDate.Before(r.RentalStartDate.Time) {
		return NewValidationError(KindRental, "rental_end_date", "must not be before rental_start_date")
	}
	if r.PaymentAmount.IsNegative() {
		return NewValidationError(KindRental, "payment_amount", "must not be negative")
	}
	if r.BillingDay == 0 {
		r.BillingDay = r.RentalStartDate.Day()
	}
	if r.BillingDay < 1 || r.BillingDay > 31 {
		return NewValidationError(KindRental, "billing_day", "must be between 1 and 31")
	}
	return nil
}

func (r *Rental) ApplyEdit(src *Rental) {
	r.AssetRef = src.AssetRef
	r.CustomerRef = src.CustomerRef
	r.ContractNumber = src.ContractNumber
	r.RentalStartDate = src.RentalStartDate
	r.RentalEndDate = src.RentalEndDate
	r.PaymentAmount = src.PaymentAmount
	r.BillingDay = src.BillingDay
	r.Status = src.Status
}
