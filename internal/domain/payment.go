package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
)

// Payment is the ledger row opened for a rental when the rental is created.
type Payment struct {
	ID          int64           `json:"id"`
	RentalID    int64           `json:"rental_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate Date            `json:"payment_date"`
	Status      PaymentStatus   `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

func NewRentalPayment(r *Rental) *Payment {
	return &Payment{
		RentalID:    r.ID,
		Amount:      r.PaymentAmount,
		PaymentDate: r.RentalStartDate,
		Status:      PaymentStatusUnpaid,
	}
}
