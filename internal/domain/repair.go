package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Repair struct {
	ID                   int64           `json:"id"`
	AssetRef             int64           `json:"product"`
	Name                 string          `json:"name"`
	Date                 Date            `json:"date"`
	Cost                 decimal.Decimal `json:"cost"`
	Info                 string          `json:"info,omitempty"`
	RepairWarrantyMonths int             `json:"repair_warranty_months,omitempty"`
	Audit
	CreatedAt time.Time `json:"created_at"`
}

func (r *Repair) Kind() EntityKind { return KindRepair }
func (r *Repair) EntityID() int64  { return r.ID }

func (r *Repair) Validate() error {
	if r.AssetRef <= 0 {
		return NewValidationError(KindRepair, "product", "is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return NewValidationError(KindRepair, "name", "is required")
	}
	if r.Date.IsZero() {
		return NewValidationError(KindRepair, "date", "is required")
	}
	if r.Cost.IsNegative() {
		return NewValidationError(KindRepair, "cost", "must not be negative")
	}
	if r.RepairWarrantyMonths < 0 {
		return NewValidationError(KindRepair, "repair_warranty_months", "must not be negative")
	}
	return nil
}

func (r *Repair) ApplyEdit(src *Repair) {
	r.AssetRef = src.AssetRef
	r.Name = src.Name
	r.Date = src.Date
	r.Cost = src.Cost
	r.Info = src.Info
	r.RepairWarrantyMonths = src.RepairWarrantyMonths
}
