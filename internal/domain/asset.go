package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AssetCondition string

const (
	AssetConditionWorking AssetCondition = "working"
	AssetConditionDamaged AssetCondition = "damaged"
	AssetConditionMissing AssetCondition = "missing"
	AssetConditionSold    AssetCondition = "sold"
)

func (c AssetCondition) Valid() bool {
	switch c {
	case AssetConditionWorking, AssetConditionDamaged, AssetConditionMissing, AssetConditionSold:
		return true
	}
	return false
}

type Asset struct {
	ID                     int64               `json:"id"`
	AssetID                string              `json:"asset_id"`
	AssetNumber            int                 `json:"asset_number,omitempty"`
	AssetSuffix            string              `json:"asset_suffix,omitempty"`
	TypeOfAsset            string              `json:"type_of_asset"`
	Brand                  string              `json:"brand,omitempty"`
	ModelNo                string              `json:"model_no,omitempty"`
	SerialNo               string              `json:"serial_no,omitempty"`
	PurchaseDate           *Date               `json:"purchase_date,omitempty"`
	PurchasePrice          decimal.NullDecimal `json:"purchase_price"`
	CurrentValue           decimal.NullDecimal `json:"current_value"`
	PurchasedFrom          string              `json:"purchased_from,omitempty"`
	UnderWarranty          bool                `json:"under_warranty"`
	WarrantyDurationMonths int                 `json:"warranty_duration_months,omitempty"`
	ConditionStatus        AssetCondition      `json:"condition_status"`
	SoldTo                 string              `json:"sold_to,omitempty"`
	SalePrice              decimal.NullDecimal `json:"sale_price"`
	SaleDate               *Date               `json:"sale_date,omitempty"`
	DateMarkedDead         *Date               `json:"date_marked_dead,omitempty"`
	DamageNarration        string              `json:"damage_narration,omitempty"`
	Revenue                decimal.Decimal     `json:"revenue"`
	Audit
	CreatedAt time.Time `json:"created_at"`
}

func (a *Asset) Kind() EntityKind { return KindAsset }
func (a *Asset) EntityID() int64  { return a.ID }

// HasExplicitIdentifier reports whether the submitter chose the identifier
// (either verbatim or by sequence number) instead of leaving it to the allocator.
func (a *Asset) HasExplicitIdentifier() bool {
	return a.AssetID != "" || a.AssetNumber > 0
}

func (a *Asset) Validate() error {
	if a.ConditionStatus == "" {
		a.ConditionStatus = AssetConditionWorking
	}
	if !a.ConditionStatus.Valid() {
		return NewValidationError(KindAsset, "condition_status", "must be one of working, damaged, missing, sold")
	}
	if a.TypeOfAsset == "" {
		return NewValidationError(KindAsset, "type_of_asset", "is required")
	}
	if a.AssetNumber < 0 {
		return NewValidationError(KindAsset, "asset_number", "must be positive")
	}
	if err := nonNegative(KindAsset, "purchase_price", a.PurchasePrice); err != nil {
		return err
	}
	if err := nonNegative(KindAsset, "current_value", a.CurrentValue); err != nil {
		return err
	}
	if a.WarrantyDurationMonths < 0 {
		return NewValidationError(KindAsset, "warranty_duration_months", "must not be negative")
	}

	switch a.ConditionStatus {
	case AssetConditionSold:
		if a.SoldTo == "" {
			return NewValidationError(KindAsset, "sold_to", "is required when the asset is sold")
		}
		if !a.SalePrice.Valid {
			return NewValidationError(KindAsset, "sale_price", "is required when the asset is sold")
		}
		if err := nonNegative(KindAsset, "sale_price", a.SalePrice); err != nil {
			return err
		}
		if a.SaleDate == nil || a.SaleDate.IsZero() {
			return NewValidationError(KindAsset, "sale_date", "is required when the asset is sold")
		}
	case AssetConditionDamaged:
		if a.DateMarkedDead == nil || a.DateMarkedDead.IsZero() {
			return NewValidationError(KindAsset, "date_marked_dead", "is required when the asset is damaged")
		}
		if a.DamageNarration == "" {
			return NewValidationError(KindAsset, "damage_narration", "is required when the asset is damaged")
		}
	}
	return nil
}

// ApplyEdit copies the editable fields of src onto a. The identifier, its
// sequence parts, revenue and creation audit are never touched.
func (a *Asset) ApplyEdit(src *Asset) {
	a.TypeOfAsset = src.TypeOfAsset
	a.Brand = src.Brand
	a.ModelNo = src.ModelNo
	a.SerialNo = src.SerialNo
	a.PurchaseDate = src.PurchaseDate
	a.PurchasePrice = src.PurchasePrice
	a.CurrentValue = src.CurrentValue
	a.PurchasedFrom = src.PurchasedFrom
	a.UnderWarranty = src.UnderWarranty
	a.WarrantyDurationMonths = src.WarrantyDurationMonths
	a.ConditionStatus = src.ConditionStatus
	a.SoldTo = src.SoldTo
	a.SalePrice = src.SalePrice
	a.SaleDate = src.SaleDate
	a.DateMarkedDead = src.DateMarkedDead
	a.DamageNarration = src.DamageNarration
}

func nonNegative(kind EntityKind, field string, v decimal.NullDecimal) error {
	if v.Valid && v.Decimal.IsNegative() {
		return NewValidationError(kind, field, "must not be negative")
	}
	return nil
}
