package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetValidate(t *testing.T) {
	base := func() *Asset {
		return &Asset{TypeOfAsset: "Laptop", ConditionStatus: AssetConditionWorking}
	}

	t.Run("Working asset is valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("Empty condition defaults to working", func(t *testing.T) {
		a := base()
		a.ConditionStatus = ""
		require.NoError(t, a.Validate())
		assert.Equal(t, AssetConditionWorking, a.ConditionStatus)
	})

	t.Run("Unknown condition", func(t *testing.T) {
		a := base()
		a.ConditionStatus = "lost"
		assertValidationField(t, a.Validate(), "condition_status")
	})

	t.Run("Sold requires buyer, price and date", func(t *testing.T) {
		a := base()
		a.ConditionStatus = AssetConditionSold
		assertValidationField(t, a.Validate(), "sold_to")

		a.SoldTo = "Acme"
		assertValidationField(t, a.Validate(), "sale_price")

		a.SalePrice = decimal.NewNullDecimal(decimal.NewFromInt(12000))
		assertValidationField(t, a.Validate(), "sale_date")

		a.SaleDate = DatePtr(NewDate(2024, time.March, 1))
		assert.NoError(t, a.Validate())
	})

	t.Run("Sold with zero sale price is accepted", func(t *testing.T) {
		a := base()
		a.ConditionStatus = AssetConditionSold
		a.SoldTo = "Scrap dealer"
		a.SalePrice = decimal.NewNullDecimal(decimal.Zero)
		a.SaleDate = DatePtr(NewDate(2024, time.March, 1))
		assert.NoError(t, a.Validate())
	})

	t.Run("Damaged requires date and narration", func(t *testing.T) {
		a := base()
		a.ConditionStatus = AssetConditionDamaged
		assertValidationField(t, a.Validate(), "date_marked_dead")

		a.DateMarkedDead = DatePtr(NewDate(2024, time.April, 2))
		assertValidationField(t, a.Validate(), "damage_narration")

		a.DamageNarration = "Screen cracked"
		assert.NoError(t, a.Validate())
	})
}

func TestRentalValidate(t *testing.T) {
	valid := func() *Rental {
		return &Rental{
			AssetRef:        1,
			CustomerRef:     2,
			RentalStartDate: NewDate(2024, time.January, 20),
			PaymentAmount:   decimal.NewFromInt(3000),
		}
	}

	t.Run("Defaults status and billing day", func(t *testing.T) {
		r := valid()
		require.NoError(t, r.Validate())
		assert.Equal(t, RentalStatusOngoing, r.Status)
		assert.Equal(t, 20, r.BillingDay)
	})

	t.Run("End before start", func(t *testing.T) {
		r := valid()
		r.RentalEndDate = DatePtr(NewDate(2024, time.January, 10))
		assertValidationField(t, r.Validate(), "rental_end_date")
	})

	t.Run("Negative payment", func(t *testing.T) {
		r := valid()
		r.PaymentAmount = decimal.NewFromInt(-1)
		assertValidationField(t, r.Validate(), "payment_amount")
	})
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		Start Date  `json:"start"`
		End   *Date `json:"end"`
	}
	err := json.Unmarshal([]byte(`{"start":"2024-02-29","end":"2024-03-10T00:00:00Z"}`), &payload)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", payload.Start.String())
	assert.Equal(t, "2024-03-10", payload.End.String())

	out, err := json.Marshal(payload.Start)
	require.NoError(t, err)
	assert.Equal(t, `"2024-02-29"`, string(out))

	err = json.Unmarshal([]byte(`{"start":"29/02/2024"}`), &payload)
	assert.Error(t, err)
}

func TestDuplicateIdentifierError(t *testing.T) {
	var err error = &DuplicateIdentifierError{Identifier: "AST/2024/001"}
	assert.True(t, errors.Is(err, ErrDuplicateIdentifier))
	assert.Contains(t, err.Error(), "AST/2024/001")
}

func assertValidationField(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	if assert.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err) {
		assert.Equal(t, field, verr.Field)
	}
}
