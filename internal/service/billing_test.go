package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"assetrent-backend/internal/domain"
	"assetrent-backend/internal/logger"
	"assetrent-backend/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBillingService_SendReminders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC))

	laptop := f.addAsset(t, map[string]any{})
	c := f.addCustomer(t, "Acme")
	ongoing := f.addRental(t, laptop.ID, c.ID, "2024-01-10", "", "1200")
	f.addRental(t, laptop.ID, c.ID, "2024-04-01", "", "800")
	_, err := f.approvals.Submit(ctx, admin, domain.KindRental, payload(t, map[string]any{
		"asset": laptop.ID, "customer": c.ID, "rental_start_date": "2023-05-01",
		"rental_end_date": "2023-12-31", "payment_amount": "900", "status": "completed",
	}), nil)
	require.NoError(t, err)

	t.Run("Reminder day sends one digest", func(t *testing.T) {
		notifier := new(MockNotifier)
		notifier.On("SendBillingReminders", ctx, mock.MatchedBy(func(r []service.BillingReminder) bool {
			return len(r) == 1 && r[0].Rental.ID == ongoing.ID && r[0].Customer.Name == "Acme" && r[0].Asset.ID == laptop.ID
		})).Return(nil)

		svc := service.NewBillingService(f.store, notifier, 5, f.clock, logger.Nop(), nil)
		n, err := svc.SendReminders(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		notifier.AssertExpectations(t)
	})

	t.Run("Other days send nothing", func(t *testing.T) {
		notifier := new(MockNotifier)
		svc := service.NewBillingService(f.store, notifier, 6, f.clock, logger.Nop(), nil)
		n, err := svc.SendReminders(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
		notifier.AssertNotCalled(t, "SendBillingReminders", mock.Anything, mock.Anything)
	})

	t.Run("Notifier failure is returned", func(t *testing.T) {
		notifier := new(MockNotifier)
		notifier.On("SendBillingReminders", ctx, mock.Anything).Return(errors.New("smtp down"))
		svc := service.NewBillingService(f.store, notifier, 5, f.clock, logger.Nop(), nil)
		_, err := svc.SendReminders(ctx)
		assert.EqualError(t, err, "smtp down")
	})
}

func TestBillingService_ReminderDayClampsToMonthEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC))
	a := f.addAsset(t, map[string]any{})
	c := f.addCustomer(t, "Acme")
	f.addRental(t, a.ID, c.ID, "2024-01-31", "", "1000")

	notifier := new(MockNotifier)
	notifier.On("SendBillingReminders", ctx, mock.Anything).Return(nil)
	svc := service.NewBillingService(f.store, notifier, 31, f.clock, logger.Nop(), nil)

	n, err := svc.SendReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFormatReminderDigest(t *testing.T) {
	body := service.FormatReminderDigest([]service.BillingReminder{{
		Rental: domain.Rental{
			ContractNumber:  "C-17",
			RentalStartDate: domain.NewDate(2024, time.January, 10),
			PaymentAmount:   decimal.NewFromInt(1200),
		},
		Customer: domain.Customer{Name: "Acme"},
		Asset:    domain.Asset{AssetID: "AST/2024/001"},
	}})
	assert.True(t, strings.Contains(body, "- Acme: AST/2024/001, contract C-17, started 2024-01-10, amount 1200.00"))
}
