package service_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"assetrent-backend/internal/domain"
	"assetrent-backend/internal/lock"
	"assetrent-backend/internal/logger"
	"assetrent-backend/internal/repository"
	"assetrent-backend/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) domain.Date {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return domain.DateOf(t)
}

func dp(s string) *domain.Date {
	v := d(s)
	return &v
}

func TestRentalRevenue(t *testing.T) {
	today := d("2024-03-15")

	tests := []struct {
		name   string
		rental domain.Rental
		want   string
		reason string
	}{
		{
			name:   "Spans a month boundary",
			rental: domain.Rental{RentalStartDate: d("2024-01-20"), RentalEndDate: dp("2024-02-10"), PaymentAmount: decimal.NewFromInt(3000)},
			want:   "2195.77",
		},
		{
			name:   "Full 31 day month",
			rental: domain.Rental{RentalStartDate: d("2024-01-01"), RentalEndDate: dp("2024-01-31"), PaymentAmount: decimal.NewFromInt(3100)},
			want:   "3100.00",
		},
		{
			name:   "Single day",
			rental: domain.Rental{RentalStartDate: d("2024-02-29"), RentalEndDate: dp("2024-02-29"), PaymentAmount: decimal.NewFromInt(2900)},
			want:   "100.00",
		},
		{
			name:   "Ongoing rental stops at today",
			rental: domain.Rental{RentalStartDate: d("2024-03-01"), PaymentAmount: decimal.NewFromInt(3100)},
			want:   "1500.00",
		},
		{
			name:   "End after today is truncated",
			rental: domain.Rental{RentalStartDate: d("2024-03-01"), RentalEndDate: dp("2024-12-31"), PaymentAmount: decimal.NewFromInt(3100)},
			want:   "1500.00",
		},
		{
			name:   "Future start",
			rental: domain.Rental{RentalStartDate: d("2024-03-16"), PaymentAmount: decimal.NewFromInt(3100)},
			want:   "0",
			reason: service.SkipFutureStart,
		},
		{
			name:   "Zero payment",
			rental: domain.Rental{RentalStartDate: d("2024-01-01"), PaymentAmount: decimal.Zero},
			want:   "0",
			reason: service.SkipNoPayment,
		},
		{
			name:   "End before start",
			rental: domain.Rental{RentalStartDate: d("2024-02-10"), RentalEndDate: dp("2024-02-01"), PaymentAmount: decimal.NewFromInt(100)},
			want:   "0",
			reason: service.SkipEndsBeforeRun,
		},
		{
			name:   "Rounds half away from zero once",
			rental: domain.Rental{RentalStartDate: d("2023-02-01"), RentalEndDate: dp("2023-02-01"), PaymentAmount: decimal.RequireFromString("0.70")},
			want:   "0.03",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := service.RentalRevenue(tt.rental, today)
			assert.Equal(t, tt.reason, reason)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestRentalRevenue_HalfCents(t *testing.T) {
	today := d("2024-06-01")

	// 15 of April's 30 days lands exactly on half a cent
	tests := []struct {
		payment string
		want    string
	}{
		{"1000.03", "500.02"},
		{"1000.09", "500.05"},
		{"1000.15", "500.08"},
		{"1000.01", "500.01"},
	}

	for _, tt := range tests {
		t.Run(tt.payment, func(t *testing.T) {
			r := domain.Rental{RentalStartDate: d("2024-04-01"), RentalEndDate: dp("2024-04-15"), PaymentAmount: decimal.RequireFromString(tt.payment)}
			got, reason := service.RentalRevenue(r, today)
			assert.Equal(t, service.SkipNone, reason)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}

	t.Run("Across months of every length", func(t *testing.T) {
		// 3/31 + 29/29 + 31/31 + 1/30 of 1000.03
		r := domain.Rental{RentalStartDate: d("2024-01-29"), RentalEndDate: dp("2024-04-01"), PaymentAmount: decimal.RequireFromString("1000.03")}
		got, _ := service.RentalRevenue(r, today)
		assert.Equal(t, "2130.17", got.StringFixed(2))
	})
}

func TestRevenueService_WarnsOnInvertedRental(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC))
	laptop := f.addAsset(t, map[string]any{})
	c := f.addCustomer(t, "Acme")

	// written directly, bypassing submit validation
	require.NoError(t, f.store.WithTx(ctx, func(tx repository.Tx) error {
		return tx.Rentals().Create(ctx, &domain.Rental{
			AssetRef:        laptop.ID,
			CustomerRef:     c.ID,
			RentalStartDate: d("2024-02-10"),
			RentalEndDate:   dp("2024-02-01"),
			PaymentAmount:   decimal.NewFromInt(100),
			Status:          domain.RentalStatusOngoing,
		})
	}))

	var buf bytes.Buffer
	svc := service.NewRevenueService(f.store, lock.NewLocalLocker(), service.RevenueOptions{}, f.clock, logger.NewWithWriter(&buf, "warn"), nil)
	report, err := svc.RecomputeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"start":"2024-02-10"`)
	assert.Contains(t, out, `"end":"2024-02-01"`)
}

func TestRevenueService_RecomputeAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC))

	laptop := f.addAsset(t, map[string]any{})
	printer := f.addAsset(t, map[string]any{})
	idle := f.addAsset(t, map[string]any{})
	c := f.addCustomer(t, "Acme")

	f.addRental(t, laptop.ID, c.ID, "2024-01-20", "2024-02-10", "3000")
	f.addRental(t, laptop.ID, c.ID, "2024-03-01", "", "3100")
	f.addRental(t, printer.ID, c.ID, "2024-01-01", "2024-01-31", "3100")
	f.addRental(t, printer.ID, c.ID, "2024-04-01", "", "500")

	// stale value from an earlier sweep must not survive
	require.NoError(t, f.store.WithTx(ctx, func(tx repository.Tx) error {
		return tx.Assets().SetRevenue(ctx, idle.ID, decimal.NewFromInt(999))
	}))

	report, err := f.revenue.RecomputeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Assets)
	assert.Equal(t, 3, report.Rentals)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, "6795.77", report.Total.StringFixed(2))

	expect := func() {
		assert.Equal(t, "3695.77", f.asset(t, laptop.ID).Revenue.StringFixed(2))
		assert.Equal(t, "3100.00", f.asset(t, printer.ID).Revenue.StringFixed(2))
		assert.True(t, f.asset(t, idle.ID).Revenue.IsZero())
	}
	expect()

	t.Run("Idempotent", func(t *testing.T) {
		_, err := f.revenue.RecomputeAll(ctx)
		require.NoError(t, err)
		expect()
	})

	t.Run("Read back", func(t *testing.T) {
		rev, err := f.revenue.GetAssetRevenue(ctx, printer.ID)
		require.NoError(t, err)
		assert.Equal(t, "3100.00", rev.StringFixed(2))

		_, err = f.revenue.GetAssetRevenue(ctx, 9999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Batched sweep matches", func(t *testing.T) {
		batched := service.NewRevenueService(f.store, lock.NewLocalLocker(), service.RevenueOptions{BatchSize: 2}, f.clock, logger.Nop(), nil)
		require.NoError(t, f.store.WithTx(ctx, func(tx repository.Tx) error {
			return tx.Assets().SetRevenue(ctx, idle.ID, decimal.NewFromInt(7))
		}))
		report, err := batched.RecomputeAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Batches)
		expect()
	})

	t.Run("Rental of a deleted asset is skipped", func(t *testing.T) {
		require.NoError(t, f.store.WithTx(ctx, func(tx repository.Tx) error {
			return tx.Assets().Delete(ctx, printer.ID)
		}))
		report, err := f.revenue.RecomputeAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Skipped)
		assert.Equal(t, "3695.77", f.asset(t, laptop.ID).Revenue.StringFixed(2))
	})
}

func TestRevenueService_SingleFlight(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC))
	locker := lock.NewLocalLocker()
	svc := service.NewRevenueService(f.store, locker, service.RevenueOptions{LockKey: "sweep"}, f.clock, logger.Nop(), nil)

	lease, err := locker.TryAcquire(ctx, "sweep")
	require.NoError(t, err)

	_, err = svc.RecomputeAll(ctx)
	assert.ErrorIs(t, err, domain.ErrSweepInProgress)

	require.NoError(t, lease.Release(ctx))
	_, err = svc.RecomputeAll(ctx)
	assert.NoError(t, err)
}
