package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"assetrent-backend/internal/domain"
	"assetrent-backend/internal/lock"
	"assetrent-backend/internal/logger"
	"assetrent-backend/internal/repository"
	"assetrent-backend/internal/repository/memory"
	"assetrent-backend/internal/service"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	admin = domain.PrivilegedActor("admin")
	clerk = domain.StandardActor("clerk")
)

type fixture struct {
	store     *memory.Store
	clock     *service.FixedClock
	allocator service.IdentityAllocator
	approvals service.ApprovalService
	revenue   service.RevenueService
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := &service.FixedClock{At: now}
	log := logger.Nop()
	allocator := service.NewIdentityAllocator("AST", log, nil)
	return &fixture{
		store:     store,
		clock:     clock,
		allocator: allocator,
		approvals: service.NewApprovalService(store, allocator, clock, log, nil),
		revenue:   service.NewRevenueService(store, lock.NewLocalLocker(), service.RevenueOptions{}, clock, log, nil),
	}
}

func payload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func (f *fixture) addAsset(t *testing.T, fields map[string]any) *domain.Asset {
	t.Helper()
	if _, ok := fields["type_of_asset"]; !ok {
		fields["type_of_asset"] = "Laptop"
	}
	res, err := f.approvals.Submit(context.Background(), admin, domain.KindAsset, payload(t, fields), nil)
	require.NoError(t, err)
	return res.Entity.(*domain.Asset)
}

func (f *fixture) addCustomer(t *testing.T, name string) *domain.Customer {
	t.Helper()
	res, err := f.approvals.Submit(context.Background(), admin, domain.KindCustomer, payload(t, map[string]any{"name": name}), nil)
	require.NoError(t, err)
	return res.Entity.(*domain.Customer)
}

func (f *fixture) addRental(t *testing.T, assetID, customerID int64, start, end string, amount string) *domain.Rental {
	t.Helper()
	fields := map[string]any{
		"asset":             assetID,
		"customer":          customerID,
		"rental_start_date": start,
		"payment_amount":    amount,
	}
	if end != "" {
		fields["rental_end_date"] = end
	}
	res, err := f.approvals.Submit(context.Background(), admin, domain.KindRental, payload(t, fields), nil)
	require.NoError(t, err)
	return res.Entity.(*domain.Rental)
}

func (f *fixture) asset(t *testing.T, id int64) *domain.Asset {
	t.Helper()
	var a *domain.Asset
	require.NoError(t, f.store.WithTx(context.Background(), func(tx repository.Tx) error {
		var err error
		a, err = tx.Assets().GetByID(context.Background(), id)
		return err
	}))
	return a
}

func (f *fixture) pendingCount(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, f.store.WithTx(context.Background(), func(tx repository.Tx) error {
		var err error
		n, err = tx.Pending().Count(context.Background())
		return err
	}))
	return n
}

// conflictStore fails the first n transactions with a concurrency conflict.
type conflictStore struct {
	repository.Store
	failures int
	calls    int
}

func (s *conflictStore) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.calls++
	if s.failures > 0 {
		s.failures--
		return domain.ErrConcurrencyConflict
	}
	return s.Store.WithTx(ctx, fn)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendBillingReminders(ctx context.Context, reminders []service.BillingReminder) error {
	args := m.Called(ctx, reminders)
	return args.Error(0)
}
