package service

import (
	"context"
	"encoding/json"
	"time"

	"assetrent-backend/internal/domain"
	"assetrent-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Clock supplies "now" for audit stamps and revenue window truncation.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always reports the same instant.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

type IdentityAllocator interface {
	// Allocate picks an identifier within year. requested > 0 asks for that
	// sequence number; zero lets the allocator choose the first free one.
	Allocate(ctx context.Context, tx repository.Tx, year, requested int, suffix string) (Identifier, error)
	Compose(year, number int, suffix string) Identifier
}

type ApprovalService interface {
	Submit(ctx context.Context, capability domain.Capability, kind domain.EntityKind, payload json.RawMessage, originalID *int64) (*SubmitResult, error)
	Resubmit(ctx context.Context, capability domain.Capability, pendingID uuid.UUID, payload json.RawMessage) (*domain.PendingRecord, error)
	Approve(ctx context.Context, capability domain.Capability, pendingID uuid.UUID) (*Resolution, error)
	Reject(ctx context.Context, capability domain.Capability, pendingID uuid.UUID) (*Resolution, error)
	ListPending(ctx context.Context, kind domain.EntityKind) ([]domain.PendingRecord, error)
	GetPending(ctx context.Context, pendingID uuid.UUID) (*PendingView, error)
}

type RevenueService interface {
	RecomputeAll(ctx context.Context) (*SweepReport, error)
	GetAssetRevenue(ctx context.Context, assetID int64) (decimal.Decimal, error)
}

type BillingService interface {
	SendReminders(ctx context.Context) (int, error)
}

// Notifier delivers billing reminder digests.
type Notifier interface {
	SendBillingReminders(ctx context.Context, reminders []BillingReminder) error
}

// SubmitResult carries exactly one of Entity (privileged write) or Pending.
type SubmitResult struct {
	Entity  domain.Entity         `json:"entity,omitempty"`
	Pending *domain.PendingRecord `json:"pending,omitempty"`
}

type ResolutionOutcome string

const (
	ResolutionApproved       ResolutionOutcome = "approved"
	ResolutionRejected       ResolutionOutcome = "rejected"
	ResolutionAlreadyHandled ResolutionOutcome = "already_handled"
)

type Resolution struct {
	Outcome   ResolutionOutcome `json:"outcome"`
	PendingID uuid.UUID         `json:"pending_id"`
	Kind      domain.EntityKind `json:"kind,omitempty"`
	Entity    domain.Entity     `json:"entity,omitempty"`
}

func (r *Resolution) AlreadyHandled() bool {
	return r.Outcome == ResolutionAlreadyHandled
}

// PendingView is a pending record with its payload decoded into the
// proposed entity.
type PendingView struct {
	Record   domain.PendingRecord `json:"record"`
	Proposed domain.Entity        `json:"proposed"`
}

type SweepReport struct {
	Assets   int             `json:"assets"`
	Rentals  int             `json:"rentals"`
	Skipped  int             `json:"skipped"`
	Batches  int             `json:"batches"`
	Total    decimal.Decimal `json:"total"`
	Duration time.Duration   `json:"duration_ns"`
}

type BillingReminder struct {
	Rental   domain.Rental   `json:"rental"`
	Customer domain.Customer `json:"customer"`
	Asset    domain.Asset    `json:"asset"`
}
