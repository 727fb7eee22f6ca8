package repository

import (
	"context"

	"assetrent-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntityRepository is the CRUD surface shared by every live entity kind.
// GetByID returns domain.ErrNotFound when no row matches.
type EntityRepository[T any] interface {
	Create(ctx context.Context, entity *T) error
	GetByID(ctx context.Context, id int64) (*T, error)
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]T, error)
}

type AssetRepository interface {
	EntityRepository[domain.Asset]
	GetByIdentifier(ctx context.Context, identifier string) (*domain.Asset, error)
	// ListIdentifiers returns live identifiers starting with prefix.
	ListIdentifiers(ctx context.Context, prefix string) ([]string, error)
	ListIDs(ctx context.Context) ([]int64, error)
	ResetRevenue(ctx context.Context) error
	SetRevenue(ctx context.Context, id int64, revenue decimal.Decimal) error
}

type CustomerRepository interface {
	EntityRepository[domain.Customer]
	GetByName(ctx context.Context, name string) (*domain.Customer, error)
}

type RentalRepository interface {
	EntityRepository[domain.Rental]
	ListByStatus(ctx context.Context, status domain.RentalStatus) ([]domain.Rental, error)
}

type ConfigurationRepository interface {
	EntityRepository[domain.Configuration]
}

type RepairRepository interface {
	EntityRepository[domain.Repair]
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	ListByRental(ctx context.Context, rentalID int64) ([]domain.Payment, error)
}

type PendingRepository interface {
	Create(ctx context.Context, rec *domain.PendingRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PendingRecord, error)
	// GetForUpdate locks the record until the enclosing transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.PendingRecord, error)
	UpdatePayload(ctx context.Context, rec *domain.PendingRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, kind domain.EntityKind) ([]domain.PendingRecord, error)
	// ListAssetIdentifiers returns identifiers claimed by open asset adds.
	ListAssetIdentifiers(ctx context.Context, prefix string) ([]string, error)
	Count(ctx context.Context) (int, error)
}

// IdentifierRepository guards asset identifier uniqueness across live and
// pending assets. Claim returns *domain.DuplicateIdentifierError when the
// identifier is taken.
type IdentifierRepository interface {
	Claim(ctx context.Context, identifier string) error
	Release(ctx context.Context, identifier string) error
}

// Tx exposes the repositories bound to one transaction.
type Tx interface {
	Assets() AssetRepository
	Customers() CustomerRepository
	Rentals() RentalRepository
	Configurations() ConfigurationRepository
	Repairs() RepairRepository
	Payments() PaymentRepository
	Pending() PendingRepository
	Identifiers() IdentifierRepository
}

// Store runs fn inside a transaction; fn's error rolls everything back.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}
