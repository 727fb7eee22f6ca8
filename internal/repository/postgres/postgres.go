package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"assetrent-backend/internal/domain"
	"assetrent-backend/internal/logger"
	"assetrent-backend/internal/repository"

	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

// DBTX is the part of *sql.DB and *sql.Tx the repositories need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db  *sql.DB
	log *logger.Logger
}

var _ repository.Store = (*Store)(nil)

func NewStore(db *sql.DB, log *logger.Logger) *Store {
	return &Store{db: db, log: log.WithService("postgres")}
}

// Open connects to postgres and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	if err := fn(newTxRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		s.log.Error().Err(err).Msg("Transaction commit failed")
		return mapError(fmt.Errorf("commit: %w", err))
	}
	return nil
}

type txRepos struct {
	db DBTX
}

func newTxRepos(db DBTX) *txRepos {
	return &txRepos{db: db}
}

func (t *txRepos) Assets() repository.AssetRepository       { return NewAssetRepository(t.db) }
func (t *txRepos) Customers() repository.CustomerRepository { return NewCustomerRepository(t.db) }
func (t *txRepos) Rentals() repository.RentalRepository     { return NewRentalRepository(t.db) }
func (t *txRepos) Configurations() repository.ConfigurationRepository {
	return NewConfigurationRepository(t.db)
}
func (t *txRepos) Repairs() repository.RepairRepository           { return NewRepairRepository(t.db) }
func (t *txRepos) Payments() repository.PaymentRepository         { return NewPaymentRepository(t.db) }
func (t *txRepos) Pending() repository.PendingRepository           { return NewPendingRepository(t.db) }
func (t *txRepos) Identifiers() repository.IdentifierRepository { return NewIdentifierRepository(t.db) }

// identifier constraints whose violation means an asset identifier is taken
var identifierConstraints = map[string]bool{
	"asset_identifiers_pkey": true,
	"assets_asset_id_key":    true,
}

// mapError turns driver errors into domain errors. Anything it does not
// recognise is returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23505":
		if identifierConstraints[pqErr.Constraint] {
			return &domain.DuplicateIdentifierError{Identifier: keyValue(pqErr.Detail)}
		}
	case "40001", "40P01", "55P03":
		return fmt.Errorf("%w: %s", domain.ErrConcurrencyConflict, pqErr.Message)
	}
	return err
}

// keyValue pulls the value out of a detail like
// "Key (identifier)=(AST/2024/001) already exists."
func keyValue(detail string) string {
	start := strings.Index(detail, "=(")
	if start < 0 {
		return ""
	}
	rest := detail[start+2:]
	end := strings.LastIndex(rest, ")")
	if end < 0 {
		return rest
	}
	return rest[:end]
}

// expectOne maps a zero row count to ErrNotFound.
func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}
