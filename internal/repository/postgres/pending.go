package postgres

import (
	"context"
	"encoding/json"

	"assetrent-backend/internal/domain"
	"assetrent-backend/internal/repository"

	"github.com/google/uuid"
)

const pendingColumns = `id, kind, pending_type, original_id, asset_identifier, payload, submitted_by, submitted_at`

type pendingRepository struct {
	db DBTX
}

func NewPendingRepository(db DBTX) repository.PendingRepository {
	return &pendingRepository{db: db}
}

func scanPending(row scanner) (*domain.PendingRecord, error) {
	rec := &domain.PendingRecord{}
	var payload string
	err := row.Scan(&rec.ID, &rec.Kind, &rec.Type, &rec.OriginalID, &rec.AssetIdentifier, &payload, &rec.SubmittedBy, &rec.SubmittedAt)
	if err != nil {
		return nil, mapError(err)
	}
	rec.Payload = json.RawMessage(payload)
	return rec, nil
}

func (r *pendingRepository) Create(ctx context.Context, rec *domain.PendingRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	query := `INSERT INTO pending_records (` + pendingColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query, rec.ID, rec.Kind, rec.Type, rec.OriginalID, rec.AssetIdentifier,
		string(rec.Payload), rec.SubmittedBy, rec.SubmittedAt)
	return mapError(err)
}

func (r *pendingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PendingRecord, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_records WHERE id = $1`
	return scanPending(r.db.QueryRowContext(ctx, query, id))
}

// GetForUpdate row-locks the record so concurrent approve/reject calls
// serialize; the loser finds the row gone once the winner commits.
func (r *pendingRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.PendingRecord, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_records WHERE id = $1 FOR UPDATE`
	return scanPending(r.db.QueryRowContext(ctx, query, id))
}

// UpdatePayload rewrites the payload, claimed identifier and submission
// time. kind, type and original_id are fixed at creation.
func (r *pendingRepository) UpdatePayload(ctx context.Context, rec *domain.PendingRecord) error {
	query := `UPDATE pending_records SET payload = $1, asset_identifier = $2, submitted_at = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, string(rec.Payload), rec.AssetIdentifier, rec.SubmittedAt, rec.ID)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *pendingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pending_records WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *pendingRepository) List(ctx context.Context, kind domain.EntityKind) ([]domain.PendingRecord, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_records`
	var args []any
	if kind != "" {
		query += ` WHERE kind = $1`
		args = append(args, kind)
	}
	query += ` ORDER BY submitted_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var records []domain.PendingRecord
	for rows.Next() {
		rec, err := scanPending(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, mapError(rows.Err())
}

func (r *pendingRepository) ListAssetIdentifiers(ctx context.Context, prefix string) ([]string, error) {
	query := `SELECT asset_identifier FROM pending_records
	          WHERE kind = 'asset' AND asset_identifier <> '' AND starts_with(asset_identifier, $1)
	          ORDER BY asset_identifier`
	return queryStrings(ctx, r.db, query, prefix)
}

func (r *pendingRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_records`).Scan(&n)
	return n, mapError(err)
}

type identifierRepository struct {
	db DBTX
}

func NewIdentifierRepository(db DBTX) repository.IdentifierRepository {
	return &identifierRepository{db: db}
}

// Claim inserts into asset_identifiers; a primary key violation surfaces as
// *domain.DuplicateIdentifierError through mapError.
func (r *identifierRepository) Claim(ctx context.Context, identifier string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO asset_identifiers (identifier) VALUES ($1)`, identifier)
	return mapError(err)
}

func (r *identifierRepository) Release(ctx context.Context, identifier string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM asset_identifiers WHERE identifier = $1`, identifier)
	return mapError(err)
}
