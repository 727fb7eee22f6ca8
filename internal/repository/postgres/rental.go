package postgres

import (
	"context"

	"assetrent-backend/internal/domain"
	"assetrent-backend/internal/repository"
)

const rentalColumns = `id, asset_ref, customer_ref, contract_number, rental_start_date, rental_end_date, payment_amount,
	billing_day, status, edited_by, edited_at, created_at`

type rentalRepository struct {
	db DBTX
}

func NewRentalRepository(db DBTX) repository.RentalRepository {
	return &rentalRepository{db: db}
}

func scanRental(row scanner) (*domain.Rental, error) {
	rt := &domain.Rental{}
	err := row.Scan(&rt.ID, &rt.AssetRef, &rt.CustomerRef, &rt.ContractNumber, &rt.RentalStartDate, &rt.RentalEndDate, &rt.PaymentAmount,
		&rt.BillingDay, &rt.Status, &rt.EditedBy, &rt.EditedAt, &rt.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return rt, nil
}

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	query := `INSERT INTO rentals (asset_ref, customer_ref, contract_number, rental_start_date, rental_end_date, payment_amount,
	          billing_day, status, edited_by, edited_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, rt.AssetRef, rt.CustomerRef, rt.ContractNumber, rt.RentalStartDate, rt.RentalEndDate,
		rt.PaymentAmount, rt.BillingDay, rt.Status, rt.EditedBy, rt.EditedAt).Scan(&rt.ID, &rt.CreatedAt)
	return mapError(err)
}

func (r *rentalRepository) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`
	return scanRental(r.db.QueryRowContext(ctx, query, id))
}

func (r *rentalRepository) Update(ctx context.Context, rt *domain.Rental) error {
	query := `UPDATE rentals SET asset_ref=$1, customer_ref=$2, contract_number=$3, rental_start_date=$4, rental_end_date=$5,
	          payment_amount=$6, billing_day=$7, status=$8, edited_by=$9, edited_at=$10
	          WHERE id=$11`
	res, err := r.db.ExecContext(ctx, query, rt.AssetRef, rt.CustomerRef, rt.ContractNumber, rt.RentalStartDate, rt.RentalEndDate,
		rt.PaymentAmount, rt.BillingDay, rt.Status, rt.EditedBy, rt.EditedAt, rt.ID)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *rentalRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rentals WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *rentalRepository) List(ctx context.Context) ([]domain.Rental, error) {
	return r.list(ctx, `SELECT `+rentalColumns+` FROM rentals ORDER BY id`)
}

func (r *rentalRepository) ListByStatus(ctx context.Context, status domain.RentalStatus) ([]domain.Rental, error) {
	return r.list(ctx, `SELECT `+rentalColumns+` FROM rentals WHERE status = $1 ORDER BY id`, status)
}

func (r *rentalRepository) list(ctx context.Context, query string, args ...any) ([]domain.Rental, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rentals []domain.Rental
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		rentals = append(rentals, *rt)
	}
	return rentals, mapError(rows.Err())
}
