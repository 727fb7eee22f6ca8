package postgres

import (
	"context"

	"assetrent-backend/internal/domain"
	"assetrent-backend/internal/repository"
)

type paymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO payments (rental_id, amount, payment_date, status) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, p.RentalID, p.Amount, p.PaymentDate, p.Status).Scan(&p.ID, &p.CreatedAt)
	return mapError(err)
}

func (r *paymentRepository) ListByRental(ctx context.Context, rentalID int64) ([]domain.Payment, error) {
	query := `SELECT id, rental_id, amount, payment_date, status, created_at FROM payments WHERE rental_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, rentalID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.RentalID, &p.Amount, &p.PaymentDate, &p.Status, &p.CreatedAt); err != nil {
			return nil, mapError(err)
		}
		payments = append(payments, p)
	}
	return payments, mapError(rows.Err())
}
