package postgres

import (
	"context"

	"assetrent-backend/internal/domain"
	"assetrent-backend/internal/repository"
)

const customerColumns = `id, name, email, phone_number_primary, phone_number_secondary, address_primary, address_secondary,
	is_permanent, is_bni_member, reference_name, edited_by, edited_at, created_at`

type customerRepository struct {
	db DBTX
}

func NewCustomerRepository(db DBTX) repository.CustomerRepository {
	return &customerRepository{db: db}
}

func scanCustomer(row scanner) (*domain.Customer, error) {
	c := &domain.Customer{}
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.PhoneNumberPrimary, &c.PhoneNumberSecondary, &c.AddressPrimary, &c.AddressSecondary,
		&c.IsPermanent, &c.IsBNIMember, &c.ReferenceName, &c.EditedBy, &c.EditedAt, &c.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

func (r *customerRepository) Create(ctx context.Context, c *domain.Customer) error {
	query := `INSERT INTO customers (name, email, phone_number_primary, phone_number_secondary, address_primary, address_secondary,
	          is_permanent, is_bni_member, reference_name, edited_by, edited_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, c.Name, c.Email, c.PhoneNumberPrimary, c.PhoneNumberSecondary, c.AddressPrimary, c.AddressSecondary,
		c.IsPermanent, c.IsBNIMember, c.ReferenceName, c.EditedBy, c.EditedAt).Scan(&c.ID, &c.CreatedAt)
	return mapError(err)
}

func (r *customerRepository) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return scanCustomer(r.db.QueryRowContext(ctx, query, id))
}

// GetByName matches case-insensitively and returns the oldest match.
func (r *customerRepository) GetByName(ctx context.Context, name string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE LOWER(TRIM(name)) = LOWER(TRIM($1)) ORDER BY id LIMIT 1`
	return scanCustomer(r.db.QueryRowContext(ctx, query, name))
}

func (r *customerRepository) Update(ctx context.Context, c *domain.Customer) error {
	query := `UPDATE customers SET name=$1, email=$2, phone_number_primary=$3, phone_number_secondary=$4, address_primary=$5,
	          address_secondary=$6, is_permanent=$7, is_bni_member=$8, reference_name=$9, edited_by=$10, edited_at=$11
	          WHERE id=$12`
	res, err := r.db.ExecContext(ctx, query, c.Name, c.Email, c.PhoneNumberPrimary, c.PhoneNumberSecondary, c.AddressPrimary,
		c.AddressSecondary, c.IsPermanent, c.IsBNIMember, c.ReferenceName, c.EditedBy, c.EditedAt, c.ID)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *customerRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *customerRepository) List(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	return customers, mapError(rows.Err())
}
