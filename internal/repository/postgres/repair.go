package postgres

import (
	"context"

	"assetrent-backend/internal/domain"
	"assetrent-backend/internal/repository"
)

const repairColumns = `id, asset_ref, name, repair_date, cost, info, repair_warranty_months, edited_by, edited_at, created_at`

type repairRepository struct {
	db DBTX
}

func NewRepairRepository(db DBTX) repository.RepairRepository {
	return &repairRepository{db: db}
}

func scanRepair(row scanner) (*domain.Repair, error) {
	rp := &domain.Repair{}
	err := row.Scan(&rp.ID, &rp.AssetRef, &rp.Name, &rp.Date, &rp.Cost, &rp.Info, &rp.RepairWarrantyMonths,
		&rp.EditedBy, &rp.EditedAt, &rp.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return rp, nil
}

func (r *repairRepository) Create(ctx context.Context, rp *domain.Repair) error {
	query := `INSERT INTO repairs (asset_ref, name, repair_date, cost, info, repair_warranty_months, edited_by, edited_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, rp.AssetRef, rp.Name, rp.Date, rp.Cost, rp.Info, rp.RepairWarrantyMonths,
		rp.EditedBy, rp.EditedAt).Scan(&rp.ID, &rp.CreatedAt)
	return mapError(err)
}

func (r *repairRepository) GetByID(ctx context.Context, id int64) (*domain.Repair, error) {
	query := `SELECT ` + repairColumns + ` FROM repairs WHERE id = $1`
	return scanRepair(r.db.QueryRowContext(ctx, query, id))
}

func (r *repairRepository) Update(ctx context.Context, rp *domain.Repair) error {
	query := `UPDATE repairs SET asset_ref=$1, name=$2, repair_date=$3, cost=$4, info=$5, repair_warranty_months=$6,
	          edited_by=$7, edited_at=$8 WHERE id=$9`
	res, err := r.db.ExecContext(ctx, query, rp.AssetRef, rp.Name, rp.Date, rp.Cost, rp.Info, rp.RepairWarrantyMonths,
		rp.EditedBy, rp.EditedAt, rp.ID)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *repairRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM repairs WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *repairRepository) List(ctx context.Context) ([]domain.Repair, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+repairColumns+` FROM repairs ORDER BY id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []domain.Repair
	for rows.Next() {
		rp, err := scanRepair(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rp)
	}
	return out, mapError(rows.Err())
}
