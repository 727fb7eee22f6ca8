package postgres

import (
	"context"

	"assetrent-backend/internal/domain"
	"assetrent-backend/internal/repository"

	"github.com/shopspring/decimal"
)

const assetColumns = `id, asset_id, asset_number, asset_suffix, type_of_asset, brand, model_no, serial_no,
	purchase_date, purchase_price, current_value, purchased_from, under_warranty, warranty_duration_months,
	condition_status, sold_to, sale_price, sale_date, date_marked_dead, damage_narration, revenue,
	edited_by, edited_at, created_at`

type assetRepository struct {
	db DBTX
}

func NewAssetRepository(db DBTX) repository.AssetRepository {
	return &assetRepository{db: db}
}

func scanAsset(row scanner) (*domain.Asset, error) {
	a := &domain.Asset{}
	err := row.Scan(&a.ID, &a.AssetID, &a.AssetNumber, &a.AssetSuffix, &a.TypeOfAsset, &a.Brand, &a.ModelNo, &a.SerialNo,
		&a.PurchaseDate, &a.PurchasePrice, &a.CurrentValue, &a.PurchasedFrom, &a.UnderWarranty, &a.WarrantyDurationMonths,
		&a.ConditionStatus, &a.SoldTo, &a.SalePrice, &a.SaleDate, &a.DateMarkedDead, &a.DamageNarration, &a.Revenue,
		&a.EditedBy, &a.EditedAt, &a.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

// Create inserts the asset with zero revenue; the sweep owns that column.
func (r *assetRepository) Create(ctx context.Context, a *domain.Asset) error {
	query := `INSERT INTO assets (asset_id, asset_number, asset_suffix, type_of_asset, brand, model_no, serial_no,
	          purchase_date, purchase_price, current_value, purchased_from, under_warranty, warranty_duration_months,
	          condition_status, sold_to, sale_price, sale_date, date_marked_dead, damage_narration, revenue, edited_by, edited_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, 0, $20, $21)
	          RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, a.AssetID, a.AssetNumber, a.AssetSuffix, a.TypeOfAsset, a.Brand, a.ModelNo, a.SerialNo,
		a.PurchaseDate, a.PurchasePrice, a.CurrentValue, a.PurchasedFrom, a.UnderWarranty, a.WarrantyDurationMonths,
		a.ConditionStatus, a.SoldTo, a.SalePrice, a.SaleDate, a.DateMarkedDead, a.DamageNarration, a.EditedBy, a.EditedAt).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return mapError(err)
	}
	a.Revenue = decimal.Zero
	return nil
}

func (r *assetRepository) GetByID(ctx context.Context, id int64) (*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`
	return scanAsset(r.db.QueryRowContext(ctx, query, id))
}

func (r *assetRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE asset_id = $1`
	return scanAsset(r.db.QueryRowContext(ctx, query, identifier))
}

// Update never writes asset_id or revenue.
func (r *assetRepository) Update(ctx context.Context, a *domain.Asset) error {
	query := `UPDATE assets SET type_of_asset=$1, brand=$2, model_no=$3, serial_no=$4, purchase_date=$5, purchase_price=$6,
	          current_value=$7, purchased_from=$8, under_warranty=$9, warranty_duration_months=$10, condition_status=$11,
	          sold_to=$12, sale_price=$13, sale_date=$14, date_marked_dead=$15, damage_narration=$16, edited_by=$17, edited_at=$18
	          WHERE id=$19`
	res, err := r.db.ExecContext(ctx, query, a.TypeOfAsset, a.Brand, a.ModelNo, a.SerialNo, a.PurchaseDate, a.PurchasePrice,
		a.CurrentValue, a.PurchasedFrom, a.UnderWarranty, a.WarrantyDurationMonths, a.ConditionStatus,
		a.SoldTo, a.SalePrice, a.SaleDate, a.DateMarkedDead, a.DamageNarration, a.EditedBy, a.EditedAt, a.ID)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

// Delete removes the asset and frees its identifier.
func (r *assetRepository) Delete(ctx context.Context, id int64) error {
	var identifier string
	err := r.db.QueryRowContext(ctx, `DELETE FROM assets WHERE id = $1 RETURNING asset_id`, id).Scan(&identifier)
	if err != nil {
		return mapError(err)
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM asset_identifiers WHERE identifier = $1`, identifier)
	return mapError(err)
}

func (r *assetRepository) List(ctx context.Context) ([]domain.Asset, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+assetColumns+` FROM assets ORDER BY id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *a)
	}
	return assets, mapError(rows.Err())
}

func (r *assetRepository) ListIdentifiers(ctx context.Context, prefix string) ([]string, error) {
	query := `SELECT asset_id FROM assets WHERE starts_with(asset_id, $1) ORDER BY asset_id`
	return queryStrings(ctx, r.db, query, prefix)
}

func (r *assetRepository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM assets ORDER BY id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(err)
		}
		ids = append(ids, id)
	}
	return ids, mapError(rows.Err())
}

func (r *assetRepository) ResetRevenue(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `UPDATE assets SET revenue = 0 WHERE revenue <> 0`)
	return mapError(err)
}

func (r *assetRepository) SetRevenue(ctx context.Context, id int64, revenue decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, `UPDATE assets SET revenue = $1 WHERE id = $2`, revenue, id)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func queryStrings(ctx context.Context, db DBTX, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, mapError(err)
		}
		out = append(out, s)
	}
	return out, mapError(rows.Err())
}
