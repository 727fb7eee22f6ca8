package postgres

import (
	"context"

	"assetrent-backend/internal/domain"
	"assetrent-backend/internal/repository"
)

const configurationColumns = `id, asset_ref, date_of_config, cpu, ram, hdd, ssd, graphics, display_size, power_supply,
	detailed_config, cost, edited_by, edited_at, created_at`

type configurationRepository struct {
	db DBTX
}

func NewConfigurationRepository(db DBTX) repository.ConfigurationRepository {
	return &configurationRepository{db: db}
}

func scanConfiguration(row scanner) (*domain.Configuration, error) {
	c := &domain.Configuration{}
	err := row.Scan(&c.ID, &c.AssetRef, &c.DateOfConfig, &c.CPU, &c.RAM, &c.HDD, &c.SSD, &c.Graphics, &c.DisplaySize, &c.PowerSupply,
		&c.DetailedConfig, &c.Cost, &c.EditedBy, &c.EditedAt, &c.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

func (r *configurationRepository) Create(ctx context.Context, c *domain.Configuration) error {
	query := `INSERT INTO configurations (asset_ref, date_of_config, cpu, ram, hdd, ssd, graphics, display_size, power_supply,
	          detailed_config, cost, edited_by, edited_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, c.AssetRef, c.DateOfConfig, c.CPU, c.RAM, c.HDD, c.SSD, c.Graphics, c.DisplaySize,
		c.PowerSupply, c.DetailedConfig, c.Cost, c.EditedBy, c.EditedAt).Scan(&c.ID, &c.CreatedAt)
	return mapError(err)
}

func (r *configurationRepository) GetByID(ctx context.Context, id int64) (*domain.Configuration, error) {
	query := `SELECT ` + configurationColumns + ` FROM configurations WHERE id = $1`
	return scanConfiguration(r.db.QueryRowContext(ctx, query, id))
}

func (r *configurationRepository) Update(ctx context.Context, c *domain.Configuration) error {
	query := `UPDATE configurations SET asset_ref=$1, date_of_config=$2, cpu=$3, ram=$4, hdd=$5, ssd=$6, graphics=$7,
	          display_size=$8, power_supply=$9, detailed_config=$10, cost=$11, edited_by=$12, edited_at=$13
	          WHERE id=$14`
	res, err := r.db.ExecContext(ctx, query, c.AssetRef, c.DateOfConfig, c.CPU, c.RAM, c.HDD, c.SSD, c.Graphics,
		c.DisplaySize, c.PowerSupply, c.DetailedConfig, c.Cost, c.EditedBy, c.EditedAt, c.ID)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *configurationRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM configurations WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *configurationRepository) List(ctx context.Context) ([]domain.Configuration, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+configurationColumns+` FROM configurations ORDER BY id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []domain.Configuration
	for rows.Next() {
		c, err := scanConfiguration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, mapError(rows.Err())
}
