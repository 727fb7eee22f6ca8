package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Configuration struct {
	ID             int64           `json:"id"`
	AssetRef       int64           `json:"asset"`
	DateOfConfig   Date            `json:"date_of_config"`
	CPU            string          `json:"cpu,omitempty"`
	RAM            string          `json:"ram,omitempty"`
	HDD            string          `json:"hdd,omitempty"`
	SSD            string          `json:"ssd,omitempty"`
	Graphics       string          `json:"graphics,omitempty"`
	DisplaySize    string          `json:"display_size,omitempty"`
	PowerSupply    string          `json:"power_supply,omitempty"`
	DetailedConfig string          `json:"detailed_config,omitempty"`
	Cost           decimal.Decimal `json:"cost"`
	Audit
	CreatedAt time.Time `json:"created_at"`
}

func (c *Configuration) Kind() EntityKind { return KindConfiguration }
func (c *Configuration) EntityID() int64  { return c.ID }

func (c *Configuration) Validate() error {
	if c.AssetRef <= 0 {
		return NewValidationError(KindConfiguration, "asset", "is required")
	}
	if c.DateOfConfig.IsZero() {
		return NewValidationError(KindConfiguration, "date_of_config", "is required")
	}
	if c.Cost.IsNegative() {
		return NewValidationError(KindConfiguration, "cost", "must not be negative")
	}
	return nil
}

func (c *Configuration) ApplyEdit(src *Configuration) {
	c.AssetRef = src.AssetRef
	c.DateOfConfig = src.DateOfConfig
	c.CPU = src.CPU
	c.RAM = src.RAM
	c.HDD = src.HDD
	c.SSD = src.SSD
	c.Graphics = src.Graphics
	c.DisplaySize = src.DisplaySize
	c.PowerSupply = src.PowerSupply
	c.DetailedConfig = src.DetailedConfig
	c.Cost = src.Cost
}
