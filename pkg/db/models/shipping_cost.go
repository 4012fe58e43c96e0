package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShippingCost maps a courier ("region" holds the order's fulfilled_by
// value) to its per-order cost. Replaced wholesale on each upload.
type ShippingCost struct {
	ID           int             `gorm:"column:id;primaryKey;autoIncrement"`
	Region       string          `gorm:"column:region;size:255;not null"`
	WeightRange  string          `gorm:"column:weight_range;size:100"`
	ShippingCost decimal.Decimal `gorm:"column:shipping_cost;type:numeric(10,2);not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}
