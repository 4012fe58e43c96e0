package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceEntry is the supplier price valid for a product during
// [EffectiveFrom, EffectiveTo]. A nil EffectiveTo means open-ended.
//
// (supplier_id, product_name) is the natural key: re-importing a pair
// overwrites the stored entry, so only the latest price survives even
// though the validity columns suggest versioning. Kept as source behavior;
// see DESIGN.md.
type PriceEntry struct {
	ID                int             `gorm:"column:id;primaryKey;autoIncrement"`
	SupplierID        int             `gorm:"column:supplier_id;not null;uniqueIndex:uniq_price_entries_supplier_product"`
	Supplier          *Supplier       `gorm:"foreignKey:SupplierID;constraint:OnDelete:CASCADE"`
	ProductName       string          `gorm:"column:product_name;size:255;not null;uniqueIndex:uniq_price_entries_supplier_product;index"`
	Currency          string          `gorm:"column:currency;size:10;default:INR"`
	PriceBeforeGST    decimal.Decimal `gorm:"column:price_before_gst;type:numeric(10,2);not null"`
	GSTRate           decimal.Decimal `gorm:"column:gst_rate;type:numeric(5,2)"`
	PriceAfterGST     decimal.Decimal `gorm:"column:price_after_gst;type:numeric(10,2);not null"`
	HSNCode           string          `gorm:"column:hsn_code;size:50;not null"`
	EffectiveFrom     time.Time       `gorm:"column:effective_from;type:date;not null"`
	EffectiveTo       *time.Time      `gorm:"column:effective_to;type:date"`
	SupplierProductID string          `gorm:"column:supplier_product_id;size:512"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
