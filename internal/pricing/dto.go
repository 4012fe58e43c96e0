package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// MissingPriceRecord is a (supplier, product) pair observed in orders with
// no covering price entry. Derived on demand, never persisted.
type MissingPriceRecord struct {
	SupplierName    string `json:"supplier_name"`
	ProductName     string `json:"product_name"`
	OrderCount      int    `json:"order_count"`
	LatestOrderDate string `json:"latest_order_date"`
	SupplierID      *int   `json:"supplier_id"`
	// SupplierProductID is display-only: supplier name and product name
	// concatenated with no separator, mirroring the stored composite id.
	// It is never parsed back into parts.
	SupplierProductID string `json:"supplier_product_id"`
	NeedsPricing      bool   `json:"needs_pricing"`
}

// ImportSummary reports a bulk price-list import. Counts are always complete
// even when the error list is truncated.
type ImportSummary struct {
	SuccessCount int      `json:"success_count"`
	ErrorCount   int      `json:"error_count"`
	Errors       []string `json:"errors"`
}

// EntryInput carries a single price entry create/replace. Suppliers are
// referenced by name and created on first use.
type EntryInput struct {
	SupplierName   string          `json:"supplier_name" validate:"required"`
	ProductName    string          `json:"product_name" validate:"required"`
	Currency       string          `json:"currency"`
	PriceBeforeGST decimal.Decimal `json:"price_before_gst"`
	GSTRate        decimal.Decimal `json:"gst_rate"`
	PriceAfterGST  decimal.Decimal `json:"price_after_gst"`
	HSNCode        string          `json:"hsn_code" validate:"required"`
	EffectiveFrom  string          `json:"effective_from" validate:"required"`
	EffectiveTo    string          `json:"effective_to"`
}

// EntryView is the list/detail shape served to the dashboard, joined with
// the supplier name.
type EntryView struct {
	ID                int             `json:"id"`
	SupplierID        int             `json:"supplier_id"`
	SupplierName      string          `json:"supplier_name"`
	SupplierProductID string          `json:"supplier_product_id"`
	ProductName       string          `json:"product_name"`
	Currency          string          `json:"currency"`
	PriceBeforeGST    decimal.Decimal `json:"price_before_gst"`
	GSTRate           decimal.Decimal `json:"gst_rate"`
	PriceAfterGST     decimal.Decimal `json:"price_after_gst"`
	HSNCode           string          `json:"hsn"`
	EffectiveFrom     time.Time       `json:"effective_from"`
	EffectiveTo       *time.Time      `json:"effective_to"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
