package stats

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/profitlens/profitlens-backend/pkg/db/models"
)

func setupStatsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  channel TEXT,
  order_date DATE NOT NULL,
  fulfilled_by TEXT,
  delivered_date DATE,
  product_name TEXT,
  order_amount NUMERIC NOT NULL DEFAULT 0,
  pickup_warehouse TEXT,
  order_account TEXT,
  waybill_number TEXT,
  product_value NUMERIC NOT NULL DEFAULT 0,
  mode TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  status_class TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS suppliers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS price_entries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  supplier_id INTEGER NOT NULL,
  product_name TEXT NOT NULL,
  currency TEXT NOT NULL DEFAULT 'INR',
  price_before_gst NUMERIC NOT NULL DEFAULT 0,
  gst_rate NUMERIC NOT NULL DEFAULT 0,
  price_after_gst NUMERIC NOT NULL DEFAULT 0,
  hsn_code TEXT,
  effective_from DATE NOT NULL,
  effective_to DATE,
  supplier_product_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS shipping_costs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  region TEXT NOT NULL,
  weight_range TEXT,
  shipping_cost NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS marketing_spend (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  spend_date DATE NOT NULL,
  amount NUMERIC NOT NULL DEFAULT 0,
  channel TEXT,
  notes TEXT,
  created_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	for _, table := range []string{"marketing_spend", "shipping_costs", "price_entries", "orders", "suppliers"} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}
	return db
}

func TestServiceCollect(t *testing.T) {
	db := setupStatsTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	for _, d := range []int{10, 3, 21} {
		require.NoError(t, db.Create(&models.Order{
			Channel:     "Shopify",
			OrderDate:   day(d),
			ProductName: "Cotton Tee",
			OrderAmount: decimal.NewFromInt(499),
			Mode:        "cod",
			Status:      "Delivered",
			StatusClass: "active",
		}).Error)
	}
	require.NoError(t, db.Create(&models.MarketingSpend{SpendDate: day(5), Amount: decimal.NewFromInt(200)}).Error)

	stats, err := svc.Collect(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Orders.Rows)
	assert.Equal(t, "2024-03-03", stats.Orders.EarliestDate)
	assert.Equal(t, "2024-03-21", stats.Orders.LatestDate)

	assert.Equal(t, int64(1), stats.MarketingSpend.Rows)
	assert.Equal(t, "2024-03-05", stats.MarketingSpend.EarliestDate)

	assert.Equal(t, int64(0), stats.PriceEntries.Rows)
	assert.Empty(t, stats.PriceEntries.EarliestDate)
	assert.Equal(t, int64(0), stats.ShippingCosts.Rows)
	assert.Equal(t, int64(0), stats.Suppliers.Rows)
}
