package reports

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/profitlens/profitlens-backend/pkg/config"
	"github.com/profitlens/profitlens-backend/pkg/db/models"
	"github.com/profitlens/profitlens-backend/pkg/enums"
	"github.com/profitlens/profitlens-backend/pkg/logger"
)

func setupReportsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS suppliers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  created_at DATETIME,
  CONSTRAINT uniq_suppliers_name UNIQUE (name)
);`,
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
  updated_at DATETIME,
  CONSTRAINT uniq_price_entries_supplier_product UNIQUE (supplier_id, product_name)
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

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	return NewService(NewRepository(db), nil, config.ReportsConfig{CacheTTL: time.Minute}, testLogger())
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedSupplierWithPrice(t *testing.T, db *gorm.DB, name, product string, costAfterGST int64, from time.Time) *models.Supplier {
	t.Helper()

	supplier := &models.Supplier{Name: name}
	require.NoError(t, db.Create(supplier).Error)
	entry := &models.PriceEntry{
		SupplierID:    supplier.ID,
		ProductName:   product,
		Currency:      "INR",
		PriceAfterGST: decimal.NewFromInt(costAfterGST),
		GSTRate:       decimal.NewFromInt(18),
		HSNCode:       "6109",
		EffectiveFrom: from,
	}
	require.NoError(t, db.Create(entry).Error)
	return supplier
}

type seedOrder struct {
	warehouse string
	product   string
	amount    int64
	date      time.Time
	channel   string
	courier   string
	mode      enums.OrderMode
	status    string
	class     enums.OrderStatusClass
	waybill   string
}

func createSeedOrder(t *testing.T, db *gorm.DB, o seedOrder) {
	t.Helper()

	if o.channel == "" {
		o.channel = "Shopify"
	}
	if o.courier == "" {
		o.courier = "Delhivery"
	}
	if o.mode == "" {
		o.mode = enums.OrderModeCOD
	}
	if o.status == "" {
		o.status = "Delivered"
	}
	if o.class == "" {
		o.class = enums.OrderStatusActive
	}
	order := &models.Order{
		Channel:         o.channel,
		OrderDate:       o.date,
		FulfilledBy:     o.courier,
		ProductName:     o.product,
		OrderAmount:     decimal.NewFromInt(o.amount),
		PickupWarehouse: o.warehouse,
		WaybillNumber:   o.waybill,
		Mode:            o.mode,
		Status:          o.status,
		StatusClass:     o.class,
	}
	require.NoError(t, db.Create(order).Error)
}

func TestComputeMetrics_totals(t *testing.T) {
	db := setupReportsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	from := day(2024, 1, 1)
	seedSupplierWithPrice(t, db, "Acme Textiles", "Cotton Tee", 300, from)

	// two priced orders in window
	createSeedOrder(t, db, seedOrder{warehouse: "Acme Textiles", product: "Cotton Tee", amount: 500, date: day(2024, 3, 10)})
	createSeedOrder(t, db, seedOrder{warehouse: "Acme Textiles", product: "Cotton Tee", amount: 700, date: day(2024, 3, 12)})
	// cancelled order, never counted
	createSeedOrder(t, db, seedOrder{warehouse: "Acme Textiles", product: "Cotton Tee", amount: 900, date: day(2024, 3, 11), status: "Cancelled", class: enums.OrderStatusCancelled})
	// unpriced product contributes nothing to revenue or cost
	createSeedOrder(t, db, seedOrder{warehouse: "Acme Textiles", product: "Linen Shirt", amount: 400, date: day(2024, 3, 11)})
	// outside the window
	createSeedOrder(t, db, seedOrder{warehouse: "Acme Textiles", product: "Cotton Tee", amount: 650, date: day(2024, 5, 1)})

	require.NoError(t, db.Create(&models.ShippingCost{Region: "Delhivery", WeightRange: "0-500g", ShippingCost: decimal.NewFromInt(50)}).Error)
	require.NoError(t, db.Create(&models.MarketingSpend{SpendDate: day(2024, 3, 11), Amount: decimal.NewFromInt(200), Channel: "Meta"}).Error)

	report, err := svc.ComputeMetrics(ctx, Params{StartDate: "2024-03-01", EndDate: "2024-03-31"})
	require.NoError(t, err)

	assert.True(t, report.Totals.Revenue.Equal(decimal.NewFromInt(1200)), "revenue = %s", report.Totals.Revenue)
	assert.True(t, report.Totals.ProductCost.Equal(decimal.NewFromInt(600)))
	// three active in-window orders, all fulfilled by Delhivery
	assert.True(t, report.Totals.ShippingCost.Equal(decimal.NewFromInt(150)), "shipping = %s", report.Totals.ShippingCost)
	assert.True(t, report.Totals.Marketing.Equal(decimal.NewFromInt(200)))
	assert.True(t, report.Totals.NetProfit.Equal(decimal.NewFromInt(250)))
	assert.True(t, report.Totals.Margin.Equal(decimal.RequireFromString("20.83")), "margin = %s", report.Totals.Margin)
	assert.Equal(t, 2, report.PricedOrders)
}

func TestComputeMetrics_storeFilter(t *testing.T) {
	db := setupReportsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	from := day(2024, 1, 1)
	seedSupplierWithPrice(t, db, "Acme Textiles", "Cotton Tee", 300, from)
	seedSupplierWithPrice(t, db, "Borkar Mills", "Silk Scarf", 400, from)

	createSeedOrder(t, db, seedOrder{warehouse: "Acme Textiles", product: "Cotton Tee", amount: 500, date: day(2024, 3, 10)})
	createSeedOrder(t, db, seedOrder{warehouse: "Borkar Mills", product: "Silk Scarf", amount: 800, date: day(2024, 3, 10)})

	report, err := svc.ComputeMetrics(ctx, Params{
		StartDate: "2024-03-01",
		EndDate:   "2024-03-31",
		Stores:    []string{"Acme Textiles"},
	})
	require.NoError(t, err)
	assert.True(t, report.Totals.Revenue.Equal(decimal.NewFromInt(500)))
	assert.True(t, report.Totals.ProductCost.Equal(decimal.NewFromInt(300)))
}

func TestComputeMetrics_periodOverPeriodChange(t *testing.T) {
	db := setupReportsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	from := day(2024, 1, 1)
	seedSupplierWithPrice(t, db, "Acme Textiles", "Cotton Tee", 300, from)

	// previous window 2024-02-01..2024-02-29 (window length preserved)
	createSeedOrder(t, db, seedOrder{warehouse: "Acme Textiles", product: "Cotton Tee", amount: 500, date: day(2024, 2, 15)})
	// current window
	createSeedOrder(t, db, seedOrder{warehouse: "Acme Textiles", product: "Cotton Tee", amount: 750, date: day(2024, 3, 15)})

	report, err := svc.ComputeMetrics(ctx, Params{StartDate: "2024-03-01", EndDate: "2024-03-31"})
	require.NoError(t, err)
	assert.True(t, report.Changes.Revenue.Equal(decimal.NewFromInt(50)), "revenue change = %s", report.Changes.Revenue)
	assert.True(t, report.Changes.ProductCost.Equal(decimal.Zero), "cost change = %s", report.Changes.ProductCost)
}

func TestPercentChange_zeroBase(t *testing.T) {
	assert.True(t, percentChange(decimal.NewFromInt(120), decimal.Zero).Equal(decimal.NewFromInt(100)))
	assert.True(t, percentChange(decimal.Zero, decimal.Zero).Equal(decimal.Zero))
	assert.True(t, percentChange(decimal.NewFromInt(50), decimal.NewFromInt(200)).Equal(decimal.NewFromInt(-75)))
}

func TestComputeMetrics_showAll(t *testing.T) {
	db := setupReportsTestDB(t)
	svc := newTestService(t, db)
	svc.now = func() time.Time { return day(2024, 6, 1) }
	ctx := context.Background()

	from := day(2020, 1, 1)
	seedSupplierWithPrice(t, db, "Acme Textiles", "Cotton Tee", 300, from)
	createSeedOrder(t, db, seedOrder{warehouse: "Acme Textiles", product: "Cotton Tee", amount: 500, date: day(2021, 7, 1)})
	createSeedOrder(t, db, seedOrder{warehouse: "Acme Textiles", product: "Cotton Tee", amount: 700, date: day(2024, 3, 1)})

	report, err := svc.ComputeMetrics(ctx, Params{ShowAll: true})
	require.NoError(t, err)
	assert.Equal(t, "2000-01-01", report.StartDate)
	assert.Equal(t, "2024-06-01", report.EndDate)
	assert.True(t, report.Totals.Revenue.Equal(decimal.NewFromInt(1200)))
	// no previous window when showing everything, so every change is zero
	assert.True(t, report.Changes.Revenue.IsZero(), "revenue change = %s", report.Changes.Revenue)
	assert.True(t, report.Changes.ProductCost.IsZero())
	assert.True(t, report.Changes.NetProfit.IsZero())
}

func TestComputeMetrics_invalidDates(t *testing.T) {
	db := setupReportsTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.ComputeMetrics(context.Background(), Params{StartDate: "03/01/2024", EndDate: "2024-03-31"})
	require.Error(t, err)

	_, err = svc.ComputeMetrics(context.Background(), Params{StartDate: "2024-03-31", EndDate: "2024-03-01"})
	require.Error(t, err)
}

func TestTrendSeries_mergesSources(t *testing.T) {
	db := setupReportsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	from := day(2024, 1, 1)
	seedSupplierWithPrice(t, db, "Acme Textiles", "Cotton Tee", 300, from)

	createSeedOrder(t, db, seedOrder{warehouse: "Acme Textiles", product: "Cotton Tee", amount: 500, date: day(2024, 3, 10)})
	createSeedOrder(t, db, seedOrder{warehouse: "Acme Textiles", product: "Cotton Tee", amount: 700, date: day(2024, 3, 12)})
	require.NoError(t, db.Create(&models.ShippingCost{Region: "Delhivery", WeightRange: "0-500g", ShippingCost: decimal.NewFromInt(50)}).Error)
	// marketing on a day with no orders still gets a trend point
	require.NoError(t, db.Create(&models.MarketingSpend{SpendDate: day(2024, 3, 11), Amount: decimal.NewFromInt(200), Channel: "Meta"}).Error)

	report, err := svc.ComputeMetrics(ctx, Params{StartDate: "2024-03-01", EndDate: "2024-03-31"})
	require.NoError(t, err)
	require.Len(t, report.Trends, 3)

	assert.Equal(t, "2024-03-10", report.Trends[0].Date)
	assert.True(t, report.Trends[0].Revenue.Equal(decimal.NewFromInt(500)))
	assert.True(t, report.Trends[0].Cost.Equal(decimal.NewFromInt(300)))
	assert.True(t, report.Trends[0].Shipping.Equal(decimal.NewFromInt(50)))
	assert.True(t, report.Trends[0].Profit.Equal(decimal.NewFromInt(150)))

	assert.Equal(t, "2024-03-11", report.Trends[1].Date)
	assert.True(t, report.Trends[1].Revenue.IsZero())
	assert.True(t, report.Trends[1].Marketing.Equal(decimal.NewFromInt(200)))
	assert.True(t, report.Trends[1].Profit.Equal(decimal.NewFromInt(-200)))

	assert.Equal(t, "2024-03-12", report.Trends[2].Date)
}

func TestComputeMetrics_channelAndProductBreakdown(t *testing.T) {
	db := setupReportsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	from := day(2024, 1, 1)
	supplier := seedSupplierWithPrice(t, db, "Acme Textiles", "Cotton Tee", 300, from)
	require.NoError(t, db.Create(&models.PriceEntry{
		SupplierID:    supplier.ID,
		ProductName:   "Linen Shirt",
		Currency:      "INR",
		PriceAfterGST: decimal.NewFromInt(500),
		GSTRate:       decimal.NewFromInt(18),
		HSNCode:       "6110",
		EffectiveFrom: from,
	}).Error)

	createSeedOrder(t, db, seedOrder{warehouse: "Acme Textiles", product: "Cotton Tee", amount: 500, date: day(2024, 3, 10), channel: "Shopify"})
	createSeedOrder(t, db, seedOrder{warehouse: "Acme Textiles", product: "Linen Shirt", amount: 900, date: day(2024, 3, 11), channel: "Amazon"})
	// no price entry covers this product, so its channel must not appear
	createSeedOrder(t, db, seedOrder{warehouse: "Acme Textiles", product: "Wool Sweater", amount: 1500, date: day(2024, 3, 12), channel: "Myntra"})

	report, err := svc.ComputeMetrics(ctx, Params{StartDate: "2024-03-01", EndDate: "2024-03-31"})
	require.NoError(t, err)

	require.Len(t, report.ChannelBreakdown, 2)
	assert.Equal(t, "Amazon", report.ChannelBreakdown[0].Channel)
	assert.True(t, report.ChannelBreakdown[0].Revenue.Equal(decimal.NewFromInt(900)))
	assert.Equal(t, 1, report.ChannelBreakdown[0].Orders)
	for _, c := range report.ChannelBreakdown {
		assert.NotEqual(t, "Myntra", c.Channel, "unpriced orders must not reach the channel breakdown")
	}

	require.Len(t, report.ProductPerformance, 2)
	assert.Equal(t, "Linen Shirt", report.ProductPerformance[0].ProductName)
	assert.True(t, report.ProductPerformance[0].Profit.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, "Cotton Tee", report.ProductPerformance[1].ProductName)
}

func TestComputeMetrics_orderCounts(t *testing.T) {
	db := setupReportsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	// counts do not require a price match
	createSeedOrder(t, db, seedOrder{warehouse: "Acme Textiles", product: "Cotton Tee", amount: 500, date: day(2024, 3, 10), mode: enums.OrderModeCOD, waybill: "WB1"})
	createSeedOrder(t, db, seedOrder{warehouse: "Acme Textiles", product: "Cotton Tee", amount: 500, date: day(2024, 3, 11), mode: enums.OrderModePrepaid})
	// no waybill and no delivered date, still counted as shipped
	createSeedOrder(t, db, seedOrder{warehouse: "Acme Textiles", product: "Cotton Tee", amount: 500, date: day(2024, 3, 12), mode: enums.OrderModeOther})
	// cancelled orders are excluded from every count
	createSeedOrder(t, db, seedOrder{warehouse: "Acme Textiles", product: "Cotton Tee", amount: 500, date: day(2024, 3, 13), mode: enums.OrderModeCOD, status: "Cancelled", class: enums.OrderStatusCancelled})

	report, err := svc.ComputeMetrics(ctx, Params{StartDate: "2024-03-01", EndDate: "2024-03-31"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.CODOrders)
	assert.Equal(t, 1, report.PPDOrders)
	// shipped is every active in-window order regardless of delivery state
	assert.Equal(t, 3, report.ShippedOrders)
}

func TestRepositoryStoreAndProductLookups(t *testing.T) {
	db := setupReportsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	createSeedOrder(t, db, seedOrder{warehouse: "Acme Textiles", product: "Cotton Tee", amount: 500, date: day(2024, 3, 10)})
	createSeedOrder(t, db, seedOrder{warehouse: "Acme Textiles", product: "Linen Shirt", amount: 400, date: day(2024, 3, 11)})
	createSeedOrder(t, db, seedOrder{warehouse: "Borkar Mills", product: "Silk Scarf", amount: 800, date: day(2024, 3, 12)})

	stores, err := repo.StoreNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme Textiles", "Borkar Mills"}, stores)

	products, err := repo.ProductsByStore(ctx, "Acme Textiles")
	require.NoError(t, err)
	assert.Equal(t, []string{"Cotton Tee", "Linen Shirt"}, products)
}
