package importer

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/profitlens/profitlens-backend/pkg/config"
	"github.com/profitlens/profitlens-backend/pkg/db"
	"github.com/profitlens/profitlens-backend/pkg/db/models"
	"github.com/profitlens/profitlens-backend/pkg/enums"
	"github.com/profitlens/profitlens-backend/pkg/fileparse"
	"github.com/profitlens/profitlens-backend/pkg/logger"
)

func setupImporterTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
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
);`
	shippingCosts := `
CREATE TABLE IF NOT EXISTS shipping_costs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  region TEXT NOT NULL,
  weight_range TEXT,
  shipping_cost NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME
);`
	require.NoError(t, conn.Exec(orders).Error)
	require.NoError(t, conn.Exec(shippingCosts).Error)
	require.NoError(t, conn.Exec("DELETE FROM orders").Error)
	require.NoError(t, conn.Exec("DELETE FROM shipping_costs").Error)
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) *Service {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewService(db.NewFromConn(conn), config.UploadsConfig{BatchSize: 1000}, logg, nil, nil)
}

func orderRow(overrides fileparse.Row) fileparse.Row {
	row := fileparse.Row{
		"Channel":          "Shopify",
		"Order Date":       "2024-03-10",
		"Fulfilled By":     "Delhivery",
		"Product Name":     "Cotton Tee",
		"Order Amount":     "499",
		"Pickup Warehouse": "Acme Textiles",
		"Mode":             "COD",
		"Status":           "Delivered",
	}
	for k, v := range overrides {
		row[k] = v
	}
	return row
}

func TestImportOrders(t *testing.T) {
	conn := setupImporterTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	table := &fileparse.Table{Rows: []fileparse.Row{
		orderRow(nil),
		orderRow(fileparse.Row{"Order Date": "2024-03-11 14:22:05", "Order Amount": "1,299.50", "Status": "CANCELLED - RTO"}),
		orderRow(fileparse.Row{"Product Name": ""}),
		orderRow(fileparse.Row{"Order Date": "not a date"}),
	}}

	result, err := svc.ImportOrders(ctx, table)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, 2, result.Skipped)

	var stored []models.Order
	require.NoError(t, conn.Order("id ASC").Find(&stored).Error)
	require.Len(t, stored, 2)

	assert.Equal(t, "Cotton Tee", stored[0].ProductName)
	assert.Equal(t, enums.OrderModeCOD, stored[0].Mode)
	assert.Equal(t, enums.OrderStatusActive, stored[0].StatusClass)
	assert.Equal(t, "2024-03-10", stored[0].OrderDate.Format("2006-01-02"))

	assert.Equal(t, "2024-03-11", stored[1].OrderDate.Format("2006-01-02"))
	assert.True(t, stored[1].OrderAmount.Equal(decimal.RequireFromString("1299.50")))
	assert.Equal(t, enums.OrderStatusCancelled, stored[1].StatusClass)
}

func TestImportOrders_channelFallback(t *testing.T) {
	conn := setupImporterTestDB(t)
	svc := newTestService(t, conn)

	table := &fileparse.Table{Rows: []fileparse.Row{
		orderRow(fileparse.Row{"Channel": ""}),
		orderRow(fileparse.Row{"Channel": "", "Fulfilled By": ""}),
	}}
	result, err := svc.ImportOrders(context.Background(), table)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)

	var stored []models.Order
	require.NoError(t, conn.Order("id ASC").Find(&stored).Error)
	assert.Equal(t, "Delhivery", stored[0].Channel)
	assert.Equal(t, "Unknown", stored[1].Channel)
}

func TestImportOrders_fullReplaceResetsIDs(t *testing.T) {
	conn := setupImporterTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	first := &fileparse.Table{Rows: []fileparse.Row{orderRow(nil), orderRow(nil), orderRow(nil)}}
	_, err := svc.ImportOrders(ctx, first)
	require.NoError(t, err)

	second := &fileparse.Table{Rows: []fileparse.Row{orderRow(fileparse.Row{"Product Name": "Linen Shirt"})}}
	result, err := svc.ImportOrders(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)

	var stored []models.Order
	require.NoError(t, conn.Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.Equal(t, 1, stored[0].ID)
	assert.Equal(t, "Linen Shirt", stored[0].ProductName)
}

func TestImportShippingCosts(t *testing.T) {
	conn := setupImporterTestDB(t)
	svc := newTestService(t, conn)

	table := &fileparse.Table{Rows: []fileparse.Row{
		{"Fulfilled By": "Delhivery", "Weight Range": "0-500g", "Shipping Cost": "45.50"},
		{"Fulfilled By": "  ", "Weight Range": "0-500g", "Shipping Cost": "45.50"},
		{"Region": "Bluedart", "Shipping Cost": "₹62"},
	}}
	result, err := svc.ImportShippingCosts(context.Background(), table)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, 1, result.Skipped)

	var stored []models.ShippingCost
	require.NoError(t, conn.Order("id ASC").Find(&stored).Error)
	require.Len(t, stored, 2)
	assert.Equal(t, "Delhivery", stored[0].Region)
	assert.True(t, stored[0].ShippingCost.Equal(decimal.RequireFromString("45.50")))
	assert.Equal(t, "Bluedart", stored[1].Region)
	assert.True(t, stored[1].ShippingCost.Equal(decimal.NewFromInt(62)))
}

func TestDeleteAllOrders(t *testing.T) {
	conn := setupImporterTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	table := &fileparse.Table{Rows: []fileparse.Row{orderRow(nil), orderRow(nil)}}
	_, err := svc.ImportOrders(ctx, table)
	require.NoError(t, err)

	deleted, err := svc.DeleteAllOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var count int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-03-10", "2024-03-10", true},
		{"2024-03-10 14:22:05", "2024-03-10", true},
		{"2024/03/10", "2024-03-10", true},
		{"10/03/2024", "2024-03-10", true},
		{"10 Mar 2024", "2024-03-10", true},
		{"", "", false},
		{"soon", "", false},
	}
	for _, tc := range cases {
		got, ok := normalizeDate(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got.Format("2006-01-02"), "input %q", tc.in)
		}
	}
}
