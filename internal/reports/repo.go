package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/profitlens/profitlens-backend/pkg/db/models"
	"github.com/profitlens/profitlens-backend/pkg/enums"
)

// Repository runs the aggregate queries behind the dashboard report. Every
// method tolerates absent tables and returns zero values so a fresh install
// renders an empty dashboard instead of erroring.
type Repository interface {
	RevenueAndCost(ctx context.Context, q Query) (revenue, cost decimal.Decimal, pricedOrders int, err error)
	ShippingTotal(ctx context.Context, q Query) (decimal.Decimal, error)
	MarketingTotal(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
	RevenueCostByDay(ctx context.Context, q Query) ([]dayAmounts, error)
	ShippingByDay(ctx context.Context, q Query) ([]dayAmount, error)
	MarketingByDay(ctx context.Context, start, end time.Time) ([]dayAmount, error)
	ChannelBreakdown(ctx context.Context, q Query) ([]ChannelStat, error)
	ProductPerformance(ctx context.Context, q Query) ([]ProductStat, error)
	OrderCounts(ctx context.Context, q Query) (cod, ppd, shipped int, err error)
	StoreNames(ctx context.Context) ([]string, error)
	ProductsByStore(ctx context.Context, store string) ([]string, error)
}

// Query is a resolved reporting window plus the optional store filter.
type Query struct {
	Start  time.Time
	End    time.Time
	Stores []string
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// storeFilterColumn picks the orders column store filters and supplier
// matching run against. Older imports only carried order_account.
func (r *repository) storeFilterColumn() string {
	migrator := r.db.Migrator()
	if migrator.HasColumn(&models.Order{}, "pickup_warehouse") {
		return "pickup_warehouse"
	}
	return "order_account"
}

func (r *repository) hasTables(tables ...any) bool {
	migrator := r.db.Migrator()
	for _, table := range tables {
		if !migrator.HasTable(table) {
			return false
		}
	}
	return true
}

// activeOrderScope applies the window, the cancelled-order exclusion and the
// optional store filter to an orders query.
func activeOrderScope(q Query, filterCol string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		tx = tx.
			Where("o.status_class = ?", enums.OrderStatusActive).
			Where("o.order_date >= ? AND o.order_date <= ?", q.Start, q.End)
		if len(q.Stores) > 0 {
			tx = tx.Where(fmt.Sprintf("TRIM(o.%s) IN ?", filterCol), trimAll(q.Stores))
		}
		return tx
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}

// pricedOrderJoin matches each order to its supplier and the price entry
// effective on the order date.
func (r *repository) pricedOrderJoin(ctx context.Context, q Query) *gorm.DB {
	filterCol := r.storeFilterColumn()
	return r.db.WithContext(ctx).
		Table("orders o").
		Joins(fmt.Sprintf("JOIN suppliers s ON TRIM(s.name) = TRIM(o.%s)", filterCol)).
		Joins(`JOIN price_entries pe ON pe.supplier_id = s.id
  AND TRIM(pe.product_name) = TRIM(o.product_name)
  AND pe.effective_from <= o.order_date
  AND (pe.effective_to IS NULL OR o.order_date <= pe.effective_to)`).
		Scopes(activeOrderScope(q, filterCol))
}

type revenueCostRow struct {
	Revenue      decimal.Decimal
	Cost         decimal.Decimal
	PricedOrders int
}

func (r *repository) RevenueAndCost(ctx context.Context, q Query) (decimal.Decimal, decimal.Decimal, int, error) {
	if !r.hasTables(&models.Order{}, &models.Supplier{}, &models.PriceEntry{}) {
		return decimal.Zero, decimal.Zero, 0, nil
	}

	var row revenueCostRow
	err := r.pricedOrderJoin(ctx, q).
		Select(`COALESCE(SUM(o.order_amount), 0) AS revenue,
COALESCE(SUM(pe.price_after_gst), 0) AS cost,
COUNT(*) AS priced_orders`).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, 0, err
	}
	return row.Revenue, row.Cost, row.PricedOrders, nil
}

func (r *repository) ShippingTotal(ctx context.Context, q Query) (decimal.Decimal, error) {
	if !r.hasTables(&models.Order{}, &models.ShippingCost{}) {
		return decimal.Zero, nil
	}

	filterCol := r.storeFilterColumn()
	var row struct{ Total decimal.Decimal }
	err := r.db.WithContext(ctx).
		Table("orders o").
		Joins("JOIN shipping_costs sc ON TRIM(sc.region) = TRIM(o.fulfilled_by)").
		Scopes(activeOrderScope(q, filterCol)).
		Select("COALESCE(SUM(sc.shipping_cost), 0) AS total").
		Scan(&row).Error
	return row.Total, err
}

// MarketingTotal intentionally ignores the store filter: spend rows are not
// attributed to a warehouse.
func (r *repository) MarketingTotal(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	if !r.hasTables(&models.MarketingSpend{}) {
		return decimal.Zero, nil
	}

	var row struct{ Total decimal.Decimal }
	err := r.db.WithContext(ctx).
		Table("marketing_spend").
		Where("spend_date >= ? AND spend_date <= ?", start, end).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error
	return row.Total, err
}

// dayAmounts is a per-day revenue/cost pair from the priced-order join.
type dayAmounts struct {
	Day     time.Time
	Revenue decimal.Decimal
	Cost    decimal.Decimal
}

// dayAmount is a single per-day sum.
type dayAmount struct {
	Day    time.Time
	Amount decimal.Decimal
}

func (r *repository) RevenueCostByDay(ctx context.Context, q Query) ([]dayAmounts, error) {
	if !r.hasTables(&models.Order{}, &models.Supplier{}, &models.PriceEntry{}) {
		return nil, nil
	}

	var rows []dayAmounts
	err := r.pricedOrderJoin(ctx, q).
		Select(`o.order_date AS day,
COALESCE(SUM(o.order_amount), 0) AS revenue,
COALESCE(SUM(pe.price_after_gst), 0) AS cost`).
		Group("o.order_date").
		Order("o.order_date ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) ShippingByDay(ctx context.Context, q Query) ([]dayAmount, error) {
	if !r.hasTables(&models.Order{}, &models.ShippingCost{}) {
		return nil, nil
	}

	filterCol := r.storeFilterColumn()
	var rows []dayAmount
	err := r.db.WithContext(ctx).
		Table("orders o").
		Joins("JOIN shipping_costs sc ON TRIM(sc.region) = TRIM(o.fulfilled_by)").
		Scopes(activeOrderScope(q, filterCol)).
		Select("o.order_date AS day, COALESCE(SUM(sc.shipping_cost), 0) AS amount").
		Group("o.order_date").
		Order("o.order_date ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) MarketingByDay(ctx context.Context, start, end time.Time) ([]dayAmount, error) {
	if !r.hasTables(&models.MarketingSpend{}) {
		return nil, nil
	}

	var rows []dayAmount
	err := r.db.WithContext(ctx).
		Table("marketing_spend").
		Where("spend_date >= ? AND spend_date <= ?", start, end).
		Select("spend_date AS day, COALESCE(SUM(amount), 0) AS amount").
		Group("spend_date").
		Order("spend_date ASC").
		Scan(&rows).Error
	return rows, err
}

// ChannelBreakdown splits revenue by sales channel over priced orders only,
// the same join the headline revenue figure uses.
func (r *repository) ChannelBreakdown(ctx context.Context, q Query) ([]ChannelStat, error) {
	if !r.hasTables(&models.Order{}, &models.Supplier{}, &models.PriceEntry{}) {
		return nil, nil
	}

	var rows []ChannelStat
	err := r.pricedOrderJoin(ctx, q).
		Select(`COALESCE(NULLIF(TRIM(o.channel), ''), 'Unknown') AS channel,
COALESCE(SUM(o.order_amount), 0) AS revenue,
COUNT(*) AS orders`).
		Group("COALESCE(NULLIF(TRIM(o.channel), ''), 'Unknown')").
		Order("revenue DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) ProductPerformance(ctx context.Context, q Query) ([]ProductStat, error) {
	if !r.hasTables(&models.Order{}, &models.Supplier{}, &models.PriceEntry{}) {
		return nil, nil
	}

	var rows []ProductStat
	err := r.pricedOrderJoin(ctx, q).
		Select(`TRIM(o.product_name) AS product_name,
COALESCE(SUM(o.order_amount), 0) AS revenue,
COALESCE(SUM(pe.price_after_gst), 0) AS cost,
COUNT(*) AS orders`).
		Group("TRIM(o.product_name)").
		Order("revenue DESC").
		Scan(&rows).Error
	return rows, err
}

type orderCountsRow struct {
	COD     int
	PPD     int
	Shipped int
}

// OrderCounts tallies the mode split and the shipped total over the raw
// window; these deliberately do not require a price match. Shipped is every
// non-cancelled order in the window, whatever its delivery state.
func (r *repository) OrderCounts(ctx context.Context, q Query) (int, int, int, error) {
	if !r.hasTables(&models.Order{}) {
		return 0, 0, 0, nil
	}

	filterCol := r.storeFilterColumn()
	var row orderCountsRow
	err := r.db.WithContext(ctx).
		Table("orders o").
		Scopes(activeOrderScope(q, filterCol)).
		Select(`COALESCE(SUM(CASE WHEN o.mode = ? THEN 1 ELSE 0 END), 0) AS cod,
COALESCE(SUM(CASE WHEN o.mode = ? THEN 1 ELSE 0 END), 0) AS ppd,
COUNT(*) AS shipped`,
			enums.OrderModeCOD, enums.OrderModePrepaid).
		Scan(&row).Error
	if err != nil {
		return 0, 0, 0, err
	}
	return row.COD, row.PPD, row.Shipped, nil
}

// StoreNames lists the distinct store filter values present in order data.
func (r *repository) StoreNames(ctx context.Context) ([]string, error) {
	if !r.hasTables(&models.Order{}) {
		return nil, nil
	}

	filterCol := r.storeFilterColumn()
	var names []string
	err := r.db.WithContext(ctx).
		Table("orders o").
		Where(fmt.Sprintf("TRIM(COALESCE(o.%s, '')) != ''", filterCol)).
		Distinct(fmt.Sprintf("TRIM(o.%s)", filterCol)).
		Order(fmt.Sprintf("TRIM(o.%s) ASC", filterCol)).
		Pluck(fmt.Sprintf("TRIM(o.%s)", filterCol), &names).Error
	return names, err
}

// ProductsByStore lists the distinct products a store has sold, used to
// seed price entry forms.
func (r *repository) ProductsByStore(ctx context.Context, store string) ([]string, error) {
	if !r.hasTables(&models.Order{}) {
		return nil, nil
	}

	filterCol := r.storeFilterColumn()
	var names []string
	err := r.db.WithContext(ctx).
		Table("orders o").
		Where(fmt.Sprintf("TRIM(o.%s) = ?", filterCol), strings.TrimSpace(store)).
		Where("TRIM(COALESCE(o.product_name, '')) != ''").
		Distinct("TRIM(o.product_name)").
		Order("TRIM(o.product_name) ASC").
		Pluck("TRIM(o.product_name)", &names).Error
	return names, err
}
