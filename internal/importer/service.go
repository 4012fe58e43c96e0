package importer

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/profitlens/profitlens-backend/pkg/config"
	"github.com/profitlens/profitlens-backend/pkg/db"
	"github.com/profitlens/profitlens-backend/pkg/db/models"
	"github.com/profitlens/profitlens-backend/pkg/enums"
	pkgerrors "github.com/profitlens/profitlens-backend/pkg/errors"
	"github.com/profitlens/profitlens-backend/pkg/fileparse"
	"github.com/profitlens/profitlens-backend/pkg/logger"
	"github.com/profitlens/profitlens-backend/pkg/metrics"
	"github.com/profitlens/profitlens-backend/pkg/redis"
)

const (
	datasetOrders   = "orders"
	datasetShipping = "shipping_costs"
)

// OrdersImportResult reports a full order replace.
type OrdersImportResult struct {
	Count   int `json:"count"`
	Skipped int `json:"skipped"`
}

// ShippingImportResult reports a shipping cost replace.
type ShippingImportResult struct {
	Count   int `json:"count"`
	Skipped int `json:"skipped"`
}

// Service replaces the orders and shipping_costs datasets from uploaded
// spreadsheets. Each import is one transaction: the previous dataset is
// dropped and the parsed rows inserted in batches.
type Service struct {
	client  *db.Client
	cfg     config.UploadsConfig
	logg    *logger.Logger
	metrics *metrics.ImportMetrics
	cache   *redis.Client
}

func NewService(client *db.Client, cfg config.UploadsConfig, logg *logger.Logger, m *metrics.ImportMetrics, cache *redis.Client) *Service {
	return &Service{client: client, cfg: cfg, logg: logg, metrics: m, cache: cache}
}

// ImportOrders replaces the orders table with the uploaded sheet. Rows
// missing a parseable date or a product name are skipped, not fatal.
func (s *Service) ImportOrders(ctx context.Context, table *fileparse.Table) (OrdersImportResult, error) {
	started := time.Now()

	orders := make([]models.Order, 0, len(table.Rows))
	skipped := 0
	for _, row := range table.Rows {
		order, ok := orderFromRow(row)
		if !ok {
			skipped++
			continue
		}
		orders = append(orders, order)
	}

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := replaceAll(tx, "orders", &models.Order{}); err != nil {
			return err
		}
		if len(orders) == 0 {
			return nil
		}
		return tx.CreateInBatches(orders, s.batchSize()).Error
	})
	if err != nil {
		s.metrics.IncFailure(datasetOrders)
		return OrdersImportResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace orders dataset")
	}

	s.metrics.ObserveDuration(datasetOrders, time.Since(started))
	s.metrics.AddImported(datasetOrders, len(orders))
	s.metrics.AddSkipped(datasetOrders, skipped)
	s.bumpDatasetVersion(ctx)

	logCtx := s.logg.WithUpload(ctx, datasetOrders, len(orders))
	s.logg.Info(logCtx, "orders dataset replaced")
	return OrdersImportResult{Count: len(orders), Skipped: skipped}, nil
}

// ImportShippingCosts replaces the shipping cost matrix. Rows without a
// region are skipped.
func (s *Service) ImportShippingCosts(ctx context.Context, table *fileparse.Table) (ShippingImportResult, error) {
	started := time.Now()

	costs := make([]models.ShippingCost, 0, len(table.Rows))
	skipped := 0
	for _, row := range table.Rows {
		region := row.Lookup("Fulfilled By", "Region", "Courier")
		if strings.TrimSpace(region) == "" {
			skipped++
			continue
		}
		costs = append(costs, models.ShippingCost{
			Region:       strings.TrimSpace(region),
			WeightRange:  strings.TrimSpace(row.Lookup("Weight Range", "Weight Slab", "Weight")),
			ShippingCost: parseAmount(row.Lookup("Shipping Cost", "Cost", "Rate")),
		})
	}

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := replaceAll(tx, "shipping_costs", &models.ShippingCost{}); err != nil {
			return err
		}
		if len(costs) == 0 {
			return nil
		}
		return tx.CreateInBatches(costs, s.batchSize()).Error
	})
	if err != nil {
		s.metrics.IncFailure(datasetShipping)
		return ShippingImportResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace shipping cost dataset")
	}

	s.metrics.ObserveDuration(datasetShipping, time.Since(started))
	s.metrics.AddImported(datasetShipping, len(costs))
	s.metrics.AddSkipped(datasetShipping, skipped)
	s.bumpDatasetVersion(ctx)

	logCtx := s.logg.WithUpload(ctx, datasetShipping, len(costs))
	s.logg.Info(logCtx, "shipping cost dataset replaced")
	return ShippingImportResult{Count: len(costs), Skipped: skipped}, nil
}

// DeleteAllOrders clears the orders dataset.
func (s *Service) DeleteAllOrders(ctx context.Context) (int64, error) {
	return s.deleteAll(ctx, "orders", &models.Order{})
}

// DeleteAllShippingCosts clears the shipping cost matrix.
func (s *Service) DeleteAllShippingCosts(ctx context.Context) (int64, error) {
	return s.deleteAll(ctx, "shipping_costs", &models.ShippingCost{})
}

func (s *Service) deleteAll(ctx context.Context, tableName string, model any) (int64, error) {
	var deleted int64
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		res := tx.Where("1 = 1").Delete(model)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return resetAutoIncrement(tx, tableName)
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete "+tableName)
	}
	s.bumpDatasetVersion(ctx)
	return deleted, nil
}

func (s *Service) batchSize() int {
	if s.cfg.BatchSize > 0 {
		return s.cfg.BatchSize
	}
	return 1000
}

// bumpDatasetVersion invalidates cached reports. Best-effort: the cache is
// optional and a bump failure only delays invalidation until TTL expiry.
func (s *Service) bumpDatasetVersion(ctx context.Context) {
	if _, err := s.cache.Incr(ctx, redis.DatasetVersionKey()); err != nil {
		s.logg.Warn(ctx, "dataset version bump failed")
	}
}

// replaceAll empties a table and resets its id counter so a reimport starts
// from id 1, matching dashboard expectations about row identity.
func replaceAll(tx *gorm.DB, tableName string, model any) error {
	if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
		return err
	}
	return resetAutoIncrement(tx, tableName)
}

func resetAutoIncrement(tx *gorm.DB, tableName string) error {
	switch tx.Dialector.Name() {
	case "postgres":
		return tx.Exec("ALTER SEQUENCE " + tableName + "_id_seq RESTART WITH 1").Error
	case "sqlite":
		// sqlite_sequence does not exist until the first autoincrement
		// insert anywhere in the database
		err := tx.Exec("DELETE FROM sqlite_sequence WHERE name = ?", tableName).Error
		if err != nil && strings.Contains(err.Error(), "no such table") {
			return nil
		}
		return err
	default:
		return nil
	}
}

func orderFromRow(row fileparse.Row) (models.Order, bool) {
	productName := strings.TrimSpace(row.Lookup("Product Name", "Product", "Item Name", "SKU Name"))
	if productName == "" {
		return models.Order{}, false
	}

	orderDate, ok := normalizeDate(row.Lookup("Order Date", "Channel Order Date", "Date"))
	if !ok {
		return models.Order{}, false
	}

	fulfilledBy := strings.TrimSpace(row.Lookup("Fulfilled By", "Courier", "Carrier"))
	channel := strings.TrimSpace(row.Lookup("Channel", "Sales Channel", "Channel Name"))
	if channel == "" {
		channel = fulfilledBy
	}
	if channel == "" {
		channel = "Unknown"
	}

	var deliveredAt *time.Time
	if delivered, ok := normalizeDate(row.Lookup("Delivered Date", "Delivery Date")); ok {
		deliveredAt = &delivered
	}

	status := strings.TrimSpace(row.Lookup("Status", "Order Status", "Shipment Status"))
	if status == "" {
		status = "pending"
	}

	return models.Order{
		Channel:         channel,
		OrderDate:       orderDate,
		FulfilledBy:     fulfilledBy,
		DeliveredDate:   deliveredAt,
		ProductName:     productName,
		OrderAmount:     parseAmount(row.Lookup("Order Amount", "Amount", "Order Value", "Total")),
		PickupWarehouse: strings.TrimSpace(row.Lookup("Pickup Warehouse", "Warehouse", "Pickup Location")),
		OrderAccount:    strings.TrimSpace(row.Lookup("Order Account", "Account", "Store")),
		WaybillNumber:   strings.TrimSpace(row.Lookup("Waybill Number", "Waybill", "AWB", "AWB Number")),
		ProductValue:    parseAmount(row.Lookup("Product Value", "Item Value")),
		Mode:            enums.NormalizeOrderMode(row.Lookup("Mode", "Payment Mode", "Payment Method")),
		Status:          status,
		StatusClass:     enums.ClassifyOrderStatus(status),
	}, true
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	time.RFC3339,
}

// normalizeDate accepts the date spellings seen across channel exports.
// Datetime values that fail as-is are retried with the time part cut off.
func normalizeDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if parsed, ok := parseDate(raw); ok {
		return parsed, true
	}
	if idx := strings.IndexAny(raw, " T"); idx > 0 {
		return parseDate(raw[:idx])
	}
	return time.Time{}, false
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func parseAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	raw = strings.TrimPrefix(raw, "₹")
	if raw == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return value
}
