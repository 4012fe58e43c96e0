package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/profitlens/profitlens-backend/pkg/db/models"
)

// missingPriceLimit caps the missing-price listing; the dashboard renders at
// most one screen of rows and the query is volume-ordered anyway.
const missingPriceLimit = 200

// Repository defines persistence operations for suppliers and price entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindSupplierByName(ctx context.Context, name string) (*models.Supplier, error)
	FindOrCreateSupplier(ctx context.Context, name string) (*models.Supplier, error)
	ListSuppliers(ctx context.Context) ([]models.Supplier, error)
	UpsertEntry(ctx context.Context, entry *models.PriceEntry) error
	FindEntryByID(ctx context.Context, id int) (*models.PriceEntry, error)
	ReplaceEntry(ctx context.Context, entry *models.PriceEntry) error
	DeleteEntry(ctx context.Context, id int) error
	DeleteAllEntries(ctx context.Context) (int64, error)
	ListEntries(ctx context.Context, supplierName string) ([]EntryView, error)
	MatchingEntries(ctx context.Context, supplierName, productName string, on time.Time) ([]models.PriceEntry, error)
	FindMissing(ctx context.Context) ([]MissingPriceRecord, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a pricing repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindSupplierByName(ctx context.Context, name string) (*models.Supplier, error) {
	var supplier models.Supplier
	err := r.db.WithContext(ctx).
		Where("TRIM(name) = ?", strings.TrimSpace(name)).
		First(&supplier).Error
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *repository) FindOrCreateSupplier(ctx context.Context, name string) (*models.Supplier, error) {
	name = strings.TrimSpace(name)

	existing, err := r.FindSupplierByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	supplier := models.Supplier{Name: name}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(&supplier).Error
	if err != nil {
		return nil, err
	}
	if supplier.ID != 0 {
		return &supplier, nil
	}

	// lost the race; the row exists now
	return r.FindSupplierByName(ctx, name)
}

func (r *repository) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	if !r.db.WithContext(ctx).Migrator().HasTable(&models.Supplier{}) {
		return nil, nil
	}
	var suppliers []models.Supplier
	err := r.db.WithContext(ctx).Order("name ASC").Find(&suppliers).Error
	return suppliers, err
}

func (r *repository) UpsertEntry(ctx context.Context, entry *models.PriceEntry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "supplier_id"}, {Name: "product_name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"currency",
				"price_before_gst",
				"gst_rate",
				"price_after_gst",
				"hsn_code",
				"effective_from",
				"effective_to",
				"supplier_product_id",
				"updated_at",
			}),
		}).
		Create(entry).Error
}

func (r *repository) FindEntryByID(ctx context.Context, id int) (*models.PriceEntry, error) {
	var entry models.PriceEntry
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) ReplaceEntry(ctx context.Context, entry *models.PriceEntry) error {
	return r.db.WithContext(ctx).
		Model(&models.PriceEntry{}).
		Where("id = ?", entry.ID).
		Updates(map[string]any{
			"supplier_id":         entry.SupplierID,
			"product_name":        entry.ProductName,
			"currency":            entry.Currency,
			"price_before_gst":    entry.PriceBeforeGST,
			"gst_rate":            entry.GSTRate,
			"price_after_gst":     entry.PriceAfterGST,
			"hsn_code":            entry.HSNCode,
			"effective_from":      entry.EffectiveFrom,
			"effective_to":        entry.EffectiveTo,
			"supplier_product_id": entry.SupplierProductID,
		}).Error
}

func (r *repository) DeleteEntry(ctx context.Context, id int) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PriceEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) DeleteAllEntries(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("1 = 1").Delete(&models.PriceEntry{})
	return res.RowsAffected, res.Error
}

func (r *repository) ListEntries(ctx context.Context, supplierName string) ([]EntryView, error) {
	conn := r.db.WithContext(ctx)
	if !conn.Migrator().HasTable(&models.PriceEntry{}) {
		return nil, nil
	}

	query := `
SELECT
  pe.id,
  pe.supplier_id,
  COALESCE(s.name, '') AS supplier_name,
  pe.supplier_product_id,
  pe.product_name,
  pe.currency,
  pe.price_before_gst,
  pe.gst_rate,
  pe.price_after_gst,
  pe.hsn_code,
  pe.effective_from,
  pe.effective_to,
  pe.created_at,
  pe.updated_at
FROM price_entries pe
LEFT JOIN suppliers s ON pe.supplier_id = s.id`

	args := []any{}
	if supplierName != "" && supplierName != "all" {
		query += "\nWHERE s.name = ?"
		args = append(args, supplierName)
	}
	query += "\nORDER BY pe.created_at DESC"

	var views []EntryView
	err := conn.Raw(query, args...).Scan(&views).Error
	return views, err
}

// MatchingEntries returns every price entry effective for onDate, newest
// validity window first. Supplier and product names match trimmed and
// case-sensitive; more than one result means a data operator stored
// overlapping windows for the pair.
func (r *repository) MatchingEntries(ctx context.Context, supplierName, productName string, on time.Time) ([]models.PriceEntry, error) {
	conn := r.db.WithContext(ctx)
	if !conn.Migrator().HasTable(&models.Supplier{}) || !conn.Migrator().HasTable(&models.PriceEntry{}) {
		return nil, nil
	}

	supplier, err := r.FindSupplierByName(ctx, supplierName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var entries []models.PriceEntry
	err = conn.
		Where("supplier_id = ?", supplier.ID).
		Where("TRIM(product_name) = ?", strings.TrimSpace(productName)).
		Where("effective_from <= ?", on).
		Where("(effective_to IS NULL OR effective_to >= ?)", on).
		Order("effective_from DESC").
		Find(&entries).Error
	return entries, err
}

type missingRow struct {
	SupplierName    string
	ProductName     string
	OrderCount      int
	LatestOrderDate string
	SupplierID      *int
}

// FindMissing computes the set difference between (supplier, product) pairs
// observed in orders and pairs covered by any price entry. Absent tables
// degrade to an empty result so the dashboard keeps working against a
// partially-initialized store.
func (r *repository) FindMissing(ctx context.Context) ([]MissingPriceRecord, error) {
	conn := r.db.WithContext(ctx)
	migrator := conn.Migrator()
	if !migrator.HasTable(&models.Order{}) ||
		!migrator.HasTable(&models.Supplier{}) ||
		!migrator.HasTable(&models.PriceEntry{}) {
		return nil, nil
	}

	joinColumn := "pickup_warehouse"
	if migrator.HasColumn(&models.Order{}, "order_account") {
		joinColumn = "order_account"
	}

	// Warehouse name first, then the account column, then the courier,
	// then the literal fallback.
	supplierExpr := fmt.Sprintf(`COALESCE(
  NULLIF(TRIM(o.pickup_warehouse), ''),
  NULLIF(TRIM(o.%s), ''),
  NULLIF(TRIM(o.fulfilled_by), ''),
  'Unknown'
)`, joinColumn)

	query := fmt.Sprintf(`
SELECT
  %s AS supplier_name,
  TRIM(o.product_name) AS product_name,
  COUNT(*) AS order_count,
  MAX(o.order_date) AS latest_order_date,
  s.id AS supplier_id
FROM orders o
LEFT JOIN suppliers s ON s.name = %s
LEFT JOIN price_entries pe ON
  pe.supplier_id = s.id
  AND TRIM(pe.product_name) = TRIM(o.product_name)
WHERE o.product_name IS NOT NULL
  AND TRIM(o.product_name) != ''
  AND pe.id IS NULL
GROUP BY supplier_name, TRIM(o.product_name), s.id
ORDER BY order_count DESC
LIMIT %d`, supplierExpr, supplierExpr, missingPriceLimit)

	var rows []missingRow
	if err := conn.Raw(query).Scan(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]MissingPriceRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, MissingPriceRecord{
			SupplierName:      row.SupplierName,
			ProductName:       row.ProductName,
			OrderCount:        row.OrderCount,
			LatestOrderDate:   normalizeDateLiteral(row.LatestOrderDate),
			SupplierID:        row.SupplierID,
			SupplierProductID: row.SupplierName + row.ProductName,
			NeedsPricing:      true,
		})
	}
	return records, nil
}

// normalizeDateLiteral trims a driver-formatted date or datetime literal
// down to YYYY-MM-DD.
func normalizeDateLiteral(raw string) string {
	if len(raw) >= 10 {
		return raw[:10]
	}
	return raw
}
