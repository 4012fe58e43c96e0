package stats

import (
	"context"

	"gorm.io/gorm"

	"github.com/profitlens/profitlens-backend/pkg/db/models"
	pkgerrors "github.com/profitlens/profitlens-backend/pkg/errors"
)

// DatasetStats describes one stored dataset: how many rows it has and, for
// dated datasets, the date span it covers.
type DatasetStats struct {
	Rows         int64  `json:"rows"`
	EarliestDate string `json:"earliest_date,omitempty"`
	LatestDate   string `json:"latest_date,omitempty"`
}

// DataStats is the dashboard's data-health panel.
type DataStats struct {
	Orders         DatasetStats `json:"orders"`
	PriceEntries   DatasetStats `json:"price_entries"`
	ShippingCosts  DatasetStats `json:"shipping_costs"`
	MarketingSpend DatasetStats `json:"marketing_spend"`
	Suppliers      DatasetStats `json:"suppliers"`
}

// Service reads dataset row counts and date ranges. Absent tables report as
// empty datasets so the panel renders on a fresh install.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Collect(ctx context.Context) (*DataStats, error) {
	orders, err := s.datasetStats(ctx, &models.Order{}, "order_date")
	if err != nil {
		return nil, err
	}
	prices, err := s.datasetStats(ctx, &models.PriceEntry{}, "effective_from")
	if err != nil {
		return nil, err
	}
	shipping, err := s.datasetStats(ctx, &models.ShippingCost{}, "")
	if err != nil {
		return nil, err
	}
	marketing, err := s.datasetStats(ctx, &models.MarketingSpend{}, "spend_date")
	if err != nil {
		return nil, err
	}
	suppliers, err := s.datasetStats(ctx, &models.Supplier{}, "")
	if err != nil {
		return nil, err
	}

	return &DataStats{
		Orders:         orders,
		PriceEntries:   prices,
		ShippingCosts:  shipping,
		MarketingSpend: marketing,
		Suppliers:      suppliers,
	}, nil
}

type dateRangeRow struct {
	Earliest *string
	Latest   *string
}

func (s *Service) datasetStats(ctx context.Context, model any, dateColumn string) (DatasetStats, error) {
	conn := s.db.WithContext(ctx)
	if !conn.Migrator().HasTable(model) {
		return DatasetStats{}, nil
	}

	var stats DatasetStats
	if err := conn.Model(model).Count(&stats.Rows).Error; err != nil {
		return DatasetStats{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count dataset rows")
	}
	if dateColumn == "" || stats.Rows == 0 {
		return stats, nil
	}

	var row dateRangeRow
	err := conn.Model(model).
		Select("MIN(" + dateColumn + ") AS earliest, MAX(" + dateColumn + ") AS latest").
		Scan(&row).Error
	if err != nil {
		return DatasetStats{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read dataset date range")
	}
	stats.EarliestDate = normalizeDateLiteral(row.Earliest)
	stats.LatestDate = normalizeDateLiteral(row.Latest)
	return stats, nil
}

// normalizeDateLiteral trims a driver-formatted date or datetime down to
// YYYY-MM-DD.
func normalizeDateLiteral(raw *string) string {
	if raw == nil {
		return ""
	}
	if len(*raw) >= 10 {
		return (*raw)[:10]
	}
	return *raw
}
