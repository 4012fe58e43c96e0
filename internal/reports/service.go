package reports

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/profitlens/profitlens-backend/pkg/config"
	pkgerrors "github.com/profitlens/profitlens-backend/pkg/errors"
	"github.com/profitlens/profitlens-backend/pkg/logger"
	"github.com/profitlens/profitlens-backend/pkg/redis"
)

const (
	dateLayout = "2006-01-02"

	// showAllStart is the open lower bound used when the caller asks for
	// the full dataset instead of a window.
	showAllStart = "2000-01-01"
)

// Service computes the dashboard report. The redis cache is optional; a nil
// client disables it without changing behavior.
type Service struct {
	repo  Repository
	cache *redis.Client
	cfg   config.ReportsConfig
	logg  *logger.Logger
	now   func() time.Time
}

func NewService(repo Repository, cache *redis.Client, cfg config.ReportsConfig, logg *logger.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		cfg:   cfg,
		logg:  logg,
		now:   time.Now,
	}
}

// Params are the raw request inputs for a report.
type Params struct {
	StartDate string
	EndDate   string
	Stores    []string
	ShowAll   bool
}

// ComputeMetrics resolves the window, consults the cache, and assembles the
// report for it.
func (s *Service) ComputeMetrics(ctx context.Context, p Params) (*MetricsReport, error) {
	start, end, err := s.resolveWindow(p)
	if err != nil {
		return nil, err
	}

	stores := trimAll(p.Stores)
	query := Query{Start: start, End: end, Stores: stores}

	cacheKey := s.cacheKey(ctx, query, p.ShowAll)
	if cached := s.fromCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	report, err := s.buildReport(ctx, query, p.ShowAll)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, cacheKey, report)
	return report, nil
}

func (s *Service) resolveWindow(p Params) (time.Time, time.Time, error) {
	if p.ShowAll {
		start, _ := time.ParseInLocation(dateLayout, showAllStart, time.UTC)
		today := s.now().UTC().Truncate(24 * time.Hour)
		return start, today, nil
	}

	start, err := time.ParseInLocation(dateLayout, strings.TrimSpace(p.StartDate), time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid start_date, expected YYYY-MM-DD")
	}
	end, err := time.ParseInLocation(dateLayout, strings.TrimSpace(p.EndDate), time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid end_date, expected YYYY-MM-DD")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "end_date precedes start_date")
	}
	return start, end, nil
}

func (s *Service) buildReport(ctx context.Context, q Query, showAll bool) (*MetricsReport, error) {
	current, err := s.windowTotals(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute report totals")
	}

	// showAll has no comparison window: both the previous totals and the
	// change percentages stay zero.
	var changes Changes
	if !showAll {
		prevEnd := q.Start.AddDate(0, 0, -1)
		prevStart := prevEnd.Add(-q.End.Sub(q.Start))
		previous, err := s.windowTotals(ctx, Query{Start: prevStart, End: prevEnd, Stores: q.Stores})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute previous period totals")
		}
		changes = changesBetween(current, previous)
	}

	trends, err := s.trendSeries(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute daily trends")
	}

	channels, err := s.repo.ChannelBreakdown(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute channel breakdown")
	}

	products, err := s.repo.ProductPerformance(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute product performance")
	}
	for i := range products {
		products[i].Profit = products[i].Revenue.Sub(products[i].Cost)
	}

	cod, ppd, shipped, err := s.repo.OrderCounts(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute order counts")
	}

	stores := q.Stores
	if stores == nil {
		stores = []string{}
	}

	return &MetricsReport{
		StartDate:          q.Start.Format(dateLayout),
		EndDate:            q.End.Format(dateLayout),
		Stores:             stores,
		Totals:             current.totals(),
		Changes:            changes,
		Trends:             trends,
		ChannelBreakdown:   emptyIfNilChannels(channels),
		ProductPerformance: emptyIfNilProducts(products),
		PricedOrders:       current.pricedOrders,
		CODOrders:          cod,
		PPDOrders:          ppd,
		ShippedOrders:      shipped,
	}, nil
}

// windowTotals holds the four summed figures for one window.
type windowTotals struct {
	revenue      decimal.Decimal
	cost         decimal.Decimal
	shipping     decimal.Decimal
	marketing    decimal.Decimal
	pricedOrders int
}

func (w windowTotals) netProfit() decimal.Decimal {
	return w.revenue.Sub(w.cost).Sub(w.shipping).Sub(w.marketing)
}

func (w windowTotals) totals() Totals {
	profit := w.netProfit()
	margin := decimal.Zero
	if w.revenue.IsPositive() {
		margin = profit.Div(w.revenue).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return Totals{
		Revenue:      w.revenue,
		ProductCost:  w.cost,
		ShippingCost: w.shipping,
		Marketing:    w.marketing,
		NetProfit:    profit,
		Margin:       margin,
	}
}

func (s *Service) windowTotals(ctx context.Context, q Query) (windowTotals, error) {
	revenue, cost, priced, err := s.repo.RevenueAndCost(ctx, q)
	if err != nil {
		return windowTotals{}, err
	}
	shipping, err := s.repo.ShippingTotal(ctx, q)
	if err != nil {
		return windowTotals{}, err
	}
	marketing, err := s.repo.MarketingTotal(ctx, q.Start, q.End)
	if err != nil {
		return windowTotals{}, err
	}
	return windowTotals{
		revenue:      revenue,
		cost:         cost,
		shipping:     shipping,
		marketing:    marketing,
		pricedOrders: priced,
	}, nil
}

// percentChange is the period-over-period delta. A zero base maps to 100
// when the current figure is nonzero and 0 otherwise.
func percentChange(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		if !current.IsZero() {
			return decimal.NewFromInt(100)
		}
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2)
}

func changesBetween(current, previous windowTotals) Changes {
	return Changes{
		Revenue:      percentChange(current.revenue, previous.revenue),
		ProductCost:  percentChange(current.cost, previous.cost),
		ShippingCost: percentChange(current.shipping, previous.shipping),
		Marketing:    percentChange(current.marketing, previous.marketing),
		NetProfit:    percentChange(current.netProfit(), previous.netProfit()),
	}
}

// trendSeries merges the three dated sources into one per-day series,
// ascending by date. Days appearing in any source appear in the output.
func (s *Service) trendSeries(ctx context.Context, q Query) ([]TrendPoint, error) {
	revenueCost, err := s.repo.RevenueCostByDay(ctx, q)
	if err != nil {
		return nil, err
	}
	shipping, err := s.repo.ShippingByDay(ctx, q)
	if err != nil {
		return nil, err
	}
	marketing, err := s.repo.MarketingByDay(ctx, q.Start, q.End)
	if err != nil {
		return nil, err
	}

	byDay := map[string]*TrendPoint{}
	point := func(day time.Time) *TrendPoint {
		key := day.Format(dateLayout)
		if p, ok := byDay[key]; ok {
			return p
		}
		p := &TrendPoint{Date: key}
		byDay[key] = p
		return p
	}

	for _, row := range revenueCost {
		p := point(row.Day)
		p.Revenue = p.Revenue.Add(row.Revenue)
		p.Cost = p.Cost.Add(row.Cost)
	}
	for _, row := range shipping {
		p := point(row.Day)
		p.Shipping = p.Shipping.Add(row.Amount)
	}
	for _, row := range marketing {
		p := point(row.Day)
		p.Marketing = p.Marketing.Add(row.Amount)
	}

	series := make([]TrendPoint, 0, len(byDay))
	for _, p := range byDay {
		p.Profit = p.Revenue.Sub(p.Cost).Sub(p.Shipping).Sub(p.Marketing)
		series = append(series, *p)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series, nil
}

func emptyIfNilChannels(in []ChannelStat) []ChannelStat {
	if in == nil {
		return []ChannelStat{}
	}
	return in
}

func emptyIfNilProducts(in []ProductStat) []ProductStat {
	if in == nil {
		return []ProductStat{}
	}
	return in
}

// cacheKey includes the dataset version so imports invalidate every cached
// report without enumerating keys.
func (s *Service) cacheKey(ctx context.Context, q Query, showAll bool) string {
	if s.cache == nil {
		return ""
	}
	version, err := s.cache.Get(ctx, redis.DatasetVersionKey())
	if err != nil && !errors.Is(err, redis.ErrCacheMiss) {
		return ""
	}
	if version == "" {
		version = "0"
	}
	return redis.ReportKey(
		version,
		q.Start.Format(dateLayout),
		q.End.Format(dateLayout),
		strings.Join(q.Stores, ","),
		strconv.FormatBool(showAll),
	)
}

func (s *Service) fromCache(ctx context.Context, key string) *MetricsReport {
	if s.cache == nil || key == "" {
		return nil
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.logg.Warn(ctx, "report cache read failed")
		}
		return nil
	}
	var report MetricsReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil
	}
	return &report
}

func (s *Service) toCache(ctx context.Context, key string, report *MetricsReport) {
	if s.cache == nil || key == "" {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.cfg.CacheTTL); err != nil {
		s.logg.Warn(ctx, "report cache write failed")
	}
}
