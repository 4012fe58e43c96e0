package reports

import "github.com/shopspring/decimal"

// Totals are the headline figures for one query window.
type Totals struct {
	Revenue      decimal.Decimal `json:"revenue"`
	ProductCost  decimal.Decimal `json:"product_cost"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Marketing    decimal.Decimal `json:"marketing_cost"`
	NetProfit    decimal.Decimal `json:"net_profit"`
	Margin       decimal.Decimal `json:"profit_margin"`
}

// Changes are percent deltas against the previous window of equal duration.
type Changes struct {
	Revenue      decimal.Decimal `json:"revenue"`
	ProductCost  decimal.Decimal `json:"product_cost"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Marketing    decimal.Decimal `json:"marketing_cost"`
	NetProfit    decimal.Decimal `json:"net_profit"`
}

// TrendPoint is one day in the merged daily series.
type TrendPoint struct {
	Date      string          `json:"date"`
	Revenue   decimal.Decimal `json:"revenue"`
	Cost      decimal.Decimal `json:"cost"`
	Shipping  decimal.Decimal `json:"shipping"`
	Marketing decimal.Decimal `json:"marketing"`
	Profit    decimal.Decimal `json:"profit"`
}

// ChannelStat is the per-sales-channel slice of the window.
type ChannelStat struct {
	Channel string          `json:"channel"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

// ProductStat is the per-product slice, revenue descending.
type ProductStat struct {
	ProductName string          `json:"product_name"`
	Revenue     decimal.Decimal `json:"revenue"`
	Cost        decimal.Decimal `json:"cost"`
	Profit      decimal.Decimal `json:"profit"`
	Orders      int             `json:"orders"`
}

// MetricsReport is the full dashboard payload.
type MetricsReport struct {
	StartDate          string        `json:"start_date"`
	EndDate            string        `json:"end_date"`
	Stores             []string      `json:"stores"`
	Totals             Totals        `json:"totals"`
	Changes            Changes       `json:"changes"`
	Trends             []TrendPoint  `json:"trends"`
	ChannelBreakdown   []ChannelStat `json:"channel_breakdown"`
	ProductPerformance []ProductStat `json:"product_performance"`
	PricedOrders       int           `json:"priced_orders"`
	CODOrders          int           `json:"cod_orders"`
	PPDOrders          int           `json:"ppd_orders"`
	ShippedOrders      int           `json:"shipped_orders"`
}
