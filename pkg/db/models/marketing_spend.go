package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketingSpend is an ad-spend entry. Appended incrementally, never
// bulk-replaced.
type MarketingSpend struct {
	ID        int             `gorm:"column:id;primaryKey;autoIncrement"`
	SpendDate time.Time       `gorm:"column:spend_date;type:date;not null;index"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(10,2);not null"`
	Channel   string          `gorm:"column:channel;size:100"`
	Notes     string          `gorm:"column:notes"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (MarketingSpend) TableName() string {
	return "marketing_spend"
}
