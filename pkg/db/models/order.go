package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/profitlens/profitlens-backend/pkg/enums"
)

// Order is one row of a channel export. Orders are replaced wholesale on
// every upload, never edited in place.
type Order struct {
	ID              int                    `gorm:"column:id;primaryKey;autoIncrement"`
	Channel         string                 `gorm:"column:channel;size:100"`
	OrderDate       time.Time              `gorm:"column:order_date;type:date;not null;index"`
	FulfilledBy     string                 `gorm:"column:fulfilled_by;size:100"`
	DeliveredDate   *time.Time             `gorm:"column:delivered_date;type:date"`
	ProductName     string                 `gorm:"column:product_name;size:255;index"`
	OrderAmount     decimal.Decimal        `gorm:"column:order_amount;type:numeric(10,2)"`
	PickupWarehouse string                 `gorm:"column:pickup_warehouse;size:255"`
	OrderAccount    string                 `gorm:"column:order_account;size:255"`
	WaybillNumber   string                 `gorm:"column:waybill_number;size:255"`
	ProductValue    decimal.Decimal        `gorm:"column:product_value;type:numeric(10,2)"`
	Mode            enums.OrderMode        `gorm:"column:mode;size:100"`
	Status          string                 `gorm:"column:status;size:100;not null;default:pending"`
	StatusClass     enums.OrderStatusClass `gorm:"column:status_class;size:20;not null;default:active;index"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
}
