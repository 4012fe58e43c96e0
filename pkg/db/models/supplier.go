package models

import "time"

// Supplier is created lazily the first time a price entry or warehouse name
// references it. Name uniqueness is enforced by the store; duplicate creates
// resolve to the existing row.
type Supplier struct {
	ID        int       `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;size:255;not null;uniqueIndex:uniq_suppliers_name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
