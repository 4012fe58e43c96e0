package enums

import "strings"

// OrderStatusClass is the ingestion-time classification of the free-text
// order status. Courier files carry dozens of status spellings; the only
// distinction reporting needs is cancelled vs everything else, so the class
// is derived once on import instead of substring-matching in every query.
type OrderStatusClass string

const (
	OrderStatusActive    OrderStatusClass = "active"
	OrderStatusCancelled OrderStatusClass = "cancelled"
)

func (s OrderStatusClass) IsValid() bool {
	switch s {
	case OrderStatusActive, OrderStatusCancelled:
		return true
	}
	return false
}

// ClassifyOrderStatus maps a raw status string to its class. Any status
// containing "cancel" (case-insensitive) counts as cancelled, matching the
// upstream courier exports ("Cancelled", "CANCELLED - RTO", "cancel").
func ClassifyOrderStatus(raw string) OrderStatusClass {
	if strings.Contains(strings.ToLower(raw), "cancel") {
		return OrderStatusCancelled
	}
	return OrderStatusActive
}
