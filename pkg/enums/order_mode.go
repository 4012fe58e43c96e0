package enums

import "strings"

// OrderMode is the payment mode reported by the sales channel.
type OrderMode string

const (
	OrderModeCOD     OrderMode = "cod"
	OrderModePrepaid OrderMode = "ppd"
	OrderModeOther   OrderMode = "other"
)

func (m OrderMode) IsValid() bool {
	switch m {
	case OrderModeCOD, OrderModePrepaid, OrderModeOther:
		return true
	}
	return false
}

// NormalizeOrderMode folds the channel's free-text mode values into the
// closed set used for COD/prepaid counts.
func NormalizeOrderMode(raw string) OrderMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "cod":
		return OrderModeCOD
	case "ppd", "prepaid":
		return OrderModePrepaid
	default:
		return OrderModeOther
	}
}
