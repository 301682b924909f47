package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

var halfDayValue = decimal.NewFromFloat(0.5)

// WorkingDays counts weekdays (Mon-Fri) between start and end inclusive.
// A half-day request is exactly 0.5 regardless of the date span.
func WorkingDays(start, end time.Time, halfDay bool) decimal.Decimal {
	if halfDay {
		return halfDayValue
	}

	days := int64(0)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			days++
		}
	}
	return decimal.NewFromInt(days)
}
