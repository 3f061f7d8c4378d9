package duplicate

import (
	"fmt"
	"time"
)

const (
	minutesPerHour = 60
	minutesPerDay  = 24 * minutesPerHour
)

// TimeDifference renders the gap between two dates as whole days, hours or
// minutes, using the largest unit that fits. Returns "Unknown" when either
// date is absent.
func TimeDifference(a, b *time.Time) string {
	if a == nil || b == nil {
		return "Unknown"
	}

	minutes := int64(absDuration(a.Sub(*b)) / time.Minute)

	switch {
	case minutes >= minutesPerDay:
		return fmt.Sprintf("%d day(s)", minutes/minutesPerDay)
	case minutes >= minutesPerHour:
		return fmt.Sprintf("%d hour(s)", minutes/minutesPerHour)
	default:
		return fmt.Sprintf("%d minute(s)", minutes)
	}
}
