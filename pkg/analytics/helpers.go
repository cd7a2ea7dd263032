package analytics

import (
	"fmt"
	"math"
	"time"
)

const dateLayout = "2006-01-02"

// Range restricts metrics to a trailing window.
type Range string

// Supported metric ranges.
const (
	Range7d  Range = "7d"
	Range30d Range = "30d"
	RangeAll Range = "all"
)

// ParseRange validates a range string; the empty string defaults to 30d.
func ParseRange(s string) (Range, error) {
	switch Range(s) {
	case "":
		return Range30d, nil
	case Range7d, Range30d, RangeAll:
		return Range(s), nil
	default:
		return "", fmt.Errorf("%w: unknown range %q", ErrValidation, s)
	}
}

// Start returns the window start for the range. The second return is
// false for the unbounded "all" range.
func (r Range) Start(now time.Time) (time.Time, bool) {
	switch r {
	case Range7d:
		return now.AddDate(0, 0, -7), true
	case Range30d:
		return now.AddDate(0, 0, -30), true
	default:
		return time.Time{}, false
	}
}

// round2 rounds half-up to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// fillTrend zero-fills a sparse date->count map into a dense ascending
// n-day trend ending today.
func fillTrend(counts map[string]int64, now time.Time, n int) []ViewTrendPoint {
	trend := make([]ViewTrendPoint, 0, n)
	for i := n - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format(dateLayout)
		trend = append(trend, ViewTrendPoint{Date: date, Views: counts[date]})
	}
	return trend
}
