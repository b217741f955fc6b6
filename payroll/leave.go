package payroll

import (
	"fmt"
	"sort"

	"github.com/warp/payroll-engine/generic"
)

// UnpaidLeaveDays counts the days of the intervals that fall inside period.
// Each interval is clipped to the period first. Overlapping intervals are
// summed as given; use MergeLeaveIntervals beforehand to count shared days
// once.
func UnpaidLeaveDays(intervals []UnpaidLeaveInterval, period generic.Period) int {
	total := 0
	for _, interval := range intervals {
		clipped, ok := interval.Period().Clip(period)
		if !ok {
			continue
		}
		total += clipped.Days()
	}
	return total
}

// MergeLeaveIntervals returns the union of the intervals as a sorted list of
// disjoint intervals. Adjacent intervals (one ends the day before the next
// starts) are merged as well. Inverted intervals are dropped.
func MergeLeaveIntervals(intervals []UnpaidLeaveInterval) []UnpaidLeaveInterval {
	sorted := make([]UnpaidLeaveInterval, 0, len(intervals))
	for _, interval := range intervals {
		if interval.Period().Valid() {
			sorted = append(sorted, interval)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	var merged []UnpaidLeaveInterval
	for _, interval := range sorted {
		if n := len(merged); n > 0 && interval.Start.BeforeOrEqual(merged[n-1].End.AddDays(1)) {
			merged[n-1].End = generic.MaxDate(merged[n-1].End, interval.End)
			continue
		}
		merged = append(merged, interval)
	}
	return merged
}

// validateLeaveIntervals rejects intervals whose end precedes their start.
func validateLeaveIntervals(intervals []UnpaidLeaveInterval) error {
	for _, interval := range intervals {
		if interval.Start.IsZero() || interval.End.IsZero() || !interval.Period().Valid() {
			return fmt.Errorf("%w: unpaid leave interval %s is inverted or incomplete", ErrMalformedResponse, interval.Period())
		}
	}
	return nil
}
