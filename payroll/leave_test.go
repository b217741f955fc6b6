package payroll_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

func leave(from, to string) payroll.UnpaidLeaveInterval {
	start, err := generic.ParseDate(from)
	if err != nil {
		panic(err)
	}
	end, err := generic.ParseDate(to)
	if err != nil {
		panic(err)
	}
	return payroll.UnpaidLeaveInterval{Start: start, End: end}
}

func feb2024() generic.Period {
	return generic.NewPayPeriod(2024, time.February).Period()
}

func TestUnpaidLeaveDays(t *testing.T) {
	tests := []struct {
		name      string
		intervals []payroll.UnpaidLeaveInterval
		expected  int
	}{
		{"none", nil, 0},
		{"inside", []payroll.UnpaidLeaveInterval{leave("2024-02-05", "2024-02-07")}, 3},
		{"single day", []payroll.UnpaidLeaveInterval{leave("2024-02-10", "2024-02-10")}, 1},
		{"clipped at start", []payroll.UnpaidLeaveInterval{leave("2024-01-28", "2024-02-03")}, 3},
		{"clipped at end", []payroll.UnpaidLeaveInterval{leave("2024-02-27", "2024-03-04")}, 3},
		{"covers whole leap month", []payroll.UnpaidLeaveInterval{leave("2024-01-01", "2024-03-31")}, 29},
		{"entirely before", []payroll.UnpaidLeaveInterval{leave("2024-01-01", "2024-01-31")}, 0},
		{"entirely after", []payroll.UnpaidLeaveInterval{leave("2024-03-01", "2024-03-02")}, 0},
		{
			"overlapping intervals are summed",
			[]payroll.UnpaidLeaveInterval{leave("2024-02-05", "2024-02-07"), leave("2024-02-06", "2024-02-08")},
			6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, payroll.UnpaidLeaveDays(tt.intervals, feb2024()))
		})
	}
}

func TestMergeLeaveIntervals(t *testing.T) {
	// GIVEN overlapping, adjacent and disjoint intervals out of order
	intervals := []payroll.UnpaidLeaveInterval{
		leave("2024-02-20", "2024-02-21"),
		leave("2024-02-06", "2024-02-08"),
		leave("2024-02-05", "2024-02-07"),
		leave("2024-02-09", "2024-02-09"),
	}

	// WHEN
	merged := payroll.MergeLeaveIntervals(intervals)

	// THEN the first three collapse into 5..9 and days are counted once
	assert.Equal(t, []payroll.UnpaidLeaveInterval{
		leave("2024-02-05", "2024-02-09"),
		leave("2024-02-20", "2024-02-21"),
	}, merged)
	assert.Equal(t, 7, payroll.UnpaidLeaveDays(merged, feb2024()))
}

func TestMergeLeaveIntervals_Empty(t *testing.T) {
	assert.Empty(t, payroll.MergeLeaveIntervals(nil))
}
