package generic

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Inclusive range of calendar days
// =============================================================================

// Period is the closed interval [Start, End]. Both ends count.
//
// Examples:
//   - Pay period February 2024: Feb 1 - Feb 29 (29 days)
//   - A one-day leave: Mar 10 - Mar 10 (1 day)
type Period struct {
	Start Date
	End   Date
}

// Valid reports whether Start is not after End.
func (p Period) Valid() bool {
	return p.Start.BeforeOrEqual(p.End)
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Overlaps reports whether the two periods share at least one day.
func (p Period) Overlaps(other Period) bool {
	return p.Start.BeforeOrEqual(other.End) && other.Start.BeforeOrEqual(p.End)
}

// Clip returns the part of p that lies inside bounds. The boolean is false
// when nothing remains.
func (p Period) Clip(bounds Period) (Period, bool) {
	clipped := Period{
		Start: MaxDate(p.Start, bounds.Start),
		End:   MinDate(p.End, bounds.End),
	}
	if clipped.Start.After(clipped.End) {
		return Period{}, false
	}
	return clipped, true
}

// Days returns the inclusive day count, or 0 for an inverted period.
func (p Period) Days() int {
	if !p.Valid() {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// PAY PERIOD - Calendar month identifying one payslip per employee
// =============================================================================

// PayPeriodLayout is the wire and storage format of a PayPeriod.
const PayPeriodLayout = "2006-01"

// PayPeriod is a calendar month.
type PayPeriod struct {
	Year  int
	Month time.Month
}

func NewPayPeriod(year int, month time.Month) PayPeriod {
	return PayPeriod{Year: year, Month: month}
}

// PayPeriodOf returns the month containing d.
func PayPeriodOf(d Date) PayPeriod {
	return PayPeriod{Year: d.Year(), Month: d.Month()}
}

// ParsePayPeriod parses a YYYY-MM string.
func ParsePayPeriod(s string) (PayPeriod, error) {
	t, err := time.Parse(PayPeriodLayout, s)
	if err != nil {
		return PayPeriod{}, fmt.Errorf("%w: %q (want YYYY-MM)", ErrInvalidPayPeriod, s)
	}
	return PayPeriod{Year: t.Year(), Month: t.Month()}, nil
}

func (pp PayPeriod) IsZero() bool { return pp.Year == 0 && pp.Month == 0 }

// Validate rejects zero or out-of-range months.
func (pp PayPeriod) Validate() error {
	if pp.Year < 1 || pp.Year > 9999 || pp.Month < time.January || pp.Month > time.December {
		return fmt.Errorf("%w: year=%d month=%d", ErrInvalidPayPeriod, pp.Year, pp.Month)
	}
	return nil
}

func (pp PayPeriod) Start() Date { return StartOfMonth(pp.Year, pp.Month) }
func (pp PayPeriod) End() Date   { return EndOfMonth(pp.Year, pp.Month) }

// Period returns the month as an inclusive day range.
func (pp PayPeriod) Period() Period {
	return Period{Start: pp.Start(), End: pp.End()}
}

func (pp PayPeriod) Next() PayPeriod     { return PayPeriodOf(pp.Start().AddMonths(1)) }
func (pp PayPeriod) Previous() PayPeriod { return PayPeriodOf(pp.Start().AddMonths(-1)) }

func (pp PayPeriod) String() string {
	return fmt.Sprintf("%04d-%02d", pp.Year, int(pp.Month))
}

func (pp PayPeriod) MarshalJSON() ([]byte, error) {
	return json.Marshal(pp.String())
}

func (pp *PayPeriod) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePayPeriod(s)
	if err != nil {
		return err
	}
	*pp = parsed
	return nil
}
