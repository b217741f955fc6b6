/*
errors.go - Sentinel errors for the money and calendar primitives

USAGE:
  Domain packages wrap these with field context:

    if errors.Is(err, generic.ErrInvalidPayPeriod) {
        return &payroll.ValidationError{Field: "payPeriod", ...}
    }

SEE ALSO:
  - payroll/errors.go: The payroll error taxonomy built on top of these
*/
package generic

import "errors"

var (
	// ErrInvalidDate is returned when a date string is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidPayPeriod is returned when a pay period is not a valid YYYY-MM month.
	ErrInvalidPayPeriod = errors.New("invalid pay period")

	// ErrInvalidAmount is returned when a monetary string cannot be parsed exactly.
	ErrInvalidAmount = errors.New("invalid amount")
)
