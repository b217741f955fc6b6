/*
errors.go - Error taxonomy surfaced by payslip generation and the read APIs

ERROR CATEGORIES:
  1. DuplicatePeriod       - the (employee, period) already has a payslip.
                             User-correctable, never retried automatically.
  2. DependencyUnavailable - a critical upstream failed (timeout, not found,
                             malformed data). Transient, safe to retry later.
  3. Validation            - malformed employee id, period or request.
  4. NotFound              - read of an unknown payslip or bonus.

Best-effort failures (notification, audit) are NOT part of this taxonomy.
They are absorbed by the Dispatcher and only logged.

USAGE:
  payslip, err := svc.GeneratePayslip(ctx, req)
  var depErr *payroll.DependencyError
  switch {
  case errors.Is(err, payroll.ErrDuplicatePeriod):
  case errors.As(err, &depErr):
      log(depErr.Dependency)
  }
*/
package payroll

import (
	"errors"
	"fmt"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicatePeriod is returned when a payslip already exists for the
	// employee and pay period.
	ErrDuplicatePeriod = errors.New("payslip already exists for pay period")

	// ErrDependencyUnavailable is returned when a critical upstream could not
	// supply its data.
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is the parent of every read-side not-found error.
	ErrNotFound = errors.New("not found")

	ErrPayslipNotFound = fmt.Errorf("payslip %w", ErrNotFound)
	ErrBonusNotFound   = fmt.Errorf("bonus %w", ErrNotFound)

	// ErrEmployeeNotFound is reported by the salary rule lookup for unknown
	// employees. It reaches callers wrapped in a DependencyError.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrMalformedResponse marks upstream data that failed validation.
	ErrMalformedResponse = errors.New("malformed dependency response")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// Dependency names a critical upstream.
type Dependency string

const (
	DependencySalaryRules Dependency = "salary-rules"
	DependencyUnpaidLeave Dependency = "unpaid-leave"
)

// DependencyError reports which critical dependency failed and why.
// It matches both ErrDependencyUnavailable and the underlying cause.
type DependencyError struct {
	Dependency Dependency
	Err        error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrDependencyUnavailable, e.Dependency, e.Err)
}

func (e *DependencyError) Unwrap() []error {
	return []error{ErrDependencyUnavailable, e.Err}
}

// DuplicatePeriodError provides the key that already holds a payslip.
type DuplicatePeriodError struct {
	EmployeeID EmployeeID
	PayPeriod  generic.PayPeriod
}

func (e *DuplicatePeriodError) Error() string {
	return fmt.Sprintf("payslip already exists for employee %s in pay period %s", e.EmployeeID, e.PayPeriod)
}

func (e *DuplicatePeriodError) Unwrap() error {
	return ErrDuplicatePeriod
}

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the whole generation may succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrDependencyUnavailable)
}

// IsClientError returns true if the error is due to the caller's input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDuplicatePeriod) || errors.Is(err, ErrValidation)
}

// IsNotFound returns true if the error indicates a missing payslip or bonus.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
