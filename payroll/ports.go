/*
ports.go - Capabilities the orchestrator consumes from other services

CRITICAL (generation aborts on any error):
  SalaryRuleLookup:  designation pay rule of an employee
  UnpaidLeaveLookup: approved unpaid leave overlapping a date range

BEST-EFFORT (errors are logged and dropped by the Dispatcher):
  NotificationSink:  "your payslip is ready"
  AuditSink:         compliance trail entry

Implementations:
  - upstream/: HTTP JSON clients for the employee, attendance, notification
    and audit services
  - messaging/: Kafka and log transports for notifications and audit
*/
package payroll

import (
	"context"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// CRITICAL PORTS
// =============================================================================

type SalaryRuleLookup interface {
	// GetSalaryRule returns the current rule. Unknown employees are reported
	// with ErrEmployeeNotFound.
	GetSalaryRule(ctx context.Context, employeeID EmployeeID) (SalaryRule, error)
}

type UnpaidLeaveLookup interface {
	// GetApprovedUnpaidLeave returns approved unpaid leave overlapping
	// [start, end]. Intervals may extend outside the range.
	GetApprovedUnpaidLeave(ctx context.Context, employeeID EmployeeID, start, end generic.Date) ([]UnpaidLeaveInterval, error)
}

// SalaryRuleLookupFunc adapts a function to SalaryRuleLookup.
type SalaryRuleLookupFunc func(ctx context.Context, employeeID EmployeeID) (SalaryRule, error)

func (f SalaryRuleLookupFunc) GetSalaryRule(ctx context.Context, employeeID EmployeeID) (SalaryRule, error) {
	return f(ctx, employeeID)
}

// UnpaidLeaveLookupFunc adapts a function to UnpaidLeaveLookup.
type UnpaidLeaveLookupFunc func(ctx context.Context, employeeID EmployeeID, start, end generic.Date) ([]UnpaidLeaveInterval, error)

func (f UnpaidLeaveLookupFunc) GetApprovedUnpaidLeave(ctx context.Context, employeeID EmployeeID, start, end generic.Date) ([]UnpaidLeaveInterval, error) {
	return f(ctx, employeeID, start, end)
}

// =============================================================================
// BEST-EFFORT PORTS
// =============================================================================

// PayrollNotification tells an employee a payslip is available.
type PayrollNotification struct {
	EmployeeID EmployeeID
	PayslipID  PayslipID
	PayPeriod  generic.PayPeriod
}

type NotificationSink interface {
	SendPayrollNotification(ctx context.Context, n PayrollNotification) error
}

// AuditAction identifies what happened.
type AuditAction string

const (
	AuditPayrollGenerated AuditAction = "PAYROLL_GENERATED"
	AuditBonusGranted     AuditAction = "BONUS_GRANTED"
)

// ServiceName is reported as the origin of every audit entry.
const ServiceName = "Payroll Service"

// AuditEntry records who did what to which record.
type AuditEntry struct {
	Action      AuditAction
	ServiceName string
	PerformedBy string
	TargetID    string
	Description string
	OldValues   map[string]any
	NewValues   map[string]any
}

type AuditSink interface {
	WriteAuditEntry(ctx context.Context, entry AuditEntry) error
}

// NotificationSinkFunc adapts a function to NotificationSink.
type NotificationSinkFunc func(ctx context.Context, n PayrollNotification) error

func (f NotificationSinkFunc) SendPayrollNotification(ctx context.Context, n PayrollNotification) error {
	return f(ctx, n)
}

// AuditSinkFunc adapts a function to AuditSink.
type AuditSinkFunc func(ctx context.Context, entry AuditEntry) error

func (f AuditSinkFunc) WriteAuditEntry(ctx context.Context, entry AuditEntry) error {
	return f(ctx, entry)
}
