// Package payroll implements payslip generation on top of the generic money
// and calendar primitives: the salary calculator, the dependency ports, the
// store contracts and the generation orchestrator.
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type PayslipID string
type BonusID string

// =============================================================================
// EXTERNAL DATA (read-only snapshots of other services' state)
// =============================================================================

// SalaryRule is the designation-derived pay rule of an employee, as returned
// by the employee service at the moment of the lookup.
type SalaryRule struct {
	Designation   string
	BaseSalary    decimal.Decimal
	TaxPercentage decimal.Decimal
}

// UnpaidLeaveInterval is an approved unpaid leave, both ends inclusive.
type UnpaidLeaveInterval struct {
	Start generic.Date
	End   generic.Date
}

func (i UnpaidLeaveInterval) Period() generic.Period {
	return generic.Period{Start: i.Start, End: i.End}
}

// =============================================================================
// BONUS
// =============================================================================

// Bonus is a one-off amount granted to an employee for an effective window.
// Bonuses are never modified after the grant.
type Bonus struct {
	ID         BonusID
	EmployeeID EmployeeID
	Amount     decimal.Decimal
	StartDate  generic.Date
	EndDate    generic.Date
	GrantedBy  string
	GrantedAt  time.Time
}

// Period returns the effective window of the bonus.
func (b Bonus) Period() generic.Period {
	return generic.Period{Start: b.StartDate, End: b.EndDate}
}

// ActiveIn reports whether the bonus window overlaps p.
func (b Bonus) ActiveIn(p generic.Period) bool {
	return b.Period().Overlaps(p)
}

// =============================================================================
// PAYSLIP
// =============================================================================

// Payslip is the immutable result of one generation for (EmployeeID, PayPeriod).
//
// BaseSalary, TaxPercentage and Designation are snapshots of the salary rule
// at generation time and are never re-derived.
type Payslip struct {
	ID         PayslipID
	EmployeeID EmployeeID
	PayPeriod  generic.PayPeriod

	// Snapshot
	Designation   string
	BaseSalary    decimal.Decimal
	TaxPercentage decimal.Decimal

	// Computed
	TotalBonuses         decimal.Decimal
	UnpaidLeaveDays      int
	UnpaidLeaveDeduction decimal.Decimal
	TaxAmount            decimal.Decimal
	NetSalary            decimal.Decimal

	// Metadata
	GeneratedAt time.Time
	GeneratedBy string
}

// Key returns the uniqueness key of the payslip.
func (p Payslip) Key() PayslipKey {
	return PayslipKey{EmployeeID: p.EmployeeID, PayPeriod: p.PayPeriod}
}

// PayslipKey is the composite key at most one payslip may hold.
type PayslipKey struct {
	EmployeeID EmployeeID
	PayPeriod  generic.PayPeriod
}

func (k PayslipKey) String() string {
	return string(k.EmployeeID) + "@" + k.PayPeriod.String()
}
