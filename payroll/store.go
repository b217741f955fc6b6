/*
store.go - Persistence contracts for payslips and bonuses

WRITE-ONCE CONTRACT:
  - PayslipStore.TryInsert and BonusStore.InsertBonus are the ONLY writes
  - NO Update() or Delete() methods exist. Payslips are permanent
    financial records; bonuses are corrected by granting new ones.

UNIQUENESS:
  TryInsert must reject a second payslip for the same (employee, period)
  with ErrDuplicatePeriod, atomically with respect to concurrent inserts of
  the same key. Backends enforce this themselves (map key under a mutex,
  UNIQUE INDEX in SQL) so inserts for different keys never wait on each
  other in the orchestrator.

IMPLEMENTATIONS:
  - store/memory:   In-memory, for tests and local runs
  - store/sqlite:   Default persistent backend
  - store/postgres: PostgreSQL via pgx
*/
package payroll

import (
	"context"

	"github.com/warp/payroll-engine/generic"
)

// PayslipStore persists payslips.
type PayslipStore interface {
	// TryInsert persists p. Returns ErrDuplicatePeriod if the key is taken.
	TryInsert(ctx context.Context, p Payslip) (Payslip, error)

	// FindByEmployeePeriod returns the payslip for the key, if any.
	FindByEmployeePeriod(ctx context.Context, employeeID EmployeeID, period generic.PayPeriod) (Payslip, bool, error)

	// GetPayslip returns ErrPayslipNotFound for unknown ids.
	GetPayslip(ctx context.Context, id PayslipID) (Payslip, error)

	// ListPayslipsByEmployee returns the employee's payslips, newest period first.
	ListPayslipsByEmployee(ctx context.Context, employeeID EmployeeID) ([]Payslip, error)

	// ListPayslipsByPeriod returns the period's payslips ordered by employee.
	ListPayslipsByPeriod(ctx context.Context, period generic.PayPeriod) ([]Payslip, error)
}

// BonusStore persists bonus grants.
type BonusStore interface {
	InsertBonus(ctx context.Context, b Bonus) error

	// GetBonus returns ErrBonusNotFound for unknown ids.
	GetBonus(ctx context.Context, id BonusID) (Bonus, error)

	ListBonusesByEmployee(ctx context.Context, employeeID EmployeeID) ([]Bonus, error)

	// ListActiveBonuses returns bonuses whose window overlaps period.
	ListActiveBonuses(ctx context.Context, employeeID EmployeeID, period generic.Period) ([]Bonus, error)
}

// Store is the full persistence surface used by Service.
type Store interface {
	PayslipStore
	BonusStore
}
