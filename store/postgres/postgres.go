/*
Package postgres provides a PostgreSQL-backed implementation of payroll.Store.

PURPOSE:
  Production backend for multi-instance deployments. Same tables and
  indexes as store/sqlite; money is NUMERIC(12,2) and dates are DATE.

DRIVER:
  database/sql over the pgx stdlib driver ("pgx"). Going through
  database/sql keeps the store testable with go-sqlmock.

UNIQUENESS:
  idx_payslips_employee_period is UNIQUE. A concurrent second insert fails
  with SQLSTATE 23505 and is reported as ErrDuplicatePeriod.

USAGE:
  store, err := postgres.Open(ctx, os.Getenv("DATABASE_URL"))
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
*/
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

const uniqueViolation = "23505"

// PayslipKeyConstraint is the index guarding (employee_id, pay_period).
const PayslipKeyConstraint = "idx_payslips_employee_period"

// Store implements payroll.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ payroll.Store = (*Store)(nil)

// Open connects to dsn, verifies the connection and migrates the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := New(db)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// New wraps an open database. The schema is not touched.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Schema is applied by Migrate.
const Schema = `
CREATE TABLE IF NOT EXISTS payslips (
	id TEXT PRIMARY KEY,
	employee_id TEXT NOT NULL,
	pay_period CHAR(7) NOT NULL,
	designation TEXT NOT NULL,
	base_salary NUMERIC(12,2) NOT NULL CHECK (base_salary >= 0),
	tax_percentage NUMERIC(5,2) NOT NULL CHECK (tax_percentage BETWEEN 0 AND 100),
	total_bonuses NUMERIC(12,2) NOT NULL CHECK (total_bonuses >= 0),
	unpaid_leave_days INTEGER NOT NULL CHECK (unpaid_leave_days >= 0),
	unpaid_leave_deduction NUMERIC(12,2) NOT NULL CHECK (unpaid_leave_deduction >= 0),
	tax_amount NUMERIC(12,2) NOT NULL CHECK (tax_amount >= 0),
	net_salary NUMERIC(12,2) NOT NULL CHECK (net_salary >= 0),
	generated_at TIMESTAMPTZ NOT NULL,
	generated_by TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_payslips_employee_period
	ON payslips(employee_id, pay_period);

CREATE INDEX IF NOT EXISTS idx_payslips_period
	ON payslips(pay_period, employee_id);

CREATE TABLE IF NOT EXISTS bonuses (
	id TEXT PRIMARY KEY,
	employee_id TEXT NOT NULL,
	amount NUMERIC(12,2) NOT NULL CHECK (amount >= 0),
	start_date DATE NOT NULL,
	end_date DATE NOT NULL CHECK (end_date >= start_date),
	granted_by TEXT NOT NULL,
	granted_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bonuses_employee_window
	ON bonuses(employee_id, start_date, end_date);
`

// Migrate creates the tables and indexes if missing.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, Schema)
	return err
}

// =============================================================================
// PAYSLIP STORE
// =============================================================================

const payslipColumns = `id, employee_id, pay_period, designation, base_salary, tax_percentage,
	total_bonuses, unpaid_leave_days, unpaid_leave_deduction, tax_amount, net_salary,
	generated_at, generated_by`

func (s *Store) TryInsert(ctx context.Context, p payroll.Payslip) (payroll.Payslip, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payslips (`+payslipColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		string(p.ID),
		string(p.EmployeeID),
		p.PayPeriod.String(),
		p.Designation,
		generic.FormatMoney(p.BaseSalary),
		p.TaxPercentage.String(),
		generic.FormatMoney(p.TotalBonuses),
		p.UnpaidLeaveDays,
		generic.FormatMoney(p.UnpaidLeaveDeduction),
		generic.FormatMoney(p.TaxAmount),
		generic.FormatMoney(p.NetSalary),
		p.GeneratedAt.UTC(),
		p.GeneratedBy,
	)
	if err != nil {
		if isUniqueViolation(err, PayslipKeyConstraint) {
			return payroll.Payslip{}, &payroll.DuplicatePeriodError{EmployeeID: p.EmployeeID, PayPeriod: p.PayPeriod}
		}
		return payroll.Payslip{}, fmt.Errorf("failed to insert payslip: %w", err)
	}
	return p, nil
}

func (s *Store) FindByEmployeePeriod(ctx context.Context, employeeID payroll.EmployeeID, period generic.PayPeriod) (payroll.Payslip, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+payslipColumns+` FROM payslips WHERE employee_id = $1 AND pay_period = $2`,
		string(employeeID), period.String())
	p, err := scanPayslip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.Payslip{}, false, nil
	}
	if err != nil {
		return payroll.Payslip{}, false, err
	}
	return p, true, nil
}

func (s *Store) GetPayslip(ctx context.Context, id payroll.PayslipID) (payroll.Payslip, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+payslipColumns+` FROM payslips WHERE id = $1`, string(id))
	p, err := scanPayslip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.Payslip{}, payroll.ErrPayslipNotFound
	}
	return p, err
}

func (s *Store) ListPayslipsByEmployee(ctx context.Context, employeeID payroll.EmployeeID) ([]payroll.Payslip, error) {
	return s.queryPayslips(ctx,
		`SELECT `+payslipColumns+` FROM payslips WHERE employee_id = $1 ORDER BY pay_period DESC`,
		string(employeeID))
}

func (s *Store) ListPayslipsByPeriod(ctx context.Context, period generic.PayPeriod) ([]payroll.Payslip, error) {
	return s.queryPayslips(ctx,
		`SELECT `+payslipColumns+` FROM payslips WHERE pay_period = $1 ORDER BY employee_id`,
		period.String())
}

func (s *Store) queryPayslips(ctx context.Context, query string, args ...any) ([]payroll.Payslip, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payslips: %w", err)
	}
	defer rows.Close()

	var result []payroll.Payslip
	for rows.Next() {
		p, err := scanPayslip(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPayslip(row scanner) (payroll.Payslip, error) {
	var (
		p                      payroll.Payslip
		id, employeeID, period string
	)
	err := row.Scan(
		&id, &employeeID, &period, &p.Designation,
		&p.BaseSalary, &p.TaxPercentage, &p.TotalBonuses,
		&p.UnpaidLeaveDays, &p.UnpaidLeaveDeduction, &p.TaxAmount, &p.NetSalary,
		&p.GeneratedAt, &p.GeneratedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("failed to scan payslip: %w", err)
	}

	p.ID = payroll.PayslipID(id)
	p.EmployeeID = payroll.EmployeeID(employeeID)
	p.GeneratedAt = p.GeneratedAt.UTC()
	if p.PayPeriod, err = generic.ParsePayPeriod(period); err != nil {
		return p, fmt.Errorf("payslip %s: %w", id, err)
	}
	return p, nil
}

// =============================================================================
// BONUS STORE
// =============================================================================

const bonusColumns = `id, employee_id, amount, start_date, end_date, granted_by, granted_at`

func (s *Store) InsertBonus(ctx context.Context, b payroll.Bonus) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bonuses (`+bonusColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(b.ID),
		string(b.EmployeeID),
		generic.FormatMoney(b.Amount),
		b.StartDate.String(),
		b.EndDate.String(),
		b.GrantedBy,
		b.GrantedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert bonus: %w", err)
	}
	return nil
}

func (s *Store) GetBonus(ctx context.Context, id payroll.BonusID) (payroll.Bonus, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bonusColumns+` FROM bonuses WHERE id = $1`, string(id))
	b, err := scanBonus(row)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.Bonus{}, payroll.ErrBonusNotFound
	}
	return b, err
}

func (s *Store) ListBonusesByEmployee(ctx context.Context, employeeID payroll.EmployeeID) ([]payroll.Bonus, error) {
	return s.queryBonuses(ctx,
		`SELECT `+bonusColumns+` FROM bonuses WHERE employee_id = $1 ORDER BY granted_at, id`,
		string(employeeID))
}

func (s *Store) ListActiveBonuses(ctx context.Context, employeeID payroll.EmployeeID, period generic.Period) ([]payroll.Bonus, error) {
	return s.queryBonuses(ctx,
		`SELECT `+bonusColumns+` FROM bonuses
		 WHERE employee_id = $1 AND start_date <= $2 AND end_date >= $3
		 ORDER BY granted_at, id`,
		string(employeeID), period.End.String(), period.Start.String())
}

func (s *Store) queryBonuses(ctx context.Context, query string, args ...any) ([]payroll.Bonus, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bonuses: %w", err)
	}
	defer rows.Close()

	var result []payroll.Bonus
	for rows.Next() {
		b, err := scanBonus(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func scanBonus(row scanner) (payroll.Bonus, error) {
	var (
		b              payroll.Bonus
		id, employeeID string
		start, end     time.Time
	)
	if err := row.Scan(&id, &employeeID, &b.Amount, &start, &end, &b.GrantedBy, &b.GrantedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return b, err
		}
		return b, fmt.Errorf("failed to scan bonus: %w", err)
	}
	b.ID = payroll.BonusID(id)
	b.EmployeeID = payroll.EmployeeID(employeeID)
	b.StartDate = generic.DateOf(start)
	b.EndDate = generic.DateOf(end)
	b.GrantedAt = b.GrantedAt.UTC()
	return b, nil
}

// isUniqueViolation reports a 23505 on the named constraint. An empty
// constraint matches any unique violation.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
