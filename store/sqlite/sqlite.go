/*
Package sqlite provides a SQLite-backed implementation of payroll.Store.

PURPOSE:
  Default persistent backend. The same schema is mirrored for PostgreSQL in
  store/postgres with dialect differences only.

WRITE-ONCE ENFORCEMENT:
  - No UPDATE statements on payslips or bonuses
  - No DELETE statements on payslips or bonuses
  - Bonus corrections are new grants

KEY TABLES:
  payslips: One row per (employee_id, pay_period), immutable
  bonuses:  Bonus grants with an inclusive effective window

INDEXES:
  - idx_payslips_employee_period: UNIQUE, the idempotency guarantee
  - idx_payslips_period:          Period listings
  - idx_bonuses_employee_window:  Active-bonus lookup (hot path)

ENCODING:
  Money is TEXT with exactly two decimals ("2610.00"), dates are
  "YYYY-MM-DD", pay periods "YYYY-MM", timestamps UTC with nine fraction
  digits. All four sort correctly as text.

CONCURRENCY:
  No Go-side lock. The unique index serialises inserts of the same key;
  the loser gets "UNIQUE constraint failed" and sees ErrDuplicatePeriod.
  _busy_timeout makes concurrent writers wait for the file lock instead of
  failing with SQLITE_BUSY.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - payroll/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// timestampLayout is fixed width so granted_at/generated_at order as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements payroll.Store using SQLite.
type Store struct {
	db *sql.DB
}

var _ payroll.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Payslips (write-once)
	CREATE TABLE IF NOT EXISTS payslips (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		pay_period TEXT NOT NULL,
		designation TEXT NOT NULL,
		base_salary TEXT NOT NULL,
		tax_percentage TEXT NOT NULL,
		total_bonuses TEXT NOT NULL,
		unpaid_leave_days INTEGER NOT NULL,
		unpaid_leave_deduction TEXT NOT NULL,
		tax_amount TEXT NOT NULL,
		net_salary TEXT NOT NULL,
		generated_at TEXT NOT NULL,
		generated_by TEXT NOT NULL
	);

	-- CRITICAL: at most one payslip per employee and pay period
	CREATE UNIQUE INDEX IF NOT EXISTS idx_payslips_employee_period
		ON payslips(employee_id, pay_period);

	CREATE INDEX IF NOT EXISTS idx_payslips_period
		ON payslips(pay_period, employee_id);

	-- Bonuses (write-once)
	CREATE TABLE IF NOT EXISTS bonuses (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		granted_by TEXT NOT NULL,
		granted_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bonuses_employee_window
		ON bonuses(employee_id, start_date, end_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PAYSLIP STORE
// =============================================================================

const payslipColumns = `id, employee_id, pay_period, designation, base_salary, tax_percentage,
	total_bonuses, unpaid_leave_days, unpaid_leave_deduction, tax_amount, net_salary,
	generated_at, generated_by`

// TryInsert stores p, or reports ErrDuplicatePeriod when the unique index
// already holds its key.
func (s *Store) TryInsert(ctx context.Context, p payroll.Payslip) (payroll.Payslip, error) {
	query := `INSERT INTO payslips (` + payslipColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
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
		p.GeneratedAt.UTC().Format(timestampLayout),
		p.GeneratedBy,
	)
	if err != nil {
		if isUniqueConstraintError(err) && strings.Contains(err.Error(), "employee_id") {
			return payroll.Payslip{}, &payroll.DuplicatePeriodError{EmployeeID: p.EmployeeID, PayPeriod: p.PayPeriod}
		}
		return payroll.Payslip{}, fmt.Errorf("failed to insert payslip: %w", err)
	}
	return p, nil
}

func (s *Store) FindByEmployeePeriod(ctx context.Context, employeeID payroll.EmployeeID, period generic.PayPeriod) (payroll.Payslip, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+payslipColumns+` FROM payslips WHERE employee_id = ? AND pay_period = ?`,
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
	row := s.db.QueryRowContext(ctx, `SELECT `+payslipColumns+` FROM payslips WHERE id = ?`, string(id))
	p, err := scanPayslip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.Payslip{}, payroll.ErrPayslipNotFound
	}
	return p, err
}

func (s *Store) ListPayslipsByEmployee(ctx context.Context, employeeID payroll.EmployeeID) ([]payroll.Payslip, error) {
	return s.queryPayslips(ctx,
		`SELECT `+payslipColumns+` FROM payslips WHERE employee_id = ? ORDER BY pay_period DESC`,
		string(employeeID))
}

func (s *Store) ListPayslipsByPeriod(ctx context.Context, period generic.PayPeriod) ([]payroll.Payslip, error) {
	return s.queryPayslips(ctx,
		`SELECT `+payslipColumns+` FROM payslips WHERE pay_period = ? ORDER BY employee_id`,
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
		generatedAt            string
	)
	err := row.Scan(
		&id, &employeeID, &period, &p.Designation,
		&p.BaseSalary, &p.TaxPercentage, &p.TotalBonuses,
		&p.UnpaidLeaveDays, &p.UnpaidLeaveDeduction, &p.TaxAmount, &p.NetSalary,
		&generatedAt, &p.GeneratedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("failed to scan payslip: %w", err)
	}

	p.ID = payroll.PayslipID(id)
	p.EmployeeID = payroll.EmployeeID(employeeID)
	if p.PayPeriod, err = generic.ParsePayPeriod(period); err != nil {
		return p, fmt.Errorf("payslip %s: %w", id, err)
	}
	if p.GeneratedAt, err = time.Parse(timestampLayout, generatedAt); err != nil {
		return p, fmt.Errorf("payslip %s: bad generated_at: %w", id, err)
	}
	return p, nil
}

// =============================================================================
// BONUS STORE
// =============================================================================

const bonusColumns = `id, employee_id, amount, start_date, end_date, granted_by, granted_at`

func (s *Store) InsertBonus(ctx context.Context, b payroll.Bonus) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bonuses (`+bonusColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(b.ID),
		string(b.EmployeeID),
		generic.FormatMoney(b.Amount),
		b.StartDate.String(),
		b.EndDate.String(),
		b.GrantedBy,
		b.GrantedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert bonus: %w", err)
	}
	return nil
}

func (s *Store) GetBonus(ctx context.Context, id payroll.BonusID) (payroll.Bonus, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bonusColumns+` FROM bonuses WHERE id = ?`, string(id))
	b, err := scanBonus(row)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.Bonus{}, payroll.ErrBonusNotFound
	}
	return b, err
}

// ListBonusesByEmployee returns bonuses in grant order.
func (s *Store) ListBonusesByEmployee(ctx context.Context, employeeID payroll.EmployeeID) ([]payroll.Bonus, error) {
	return s.queryBonuses(ctx,
		`SELECT `+bonusColumns+` FROM bonuses WHERE employee_id = ? ORDER BY granted_at, id`,
		string(employeeID))
}

// ListActiveBonuses returns bonuses whose [start_date, end_date] overlaps period.
func (s *Store) ListActiveBonuses(ctx context.Context, employeeID payroll.EmployeeID, period generic.Period) ([]payroll.Bonus, error) {
	return s.queryBonuses(ctx,
		`SELECT `+bonusColumns+` FROM bonuses
		 WHERE employee_id = ? AND start_date <= ? AND end_date >= ?
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
		b                     payroll.Bonus
		id, employeeID        string
		start, end, grantedAt string
	)
	if err := row.Scan(&id, &employeeID, &b.Amount, &start, &end, &b.GrantedBy, &grantedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return b, err
		}
		return b, fmt.Errorf("failed to scan bonus: %w", err)
	}

	var err error
	b.ID = payroll.BonusID(id)
	b.EmployeeID = payroll.EmployeeID(employeeID)
	if b.StartDate, err = generic.ParseDate(start); err != nil {
		return b, fmt.Errorf("bonus %s: %w", id, err)
	}
	if b.EndDate, err = generic.ParseDate(end); err != nil {
		return b, fmt.Errorf("bonus %s: %w", id, err)
	}
	if b.GrantedAt, err = time.Parse(timestampLayout, grantedAt); err != nil {
		return b, fmt.Errorf("bonus %s: bad granted_at: %w", id, err)
	}
	return b, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
