/*
generate.go - Payslip generation orchestrator

STATE MACHINE:
  Requested -> RulesFetched -> LeaveFetched -> Computed -> Committed -> NotifiedAndAudited

  Requested:     input validated, existing payslip -> DuplicatePeriod
  RulesFetched:  SalaryRuleLookup (critical)       -> DependencyUnavailable{salary-rules}
  LeaveFetched:  UnpaidLeaveLookup (critical)      -> DependencyUnavailable{unpaid-leave}
  Computed:      active bonuses + Calculate
  Committed:     Store.TryInsert                   -> DuplicatePeriod on a lost race
  Notified...:   notification + audit via the Dispatcher, outcome ignored

GUARANTEES:
  - Every failure before Committed leaves no trace: nothing stored, no
    notification, no audit.
  - Once Committed, the payslip is returned whatever happens afterwards.
  - A critical lookup is abandoned at its deadline even when the port
    ignores ctx. A late answer is discarded, never committed.
  - All reads happen before the single write. No lock is held across
    upstream calls; uniqueness is the store's job.
*/
package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"go.uber.org/zap"
)

// GenerateRequest identifies the payslip to produce.
type GenerateRequest struct {
	EmployeeID  EmployeeID
	PayPeriod   generic.PayPeriod
	RequestedBy string
}

func (r GenerateRequest) validate() error {
	if r.EmployeeID == "" {
		return invalid("employeeId", "must not be empty")
	}
	if r.RequestedBy == "" {
		return invalid("requestedBy", "must not be empty")
	}
	if err := r.PayPeriod.Validate(); err != nil {
		return invalid("payPeriod", "%v", err)
	}
	return nil
}

// GeneratePayslip computes and commits the payslip for one employee and
// pay period. See the file header for the error contract.
func (s *Service) GeneratePayslip(ctx context.Context, req GenerateRequest) (Payslip, error) {
	if err := req.validate(); err != nil {
		return Payslip{}, err
	}

	log := s.logger.Named("generator").With(
		zap.String("employee_id", string(req.EmployeeID)),
		zap.Stringer("pay_period", req.PayPeriod),
	)

	// Requested
	_, exists, err := s.store.FindByEmployeePeriod(ctx, req.EmployeeID, req.PayPeriod)
	if err != nil {
		return Payslip{}, fmt.Errorf("checking existing payslip: %w", err)
	}
	if exists {
		log.Info("payslip already exists", zap.String("stage", "requested"))
		return Payslip{}, &DuplicatePeriodError{EmployeeID: req.EmployeeID, PayPeriod: req.PayPeriod}
	}

	// RulesFetched
	rule, err := s.fetchSalaryRule(ctx, req.EmployeeID)
	if err != nil {
		log.Warn("critical dependency failed", zap.String("stage", "rules"), zap.Error(err))
		return Payslip{}, err
	}

	// LeaveFetched
	period := req.PayPeriod.Period()
	intervals, err := s.fetchUnpaidLeave(ctx, req.EmployeeID, period)
	if err != nil {
		log.Warn("critical dependency failed", zap.String("stage", "leave"), zap.Error(err))
		return Payslip{}, err
	}
	if s.config.MergeOverlappingLeave {
		intervals = MergeLeaveIntervals(intervals)
	}
	unpaidDays := UnpaidLeaveDays(intervals, period)

	// Computed
	bonuses, err := s.store.ListActiveBonuses(ctx, req.EmployeeID, period)
	if err != nil {
		return Payslip{}, fmt.Errorf("listing active bonuses: %w", err)
	}
	amounts := make([]decimal.Decimal, 0, len(bonuses))
	for _, b := range bonuses {
		amounts = append(amounts, b.Amount)
	}
	breakdown := Calculate(CalculationInput{
		BaseSalary:      rule.BaseSalary,
		TaxPercentage:   rule.TaxPercentage,
		BonusAmounts:    amounts,
		UnpaidLeaveDays: unpaidDays,
	})

	payslip := Payslip{
		ID:                   PayslipID(s.newID()),
		EmployeeID:           req.EmployeeID,
		PayPeriod:            req.PayPeriod,
		Designation:          rule.Designation,
		BaseSalary:           rule.BaseSalary,
		TaxPercentage:        rule.TaxPercentage,
		TotalBonuses:         breakdown.TotalBonuses,
		UnpaidLeaveDays:      breakdown.UnpaidLeaveDays,
		UnpaidLeaveDeduction: breakdown.UnpaidLeaveDeduction,
		TaxAmount:            breakdown.TaxAmount,
		NetSalary:            breakdown.NetSalary,
		GeneratedAt:          s.now().UTC(),
		GeneratedBy:          req.RequestedBy,
	}

	// Committed
	stored, err := s.store.TryInsert(ctx, payslip)
	if err != nil {
		if errors.Is(err, ErrDuplicatePeriod) {
			log.Info("lost insert race", zap.String("stage", "commit"))
			return Payslip{}, &DuplicatePeriodError{EmployeeID: req.EmployeeID, PayPeriod: req.PayPeriod}
		}
		return Payslip{}, fmt.Errorf("storing payslip: %w", err)
	}
	log.Info("payslip generated",
		zap.String("stage", "commit"),
		zap.String("payslip_id", string(stored.ID)),
		zap.String("net_salary", generic.FormatMoney(stored.NetSalary)),
		zap.Int("unpaid_leave_days", unpaidDays),
		zap.Int("active_bonuses", len(bonuses)),
	)

	// NotifiedAndAudited
	s.announce(ctx, stored)
	return stored, nil
}

// fetchSalaryRule runs the critical rule lookup under its own timeout and
// rejects rules no payslip can be computed from.
func (s *Service) fetchSalaryRule(ctx context.Context, employeeID EmployeeID) (SalaryRule, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.config.CriticalTimeout)
	defer cancel()

	rule, err := callWithin(callCtx, func(ctx context.Context) (SalaryRule, error) {
		return s.rules.GetSalaryRule(ctx, employeeID)
	})
	if err != nil {
		return SalaryRule{}, &DependencyError{Dependency: DependencySalaryRules, Err: err}
	}
	if err := validateSalaryRule(rule); err != nil {
		return SalaryRule{}, &DependencyError{Dependency: DependencySalaryRules, Err: err}
	}
	return rule, nil
}

func (s *Service) fetchUnpaidLeave(ctx context.Context, employeeID EmployeeID, period generic.Period) ([]UnpaidLeaveInterval, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.config.CriticalTimeout)
	defer cancel()

	intervals, err := callWithin(callCtx, func(ctx context.Context) ([]UnpaidLeaveInterval, error) {
		return s.leave.GetApprovedUnpaidLeave(ctx, employeeID, period.Start, period.End)
	})
	if err != nil {
		return nil, &DependencyError{Dependency: DependencyUnpaidLeave, Err: err}
	}
	if err := validateLeaveIntervals(intervals); err != nil {
		return nil, &DependencyError{Dependency: DependencyUnpaidLeave, Err: err}
	}
	return intervals, nil
}

// callWithin stops waiting for call once ctx is done, whether or not call
// watches ctx. An answer that arrives after the deadline is discarded.
// A call that ignores ctx finishes on its own goroutine.
func callWithin[T any](ctx context.Context, call func(context.Context) (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		v, err := call(ctx)
		done <- result{value: v, err: err}
	}()

	var zero T
	select {
	case r := <-done:
		if r.err != nil {
			return zero, r.err
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return r.value, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func validateSalaryRule(rule SalaryRule) error {
	if rule.BaseSalary.IsNegative() {
		return fmt.Errorf("%w: negative base salary %s", ErrMalformedResponse, rule.BaseSalary)
	}
	if !rule.BaseSalary.Equal(generic.RoundMoney(rule.BaseSalary)) {
		return fmt.Errorf("%w: base salary %s has more than %d decimal places", ErrMalformedResponse, rule.BaseSalary, generic.MoneyScale)
	}
	if rule.TaxPercentage.IsNegative() || rule.TaxPercentage.GreaterThan(hundred) {
		return fmt.Errorf("%w: tax percentage %s outside 0-100", ErrMalformedResponse, rule.TaxPercentage)
	}
	// stored as NUMERIC(5,2)
	if !rule.TaxPercentage.Equal(rule.TaxPercentage.Round(TaxPercentageScale)) {
		return fmt.Errorf("%w: tax percentage %s has more than %d decimal places", ErrMalformedResponse, rule.TaxPercentage, TaxPercentageScale)
	}
	return nil
}

// announce hands notification and audit to the dispatcher. Nothing it does
// can change the outcome of the generation.
func (s *Service) announce(ctx context.Context, p Payslip) {
	notification := PayrollNotification{
		EmployeeID: p.EmployeeID,
		PayslipID:  p.ID,
		PayPeriod:  p.PayPeriod,
	}
	s.dispatcher.Go(ctx, "payroll-notification", func(ctx context.Context) error {
		return s.notifier.SendPayrollNotification(ctx, notification)
	})

	entry := AuditEntry{
		Action:      AuditPayrollGenerated,
		ServiceName: ServiceName,
		PerformedBy: p.GeneratedBy,
		TargetID:    string(p.ID),
		Description: fmt.Sprintf("Generated payslip for employee %s for period %s", p.EmployeeID, p.PayPeriod),
		NewValues: map[string]any{
			"employeeId": string(p.EmployeeID),
			"payPeriod":  p.PayPeriod.String(),
			"netSalary":  generic.FormatMoney(p.NetSalary),
		},
	}
	s.dispatcher.Go(ctx, "payroll-audit", func(ctx context.Context) error {
		return s.auditor.WriteAuditEntry(ctx, entry)
	})
}
