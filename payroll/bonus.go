package payroll

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"go.uber.org/zap"
)

// GrantBonusRequest describes a new bonus grant.
type GrantBonusRequest struct {
	EmployeeID EmployeeID
	Amount     decimal.Decimal
	StartDate  generic.Date
	EndDate    generic.Date
	GrantedBy  string
}

func (r GrantBonusRequest) validate() error {
	switch {
	case r.EmployeeID == "":
		return invalid("employeeId", "must not be empty")
	case r.GrantedBy == "":
		return invalid("grantedBy", "must not be empty")
	case r.Amount.IsNegative():
		return invalid("amount", "must not be negative")
	case !r.Amount.Equal(generic.RoundMoney(r.Amount)):
		return invalid("amount", "must have at most %d decimal places", generic.MoneyScale)
	case r.StartDate.IsZero() || r.EndDate.IsZero():
		return invalid("period", "start and end dates are required")
	case r.StartDate.After(r.EndDate):
		return invalid("period", "start date %s is after end date %s", r.StartDate, r.EndDate)
	}
	return nil
}

// GrantBonus records a bonus. Bonuses are immutable once granted; a wrong
// grant is offset by another one. The BONUS_GRANTED audit is best-effort.
func (s *Service) GrantBonus(ctx context.Context, req GrantBonusRequest) (Bonus, error) {
	if err := req.validate(); err != nil {
		return Bonus{}, err
	}

	bonus := Bonus{
		ID:         BonusID(s.newID()),
		EmployeeID: req.EmployeeID,
		Amount:     req.Amount,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		GrantedBy:  req.GrantedBy,
		GrantedAt:  s.now().UTC(),
	}
	if err := s.store.InsertBonus(ctx, bonus); err != nil {
		return Bonus{}, fmt.Errorf("storing bonus: %w", err)
	}

	s.logger.Info("bonus granted",
		zap.String("bonus_id", string(bonus.ID)),
		zap.String("employee_id", string(bonus.EmployeeID)),
		zap.String("amount", generic.FormatMoney(bonus.Amount)),
	)

	entry := AuditEntry{
		Action:      AuditBonusGranted,
		ServiceName: ServiceName,
		PerformedBy: bonus.GrantedBy,
		TargetID:    string(bonus.ID),
		Description: fmt.Sprintf("Granted bonus of %s to employee %s", generic.FormatMoney(bonus.Amount), bonus.EmployeeID),
		NewValues: map[string]any{
			"employeeId": string(bonus.EmployeeID),
			"amount":     generic.FormatMoney(bonus.Amount),
			"startDate":  bonus.StartDate.String(),
			"endDate":    bonus.EndDate.String(),
		},
	}
	s.dispatcher.Go(ctx, "bonus-audit", func(ctx context.Context) error {
		return s.auditor.WriteAuditEntry(ctx, entry)
	})
	return bonus, nil
}

func (s *Service) GetBonus(ctx context.Context, id BonusID) (Bonus, error) {
	if id == "" {
		return Bonus{}, invalid("id", "must not be empty")
	}
	return s.store.GetBonus(ctx, id)
}

func (s *Service) ListBonusesByEmployee(ctx context.Context, employeeID EmployeeID) ([]Bonus, error) {
	if employeeID == "" {
		return nil, invalid("employeeId", "must not be empty")
	}
	return s.store.ListBonusesByEmployee(ctx, employeeID)
}
