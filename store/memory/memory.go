// Package memory provides an in-memory payroll.Store for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Store keeps payslips and bonuses in maps guarded by one RWMutex. The
// (employee, period) map key is the uniqueness constraint.
type Store struct {
	mu       sync.RWMutex
	payslips map[payroll.PayslipID]payroll.Payslip
	byKey    map[payroll.PayslipKey]payroll.PayslipID
	bonuses  map[payroll.BonusID]payroll.Bonus
	// insertion order per employee
	bonusesByEmployee map[payroll.EmployeeID][]payroll.BonusID
}

var _ payroll.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		payslips:          make(map[payroll.PayslipID]payroll.Payslip),
		byKey:             make(map[payroll.PayslipKey]payroll.PayslipID),
		bonuses:           make(map[payroll.BonusID]payroll.Bonus),
		bonusesByEmployee: make(map[payroll.EmployeeID][]payroll.BonusID),
	}
}

// =============================================================================
// PAYSLIPS
// =============================================================================

// TryInsert adds p unless its key or id is taken. Check and write happen
// under the same lock.
func (s *Store) TryInsert(_ context.Context, p payroll.Payslip) (payroll.Payslip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := p.Key()
	if _, taken := s.byKey[key]; taken {
		return payroll.Payslip{}, &payroll.DuplicatePeriodError{EmployeeID: p.EmployeeID, PayPeriod: p.PayPeriod}
	}
	if _, taken := s.payslips[p.ID]; taken {
		return payroll.Payslip{}, fmt.Errorf("payslip id %s already used", p.ID)
	}
	s.payslips[p.ID] = p
	s.byKey[key] = p.ID
	return p, nil
}

func (s *Store) FindByEmployeePeriod(_ context.Context, employeeID payroll.EmployeeID, period generic.PayPeriod) (payroll.Payslip, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byKey[payroll.PayslipKey{EmployeeID: employeeID, PayPeriod: period}]
	if !ok {
		return payroll.Payslip{}, false, nil
	}
	return s.payslips[id], true, nil
}

func (s *Store) GetPayslip(_ context.Context, id payroll.PayslipID) (payroll.Payslip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payslips[id]
	if !ok {
		return payroll.Payslip{}, payroll.ErrPayslipNotFound
	}
	return p, nil
}

func (s *Store) ListPayslipsByEmployee(_ context.Context, employeeID payroll.EmployeeID) ([]payroll.Payslip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []payroll.Payslip
	for _, p := range s.payslips {
		if p.EmployeeID == employeeID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PayPeriod.String() > result[j].PayPeriod.String()
	})
	return result, nil
}

func (s *Store) ListPayslipsByPeriod(_ context.Context, period generic.PayPeriod) ([]payroll.Payslip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []payroll.Payslip
	for _, p := range s.payslips {
		if p.PayPeriod == period {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return strings.Compare(string(result[i].EmployeeID), string(result[j].EmployeeID)) < 0
	})
	return result, nil
}

// Len returns the number of stored payslips.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.payslips)
}

// =============================================================================
// BONUSES
// =============================================================================

func (s *Store) InsertBonus(_ context.Context, b payroll.Bonus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.bonuses[b.ID]; taken {
		return fmt.Errorf("bonus id %s already used", b.ID)
	}
	s.bonuses[b.ID] = b
	s.bonusesByEmployee[b.EmployeeID] = append(s.bonusesByEmployee[b.EmployeeID], b.ID)
	return nil
}

func (s *Store) GetBonus(_ context.Context, id payroll.BonusID) (payroll.Bonus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bonuses[id]
	if !ok {
		return payroll.Bonus{}, payroll.ErrBonusNotFound
	}
	return b, nil
}

// ListBonusesByEmployee returns bonuses in grant order.
func (s *Store) ListBonusesByEmployee(_ context.Context, employeeID payroll.EmployeeID) ([]payroll.Bonus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.bonusesByEmployee[employeeID]
	result := make([]payroll.Bonus, 0, len(ids))
	for _, id := range ids {
		result = append(result, s.bonuses[id])
	}
	return result, nil
}

func (s *Store) ListActiveBonuses(_ context.Context, employeeID payroll.EmployeeID, period generic.Period) ([]payroll.Bonus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []payroll.Bonus
	for _, id := range s.bonusesByEmployee[employeeID] {
		if b := s.bonuses[id]; b.ActiveIn(period) {
			result = append(result, b)
		}
	}
	return result, nil
}
