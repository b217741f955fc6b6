package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/memory"
	"golang.org/x/sync/errgroup"
)

func payslip(id, employee string, year int, month time.Month) payroll.Payslip {
	return payroll.Payslip{
		ID:         payroll.PayslipID(id),
		EmployeeID: payroll.EmployeeID(employee),
		PayPeriod:  generic.NewPayPeriod(year, month),
		BaseSalary: generic.MustParseDecimal("3000.00"),
		NetSalary:  generic.MustParseDecimal("2700.00"),
	}
}

func TestMemory_TryInsertRejectsDuplicateKey(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	_, err := s.TryInsert(ctx, payslip("a", "emp-1", 2024, time.February))
	require.NoError(t, err)

	_, err = s.TryInsert(ctx, payslip("b", "emp-1", 2024, time.February))
	assert.ErrorIs(t, err, payroll.ErrDuplicatePeriod)
	assert.Equal(t, 1, s.Len())

	found, ok, err := s.FindByEmployeePeriod(ctx, "emp-1", generic.NewPayPeriod(2024, time.February))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, payroll.PayslipID("a"), found.ID)
}

func TestMemory_ConcurrentInsertsSameKey(t *testing.T) {
	s := memory.New()
	var g errgroup.Group
	results := make([]error, 20)
	for i := range results {
		i := i
		g.Go(func() error {
			_, results[i] = s.TryInsert(context.Background(), payslip(string(rune('a'+i)), "emp-1", 2024, time.March))
			return nil
		})
	}
	require.NoError(t, g.Wait())

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, payroll.ErrDuplicatePeriod)
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, s.Len())
}

func TestMemory_ListOrdering(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	for _, p := range []payroll.Payslip{
		payslip("1", "emp-b", 2024, time.January),
		payslip("2", "emp-a", 2024, time.January),
		payslip("3", "emp-a", 2024, time.March),
		payslip("4", "emp-a", 2023, time.December),
	} {
		_, err := s.TryInsert(ctx, p)
		require.NoError(t, err)
	}

	byEmployee, err := s.ListPayslipsByEmployee(ctx, "emp-a")
	require.NoError(t, err)
	require.Len(t, byEmployee, 3)
	assert.Equal(t, "2024-03", byEmployee[0].PayPeriod.String())
	assert.Equal(t, "2024-01", byEmployee[1].PayPeriod.String())
	assert.Equal(t, "2023-12", byEmployee[2].PayPeriod.String())

	byPeriod, err := s.ListPayslipsByPeriod(ctx, generic.NewPayPeriod(2024, time.January))
	require.NoError(t, err)
	require.Len(t, byPeriod, 2)
	assert.Equal(t, payroll.EmployeeID("emp-a"), byPeriod[0].EmployeeID)
	assert.Equal(t, payroll.EmployeeID("emp-b"), byPeriod[1].EmployeeID)
}

func TestMemory_GetUnknown(t *testing.T) {
	s := memory.New()

	_, err := s.GetPayslip(context.Background(), "nope")
	assert.ErrorIs(t, err, payroll.ErrNotFound)

	_, err = s.GetBonus(context.Background(), "nope")
	assert.ErrorIs(t, err, payroll.ErrBonusNotFound)
}

func TestMemory_ListActiveBonuses(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	bonus := func(id string, start, end generic.Date) payroll.Bonus {
		return payroll.Bonus{ID: payroll.BonusID(id), EmployeeID: "emp-1", Amount: generic.MustParseDecimal("10"), StartDate: start, EndDate: end}
	}
	require.NoError(t, s.InsertBonus(ctx, bonus("jan", generic.NewDate(2024, 1, 1), generic.NewDate(2024, 1, 31))))
	require.NoError(t, s.InsertBonus(ctx, bonus("spans", generic.NewDate(2024, 1, 20), generic.NewDate(2024, 2, 5))))
	require.NoError(t, s.InsertBonus(ctx, bonus("mar", generic.NewDate(2024, 3, 1), generic.NewDate(2024, 3, 1))))

	active, err := s.ListActiveBonuses(ctx, "emp-1", generic.NewPayPeriod(2024, time.February).Period())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, payroll.BonusID("spans"), active[0].ID)

	all, err := s.ListBonusesByEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
