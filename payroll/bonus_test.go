package payroll_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/memory"
)

func TestGrantBonus_PersistsAndAudits(t *testing.T) {
	deps := newFakeDeps()
	svc := newTestService(memory.New(), deps, payroll.WithIDGenerator(func() string { return "bonus-1" }))

	b := grantBonus(t, svc, "150.50", "2024-02-01", "2024-04-30")

	assert.Equal(t, payroll.BonusID("bonus-1"), b.ID)
	assert.Equal(t, fixedNow, b.GrantedAt)

	got, err := svc.GetBonus(context.Background(), "bonus-1")
	require.NoError(t, err)
	assert.Equal(t, b, got)

	require.Len(t, deps.audits, 1)
	assert.Equal(t, payroll.AuditBonusGranted, deps.audits[0].Action)
	assert.Equal(t, "bonus-1", deps.audits[0].TargetID)
	assert.Equal(t, "150.50", deps.audits[0].NewValues["amount"])
}

func TestGrantBonus_Validation(t *testing.T) {
	feb1 := generic.NewDate(2024, time.February, 1)
	feb29 := generic.NewDate(2024, time.February, 29)

	tests := []struct {
		name  string
		req   payroll.GrantBonusRequest
		field string
	}{
		{"missing employee", payroll.GrantBonusRequest{Amount: dec("1"), StartDate: feb1, EndDate: feb29, GrantedBy: "hr"}, "employeeId"},
		{"missing granter", payroll.GrantBonusRequest{EmployeeID: "e", Amount: dec("1"), StartDate: feb1, EndDate: feb29}, "grantedBy"},
		{"negative amount", payroll.GrantBonusRequest{EmployeeID: "e", Amount: dec("-1"), StartDate: feb1, EndDate: feb29, GrantedBy: "hr"}, "amount"},
		{"sub-cent amount", payroll.GrantBonusRequest{EmployeeID: "e", Amount: dec("1.005"), StartDate: feb1, EndDate: feb29, GrantedBy: "hr"}, "amount"},
		{"start after end", payroll.GrantBonusRequest{EmployeeID: "e", Amount: dec("1"), StartDate: feb29, EndDate: feb1, GrantedBy: "hr"}, "period"},
		{"missing dates", payroll.GrantBonusRequest{EmployeeID: "e", Amount: dec("1"), GrantedBy: "hr"}, "period"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newFakeDeps()
			store := memory.New()
			svc := newTestService(store, deps)

			_, err := svc.GrantBonus(context.Background(), tt.req)

			var vErr *payroll.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.Empty(t, deps.audits)

			all, err := store.ListBonusesByEmployee(context.Background(), "e")
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestGetBonus_NotFound(t *testing.T) {
	svc := newTestService(memory.New(), newFakeDeps())

	_, err := svc.GetBonus(context.Background(), "nope")

	assert.ErrorIs(t, err, payroll.ErrBonusNotFound)
	assert.True(t, payroll.IsNotFound(err))
}

func TestListBonusesByEmployee(t *testing.T) {
	svc := newTestService(memory.New(), newFakeDeps())
	grantBonus(t, svc, "10.00", "2024-01-01", "2024-01-31")
	grantBonus(t, svc, "20.00", "2024-02-01", "2024-02-29")

	list, err := svc.ListBonusesByEmployee(context.Background(), "emp-1")

	require.NoError(t, err)
	assert.Len(t, list, 2)
}
