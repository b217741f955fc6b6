/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Payslip generation status mapping (201, 400, 409, 503, 500)
- Payslip reads, PDF rendering and list ordering
- Bonus grants and reads
- User id propagation to the upstream ports
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/memory"
	"github.com/warp/payroll-engine/upstream"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type testEnv struct {
	router http.Handler
	svc    *payroll.Service

	ruleErr error
	leave   []payroll.UnpaidLeaveInterval

	ruleUser   string
	notifyUser string
	notified   int
}

func newTestEnv(t *testing.T, store payroll.Store, logger *zap.Logger) *testEnv {
	t.Helper()
	if store == nil {
		store = memory.New()
	}
	env := &testEnv{}

	rules := payroll.SalaryRuleLookupFunc(func(ctx context.Context, _ payroll.EmployeeID) (payroll.SalaryRule, error) {
		env.ruleUser = upstream.UserID(ctx)
		if env.ruleErr != nil {
			return payroll.SalaryRule{}, env.ruleErr
		}
		return payroll.SalaryRule{
			Designation:   "Engineer",
			BaseSalary:    decimal.RequireFromString("3000.00"),
			TaxPercentage: decimal.RequireFromString("10"),
		}, nil
	})
	leave := payroll.UnpaidLeaveLookupFunc(func(context.Context, payroll.EmployeeID, generic.Date, generic.Date) ([]payroll.UnpaidLeaveInterval, error) {
		return env.leave, nil
	})
	notifier := payroll.NotificationSinkFunc(func(ctx context.Context, _ payroll.PayrollNotification) error {
		env.notified++
		env.notifyUser = upstream.UserID(ctx)
		return nil
	})

	env.svc = payroll.NewService(store, rules, leave,
		payroll.WithNotificationSink(notifier),
		payroll.WithDispatcher(payroll.NewDispatcher(nil, payroll.WithSynchronousDispatch())),
		payroll.WithClock(func() time.Time { return time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC) }),
	)
	env.router = NewRouter(NewHandler(env.svc, logger), RouterOptions{})
	return env
}

func (e *testEnv) do(method, target, body, userID string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if userID != "" {
		req.Header.Set(upstream.HeaderUserID, userID)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) generate(employeeID, period string) *httptest.ResponseRecorder {
	return e.do(http.MethodPost, "/api/payroll/payslips/generate?employeeId="+employeeID+"&payPeriod="+period, "", "hr-1")
}

type fieldErrorsResponse struct {
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Details []FieldErrorDTO `json:"details"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// failingStore breaks every existence check.
type failingStore struct {
	*memory.Store
}

func (failingStore) FindByEmployeePeriod(context.Context, payroll.EmployeeID, generic.PayPeriod) (payroll.Payslip, bool, error) {
	return payroll.Payslip{}, false, errors.New("disk on fire")
}

// =============================================================================
// GENERATE
// =============================================================================

func TestGeneratePayslip_Created(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	// GIVEN a February bonus and three days of unpaid leave
	_, err := env.svc.GrantBonus(context.Background(), payroll.GrantBonusRequest{
		EmployeeID: "emp-1",
		Amount:     decimal.RequireFromString("200.00"),
		StartDate:  generic.NewDate(2024, time.February, 1),
		EndDate:    generic.NewDate(2024, time.February, 29),
		GrantedBy:  "hr-1",
	})
	require.NoError(t, err)
	env.leave = []payroll.UnpaidLeaveInterval{{
		Start: generic.NewDate(2024, time.February, 5),
		End:   generic.NewDate(2024, time.February, 7),
	}}

	// WHEN generating February
	rec := env.generate("emp-1", "2024-02")

	// THEN the payslip is created with money as 2-digit strings
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	dto := decode[PayslipDTO](t, rec)
	assert.NotEmpty(t, dto.ID)
	assert.Equal(t, "emp-1", dto.EmployeeID)
	assert.Equal(t, "2024-02", dto.PayPeriod)
	assert.Equal(t, "Engineer", dto.Designation)
	assert.Equal(t, "3000.00", dto.BaseSalary)
	assert.Equal(t, "200.00", dto.TotalBonuses)
	assert.Equal(t, 3, dto.UnpaidLeaveDays)
	assert.Equal(t, "300.00", dto.UnpaidLeaveDeduction)
	assert.Equal(t, "290.00", dto.TaxAmount)
	assert.Equal(t, "2610.00", dto.NetSalary)
	assert.Equal(t, "hr-1", dto.GeneratedBy)
	assert.Equal(t, "2024-03-01T09:00:00Z", dto.GeneratedAt)

	// AND the caller's id reached the critical and best-effort ports
	assert.Equal(t, "hr-1", env.ruleUser)
	assert.Equal(t, "hr-1", env.notifyUser)
	assert.Equal(t, 1, env.notified)
}

func TestGeneratePayslip_DuplicateIsConflict(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	require.Equal(t, http.StatusCreated, env.generate("emp-1", "2024-02").Code)

	// WHEN generating the same period again
	rec := env.generate("emp-1", "2024-02")

	// THEN 409 and nothing new is announced
	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, CodeDuplicatePeriod, resp.Code)
	assert.Equal(t, 1, env.notified)
}

func TestGeneratePayslip_DependencyUnavailable(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	env.ruleErr = payroll.ErrEmployeeNotFound

	rec := env.generate("emp-404", "2024-02")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, CodeDependencyUnavailable, resp.Code)
	assert.Equal(t, "salary-rules", resp.Details["dependency"])

	// AND nothing was stored or announced
	list := env.do(http.MethodGet, "/api/payroll/payslips/employee/emp-404", "", "")
	assert.JSONEq(t, "[]", list.Body.String())
	assert.Zero(t, env.notified)
}

func TestGeneratePayslip_Validation(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		userID  string
		field   string
		message string
	}{
		{
			name:    "missing user header",
			target:  "/api/payroll/payslips/generate?employeeId=emp-1&payPeriod=2024-02",
			field:   upstream.HeaderUserID,
			message: "is required",
		},
		{
			name:    "missing employee",
			target:  "/api/payroll/payslips/generate?payPeriod=2024-02",
			userID:  "hr-1",
			field:   "employeeId",
			message: "is required",
		},
		{
			name:    "month out of range",
			target:  "/api/payroll/payslips/generate?employeeId=emp-1&payPeriod=2024-13",
			userID:  "hr-1",
			field:   "payPeriod",
			message: "must be formatted as YYYY-MM",
		},
		{
			name:    "full date instead of month",
			target:  "/api/payroll/payslips/generate?employeeId=emp-1&payPeriod=2024-02-01",
			userID:  "hr-1",
			field:   "payPeriod",
			message: "must be formatted as YYYY-MM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil, nil)

			rec := env.do(http.MethodPost, tt.target, "", tt.userID)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decode[fieldErrorsResponse](t, rec)
			assert.Equal(t, CodeValidation, resp.Code)
			require.NotEmpty(t, resp.Details)
			assert.Equal(t, tt.field, resp.Details[0].Field)
			assert.Equal(t, tt.message, resp.Details[0].Message)
			assert.Zero(t, env.notified)
		})
	}
}

func TestGeneratePayslip_StoreFailureIsInternal(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	env := newTestEnv(t, failingStore{memory.New()}, zap.New(core))

	rec := env.generate("emp-1", "2024-02")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, CodeInternal, resp.Code)
	assert.NotContains(t, rec.Body.String(), "disk on fire")

	// THEN the cause is logged with the request id instead
	entries := logs.FilterMessage("request failed").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "disk on fire")
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
}

// =============================================================================
// PAYSLIP READS
// =============================================================================

func TestGetPayslip(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	created := decode[PayslipDTO](t, env.generate("emp-1", "2024-02"))

	rec := env.do(http.MethodGet, "/api/payroll/payslips/"+created.ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decode[PayslipDTO](t, rec))

	missing := env.do(http.MethodGet, "/api/payroll/payslips/nope", "", "")
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, CodeNotFound, decode[ErrorResponse](t, missing).Code)
}

func TestGetPayslipPDF(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	created := decode[PayslipDTO](t, env.generate("emp-1", "2024-02"))

	rec := env.do(http.MethodGet, "/api/payroll/payslips/"+created.ID+"/pdf", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "payslip-emp-1-2024-02.pdf")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	missing := env.do(http.MethodGet, "/api/payroll/payslips/nope/pdf", "", "")
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestListPayslips(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	for _, call := range [][2]string{{"emp-1", "2024-01"}, {"emp-1", "2024-02"}, {"emp-2", "2024-02"}} {
		require.Equal(t, http.StatusCreated, env.generate(call[0], call[1]).Code)
	}

	t.Run("by employee, newest period first", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/payroll/payslips/employee/emp-1", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		list := decode[[]PayslipDTO](t, rec)
		require.Len(t, list, 2)
		assert.Equal(t, "2024-02", list[0].PayPeriod)
		assert.Equal(t, "2024-01", list[1].PayPeriod)
	})

	t.Run("by period, ordered by employee", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/payroll/payslips/period/2024-02", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		list := decode[[]PayslipDTO](t, rec)
		require.Len(t, list, 2)
		assert.Equal(t, "emp-1", list[0].EmployeeID)
		assert.Equal(t, "emp-2", list[1].EmployeeID)
	})

	t.Run("malformed period", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/payroll/payslips/period/february", "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "payPeriod", decode[fieldErrorsResponse](t, rec).Details[0].Field)
	})
}

// =============================================================================
// BONUSES
// =============================================================================

func TestGrantBonus_Created(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(http.MethodPost, "/api/payroll/bonuses",
		`{"employeeId":"emp-1","amount":"150.50","startDate":"2024-02-01","endDate":"2024-02-29"}`, "hr-1")

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dto := decode[BonusDTO](t, rec)
	assert.NotEmpty(t, dto.ID)
	assert.Equal(t, "150.50", dto.Amount)
	assert.Equal(t, "2024-02-01", dto.StartDate)
	assert.Equal(t, "2024-02-29", dto.EndDate)
	assert.Equal(t, "hr-1", dto.GrantedBy)

	// THEN it is readable by id and by employee
	get := env.do(http.MethodGet, "/api/payroll/bonuses/"+dto.ID, "", "")
	require.Equal(t, http.StatusOK, get.Code)
	assert.Equal(t, dto, decode[BonusDTO](t, get))

	list := env.do(http.MethodGet, "/api/payroll/bonuses/employee/emp-1", "", "")
	require.Equal(t, http.StatusOK, list.Code)
	assert.Len(t, decode[[]BonusDTO](t, list), 1)

	// AND it counts toward the next payslip
	payslip := decode[PayslipDTO](t, env.generate("emp-1", "2024-02"))
	assert.Equal(t, "150.50", payslip.TotalBonuses)
}

func TestGrantBonus_AcceptsNumericAmount(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(http.MethodPost, "/api/payroll/bonuses",
		`{"employeeId":"emp-1","amount":99.9,"startDate":"2024-02-01","endDate":"2024-02-01"}`, "hr-1")

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "99.90", decode[BonusDTO](t, rec).Amount)
}

func TestGrantBonus_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		userID string
		field  string
	}{
		{
			name:   "missing user header",
			body:   `{"employeeId":"emp-1","amount":"10","startDate":"2024-02-01","endDate":"2024-02-29"}`,
			userID: "",
			field:  upstream.HeaderUserID,
		},
		{
			name:   "missing amount",
			body:   `{"employeeId":"emp-1","startDate":"2024-02-01","endDate":"2024-02-29"}`,
			userID: "hr-1",
			field:  "amount",
		},
		{
			name:   "negative amount",
			body:   `{"employeeId":"emp-1","amount":"-5","startDate":"2024-02-01","endDate":"2024-02-29"}`,
			userID: "hr-1",
			field:  "amount",
		},
		{
			name:   "sub-cent amount",
			body:   `{"employeeId":"emp-1","amount":"1.005","startDate":"2024-02-01","endDate":"2024-02-29"}`,
			userID: "hr-1",
			field:  "amount",
		},
		{
			name:   "start after end",
			body:   `{"employeeId":"emp-1","amount":"10","startDate":"2024-03-01","endDate":"2024-02-29"}`,
			userID: "hr-1",
			field:  "period",
		},
		{
			name:   "malformed date",
			body:   `{"employeeId":"emp-1","amount":"10","startDate":"01/02/2024","endDate":"2024-02-29"}`,
			userID: "hr-1",
			field:  "startDate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil, nil)

			rec := env.do(http.MethodPost, "/api/payroll/bonuses", tt.body, tt.userID)

			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			resp := decode[fieldErrorsResponse](t, rec)
			assert.Equal(t, CodeValidation, resp.Code)
			require.NotEmpty(t, resp.Details)
			assert.Equal(t, tt.field, resp.Details[0].Field)

			list := env.do(http.MethodGet, "/api/payroll/bonuses/employee/emp-1", "", "")
			assert.JSONEq(t, "[]", list.Body.String())
		})
	}
}

func TestGrantBonus_InvalidJSON(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(http.MethodPost, "/api/payroll/bonuses", `{"employeeId":`, "hr-1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decode[ErrorResponse](t, rec).Error)
}

func TestGetBonus_NotFound(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(http.MethodGet, "/api/payroll/bonuses/nope", "", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, decode[ErrorResponse](t, rec).Code)
}

// =============================================================================
// ROUTER
// =============================================================================

func TestRouter_HeartbeatAndUnknownRoute(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/healthz", "", "").Code)

	rec := env.do(http.MethodGet, "/api/payroll/unknown", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, decode[ErrorResponse](t, rec).Code)
}
