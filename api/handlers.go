/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes payslip generation, bonus grants and the read side via REST.
  Handles HTTP request/response, JSON serialization, and delegates to
  payroll.Service.

ENDPOINTS:
  Payslips:
    POST   /api/payroll/payslips/generate?employeeId=&payPeriod=YYYY-MM
    GET    /api/payroll/payslips/{id}
    GET    /api/payroll/payslips/{id}/pdf
    GET    /api/payroll/payslips/employee/{employeeId}
    GET    /api/payroll/payslips/period/{payPeriod}

  Bonuses:
    POST   /api/payroll/bonuses
    GET    /api/payroll/bonuses/{id}
    GET    /api/payroll/bonuses/employee/{employeeId}

  Writes require the X-User-Id header. It is recorded as generatedBy or
  grantedBy and forwarded to the upstream services.

REQUEST FLOW:
  1. Parse HTTP request (query, path, header, body)
  2. Validate input (validator tags, then domain rules in payroll)
  3. Call payroll.Service
  4. Serialize response
  5. Map errors

ERROR HANDLING:
  Errors are returned as JSON ErrorResponse with a stable Code:
  - 400 VALIDATION_FAILED:      malformed input, details list the fields
  - 404 NOT_FOUND:              unknown payslip or bonus
  - 409 DUPLICATE_PERIOD:       payslip already exists for employee/period
  - 503 DEPENDENCY_UNAVAILABLE: a critical upstream failed, details name it
  - 500 INTERNAL:               store failures, logged with the request id

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - payroll/errors.go: Error taxonomy
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/upstream"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	Service *payroll.Service

	validate *validator.Validate
	logger   *zap.Logger
}

// NewHandler creates a new handler. A nil logger disables error logging.
func NewHandler(svc *payroll.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Service:  svc,
		validate: newValidator(),
		logger:   logger.Named("api"),
	}
}

// newValidator reports fields under their wire names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "query", "header"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})
	return v
}

// =============================================================================
// PAYSLIP HANDLERS
// =============================================================================

// GeneratePayslip computes and stores the payslip of one employee for one
// pay period.
func (h *Handler) GeneratePayslip(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := GeneratePayslipParams{
		EmployeeID:  strings.TrimSpace(q.Get("employeeId")),
		PayPeriod:   strings.TrimSpace(q.Get("payPeriod")),
		RequestedBy: strings.TrimSpace(r.Header.Get(upstream.HeaderUserID)),
	}
	if err := h.validate.Struct(params); err != nil {
		writeValidationError(w, err)
		return
	}

	period, err := generic.ParsePayPeriod(params.PayPeriod)
	if err != nil {
		writeFieldError(w, "payPeriod", err.Error())
		return
	}

	ctx := upstream.WithUserID(r.Context(), params.RequestedBy)
	payslip, err := h.Service.GeneratePayslip(ctx, payroll.GenerateRequest{
		EmployeeID:  payroll.EmployeeID(params.EmployeeID),
		PayPeriod:   period,
		RequestedBy: params.RequestedBy,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPayslipDTO(payslip))
}

// GetPayslip returns a single payslip.
func (h *Handler) GetPayslip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	payslip, err := h.Service.GetPayslip(r.Context(), payroll.PayslipID(id))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPayslipDTO(payslip))
}

// GetPayslipPDF renders a stored payslip as a PDF document.
func (h *Handler) GetPayslipPDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	payslip, err := h.Service.GetPayslip(r.Context(), payroll.PayslipID(id))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	// Render fully before writing so a failure can still become a 500.
	var buf bytes.Buffer
	if err := payroll.WritePayslipPDF(&buf, payslip); err != nil {
		h.writeServiceError(w, r, fmt.Errorf("rendering payslip pdf: %w", err))
		return
	}

	filename := fmt.Sprintf("payslip-%s-%s.pdf", payslip.EmployeeID, payslip.PayPeriod)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// ListPayslipsByEmployee returns every payslip of an employee, newest
// period first.
func (h *Handler) ListPayslipsByEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeId")

	payslips, err := h.Service.ListPayslipsByEmployee(r.Context(), payroll.EmployeeID(employeeID))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPayslipDTOs(payslips))
}

// ListPayslipsByPeriod returns every payslip of a pay period.
func (h *Handler) ListPayslipsByPeriod(w http.ResponseWriter, r *http.Request) {
	period, err := generic.ParsePayPeriod(chi.URLParam(r, "payPeriod"))
	if err != nil {
		writeFieldError(w, "payPeriod", err.Error())
		return
	}

	payslips, err := h.Service.ListPayslipsByPeriod(r.Context(), period)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPayslipDTOs(payslips))
}

// =============================================================================
// BONUS HANDLERS
// =============================================================================

// GrantBonus records a new bonus for an employee.
func (h *Handler) GrantBonus(w http.ResponseWriter, r *http.Request) {
	var req GrantBonusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.GrantedBy = strings.TrimSpace(r.Header.Get(upstream.HeaderUserID))

	if err := h.validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	start, err := generic.ParseDate(req.StartDate)
	if err != nil {
		writeFieldError(w, "startDate", err.Error())
		return
	}
	end, err := generic.ParseDate(req.EndDate)
	if err != nil {
		writeFieldError(w, "endDate", err.Error())
		return
	}

	ctx := upstream.WithUserID(r.Context(), req.GrantedBy)
	bonus, err := h.Service.GrantBonus(ctx, payroll.GrantBonusRequest{
		EmployeeID: payroll.EmployeeID(req.EmployeeID),
		Amount:     *req.Amount,
		StartDate:  start,
		EndDate:    end,
		GrantedBy:  req.GrantedBy,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBonusDTO(bonus))
}

// GetBonus returns a single bonus.
func (h *Handler) GetBonus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	bonus, err := h.Service.GetBonus(r.Context(), payroll.BonusID(id))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toBonusDTO(bonus))
}

// ListBonusesByEmployee returns every bonus granted to an employee.
func (h *Handler) ListBonusesByEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeId")

	bonuses, err := h.Service.ListBonusesByEmployee(r.Context(), payroll.EmployeeID(employeeID))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toBonusDTOs(bonuses))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeFieldError(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "Validation failed",
		Code:    CodeValidation,
		Details: []FieldErrorDTO{{Field: field, Message: message}},
	})
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	details := make([]FieldErrorDTO, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldErrorDTO{Field: fe.Field(), Message: describeFieldError(fe)})
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "Validation failed",
		Code:    CodeValidation,
		Details: details,
	})
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "datetime":
		layout := strings.NewReplacer("2006", "YYYY", "01", "MM", "02", "DD").Replace(fe.Param())
		return fmt.Sprintf("must be formatted as %s", layout)
	default:
		return "is invalid"
	}
}

// writeServiceError maps the payroll error taxonomy onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var valErr *payroll.ValidationError
	var depErr *payroll.DependencyError

	switch {
	case errors.As(err, &valErr):
		writeFieldError(w, valErr.Field, valErr.Message)

	case errors.Is(err, payroll.ErrDuplicatePeriod):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "Payslip already exists for this pay period",
			Code:    CodeDuplicatePeriod,
			Details: err.Error(),
		})

	case errors.As(err, &depErr):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "Dependency unavailable",
			Code:    CodeDependencyUnavailable,
			Details: map[string]string{"dependency": string(depErr.Dependency)},
		})

	case payroll.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error: capitalize(err.Error()),
			Code:  CodeNotFound,
		})

	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "Internal server error",
			Code:  CodeInternal,
		})
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
