/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the payroll domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request / *Params: Inputs from clients (body, query, headers)

MONEY:
  Every monetary field is a decimal string with two fraction digits
  ("2610.00"). Floats never reach the wire.

VALIDATION:
  Request structs carry go-playground/validator tags. Field names in
  validation errors come from the json, query or header tag, in that order.
  Business rules (amount scale, date ordering) stay in the payroll package.

SEE ALSO:
  - handlers.go: Uses these types
  - payroll/types.go: Domain types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// GeneratePayslipParams collects the inputs of POST /payslips/generate.
type GeneratePayslipParams struct {
	EmployeeID  string `query:"employeeId" validate:"required,max=64"`
	PayPeriod   string `query:"payPeriod" validate:"required,datetime=2006-01"`
	RequestedBy string `header:"X-User-Id" validate:"required,max=64"`
}

// GrantBonusRequest is the body of POST /bonuses. GrantedBy comes from the
// X-User-Id header.
type GrantBonusRequest struct {
	EmployeeID string           `json:"employeeId" validate:"required,max=64"`
	Amount     *decimal.Decimal `json:"amount" validate:"required"`
	StartDate  string           `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate    string           `json:"endDate" validate:"required,datetime=2006-01-02"`
	GrantedBy  string           `json:"-" header:"X-User-Id" validate:"required,max=64"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// PayslipDTO represents a committed payslip.
type PayslipDTO struct {
	ID                   string `json:"id"`
	EmployeeID           string `json:"employeeId"`
	PayPeriod            string `json:"payPeriod"`
	Designation          string `json:"designation"`
	BaseSalary           string `json:"baseSalary"`
	TaxPercentage        string `json:"taxPercentage"`
	TotalBonuses         string `json:"totalBonuses"`
	UnpaidLeaveDays      int    `json:"unpaidLeaveDays"`
	UnpaidLeaveDeduction string `json:"unpaidLeaveDeduction"`
	TaxAmount            string `json:"taxAmount"`
	NetSalary            string `json:"netSalary"`
	GeneratedAt          string `json:"generatedAt"`
	GeneratedBy          string `json:"generatedBy"`
}

// BonusDTO represents a granted bonus.
type BonusDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employeeId"`
	Amount     string `json:"amount"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	GrantedBy  string `json:"grantedBy"`
	GrantedAt  string `json:"grantedAt"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// FieldErrorDTO describes one rejected input field.
type FieldErrorDTO struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error codes carried in ErrorResponse.Code.
const (
	CodeValidation            = "VALIDATION_FAILED"
	CodeDuplicatePeriod       = "DUPLICATE_PERIOD"
	CodeDependencyUnavailable = "DEPENDENCY_UNAVAILABLE"
	CodeNotFound              = "NOT_FOUND"
	CodeInternal              = "INTERNAL"
)

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toPayslipDTO(p payroll.Payslip) PayslipDTO {
	return PayslipDTO{
		ID:                   string(p.ID),
		EmployeeID:           string(p.EmployeeID),
		PayPeriod:            p.PayPeriod.String(),
		Designation:          p.Designation,
		BaseSalary:           generic.FormatMoney(p.BaseSalary),
		TaxPercentage:        generic.FormatMoney(p.TaxPercentage),
		TotalBonuses:         generic.FormatMoney(p.TotalBonuses),
		UnpaidLeaveDays:      p.UnpaidLeaveDays,
		UnpaidLeaveDeduction: generic.FormatMoney(p.UnpaidLeaveDeduction),
		TaxAmount:            generic.FormatMoney(p.TaxAmount),
		NetSalary:            generic.FormatMoney(p.NetSalary),
		GeneratedAt:          p.GeneratedAt.UTC().Format(time.RFC3339),
		GeneratedBy:          p.GeneratedBy,
	}
}

func toPayslipDTOs(ps []payroll.Payslip) []PayslipDTO {
	dtos := make([]PayslipDTO, len(ps))
	for i, p := range ps {
		dtos[i] = toPayslipDTO(p)
	}
	return dtos
}

func toBonusDTO(b payroll.Bonus) BonusDTO {
	return BonusDTO{
		ID:         string(b.ID),
		EmployeeID: string(b.EmployeeID),
		Amount:     generic.FormatMoney(b.Amount),
		StartDate:  b.StartDate.String(),
		EndDate:    b.EndDate.String(),
		GrantedBy:  b.GrantedBy,
		GrantedAt:  b.GrantedAt.UTC().Format(time.RFC3339),
	}
}

func toBonusDTOs(bs []payroll.Bonus) []BonusDTO {
	dtos := make([]BonusDTO, len(bs))
	for i, b := range bs {
		dtos[i] = toBonusDTO(b)
	}
	return dtos
}
