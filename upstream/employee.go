package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
)

// EmployeeClient reads designation salary rules from the employee service.
type EmployeeClient struct {
	client
}

var _ payroll.SalaryRuleLookup = (*EmployeeClient)(nil)

func NewEmployeeClient(baseURL string, opts ...Option) *EmployeeClient {
	return &EmployeeClient{client: newClient("employee", baseURL, opts...)}
}

type designationResponse struct {
	Name          string           `json:"name"`
	BaseSalary    *decimal.Decimal `json:"baseSalary"`
	TaxPercentage *decimal.Decimal `json:"taxPercentage"`
}

// GetSalaryRule maps a 404 to payroll.ErrEmployeeNotFound and a body
// without salary fields to payroll.ErrMalformedResponse.
func (c *EmployeeClient) GetSalaryRule(ctx context.Context, employeeID payroll.EmployeeID) (payroll.SalaryRule, error) {
	path := "/api/employees/" + url.PathEscape(string(employeeID)) + "/designation"

	var resp designationResponse
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return payroll.SalaryRule{}, fmt.Errorf("%w: %s", payroll.ErrEmployeeNotFound, employeeID)
		}
		if errors.Is(err, ErrDecode) {
			return payroll.SalaryRule{}, fmt.Errorf("%w: %v", payroll.ErrMalformedResponse, err)
		}
		return payroll.SalaryRule{}, err
	}

	if resp.BaseSalary == nil || resp.TaxPercentage == nil {
		return payroll.SalaryRule{}, fmt.Errorf("%w: designation of %s lacks baseSalary or taxPercentage",
			payroll.ErrMalformedResponse, employeeID)
	}
	return payroll.SalaryRule{
		Designation:   resp.Name,
		BaseSalary:    *resp.BaseSalary,
		TaxPercentage: *resp.TaxPercentage,
	}, nil
}
