package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// AttendanceClient reads approved unpaid leave from the attendance service.
type AttendanceClient struct {
	client
}

var _ payroll.UnpaidLeaveLookup = (*AttendanceClient)(nil)

func NewAttendanceClient(baseURL string, opts ...Option) *AttendanceClient {
	return &AttendanceClient{client: newClient("attendance", baseURL, opts...)}
}

type unpaidLeaveResponse struct {
	StartDate generic.Date `json:"startDate"`
	EndDate   generic.Date `json:"endDate"`
}

func (c *AttendanceClient) GetApprovedUnpaidLeave(ctx context.Context, employeeID payroll.EmployeeID, start, end generic.Date) ([]payroll.UnpaidLeaveInterval, error) {
	query := url.Values{}
	query.Set("employeeId", string(employeeID))
	query.Set("startDate", start.String())
	query.Set("endDate", end.String())

	var resp []unpaidLeaveResponse
	if err := c.do(ctx, http.MethodGet, "/api/attendance/leave-requests/unpaid", query, nil, &resp); err != nil {
		if errors.Is(err, ErrDecode) {
			return nil, fmt.Errorf("%w: %v", payroll.ErrMalformedResponse, err)
		}
		return nil, err
	}

	intervals := make([]payroll.UnpaidLeaveInterval, 0, len(resp))
	for _, r := range resp {
		intervals = append(intervals, payroll.UnpaidLeaveInterval{Start: r.StartDate, End: r.EndDate})
	}
	return intervals, nil
}
