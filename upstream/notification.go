package upstream

import (
	"context"
	"net/http"

	"github.com/warp/payroll-engine/payroll"
)

// NotificationClient posts payroll notifications to the notification service.
type NotificationClient struct {
	client
}

var _ payroll.NotificationSink = (*NotificationClient)(nil)

func NewNotificationClient(baseURL string, opts ...Option) *NotificationClient {
	return &NotificationClient{client: newClient("notification", baseURL, opts...)}
}

// PayrollNotificationRequest is the wire body of a payroll notification.
type PayrollNotificationRequest struct {
	EmployeeID string `json:"employeeId"`
	PayslipID  string `json:"payslipId"`
	PayPeriod  string `json:"payPeriod"`
}

func NewPayrollNotificationRequest(n payroll.PayrollNotification) PayrollNotificationRequest {
	return PayrollNotificationRequest{
		EmployeeID: string(n.EmployeeID),
		PayslipID:  string(n.PayslipID),
		PayPeriod:  n.PayPeriod.String(),
	}
}

func (c *NotificationClient) SendPayrollNotification(ctx context.Context, n payroll.PayrollNotification) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/payroll-generated", nil, NewPayrollNotificationRequest(n), nil)
}
