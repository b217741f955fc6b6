package messaging

import (
	"context"

	"github.com/warp/payroll-engine/payroll"
	"go.uber.org/zap"
)

// LogNotifier writes notifications to the log instead of delivering them.
type LogNotifier struct {
	logger *zap.Logger
}

var _ payroll.NotificationSink = (*LogNotifier)(nil)

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notification")}
}

func (l *LogNotifier) SendPayrollNotification(_ context.Context, n payroll.PayrollNotification) error {
	l.logger.Info("payroll notification",
		zap.String("employee_id", string(n.EmployeeID)),
		zap.String("payslip_id", string(n.PayslipID)),
		zap.Stringer("pay_period", n.PayPeriod),
	)
	return nil
}

// LogAuditor writes audit entries to the log.
type LogAuditor struct {
	logger *zap.Logger
}

var _ payroll.AuditSink = (*LogAuditor)(nil)

func NewLogAuditor(logger *zap.Logger) *LogAuditor {
	return &LogAuditor{logger: logger.Named("audit")}
}

func (l *LogAuditor) WriteAuditEntry(_ context.Context, e payroll.AuditEntry) error {
	l.logger.Info("audit event",
		zap.String("action", string(e.Action)),
		zap.String("service_name", e.ServiceName),
		zap.String("performed_by", e.PerformedBy),
		zap.String("target_id", e.TargetID),
		zap.String("message", e.Description),
		zap.Any("old_values", e.OldValues),
		zap.Any("new_values", e.NewValues),
	)
	return nil
}
