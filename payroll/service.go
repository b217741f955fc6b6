/*
service.go - Payroll service: dependencies, options and read accessors

PURPOSE:
  Service is the single entry point for payslip generation, bonus grants
  and payslip/bonus reads. It owns no state of its own: persistence lives
  in the Store, cross-service data comes through the ports.

CONSTRUCTION:
  svc := payroll.NewService(store, rules, leave,
      payroll.WithNotificationSink(notifier),
      payroll.WithAuditSink(auditor),
      payroll.WithDispatcher(dispatcher),
      payroll.WithLogger(logger),
  )

SEE ALSO:
  - generate.go: GeneratePayslip state machine
  - bonus.go: GrantBonus and bonus reads
  - dispatch.go: best-effort side effects
*/
package payroll

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/warp/payroll-engine/generic"
	"go.uber.org/zap"
)

// DefaultCriticalTimeout bounds each critical dependency call.
const DefaultCriticalTimeout = 5 * time.Second

// Config holds the tunables of the orchestrator.
type Config struct {
	// CriticalTimeout bounds each salary-rule and unpaid-leave lookup.
	CriticalTimeout time.Duration

	// MergeOverlappingLeave counts days shared by overlapping leave
	// intervals once instead of once per interval.
	MergeOverlappingLeave bool
}

// Service generates payslips and manages bonuses.
type Service struct {
	store    Store
	rules    SalaryRuleLookup
	leave    UnpaidLeaveLookup
	notifier NotificationSink
	auditor  AuditSink

	dispatcher *Dispatcher
	logger     *zap.Logger
	config     Config

	now   func() time.Time
	newID func() string
}

// Option configures a Service.
type Option func(*Service)

func WithNotificationSink(n NotificationSink) Option {
	return func(s *Service) { s.notifier = n }
}

func WithAuditSink(a AuditSink) Option {
	return func(s *Service) { s.auditor = a }
}

func WithDispatcher(d *Dispatcher) Option {
	return func(s *Service) { s.dispatcher = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithConfig replaces the orchestrator tunables. A zero CriticalTimeout
// keeps the default.
func WithConfig(c Config) Option {
	return func(s *Service) {
		if c.CriticalTimeout <= 0 {
			c.CriticalTimeout = DefaultCriticalTimeout
		}
		s.config = c
	}
}

// WithClock overrides the source of GeneratedAt/GrantedAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides payslip and bonus id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService wires a Service. Notification and audit default to no-ops,
// the dispatcher to an asynchronous one sharing the service logger.
func NewService(store Store, rules SalaryRuleLookup, leave UnpaidLeaveLookup, opts ...Option) *Service {
	s := &Service{
		store:  store,
		rules:  rules,
		leave:  leave,
		logger: zap.NewNop(),
		config: Config{CriticalTimeout: DefaultCriticalTimeout},
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = NotificationSinkFunc(func(context.Context, PayrollNotification) error { return nil })
	}
	if s.auditor == nil {
		s.auditor = AuditSinkFunc(func(context.Context, AuditEntry) error { return nil })
	}
	if s.dispatcher == nil {
		s.dispatcher = NewDispatcher(s.logger)
	}
	s.logger = s.logger.Named("payroll")
	return s
}

// Dispatcher returns the dispatcher running best-effort side effects, so
// callers can drain it on shutdown.
func (s *Service) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// =============================================================================
// READS
// =============================================================================

func (s *Service) GetPayslip(ctx context.Context, id PayslipID) (Payslip, error) {
	if id == "" {
		return Payslip{}, invalid("id", "must not be empty")
	}
	return s.store.GetPayslip(ctx, id)
}

func (s *Service) ListPayslipsByEmployee(ctx context.Context, employeeID EmployeeID) ([]Payslip, error) {
	if employeeID == "" {
		return nil, invalid("employeeId", "must not be empty")
	}
	return s.store.ListPayslipsByEmployee(ctx, employeeID)
}

func (s *Service) ListPayslipsByPeriod(ctx context.Context, period generic.PayPeriod) ([]Payslip, error) {
	if err := period.Validate(); err != nil {
		return nil, invalid("payPeriod", "%v", err)
	}
	return s.store.ListPayslipsByPeriod(ctx, period)
}
