/*
Package messaging provides non-HTTP transports for the best-effort payroll
side effects.

  KafkaNotifier: publishes PayslipGenerated events to Kafka
  LogNotifier:   logs notifications (local runs, no notification service)
  LogAuditor:    logs audit entries (no audit service configured)

All of them are best-effort sinks: the Dispatcher logs and drops their
errors.
*/
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/upstream"
	"go.uber.org/zap"
)

// DefaultPayslipTopic carries PayslipGenerated events.
const DefaultPayslipTopic = "hr.payroll.payslip.generated.v1"

const (
	EventTypePayslipGenerated = "payroll.payslip.generated"
	AggregateTypePayslip      = "payslip"
)

// MessageWriter is the part of *kafkago.Writer the notifier uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// PayslipGeneratedEvent is the Kafka message value.
type PayslipGeneratedEvent struct {
	EmployeeID  string    `json:"employeeId"`
	PayslipID   string    `json:"payslipId"`
	PayPeriod   string    `json:"payPeriod"`
	RequestedBy string    `json:"requestedBy,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// KafkaNotifier implements payroll.NotificationSink over Kafka. Messages
// are keyed by employee so one employee's events stay ordered.
type KafkaNotifier struct {
	writer MessageWriter
	topic  string
	logger *zap.Logger
	now    func() time.Time
}

var _ payroll.NotificationSink = (*KafkaNotifier)(nil)

func NewKafkaNotifier(writer MessageWriter, topic string, logger *zap.Logger) *KafkaNotifier {
	if topic == "" {
		topic = DefaultPayslipTopic
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaNotifier{
		writer: writer,
		topic:  topic,
		logger: logger.Named("messaging.kafka"),
		now:    time.Now,
	}
}

// NewKafkaWriter builds a writer for the given brokers. Topic is left to
// the message so one writer can serve several topics.
func NewKafkaWriter(brokers []string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

func (k *KafkaNotifier) SendPayrollNotification(ctx context.Context, n payroll.PayrollNotification) error {
	payload, err := json.Marshal(PayslipGeneratedEvent{
		EmployeeID:  string(n.EmployeeID),
		PayslipID:   string(n.PayslipID),
		PayPeriod:   n.PayPeriod.String(),
		RequestedBy: upstream.UserID(ctx),
		OccurredAt:  k.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding payslip event: %w", err)
	}

	msg := kafkago.Message{
		Topic: k.topic,
		Key:   []byte(n.EmployeeID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(EventTypePayslipGenerated)},
			{Key: "aggregate_type", Value: []byte(AggregateTypePayslip)},
			{Key: "aggregate_id", Value: []byte(n.PayslipID)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing payslip event: %w", err)
	}

	k.logger.Debug("payslip event published",
		zap.String("topic", k.topic),
		zap.String("payslip_id", string(n.PayslipID)),
	)
	return nil
}
