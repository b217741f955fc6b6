package upstream

import (
	"context"
	"net/http"

	"github.com/warp/payroll-engine/payroll"
)

// AuditClient writes audit entries to the audit log service.
type AuditClient struct {
	client
}

var _ payroll.AuditSink = (*AuditClient)(nil)

func NewAuditClient(baseURL string, opts ...Option) *AuditClient {
	return &AuditClient{client: newClient("audit", baseURL, opts...)}
}

// AuditLogRequest is the wire body of an audit entry.
type AuditLogRequest struct {
	Action      string         `json:"action"`
	ServiceName string         `json:"serviceName"`
	PerformedBy string         `json:"performedBy"`
	TargetID    string         `json:"targetId"`
	Description string         `json:"description"`
	OldValues   map[string]any `json:"oldValues,omitempty"`
	NewValues   map[string]any `json:"newValues,omitempty"`
}

func NewAuditLogRequest(e payroll.AuditEntry) AuditLogRequest {
	return AuditLogRequest{
		Action:      string(e.Action),
		ServiceName: e.ServiceName,
		PerformedBy: e.PerformedBy,
		TargetID:    e.TargetID,
		Description: e.Description,
		OldValues:   e.OldValues,
		NewValues:   e.NewValues,
	}
}

func (c *AuditClient) WriteAuditEntry(ctx context.Context, e payroll.AuditEntry) error {
	return c.do(ctx, http.MethodPost, "/api/audit-logs", nil, NewAuditLogRequest(e), nil)
}
