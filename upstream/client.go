/*
Package upstream holds the HTTP JSON adapters for the services payroll
depends on.

CRITICAL (payroll.SalaryRuleLookup, payroll.UnpaidLeaveLookup):
  EmployeeClient:   GET  /api/employees/{id}/designation
  AttendanceClient: GET  /api/attendance/leave-requests/unpaid

BEST-EFFORT (payroll.NotificationSink, payroll.AuditSink):
  NotificationClient: POST /api/notifications/payroll-generated
  AuditClient:        POST /api/audit-logs

PROPAGATION:
  Every request carries X-User-Id (from WithUserID) and X-Request-Id (the
  chi request id of the inbound request, or a fresh UUID).

ERRORS:
  Non-2xx responses become *StatusError. Timeouts come from the caller's
  context; the orchestrator and dispatcher set them.
*/
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	HeaderUserID    = "X-User-Id"
	HeaderRequestID = "X-Request-Id"
)

// maxErrorBody caps how much of a failed response is kept for the error.
const maxErrorBody = 512

type userIDKey struct{}

// WithUserID stores the acting user for outgoing X-User-Id headers.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserID returns the acting user stored by WithUserID.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// StatusError is a non-2xx answer from an upstream service.
type StatusError struct {
	Service    string
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: %s %s returned %d", e.Service, e.Method, e.Path, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// ErrDecode marks a 2xx response whose body could not be decoded.
var ErrDecode = errors.New("undecodable response body")

// client is the shared JSON transport of every adapter.
type client struct {
	service string
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// Option configures an adapter.
type Option func(*client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.http = hc }
}

// WithLogger sets the adapter logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *client) { c.logger = l }
}

func newClient(service, baseURL string, opts ...Option) client {
	c := client{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	c.logger = c.logger.Named("upstream." + service)
	return c
}

// do sends body (if any) as JSON and decodes a 2xx answer into out (if any).
func (c client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", c.service, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", c.service, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID := UserID(ctx); userID != "" {
		req.Header.Set(HeaderUserID, userID)
	}
	requestID := middleware.GetReqID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set(HeaderRequestID, requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %s %s: %w", c.service, method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("upstream call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("request_id", requestID),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Service:    c.service,
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: %w: %v", c.service, ErrDecode, err)
	}
	return nil
}
