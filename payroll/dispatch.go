/*
dispatch.go - Fire-and-forget execution of best-effort side effects

PURPOSE:
  Notification and audit run AFTER a payslip is committed. Their outcome
  must never reach the caller of GeneratePayslip, so the Dispatcher API has
  no error path at all: Go() returns nothing.

BEHAVIOUR:
  - Each task gets a context detached from the request (context.WithoutCancel)
    and bounded by its own timeout. The dispatcher stops waiting at the
    timeout even if the task ignores its context, in both modes
  - Errors and panics are logged and dropped
  - In-flight tasks are tracked; Close() stops intake and drains them
  - Synchronous mode runs tasks inline (tests, CLI)

USAGE:
  d := payroll.NewDispatcher(logger, payroll.WithTaskTimeout(3*time.Second))
  d.Go(ctx, "notification", func(ctx context.Context) error { ... })
  defer d.Close(shutdownCtx)
*/
package payroll

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultBestEffortTimeout bounds a single best-effort task.
const DefaultBestEffortTimeout = 3 * time.Second

// Task is one best-effort side effect.
type Task func(ctx context.Context) error

// Dispatcher runs best-effort tasks.
type Dispatcher struct {
	logger  *zap.Logger
	timeout time.Duration
	sync    bool

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithTaskTimeout sets the per-task timeout. Non-positive values keep the default.
func WithTaskTimeout(d time.Duration) DispatcherOption {
	return func(dp *Dispatcher) {
		if d > 0 {
			dp.timeout = d
		}
	}
}

// WithSynchronousDispatch runs every task on the calling goroutine.
func WithSynchronousDispatch() DispatcherOption {
	return func(dp *Dispatcher) { dp.sync = true }
}

// NewDispatcher creates a Dispatcher. A nil logger disables logging.
func NewDispatcher(logger *zap.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		logger:  logger.Named("dispatch"),
		timeout: DefaultBestEffortTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Go runs task in the background. Values carried by ctx (request id, user)
// are kept, its cancellation is not. After Close, tasks are dropped with a
// warning.
func (d *Dispatcher) Go(ctx context.Context, name string, task Task) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn("dispatcher closed, dropping task", zap.String("task", name))
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	if d.sync {
		d.run(detached, name, task)
		return
	}
	go d.run(detached, name, task)
}

func (d *Dispatcher) run(ctx context.Context, name string, task Task) {
	defer d.wg.Done()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	err := d.safeRun(ctx, task)
	if err != nil {
		d.logger.Warn("best-effort task failed",
			zap.String("task", name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	d.logger.Debug("best-effort task done",
		zap.String("task", name),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// safeRun waits for task until ctx is done. A task that ignores ctx is
// abandoned at the timeout and finishes on its own goroutine.
func (d *Dispatcher) safeRun(ctx context.Context, task Task) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- task(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("task abandoned: %w", ctx.Err())
	}
}

// Wait blocks until every task dispatched so far has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close stops accepting tasks and waits for in-flight ones, or until ctx is
// done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("dispatcher drained")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("draining best-effort tasks: %w", ctx.Err())
	}
}
