/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the payroll engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, flags)
  2. Build loggers (zap application log, slog request log)
  3. Open the store (SQLite or PostgreSQL)
  4. Build upstream clients and best-effort sinks
  5. Create payroll service, API handler and router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides APP_PORT)
  -db      SQLite database path (overrides SQLITE_PATH)
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Drain in-flight notifications and audits
  4. Close the Kafka writer and the database
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/payroll.db"

  # Run against PostgreSQL with Kafka notifications
  DB_DRIVER=postgres DATABASE_URL=postgres://... \
  NOTIFICATION_TRANSPORT=kafka KAFKA_BROKERS=localhost:9092 ./server

ENVIRONMENT:
  See config/config.go for every key and its default.

SEE ALSO:
  - api/server.go: Router configuration
  - payroll/service.go: Service wiring options
  - config/config.go: Configuration keys
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/config"
	"github.com/warp/payroll-engine/logging"
	"github.com/warp/payroll-engine/messaging"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/postgres"
	"github.com/warp/payroll-engine/store/sqlite"
	"github.com/warp/payroll-engine/upstream"
	"go.uber.org/zap"
)

// storeCloser is what main needs from either store backend.
type storeCloser interface {
	payroll.Store
	io.Closer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags
	port := flag.Int("port", cfg.App.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.Database.SQLitePath, "SQLite database path")
	flag.Parse()
	cfg.App.Port = *port
	cfg.Database.SQLitePath = *dbPath

	logger, err := logging.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	zap.ReplaceGlobals(logger)

	os.Exit(finish(logger, run(cfg, logger)))
}

// finish logs the outcome of run, flushes the logger and returns the exit
// code. os.Exit skips defers, so the flush happens here.
func finish(logger *zap.Logger, err error) int {
	defer logger.Sync()
	if err != nil {
		logger.Error("server failed", zap.Error(err))
		return 1
	}
	return 0
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	// Initialize store
	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer store.Close()
	logger.Info("store ready", zap.String("driver", cfg.Database.Driver))

	// Upstream clients
	httpClient := &http.Client{Timeout: 30 * time.Second}
	clientOpts := []upstream.Option{upstream.WithHTTPClient(httpClient), upstream.WithLogger(logger)}
	rules := upstream.NewEmployeeClient(cfg.Upstream.EmployeeURL, clientOpts...)
	leave := upstream.NewAttendanceClient(cfg.Upstream.AttendanceURL, clientOpts...)

	notifier, closeNotifier, err := newNotifier(cfg, clientOpts, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	var auditor payroll.AuditSink = messaging.NewLogAuditor(logger)
	if cfg.Upstream.AuditURL != "" {
		auditor = upstream.NewAuditClient(cfg.Upstream.AuditURL, clientOpts...)
	}

	dispatchOpts := []payroll.DispatcherOption{payroll.WithTaskTimeout(cfg.Upstream.BestEffortTimeout)}
	if !cfg.Payroll.AsyncBestEffort {
		dispatchOpts = append(dispatchOpts, payroll.WithSynchronousDispatch())
	}
	dispatcher := payroll.NewDispatcher(logger, dispatchOpts...)

	svc := payroll.NewService(store, rules, leave,
		payroll.WithNotificationSink(notifier),
		payroll.WithAuditSink(auditor),
		payroll.WithDispatcher(dispatcher),
		payroll.WithLogger(logger),
		payroll.WithConfig(payroll.Config{
			CriticalTimeout:       cfg.Upstream.CriticalTimeout,
			MergeOverlappingLeave: cfg.Payroll.MergeOverlappingLeave,
		}),
	)

	// Create router
	handler := api.NewHandler(svc, logger)
	router := api.NewRouter(handler, api.RouterOptions{
		RequestLogger:  logging.NewRequestLogger(os.Stdout, cfg.App.Env),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.Int("port", cfg.App.Port),
			zap.String("notification_transport", cfg.Notification.Transport),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("listening: %w", err)
	case sig := <-quit:
		logger.Info("shutting down server", zap.Stringer("signal", sig))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn("best-effort tasks abandoned", zap.Error(err))
	}

	logger.Info("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (storeCloser, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.URL)
	default:
		return sqlite.New(cfg.SQLitePath)
	}
}

// newNotifier selects the notification transport. The returned func
// releases its resources.
func newNotifier(cfg *config.Config, clientOpts []upstream.Option, logger *zap.Logger) (payroll.NotificationSink, func(), error) {
	switch cfg.Notification.Transport {
	case config.TransportHTTP:
		return upstream.NewNotificationClient(cfg.Upstream.NotificationURL, clientOpts...), func() {}, nil
	case config.TransportKafka:
		writer := messaging.NewKafkaWriter(cfg.Notification.KafkaBrokers)
		closeWriter := func() {
			if err := writer.Close(); err != nil {
				logger.Warn("closing kafka writer", zap.Error(err))
			}
		}
		return messaging.NewKafkaNotifier(writer, cfg.Notification.KafkaTopic, logger), closeWriter, nil
	case config.TransportLog:
		return messaging.NewLogNotifier(logger), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown notification transport %q", cfg.Notification.Transport)
	}
}
