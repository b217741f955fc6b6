// Package logging builds the two loggers of the server: a zap logger for
// application events and a slog logger, in ECS JSON, for the HTTP request
// log.
package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/go-chi/httplog/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const AppName = "payroll-engine"

// New returns a JSON production logger when env is "production" and a
// console development logger otherwise. level is any zap level name.
func New(env, level string) (*zap.Logger, error) {
	atomic, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = atomic

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger.With(zap.String("app", AppName), zap.String("env", env)), nil
}

// NewRequestLogger returns the slog logger used by httplog. Records follow
// the ECS schema.
func NewRequestLogger(w io.Writer, env string) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(env != "production")
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", AppName),
		slog.String("env", env),
	)
}
