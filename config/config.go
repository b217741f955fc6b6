// Package config loads the payroll server configuration from the
// environment. A .env file in the working directory is read first when
// present; real environment variables win over it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	TransportHTTP  = "http"
	TransportKafka = "kafka"
	TransportLog   = "log"
)

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Upstream     UpstreamConfig
	Notification NotificationConfig
	Payroll      PayrollConfig
	CORS         CORSConfig
}

type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

type DatabaseConfig struct {
	Driver     string
	SQLitePath string
	URL        string
}

// UpstreamConfig locates the services payroll calls. An empty audit or
// notification URL selects the log fallback.
type UpstreamConfig struct {
	EmployeeURL       string
	AttendanceURL     string
	NotificationURL   string
	AuditURL          string
	CriticalTimeout   time.Duration
	BestEffortTimeout time.Duration
}

type NotificationConfig struct {
	Transport    string
	KafkaBrokers []string
	KafkaTopic   string
}

type PayrollConfig struct {
	MergeOverlappingLeave bool
	AsyncBestEffort       bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads .env (if any) and the environment, then validates.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	port, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config := &Config{
		App: AppConfig{
			Port:     port,
			Env:      getEnv("APP_ENV", "development"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
			SQLitePath: getEnv("SQLITE_PATH", "payroll.db"),
			URL:        getEnv("DATABASE_URL", ""),
		},
		Upstream: UpstreamConfig{
			EmployeeURL:       getEnv("EMPLOYEE_SERVICE_URL", "http://localhost:8081"),
			AttendanceURL:     getEnv("ATTENDANCE_SERVICE_URL", "http://localhost:8082"),
			NotificationURL:   getEnv("NOTIFICATION_SERVICE_URL", ""),
			AuditURL:          getEnv("AUDIT_SERVICE_URL", ""),
			CriticalTimeout:   getEnvDuration("UPSTREAM_CRITICAL_TIMEOUT", 5*time.Second),
			BestEffortTimeout: getEnvDuration("UPSTREAM_BEST_EFFORT_TIMEOUT", 3*time.Second),
		},
		Notification: NotificationConfig{
			KafkaBrokers: getEnvSlice("KAFKA_BROKERS"),
			KafkaTopic:   getEnv("KAFKA_PAYSLIP_TOPIC", "hr.payroll.payslip.generated.v1"),
		},
		Payroll: PayrollConfig{
			MergeOverlappingLeave: getEnvBool("PAYROLL_MERGE_OVERLAPPING_LEAVE", false),
			AsyncBestEffort:       getEnvBool("PAYROLL_ASYNC_BEST_EFFORT", true),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
		},
	}

	// http when a notification service is configured, log otherwise
	defaultTransport := TransportLog
	if config.Upstream.NotificationURL != "" {
		defaultTransport = TransportHTTP
	}
	config.Notification.Transport = strings.ToLower(getEnv("NOTIFICATION_TRANSPORT", defaultTransport))

	if len(config.CORS.AllowedOrigins) == 0 {
		config.CORS.AllowedOrigins = []string{"*"}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("APP_PORT %d out of range", c.App.Port)
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}

	if c.Upstream.EmployeeURL == "" {
		return fmt.Errorf("EMPLOYEE_SERVICE_URL is required")
	}
	if c.Upstream.AttendanceURL == "" {
		return fmt.Errorf("ATTENDANCE_SERVICE_URL is required")
	}
	if c.Upstream.CriticalTimeout <= 0 || c.Upstream.BestEffortTimeout <= 0 {
		return fmt.Errorf("upstream timeouts must be positive")
	}

	switch c.Notification.Transport {
	case TransportHTTP:
		if c.Upstream.NotificationURL == "" {
			return fmt.Errorf("NOTIFICATION_SERVICE_URL is required for the http transport")
		}
	case TransportKafka:
		if len(c.Notification.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required for the kafka transport")
		}
	case TransportLog:
	default:
		return fmt.Errorf("unknown NOTIFICATION_TRANSPORT %q", c.Notification.Transport)
	}
	return nil
}

// IsProduction reports whether APP_ENV selects production behaviour.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvSlice(key string) []string {
	value := getEnv(key, "")
	if value == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
