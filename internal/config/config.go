package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type LogMode string

const (
	LogModeDevelopment LogMode = "development"
	LogModeProduction  LogMode = "production"
)

var (
	ErrMissingJWTSecret = errors.New("AUTH_JWT_SECRET must be set in production mode")
	ErrUnknownDriver    = errors.New("unknown database driver")
	ErrUnknownStorage   = errors.New("unknown storage driver")
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		Storage
		Tasks
		Telemetry
		Admin
		Demo
	}

	HTTP struct {
		Port             int32
		Host             string
		CORSAllowOrigins []string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
		LogMode                  LogMode
		LogLevel                 string
	}
	Database struct {
		Driver   string // sqlite, postgres or mysql
		Path     string // SQLite file path
		DSN      string // Connection string for postgres and mysql
		LogLevel string // GORM log level: silent, error, warn, info
	}
	Auth struct {
		JWTSecret   string
		JWTIssuer   string
		TokenExpiry time.Duration
		BcryptCost  int

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Storage struct {
		Driver     string // none, s3, minio or gcs
		Bucket     string
		Endpoint   string
		Region     string
		AccessKey  string
		SecretKey  string
		UseSSL     bool
		PathStyle  bool
		PublicURL  string // Base URL for public objects, derived from endpoint and bucket when empty
		GCSProject string
	}
	Tasks struct {
		Enabled              bool
		Workers              int
		ReleaseAfter         time.Duration
		CleanupInterval      time.Duration
		TokenCleanupSchedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Telemetry struct {
		MetricsEnabled bool
		TracingEnabled bool
		TraceExporter  string // stdout or otlp
		ServiceName    string
	}
	Admin struct {
		Email    string
		Username string
		Password string
	}
	// Demo mode serves a read-only API; see cmd/generate_demo.
	Demo struct {
		Enabled bool
	}
)

func NewConfig() *Config {
	// A missing .env file is not an error; real environment variables win.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("cors_allow_origins", DefaultCORSOrigin)
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("log_mode", string(LogModeDevelopment))
	v.SetDefault("log_level", "info")

	// Database defaults
	v.SetDefault("database_driver", DriverSQLite)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")
	v.SetDefault("database_log_level", "warn")

	// Auth defaults
	v.SetDefault("auth_jwt_secret", "")
	v.SetDefault("auth_jwt_issuer", DefaultJWTIssuer)
	v.SetDefault("auth_token_expiry", "720h")     // 30 days
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration

	// Object storage defaults
	v.SetDefault("storage_driver", StorageNone)
	v.SetDefault("storage_bucket", "bookclub-covers")
	v.SetDefault("storage_region", "us-east-1")
	v.SetDefault("storage_use_ssl", true)
	v.SetDefault("storage_path_style", true)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("token_cleanup_schedule", "0 3 * * *")

	// Telemetry defaults
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("tracing_enabled", false)
	v.SetDefault("tracing_exporter", "stdout")
	v.SetDefault("otel_service_name", "bookclub")

	v.SetDefault("demo_mode", false)

	return &Config{
		HTTP: HTTP{
			Port:             v.GetInt32("PORT"),
			Host:             v.GetString("HOST"),
			CORSAllowOrigins: splitList(v.GetString("CORS_ALLOW_ORIGINS")),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
			LogMode:                  LogMode(v.GetString("LOG_MODE")),
			LogLevel:                 v.GetString("LOG_LEVEL"),
		},
		Database: Database{
			Driver:   strings.ToLower(v.GetString("DATABASE_DRIVER")),
			Path:     v.GetString("DATABASE_PATH"),
			DSN:      v.GetString("DATABASE_DSN"),
			LogLevel: v.GetString("DATABASE_LOG_LEVEL"),
		},
		Auth: Auth{
			JWTSecret:        v.GetString("AUTH_JWT_SECRET"),
			JWTIssuer:        v.GetString("AUTH_JWT_ISSUER"),
			TokenExpiry:      v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Storage: Storage{
			Driver:     strings.ToLower(v.GetString("STORAGE_DRIVER")),
			Bucket:     v.GetString("STORAGE_BUCKET"),
			Endpoint:   v.GetString("STORAGE_ENDPOINT"),
			Region:     v.GetString("STORAGE_REGION"),
			AccessKey:  v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey:  v.GetString("STORAGE_SECRET_KEY"),
			UseSSL:     v.GetBool("STORAGE_USE_SSL"),
			PathStyle:  v.GetBool("STORAGE_PATH_STYLE"),
			PublicURL:  v.GetString("STORAGE_PUBLIC_URL"),
			GCSProject: v.GetString("STORAGE_GCS_PROJECT"),
		},
		Tasks: Tasks{
			Enabled:              v.GetBool("TASKS_ENABLED"),
			Workers:              v.GetInt("TASK_WORKERS"),
			ReleaseAfter:         v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:      v.GetDuration("TASK_CLEANUP_INTERVAL"),
			TokenCleanupSchedule: v.GetString("TOKEN_CLEANUP_SCHEDULE"),
		},
		Telemetry: Telemetry{
			MetricsEnabled: v.GetBool("METRICS_ENABLED"),
			TracingEnabled: v.GetBool("TRACING_ENABLED"),
			TraceExporter:  v.GetString("TRACING_EXPORTER"),
			ServiceName:    v.GetString("OTEL_SERVICE_NAME"),
		},
		Admin: Admin{
			Email:    v.GetString("ADMIN_EMAIL"),
			Username: v.GetString("ADMIN_USERNAME"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
		Demo: Demo{
			Enabled: v.GetBool("DEMO_MODE"),
		},
	}
}

// Validate reports configuration combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Database.Driver)
	}
	if c.Database.Driver != DriverSQLite && c.Database.DSN == "" {
		return fmt.Errorf("DATABASE_DSN is required for driver %q", c.Database.Driver)
	}

	switch c.Storage.Driver {
	case StorageNone, StorageS3, StorageMinIO, StorageGCS:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorage, c.Storage.Driver)
	}

	if c.Auth.JWTSecret == "" && c.Global.LogMode == LogModeProduction {
		return ErrMissingJWTSecret
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
