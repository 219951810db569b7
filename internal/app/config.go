package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/leancanvas-backend/internal/clients/redis"
	"github.com/yungbote/leancanvas-backend/internal/data/db"
	"github.com/yungbote/leancanvas-backend/internal/observability"
	"github.com/yungbote/leancanvas-backend/internal/platform/envutil"
	"github.com/yungbote/leancanvas-backend/internal/platform/openai"
	"github.com/yungbote/leancanvas-backend/internal/platform/ratelimit"
	"github.com/yungbote/leancanvas-backend/internal/services"
)

type Config struct {
	Port            int
	LogMode         string
	ShutdownTimeout time.Duration

	DB     db.Config
	Redis  redis.Config
	OpenAI openai.Config
	Auth   services.AuthConfig

	AuthRateLimit ratelimit.Config

	VersionWriteMaxAttempts int
	TokenCleanupInterval    time.Duration

	AllowedOrigins []string
	MetricsEnabled bool
	MetricsAddr    string

	Tracing observability.TracingConfig
}

// LoadConfig resolves settings from src. Environment values win over the file.
func LoadConfig(src envutil.Source) (Config, error) {
	cfg := Config{
		Port:            src.Int("PORT", 8080),
		LogMode:         src.String("LOG_MODE", "development"),
		ShutdownTimeout: src.Seconds("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		DB: db.Config{
			Driver:           src.String("DB_DRIVER", db.DialectPostgres),
			DSN:              src.String("DATABASE_DSN", ""),
			PostgresHost:     src.String("POSTGRES_HOST", "localhost"),
			PostgresPort:     src.String("POSTGRES_PORT", "5432"),
			PostgresUser:     src.String("POSTGRES_USER", "postgres"),
			PostgresPassword: src.String("POSTGRES_PASSWORD", ""),
			PostgresName:     src.String("POSTGRES_NAME", "leancanvas"),
			SQLitePath:       src.String("SQLITE_PATH", "leancanvas.db"),
			MaxOpenConns:     src.Int("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:     src.Int("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime:  src.Seconds("DB_CONN_MAX_LIFETIME_SECONDS", 30*time.Minute),
		},
		Redis:  redis.ConfigFrom(src),
		OpenAI: openai.ConfigFrom(src),
		Auth: services.AuthConfig{
			JWTSecretKey:      src.String("JWT_SECRET_KEY", ""),
			AccessTTL:         src.Seconds("ACCESS_TOKEN_TTL", 30*time.Minute),
			RefreshTTL:        src.Seconds("REFRESH_TOKEN_TTL", 24*time.Hour),
			MaxFailedAttempts: src.Int("LOGIN_MAX_FAILED_ATTEMPTS", 5),
			LockDuration:      time.Duration(src.Int("LOGIN_LOCK_MINUTES", 15)) * time.Minute,
		},
		AuthRateLimit: ratelimit.Config{
			Attempts: src.Int("RATE_LIMIT_ATTEMPTS", 5),
			Window:   time.Duration(src.Int("RATE_LIMIT_WINDOW_MINUTES", 15)) * time.Minute,
		},
		VersionWriteMaxAttempts: src.Int("VERSION_WRITE_MAX_ATTEMPTS", 3),
		TokenCleanupInterval:    src.Seconds("TOKEN_CLEANUP_INTERVAL_SECONDS", 5*time.Minute),
		AllowedOrigins:          src.List("CORS_ALLOWED_ORIGINS", nil),
		MetricsEnabled:          src.Bool("METRICS_ENABLED", false),
		MetricsAddr:             src.String("METRICS_ADDR", ":9090"),
		Tracing: observability.TracingConfig{
			Enabled:     src.Bool("OTEL_ENABLED", false),
			ServiceName: src.String("OTEL_SERVICE_NAME", ""),
			Endpoint:    src.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     observability.ParseHeaders(src.List("OTEL_EXPORTER_OTLP_HEADERS", nil)),
			Insecure:    src.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: src.Float("OTEL_SAMPLER_RATIO", 0.1),
		},
	}
	cfg.Tracing.Environment = cfg.LogMode
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Auth.JWTSecretKey) == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d out of range", c.Port)
	}
	switch strings.ToLower(c.DB.Driver) {
	case db.DialectPostgres, db.DialectSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.Auth.MaxFailedAttempts <= 0 {
		return fmt.Errorf("LOGIN_MAX_FAILED_ATTEMPTS must be positive")
	}
	return nil
}

func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }
