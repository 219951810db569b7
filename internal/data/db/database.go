package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
)

// Config selects and tunes the SQL backend.
type Config struct {
	Driver string // postgres | sqlite
	DSN    string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresName     string

	SQLitePath string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// PostgresDSN builds a URL DSN from discrete settings unless DSN is already set.
func (c Config) PostgresDSN() string {
	if strings.TrimSpace(c.DSN) != "" {
		return c.DSN
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresName,
	)
}

// SQLiteDSN returns a file DSN with foreign keys enforced.
func (c Config) SQLiteDSN() string {
	if strings.TrimSpace(c.DSN) != "" {
		return c.DSN
	}
	path := strings.TrimSpace(c.SQLitePath)
	if path == "" {
		path = "leancanvas.db"
	}
	return "file:" + path + "?_foreign_keys=1&_busy_timeout=5000"
}

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewService(logg *logger.Logger, cfg Config) (*Service, error) {
	serviceLog := logg.With("service", "DatabaseService")

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DialectPostgres:
		dialector = postgres.Open(cfg.PostgresDSN())
	case DialectSQLite:
		dialector = sqlite.Open(cfg.SQLiteDSN())
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	conn, err := Open(dialector, gormLog)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", dialector.Name(), err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if IsSQLite(conn) {
		// One writer at a time; concurrent transactions queue on the pool.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}

	serviceLog.Info("database connected", "driver", dialector.Name())
	return &Service{db: conn, log: serviceLog}, nil
}

// Open applies the shared gorm configuration. TranslateError surfaces
// gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated across dialects.
func Open(dialector gorm.Dialector, l gormLogger.Interface) (*gorm.DB, error) {
	if l == nil {
		l = gormLogger.Default.LogMode(gormLogger.Silent)
	}
	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         l,
	})
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
