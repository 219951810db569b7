package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/leancanvas-backend/internal/platform/envutil"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

func ConfigFrom(src envutil.Source) Config {
	return Config{
		Addr:     src.String("REDIS_ADDR", ""),
		Password: src.String("REDIS_PASSWORD", ""),
		DB:       src.Int("REDIS_DB", 0),
		Channel:  src.String("REDIS_CHANNEL", "canvas-events"),
	}
}

func (c Config) Enabled() bool { return strings.TrimSpace(c.Addr) != "" }

// NewClient dials and pings redis. Callers own the returned client.
func NewClient(log *logger.Logger, cfg Config) (*goredis.Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info("redis connected", "addr", addr, "db", cfg.DB)
	return rdb, nil
}
