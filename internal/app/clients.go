package app

import (
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/leancanvas-backend/internal/clients/redis"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
	"github.com/yungbote/leancanvas-backend/internal/platform/openai"
)

// Clients holds optional external connections. A nil field means the
// dependency is not configured and its fallback is used.
type Clients struct {
	Redis *goredis.Client
	LLM   openai.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis
	if cfg.Redis.Enabled() {
		rdb, err := redis.NewClient(log, cfg.Redis)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		out.Redis = rdb
	} else {
		log.Info("REDIS_ADDR not set; using in-memory rate limiter and no event bus")
	}

	// Openai
	llm, err := openai.NewClient(log, cfg.OpenAI)
	switch {
	case errors.Is(err, openai.ErrNotConfigured):
		log.Warn("OPENAI_API_KEY not set; assist endpoints will answer 503")
	case err != nil:
		out.Close()
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	default:
		out.LLM = llm
	}

	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
