package app

import (
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/leancanvas-backend/internal/data/aggregates"
	"github.com/yungbote/leancanvas-backend/internal/observability"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
	"github.com/yungbote/leancanvas-backend/internal/platform/ratelimit"
	"github.com/yungbote/leancanvas-backend/internal/realtime/bus"
	"github.com/yungbote/leancanvas-backend/internal/services"
)

type Services struct {
	Auth     services.AuthService
	Projects services.ProjectService
	History  services.HistoryService
	Research services.ResearchService
	Assist   services.AssistService

	// Infra
	Events      bus.Bus
	AuthLimiter ratelimit.Limiter
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	events, err := wireBus(log, cfg, clients.Redis)
	if err != nil {
		return Services{}, err
	}

	canvasAgg := aggregates.NewCanvasAggregate(aggregates.CanvasAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:          db,
			Log:         log,
			Runner:      aggregates.NewGormTxRunner(db),
			Hooks:       aggregates.NewObservabilityHooks(metrics),
			MaxAttempts: cfg.VersionWriteMaxAttempts,
		},
		Projects: repos.Project,
		Members:  repos.Membership,
		Edits:    repos.EditHistory,
		Details:  repos.Details,
		Users:    repos.User,
	})

	auth := services.NewAuthService(db, log, repos.User, repos.UserToken, cfg.Auth)
	projects := services.NewProjectService(log, canvasAgg, events, metrics)
	history := services.NewHistoryService(db, log, repos.Project, repos.Membership, repos.EditHistory, repos.Details)
	research := services.NewResearchService(db, log, repos.Project, repos.Membership, repos.EditHistory,
		repos.ResearchResult, repos.InterviewNote, repos.Document)
	assist, err := services.NewAssistService(log, clients.LLM, history, projects, research, repos.ResearchResult)
	if err != nil {
		return Services{}, fmt.Errorf("init assist service: %w", err)
	}

	return Services{
		Auth:        auth,
		Projects:    projects,
		History:     history,
		Research:    research,
		Assist:      assist,
		Events:      events,
		AuthLimiter: wireLimiter(log, cfg, clients.Redis),
	}, nil
}

func wireBus(log *logger.Logger, cfg Config, rdb *goredis.Client) (bus.Bus, error) {
	if rdb == nil {
		return bus.NewNoopBus(), nil
	}
	b, err := bus.NewRedisBus(log, rdb, cfg.Redis.Channel)
	if err != nil {
		return nil, fmt.Errorf("init event bus: %w", err)
	}
	return b, nil
}

func wireLimiter(log *logger.Logger, cfg Config, rdb *goredis.Client) ratelimit.Limiter {
	if rdb == nil {
		return ratelimit.NewMemoryLimiter(cfg.AuthRateLimit)
	}
	return ratelimit.NewRedisLimiter(log, rdb, "leancanvas:ratelimit", cfg.AuthRateLimit)
}
