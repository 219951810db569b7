package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/leancanvas-backend/internal/http"
	httpH "github.com/yungbote/leancanvas-backend/internal/http/handlers"
	httpMW "github.com/yungbote/leancanvas-backend/internal/http/middleware"
	"github.com/yungbote/leancanvas-backend/internal/observability"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
)

const serviceName = "leancanvas-api"

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Auth     *httpH.AuthHandler
	Project  *httpH.ProjectHandler
	Assist   *httpH.AssistHandler
	Research *httpH.ResearchHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, clients Clients, services Services) Handlers {
	log.Info("Wiring handlers...")
	checks := map[string]httpH.Pinger{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if clients.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return clients.Redis.Ping(ctx).Err() }
	}
	return Handlers{
		Health:   httpH.NewHealthHandler(checks),
		Auth:     httpH.NewAuthHandler(services.Auth),
		Project:  httpH.NewProjectHandler(services.Projects, services.History),
		Assist:   httpH.NewAssistHandler(services.Assist),
		Research: httpH.NewResearchHandler(services.Research),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, services Services, handlers Handlers, middleware Middleware) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		AllowedOrigins:  cfg.AllowedOrigins,
		ServiceName:     serviceName,
		AuthLimiter:     services.AuthLimiter,
		HealthHandler:   handlers.Health,
		AuthHandler:     handlers.Auth,
		AuthMiddleware:  middleware.Auth,
		ProjectHandler:  handlers.Project,
		AssistHandler:   handlers.Assist,
		ResearchHandler: handlers.Research,
	})
}
