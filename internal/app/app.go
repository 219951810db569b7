package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/leancanvas-backend/internal/data/db"
	"github.com/yungbote/leancanvas-backend/internal/http"
	"github.com/yungbote/leancanvas-backend/internal/observability"
	"github.com/yungbote/leancanvas-backend/internal/platform/envutil"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
	"github.com/yungbote/leancanvas-backend/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients
	Metrics  *observability.Metrics

	dbService    *db.Service
	otelShutdown func(context.Context) error
}

// New loads configuration from configPath (optional) and the environment, then
// wires every layer. Nothing is served until Run.
func New(ctx context.Context, configPath string) (*App, error) {
	src, err := envutil.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := src.Export(); err != nil {
		return nil, err
	}

	log, err := logger.New(src.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(src)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("config: %w", err)
	}

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.Init(log)
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = serviceName
	}
	otelShutdown := observability.InitOTel(ctx, log, cfg.Tracing)

	dbService, err := db.NewService(log, cfg.DB)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	theDB := dbService.DB()
	if err := db.AutoMigrateAll(theDB); err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, clients, metrics)
	if err != nil {
		clients.Close()
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, theDB, clients, serviceset)
	middleware := wireMiddleware(log, serviceset)
	router := wireRouter(log, cfg, metrics, serviceset, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		Metrics:      metrics,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves the API, the metrics endpoint and background maintenance until
// ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Log.Info("api listening", "addr", a.Cfg.Addr())
		return http.NewServerFromEngine(a.Router).Run(ctx, a.Cfg.Addr(), a.Cfg.ShutdownTimeout)
	})

	if a.Metrics != nil {
		a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
		if a.Clients.Redis != nil {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis)
		}
		g.Go(func() error { return a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr) })
	}

	g.Go(func() error { return a.cleanupTokens(ctx) })

	if err := a.Services.Events.StartForwarder(ctx, func(evt realtime.Event) {
		a.Log.Debug("canvas event", "type", evt.Type, "project_id", evt.ProjectID, "version", evt.Version)
	}); err != nil {
		a.Log.Warn("event forwarder unavailable", "error", err)
	}

	return g.Wait()
}

func (a *App) cleanupTokens(ctx context.Context) error {
	interval := a.Cfg.TokenCleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	log := a.Log.With("job", "TokenCleanup")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := a.Services.Auth.CleanupExpiredTokens(ctx)
			if err != nil {
				log.Warn("token cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				log.Info("expired tokens removed", "count", n)
			}
		}
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Services.Events != nil {
		_ = a.Services.Events.Close()
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
