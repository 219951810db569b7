package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/leancanvas-backend/internal/http/handlers"
	httpMW "github.com/yungbote/leancanvas-backend/internal/http/middleware"
	"github.com/yungbote/leancanvas-backend/internal/observability"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
	"github.com/yungbote/leancanvas-backend/internal/platform/ratelimit"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	AllowedOrigins []string
	ServiceName    string

	// AuthLimiter throttles register and login per client address. Nil disables it.
	AuthLimiter ratelimit.Limiter

	AuthHandler     *httpH.AuthHandler
	AuthMiddleware  *httpMW.AuthMiddleware
	ProjectHandler  *httpH.ProjectHandler
	AssistHandler   *httpH.AssistHandler
	ResearchHandler *httpH.ResearchHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.Metrics(cfg.Metrics, "/healthcheck", "/health", "/health/detailed"))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/health", cfg.HealthHandler.Live)
		r.GET("/health/detailed", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			register := []gin.HandlerFunc{cfg.AuthHandler.Register}
			login := []gin.HandlerFunc{cfg.AuthHandler.Login}
			if cfg.AuthLimiter != nil {
				register = append([]gin.HandlerFunc{httpMW.RateLimit(cfg.Log, cfg.AuthLimiter, cfg.Metrics, "register")}, register...)
				login = append([]gin.HandlerFunc{httpMW.RateLimit(cfg.Log, cfg.AuthLimiter, cfg.Metrics, "login")}, login...)
			}
			api.POST("/register", register...)
			api.POST("/login", login...)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Auth (protected)
		if cfg.AuthHandler != nil {
			protected.POST("/refresh", cfg.AuthHandler.Refresh)
			protected.POST("/logout", cfg.AuthHandler.Logout)
			protected.GET("/me", cfg.AuthHandler.Me)
		}

		// Projects, versions and history
		if h := cfg.ProjectHandler; h != nil {
			protected.GET("/projects", h.ListProjects)
			protected.POST("/projects", h.CreateProject)
			protected.DELETE("/projects/:id", h.DeleteProject)
			protected.POST("/projects/:id/members", h.AddMember)
			protected.GET("/projects/:id/latest", h.GetLatest)
			protected.POST("/projects/:id/latest", h.CreateVersion)
			protected.GET("/projects/:id/history-list", h.ListHistory)
			protected.GET("/projects/:id/versions/:version", h.GetVersion)
			protected.POST("/projects/:id/edit-histories/:edit_id/rollback", h.Rollback)
			protected.GET("/compare", h.Compare)
		}

		// Model-backed proposals
		if h := cfg.AssistHandler; h != nil {
			protected.POST("/canvas-autogenerate", h.AutoGenerate)
			protected.POST("/projects/:id/consistency-check", h.ConsistencyCheck)
			protected.POST("/projects/:id/auto-answer", h.AutoAnswer)
			protected.POST("/projects/:id/canvas-update", h.CanvasUpdate)
			protected.POST("/projects/:id/research", h.Research)
			protected.POST("/projects/:id/interview-to-canvas", h.InterviewToCanvas)
		}

		// Research artifacts
		if h := cfg.ResearchHandler; h != nil {
			protected.GET("/projects/:id/research", h.ListResearchResults)
			protected.DELETE("/projects/:id/research/:research_id", h.DeleteResearchResult)
			protected.GET("/projects/:id/interview-notes", h.ListInterviewNotes)
			protected.POST("/projects/:id/interview-notes", h.CreateInterviewNote)
			protected.GET("/projects/:id/interview-notes/:note_id", h.GetInterviewNote)
			protected.DELETE("/projects/:id/interview-notes/:note_id", h.DeleteInterviewNote)
			protected.GET("/projects/:id/documents", h.ListDocuments)
			protected.POST("/projects/:id/documents", h.CreateDocument)
			protected.DELETE("/projects/:id/documents/:document_id", h.DeleteDocument)
		}
	}

	return r
}
