// Package api exposes the HTTP surface of CodeScope.
package api

import (
	"context"

	"codescope/internal/ai"
	"codescope/internal/cache"
	"codescope/internal/middleware"
	"codescope/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Runner executes one model-fallback orchestration.
type Runner interface {
	Run(ctx context.Context, req *ai.Request) (*ai.Result, error)
}

// Gateway is the persistence surface the handlers depend on.
type Gateway interface {
	AppendChat(userMessage, aiResponse string) error
	ListChat() ([]models.ChatMessage, error)
	InsertCodeSnapshot(code, language string) (*models.CodeSnapshot, error)
	LatestSnapshot() (*models.CodeSnapshot, error)
	InsertProject(name, code, language string) (*models.Project, error)
	ListProjects() ([]models.Project, error)
	SetFavorite(id uint, favorite bool) error
	DeleteProject(id uint) error
}

// HealthChecker reports backing-store connectivity.
type HealthChecker interface {
	Health() error
}

// Server wires the orchestrator, persistence gateway, and report renderer
// behind the HTTP API.
type Server struct {
	store  Gateway
	runner Runner
	cache  *cache.ResultCache
	health HealthChecker
	logger *zap.Logger
}

// NewServer creates the API server.
func NewServer(store Gateway, runner Runner, resultCache *cache.ResultCache, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:  store,
		runner: runner,
		cache:  resultCache,
		health: health,
		logger: logger,
	}
}

// NewRouter builds the Gin engine with the full middleware stack and all
// routes registered.
func NewRouter(s *Server, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS())

	r.GET("/health", s.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/process_code", s.ProcessCode)
		apiGroup.POST("/ai_chat", s.AIChat)
		apiGroup.POST("/generate_pdf", s.GeneratePDF)

		apiGroup.POST("/projects", s.CreateProject)
		apiGroup.GET("/projects", s.ListProjects)
		apiGroup.PATCH("/projects/:id/favorite", s.SetFavorite)
		apiGroup.DELETE("/projects/:id", s.DeleteProject)

		apiGroup.GET("/snapshots/latest", s.LatestSnapshot)
		apiGroup.GET("/chat", s.ListChat)
	}

	return r
}
