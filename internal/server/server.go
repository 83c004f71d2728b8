package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/prism-local/internal/analytics"
	"github.com/nulzo/prism-local/internal/config"
	"github.com/nulzo/prism-local/internal/gateway"
	"github.com/nulzo/prism-local/internal/server/middleware"
	"github.com/nulzo/prism-local/internal/server/validator"
	"go.uber.org/zap"
)

// Dependencies are the services the HTTP layer is wired to. Only Gateway is
// required.
type Dependencies struct {
	Gateway   gateway.Service
	Analytics analytics.Service
	Ingestor  analytics.Ingestor
	Auditor   *analytics.Auditor
}

type Server struct {
	router  *gin.Engine
	config  *config.Config
	logger  *zap.Logger
	deps    Dependencies
	limiter *middleware.RateLimiter
}

func New(cfg *config.Config, logger *zap.Logger, deps Dependencies) *Server {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	validator.InitValidator()

	if deps.Ingestor == nil {
		deps.Ingestor = analytics.NewNopIngestor()
	}
	if deps.Analytics == nil {
		deps.Analytics = analytics.NewService(logger, nil, nil)
	}
	if deps.Auditor == nil {
		deps.Auditor = analytics.NewAuditor(logger, nil)
	}

	engine := gin.New()

	engine.Use(middleware.RequestIDs())
	engine.Use(middleware.Logger(logger))
	engine.Use(middleware.Recovery(logger))
	if cfg.Tracing.Enabled {
		engine.Use(middleware.Tracing(cfg.Tracing.ServiceName))
	}

	s := &Server{
		router: engine,
		deps:   deps,
		logger: logger,
		config: cfg,
	}

	if cfg.RateLimit.Enabled {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, logger)
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts background housekeeping tied to ctx.
func (s *Server) Run(ctx context.Context) {
	if s.limiter != nil {
		go s.limiter.Janitor(ctx)
	}
}

// HTTPServer builds the listener. WriteTimeout stays zero since completions
// stream for as long as the runtime generates.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.config.Server.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: s.config.Server.ReadHeaderTimeout,
		IdleTimeout:       s.config.Server.IdleTimeout,
	}
}
