package server

import (
	"github.com/nulzo/prism-local/internal/server/middleware"
	v1 "github.com/nulzo/prism-local/internal/server/v1"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.ErrorHandler(s.logger))

	healthHandler := v1.NewHealthHandler(s.deps.Gateway)
	s.router.GET("/health", healthHandler.Health)

	api := s.router.Group("/v1")
	if s.limiter != nil {
		api.Use(s.limiter.Middleware())
	}
	{
		chatHandler := v1.NewChatHandler(s.deps.Gateway, s.deps.Ingestor, s.logger)
		api.POST("/chat/completions", chatHandler.CreateCompletion)
		api.POST("/models/:modelId/chat/completions", chatHandler.CreateCompletion)

		modelsHandler := v1.NewModelHandler(s.deps.Gateway, s.deps.Auditor)
		api.GET("/models", modelsHandler.ListModels)
		api.GET("/models/:modelId", modelsHandler.GetModel)
		api.DELETE("/models/:modelId", modelsHandler.DeleteModel)

		analyticsHandler := v1.NewAnalyticsHandler(s.deps.Analytics)
		api.GET("/analytics/usage", analyticsHandler.GetUsage)
		api.GET("/analytics/requests", analyticsHandler.GetRecentRequests)
	}
}
