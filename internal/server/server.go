// Package server wires the orchestration core into the HTTP API.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskhive/taskhive-backend/internal/server/config"
	"github.com/taskhive/taskhive-backend/internal/server/handlers"
	"github.com/taskhive/taskhive-backend/internal/server/middleware"
	"github.com/taskhive/taskhive-backend/pkg/logging"
)

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	logger     logging.Logger
}

// NewServer builds the router around the given handler set. The rate limiter
// is optional; without it admin routes are gated by the API key alone.
func NewServer(handler *handlers.Handler, rateLimiter *middleware.RateLimiter, logger logging.Logger) *Server {
	router := gin.New()

	srv := &Server{
		router: router,
		logger: logger,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", config.GetServerRPCPort()),
			Handler: router,
		},
	}

	srv.setupRoutes(handler, rateLimiter)
	return srv
}

func (s *Server) setupRoutes(handler *handlers.Handler, rateLimiter *middleware.RateLimiter) {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.LoggingMiddleware(s.logger))

	s.router.GET("/metrics", handler.HandleMetrics)
	s.router.GET("/status", handler.HandleStatus)

	api := s.router.Group("/api")
	{
		api.POST("/users", handler.RegisterUser)
		api.GET("/users/:id", handler.GetUser)
		api.GET("/leaderboard", handler.GetLeaderboard)

		api.GET("/tasks", handler.ListTasks)
		api.GET("/tasks/:id", handler.GetTask)
		api.POST("/tasks/:id/claim", handler.ClaimTask)

		api.POST("/submissions", handler.SubmitWork)
		api.GET("/submissions", handler.ListSubmissions)
		api.GET("/submissions/:id", handler.GetSubmission)

		api.GET("/payments", handler.ListPayments)
		api.GET("/payments/:id", handler.GetPayment)

		api.GET("/budget", handler.GetBudget)
	}

	auth := middleware.NewApiKeyAuth(config.GetAdminAPIKey(), rateLimiter, s.logger)
	admin := s.router.Group("/api/admin")
	admin.Use(auth.GinMiddleware())
	{
		admin.POST("/tasks", handler.CreateTask)
		admin.POST("/tasks/:id/cancel", handler.CancelTask)

		admin.POST("/verify", handler.VerifyAllSubmissions)
		admin.POST("/verify/:id", handler.VerifySubmission)

		admin.POST("/settle", handler.SettleAllPayments)
		admin.POST("/settle/:id", handler.SettlePayment)

		admin.POST("/budget/refresh", handler.RefreshBudget)
		admin.POST("/budget/claim", handler.ClaimRewards)
	}
}

// Start begins serving HTTP requests; it blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Infof("Starting HTTP server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
