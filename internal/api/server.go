// Package api provides the HTTP API of the news agent.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RobinCoderZhao/newsagent/internal/newsagent/pipeline"
	"github.com/RobinCoderZhao/newsagent/internal/newsagent/store"
)

// Submitter starts a report run in the background and returns its id.
type Submitter interface {
	Submit(req pipeline.Request) string
}

// RunLookup reads the run ledger.
type RunLookup interface {
	GetRun(ctx context.Context, id string) (*store.Run, error)
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
}

// Server holds the dependencies for the API.
type Server struct {
	runner Submitter
	runs   RunLookup
	logger *slog.Logger
}

// NewServer creates a new API Server. runs may be nil when the ledger is disabled.
func NewServer(runner Submitter, runs RunLookup) *Server {
	return &Server{
		runner: runner,
		runs:   runs,
		logger: slog.Default(),
	}
}

// Routes returns the configured gin engine for the API.
func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", s.handleHealth)

	agent := r.Group("/agent")
	agent.POST("/generate-ai-news", s.handleGenerate)
	agent.GET("/runs", s.handleListRuns)
	agent.GET("/runs/:id", s.handleGetRun)

	return r
}

// requestLogger logs each request through slog.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
		)
	}
}

// --- Helpers ---

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
