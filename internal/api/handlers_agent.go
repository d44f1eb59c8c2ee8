package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/RobinCoderZhao/newsagent/internal/newsagent/pipeline"
	"github.com/RobinCoderZhao/newsagent/internal/newsagent/store"
)

type generateRequest struct {
	Period      string `json:"period"`
	CallbackURL string `json:"callbackUrl"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleGenerate accepts a report request and runs it in the background.
// The period format is checked by the run itself and reported via the callback.
func (s *Server) handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Period == "" {
		respondError(c, http.StatusBadRequest, "Missing required field: period")
		return
	}
	if req.CallbackURL == "" {
		respondError(c, http.StatusBadRequest, "Missing required field: callbackUrl")
		return
	}
	if u, err := url.Parse(req.CallbackURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		respondError(c, http.StatusBadRequest, "Invalid field: callbackUrl")
		return
	}

	id := s.runner.Submit(pipeline.Request{Period: req.Period, CallbackURL: req.CallbackURL})
	s.logger.Info("run accepted", "run_id", id, "period", req.Period)
	c.JSON(http.StatusAccepted, gin.H{"message": "Task accepted", "runId": id})
}

func (s *Server) handleGetRun(c *gin.Context) {
	if s.runs == nil {
		respondError(c, http.StatusNotFound, "run ledger disabled")
		return
	}
	run, err := s.runs.GetRun(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.logger.Error("get run failed", "error", err)
		respondError(c, http.StatusInternalServerError, "failed to load run")
		return
	}
	c.JSON(http.StatusOK, run)
}

// handleListRuns returns the most recent runs, newest first. ?limit caps the count.
func (s *Server) handleListRuns(c *gin.Context) {
	if s.runs == nil {
		respondError(c, http.StatusNotFound, "run ledger disabled")
		return
	}
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			respondError(c, http.StatusBadRequest, "Invalid query: limit must be between 1 and 100")
			return
		}
		limit = n
	}
	runs, err := s.runs.ListRuns(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("list runs failed", "error", err)
		respondError(c, http.StatusInternalServerError, "failed to load runs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
