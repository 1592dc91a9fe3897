// Package api exposes the deliberation service over HTTP: job submission,
// polling, and a health probe. Deliberations run in background goroutines;
// clients poll the job until it reaches a terminal status.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/deliberate-api/deliberate/internal/deliberation"
	"github.com/deliberate-api/deliberate/internal/job"
)

const defaultListLimit = 20

// Deliberator runs one deliberation to completion.
type Deliberator interface {
	Run(ctx context.Context, req deliberation.Request, onProgress deliberation.ProgressFunc) (*deliberation.DeliberationResult, error)
}

// Server wires the HTTP routes to the job store and the engine.
type Server struct {
	store         *job.Store
	engine        Deliberator
	defaultModels []string
	logger        *slog.Logger
}

// NewServer creates a server. defaultModels is the trio used when a request
// does not name its own.
func NewServer(store *job.Store, engine Deliberator, defaultModels []string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:         store,
		engine:        engine,
		defaultModels: defaultModels,
		logger:        logger,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	r.Use(cors.New(config))

	r.GET("/health", s.health)
	r.POST("/v1/deliberate", s.createDeliberation)
	r.GET("/v1/jobs/:id", s.getJob)
	r.GET("/v1/jobs", s.listJobs)

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) createDeliberation(c *gin.Context) {
	var req DeliberateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	models := req.Models
	if len(models) == 0 {
		models = s.defaultModels
	}

	j := s.store.Create(req.Thesis, req.Context, models)
	s.logger.Info("job created", "job_id", j.ID, "thesis", truncate(req.Thesis, 50))

	go s.runJob(j.ID)

	c.JSON(http.StatusAccepted, JobCreatedResponse{
		JobID:   j.ID,
		Status:  j.Status,
		PollURL: fmt.Sprintf("/v1/jobs/%s", j.ID),
	})
}

func (s *Server) getJob(c *gin.Context) {
	j, err := s.store.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, statusResponse(j))
}

func (s *Server) listJobs(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	jobs := s.store.List(limit)
	out := make([]JobStatusResponse, len(jobs))
	for i, j := range jobs {
		out[i] = statusResponse(j)
	}
	c.JSON(http.StatusOK, out)
}

// runJob drives one deliberation in the background. The engine itself does
// not fail once started; anything unexpected that escapes it is recovered
// here and recorded as a failed job rather than tearing the process down.
func (s *Server) runJob(id string) {
	logger := s.logger.With("job_id", id)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("deliberation panicked", "panic", r)
			s.store.Fail(id, fmt.Sprintf("internal error: %v", r))
		}
	}()

	j, err := s.store.Get(id)
	if err != nil {
		return
	}

	s.store.SetRunning(id)

	result, err := s.engine.Run(context.Background(), deliberation.Request{
		Thesis:  j.Thesis,
		Context: j.Context,
		Models:  j.Models,
	}, func(round int, status string) {
		s.store.SetRound(id, round)
		logger.Info("round starting", "round", round, "status", status)
	})
	if err != nil {
		logger.Error("deliberation failed", "error", err)
		s.store.Fail(id, err.Error())
		return
	}

	s.store.Complete(id, result)
	logger.Info("job completed", "verdict", truncate(result.Verdict, 50))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
