// Package http exposes the workflow service over a REST API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/inkforge/contentflow/internal/config"
	"github.com/inkforge/contentflow/pkg/models"
	"github.com/inkforge/contentflow/pkg/service"
)

// Server hosts the workflow REST API on top of a WorkflowService.
type Server struct {
	svc    *service.WorkflowService
	cfg    *config.Settings
	logger service.Logger
	http   *http.Server
}

func NewServer(svc *service.WorkflowService, cfg *config.Settings, logger service.Logger) *Server {
	return &Server{svc: svc, cfg: cfg, logger: logger}
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))

	r.GET("/health", s.health)

	wf := r.Group("/workflow")
	wf.Use(apiKeyAuth(s.cfg))
	wf.Use(rateLimit(s.cfg))
	{
		wf.POST("/create-workflow", s.createWorkflow)
		wf.POST("/execute-workflow/:workflow_id", s.executeWorkflow)
		wf.GET("/workflow-status/:workflow_id", s.workflowStatus)
		wf.POST("/update-workflow", s.updateWorkflow)
		wf.GET("/list-workflows", s.listWorkflows)
		wf.DELETE("/cleanup-workflow/:workflow_id", s.cleanupWorkflow)
		wf.GET("/statistics", s.statistics)
	}
	return r
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.http = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Starting HTTP server on %s", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Infof("Shutting down HTTP server")
		return s.http.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) createWorkflow(c *gin.Context) {
	var req models.WorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	state, err := s.svc.CreateWorkflow(req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.NewWorkflowResponse(state))
}

func (s *Server) executeWorkflow(c *gin.Context) {
	state, err := s.svc.ExecuteWorkflow(c.Request.Context(), c.Param("workflow_id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewWorkflowResponse(state))
}

func (s *Server) workflowStatus(c *gin.Context) {
	state, err := s.svc.GetWorkflowStatus(c.Param("workflow_id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewWorkflowResponse(state))
}

func (s *Server) updateWorkflow(c *gin.Context) {
	var req models.WorkflowUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	state, err := s.svc.UpdateWorkflow(req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewWorkflowResponse(state))
}

func (s *Server) listWorkflows(c *gin.Context) {
	states, err := s.svc.ListWorkflows()
	if err != nil {
		s.writeError(c, err)
		return
	}
	responses := make([]models.WorkflowResponse, 0, len(states))
	for _, state := range states {
		responses = append(responses, models.NewWorkflowResponse(state))
	}
	c.JSON(http.StatusOK, gin.H{
		"workflows": responses,
		"total":     len(responses),
	})
}

func (s *Server) cleanupWorkflow(c *gin.Context) {
	workflowID := c.Param("workflow_id")
	if err := s.svc.CleanupWorkflow(workflowID); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"workflow_id": workflowID,
		"status":      "deleted",
	})
}

func (s *Server) statistics(c *gin.Context) {
	stats, err := s.svc.Statistics()
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// writeError maps service errors onto HTTP status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWorkflowNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.logger.Errorf("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func requestLogger(logger service.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Infof("%s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
