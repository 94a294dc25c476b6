package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"codescope/internal/ai"
	"codescope/internal/analysis"
	"codescope/internal/cache"
	"codescope/internal/report"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProcessCodeRequest is the analyze-and-fix submission.
type ProcessCodeRequest struct {
	Code       string `json:"code" binding:"required"`
	TargetLang string `json:"target_lang"`
}

// ChatRequest is a free-form assistant question with optional editor context.
type ChatRequest struct {
	Message     string `json:"message" binding:"required"`
	CodeContext string `json:"code_context"`
}

// CreateProjectRequest saves a named piece of code.
type CreateProjectRequest struct {
	Name     string `json:"name" binding:"required"`
	Code     string `json:"code" binding:"required"`
	Language string `json:"language"`
}

// FavoriteRequest toggles the favorite flag.
type FavoriteRequest struct {
	Favorite *bool `json:"favorite" binding:"required"`
}

// Health reports service and backing-store status.
func (s *Server) Health(c *gin.Context) {
	dbStatus := "connected"
	if s.health != nil {
		if err := s.health.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
				"details":  err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": dbStatus,
	})
}

// ProcessCode runs the structured code-analysis task through the fallback
// orchestrator and returns the normalized analysis record.
func (s *Server) ProcessCode(c *gin.Context) {
	var req ProcessCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cacheKey := cache.Key(req.Code, req.TargetLang)
	if s.cache != nil {
		if cached, ok := s.cache.Get(c.Request.Context(), cacheKey); ok {
			// Same payload shape as the uncached path; the winning model is
			// not stored with the report, so the tag names the cache itself.
			c.JSON(http.StatusOK, gin.H{
				"status": "success",
				"cached": true,
				"model":  "cache",
				"report": cached,
			})
			return
		}
	}

	result, err := s.runner.Run(c.Request.Context(), &ai.Request{
		Prompt: analysis.BuildAnalysisPrompt(req.Code, req.TargetLang),
		Shape:  ai.ShapeStructured,
	})
	if err != nil {
		s.respondOrchestrationError(c, err)
		return
	}

	// Best-effort side effects: neither the snapshot insert nor the cache
	// write may invalidate the result we already have.
	if _, err := s.store.InsertCodeSnapshot(req.Code, result.Report.DetectedLanguage); err != nil {
		s.logger.Warn("failed to save code snapshot", zap.Error(err))
	}
	if s.cache != nil {
		s.cache.Set(c.Request.Context(), cacheKey, result.Report)
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"model":  result.Candidate,
		"report": result.Report,
	})
}

// AIChat answers a free-form question. On success the (message, reply) pair
// is appended to the persistent transcript; that write is best-effort and a
// failure never alters the success payload.
func (s *Server) AIChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.runner.Run(c.Request.Context(), &ai.Request{
		Prompt: analysis.BuildChatPrompt(req.Message, req.CodeContext),
		Shape:  ai.ShapeText,
	})
	if err != nil {
		s.respondOrchestrationError(c, err)
		return
	}

	if err := s.store.AppendChat(req.Message, result.Text); err != nil {
		s.logger.Warn("failed to persist chat message", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"model":  result.Candidate,
		"reply":  result.Text,
	})
}

// GeneratePDF renders the submitted report fields as a PDF byte stream.
func (s *Server) GeneratePDF(c *gin.Context) {
	var fields report.Fields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pdfBytes, err := report.Render(&fields)
	if err != nil {
		s.logger.Error("PDF rendering failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate PDF"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="analysis_report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// CreateProject saves a named project.
func (s *Server) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := s.store.InsertProject(req.Name, req.Code, req.Language)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save project"})
		return
	}
	c.JSON(http.StatusCreated, project)
}

// ListProjects returns all saved projects in insertion order.
func (s *Server) ListProjects(c *gin.Context) {
	projects, err := s.store.ListProjects()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list projects"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// SetFavorite toggles the favorite flag on a project.
func (s *Server) SetFavorite(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.store.SetFavorite(uint(id), *req.Favorite); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update project"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// DeleteProject removes a project.
func (s *Server) DeleteProject(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	if err := s.store.DeleteProject(uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete project"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// LatestSnapshot returns the most recent code snapshot.
func (s *Server) LatestSnapshot(c *gin.Context) {
	snapshot, err := s.store.LatestSnapshot()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no snapshots saved"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load snapshot"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// ListChat returns the persistent chat transcript in insertion order.
func (s *Server) ListChat(c *gin.Context) {
	messages, err := s.store.ListChat()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list chat messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// respondOrchestrationError maps orchestrator failures onto the HTTP surface.
// Roster exhaustion is a service-busy condition carrying the last underlying
// error text.
func (s *Server) respondOrchestrationError(c *gin.Context, err error) {
	if errors.Is(err, ai.ErrRosterExhausted) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": fmt.Sprintf("all models busy: %v", err),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
