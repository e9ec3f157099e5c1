// Package api exposes the scan engine over HTTP. It owns nothing: the engine
// and job registry are injected, and every response is a straight mapping of
// the engine's two operations.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"lansweep/internal/scan"
)

const defaultTimeoutMs = 300

// Engine is the scan-engine surface the HTTP layer depends on.
type Engine interface {
	Start(cidr string, timeout time.Duration) string
	Progress(id string) (scan.JobProgress, error)
}

// Server bundles dependencies for the HTTP handlers.
type Server struct {
	engine Engine
	log    zerolog.Logger
}

// NewServer creates an API server around the given engine.
func NewServer(engine Engine, log zerolog.Logger) *Server {
	return &Server{engine: engine, log: log}
}

// Router builds a gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	router.POST("/api/scan/start", s.startHandler)
	router.GET("/api/scan/progress/:id", s.progressHandler)
	return router
}

func (s *Server) startHandler(c *gin.Context) {
	cidr := strings.TrimSpace(c.Query("cidr"))
	if cidr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cidr required"})
		return
	}

	timeoutMs, err := strconv.Atoi(c.DefaultQuery("timeoutMs", strconv.Itoa(defaultTimeoutMs)))
	if err != nil || timeoutMs <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timeoutMs must be a positive integer"})
		return
	}

	jobID := s.engine.Start(cidr, time.Duration(timeoutMs)*time.Millisecond)
	c.JSON(http.StatusOK, gin.H{"jobId": jobID})
}

func (s *Server) progressHandler(c *gin.Context) {
	progress, err := s.engine.Progress(c.Param("id"))
	if err != nil {
		if errors.Is(err, scan.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(started)).
			Msg("request")
	}
}
