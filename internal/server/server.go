// Package server exposes verification over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ppiankov/checkmate/internal/logging"
	"github.com/ppiankov/checkmate/internal/model"
	"github.com/ppiankov/checkmate/internal/pipeline"
	"github.com/ppiankov/checkmate/internal/verify"
)

// RequestIDHeader carries the request id on responses
const RequestIDHeader = "X-Request-ID"

// ClaimVerifier resolves one claim
type ClaimVerifier interface {
	Verify(ctx context.Context, claim model.Claim, strategy verify.Strategy) model.VerificationResult
}

// TranscriptChecker runs the batch pipeline over a transcript
type TranscriptChecker interface {
	Run(ctx context.Context, transcript string, mode pipeline.Mode, strategy verify.Strategy) []model.VerificationResult
}

type verifyRequest struct {
	Claim    string `json:"claim" binding:"required"`
	Context  string `json:"context"`
	Strategy string `json:"strategy"`
}

type checkRequest struct {
	Transcript string `json:"transcript" binding:"required"`
	Mode       string `json:"mode"`
	Strategy   string `json:"strategy"`
}

// Server routes HTTP requests to the verifier and the pipeline
type Server struct {
	verifier ClaimVerifier
	checker  TranscriptChecker
	strategy verify.Strategy
	logger   *log.Logger
	engine   *gin.Engine
}

// New creates a server. strategy is used when a request does not name one.
func New(verifier ClaimVerifier, checker TranscriptChecker, strategy verify.Strategy, logger *log.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		verifier: verifier,
		checker:  checker,
		strategy: strategy,
		logger:   logging.OrDiscard(logger).WithPrefix("server"),
		engine:   gin.New(),
	}

	s.engine.Use(gin.Recovery(), s.requestID())
	s.engine.GET("/healthz", s.health)

	v1 := s.engine.Group("/v1")
	v1.POST("/claims/verify", s.verifyClaim)
	v1.POST("/transcripts/check", s.checkTranscript)

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)

		start := time.Now()
		c.Next()

		s.logger.Info("request",
			"id", id,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"took", time.Since(start).Round(time.Millisecond),
		)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) verifyClaim(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "message": err.Error()})
		return
	}
	if strings.TrimSpace(req.Claim) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "claim must not be blank"})
		return
	}

	strategy, ok := s.parseStrategy(c, req.Strategy)
	if !ok {
		return
	}

	claim := model.Claim{Text: strings.TrimSpace(req.Claim), Context: req.Context}
	c.JSON(http.StatusOK, s.verifier.Verify(c.Request.Context(), claim, strategy))
}

func (s *Server) checkTranscript(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "message": err.Error()})
		return
	}

	mode, err := pipeline.ParseMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	strategy, ok := s.parseStrategy(c, req.Strategy)
	if !ok {
		return
	}

	results := s.checker.Run(c.Request.Context(), req.Transcript, mode, strategy)
	if results == nil {
		results = []model.VerificationResult{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) parseStrategy(c *gin.Context, name string) (verify.Strategy, bool) {
	if strings.TrimSpace(name) == "" {
		return s.strategy, true
	}
	strategy, err := verify.ParseStrategy(name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return 0, false
	}
	return strategy, true
}
