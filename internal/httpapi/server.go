// Package httpapi serves study-plan generation and progress tracking over
// HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/handlers"

	"github.com/felixgeelhaar/studyplan/internal/intake"
	"github.com/felixgeelhaar/studyplan/internal/memory"
	"github.com/felixgeelhaar/studyplan/internal/observe"
	"github.com/felixgeelhaar/studyplan/internal/orchestrate"
	"github.com/felixgeelhaar/studyplan/internal/session"
)

// DefaultUserID owns sessions created without an explicit user_id.
const DefaultUserID = "web_user"

// Planner is the orchestrator surface the API drives.
type Planner interface {
	Process(ctx context.Context, req orchestrate.Request) (*orchestrate.Result, error)
	MarkProgress(ctx context.Context, sessionID, topic string) error
	UnmarkProgress(ctx context.Context, sessionID, topic string) (bool, error)
	Progress(ctx context.Context, sessionID string) (*session.Session, session.Stats, error)
}

// SessionLister lists a user's sessions, newest first.
type SessionLister interface {
	List(ctx context.Context, userID string) ([]*session.Session, error)
}

// HistoryReader returns a user's long-term history.
type HistoryReader interface {
	History(ctx context.Context, userID string) (memory.History, error)
}

// Config is the dependency bag passed to New.
type Config struct {
	Planner  Planner
	Sessions SessionLister
	History  HistoryReader
	Observer *observe.Observer
	Policy   *intake.Policy

	Port            int
	Mode            string
	RateLimitPerMin int
	AllowedOrigins  []string
}

type Server struct {
	planner  Planner
	sessions SessionLister
	history  HistoryReader
	obs      *observe.Observer
	policy   intake.Policy
	limiter  *rateLimiter
	engine   *gin.Engine
	handler  http.Handler
	port     int
}

func New(cfg Config) (*Server, error) {
	switch {
	case cfg.Planner == nil:
		return nil, errors.New("httpapi: planner is required")
	case cfg.Sessions == nil:
		return nil, errors.New("httpapi: session lister is required")
	case cfg.History == nil:
		return nil, errors.New("httpapi: history reader is required")
	}

	mode := cfg.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	s := &Server{
		planner:  cfg.Planner,
		sessions: cfg.Sessions,
		history:  cfg.History,
		obs:      cfg.Observer,
		policy:   intake.DefaultPolicy,
		engine:   gin.New(),
		port:     cfg.Port,
	}
	if s.obs == nil {
		s.obs = observe.Nop()
	}
	if cfg.Policy != nil {
		s.policy = *cfg.Policy
	}
	if cfg.RateLimitPerMin > 0 {
		s.limiter = newRateLimiter(cfg.RateLimitPerMin)
	}

	s.engine.Use(gin.Recovery(), s.accessLog())
	s.routes()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(s.engine)
	return s, nil
}

func (s *Server) routes() {
	s.engine.GET("/health", s.health)
	s.engine.POST("/generate", s.rateLimit(), s.generate)
	s.engine.POST("/progress/:session_id", s.progress)
	s.engine.GET("/session/:session_id", s.getSession)
	s.engine.GET("/session/:session_id/markdown", s.sessionMarkdown)
	s.engine.GET("/sessions/list/:user_id", s.listSessions)
	s.engine.GET("/history/:user_id", s.getHistory)
}

// Handler returns the CORS-wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.obs.Log().Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Int("duration_ms", int(time.Since(start).Milliseconds())).
			Msg("request")
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// generation waits on three model calls
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.obs.Log().Info().Str("addr", ln.Addr().String()).Msg("web API listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.obs.Log().Info().Msg("shutting down web API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	return nil
}
