// Package server exposes the report engine as a JSON HTTP API.
//
// Routes:
//
//	GET  /healthz
//	POST /reports/:kind            body: filter JSON; kind: worklogs|issues|projects|users
//	POST /aggregate?breakdown=b    body: filter JSON; b: none|project|issue|user
//	POST /links/:link              body: {"issue_ids": [...]}; link: components|affected_versions|fix_versions|all
//	GET  /pickers/:picker          ?project_ids=1,2; picker: projects|components|affected_versions|fix_versions|assignees|authors|epics
//
// Every request's project ids are narrowed to the caller's browsable
// projects before the engine sees them. The server adds no report semantics
// of its own.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/roach88/worklens/internal/report"
)

// ScopeResolver reports the project ids the caller may browse.
type ScopeResolver interface {
	BrowsableProjects(ctx context.Context) ([]int64, error)
}

// ScopeFunc adapts a function to ScopeResolver.
type ScopeFunc func(ctx context.Context) ([]int64, error)

// BrowsableProjects implements ScopeResolver.
func (f ScopeFunc) BrowsableProjects(ctx context.Context) ([]int64, error) {
	return f(ctx)
}

// AllProjects lets every caller browse every project in the store.
func AllProjects(e *report.Engine) ScopeResolver {
	return ScopeFunc(func(ctx context.Context) ([]int64, error) {
		projects, err := e.Projects(ctx)
		if err != nil {
			return nil, err
		}
		ids := make([]int64, len(projects))
		for i, p := range projects {
			ids[i] = p.ID
		}
		return ids, nil
	})
}

// Server serves the report API.
type Server struct {
	engine   *report.Engine
	scope    ScopeResolver
	log      zerolog.Logger
	maxLimit int64
	release  bool
}

// Option configures a Server.
type Option func(*Server)

// WithScope sets the scope resolver. Default: AllProjects.
func WithScope(r ScopeResolver) Option {
	return func(s *Server) {
		s.scope = r
	}
}

// WithLogger sets the access logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithMaxLimit caps report page sizes. A request without a limit, or with a
// larger one, gets max rows. Zero leaves pages unbounded.
func WithMaxLimit(max int64) Option {
	return func(s *Server) {
		s.maxLimit = max
	}
}

// WithReleaseMode puts gin in release mode.
func WithReleaseMode() Option {
	return func(s *Server) {
		s.release = true
	}
}

// New creates a server around e.
func New(e *report.Engine, opts ...Option) *Server {
	s := &Server{engine: e, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.scope == nil {
		s.scope = AllProjects(e)
	}
	return s
}

// Router builds the gin engine serving every route.
func (s *Server) Router() *gin.Engine {
	if s.release {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.accessLog)

	r.GET("/healthz", s.healthz)
	r.POST("/reports/:kind", s.report)
	r.POST("/aggregate", s.aggregate)
	r.POST("/links/:link", s.links)
	r.GET("/pickers/:picker", s.picker)

	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.log.Info().
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Int("status", c.Writer.Status()).
		Dur("duration", time.Since(start)).
		Msg("http")
}
