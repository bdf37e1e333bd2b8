package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/leapfxp/gamenight/internal/credentials"
	"github.com/leapfxp/gamenight/internal/evasion"
	"github.com/leapfxp/gamenight/internal/gamenight"
	"github.com/leapfxp/gamenight/internal/handler/health"
	"github.com/leapfxp/gamenight/internal/oracle"
	"github.com/leapfxp/gamenight/internal/quiz"
	"github.com/leapfxp/gamenight/internal/session"
	"github.com/leapfxp/gamenight/internal/storyhunt"
	"github.com/leapfxp/gamenight/internal/teams"
)

// Deps is everything the gateway routes requests to.
type Deps struct {
	Logger      *slog.Logger
	Session     *session.Authority
	Credentials *credentials.Store
	Teams       *teams.Registry
	Status      gamenight.Status
	Broker      *Broker

	Oracle    *oracle.Engine
	Quiz      *quiz.Engine
	Evasion   *evasion.Engine
	PixelFog  *evasion.Feed
	StoryHunt *storyhunt.Engine

	UploadDir      string
	MaxUploadBytes int64
	HealthChecks   map[string]health.Checker
}

type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

func New(addr string, d Deps) *Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(d),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	// Shutdown waits for active requests, and SSE streams never end on
	// their own.
	srv.RegisterOnShutdown(d.Broker.Close)

	return &Server{srv: srv, logger: d.Logger}
}

func newRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(d.Logger))
	r.Use(middleware.Recoverer)

	addRoutes(r, d)
	return r
}

// Run serves until Shutdown is called. ctx only bounds binding the
// listener.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", s.srv.Addr, err)
	}
	s.logger.Debug("http listener bound", "addr", ln.Addr().String())

	if err := s.srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("http server did not drain", "error", err)
		return err
	}
	return nil
}

// newStructuredLogger logs one line per request. Server errors log at ERROR,
// client errors at WARN, and health probes only at DEBUG.
func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				level := slog.LevelInfo
				switch {
				case status >= http.StatusInternalServerError:
					level = slog.LevelError
				case status >= http.StatusBadRequest:
					level = slog.LevelWarn
				case strings.HasPrefix(r.URL.Path, "/healthz"):
					level = slog.LevelDebug
				}
				logger.LogAttrs(r.Context(), level, "http request",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status", status),
					slog.Int("bytes", ww.BytesWritten()),
					slog.Int64("duration_ms", time.Since(start).Milliseconds()),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
