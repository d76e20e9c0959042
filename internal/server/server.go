// Package server exposes the XMLA Discover surface over HTTP/SOAP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/leapxmla/internal/catalog"
	"github.com/leapstack-labs/leapxmla/internal/rowset"
	"github.com/leapstack-labs/leapxmla/internal/session"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// DefaultCookieName names the cookie that pins a session for clients
// without SOAP session headers.
const DefaultCookieName = "leapxmla"

// Config holds configuration for the XMLA server.
type Config struct {
	Addr     string
	Engine   *rowset.Engine
	Sessions *session.Tracker

	// Catalog feeds the status page. Optional.
	Catalog *catalog.Factory

	// Watcher reloads the catalog while the server runs. Optional.
	Watcher *catalog.Watcher

	SessionSecret   string
	CookieName      string
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// Server is the XMLA HTTP server.
type Server struct {
	addr            string
	engine          *rowset.Engine
	sessions        *session.Tracker
	catalog         *catalog.Factory
	watcher         *catalog.Watcher
	cookies         *sessions.CookieStore
	cookieName      string
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// New creates a Server.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}

	cookies := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	cookies.MaxAge(int(cfg.Sessions.Timeout() / time.Second))
	cookies.Options.Path = "/"
	cookies.Options.HttpOnly = true
	cookies.Options.SameSite = http.SameSiteLaxMode

	return &Server{
		addr:            cfg.Addr,
		engine:          cfg.Engine,
		sessions:        cfg.Sessions,
		catalog:         cfg.Catalog,
		watcher:         cfg.Watcher,
		cookies:         cookies,
		cookieName:      cfg.CookieName,
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          cfg.Logger,
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		s.requestLogger,
		middleware.Recoverer,
	)

	r.Post("/xmla", s.handleXMLA)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/sessions", s.handleSessions)
	r.Handle("/metrics", promhttp.Handler())
	if s.catalog != nil {
		r.Get("/status", s.handleStatus)
		r.Get("/status/updates", s.handleStatusUpdates)
	}
	return r
}

// Serve runs the HTTP server, the session sweeper and the catalog watcher
// until ctx is cancelled or one of them fails.
func (s *Server) Serve(ctx context.Context) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		s.logger.Info("starting XMLA server", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		return s.sessions.Run(egctx)
	})

	if s.watcher != nil {
		eg.Go(func() error {
			return s.watcher.Run(egctx)
		})
	}

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down XMLA server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.sessions.Snapshot()); err != nil {
		s.logger.Warn("failed to encode sessions", "error", err)
	}
}

// requestLogger logs each request through the server logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", requestID(r))
		}()
		next.ServeHTTP(ww, r)
	})
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
