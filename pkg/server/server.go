// Package server exposes shapes, rendered stills and live sessions over
// HTTP.
//
// # Routes
//
//	GET    /healthz
//	GET    /api/stats
//	GET    /api/shapes
//	GET    /api/shapes/{shape}/cloud
//	GET    /api/shapes/{shape}/render.{format}
//	GET    /api/sessions
//	POST   /api/sessions
//	GET    /api/sessions/{id}
//	DELETE /api/sessions/{id}
//	GET    /api/sessions/{id}/cloud
//	POST   /api/sessions/{id}/samples
//	GET    /api/sessions/{id}/ws
//
// The WebSocket streams frames of a session and accepts samples, shape
// switches and pointer moves; see [Message].
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/particula/pkg/errors"
	"github.com/matzehuels/particula/pkg/observability"
	"github.com/matzehuels/particula/pkg/pipeline"
	"github.com/matzehuels/particula/pkg/session"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = "127.0.0.1:8080"

const (
	shutdownTimeout = 5 * time.Second
	maxBodyBytes    = 1 << 20
)

// Options configures a Server.
type Options struct {
	Addr     string
	Runner   *pipeline.Runner
	Sessions *session.Store

	// Session is the template for new sessions.
	Session session.Options

	// Render holds defaults for the render endpoints. Query parameters
	// override them per request.
	Render pipeline.Options

	Logger *log.Logger

	// Metrics backs /api/stats. Nil serves an empty snapshot.
	Metrics *observability.Counters

	// CheckOrigin vets WebSocket upgrades. Nil accepts same-origin requests
	// only.
	CheckOrigin func(r *http.Request) bool
}

// Server is the frame server.
type Server struct {
	addr     string
	runner   *pipeline.Runner
	sessions *session.Store
	logger   *log.Logger
	metrics  *observability.Counters
	upgrader websocket.Upgrader
	router   chi.Router

	mu          sync.RWMutex
	sessionOpts session.Options
	renderOpts  pipeline.Options
}

// New creates a server. A nil Runner or Store is replaced with an
// uncached runner and a default store.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, logger)
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewStore(0, 0, logger)
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewCounters()
	}

	s := &Server{
		addr:        opts.Addr,
		runner:      opts.Runner,
		sessions:    opts.Sessions,
		logger:      logger,
		metrics:     opts.Metrics,
		sessionOpts: opts.Session,
		renderOpts:  opts.Render,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 64 << 10,
			CheckOrigin:     opts.CheckOrigin,
		},
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Route("/shapes", func(r chi.Router) {
			r.Get("/", s.handleShapes)
			r.Get("/{shape}/cloud", s.handleShapeCloud)
			r.Get("/{shape}/render.{format}", s.handleRender)
		})
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Get("/cloud", s.handleSessionCloud)
				r.Post("/samples", s.handleSample)
				r.Get("/ws", s.handleWebSocket)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// SetDefaults replaces the templates used for new sessions and render
// requests. Running sessions are unaffected.
func (s *Server) SetDefaults(sess session.Options, rend pipeline.Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionOpts = sess
	s.renderOpts = rend
}

func (s *Server) defaults() (session.Options, pipeline.Options) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionOpts, s.renderOpts
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "listen on %s", s.addr)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. Open WebSockets are closed through the request context.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeNetwork, err, "serve")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(errors.ErrCodeTimeout, err, "shutdown")
	}
	<-errc
	s.logger.Info("server stopped")
	return nil
}
