// Package server exposes sessions, layouts and editor commands over HTTP.
//
// Every mutating endpoint loads the session, applies one editor command and
// saves the result only when the command applied; the response carries the
// new model and the applied flag. Errors are JSON {code, error} bodies.
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
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/choirstage/pkg/cache"
	"github.com/matzehuels/choirstage/pkg/core/layout"
	"github.com/matzehuels/choirstage/pkg/editor"
	"github.com/matzehuels/choirstage/pkg/session"
)

// Options configures a Server. Service is required; the rest default.
type Options struct {
	Service *session.Service
	Layouts *cache.Layouts
	Editor  *editor.Editor
	Metrics *Metrics
	Logger  *log.Logger

	// MaxBodyBytes limits request bodies (default 4 MiB).
	MaxBodyBytes int64

	// AutosaveDelay is the debounce of draft saves (default 2s).
	AutosaveDelay time.Duration
}

// Server is the HTTP API.
type Server struct {
	svc      *session.Service
	layouts  *cache.Layouts
	editor   *editor.Editor
	metrics  *Metrics
	logger   *log.Logger
	validate *validator.Validate
	maxBody  int64
	router   chi.Router

	autosaveDelay time.Duration
	draftMu       sync.Mutex
	drafts        map[string]*session.Autosaver
}

// New builds a server and its routes.
func New(opts Options) *Server {
	s := &Server{
		svc:      opts.Service,
		layouts:  opts.Layouts,
		editor:   opts.Editor,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		maxBody:  opts.MaxBodyBytes,

		autosaveDelay: opts.AutosaveDelay,
		drafts:        make(map[string]*session.Autosaver),
	}
	if s.layouts == nil {
		s.layouts = cache.NewLayouts(nil, nil, 0)
	}
	if s.editor == nil {
		s.editor = editor.New()
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.maxBody <= 0 {
		s.maxBody = 4 << 20
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) stage() layout.Stage {
	if s.editor.Stage.Width > 0 && s.editor.Stage.Height > 0 {
		return s.editor.Stage
	}
	return layout.DefaultStage
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(middleware.RequestSize(s.maxBody))

	r.Get("/healthz", s.health)
	r.Get("/version", s.version)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)

		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Put("/", s.saveSession)
			r.Delete("/", s.deleteSession)
			r.Get("/layout", s.getLayout)

			r.Get("/draft", s.getDraft)
			r.Put("/draft", s.saveDraft)
			r.Post("/draft/flush", s.flushDraft)

			r.Get("/orphans", s.getOrphans)
			r.Post("/orphans/reassign", s.reassignOrphans)
			r.Post("/orphans/discard", s.discardDangling)

			r.Post("/members", s.addMember)
			r.Delete("/members/{id}", s.removeMember)
			r.Delete("/sections/{id}", s.deleteSection)

			r.Route("/commands", func(r chi.Router) {
				r.Post("/move", s.moveBlock)
				r.Post("/resize", s.resizeBlock)
				r.Post("/assign", s.assignSeat)
				r.Post("/reorder", s.reorderBlock)
				r.Post("/drop", s.dropToken)
			})

			r.Route("/snapshots", func(r chi.Router) {
				r.Get("/", s.listSnapshots)
				r.Post("/", s.createSnapshot)
				r.Get("/{id}", s.getSnapshot)
				r.Delete("/{id}", s.deleteSnapshot)
				r.Post("/{id}/restore", s.restoreSnapshot)
			})
		})
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// RunOptions configures Run.
type RunOptions struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, opts RunOptions) error {
	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln, opts)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, opts RunOptions) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.closeDrafts(shutdownCtx)
	return err
}
