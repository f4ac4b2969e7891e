package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/forge/pkg/diagram"
	"github.com/matzehuels/forge/pkg/observability"
	"github.com/matzehuels/forge/pkg/pipeline"
)

// shutdownTimeout bounds how long in-flight requests may run after the
// serve context is cancelled.
const shutdownTimeout = 5 * time.Second

// Options configures a Server. Zero values select defaults.
type Options struct {
	// Runner parses and exports documents. Defaults to an uncached runner.
	Runner *pipeline.Runner

	// Serializer writes graphs back into documents. Defaults to the
	// standard skeleton.
	Serializer *diagram.Serializer

	// ReadOnly rejects PUT requests.
	ReadOnly bool

	Logger *log.Logger
}

// Server serves one workspace.
type Server struct {
	root     string
	runner   *pipeline.Runner
	ser      *diagram.Serializer
	readOnly bool
	logger   *log.Logger
	router   chi.Router

	// writeMu serializes read-modify-write cycles on documents.
	writeMu sync.Mutex
}

// New creates a server for the workspace at root.
func New(root string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	runner := opts.Runner
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, nil, logger)
	}
	ser := opts.Serializer
	if ser == nil {
		ser = diagram.NewSerializer(runner.Parser.Language, diagram.DefaultSkeleton())
	}

	s := &Server{
		root:     root,
		runner:   runner,
		ser:      ser,
		readOnly: opts.ReadOnly,
		logger:   logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/documents", s.handleDocuments)
		r.Get("/diagram", s.handleGetDiagram)
		r.Put("/diagram", s.handlePutDiagram)
		r.Get("/export", s.handleExport)
		r.Get("/shapes", s.handleShapes)
	})
	return r
}

// observe reports every request to the HTTP hooks and logs it at debug level.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", elapsed,
			"id", middleware.GetReqID(r.Context()))
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. ready, if non-nil, receives the bound address once the
// listener is open.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if ready != nil {
		ready(ln.Addr())
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// writeFile replaces a document, keeping its permissions.
func writeFile(path string, content string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(path, []byte(content), mode)
}
