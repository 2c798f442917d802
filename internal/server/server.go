// Package server exposes crawls over HTTP.
//
// Routes:
//
//	GET /healthz                                   liveness and version
//	GET /graph?url=&raw_url=&ref=&manifest=&format= crawl and render on demand
//
// Every response carries an X-Request-ID header. Errors are JSON objects of
// the form {"error": {"code": ..., "message": ...}, "request_id": ...} with
// the HTTP status derived from the error code.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/reposgraph/pkg/buildinfo"
	"github.com/matzehuels/reposgraph/pkg/crawl"
	apperr "github.com/matzehuels/reposgraph/pkg/errors"
	"github.com/matzehuels/reposgraph/pkg/fetch"
	"github.com/matzehuels/reposgraph/pkg/render"
	"github.com/matzehuels/reposgraph/pkg/repos"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// DefaultCrawlTimeout bounds a single /graph request.
const DefaultCrawlTimeout = 5 * time.Minute

// Options configures a [Server].
type Options struct {
	Fetcher      fetch.Fetcher  // Required
	Deriver      repos.Deriver  // Default repos.DefaultDeriver()
	Render       render.Options // Label shortening for text formats
	Logger       *log.Logger    // Default discards
	CrawlTimeout time.Duration  // Default DefaultCrawlTimeout
	DefaultRef   string         // Used when neither raw_url nor ref is given; default "main"
}

// Server handles HTTP requests for dependency graphs.
type Server struct {
	opts    Options
	crawler *crawl.Crawler
	logger  *log.Logger
	router  chi.Router
}

// New creates a Server.
func New(opts Options) *Server {
	if opts.Deriver == (repos.Deriver{}) {
		opts.Deriver = repos.DefaultDeriver()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.CrawlTimeout <= 0 {
		opts.CrawlTimeout = DefaultCrawlTimeout
	}
	if opts.DefaultRef == "" {
		opts.DefaultRef = "main"
	}

	s := &Server{
		opts:    opts,
		crawler: crawl.New(opts.Fetcher, crawl.Options{Deriver: opts.Deriver, Logger: opts.Logger}),
		logger:  opts.Logger,
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)
	r.Get("/healthz", s.handleHealth)
	r.Get("/graph", s.handleGraph)
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Resolved(),
	})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	format, err := render.ValidateFormat(q.Get("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	root, err := s.root(q.Get("url"), q.Get("raw_url"), q.Get("ref"), q.Get("manifest"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.CrawlTimeout)
	defer cancel()

	res, err := s.crawler.Crawl(ctx, root)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = apperr.Wrap(apperr.ErrCodeTimeout, err, "crawl of %s exceeded %s", root.DisplayURL, s.opts.CrawlTimeout)
		}
		s.writeError(w, r, err)
		return
	}

	out, err := render.Render(ctx, res.Graph, format, s.opts.Render)
	if err != nil {
		s.writeError(w, r, apperr.Wrap(apperr.ErrCodeInternal, err, "render %s", format))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("X-Crawl-ID", res.ID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// root resolves query parameters to a crawl root. An explicit raw_url wins;
// otherwise the manifest URL is derived from url and ref.
func (s *Server) root(displayURL, rawURL, ref, manifest string) (crawl.Root, error) {
	if displayURL == "" {
		return crawl.Root{}, apperr.New(apperr.ErrCodeInvalidInput, "url parameter is required")
	}
	if err := apperr.ValidateURL(displayURL); err != nil {
		return crawl.Root{}, err
	}
	if rawURL != "" {
		if err := apperr.ValidateURL(rawURL); err != nil {
			return crawl.Root{}, err
		}
		return crawl.Root{DisplayURL: displayURL, RawURL: rawURL}, nil
	}

	if ref == "" {
		ref = s.opts.DefaultRef
	}
	if err := apperr.ValidateRef(ref); err != nil {
		return crawl.Root{}, err
	}
	d := s.opts.Deriver
	if manifest != "" {
		if err := apperr.ValidateManifestFilename(manifest); err != nil {
			return crawl.Root{}, err
		}
		d = d.WithManifest(manifest)
	}
	return crawl.Root{DisplayURL: displayURL, RawURL: d.RawURL(displayURL, ref)}, nil
}

type errorBody struct {
	Error     errorDetail `json:"error"`
	RequestID string      `json:"request_id,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		s.logger.Debug("client disconnected", "id", RequestIDFrom(r.Context()), "err", err)
		return
	}
	status := apperr.HTTPStatus(err)
	code := string(apperr.GetCode(err))
	if code == "" {
		code = string(apperr.ErrCodeInternal)
	}
	id := RequestIDFrom(r.Context())
	if status >= 500 {
		s.logger.Error("request failed", "id", id, "err", err)
	} else {
		s.logger.Debug("request rejected", "id", id, "err", err)
	}
	writeJSON(w, status, errorBody{
		Error:     errorDetail{Code: code, Message: apperr.UserMessage(err)},
		RequestID: id,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// =============================================================================
// Middleware
// =============================================================================

type ctxKey int

const requestIDKey ctxKey = 0

// requestID accepts a well-formed incoming X-Request-ID or generates one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// RequestIDFrom returns the request ID stored in ctx, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"id", RequestIDFrom(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond))
	})
}
