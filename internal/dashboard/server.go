package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/qepting91/caption-importer/internal/catalog"
	"github.com/qepting91/caption-importer/internal/domain"
	"github.com/qepting91/caption-importer/internal/metrics"
	"github.com/qepting91/caption-importer/internal/pipeline"
	"github.com/qepting91/caption-importer/internal/review"
)

type Refresher interface {
	Refresh(ctx context.Context, limit int) ([]domain.Candidate, error)
}

// Server exposes the charts, the review API and /metrics.
type Server struct {
	HistoryFile string
	FetchLimit  int

	Refresher Refresher
	Session   *review.Session
	Importer  *review.Importer
	Catalog   catalog.Store
	Metrics   *metrics.PipelineMetrics
	Logger    *slog.Logger
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.charts)
	mux.HandleFunc("GET /healthz", s.healthz)
	mux.HandleFunc("GET /api/drafts", s.listDrafts)
	mux.HandleFunc("POST /api/drafts/{id}/toggle", s.toggleDraft)
	mux.HandleFunc("PATCH /api/drafts/{id}", s.editDraft)
	mux.HandleFunc("POST /api/refresh", s.refresh)
	mux.HandleFunc("POST /api/import", s.importSelected)
	mux.HandleFunc("GET /api/products", s.listProducts)
	mux.Handle("GET /metrics", s.Metrics.Handler())
	return s.accessLog(mux)
}

// StartServer blocks until ctx is cancelled or the listener fails. Request
// contexts derive from ctx, so in-flight refreshes are cancelled on shutdown.
func StartServer(ctx context.Context, s *Server, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listDrafts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Session.Items())
}

func (s *Server) toggleDraft(w http.ResponseWriter, r *http.Request) {
	item, err := s.Session.Toggle(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) editDraft(w http.ResponseWriter, r *http.Request) {
	var patch review.DraftPatch
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	item, err := s.Session.Edit(r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	limit := s.FetchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	candidates, err := s.Refresher.Refresh(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.Session.Load(candidates)
	writeJSON(w, http.StatusOK, s.Session.Items())
}

func (s *Server) importSelected(w http.ResponseWriter, r *http.Request) {
	products, err := s.Importer.ImportSelected(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, products)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	products, err := s.Catalog.ListProducts(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrCredentials):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrNothingSelected):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrUpstreamFetch):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, pipeline.ErrClosed), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger().Error("Request failed", "status", status, "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger().Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.statusCode,
			"duration", time.Since(start),
		)
	})
}
