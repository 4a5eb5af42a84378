// Package server exposes the published catalog and run history over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/beer-registry/internal/catalog"
	"github.com/sells-group/beer-registry/internal/model"
	"github.com/sells-group/beer-registry/internal/report"
	"github.com/sells-group/beer-registry/internal/store"
)

// Server serves the catalog API and the static build directory.
type Server struct {
	store     store.Store
	staticDir string
}

// New creates a Server. st may be nil, in which case /api/catalog falls back
// to the JSON snapshot in staticDir and the run routes answer 503. An empty
// staticDir disables static files.
func New(st store.Store, staticDir string) *Server {
	return &Server{store: st, staticDir: staticDir}
}

// CatalogResponse is the body of GET /api/catalog.
type CatalogResponse struct {
	RunID     string            `json:"run_id"`
	CreatedAt time.Time         `json:"created_at"`
	Total     int               `json:"total"`
	Groups    []model.DateGroup `json:"groups"`
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.getCatalog)
		r.Group(func(r chi.Router) {
			r.Use(s.requireStore)
			r.Get("/runs", s.listRuns)
			r.Get("/runs/{id}", s.getRun)
		})
	})

	if s.staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.staticDir)))
	}
	return r
}

func (s *Server) requireStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			writeError(w, http.StatusServiceUnavailable, "persistence is disabled")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getCatalog(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.getSnapshotCatalog(w)
		return
	}

	c, err := s.store.LatestCatalog(r.Context())
	if err != nil {
		zap.L().Error("server: latest catalog", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load catalog")
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "no catalog has been built yet")
		return
	}
	writeJSON(w, http.StatusOK, CatalogResponse{
		RunID:     c.RunID,
		CreatedAt: c.CreatedAt,
		Total:     len(c.Products),
		Groups:    catalog.GroupByDate(c.Products),
	})
}

// getSnapshotCatalog serves the catalog from the last published snapshot.
func (s *Server) getSnapshotCatalog(w http.ResponseWriter) {
	if s.staticDir == "" {
		writeError(w, http.StatusServiceUnavailable, "persistence is disabled")
		return
	}

	path := filepath.Join(s.staticDir, report.SnapshotFile)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		writeError(w, http.StatusNotFound, "no catalog has been built yet")
		return
	}
	var groups map[string][]model.Product
	if err == nil {
		groups, err = report.ReadSnapshot(path)
	}
	if err != nil {
		zap.L().Error("server: read snapshot", zap.String("path", path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load catalog")
		return
	}

	var products []model.Product
	for _, group := range groups {
		products = append(products, group...)
	}
	catalog.Sort(products)

	writeJSON(w, http.StatusOK, CatalogResponse{
		CreatedAt: info.ModTime().UTC(),
		Total:     len(products),
		Groups:    catalog.GroupByDate(products),
	})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{Status: model.RunStatus(r.URL.Query().Get("status"))}
	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := r.URL.Query().Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid "+key)
			return
		}
		*dst = n
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("server: list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		zap.L().Error("server: get run", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
