package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"plansheet-cli/internal/catalog"
	"plansheet-cli/internal/store"
)

// ServerConfig configures the development section server.
type ServerConfig struct {
	Addr string
	// ReadOnly rejects every write with 403.
	ReadOnly bool
	// CSRFToken, when set, must be echoed in X-CSRFToken on every write.
	CSRFToken string
	// Projects limits which project ids exist. Empty allows any id.
	Projects []string
}

// Server serves section payloads from a catalog and persists rows in SQLite.
type Server struct {
	cfg     ServerConfig
	catalog *catalog.Catalog
	rows    *store.RowDB
	log     *slog.Logger
}

func NewServer(cfg ServerConfig, cat *catalog.Catalog, rows *store.RowDB, log *slog.Logger) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.CSRFToken = strings.TrimSpace(cfg.CSRFToken)
	if cat == nil {
		return nil, errors.New("web: catalog is nil")
	}
	if rows == nil {
		return nil, errors.New("web: row store is nil")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Server{cfg: cfg, catalog: cat, rows: rows, log: log}, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Route("/projects/{projectId}/sections/{sectionKey}", func(r chi.Router) {
		r.Use(s.requireProject)
		r.Get("/", s.handleSection)
		r.Group(func(r chi.Router) {
			r.Use(s.requireWritable)
			r.Post("/rows", s.handleRowCreate)
			r.Post("/rows/", s.handleRowCreate)
			// Singleton sections address their single record without an id.
			r.Put("/rows/", s.handleRowUpdate)
			r.Patch("/rows/", s.handleRowUpdate)
			r.Delete("/rows/", s.handleRowDelete)
			r.Put("/rows/{rowId}/", s.handleRowUpdate)
			r.Patch("/rows/{rowId}/", s.handleRowUpdate)
			r.Delete("/rows/{rowId}/", s.handleRowDelete)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
		)
	})
}

func (s *Server) requireProject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.cfg.Projects) > 0 {
			id := chi.URLParam(r, "projectId")
			found := false
			for _, p := range s.cfg.Projects {
				if p == id {
					found = true
					break
				}
			}
			if !found {
				writeError(w, http.StatusForbidden, "Forbidden")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireWritable(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.ReadOnly {
			writeError(w, http.StatusForbidden, "Editing not permitted")
			return
		}
		if s.cfg.CSRFToken != "" && r.Header.Get("X-CSRFToken") != s.cfg.CSRFToken {
			writeError(w, http.StatusForbidden, "CSRF verification failed.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
