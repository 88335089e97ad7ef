// Package webserver serves the generated dashboard and the analysis results
// as a small read-only HTTP API.
package webserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"covidcli/internal/htmlgen"
	"covidcli/internal/report"
)

// Handler serves analysis artifacts from the reports and web directories.
// Results are read from disk on every request so a rerun of the pipeline is
// visible without restarting the server.
type Handler struct {
	reportsDir string
	webDir     string
	logger     *slog.Logger
}

// NewHandler creates a handler over the given artifact directories
func NewHandler(reportsDir, webDir string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		reportsDir: reportsDir,
		webDir:     webDir,
		logger:     logger.With("component", "webserver"),
	}
}

// NewRouter builds the chi router with the standard middleware chain
func NewRouter(h *Handler, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(StructuredLogger(logger))
	r.Use(Recoverer(logger))
	r.Use(Metrics)

	r.Get("/", h.Index)
	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/results", h.Results)
		r.Get("/weekly", h.Weekly)
		r.Get("/comparison", h.Comparison)
	})
	return r
}

// Index serves the generated dashboard page
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(h.webDir, htmlgen.IndexFilename))
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Results handles GET /api/results
func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	result, ok := h.loadResults(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, result)
}

// Weekly handles GET /api/weekly
func (h *Handler) Weekly(w http.ResponseWriter, r *http.Request) {
	result, ok := h.loadResults(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, result.Weekly)
}

// Comparison handles GET /api/comparison
func (h *Handler) Comparison(w http.ResponseWriter, r *http.Request) {
	result, ok := h.loadResults(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, result.Comparison)
}

func (h *Handler) loadResults(w http.ResponseWriter, r *http.Request) (*report.AnalysisResult, bool) {
	path := filepath.Join(h.reportsDir, report.JSONFilename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]interface{}{
				"error": "no analysis results, run the pipeline first",
			})
			return nil, false
		}
		h.logger.ErrorContext(r.Context(), "failed to read analysis results",
			"path", path, "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]interface{}{"error": "failed to read analysis results"})
		return nil, false
	}

	var result report.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to decode analysis results",
			"path", path, "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]interface{}{"error": "analysis results are corrupt"})
		return nil, false
	}
	return &result, true
}
