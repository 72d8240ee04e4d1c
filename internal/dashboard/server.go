// Package dashboard serves the browser dashboard and its JSON API.
package dashboard

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"openlibrary-explorer/internal/explorer"
	"openlibrary-explorer/internal/logger"
	"openlibrary-explorer/internal/middleware"
	"openlibrary-explorer/internal/models"
)

//go:embed templates/index.html
var templateFS embed.FS

// DownloadFilename names the raw JSON attachment.
const DownloadFilename = "openlibrary-search.json"

// Runner processes one query.
type Runner interface {
	Run(ctx context.Context, query models.Query) (*models.Report, error)
}

// StatsReader answers popularity queries from the stats worker's store.
type StatsReader interface {
	Stats(ctx context.Context, n int) (models.QueryStats, error)
}

// DefaultPopular is how many popular queries /api/stats returns by default.
const DefaultPopular = 10

// Server holds the dashboard handlers.
type Server struct {
	runner Runner
	stats  StatsReader
	tmpl   *template.Template
}

// ServerOption customizes a Server.
type ServerOption func(*Server)

// WithStats enables GET /api/stats.
func WithStats(stats StatsReader) ServerOption {
	return func(s *Server) {
		s.stats = stats
	}
}

type pageData struct {
	Form           models.Query
	Facets         []models.Facet
	MinMatches     int
	Error          string
	Report         *models.Report
	WordsSpec      Spec
	CharactersSpec Spec
	DownloadURL    string
}

// NewServer parses the embedded page template.
func NewServer(runner Runner, opts ...ServerOption) (*Server, error) {
	tmpl, err := template.New("index.html").Funcs(template.FuncMap{
		"inc":  func(i int) int { return i + 1 },
		"join": func(items []string) string { return strings.Join(items, " · ") },
	}).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}
	srv := &Server{runner: runner, tmpl: tmpl}
	for _, opt := range opts {
		opt(srv)
	}
	return srv, nil
}

// Handler returns the routed handler wrapped in request-id and logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/search/download", s.handleDownload)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", handleHealth)
	return middleware.RequestID(middleware.RequestLogger(mux))
}

// ParseQuery reads the dashboard controls from URL parameters: q, space, matches and top.
// Missing numbers take their defaults; malformed ones are rejected.
func ParseQuery(values url.Values) (models.Query, error) {
	facet, err := models.ParseFacet(values.Get("space"))
	if err != nil {
		return models.Query{}, fmt.Errorf("%w: %v", models.ErrInvalidQuery, err)
	}
	limit, err := intParam(values, "matches", models.MinMatches)
	if err != nil {
		return models.Query{}, err
	}
	top, err := intParam(values, "top", models.DefaultTopWords)
	if err != nil {
		return models.Query{}, err
	}
	return models.Query{
		Text:     strings.TrimSpace(values.Get("q")),
		Facet:    facet,
		Limit:    limit,
		TopWords: top,
	}, nil
}

func intParam(values url.Values, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", models.ErrInvalidQuery, name)
	}
	return n, nil
}

// statusFor maps a pipeline error to an HTTP status.
func statusFor(err error) int {
	if errors.Is(err, models.ErrInvalidQuery) {
		return http.StatusBadRequest
	}
	if explorer.KindOf(err) == explorer.KindTransport {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func userMessage(err error) string {
	if errors.Is(err, models.ErrInvalidQuery) {
		return err.Error()
	}
	return "Open Library could not be reached. Please try again later."
}

// handleIndex renders the dashboard page. Without a query only the controls are shown.
//
// Method: GET
// Path:   /?q=...&space=Titles&matches=100&top=10
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data := pageData{
		Form:       models.Query{Facet: models.FacetAnywhere, Limit: models.MinMatches, TopWords: models.DefaultTopWords},
		Facets:     models.Facets,
		MinMatches: models.MinMatches,
	}
	status := http.StatusOK

	q, err := ParseQuery(r.URL.Query())
	switch {
	case err != nil:
		data.Error = err.Error()
		status = http.StatusBadRequest
	case q.Text != "":
		data.Form = q
		report, runErr := s.runner.Run(r.Context(), q)
		if runErr != nil {
			data.Error = userMessage(runErr)
			status = statusFor(runErr)
			break
		}
		data.Report = report
		data.WordsSpec = WordsChart(report)
		data.CharactersSpec = CharactersChart(report)
		data.DownloadURL = "/api/search/download?" + r.URL.RawQuery
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		logger.For(r.Context()).WithError(err).Error("render dashboard")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

type searchResponse struct {
	*models.Report
	Charts map[string]Spec `json:"charts,omitempty"`
}

// handleSearch runs a query and returns the report with its chart specs as JSON.
//
// Method: GET
// Path:   /api/search?q=...&space=...&matches=...&top=...
// Example:
//
//	curl "http://localhost:8080/api/search?q=dune&space=Titles"
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	report, ok := s.run(w, r)
	if !ok {
		return
	}

	resp := searchResponse{Report: report}
	if report.Warning == "" {
		resp.Charts = map[string]Spec{
			"top_words":  WordsChart(report),
			"characters": CharactersChart(report),
		}
	}
	writeJSON(w, resp, http.StatusOK)
}

// handleDownload returns the raw Open Library response as a JSON attachment.
//
// Method: GET
// Path:   /api/search/download?q=...&space=...&matches=...
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	report, ok := s.run(w, r)
	if !ok {
		return
	}
	if report.Warning != "" || len(report.RawJSON) == 0 {
		http.Error(w, report.Warning, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+DownloadFilename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report.RawJSON)
}

func (s *Server) run(w http.ResponseWriter, r *http.Request) (*models.Report, bool) {
	q, err := ParseQuery(r.URL.Query())
	if err == nil {
		var report *models.Report
		report, err = s.runner.Run(r.Context(), q)
		if err == nil {
			return report, true
		}
	}
	writeJSON(w, map[string]string{"error": userMessage(err)}, statusFor(err))
	return nil, false
}

// handleStats returns the most popular queries and outcome counts recorded by the stats worker.
//
// Method: GET
// Path:   /api/stats?n=10
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.stats == nil {
		writeJSON(w, map[string]string{"error": "query statistics are disabled"}, http.StatusNotFound)
		return
	}
	n, err := intParam(r.URL.Query(), "n", DefaultPopular)
	if err != nil || n < 0 {
		writeJSON(w, map[string]string{"error": "n must be a non-negative number"}, http.StatusBadRequest)
		return
	}
	stats, err := s.stats.Stats(r.Context(), n)
	if err != nil {
		logger.For(r.Context()).WithError(err).Warn("read query stats")
		writeJSON(w, map[string]string{"error": "query statistics are unavailable"}, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, stats, http.StatusOK)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func writeJSON(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
