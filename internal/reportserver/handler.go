package reportserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"github.com/a-h/templ"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"editbench/internal/report"
)

// NewHandler builds the HTTP handler: a run index, per-run HTML and JSON
// pages, the history database, and server metrics.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.OutputDir == "" {
		return nil, errors.New("reportserver: output dir is required")
	}

	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "editbench_reportserver_requests_total",
		Help: "Report server requests by route and status class.",
	}, []string{"route", "code"})
	registry.MustRegister(requests)

	mux := http.NewServeMux()
	mux.Handle("GET /{$}", counted(requests, "index", serveIndex(cfg.OutputDir)))
	mux.Handle("GET /runs/{ref}", counted(requests, "run", serveRun(cfg.OutputDir)))
	mux.Handle("GET /runs/{ref}/results.json", counted(requests, "results", serveResults(cfg.OutputDir)))
	if cfg.HistoryDB != "" {
		mux.Handle("/data/history.duckdb", counted(requests, "history", serveDatabase(cfg.HistoryDB)))
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return mux, nil
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func counted(counter *prometheus.CounterVec, route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		counter.WithLabelValues(route, fmt.Sprintf("%dxx", rec.code/100)).Inc()
	})
}

// listRuns loads every stored report under outputDir, newest first.
func listRuns(outputDir string) ([]report.Report, error) {
	paths, err := filepath.Glob(filepath.Join(outputDir, "*", "*", report.ResultsFileName))
	if err != nil {
		return nil, err
	}
	runs := make([]report.Report, 0, len(paths))
	for _, path := range paths {
		result, err := report.Load(path)
		if err != nil {
			continue
		}
		runs = append(runs, result)
	}
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].RunID > runs[j].RunID
		}
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs, nil
}

func serveIndex(outputDir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		runs, err := listRuns(outputDir)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = indexPage(runs).Render(r.Context(), w)
	})
}

//go:generate templ generate

func runURL(run report.Report) templ.SafeURL {
	return templ.URL("/runs/" + url.PathEscape(run.RunID))
}

// resolve finds a run by id or fixture name; paths are not accepted.
func resolve(outputDir string, r *http.Request) (report.Report, bool) {
	result, _, err := report.ResolveStored(outputDir, r.PathValue("ref"))
	return result, err == nil
}

func serveRun(outputDir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result, ok := resolve(outputDir, r)
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = report.Page(result).Render(r.Context(), w)
	})
}

func serveResults(outputDir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result, ok := resolve(outputDir, r)
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(result)
	})
}

// serveDatabase serves the history database file for offline analysis.
func serveDatabase(dbPath string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if _, err := os.Stat(dbPath); err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		http.ServeFile(w, r, dbPath)
	})
}
