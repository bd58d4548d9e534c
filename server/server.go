// Package server exposes jobs, analysis results and dashboard views as a
// JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"amazon-analyzer/config"
	"amazon-analyzer/insights"
	"amazon-analyzer/jobs"
	"amazon-analyzer/models"
	"amazon-analyzer/services"
	"amazon-analyzer/utils"
)

// Scraper produces raw records for a search term.
type Scraper interface {
	Scrape(ctx context.Context, term string, pages int, progress func(float64)) ([]*models.RawRecord, error)
}

// InsightsProvider fetches web context for products.
type InsightsProvider interface {
	ProductInsights(ctx context.Context, product string, num int) (*insights.ProductInsights, error)
	CompareProducts(ctx context.Context, a, b string) (*insights.Comparison, error)
}

const (
	maxPages       = 20
	maxUploadBytes = 32 << 20

	insightCacheSize = 256
	insightCacheTTL  = 15 * time.Minute
)

type Server struct {
	cfg      *config.Config
	logger   *utils.Logger
	jobs     *jobs.Registry
	analyzer *services.Analyzer
	scraper  Scraper
	insights InsightsProvider

	// Front of the on-disk insights cache, keyed by job ID.
	insightCache *expirable.LRU[string, insights.Summary]

	now func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New wires a Server. scraper and provider may be nil: scrape jobs then fail
// and the insight endpoints answer 503.
func New(cfg *config.Config, logger *utils.Logger, registry *jobs.Registry, analyzer *services.Analyzer,
	scraper Scraper, provider InsightsProvider) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:      cfg,
		logger:   logger,
		jobs:     registry,
		analyzer: analyzer,
		scraper:  scraper,
		insights: provider,

		insightCache: expirable.NewLRU[string, insights.Summary](insightCacheSize, nil, insightCacheTTL),

		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/search", s.handleSearch)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("POST /api/analyze/{filename}", s.handleAnalyzeExisting)
	mux.HandleFunc("GET /api/files", s.handleListFiles)

	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("DELETE /api/jobs", s.handleClearJobs)
	mux.HandleFunc("GET /api/job-status/{id}", s.handleJobStatus)

	mux.HandleFunc("GET /api/analysis/{id}", s.handleAnalysis)
	mux.HandleFunc("GET /api/data/{id}", s.handleRawData)
	mux.HandleFunc("GET /api/dashboard/{id}", s.handleDashboard)
	mux.HandleFunc("GET /api/web-insights/{id}", s.handleWebInsights)
	mux.HandleFunc("POST /api/compare", s.handleCompare)

	mux.HandleFunc("GET /download/data/{id}", s.handleDownloadData)
	mux.HandleFunc("GET /download/analysis/{id}", s.handleDownloadAnalysis)

	return s.logRequests(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down and stops
// background jobs.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[server] Listening on %s", s.cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listen: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("[server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	if err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// Close cancels running jobs and waits for them to exit.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("[server] %s %s %d (%v)", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) dataFile(id string) string {
	return filepath.Join(s.cfg.RawDataDir, id+"_data.csv")
}

func (s *Server) resultFile(id string) string {
	return filepath.Join(s.cfg.ProcessedDataDir, id+"_analysis.json")
}

func (s *Server) insightsFile(id string) string {
	return filepath.Join(s.cfg.ProcessedDataDir, id+"_web_insights.json")
}
