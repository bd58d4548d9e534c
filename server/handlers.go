package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"amazon-analyzer/insights"
	"amazon-analyzer/jobs"
	"amazon-analyzer/models"
	"amazon-analyzer/services"
	"amazon-analyzer/storage"
)

var safeNameRegexp = regexp.MustCompile(`^[\p{L}\p{N}_\-.]+$`)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// validName rejects anything that could escape the data directories.
func validName(name string) bool {
	return name != "" && !strings.Contains(name, "..") && safeNameRegexp.MatchString(name)
}

type searchRequest struct {
	SearchTerm string `json:"search_term"`
	NumPages   int    `json:"num_pages"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.SearchTerm = strings.TrimSpace(req.SearchTerm)
	if req.SearchTerm == "" {
		writeError(w, http.StatusBadRequest, "Please enter a search term")
		return
	}
	if req.NumPages <= 0 {
		req.NumPages = s.cfg.DefaultSearchPage
	}
	req.NumPages = min(max(req.NumPages, 1), maxPages)

	job, err := s.startScrapeJob(req.SearchTerm, req.NumPages)
	if errors.Is(err, jobs.ErrJobActive) {
		writeError(w, http.StatusConflict, "A job for this search is already running")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info("[server] Started job %s for %q (%d pages)", job.ID, job.SearchTerm, job.NumPages)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":     job.ID,
		"status_url": "/api/job-status/" + job.ID,
		"job":        job,
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("csv_file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file part")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !strings.HasSuffix(strings.ToLower(name), ".csv") || !validName(name) {
		writeError(w, http.StatusBadRequest, "Invalid file type. Please upload a CSV file.")
		return
	}

	if err := os.MkdirAll(s.cfg.RawDataDir, 0755); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	dst, err := os.Create(filepath.Join(s.cfg.RawDataDir, name))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_, copyErr := io.Copy(dst, file)
	closeErr := dst.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info("[server] Uploaded %s", name)
	s.respondAnalyzeExisting(w, name)
}

func (s *Server) handleAnalyzeExisting(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	if !validName(name) {
		writeError(w, http.StatusBadRequest, "invalid file name")
		return
	}
	s.respondAnalyzeExisting(w, name)
}

func (s *Server) respondAnalyzeExisting(w http.ResponseWriter, name string) {
	job, err := s.analyzeExisting(name)
	switch {
	case errors.Is(err, errFileNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, jobs.ErrJobActive):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error(), "job": job})
	default:
		writeJSON(w, http.StatusOK, job)
	}
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.cfg.RawDataDir)
	if err != nil && !os.IsNotExist(err) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	files := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".csv") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	writeJSON(w, http.StatusOK, map[string]any{"csv_files": files})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobs.List())
}

func (s *Server) handleClearJobs(w http.ResponseWriter, r *http.Request) {
	n := s.jobs.Clear()
	s.insightCache.Purge()
	s.logger.Info("[server] Cleared %d jobs", n)
	writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// completedJob looks up a finished job, writing a 404 when there is none.
func (s *Server) completedJob(w http.ResponseWriter, r *http.Request, what string) (jobs.Job, bool) {
	job, ok := s.jobs.Get(r.PathValue("id"))
	if !ok || job.Status != jobs.StatusCompleted {
		writeError(w, http.StatusNotFound, what+" not available")
		return jobs.Job{}, false
	}
	return job, true
}

func (s *Server) loadResult(w http.ResponseWriter, job jobs.Job) (*models.AnalysisResult, bool) {
	result, err := storage.ReadResultFile(job.ResultFile)
	if errors.Is(err, os.ErrNotExist) {
		writeError(w, http.StatusNotFound, "Analysis file not found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return result, true
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	job, ok := s.completedJob(w, r, "Analysis")
	if !ok {
		return
	}
	if result, ok := s.loadResult(w, job); ok {
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	job, ok := s.completedJob(w, r, "Analysis")
	if !ok {
		return
	}
	if result, ok := s.loadResult(w, job); ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"job":       job,
			"dashboard": services.BuildDashboard(result),
		})
	}
}

func (s *Server) handleRawData(w http.ResponseWriter, r *http.Request) {
	job, ok := s.completedJob(w, r, "Data")
	if !ok {
		return
	}

	records, err := storage.ReadRecordsFile(job.DataFile)
	if errors.Is(err, os.ErrNotExist) {
		writeError(w, http.StatusNotFound, "Data file not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []*models.RawRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleWebInsights(w http.ResponseWriter, r *http.Request) {
	job, ok := s.completedJob(w, r, "Analysis")
	if !ok {
		return
	}
	if s.insights == nil {
		writeError(w, http.StatusServiceUnavailable, "web insights are not configured")
		return
	}

	summary, hit := s.insightCache.Get(job.ID)
	cacheFile := s.insightsFile(job.ID)
	if !hit && storage.ReadJSONFile(cacheFile, &summary) != nil {
		raw, err := s.insights.ProductInsights(r.Context(), job.SearchTerm, 10)
		if err != nil {
			writeError(w, http.StatusBadGateway, "Error fetching web insights: "+err.Error())
			return
		}
		summary = *insights.FormatInsights(raw)
		if err := storage.WriteJSONFile(cacheFile, summary); err != nil {
			s.logger.Warn("[server] Could not cache insights for %s: %v", job.ID, err)
		}
	}
	s.insightCache.Add(job.ID, summary)

	resp := map[string]any{"job": job, "web_insights": summary}
	if result, err := storage.ReadResultFile(job.ResultFile); err == nil {
		resp["dashboard"] = services.BuildDashboard(result)
	}
	writeJSON(w, http.StatusOK, resp)
}

type compareRequest struct {
	Product1 string `json:"product1"`
	Product2 string `json:"product2"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Product1, req.Product2 = strings.TrimSpace(req.Product1), strings.TrimSpace(req.Product2)
	if req.Product1 == "" || req.Product2 == "" {
		writeError(w, http.StatusBadRequest, "Please enter both product names")
		return
	}
	if s.insights == nil {
		writeError(w, http.StatusServiceUnavailable, "web insights are not configured")
		return
	}

	comparison, err := s.insights.CompareProducts(r.Context(), req.Product1, req.Product2)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Error comparing products: "+err.Error())
		return
	}

	cacheName := jobs.NewJobID(req.Product1+" "+req.Product2, s.now())
	if err := storage.WriteJSONFile(filepath.Join(s.cfg.ProcessedDataDir, "comparison_"+cacheName+".json"), comparison); err != nil {
		s.logger.Warn("[server] Could not cache comparison: %v", err)
	}
	writeJSON(w, http.StatusOK, comparison)
}

func (s *Server) handleDownloadData(w http.ResponseWriter, r *http.Request) {
	job, ok := s.completedJob(w, r, "Data")
	if !ok {
		return
	}
	serveAttachment(w, r, job.DataFile, "text/csv", "amazon_products_"+underscored(job.SearchTerm)+".csv")
}

func (s *Server) handleDownloadAnalysis(w http.ResponseWriter, r *http.Request) {
	job, ok := s.completedJob(w, r, "Analysis")
	if !ok {
		return
	}
	serveAttachment(w, r, job.ResultFile, "application/json", "amazon_analysis_"+underscored(job.SearchTerm)+".json")
}

func serveAttachment(w http.ResponseWriter, r *http.Request, path, contentType, name string) {
	f, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func underscored(s string) string {
	return strings.Join(strings.Fields(s), "_")
}
