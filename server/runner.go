package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"amazon-analyzer/jobs"
	"amazon-analyzer/models"
	"amazon-analyzer/storage"
)

var errFileNotFound = errors.New("csv file not found")

// startScrapeJob registers a job and runs it in the background.
func (s *Server) startScrapeJob(term string, pages int) (jobs.Job, error) {
	id := jobs.NewJobID(term, s.now())
	job, err := s.jobs.Create(jobs.Job{ID: id, SearchTerm: term, NumPages: pages})
	if err != nil {
		return jobs.Job{}, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runScrapeJob(job.ID, term, pages)
	}()
	return job, nil
}

// runScrapeJob scrapes into the raw CSV, then analyzes it. Scraping covers
// the first half of the progress bar and analysis the second.
func (s *Server) runScrapeJob(id, term string, pages int) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("[server] Job %s panicked: %v", id, r)
			_ = s.jobs.Fail(id, fmt.Errorf("internal error: %v", r))
		}
	}()

	fail := func(err error) {
		s.logger.Error("[server] Job %s failed: %v", id, err)
		_ = s.jobs.Fail(id, err)
	}

	if s.scraper == nil {
		fail(errors.New("scraper not configured"))
		return
	}

	_ = s.jobs.Update(id, func(j *jobs.Job) { j.Status = jobs.StatusScraping })
	records, err := s.scraper.Scrape(s.ctx, term, pages, s.jobs.ProgressReporter(id, 0, 0.5))
	if err != nil {
		fail(err)
		return
	}

	dataFile := s.dataFile(id)
	csvWriter, err := storage.NewCSVWriter(dataFile)
	if err != nil {
		fail(err)
		return
	}
	if err := writeRaw(csvWriter, records); err != nil {
		fail(err)
		return
	}

	_ = s.jobs.Update(id, func(j *jobs.Job) {
		j.Status = jobs.StatusAnalyzing
		j.DataFile = dataFile
	})
	resultFile := s.resultFile(id)
	if _, err := s.analyzer.AnalyzeFile(dataFile, resultFile, s.jobs.ProgressReporter(id, 0.5, 0.5)); err != nil {
		fail(err)
		return
	}

	_ = s.jobs.Complete(id, func(j *jobs.Job) {
		j.ResultFile = resultFile
		j.DashboardURL = "/api/dashboard/" + id
	})
	s.logger.Info("[server] Job %s completed (%d raw products)", id, len(records))
}

// writeRaw writes records and always closes w.
func writeRaw(w storage.RawRecordWriter, records []*models.RawRecord) error {
	if err := w.WriteRaw(records); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// analyzeExisting analyzes a CSV already in the raw data directory. It runs
// synchronously; the job ID is the file name without extension.
func (s *Server) analyzeExisting(filename string) (jobs.Job, error) {
	csvPath := filepath.Join(s.cfg.RawDataDir, filename)
	if _, err := os.Stat(csvPath); err != nil {
		return jobs.Job{}, fmt.Errorf("%w: %s", errFileNotFound, filename)
	}

	id := strings.TrimSuffix(filename, filepath.Ext(filename))
	term := jobs.TermFromID(strings.TrimSuffix(id, "_data"))

	if _, err := s.jobs.Create(jobs.Job{
		ID:         id,
		SearchTerm: term,
		NumPages:   1,
		Status:     jobs.StatusAnalyzing,
		Progress:   50,
		DataFile:   csvPath,
	}); err != nil {
		return jobs.Job{}, err
	}

	resultFile := s.resultFile(id)
	if _, err := s.analyzer.AnalyzeFile(csvPath, resultFile, s.jobs.ProgressReporter(id, 0.5, 0.5)); err != nil {
		_ = s.jobs.Fail(id, err)
		job, _ := s.jobs.Get(id)
		return job, err
	}

	_ = s.jobs.Complete(id, func(j *jobs.Job) {
		j.ResultFile = resultFile
		j.DashboardURL = "/api/dashboard/" + id
	})
	job, _ := s.jobs.Get(id)
	return job, nil
}
