// Package jobs tracks scrape and analysis jobs in memory.
package jobs

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
)

type Status string

const (
	StatusInitializing Status = "initializing"
	StatusScraping     Status = "scraping"
	StatusAnalyzing    Status = "analyzing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

// Active reports whether a job in this status is still running.
func (s Status) Active() bool {
	return s == StatusInitializing || s == StatusScraping || s == StatusAnalyzing
}

var (
	ErrNotFound  = errors.New("jobs: job not found")
	ErrJobActive = errors.New("jobs: job is still running")
)

// Job is one scrape-and-analyze (or analyze-only) run. Progress is a
// percentage.
type Job struct {
	ID             string     `json:"id"`
	SearchTerm     string     `json:"search_term"`
	NumPages       int        `json:"num_pages"`
	Status         Status     `json:"status"`
	Progress       int        `json:"progress"`
	StartTime      time.Time  `json:"start_time"`
	CompletionTime *time.Time `json:"completion_time,omitempty"`
	ResultFile     string     `json:"result_file,omitempty"`
	DataFile       string     `json:"data_file,omitempty"`
	DashboardURL   string     `json:"dashboard_url,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// Registry is a mutex-guarded job table. Callers only ever see copies.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	now  func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job), now: time.Now}
}

// Create stores job, replacing a finished job with the same ID. StartTime and
// Status default to now and initializing.
func (r *Registry) Create(job Job) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.jobs[job.ID]; ok && existing.Status.Active() {
		return Job{}, ErrJobActive
	}
	if job.StartTime.IsZero() {
		job.StartTime = r.now()
	}
	if job.Status == "" {
		job.Status = StatusInitializing
	}

	stored := job
	r.jobs[job.ID] = &stored
	return stored, nil
}

func (r *Registry) Get(id string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// Update applies fn to the stored job under the registry lock.
func (r *Registry) Update(id string, fn func(*Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return ErrNotFound
	}
	fn(j)
	return nil
}

// Complete marks the job finished at 100%.
func (r *Registry) Complete(id string, fn func(*Job)) error {
	now := r.now()
	return r.Update(id, func(j *Job) {
		j.Status = StatusCompleted
		j.Progress = 100
		j.CompletionTime = &now
		j.Error = ""
		if fn != nil {
			fn(j)
		}
	})
}

func (r *Registry) Fail(id string, err error) error {
	return r.Update(id, func(j *Job) {
		j.Status = StatusFailed
		if err != nil {
			j.Error = err.Error()
		}
	})
}

// List returns all jobs, oldest first.
func (r *Registry) List() []Job {
	r.mu.RLock()
	out := make([]Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, *j)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(a, b int) bool {
		if !out[a].StartTime.Equal(out[b].StartTime) {
			return out[a].StartTime.Before(out[b].StartTime)
		}
		return out[a].ID < out[b].ID
	})
	return out
}

// Clear drops every job and returns how many were removed.
func (r *Registry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.jobs)
	r.jobs = make(map[string]*Job)
	return n
}

// ProgressReporter returns a callback mapping a [0,1] fraction onto the
// job's percentage as int((offset + fraction*scale) * 100). Progress never
// moves backwards.
func (r *Registry) ProgressReporter(id string, offset, scale float64) func(float64) {
	return func(fraction float64) {
		fraction = min(max(fraction, 0), 1)
		pct := int((offset + fraction*scale) * 100)
		pct = min(max(pct, 0), 100)

		_ = r.Update(id, func(j *Job) {
			if pct > j.Progress {
				j.Progress = pct
			}
		})
	}
}

const idTimeLayout = "20060102_150405"

// NewJobID builds "<term>_<YYYYMMDD_HHMMSS>". Whitespace and any character
// unsafe in a file name become underscores.
func NewJobID(term string, t time.Time) string {
	safe := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			return r
		}
		return '_'
	}, strings.TrimSpace(term))
	return safe + "_" + t.Format(idTimeLayout)
}

// TermFromID recovers a readable search term from a job ID or file stem by
// dropping the trailing date and time parts.
func TermFromID(id string) string {
	parts := strings.Split(id, "_")
	if len(parts) <= 2 {
		return id
	}
	return strings.Join(parts[:len(parts)-2], " ")
}
