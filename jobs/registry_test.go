package jobs

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(now time.Time) *Registry {
	r := NewRegistry()
	r.now = func() time.Time { return now }
	return r
}

func TestNewJobID(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

	tests := []struct {
		term string
		want string
	}{
		{"wireless mouse", "wireless_mouse_20240309_140507"},
		{"  usb-c hub ", "usb-c_hub_20240309_140507"},
		{"../etc/passwd", "___etc_passwd_20240309_140507"},
	}

	for _, tt := range tests {
		if got := NewJobID(tt.term, ts); got != tt.want {
			t.Errorf("NewJobID(%q) = %q; want %q", tt.term, got, tt.want)
		}
	}
}

func TestTermFromID(t *testing.T) {
	assert.Equal(t, "wireless mouse", TermFromID("wireless_mouse_20240309_140507"))
	assert.Equal(t, "products", TermFromID("products"))
}

func TestCreateDefaults(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := newTestRegistry(now)

	job, err := r.Create(Job{ID: "a", SearchTerm: "lamp", NumPages: 2})
	require.NoError(t, err)
	assert.Equal(t, StatusInitializing, job.Status)
	assert.Equal(t, now, job.StartTime)

	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, job, got)
}

func TestCreateRejectsActiveDuplicate(t *testing.T) {
	r := NewRegistry()
	_, err := r.Create(Job{ID: "a"})
	require.NoError(t, err)

	_, err = r.Create(Job{ID: "a"})
	assert.ErrorIs(t, err, ErrJobActive)

	require.NoError(t, r.Fail("a", errors.New("boom")))
	_, err = r.Create(Job{ID: "a", Status: StatusAnalyzing})
	assert.NoError(t, err)
}

func TestGetReturnsCopy(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Create(Job{ID: "a"})

	j, _ := r.Get("a")
	j.Status = StatusFailed

	stored, _ := r.Get("a")
	assert.Equal(t, StatusInitializing, stored.Status)
}

func TestUpdateMissing(t *testing.T) {
	r := NewRegistry()
	assert.ErrorIs(t, r.Update("nope", func(*Job) {}), ErrNotFound)
}

func TestCompleteAndFail(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := newTestRegistry(now)
	_, _ = r.Create(Job{ID: "ok"})
	_, _ = r.Create(Job{ID: "bad"})

	require.NoError(t, r.Complete("ok", func(j *Job) { j.ResultFile = "out.json" }))
	require.NoError(t, r.Fail("bad", errors.New("chrome crashed")))

	ok, _ := r.Get("ok")
	assert.Equal(t, StatusCompleted, ok.Status)
	assert.Equal(t, 100, ok.Progress)
	assert.Equal(t, "out.json", ok.ResultFile)
	require.NotNil(t, ok.CompletionTime)
	assert.Equal(t, now, *ok.CompletionTime)

	bad, _ := r.Get("bad")
	assert.Equal(t, StatusFailed, bad.Status)
	assert.Equal(t, "chrome crashed", bad.Error)
}

func TestProgressReporter(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Create(Job{ID: "a"})

	scrape := r.ProgressReporter("a", 0, 0.5)
	analyze := r.ProgressReporter("a", 0.5, 0.5)

	steps := []struct {
		report func(float64)
		value  float64
		want   int
	}{
		{scrape, 0.5, 25},
		{scrape, 1, 50},
		{scrape, 0.2, 50},
		{analyze, 0.5, 75},
		{analyze, 1, 100},
		{analyze, 3, 100},
	}

	for i, s := range steps {
		s.report(s.value)
		got, _ := r.Get("a")
		assert.Equal(t, s.want, got.Progress, "step %d", i)
	}
}

func TestListAndClear(t *testing.T) {
	r := NewRegistry()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, _ = r.Create(Job{ID: "b", StartTime: base.Add(time.Minute)})
	_, _ = r.Create(Job{ID: "a", StartTime: base})
	_, _ = r.Create(Job{ID: "c", StartTime: base.Add(time.Minute)})

	var ids []string
	for _, j := range r.List() {
		ids = append(ids, j.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	assert.Equal(t, 3, r.Clear())
	assert.Empty(t, r.List())
}

func TestConcurrentProgress(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Create(Job{ID: "a"})
	report := r.ProgressReporter("a", 0, 1)

	var wg sync.WaitGroup
	for i := 0; i <= 100; i++ {
		wg.Add(1)
		go func(p float64) {
			defer wg.Done()
			report(p)
		}(float64(i) / 100)
	}
	wg.Wait()

	j, _ := r.Get("a")
	assert.Equal(t, 100, j.Progress)
}
