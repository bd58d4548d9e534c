package services

import (
	"fmt"
	"sync"
	"time"

	"amazon-analyzer/models"
	"amazon-analyzer/storage"
	"amazon-analyzer/utils"
)

// ProgressFunc receives the completed fraction of a run, in [0, 1].
type ProgressFunc func(fraction float64)

// Progress checkpoints of one analysis run.
const (
	progressStarted    = 0.1
	progressNormalized = 0.2
	progressStatistics = 0.4
	progressAssembled  = 0.8
	progressDone       = 1.0
)

// Analyzer runs the full pipeline: normalize, compute statistics and title
// analysis, assemble the result and hand it to a sink.
type Analyzer struct {
	logger     *utils.Logger
	normalizer *Normalizer
	stats      *StatisticsEngine
	text       *TextAnalyzer
	now        func() time.Time
}

type Option func(*Analyzer)

// WithClock overrides the source of the result timestamp.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

func WithSentimentScorer(scorer SentimentScorer) Option {
	return func(a *Analyzer) { a.text = NewTextAnalyzer(a.logger, scorer) }
}

func NewAnalyzer(logger *utils.Logger, opts ...Option) *Analyzer {
	a := &Analyzer{
		logger:     logger,
		normalizer: NewNormalizer(logger),
		stats:      NewStatisticsEngine(logger),
		text:       NewTextAnalyzer(logger, nil),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeFile reads the CSV at inputPath and analyzes it. When outputPath is
// non-empty the result is written there as JSON. A read failure is fatal and
// leaves no output file behind.
func (a *Analyzer) AnalyzeFile(inputPath, outputPath string, progress ProgressFunc) (*models.AnalysisResult, error) {
	tracker := newProgressTracker(progress)
	tracker.report(progressStarted)

	a.logger.Info("[analyzer] Reading %s", inputPath)
	records, err := storage.ReadRecordsFile(inputPath)
	if err != nil {
		a.logger.Error("[analyzer] Could not read input: %v", err)
		return nil, fmt.Errorf("error reading input file: %w", err)
	}

	var sink storage.ResultSink
	if outputPath != "" {
		sink = storage.NewJSONFileSink(outputPath)
	}
	return a.run(records, sink, tracker)
}

// Analyze runs the pipeline over already-read records. sink and progress may
// be nil. The only error returned is a sink write failure; the result is
// still returned in that case.
func (a *Analyzer) Analyze(raw []*models.RawRecord, sink storage.ResultSink, progress ProgressFunc) (*models.AnalysisResult, error) {
	return a.run(raw, sink, newProgressTracker(progress))
}

func (a *Analyzer) run(raw []*models.RawRecord, sink storage.ResultSink, tracker *progressTracker) (*models.AnalysisResult, error) {
	tracker.report(progressStarted)

	dataset := a.normalizer.Normalize(raw)
	tracker.report(progressNormalized)
	a.logger.Info("[analyzer] Normalized %d records", len(dataset))

	var (
		stats  StatisticsReport
		titles *models.TitleAnalysis
	)

	// Both tasks only read dataset.
	pool := utils.NewWorkerPool(2, 0)
	pool.Submit("statistics", func() {
		stats = a.stats.Compute(dataset)
		tracker.report(progressStatistics)
	})
	if len(dataset) > 0 {
		pool.Submit("title analysis", func() {
			titles = a.text.Analyze(dataset)
		})
	}
	pool.Wait()

	if err := pool.Err(); err != nil {
		a.logger.Error("[analyzer] %v", err)
		if len(dataset) > 0 && titles == nil {
			titles = placeholderTitleAnalysis()
			titles.Error = err.Error()
		}
		if stats.Summary.TotalProducts == 0 && stats.Summary.Error == "" {
			stats.Summary = models.Summary{TotalProducts: len(dataset), Error: err.Error()}
		}
	}

	result := &models.AnalysisResult{
		Timestamp:      a.now(),
		Summary:        stats.Summary,
		PriceAnalysis:  stats.Price,
		RatingAnalysis: stats.Rating,
		ReviewAnalysis: stats.Review,
		TitleAnalysis:  titles,
		Correlations:   stats.Correlations,
	}
	tracker.report(progressAssembled)

	if sink != nil {
		if err := sink.Write(result); err != nil {
			a.logger.Error("[analyzer] Failed to write result: %v", err)
			return result, fmt.Errorf("error writing analysis result: %w", err)
		}
	}
	tracker.report(progressDone)

	a.logger.Info("[analyzer] Analysis complete: %d products", result.Summary.TotalProducts)
	return result, nil
}

// progressTracker forwards clamped, non-decreasing progress values.
type progressTracker struct {
	mu   sync.Mutex
	last float64
	fn   ProgressFunc
}

func newProgressTracker(fn ProgressFunc) *progressTracker {
	return &progressTracker{fn: fn, last: -1}
}

func (p *progressTracker) report(fraction float64) {
	if p.fn == nil {
		return
	}
	fraction = clamp01(fraction)

	p.mu.Lock()
	defer p.mu.Unlock()
	if fraction <= p.last {
		return
	}
	p.last = fraction
	p.fn(fraction)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
