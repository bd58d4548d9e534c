package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amazon-analyzer/models"
	"amazon-analyzer/storage"
)

var fixedTime = time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)

type memorySink struct {
	got *models.AnalysisResult
	err error
}

func (m *memorySink) Write(r *models.AnalysisResult) error {
	m.got = r
	return m.err
}

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(newTestLogger(), WithClock(func() time.Time { return fixedTime }))
}

func threeRows() []*models.RawRecord {
	return []*models.RawRecord{
		raw("Widget A", "$19.99", "4.5 out of 5 stars", "100"),
		raw("N/A", "N/A", "N/A", "N/A"),
		raw("Great Widget C", "$5.00", "3.0 out of 5 stars", "2,000"),
	}
}

const sampleCSV = `title,url,asin,price,rating,review_count
Widget A,https://www.amazon.com/dp/B000000001,B000000001,$19.99,4.5 out of 5 stars,100
N/A,N/A,N/A,N/A,N/A,N/A
Great Widget C,https://www.amazon.com/dp/B000000003,B000000003,$5.00,3.0 out of 5 stars,"2,000"
`

func TestAnalyzeEndToEnd(t *testing.T) {
	sink := &memorySink{}
	var progress []float64

	result, err := newTestAnalyzer().Analyze(threeRows(), sink, func(p float64) { progress = append(progress, p) })
	require.NoError(t, err)
	require.Same(t, result, sink.got)

	assert.Equal(t, fixedTime, result.Timestamp)
	assert.Equal(t, 3, result.Summary.TotalProducts)
	assert.InDelta(t, (19.99+0+5)/3, result.Summary.AveragePrice, 1e-9)
	assert.Equal(t, 2100, result.Summary.TotalReviews)
	assert.Equal(t, 3, result.PriceAnalysis.PriceRanges.Counts[0])

	require.NotNil(t, result.TitleAnalysis)
	assert.Equal(t, []models.WordCount{{Word: "widget", Count: 2}, {Word: "great", Count: 1}}, result.TitleAnalysis.TopWords)
	assert.Equal(t, 2, result.TitleAnalysis.PositiveTitles+result.TitleAnalysis.NeutralTitles+result.TitleAnalysis.NegativeTitles)

	if diff := cmp.Diff([]float64{0.1, 0.2, 0.4, 0.8, 1.0}, progress); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeEmptyDataset(t *testing.T) {
	result, err := newTestAnalyzer().Analyze(nil, nil, nil)
	require.NoError(t, err)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"timestamp": "2024-05-17T09:30:00Z",
		"summary": {
			"total_products": 0, "average_price": 0, "average_rating": 0, "total_reviews": 0,
			"error": "No valid products found after data cleaning"
		},
		"price_analysis": null,
		"rating_analysis": null,
		"review_analysis": null,
		"title_analysis": null,
		"correlations": null
	}`, string(data))
}

func TestAnalyzeAllUnknownTitles(t *testing.T) {
	result, err := newTestAnalyzer().Analyze([]*models.RawRecord{raw("", "$3", "", "")}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []models.WordCount{{Word: "no_data", Count: 1}}, result.TitleAnalysis.TopWords)
	assert.Zero(t, result.TitleAnalysis.AverageSentiment)
}

func TestAnalyzeSinkFailure(t *testing.T) {
	sink := &memorySink{err: errors.New("disk full")}
	var last float64

	result, err := newTestAnalyzer().Analyze(threeRows(), sink, func(p float64) { last = p })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NotNil(t, result)
	assert.Equal(t, 0.8, last, "progress must not reach 1.0 without a write")
}

func TestAnalyzeFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "job_data.csv")
	out := filepath.Join(dir, "processed", "job_analysis.json")
	require.NoError(t, os.WriteFile(in, []byte(sampleCSV), 0644))

	result, err := newTestAnalyzer().AnalyzeFile(in, out, nil)
	require.NoError(t, err)

	stored, err := storage.ReadResultFile(out)
	require.NoError(t, err)
	assert.Equal(t, result.Summary, stored.Summary)
	assert.Equal(t, result.PriceAnalysis, stored.PriceAnalysis)
	assert.Equal(t, result.TitleAnalysis, stored.TitleAnalysis)
	assert.True(t, fixedTime.Equal(stored.Timestamp))
}

func TestAnalyzeFileInputErrors(t *testing.T) {
	tests := []struct {
		name    string
		content *string
		wantErr error
	}{
		{name: "missing file", wantErr: os.ErrNotExist},
		{name: "missing column", content: ptr("title,url,price\nA,b,$1\n"), wantErr: storage.ErrMissingColumn},
		{name: "empty file", content: ptr(""), wantErr: storage.ErrNoHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			in := filepath.Join(dir, "in.csv")
			out := filepath.Join(dir, "out.json")
			if tt.content != nil {
				require.NoError(t, os.WriteFile(in, []byte(*tt.content), 0644))
			}

			var progress []float64
			result, err := newTestAnalyzer().AnalyzeFile(in, out, func(p float64) { progress = append(progress, p) })
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), "error reading input file")
			assert.Equal(t, []float64{0.1}, progress)

			_, statErr := os.Stat(out)
			assert.True(t, os.IsNotExist(statErr), "no output artifact on input failure")
		})
	}
}

func TestProgressTrackerMonotonic(t *testing.T) {
	var got []float64
	p := newProgressTracker(func(f float64) { got = append(got, f) })

	for _, f := range []float64{0.1, 0.05, 0.4, 0.4, 1.7, 0.9} {
		p.report(f)
	}
	assert.Equal(t, []float64{0.1, 0.4, 1.0}, got)
}

func TestAnalyzeExtremeInputMarshals(t *testing.T) {
	tests := []struct {
		name string
		rows []*models.RawRecord
	}{
		{
			name: "huge prices",
			rows: []*models.RawRecord{
				raw("Lamp A", "$1e308", "4.0 out of 5 stars", "10"),
				raw("Lamp B", "$1.7e308", "4.5 out of 5 stars", "20"),
			},
		},
		{
			name: "max int review counts",
			rows: []*models.RawRecord{
				raw("Lamp A", "$10", "4.0", "9223372036854775807"),
				raw("Lamp B", "$20", "4.5", "9223372036854775807"),
				raw("Lamp C", "$30", "3.5", "2147483647"),
				raw("Lamp D", "$40", "3.5", "2,147,483,647"),
			},
		},
		{
			name: "hex and exponent prices",
			rows: []*models.RawRecord{
				raw("Lamp A", "0x1p1023", "4.0", "5"),
				raw("Lamp B", "$1e5", "4.0", "5"),
				raw("Lamp C", "1E-3", "4.0", "5"),
				raw("Lamp D", "Infinity", "4.0", "5"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newTestAnalyzer().Analyze(tt.rows, nil, nil)
			require.NoError(t, err)

			data, err := json.Marshal(result)
			require.NoError(t, err, "every numeric field must be finite")

			var doc map[string]any
			require.NoError(t, json.Unmarshal(data, &doc))
			assertNonNegative(t, doc["summary"], "summary")
			assertNonNegative(t, doc["review_analysis"], "review_analysis")
		})
	}
}

// assertNonNegative walks decoded JSON and fails on any negative number.
func assertNonNegative(t *testing.T, v any, path string) {
	t.Helper()
	switch x := v.(type) {
	case float64:
		assert.GreaterOrEqual(t, x, 0.0, path)
	case map[string]any:
		for k, child := range x {
			assertNonNegative(t, child, path+"."+k)
		}
	case []any:
		for i, child := range x {
			assertNonNegative(t, child, fmt.Sprintf("%s[%d]", path, i))
		}
	}
}

func ptr(s string) *string { return &s }
