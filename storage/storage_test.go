package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amazon-analyzer/models"
)

func TestReadRecords(t *testing.T) {
	in := "\ufeffTitle , URL,asin,price,rating,review_count,extra\n" +
		"Widget A,https://x/dp/B000000001,B000000001,$19.99,4.5 out of 5 stars,100,ignored\n" +
		"N/A,,,N/A,,N/A\n" +
		"Short Row,https://x\n"

	records, err := ReadRecords(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, records, 3)

	title, ok := records[0].Title.Get()
	assert.True(t, ok)
	assert.Equal(t, "Widget A", title)
	assert.Equal(t, "$19.99", records[0].Price.String())

	assert.False(t, records[1].Title.IsPresent())
	assert.False(t, records[1].URL.IsPresent())
	assert.False(t, records[1].ReviewCount.IsPresent())

	assert.True(t, records[2].URL.IsPresent())
	assert.False(t, records[2].Price.IsPresent())
	assert.False(t, records[2].ReviewCount.IsPresent())
}

func TestReadRecordsMissingColumn(t *testing.T) {
	_, err := ReadRecords(strings.NewReader("title,url,asin,price\nA,b,c,d\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), "rating, review_count")
}

func TestReadRecordsNoHeader(t *testing.T) {
	_, err := ReadRecords(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestReadRecordsHeaderOnly(t *testing.T) {
	records, err := ReadRecords(strings.NewReader(strings.Join(Columns, ",") + "\n"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadRecordsFileMissing(t *testing.T) {
	_, err := ReadRecordsFile(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCSVWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw", "products.csv")

	w, err := NewCSVWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteRaw([]*models.RawRecord{
		{Title: models.NewField("Widget, Deluxe"), Price: models.NewField("$1,299.00"), ReviewCount: models.NewField("1,234")},
		nil,
		{Title: models.NewField("Bare")},
	}))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "title,url,asin,price,rating,review_count", lines[0])
	assert.Equal(t, `Bare,N/A,N/A,N/A,N/A,0`, lines[2])

	records, err := ReadRecordsFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Widget, Deluxe", records[0].Title.String())
	assert.Equal(t, "1,234", records[0].ReviewCount.String())
	assert.False(t, records[1].Rating.IsPresent())
}

func TestJSONFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "job_analysis.json")
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	sink := NewJSONFileSink(path)
	require.NoError(t, sink.Write(&models.AnalysisResult{
		Timestamp: ts,
		Summary:   models.Summary{TotalProducts: 2, AveragePrice: 12.5},
	}))

	got, err := ReadResultFile(path)
	require.NoError(t, err)
	assert.True(t, ts.Equal(got.Timestamp))
	assert.Equal(t, 2, got.Summary.TotalProducts)
	assert.Nil(t, got.PriceAnalysis)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should not be left behind")
}

func TestWriteJSONFileUnencodable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	err := WriteJSONFile(path, map[string]any{"ch": make(chan int)})
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
