package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"amazon-analyzer/models"
)

var (
	ErrNoHeader      = errors.New("csv: missing header row")
	ErrMissingColumn = errors.New("csv: missing required column")
)

// Columns is the raw-data contract shared by the scraper output and the
// analysis input, in file order.
var Columns = []string{"title", "url", "asin", "price", "rating", "review_count"}

const utf8BOM = "\ufeff"

// ReadRecordsFile opens path and reads every row as a RawRecord.
func ReadRecordsFile(path string) ([]*models.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	return ReadRecords(f)
}

// ReadRecords reads a headed CSV stream. Header names are matched after
// trimming and lower-casing; unknown columns are ignored and short rows leave
// their trailing fields absent.
func ReadRecords(r io.Reader) ([]*models.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	cell := func(row []string, col string) models.Field {
		i := index[col]
		if i >= len(row) {
			return models.Absent()
		}
		return models.NewField(row[i])
	}

	var records []*models.RawRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read row %d: %w", line, err)
		}

		records = append(records, &models.RawRecord{
			Title:       cell(row, "title"),
			URL:         cell(row, "url"),
			ASIN:        cell(row, "asin"),
			Price:       cell(row, "price"),
			Rating:      cell(row, "rating"),
			ReviewCount: cell(row, "review_count"),
		})
	}
	return records, nil
}
