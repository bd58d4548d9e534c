package storage

import "amazon-analyzer/models"

// ResultSink is where a finished analysis document is written.
type ResultSink interface {
	Write(result *models.AnalysisResult) error
}

// RawRecordWriter is the interface for persisting unprocessed scraped data.
type RawRecordWriter interface {
	WriteRaw(records []*models.RawRecord) error
	Close() error
}
