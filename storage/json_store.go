package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"amazon-analyzer/models"
)

// JSONFileSink writes an AnalysisResult to a single JSON file. The file is
// either fully written or left untouched.
type JSONFileSink struct {
	Path string
}

func NewJSONFileSink(path string) *JSONFileSink {
	return &JSONFileSink{Path: path}
}

func (s *JSONFileSink) Write(result *models.AnalysisResult) error {
	return WriteJSONFile(s.Path, result)
}

// ReadResultFile loads an analysis document written by JSONFileSink.
func ReadResultFile(path string) (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	if err := ReadJSONFile(path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// WriteJSONFile encodes v with two-space indentation into a temp file next to
// path, then renames it into place.
func WriteJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json: encode: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("json: create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("json: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("json: write %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("json: close %q: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("json: rename into %q: %w", path, err)
	}
	return nil
}

// ReadJSONFile decodes the JSON file at path into v.
func ReadJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("json: read %q: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json: decode %q: %w", path, err)
	}
	return nil
}
