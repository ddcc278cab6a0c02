package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xhad/pressdata/internal/models"
)

// Output names the two files a run produces.
type Output struct {
	DatasetPath string
	LogPath     string
}

// OutputPaths derives the dataset and run log paths from the requested
// dataset path and creates the parent directory.
func OutputPaths(path string) (Output, error) {
	if strings.TrimSpace(path) == "" {
		return Output{}, errors.New("output path is required")
	}

	ext := filepath.Ext(path)
	if ext == "" {
		ext = ".jsonl"
		path += ext
	}
	base := strings.TrimSuffix(path, ext)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Output{}, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	return Output{
		DatasetPath: path,
		LogPath:     base + "_log.txt",
	}, nil
}

// Writer appends records to a JSON-Lines file, one object per line.
type Writer struct {
	f   *os.File
	enc *json.Encoder
}

func CreateWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset file: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	return &Writer{f: f, enc: enc}, nil
}

func (w *Writer) Write(rec models.Record) error {
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to write record for %s: %w", rec.Filename, err)
	}
	return nil
}

func (w *Writer) Close() error {
	return w.f.Close()
}

// ReadRecords loads every record of a JSON-Lines dataset.
func ReadRecords(path string) ([]models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	var records []models.Record
	dec := json.NewDecoder(f)
	for dec.More() {
		var rec models.Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to read record %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
