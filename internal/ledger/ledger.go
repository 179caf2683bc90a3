// Package ledger journals every photo the persistence writer attempted to
// save and exports the journal for reporting.
package ledger

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/grupomess/erp/internal/models"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// Ledger appends saved-photo records to a multi-document YAML journal
type Ledger struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Ledger {
	return &Ledger{path: path}
}

// Record appends one YAML document per record
func (l *Ledger) Record(records ...models.SavedPhoto) error {
	if len(records) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode ledger record: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode ledger record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	// yaml.Encoder separates documents but does not lead with a marker
	if info, err := f.Stat(); err == nil && info.Size() > 0 {
		if _, err := f.WriteString("---\n"); err != nil {
			return fmt.Errorf("failed to write ledger: %w", err)
		}
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return nil
}

// Load reads every record in the journal, oldest first
func (l *Ledger) Load() ([]models.SavedPhoto, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	var records []models.SavedPhoto
	dec := yaml.NewDecoder(f)
	for {
		var r models.SavedPhoto
		err := dec.Decode(&r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode ledger record %d: %w", len(records)+1, err)
		}
		records = append(records, r)
	}

	slog.Debug("Loaded ledger", "path", l.path, "records", len(records))
	return records, nil
}

// ExportParquet writes records as a Parquet file
func ExportParquet(w io.Writer, records []models.SavedPhoto) error {
	writer := parquet.NewGenericWriter[models.SavedPhoto](w)
	if _, err := writer.Write(records); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// ReadParquet reads records previously written by ExportParquet
func ReadParquet(path string) ([]models.SavedPhoto, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat parquet file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[models.SavedPhoto](pf)
	defer reader.Close()

	var records []models.SavedPhoto
	rows := make([]models.SavedPhoto, 128)
	for {
		n, err := reader.Read(rows)
		records = append(records, rows[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return records, nil
}
