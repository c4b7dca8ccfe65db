package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pfrederiksen/event-scraper/internal/config"
	"github.com/pfrederiksen/event-scraper/internal/event"
	"github.com/pfrederiksen/event-scraper/internal/logger"
	"github.com/pfrederiksen/event-scraper/internal/metrics"
)

// eventsFile is the CSV file name inside the data directory
const eventsFile = "events.csv"

// FileStore keeps the event set in a CSV file
type FileStore struct {
	dataDir string
}

// NewFileStore creates a FileStore, creating dataDir if needed
func NewFileStore(dataDir string) (*FileStore, error) {
	dir, err := expandHome(dataDir)
	if err != nil {
		return nil, &StorageError{Op: "open", Backend: config.BackendFile, Err: err}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &StorageError{Op: "open", Backend: config.BackendFile, Err: fmt.Errorf("creating data directory: %w", err)}
	}

	return &FileStore{dataDir: dir}, nil
}

// Name returns the backend name
func (s *FileStore) Name() string {
	return config.BackendFile
}

// Path returns the CSV file location
func (s *FileStore) Path() string {
	return filepath.Join(s.dataDir, eventsFile)
}

// Load reads the CSV file. A missing file is an empty store and malformed
// rows are skipped.
func (s *FileStore) Load(_ context.Context) ([]*event.Event, error) {
	events, err := s.load()
	metrics.ObserveStore(s.Name(), "load", err)
	return events, err
}

func (s *FileStore) load() ([]*event.Event, error) {
	f, err := os.Open(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*event.Event{}, nil
		}
		return nil, &StorageError{Op: "load", Backend: s.Name(), Err: fmt.Errorf("opening events file: %w", err)}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // short rows read as blank cells

	rows := make([][]string, 0)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			logger.Warn("Skipping malformed row", logger.Fields{
				"path":  s.Path(),
				"line":  parseErr.StartLine,
				"error": parseErr.Err.Error(),
			})
			continue
		}
		if err != nil {
			return nil, &StorageError{Op: "load", Backend: s.Name(), Err: fmt.Errorf("reading events file: %w", err)}
		}
		rows = append(rows, record)
	}
	return DecodeRows(rows), nil
}

// Save rewrites the CSV file. Rows go to a temporary file that is renamed
// over the old one, so readers never see a partial file.
func (s *FileStore) Save(_ context.Context, events []*event.Event) error {
	err := s.save(events)
	metrics.ObserveStore(s.Name(), "save", err)
	return err
}

func (s *FileStore) save(events []*event.Event) error {
	tmp, err := os.CreateTemp(s.dataDir, eventsFile+".*.tmp")
	if err != nil {
		return &StorageError{Op: "save", Backend: s.Name(), Err: fmt.Errorf("creating temp file: %w", err)}
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(EncodeRows(events)); err != nil {
		tmp.Close()
		return &StorageError{Op: "save", Backend: s.Name(), Err: fmt.Errorf("writing events: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		return &StorageError{Op: "save", Backend: s.Name(), Err: fmt.Errorf("closing temp file: %w", err)}
	}

	if err := os.Rename(tmp.Name(), s.Path()); err != nil {
		return &StorageError{Op: "save", Backend: s.Name(), Err: fmt.Errorf("replacing events file: %w", err)}
	}
	return nil
}
