package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pfrederiksen/event-scraper/internal/config"
	"github.com/pfrederiksen/event-scraper/internal/event"
)

// Store is a tabular record store holding the full event set
type Store interface {
	// Load returns every stored event in stored order. An empty or missing
	// table yields an empty slice.
	Load(ctx context.Context) ([]*event.Event, error)
	// Save replaces the stored set with events
	Save(ctx context.Context, events []*event.Event) error
	// Name identifies the backend in logs and metrics
	Name() string
}

// StorageError reports a store that is unreachable, misconfigured or failed
// to write
type StorageError struct {
	Op      string // "open", "load" or "save"
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s store %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// New opens the backend selected by cfg.StoreBackend. cfg must already have
// passed Validate.
func New(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case config.BackendSheets:
		return NewSheetsStore(ctx, cfg)
	case config.BackendPostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	case config.BackendFile:
		return NewFileStore(cfg.DataDir)
	default:
		return nil, &StorageError{Op: "open", Backend: cfg.StoreBackend, Err: config.ErrUnknownStoreBackend}
	}
}

// expandHome expands a leading ~/ to the user's home directory
func expandHome(dir string) (string, error) {
	if !strings.HasPrefix(dir, "~/") {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dir[2:]), nil
}
