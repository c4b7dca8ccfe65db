package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pfrederiksen/event-scraper/internal/config"
	"github.com/pfrederiksen/event-scraper/internal/event"
	"github.com/pfrederiksen/event-scraper/internal/logger"
	"github.com/pfrederiksen/event-scraper/internal/metrics"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var errNoSheets = errors.New("spreadsheet has no sheets")

// SheetsStore keeps the event set in a Google Sheets worksheet
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string // preferred worksheet title
	title         string // resolved worksheet title, set on first use
}

// NewSheetsStore authenticates with the service account credentials in cfg
// and opens the configured spreadsheet
func NewSheetsStore(ctx context.Context, cfg config.Config) (*SheetsStore, error) {
	data, err := cfg.SheetsCredentials()
	if err != nil {
		return nil, &StorageError{Op: "open", Backend: config.BackendSheets, Err: err}
	}

	creds, err := google.CredentialsFromJSON(ctx, data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, &StorageError{Op: "open", Backend: config.BackendSheets, Err: fmt.Errorf("parsing credentials: %w", err)}
	}

	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, &StorageError{Op: "open", Backend: config.BackendSheets, Err: fmt.Errorf("creating sheets service: %w", err)}
	}

	return NewSheetsStoreWithService(svc, cfg.SheetsID, cfg.Worksheet), nil
}

// NewSheetsStoreWithService wraps an existing Sheets service
func NewSheetsStoreWithService(svc *sheets.Service, spreadsheetID, worksheet string) *SheetsStore {
	return &SheetsStore{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
	}
}

// Name returns the backend name
func (s *SheetsStore) Name() string {
	return config.BackendSheets
}

// Load reads every row of the worksheet
func (s *SheetsStore) Load(ctx context.Context) ([]*event.Event, error) {
	events, err := s.load(ctx)
	metrics.ObserveStore(s.Name(), "load", err)
	return events, err
}

func (s *SheetsStore) load(ctx context.Context) ([]*event.Event, error) {
	title, err := s.resolveWorksheet(ctx)
	if err != nil {
		return nil, &StorageError{Op: "load", Backend: s.Name(), Err: err}
	}

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, quoteSheet(title)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, &StorageError{Op: "load", Backend: s.Name(), Err: fmt.Errorf("reading values: %w", err)}
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, values := range resp.Values {
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = cellString(v)
		}
		rows = append(rows, row)
	}
	return DecodeRows(rows), nil
}

// Save clears the worksheet and writes the header and every row in one update
func (s *SheetsStore) Save(ctx context.Context, events []*event.Event) error {
	err := s.save(ctx, events)
	metrics.ObserveStore(s.Name(), "save", err)
	return err
}

func (s *SheetsStore) save(ctx context.Context, events []*event.Event) error {
	title, err := s.resolveWorksheet(ctx)
	if err != nil {
		return &StorageError{Op: "save", Backend: s.Name(), Err: err}
	}

	encoded := EncodeRows(events)
	values := make([][]interface{}, 0, len(encoded))
	for _, row := range encoded {
		cells := make([]interface{}, len(row))
		for i, c := range row {
			cells[i] = c
		}
		values = append(values, cells)
	}

	if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, quoteSheet(title), &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do(); err != nil {
		return &StorageError{Op: "save", Backend: s.Name(), Err: fmt.Errorf("clearing worksheet: %w", err)}
	}

	if _, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, quoteSheet(title)+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do(); err != nil {
		return &StorageError{Op: "save", Backend: s.Name(), Err: fmt.Errorf("writing rows: %w", err)}
	}

	logger.Debug("Saved worksheet", logger.Fields{"worksheet": title, "rows": len(events)})
	return nil
}

// resolveWorksheet picks the configured worksheet, falling back to the first
// sheet of the spreadsheet
func (s *SheetsStore) resolveWorksheet(ctx context.Context) (string, error) {
	if s.title != "" {
		return s.title, nil
	}

	spreadsheet, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("opening spreadsheet: %w", err)
	}

	var first string
	for _, sh := range spreadsheet.Sheets {
		if sh.Properties == nil {
			continue
		}
		if sh.Properties.Title == s.worksheet {
			s.title = sh.Properties.Title
			return s.title, nil
		}
		if first == "" {
			first = sh.Properties.Title
		}
	}
	if first == "" {
		return "", errNoSheets
	}

	logger.Warn("Worksheet not found, using first sheet", logger.Fields{"worksheet": s.worksheet, "using": first})
	s.title = first
	return s.title, nil
}

// quoteSheet returns a sheet title usable as an A1 range
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func cellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
