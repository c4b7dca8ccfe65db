package event

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Status is the lifecycle state of an event
type Status string

const (
	StatusActive  Status = "Active"
	StatusExpired Status = "Expired"
)

// idLength is the number of hex characters kept from the MD5 digest
const idLength = 12

// Event represents a single scraped event listing
type Event struct {
	ID          string    `json:"event_id"`
	Name        string    `json:"event_name" validate:"required"`
	Date        string    `json:"date" validate:"required"` // free-form, may be "TBA"
	Venue       string    `json:"venue" validate:"required"`
	City        string    `json:"city" validate:"required"`
	Category    string    `json:"category"`
	URL         string    `json:"url" validate:"required"`
	Source      string    `json:"source"`
	Status      Status    `json:"status"`
	LastUpdated time.Time `json:"last_updated"`
}

// GenerateID creates a deterministic ID for an event from its defining fields.
// Fields are used exactly as extracted: case and whitespace matter.
func GenerateID(name, date, venue, city string) string {
	sum := md5.Sum([]byte(name + "_" + date + "_" + venue + "_" + city))
	return hex.EncodeToString(sum[:])[:idLength]
}

// NewEvent creates an Active event with ID and LastUpdated populated
func NewEvent(name, date, venue, city, category, url, source string) *Event {
	return &Event{
		ID:          GenerateID(name, date, venue, city),
		Name:        name,
		Date:        date,
		Venue:       venue,
		City:        city,
		Category:    category,
		URL:         url,
		Source:      source,
		Status:      StatusActive,
		LastUpdated: time.Now(),
	}
}

// EnsureID fills in the ID when it is missing. An ID that is already set
// (for example one re-hydrated from storage) is trusted as-is.
func (e *Event) EnsureID() {
	if e.ID == "" {
		e.ID = GenerateID(e.Name, e.Date, e.Venue, e.City)
	}
}

// IsActive reports whether the event is still in the Active state
func (e *Event) IsActive() bool {
	return e.Status == StatusActive
}

// ValidationError reports the first required field an event is missing
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "event missing " + e.Field
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON name so errors read like the stored columns
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks that name, date, venue, city and url are all non-empty.
// It returns a *ValidationError naming the first missing field.
func (e *Event) Validate() error {
	err := validate.Struct(e)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &ValidationError{Field: verrs[0].Field()}
	}
	return err
}
