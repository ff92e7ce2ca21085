package astronomy

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// ErrEmptyCatalog is returned when a catalog asset contains no events.
var ErrEmptyCatalog = errors.New("astronomy catalog has no events")

// Event is a dated celestial event.
type Event struct {
	Title       string
	Date        time.Time // midnight UTC of the event's calendar date
	Description string
}

// Catalog is an immutable, ordered list of events.
type Catalog struct {
	version string
	events  []Event
}

type catalogFile struct {
	Version string `yaml:"version"`
	Events  []struct {
		Title       string `yaml:"title"`
		Date        string `yaml:"date"`
		Description string `yaml:"description"`
	} `yaml:"events"`
}

// NewCatalog builds a catalog from events. The slice is copied.
func NewCatalog(version string, events []Event) *Catalog {
	evs := make([]Event, len(events))
	for i, e := range events {
		e.Date = civilDate(e.Date)
		evs[i] = e
	}
	return &Catalog{version: version, events: evs}
}

// DefaultCatalog returns the catalog compiled into the binary.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(bytes.NewReader(defaultCatalogYAML))
	if err != nil {
		panic(fmt.Sprintf("astronomy: embedded catalog is invalid: %v", err))
	}
	return c
}

// LoadCatalogFile reads a catalog asset from disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	return LoadCatalog(f)
}

// LoadCatalog decodes a YAML catalog asset.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var file catalogFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if len(file.Events) == 0 {
		return nil, ErrEmptyCatalog
	}

	events := make([]Event, 0, len(file.Events))
	for i, e := range file.Events {
		date, err := time.Parse(time.DateOnly, e.Date)
		if err != nil {
			return nil, fmt.Errorf("event %d (%s): parsing date: %w", i, e.Title, err)
		}
		events = append(events, Event{
			Title:       e.Title,
			Date:        date,
			Description: e.Description,
		})
	}

	return &Catalog{version: file.Version, events: events}, nil
}

// Version returns the catalog asset version.
func (c *Catalog) Version() string {
	return c.version
}

// Len returns the number of events in the catalog.
func (c *Catalog) Len() int {
	return len(c.events)
}

// Upcoming returns the events dated on or after asOf's calendar date, in
// ascending date order. Events sharing a date keep their catalog order.
// The result is a fresh slice; callers wanting the next N take a prefix.
func (c *Catalog) Upcoming(asOf time.Time) []Event {
	cutoff := civilDate(asOf)

	out := make([]Event, 0, len(c.events))
	for _, e := range c.events {
		if !e.Date.Before(cutoff) {
			out = append(out, e)
		}
	}

	slices.SortStableFunc(out, func(a, b Event) int {
		return a.Date.Compare(b.Date)
	})
	return out
}

// civilDate drops the time of day and maps t's calendar date to midnight UTC.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
