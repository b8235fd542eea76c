package hazard

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"
)

// DefaultMappingDelimiter separates the columns of a mapping table
const DefaultMappingDelimiter = ','

// pictogramFlag is the only flag value read as true
const pictogramFlag = "1"

// MappingEntry associates a search term with a category
type MappingEntry struct {
	Term              string `json:"term"`
	Category          string `json:"category"`
	RequiresPictogram bool   `json:"requires_pictogram"`
}

// Mapping is the loaded term table. Order records the first appearance of
// each term so iteration is deterministic; lookups go through Entries.
type Mapping struct {
	Entries map[string]MappingEntry
	Order   []string

	// Skipped counts malformed rows that were ignored while loading
	Skipped int
}

// Filter selects which mapping entries are searched in mapped mode
type Filter string

const (
	FilterPictogram Filter = "pictogram"
	FilterText      Filter = "text"
	FilterAll       Filter = "all"
)

// ParseFilter validates a filter name
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterPictogram, FilterText, FilterAll:
		return f, nil
	default:
		return "", fmt.Errorf("invalid filter %q (must be one of: pictogram, text, all)", s)
	}
}

// Keep reports whether the entry passes the filter
func (f Filter) Keep(e MappingEntry) bool {
	switch f {
	case FilterPictogram:
		return e.RequiresPictogram
	case FilterText:
		return !e.RequiresPictogram
	default:
		return true
	}
}

// NewMapping returns an empty mapping
func NewMapping() *Mapping {
	return &Mapping{Entries: make(map[string]MappingEntry)}
}

// Set stores an entry, overwriting any previous entry for the same term
func (m *Mapping) Set(e MappingEntry) {
	if _, exists := m.Entries[e.Term]; !exists {
		m.Order = append(m.Order, e.Term)
	}
	m.Entries[e.Term] = e
}

// Get returns the entry for term
func (m *Mapping) Get(term string) (MappingEntry, bool) {
	e, ok := m.Entries[term]
	return e, ok
}

// Len returns the number of distinct terms
func (m *Mapping) Len() int {
	return len(m.Entries)
}

// Select returns the entries passing filter, in first-appearance order
func (m *Mapping) Select(filter Filter) []MappingEntry {
	selected := make([]MappingEntry, 0, len(m.Order))
	for _, term := range m.Order {
		e := m.Entries[term]
		if filter.Keep(e) {
			selected = append(selected, e)
		}
	}
	return selected
}

// LoadMapping reads a mapping table from disk
func LoadMapping(path string, delimiter rune, logger *slog.Logger) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping table: %w", err)
	}
	defer f.Close()

	m, err := ReadMapping(f, delimiter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping table %s: %w", path, err)
	}
	return m, nil
}

// ReadMapping parses a delimited table with a header row and the columns
// term, category, flag. Fields are trimmed and a later row for the same term
// replaces the earlier one. Rows that do not have exactly three fields, have
// an empty term, or fail to parse are skipped with a warning.
func ReadMapping(r io.Reader, delimiter rune, logger *slog.Logger) (*Mapping, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if delimiter == 0 {
		delimiter = DefaultMappingDelimiter
	}
	if !utf8.ValidRune(delimiter) || delimiter == '"' || delimiter == '\r' || delimiter == '\n' {
		return nil, fmt.Errorf("invalid mapping delimiter %q", delimiter)
	}

	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	m := NewMapping()
	header := true

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				logger.Warn("skipping unparsable mapping row", "line", parseErr.Line, "error", parseErr.Err)
				m.Skipped++
				header = false
				continue
			}
			return nil, err
		}

		if header {
			header = false
			continue
		}

		line, _ := reader.FieldPos(0)
		if len(row) != 3 {
			logger.Warn("skipping mapping row with wrong column count",
				"line", line, "columns", len(row), "want", 3)
			m.Skipped++
			continue
		}

		term := strings.TrimSpace(row[0])
		if term == "" {
			logger.Warn("skipping mapping row with empty term", "line", line)
			m.Skipped++
			continue
		}

		m.Set(MappingEntry{
			Term:              term,
			Category:          strings.TrimSpace(row[1]),
			RequiresPictogram: strings.TrimSpace(row[2]) == pictogramFlag,
		})
	}

	return m, nil
}
