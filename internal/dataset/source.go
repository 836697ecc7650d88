package dataset

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrSourceNotFound is returned when the backing file does not exist.
	ErrSourceNotFound = errors.New("data source not found")
	// ErrEmptySource is returned when the source loads zero rows.
	ErrEmptySource = errors.New("data source is empty")
)

// Source loads the full financial table.
type Source interface {
	// Load reads every row of the source.
	Load(ctx context.Context) (*Table, error)
	// Describe returns a short human-readable name for logs.
	Describe() string
}

// Open returns a Source for path, choosing the backend from the file
// extension: .db, .sqlite and .sqlite3 open an SQLite source reading
// table; anything else is read as CSV.
func Open(path, table string) Source {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteSource(path, table)
	default:
		return NewCSVSource(path)
	}
}

// statSource returns ErrSourceNotFound when path does not exist.
func statSource(path string) error {
	if path == "" {
		return fmt.Errorf("%w: no path configured", ErrSourceNotFound)
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	return nil
}

// dateLayouts are tried in order when parsing date cells.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"2-Jan-2006",
}

// ParseDate parses a date cell using the supported layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseAmount parses a numeric cell. It accepts currency symbols,
// thousands separators, accounting-style negatives "(1,234.00)" and a lone
// "-" meaning zero.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if s == "-" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// parseCell converts a raw text cell of col into a typed value.
func parseCell(col, raw string) any {
	raw = strings.TrimSpace(raw)
	if col == ColDate {
		if t, err := ParseDate(raw); err == nil {
			return t
		}
		return raw
	}
	if v, ok := ParseAmount(raw); ok {
		return v
	}
	return raw
}
