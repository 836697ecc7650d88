package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSVSource reads the financial table from a CSV file with a header row.
type CSVSource struct {
	path string
}

// NewCSVSource creates a source reading path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Path returns the file the source reads.
func (s *CSVSource) Path() string {
	return s.path
}

// Describe implements Source.
func (s *CSVSource) Describe() string {
	return "csv:" + s.path
}

// Load implements Source.
func (s *CSVSource) Load(ctx context.Context) (*Table, error) {
	if err := statSource(s.path); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	return ReadCSV(ctx, f)
}

// ReadCSV parses CSV content from r. The first record is the header.
func ReadCSV(ctx context.Context, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptySource
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	table := &Table{Columns: cols}
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if isBlankRecord(record) {
			continue
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if i >= len(record) {
				break
			}
			row[col] = parseCell(col, record[i])
		}
		table.Rows = append(table.Rows, row)
	}

	if table.Empty() {
		return nil, ErrEmptySource
	}
	return table, nil
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
