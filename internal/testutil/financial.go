// Package testutil provides fixtures and fakes shared by package tests.
package testutil

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ShayCichocki/finagent/internal/dataset"
)

// Segments, countries and products used by the synthetic dataset.
var (
	Segments  = []string{"Government", "Midmarket", "Small Business"}
	Countries = []string{"Canada", "Germany", "France"}
	Products  = []string{"Paseo", "Montana"}
)

// FinancialColumns is the column list of the synthetic dataset.
var FinancialColumns = []string{
	dataset.ColSegment,
	dataset.ColCountry,
	dataset.ColProduct,
	dataset.ColUnitsSold,
	dataset.ColGrossSales,
	dataset.ColCOGS,
	dataset.ColProfit,
	dataset.ColDate,
}

// FinancialMonths is the number of months covered by FinancialTable,
// starting January 2023 (six calendar quarters).
const FinancialMonths = 18

// FinancialTable returns a deterministic dataset with one row per month
// and segment, dated the 15th, from 2023-01-15 to 2024-06-15. Profit grows
// every month so the overall trend is upward.
func FinancialTable() *dataset.Table {
	rows := make([]dataset.Row, 0, FinancialMonths*len(Segments))
	start := time.Date(2023, time.January, 15, 0, 0, 0, 0, time.UTC)
	for m := 0; m < FinancialMonths; m++ {
		date := start.AddDate(0, m, 0)
		for s, seg := range Segments {
			profit := 1000 + 100*float64(m) + 50*float64(s)
			gross := profit * 4
			rows = append(rows, dataset.Row{
				dataset.ColSegment:    seg,
				dataset.ColCountry:    Countries[(m+s)%len(Countries)],
				dataset.ColProduct:    Products[(m+s)%len(Products)],
				dataset.ColUnitsSold:  float64(10 + m),
				dataset.ColGrossSales: gross,
				dataset.ColCOGS:       gross * 0.75,
				dataset.ColProfit:     profit,
				dataset.ColDate:       date,
			})
		}
	}
	cols := make([]string, len(FinancialColumns))
	copy(cols, FinancialColumns)
	return dataset.NewTable(cols, rows)
}

// WriteCSV writes table to name inside dir and returns the file path.
func WriteCSV(t *testing.T, dir, name string, table *dataset.Table) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create csv: %v", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(table.Columns); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for _, row := range table.Rows {
		record := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			record[i] = formatCell(row[col])
		}
		if err := w.Write(record); err != nil {
			t.Fatalf("write record: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatalf("flush csv: %v", err)
	}
	return path
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case time.Time:
		return val.Format("2006-01-02")
	case float64:
		return fmt.Sprintf("%.2f", val)
	default:
		return fmt.Sprint(val)
	}
}

// DiscardLogger returns a logger that drops all output.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// StaticSource serves a copy of a fixed table, or Err when set.
type StaticSource struct {
	Table *dataset.Table
	Err   error
}

// Load implements dataset.Source.
func (s StaticSource) Load(context.Context) (*dataset.Table, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Table.Clone(), nil
}

// Describe implements dataset.Source.
func (s StaticSource) Describe() string { return "static" }
