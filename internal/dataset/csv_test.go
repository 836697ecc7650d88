package dataset_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ShayCichocki/finagent/internal/dataset"
	"github.com/ShayCichocki/finagent/internal/testutil"
)

func TestCSVSource_RoundTrip(t *testing.T) {
	want := testutil.FinancialTable()
	path := testutil.WriteCSV(t, t.TempDir(), "financials.csv", want)

	got, err := dataset.NewCSVSource(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got.Len() != want.Len() {
		t.Fatalf("rows = %d, want %d", got.Len(), want.Len())
	}
	for _, col := range testutil.FinancialColumns {
		if !got.HasColumn(col) {
			t.Errorf("missing column %q", col)
		}
	}
	d, ok := got.Rows[0].Time(dataset.ColDate)
	if !ok {
		t.Fatalf("date column not parsed: %#v", got.Rows[0][dataset.ColDate])
	}
	wantDate, _ := want.Rows[0].Time(dataset.ColDate)
	if !d.Equal(wantDate) {
		t.Errorf("first date = %v, want %v", d, wantDate)
	}
	if p, _ := got.Rows[0].Float(dataset.ColProfit); p != 1000 {
		t.Errorf("first profit = %v, want 1000", p)
	}
}

func TestReadCSV_FinancialSampleFormatting(t *testing.T) {
	content := "\ufeffSegment, Country ,Units Sold,Gross Sales,Discounts,Profit,Date\n" +
		"Government,Canada,\"1,618.50\",\" $32,370.00 \", $-   ,\" $(1,000.00)\",1/1/2014\n" +
		",,,,,,\n" +
		"Midmarket,France,921,\"$13,815.00\",$0.00,\"$4,605.00\",6/1/2014\n"

	table, err := dataset.ReadCSV(context.Background(), strings.NewReader(content))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("rows = %d, want 2 (blank line skipped)", table.Len())
	}
	if !table.HasColumn("Segment") || !table.HasColumn("Country") {
		t.Errorf("header not normalized: %v", table.Columns)
	}
	if v, _ := table.Rows[0].Float(dataset.ColUnitsSold); v != 1618.5 {
		t.Errorf("units = %v", v)
	}
	if v, _ := table.Rows[0].Float(dataset.ColDiscounts); v != 0 {
		t.Errorf("discounts = %v", v)
	}
	if v, _ := table.Rows[0].Float(dataset.ColProfit); v != -1000 {
		t.Errorf("profit = %v", v)
	}
}

func TestCSVSource_Missing(t *testing.T) {
	_, err := dataset.NewCSVSource(filepath.Join(t.TempDir(), "nope.csv")).Load(context.Background())
	if !errors.Is(err, dataset.ErrSourceNotFound) {
		t.Errorf("error = %v, want ErrSourceNotFound", err)
	}

	_, err = dataset.NewCSVSource("").Load(context.Background())
	if !errors.Is(err, dataset.ErrSourceNotFound) {
		t.Errorf("empty path error = %v, want ErrSourceNotFound", err)
	}
}

func TestCSVSource_Empty(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"empty.csv":       "",
		"header_only.csv": "Segment,Profit,Date\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := dataset.NewCSVSource(path).Load(context.Background())
			if !errors.Is(err, dataset.ErrEmptySource) {
				t.Errorf("error = %v, want ErrEmptySource", err)
			}
		})
	}
}
