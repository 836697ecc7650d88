package worker

import (
	"testing"
	"time"

	"github.com/ShayCichocki/finagent/internal/dataset"
	"github.com/ShayCichocki/finagent/internal/testutil"
	"github.com/ShayCichocki/finagent/pkg/models"
)

func TestExtractFilters(t *testing.T) {
	tests := []struct {
		task string
		want Filters
	}{
		{"Analyze profit trends for the last 3 quarters", Filters{Quarters: 3}},
		{"government profit in canada", Filters{Segment: "Government", Country: "Canada"}},
		{"Small Business sales in the United States", Filters{Segment: "Small Business", Country: "United States"}},
		{"Paseo units over the last month", Filters{Product: "Paseo", Months: 1}},
		{"profit for the last year", Filters{Years: 1}},
		// Any "two" anywhere selects two quarters, even next to "years".
		{"Montana in the last two years", Filters{Product: "Montana", Quarters: 2}},
		{"last quarter", Filters{}},
		{"Midmarkets overview", Filters{Segment: "Midmarket"}},
		{"overview", Filters{}},
	}

	for _, tt := range tests {
		t.Run(tt.task, func(t *testing.T) {
			if got := ExtractFilters(tt.task, nil); got != tt.want {
				t.Errorf("ExtractFilters() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtractFiltersHints(t *testing.T) {
	shared := models.SharedContext{
		models.ContextFilterHints: map[string]any{"country": "Germany", "quarters": 1.0},
	}

	got := ExtractFilters("profit", shared)
	if got.Country != "Germany" || got.Quarters != 1 {
		t.Errorf("hints not applied: %+v", got)
	}

	// Task filters win over hints.
	got = ExtractFilters("canada for the last 3 quarters", shared)
	if got.Country != "Canada" || got.Quarters != 3 {
		t.Errorf("task filters should override hints: %+v", got)
	}

	typed := models.SharedContext{models.ContextFilterHints: Filters{Product: "Vente"}}
	if got := ExtractFilters("profit", typed); got.Product != "Vente" {
		t.Errorf("typed hints not applied: %+v", got)
	}
}

func TestFiltersDescribe(t *testing.T) {
	if got := (Filters{}).Describe(); got != "All Data" {
		t.Errorf("Describe() = %q", got)
	}
	if got := (Filters{Segment: "Government", Product: "Paseo"}).Describe(); got != "Government / Paseo" {
		t.Errorf("Describe() = %q", got)
	}
	if !(Filters{}).Empty() || (Filters{Months: 1}).Empty() {
		t.Error("Empty() mismatch")
	}
}

func TestAddMonths(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
	tests := []struct {
		from time.Time
		n    int
		want time.Time
	}{
		{day(2024, time.June, 15), -9, day(2023, time.September, 15)},
		{day(2024, time.March, 31), -3, day(2023, time.December, 31)},
		{day(2024, time.May, 31), -3, day(2024, time.February, 29)},
		{day(2024, time.January, 31), -12, day(2023, time.January, 31)},
	}
	for _, tt := range tests {
		if got := addMonths(tt.from, tt.n); !got.Equal(tt.want) {
			t.Errorf("addMonths(%s, %d) = %s, want %s", tt.from.Format(time.DateOnly), tt.n, got.Format(time.DateOnly), tt.want.Format(time.DateOnly))
		}
	}
}

func TestFiltersApply(t *testing.T) {
	table := testutil.FinancialTable()

	tests := []struct {
		name    string
		filters Filters
		want    int
	}{
		{"no filters", Filters{}, testutil.FinancialMonths * len(testutil.Segments)},
		{"last 3 quarters", Filters{Quarters: 3}, 30},
		{"segment and window", Filters{Segment: "government", Quarters: 3}, 10},
		{"last month", Filters{Months: 1}, 6},
		{"last year", Filters{Years: 1}, 39},
		{"no match", Filters{Segment: "Enterprise"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filters.Apply(table)
			if got.Len() != tt.want {
				t.Errorf("Apply() kept %d rows, want %d", got.Len(), tt.want)
			}
			var prev time.Time
			for i, r := range got.Rows {
				d, _ := r.Time(dataset.ColDate)
				if i > 0 && d.Before(prev) {
					t.Fatalf("rows not sorted by date at %d", i)
				}
				prev = d
			}
		})
	}

	if table.Len() != testutil.FinancialMonths*len(testutil.Segments) {
		t.Error("Apply modified its input")
	}
}

func TestFiltersApplyWithoutDates(t *testing.T) {
	table := dataset.NewTable([]string{dataset.ColSegment, dataset.ColProfit}, []dataset.Row{
		{dataset.ColSegment: "Government", dataset.ColProfit: 10.0},
		{dataset.ColSegment: "Enterprise", dataset.ColProfit: 20.0},
	})

	got := Filters{Quarters: 3}.Apply(table)
	if got.Len() != 2 {
		t.Errorf("window should be ignored without a date column, kept %d", got.Len())
	}
}
