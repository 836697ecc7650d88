package dataset

import (
	"testing"
	"time"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"1234.5", 1234.5, true},
		{" $1,234.50 ", 1234.5, true},
		{"$(1,234.00)", -1234, true},
		{"(12)", -12, true},
		{" $-   ", 0, true},
		{"-42", -42, true},
		{"", 0, false},
		{"Government", 0, false},
		{"NaN", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAmount(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ParseAmount(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseAmount(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2014, time.June, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2014-06-01", "6/1/2014", "06/01/2014", "2014-06-01T00:00:00Z", "1-Jun-2014"} {
		got, err := ParseDate(in)
		if err != nil {
			t.Errorf("ParseDate(%q) failed: %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseDate("June-ish"); err == nil {
		t.Error("ParseDate should reject unknown formats")
	}
}

func TestParseCell(t *testing.T) {
	if _, ok := parseCell(ColDate, "2024-01-02").(time.Time); !ok {
		t.Error("date column should parse as time.Time")
	}
	if v, ok := parseCell(ColProfit, "$10.00").(float64); !ok || v != 10 {
		t.Errorf("profit cell = %v", parseCell(ColProfit, "$10.00"))
	}
	if v, ok := parseCell(ColSegment, " Enterprise ").(string); !ok || v != "Enterprise" {
		t.Errorf("segment cell = %#v", parseCell(ColSegment, " Enterprise "))
	}
	if v, ok := parseCell(ColDate, "not a date").(string); !ok || v != "not a date" {
		t.Errorf("unparseable date should stay a string, got %#v", v)
	}
}

func TestOpen_ChoosesBackend(t *testing.T) {
	if _, ok := Open("data.csv", "").(*CSVSource); !ok {
		t.Error("csv path should open a CSVSource")
	}
	if s, ok := Open("data.DB", "").(*SQLiteSource); !ok || s.table != DefaultTable {
		t.Error("db path should open an SQLiteSource on the default table")
	}
	if s, ok := Open("data.sqlite", "ledger").(*SQLiteSource); !ok || s.table != "ledger" {
		t.Error("sqlite path should keep the given table")
	}
}
