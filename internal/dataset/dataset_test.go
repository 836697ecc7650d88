package dataset

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTable_SortByDate(t *testing.T) {
	table := NewTable([]string{ColDate, ColProfit}, []Row{
		{ColDate: day(2024, 3, 1), ColProfit: 3.0},
		{ColProfit: 9.0},
		{ColDate: day(2024, 1, 1), ColProfit: 1.0},
		{ColDate: day(2024, 2, 1), ColProfit: 2.0},
	})

	table.SortByDate()

	want := []float64{1, 2, 3, 9}
	got := table.Floats(ColProfit)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sorted profits = %v, want %v", got, want)
		}
	}
}

func TestTable_DateRange(t *testing.T) {
	table := NewTable([]string{ColDate}, []Row{
		{ColDate: day(2024, 3, 1)},
		{ColDate: day(2023, 7, 9)},
		{ColDate: day(2024, 1, 1)},
	})

	start, end, ok := table.DateRange()
	if !ok {
		t.Fatal("DateRange reported no dates")
	}
	if !start.Equal(day(2023, 7, 9)) || !end.Equal(day(2024, 3, 1)) {
		t.Errorf("DateRange = %v..%v", start, end)
	}

	if _, _, ok := NewTable(nil, nil).DateRange(); ok {
		t.Error("empty table should have no date range")
	}
}

func TestTable_FilterSharesColumns(t *testing.T) {
	table := NewTable([]string{ColSegment}, []Row{
		{ColSegment: "Government"},
		{ColSegment: "Midmarket"},
		{ColSegment: "government agencies"},
	})

	out := table.Filter(func(r Row) bool { return r.ContainsFold(ColSegment, "GOVERNMENT") })
	if out.Len() != 2 {
		t.Errorf("filtered rows = %d, want 2", out.Len())
	}
	if !out.HasColumn(ColSegment) {
		t.Error("filtered table lost its columns")
	}
}

func TestTable_CloneIsIndependent(t *testing.T) {
	table := NewTable([]string{ColProfit}, []Row{{ColProfit: 1.0}})
	clone := table.Clone()
	clone.Rows[0][ColProfit] = 99.0
	clone.Rows = append(clone.Rows, Row{ColProfit: 2.0})

	if v, _ := table.Rows[0].Float(ColProfit); v != 1.0 {
		t.Errorf("original row mutated: %v", v)
	}
	if table.Len() != 1 {
		t.Errorf("original length = %d, want 1", table.Len())
	}
}

func TestTable_ValueCounts(t *testing.T) {
	table := NewTable([]string{ColCountry}, []Row{
		{ColCountry: "Canada"},
		{ColCountry: "France"},
		{ColCountry: "Canada"},
		{},
	})

	counts := table.ValueCounts(ColCountry)
	if counts["Canada"] != 2 || counts["France"] != 1 || len(counts) != 2 {
		t.Errorf("ValueCounts = %v", counts)
	}
}

func TestRow_ContainsFoldMissingColumn(t *testing.T) {
	if (Row{}).ContainsFold(ColSegment, "x") {
		t.Error("row without column should not match")
	}
}

func TestNilTable(t *testing.T) {
	var table *Table
	if !table.Empty() || table.Len() != 0 || table.HasColumn(ColDate) {
		t.Error("nil table should behave as empty")
	}
}
