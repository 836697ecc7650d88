// Package dataset provides the tabular financial data consumed by the
// workers. Rows are keyed by column name; the column names below form the
// fixed external schema the workers understand.
package dataset

import (
	"sort"
	"strings"
	"time"
)

// Column names of the financial schema.
const (
	ColDate         = "Date"
	ColSegment      = "Segment"
	ColCountry      = "Country"
	ColProduct      = "Product"
	ColUnitsSold    = "Units Sold"
	ColGrossSales   = "Gross Sales"
	ColCOGS         = "COGS"
	ColProfit       = "Profit"
	ColSales        = "Sales"
	ColDiscounts    = "Discounts"
	ColDiscountBand = "Discount Band"
)

// Row is a single record. Values are float64, string or time.Time.
type Row map[string]any

// Float returns the numeric value of col.
func (r Row) Float(col string) (float64, bool) {
	switch v := r[col].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// String returns the string value of col.
func (r Row) String(col string) (string, bool) {
	v, ok := r[col].(string)
	return v, ok
}

// Time returns the time value of col.
func (r Row) Time(col string) (time.Time, bool) {
	v, ok := r[col].(time.Time)
	return v, ok
}

// Table is an ordered set of rows sharing a column list.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NewTable creates a table with the given columns and rows.
func NewTable(columns []string, rows []Row) *Table {
	return &Table{Columns: columns, Rows: rows}
}

// Len returns the number of rows. A nil table has no rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// HasColumn reports whether the table carries col.
func (t *Table) HasColumn(col string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Clone returns a copy of the table whose row slice and row maps can be
// modified without affecting t.
func (t *Table) Clone() *Table {
	if t == nil {
		return &Table{}
	}
	cols := make([]string, len(t.Columns))
	copy(cols, t.Columns)
	rows := make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		nr := make(Row, len(r))
		for k, v := range r {
			nr[k] = v
		}
		rows[i] = nr
	}
	return &Table{Columns: cols, Rows: rows}
}

// Filter returns a new table with the rows for which keep returns true.
// Row maps are shared with t.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := &Table{Columns: t.Columns, Rows: make([]Row, 0, len(t.Rows))}
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// SortByDate orders rows by ColDate ascending. Rows without a date sort
// last. The sort is stable.
func (t *Table) SortByDate() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		a, aok := t.Rows[i].Time(ColDate)
		b, bok := t.Rows[j].Time(ColDate)
		switch {
		case aok && bok:
			return a.Before(b)
		case aok:
			return true
		default:
			return false
		}
	})
}

// DateRange returns the minimum and maximum ColDate values.
func (t *Table) DateRange() (start, end time.Time, ok bool) {
	if t == nil {
		return
	}
	for _, r := range t.Rows {
		d, has := r.Time(ColDate)
		if !has {
			continue
		}
		if !ok || d.Before(start) {
			start = d
		}
		if !ok || d.After(end) {
			end = d
		}
		ok = true
	}
	return start, end, ok
}

// Floats returns the numeric values of col in row order, skipping rows
// where the value is missing.
func (t *Table) Floats(col string) []float64 {
	if t == nil {
		return nil
	}
	out := make([]float64, 0, len(t.Rows))
	for _, r := range t.Rows {
		if v, ok := r.Float(col); ok {
			out = append(out, v)
		}
	}
	return out
}

// ValueCounts returns the number of rows per distinct string value of col.
func (t *Table) ValueCounts(col string) map[string]int {
	counts := make(map[string]int)
	if t == nil {
		return counts
	}
	for _, r := range t.Rows {
		if v, ok := r.String(col); ok {
			counts[v]++
		}
	}
	return counts
}

// ContainsFold reports whether the string value of col contains substr,
// ignoring case. Rows without the column never match.
func (r Row) ContainsFold(col, substr string) bool {
	v, ok := r.String(col)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(v), strings.ToLower(substr))
}
