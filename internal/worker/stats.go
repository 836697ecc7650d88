package worker

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ShayCichocki/finagent/internal/dataset"
)

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return sum(xs) / float64(len(xs))
}

// sampleStd is the n-1 standard deviation; 0 below two values.
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func minMax(xs []float64) (lo, hi float64) {
	for i, x := range xs {
		if i == 0 || x < lo {
			lo = x
		}
		if i == 0 || x > hi {
			hi = x
		}
	}
	return lo, hi
}

func round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return math.Round(x*100) / 100
}

func round0(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return math.Round(x)
}

// pctChange returns (b-a)/|a|*100, or 0 when a is 0.
func pctChange(a, b float64) float64 {
	if a == 0 {
		return 0
	}
	return (b - a) / math.Abs(a) * 100
}

// point is one value of a date-ordered or positional series.
type point struct {
	Date  time.Time
	Value float64
}

// seriesByDate sums col per distinct date, ascending. Rows without a date
// or value are skipped.
func seriesByDate(t *dataset.Table, col string) []point {
	totals := make(map[time.Time]float64)
	for _, r := range t.Rows {
		d, ok := r.Time(dataset.ColDate)
		if !ok {
			continue
		}
		v, ok := r.Float(col)
		if !ok {
			continue
		}
		totals[d] += v
	}
	out := make([]point, 0, len(totals))
	for d, v := range totals {
		out = append(out, point{Date: d, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// quarter identifies a calendar quarter.
type quarter struct {
	Year int
	Q    int
}

func quarterOf(t time.Time) quarter {
	return quarter{Year: t.Year(), Q: (int(t.Month())-1)/3 + 1}
}

func (q quarter) String() string {
	return fmt.Sprintf("%d-Q%d", q.Year, q.Q)
}

func (q quarter) before(o quarter) bool {
	if q.Year != o.Year {
		return q.Year < o.Year
	}
	return q.Q < o.Q
}

// quarterTotal is the sum of a column over one populated quarter.
type quarterTotal struct {
	Quarter quarter
	Total   float64
}

// quarterlyTotals sums col per calendar quarter that has at least one
// dated row, ascending.
func quarterlyTotals(t *dataset.Table, col string) []quarterTotal {
	totals := make(map[quarter]float64)
	for _, r := range t.Rows {
		d, ok := r.Time(dataset.ColDate)
		if !ok {
			continue
		}
		v, ok := r.Float(col)
		if !ok {
			continue
		}
		totals[quarterOf(d)] += v
	}
	out := make([]quarterTotal, 0, len(totals))
	for q, v := range totals {
		out = append(out, quarterTotal{Quarter: q, Total: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Quarter.before(out[j].Quarter) })
	return out
}

// quarterChange is the percent change of a quarter against the previous
// populated quarter.
type quarterChange struct {
	Quarter quarter
	Percent float64
}

func quarterChanges(totals []quarterTotal) []quarterChange {
	if len(totals) < 2 {
		return nil
	}
	out := make([]quarterChange, 0, len(totals)-1)
	for i := 1; i < len(totals); i++ {
		out = append(out, quarterChange{
			Quarter: totals[i].Quarter,
			Percent: pctChange(totals[i-1].Total, totals[i].Total),
		})
	}
	return out
}

// movingAverage returns the trailing window mean of values. The first
// window-1 entries are nil.
func movingAverage(values []float64, window int) []*float64 {
	out := make([]*float64, len(values))
	var running float64
	for i, v := range values {
		running += v
		if i >= window {
			running -= values[i-window]
		}
		if i >= window-1 {
			avg := running / float64(window)
			out[i] = &avg
		}
	}
	return out
}
