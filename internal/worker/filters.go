package worker

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ShayCichocki/finagent/internal/dataset"
	"github.com/ShayCichocki/finagent/pkg/models"
)

// Known dimension values, scanned in order; the first match of each kind
// wins.
var (
	knownSegments  = []string{"government", "midmarket", "midmarkets", "channel partners", "enterprise", "small business"}
	knownCountries = []string{"canada", "germany", "france", "mexico", "usa", "united states"}
	knownProducts  = []string{"carretera", "montana", "paseo", "vente", "amarilla", "touring"}
)

// titleCase upper-cases the first letter of every word. Casers keep state,
// so each call gets its own.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// Filters narrows the dataset. Dimension filters are case-insensitive
// substring matches; at most one relative time window is set.
type Filters struct {
	Segment  string `json:"segment,omitempty"`
	Country  string `json:"country,omitempty"`
	Product  string `json:"product,omitempty"`
	Quarters int    `json:"quarters,omitempty"`
	Months   int    `json:"months,omitempty"`
	Years    int    `json:"years,omitempty"`
}

// ExtractFilters derives filters from task. Hints found in shared under
// models.ContextFilterHints fill any filter the task itself does not set.
func ExtractFilters(task string, shared models.SharedContext) Filters {
	lower := strings.ToLower(task)
	f := Filters{
		Segment: firstMatch(lower, knownSegments),
		Country: firstMatch(lower, knownCountries),
		Product: firstMatch(lower, knownProducts),
	}

	if strings.Contains(lower, "last") {
		switch {
		case strings.Contains(lower, "3") || strings.Contains(lower, "three"):
			f.Quarters = 3
		case strings.Contains(lower, "2") || strings.Contains(lower, "two"):
			f.Quarters = 2
		case strings.Contains(lower, "1") || strings.Contains(lower, "one"):
			f.Quarters = 1
		case strings.Contains(lower, "month"):
			f.Months = 1
		case strings.Contains(lower, "year"):
			f.Years = 1
		}
	}

	if hints, ok := filterHints(shared); ok {
		f = f.withDefaults(hints)
	}
	return f
}

func firstMatch(s string, candidates []string) string {
	for _, c := range candidates {
		if strings.Contains(s, c) {
			return titleCase(c)
		}
	}
	return ""
}

// filterHints reads caller-supplied hints, accepting either a Filters
// value or a loosely typed map.
func filterHints(shared models.SharedContext) (Filters, bool) {
	v, ok := shared.Get(models.ContextFilterHints)
	if !ok {
		return Filters{}, false
	}
	switch h := v.(type) {
	case Filters:
		return h, true
	case *Filters:
		if h == nil {
			return Filters{}, false
		}
		return *h, true
	case map[string]any:
		return Filters{
			Segment:  hintString(h["segment"]),
			Country:  hintString(h["country"]),
			Product:  hintString(h["product"]),
			Quarters: hintInt(h["quarters"]),
			Months:   hintInt(h["months"]),
			Years:    hintInt(h["years"]),
		}, true
	case map[string]string:
		return Filters{Segment: h["segment"], Country: h["country"], Product: h["product"]}, true
	default:
		return Filters{}, false
	}
}

func hintString(v any) string {
	s, _ := v.(string)
	return s
}

func hintInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func (f Filters) withDefaults(d Filters) Filters {
	if f.Segment == "" {
		f.Segment = d.Segment
	}
	if f.Country == "" {
		f.Country = d.Country
	}
	if f.Product == "" {
		f.Product = d.Product
	}
	if f.windowMonths() == 0 {
		f.Quarters, f.Months, f.Years = d.Quarters, d.Months, d.Years
	}
	return f
}

// windowMonths returns the relative window length in months, or 0.
func (f Filters) windowMonths() int {
	switch {
	case f.Quarters > 0:
		return f.Quarters * 3
	case f.Months > 0:
		return f.Months
	case f.Years > 0:
		return f.Years * 12
	default:
		return 0
	}
}

// Empty reports whether no filter is set.
func (f Filters) Empty() bool {
	return f == Filters{}
}

// Describe returns a short label such as "Government / Canada".
func (f Filters) Describe() string {
	var parts []string
	for _, p := range []string{f.Segment, f.Country, f.Product} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "All Data"
	}
	return strings.Join(parts, " / ")
}

// Apply returns the rows of table matching every filter. When the table
// has a date column the window is measured back from the latest date among
// the dimension-filtered rows and the result is sorted by date.
func (f Filters) Apply(table *dataset.Table) *dataset.Table {
	out := table.Filter(func(r dataset.Row) bool {
		if f.Segment != "" && !r.ContainsFold(dataset.ColSegment, f.Segment) {
			return false
		}
		if f.Country != "" && !r.ContainsFold(dataset.ColCountry, f.Country) {
			return false
		}
		if f.Product != "" && !r.ContainsFold(dataset.ColProduct, f.Product) {
			return false
		}
		return true
	})

	if !out.HasColumn(dataset.ColDate) {
		return out
	}
	if months := f.windowMonths(); months > 0 {
		if _, latest, ok := out.DateRange(); ok {
			start := addMonths(latest, -months)
			out = out.Filter(func(r dataset.Row) bool {
				d, ok := r.Time(dataset.ColDate)
				return ok && !d.Before(start)
			})
		}
	}
	out.SortByDate()
	return out
}

// addMonths shifts t by n calendar months, clamping the day to the end of
// the target month.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
