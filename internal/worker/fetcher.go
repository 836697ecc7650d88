package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ShayCichocki/finagent/internal/dataset"
	"github.com/ShayCichocki/finagent/pkg/models"
)

const notAvailable = "N/A"

// DateRange is a formatted first/last date pair. Both ends are "N/A" when
// the rows carry no dates.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func tableDateRange(t *dataset.Table) DateRange {
	start, end, ok := t.DateRange()
	if !ok {
		return DateRange{Start: notAvailable, End: notAvailable}
	}
	return DateRange{Start: start.Format("2006-01-02"), End: end.Format("2006-01-02")}
}

// Known reports whether the range carries real dates.
func (r DateRange) Known() bool {
	return r.Start != "" && r.Start != notAvailable
}

// SummaryStats are the aggregates precomputed by the fetcher.
type SummaryStats struct {
	// Metrics holds total_*, avg_* and profit_std values for the numeric
	// columns present in the filtered rows.
	Metrics          map[string]float64 `json:"metrics"`
	DateRange        DateRange          `json:"date_range"`
	SegmentBreakdown map[string]int     `json:"segment_breakdown"`
	CountryBreakdown map[string]int     `json:"country_breakdown"`
}

// FinancialData is the fetcher's output, published in the shared context
// under models.ContextFinancialData.
type FinancialData struct {
	RawData        []dataset.Row `json:"raw_data"`
	SummaryStats   SummaryStats  `json:"summary_stats"`
	FiltersApplied Filters       `json:"filters_applied"`
	DataPoints     int           `json:"data_points"`
	Columns        []string      `json:"columns"`
	DateRange      DateRange     `json:"date_range"`
}

// Table rebuilds the row table from the raw data.
func (d *FinancialData) Table() *dataset.Table {
	if d == nil {
		return &dataset.Table{}
	}
	return dataset.NewTable(d.Columns, d.RawData)
}

// summaryColumns maps stat name prefixes onto their columns.
var summaryColumns = []struct {
	suffix string
	col    string
}{
	{"profit", dataset.ColProfit},
	{"gross_sales", dataset.ColGrossSales},
	{"cogs", dataset.ColCOGS},
	{"units_sold", dataset.ColUnitsSold},
}

func summarize(t *dataset.Table) SummaryStats {
	stats := SummaryStats{
		Metrics:          make(map[string]float64),
		DateRange:        tableDateRange(t),
		SegmentBreakdown: t.ValueCounts(dataset.ColSegment),
		CountryBreakdown: t.ValueCounts(dataset.ColCountry),
	}
	for _, sc := range summaryColumns {
		values := t.Floats(sc.col)
		if len(values) == 0 {
			continue
		}
		stats.Metrics["total_"+sc.suffix] = round2(sum(values))
		stats.Metrics["avg_"+sc.suffix] = round2(mean(values))
		if sc.col == dataset.ColProfit {
			stats.Metrics["profit_std"] = round2(sampleStd(values))
		}
	}
	return stats
}

// Fetcher loads the financial table and narrows it to the rows the task
// asks about.
type Fetcher struct {
	*Base
	source dataset.Source
}

// NewFetcher creates a fetcher reading from source.
func NewFetcher(source dataset.Source, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		Base: newBase(IDFetcher, "Data Fetcher", "Fetches financial sales data from the configured data source",
			[]string{"fetch", "get", "download", "data", "financial", "stock", "price", "quarter", "quarterly"},
			[]string{
				"Fetch financial sales data",
				"Get profit and revenue data",
				"Download quarterly/annual financial data",
				"Retrieve segment and country data",
				"Get product performance data",
			},
			logger),
		source: source,
	}
}

// Execute implements Worker. A missing or empty source is an error; a
// filter that matches nothing is not.
func (f *Fetcher) Execute(ctx context.Context, task string, shared models.SharedContext) models.Result {
	f.begin()

	if f.source == nil {
		return f.fail(dataset.ErrSourceNotFound)
	}
	f.logger.Info("loading financial data", "source", f.source.Describe())
	table, err := f.source.Load(ctx)
	if err != nil {
		return f.fail(fmt.Errorf("load financial data: %w", err))
	}
	if table.Empty() {
		return f.fail(dataset.ErrEmptySource)
	}

	filters := ExtractFilters(task, shared)
	filtered := filters.Apply(table)
	f.logger.Debug("filters applied", "filters", filters, "rows", filtered.Len(), "of", table.Len())

	data := &FinancialData{
		RawData:        filtered.Rows,
		SummaryStats:   summarize(filtered),
		FiltersApplied: filters,
		DataPoints:     filtered.Len(),
		Columns:        filtered.Columns,
		DateRange:      tableDateRange(filtered),
	}
	if data.RawData == nil {
		data.RawData = []dataset.Row{}
	}

	f.put(models.ContextFinancialData, data)
	f.put(models.ContextDataFrame, filtered)
	return f.complete(data, map[string]any{"data_points": data.DataPoints})
}

// financialInput reads the fetcher output from shared. The row table comes
// from models.ContextDataFrame when present, otherwise it is rebuilt from
// the raw data.
func financialInput(shared models.SharedContext) (*FinancialData, *dataset.Table, error) {
	var data *FinancialData
	switch v := shared[models.ContextFinancialData].(type) {
	case *FinancialData:
		data = v
	case FinancialData:
		data = &v
	}
	if data == nil {
		return nil, nil, ErrNoFinancialData
	}

	table, _ := shared[models.ContextDataFrame].(*dataset.Table)
	if table == nil {
		table = data.Table()
	}
	if table.Empty() {
		return data, table, ErrNoRows
	}
	return data, table, nil
}
