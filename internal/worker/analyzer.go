package worker

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/ShayCichocki/finagent/internal/dataset"
	"github.com/ShayCichocki/finagent/pkg/models"
)

// Trend directions reported under "trend_direction".
const (
	TrendUpward   = "upward"
	TrendDownward = "downward"
	TrendStable   = "stable"
)

// InsufficientQuarterlyData is reported under "quarterly_analysis" when
// fewer than two quarters carry data.
const InsufficientQuarterlyData = "Insufficient data for quarterly analysis"

// GroupStats are the per-group figures of a dimension breakdown.
type GroupStats struct {
	TotalProfit  float64 `json:"total_profit"`
	AvgProfit    float64 `json:"avg_profit"`
	Count        int     `json:"count"`
	GrossSales   float64 `json:"gross_sales"`
	UnitsSold    float64 `json:"units_sold"`
	ProfitMargin float64 `json:"profit_margin"`
}

// Analyzer computes metrics over the fetched rows. Which sub-analyses run
// depends on the words in the task; a baseline set always runs.
type Analyzer struct {
	*Base
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	return &Analyzer{
		Base: newBase(IDAnalyzer, "Financial Analyzer", "Analyzes financial data and identifies trends, patterns, and insights",
			[]string{"analyze", "analysis", "trend", "pattern", "insight", "calculate", "compare", "performance"},
			[]string{
				"Calculate financial metrics",
				"Identify trends and patterns",
				"Compare performance across periods",
				"Generate statistical insights",
				"Analyze volatility and risk",
			},
			logger),
	}
}

// Execute implements Worker.
func (a *Analyzer) Execute(ctx context.Context, task string, shared models.SharedContext) models.Result {
	a.begin()

	_, table, err := financialInput(shared)
	if err != nil {
		return a.fail(err)
	}
	if err := ctx.Err(); err != nil {
		return a.fail(err)
	}

	analysis := Analyze(task, table)
	a.put(models.ContextAnalysisResults, analysis)
	return a.complete(analysis, map[string]any{"metrics_calculated": len(analysis)})
}

// Analyze runs the sub-analyses selected by task over table.
func Analyze(task string, table *dataset.Table) map[string]any {
	lower := strings.ToLower(task)
	out := make(map[string]any)

	if strings.Contains(lower, "trend") {
		merge(out, analyzeTrend(table))
	}
	if strings.Contains(lower, "quarter") {
		merge(out, analyzeQuarters(table))
	}
	if strings.Contains(lower, "performance") || strings.Contains(lower, "profit") {
		merge(out, analyzePerformance(table))
	}
	for _, dim := range []struct{ word, col string }{
		{"segment", dataset.ColSegment},
		{"country", dataset.ColCountry},
		{"product", dataset.ColProduct},
	} {
		if strings.Contains(lower, dim.word) {
			merge(out, analyzeGroups(table, dim.word, dim.col))
		}
	}
	merge(out, baselineMetrics(table))
	return out
}

func merge(dst, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}

func analyzeTrend(t *dataset.Table) map[string]any {
	profits := t.Floats(dataset.ColProfit)
	if len(profits) == 0 {
		return nil
	}

	series := profits
	if t.HasColumn(dataset.ColDate) {
		if daily := seriesByDate(t, dataset.ColProfit); len(daily) > 0 {
			series = make([]float64, len(daily))
			for i, p := range daily {
				series[i] = p.Value
			}
		}
	}

	direction, change := TrendStable, 0.0
	if len(series) >= 2 {
		first, last := series[0], series[len(series)-1]
		switch {
		case last > first:
			direction = TrendUpward
		case last < first:
			direction = TrendDownward
		}
		change = pctChange(first, last)
	}

	return map[string]any{
		"trend_direction":       direction,
		"profit_change_percent": round2(change),
		"total_profit":          round2(sum(profits)),
		"avg_daily_profit":      round2(mean(profits)),
	}
}

func analyzeQuarters(t *dataset.Table) map[string]any {
	if !t.HasColumn(dataset.ColDate) || !t.HasColumn(dataset.ColProfit) {
		return nil
	}

	totals := quarterlyTotals(t, dataset.ColProfit)
	if len(totals) < 2 {
		return map[string]any{"quarterly_analysis": InsufficientQuarterlyData}
	}

	profit := make(map[string]float64, len(totals))
	for _, qt := range totals {
		profit[qt.Quarter.String()] = round2(qt.Total)
	}

	changes := quarterChanges(totals)
	pcts := make([]float64, len(changes))
	byQuarter := make(map[string]float64, len(changes))
	for i, c := range changes {
		pcts[i] = c.Percent
		byQuarter[c.Quarter.String()] = round2(c.Percent)
	}

	recent := pcts
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	worst, best := minMax(pcts)

	return map[string]any{
		"quarterly_profit":           profit,
		"quarterly_profit_changes":   byQuarter,
		"last_3_quarters_avg_change": round2(mean(recent)),
		"quarterly_volatility":       round2(sampleStd(pcts)),
		"best_quarter":               round2(best),
		"worst_quarter":              round2(worst),
	}
}

func analyzePerformance(t *dataset.Table) map[string]any {
	profits := t.Floats(dataset.ColProfit)
	if len(profits) == 0 {
		return nil
	}
	total := sum(profits)

	margin := 0.0
	if gross := sum(t.Floats(dataset.ColGrossSales)); gross > 0 {
		margin = total / gross * 100
	}

	out := map[string]any{
		"total_profit":          round2(total),
		"avg_profit":            round2(mean(profits)),
		"profit_std":            round2(sampleStd(profits)),
		"profit_margin_percent": round2(margin),
	}
	if t.HasColumn(dataset.ColUnitsSold) {
		perUnit := 0.0
		if units := sum(t.Floats(dataset.ColUnitsSold)); units > 0 {
			perUnit = total / units
		}
		out["profit_per_unit"] = round2(perUnit)
	}
	return out
}

// analyzeGroups breaks profit down by col and names the best and worst
// groups by total profit. Ties go to the alphabetically first group.
func analyzeGroups(t *dataset.Table, name, col string) map[string]any {
	if !t.HasColumn(col) || !t.HasColumn(dataset.ColProfit) {
		return nil
	}

	type acc struct {
		profits []float64
		gross   float64
		units   float64
	}
	groups := make(map[string]*acc)
	for _, r := range t.Rows {
		key, ok := r.String(col)
		if !ok {
			continue
		}
		g := groups[key]
		if g == nil {
			g = &acc{}
			groups[key] = g
		}
		if v, ok := r.Float(dataset.ColProfit); ok {
			g.profits = append(g.profits, v)
		}
		if v, ok := r.Float(dataset.ColGrossSales); ok {
			g.gross += v
		}
		if v, ok := r.Float(dataset.ColUnitsSold); ok {
			g.units += v
		}
	}
	if len(groups) == 0 {
		return nil
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	perf := make(map[string]GroupStats, len(groups))
	var best, worst string
	for _, k := range keys {
		g := groups[k]
		total := sum(g.profits)
		margin := 0.0
		if g.gross != 0 {
			margin = total / g.gross * 100
		}
		perf[k] = GroupStats{
			TotalProfit:  round2(total),
			AvgProfit:    round2(mean(g.profits)),
			Count:        len(g.profits),
			GrossSales:   round2(g.gross),
			UnitsSold:    round0(g.units),
			ProfitMargin: round2(margin),
		}
		if best == "" || total > sum(groups[best].profits) {
			best = k
		}
		if worst == "" || total < sum(groups[worst].profits) {
			worst = k
		}
	}

	return map[string]any{
		name + "_performance": perf,
		"best_" + name:        best,
		"worst_" + name:       worst,
	}
}

func baselineMetrics(t *dataset.Table) map[string]any {
	out := make(map[string]any)
	if profits := t.Floats(dataset.ColProfit); len(profits) > 0 {
		lo, hi := minMax(profits)
		out["total_profit"] = round2(sum(profits))
		out["max_profit"] = round2(hi)
		out["min_profit"] = round2(lo)
		out["avg_profit"] = round2(mean(profits))
	}
	if sales := t.Floats(dataset.ColGrossSales); len(sales) > 0 {
		out["total_sales"] = round2(sum(sales))
		out["avg_sales"] = round2(mean(sales))
	}
	if units := t.Floats(dataset.ColUnitsSold); len(units) > 0 {
		out["total_units"] = round0(sum(units))
		out["avg_units"] = round2(mean(units))
	}
	if cogs := t.Floats(dataset.ColCOGS); len(cogs) > 0 {
		out["total_cogs"] = round2(sum(cogs))
		out["avg_cogs"] = round2(mean(cogs))
	}
	return out
}
