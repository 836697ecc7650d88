package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ShayCichocki/finagent/internal/dataset"
	"github.com/ShayCichocki/finagent/pkg/models"
)

// Chart names.
const (
	ChartProfit    = "profit_chart"
	ChartQuarterly = "quarterly_chart"
	ChartUnits     = "units_chart"
	ChartTrend     = "trend_chart"
)

const movingAverageWindow = 7

// Visualizer renders charts of the fetched rows.
type Visualizer struct {
	*Base
}

// NewVisualizer creates a visualizer.
func NewVisualizer(logger *slog.Logger) *Visualizer {
	return &Visualizer{
		Base: newBase(IDVisualizer, "Data Visualizer", "Creates charts and visualizations from financial data",
			[]string{"chart", "graph", "plot", "visualize", "visualization", "trend", "show"},
			[]string{
				"Create profit charts",
				"Generate trend visualizations",
				"Plot quarterly comparisons",
				"Create volume charts",
				"Generate performance dashboards",
			},
			logger),
	}
}

// Execute implements Worker. When no chart word appears in the task the
// default profit chart is drawn.
func (v *Visualizer) Execute(ctx context.Context, task string, shared models.SharedContext) models.Result {
	v.begin()

	_, table, err := financialInput(shared)
	if err != nil {
		return v.fail(err)
	}
	analysis, _ := shared[models.ContextAnalysisResults].(map[string]any)

	charts, err := Visualize(task, table, analysis)
	if err != nil {
		return v.fail(err)
	}
	if err := ctx.Err(); err != nil {
		return v.fail(err)
	}

	v.put(models.ContextVisualizations, charts)
	return v.complete(charts, map[string]any{"charts_created": len(charts)})
}

// Visualize draws the charts task asks for.
func Visualize(task string, table *dataset.Table, analysis map[string]any) (Charts, error) {
	lower := strings.ToLower(task)
	charts := make(Charts)

	add := func(name string, c Chart, ok bool, err error) error {
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if ok {
			charts[name] = c
		}
		return nil
	}

	withAverage := strings.Contains(lower, "moving") || strings.Contains(lower, "average")
	if strings.Contains(lower, "chart") || strings.Contains(lower, "plot") {
		c, ok, err := profitChart(table, withAverage)
		if err := add(ChartProfit, c, ok, err); err != nil {
			return nil, err
		}
	}
	if strings.Contains(lower, "quarter") {
		c, ok, err := quarterlyChart(table)
		if err := add(ChartQuarterly, c, ok, err); err != nil {
			return nil, err
		}
	}
	if strings.Contains(lower, "volume") {
		c, ok, err := unitsChart(table)
		if err := add(ChartUnits, c, ok, err); err != nil {
			return nil, err
		}
	}
	if strings.Contains(lower, "trend") {
		_, hasAvg := analysis["avg_daily_profit"]
		c, ok, err := trendChart(table, hasAvg)
		if err := add(ChartTrend, c, ok, err); err != nil {
			return nil, err
		}
	}

	if len(charts) == 0 {
		c, ok, err := profitChart(table, withAverage)
		if err := add(ChartProfit, c, ok, err); err != nil {
			return nil, err
		}
	}
	return charts, nil
}

// profitSeries returns date labels and per-date profit totals, or record
// positions and raw values when the rows carry no dates.
func profitSeries(t *dataset.Table, col string) (x []any, y []float64, dated bool) {
	if t.HasColumn(dataset.ColDate) {
		if daily := seriesByDate(t, col); len(daily) > 0 {
			x = make([]any, len(daily))
			y = make([]float64, len(daily))
			for i, p := range daily {
				x[i] = p.Date.Format(time.DateOnly)
				y[i] = p.Value
			}
			return x, y, true
		}
	}
	values := t.Floats(col)
	x = make([]any, len(values))
	for i := range values {
		x[i] = i
	}
	return x, values, false
}

func profitLine(x []any, y []float64, dated bool) trace {
	if !dated {
		return trace{Type: "bar", Name: "Profit", X: x, Y: floatsToAny(y), Marker: &marker{Color: "blue"}}
	}
	return trace{
		Type: "scatter", Mode: "lines+markers", Name: "Daily Profit",
		X: x, Y: floatsToAny(y),
		Line: &line{Color: "blue", Width: 2},
	}
}

func averageLine(x []any, y []float64) trace {
	return trace{
		Type: "scatter", Mode: "lines", Name: fmt.Sprintf("%d-Period Average", movingAverageWindow),
		X: x, Y: nullable(movingAverage(y, movingAverageWindow)),
		Line: &line{Color: "orange", Width: 1, Dash: "dash"},
	}
}

func profitChart(t *dataset.Table, withAverage bool) (Chart, bool, error) {
	if !t.HasColumn(dataset.ColProfit) {
		return Chart{}, false, nil
	}
	x, y, dated := profitSeries(t, dataset.ColProfit)

	fig := figure{Data: []trace{profitLine(x, y, dated)}}
	if dated {
		if withAverage {
			fig.Data = append(fig.Data, averageLine(x, y))
		}
		fig.Layout = layout{
			Title:     axisTitle{Text: fmt.Sprintf("Profit Trend Chart - %v to %v", x[0], x[len(x)-1])},
			XAxis:     titled("Date"),
			YAxis:     titled("Profit ($)"),
			HoverMode: "x unified",
		}
	} else {
		fig.Layout = layout{Title: axisTitle{Text: "Profit Chart"}, XAxis: titled("Record"), YAxis: titled("Profit ($)")}
	}

	c, err := render("Profit Trend Chart", fig)
	return c, err == nil, err
}

func quarterlyChart(t *dataset.Table) (Chart, bool, error) {
	const title = "Quarterly Profit Changes"
	if !t.HasColumn(dataset.ColProfit) || !t.HasColumn(dataset.ColDate) {
		return Chart{}, false, nil
	}

	changes := quarterChanges(quarterlyTotals(t, dataset.ColProfit))
	if len(changes) == 0 {
		return insufficient(title, "Insufficient data for quarterly chart"), true, nil
	}

	x := make([]any, len(changes))
	y := make([]any, len(changes))
	colors := make([]string, len(changes))
	for i, c := range changes {
		x[i] = c.Quarter.String()
		y[i] = round2(c.Percent)
		colors[i] = "red"
		if c.Percent > 0 {
			colors[i] = "green"
		}
	}

	fig := figure{
		Data: []trace{{Type: "bar", Name: "Quarterly Profit Change (%)", X: x, Y: y, Marker: &marker{Color: colors}}},
		Layout: layout{
			Title: axisTitle{Text: title},
			XAxis: titled("Quarter"),
			YAxis: titled("Profit Change (%)"),
		},
	}
	c, err := render(title, fig)
	return c, err == nil, err
}

func unitsChart(t *dataset.Table) (Chart, bool, error) {
	const title = "Profit and Units Sold Chart"
	if !t.HasColumn(dataset.ColUnitsSold) {
		return Chart{}, false, nil
	}

	px, py, _ := profitSeries(t, dataset.ColProfit)
	ux, uy, _ := profitSeries(t, dataset.ColUnitsSold)

	fig := figure{
		Data: []trace{
			{Type: "scatter", Mode: "lines", Name: "Profit", X: px, Y: floatsToAny(py), Line: &line{Color: "blue"}},
			{Type: "bar", Name: "Units Sold", X: ux, Y: floatsToAny(uy), YAxis: "y2", Marker: &marker{Color: "lightblue"}},
		},
		Layout: layout{
			Title:  axisTitle{Text: title},
			YAxis:  &axis{Title: &axisTitle{Text: "Profit"}, Domain: []float64{0.35, 1}},
			YAxis2: &axis{Title: &axisTitle{Text: "Units Sold"}, Domain: []float64{0, 0.25}, Anchor: "x"},
			Height: 600,
		},
	}
	c, err := render(title, fig)
	return c, err == nil, err
}

func trendChart(t *dataset.Table, withAverage bool) (Chart, bool, error) {
	const title = "Profit Trend Analysis"
	if !t.HasColumn(dataset.ColProfit) {
		return Chart{}, false, nil
	}
	x, y, dated := profitSeries(t, dataset.ColProfit)

	fig := figure{Data: []trace{profitLine(x, y, dated)}}
	xTitle := "Record"
	if dated {
		xTitle = "Date"
		if withAverage {
			fig.Data = append(fig.Data, averageLine(x, y))
		}
	}
	fig.Layout = layout{Title: axisTitle{Text: title}, XAxis: titled(xTitle), YAxis: titled("Profit ($)")}

	c, err := render(title, fig)
	return c, err == nil, err
}
