package worker

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
)

// ChartKind is the kind tag of every chart artifact.
const ChartKind = "chart"

// Chart is one rendered chart. Payload is a base64-encoded standalone HTML
// page, or a plain message when Insufficient is set.
type Chart struct {
	Kind         string `json:"kind"`
	Payload      string `json:"payload"`
	Title        string `json:"title"`
	Insufficient bool   `json:"insufficient,omitempty"`
}

// Charts maps chart names (profit_chart, quarterly_chart, units_chart,
// trend_chart) to their artifacts.
type Charts map[string]Chart

// HTML decodes the chart page.
func (c Chart) HTML() ([]byte, error) {
	if c.Insufficient {
		return nil, fmt.Errorf("chart %q has no renderable payload: %s", c.Title, c.Payload)
	}
	return base64.StdEncoding.DecodeString(c.Payload)
}

// figure is the JSON shape Plotly.newPlot consumes.
type figure struct {
	Data   []trace `json:"data"`
	Layout layout  `json:"layout"`
}

type trace struct {
	Type   string  `json:"type"`
	Mode   string  `json:"mode,omitempty"`
	Name   string  `json:"name"`
	X      []any   `json:"x"`
	Y      []any   `json:"y"`
	XAxis  string  `json:"xaxis,omitempty"`
	YAxis  string  `json:"yaxis,omitempty"`
	Line   *line   `json:"line,omitempty"`
	Marker *marker `json:"marker,omitempty"`
}

type line struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
	Dash  string  `json:"dash,omitempty"`
}

type marker struct {
	Color any `json:"color,omitempty"`
}

type axis struct {
	Title  *axisTitle `json:"title,omitempty"`
	Domain []float64  `json:"domain,omitempty"`
	Anchor string     `json:"anchor,omitempty"`
}

type axisTitle struct {
	Text string `json:"text"`
}

type layout struct {
	Title     axisTitle `json:"title"`
	XAxis     *axis     `json:"xaxis,omitempty"`
	YAxis     *axis     `json:"yaxis,omitempty"`
	YAxis2    *axis     `json:"yaxis2,omitempty"`
	HoverMode string    `json:"hovermode,omitempty"`
	Template  string    `json:"template,omitempty"`
	Height    int       `json:"height,omitempty"`
}

func titled(text string) *axis {
	return &axis{Title: &axisTitle{Text: text}}
}

var chartPage = template.Must(template.New("chart").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://cdn.plot.ly/plotly-2.35.2.min.js"></script>
</head>
<body>
<div id="chart" style="width:100%;height:100%;"></div>
<script>
Plotly.newPlot("chart", {{.Figure}});
</script>
</body>
</html>
`))

// render builds the chart page for fig and returns it as an artifact.
func render(title string, fig figure) (Chart, error) {
	if fig.Layout.Template == "" {
		fig.Layout.Template = "plotly_white"
	}
	raw, err := json.Marshal(fig)
	if err != nil {
		return Chart{}, fmt.Errorf("encode figure: %w", err)
	}

	var buf bytes.Buffer
	err = chartPage.Execute(&buf, struct {
		Title  string
		Figure template.JS
	}{Title: title, Figure: template.JS(raw)})
	if err != nil {
		return Chart{}, fmt.Errorf("render chart page: %w", err)
	}

	return Chart{
		Kind:    ChartKind,
		Payload: base64.StdEncoding.EncodeToString(buf.Bytes()),
		Title:   title,
	}, nil
}

func insufficient(title, msg string) Chart {
	return Chart{Kind: ChartKind, Payload: msg, Title: title, Insufficient: true}
}

func floatsToAny(xs []float64) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

// nullable converts a sparse series; nil entries encode as JSON null.
func nullable(xs []*float64) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		if x != nil {
			out[i] = *x
		}
	}
	return out
}
