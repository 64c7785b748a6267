package dashboard

import (
	"github.com/aouyang1/go-forecastboard/reconcile"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/render"
	"github.com/goccy/go-json"
)

// Level grades a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a message shown in place of, or next to, the content of a section.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Metric is a single headline number with an optional hover help text.
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Help  string `json:"help,omitempty"`
}

// Table holds preformatted cells. Absent values are already rendered as a placeholder.
type Table struct {
	Caption string     `json:"caption,omitempty"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Chart wraps an echarts line chart for templating and JSON encoding.
type Chart struct {
	ID    string
	Title string
	Notes []string

	line *charts.Line
}

func newChart(id, title string, line *charts.Line, notes ...string) *Chart {
	line.Initialization.ChartID = id
	return &Chart{
		ID:    id,
		Title: title,
		Notes: notes,
		line:  line,
	}
}

// Line returns the underlying chart.
func (c *Chart) Line() *charts.Line {
	return c.line
}

// Snippet renders the chart container element, its init script and its option object.
func (c *Chart) Snippet() render.ChartSnippet {
	return c.line.RenderSnippet()
}

// MarshalJSON encodes the chart option as a JavaScript object literal string, since the
// option may embed formatter functions.
func (c *Chart) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID     string   `json:"id"`
		Title  string   `json:"title"`
		Notes  []string `json:"notes,omitempty"`
		Option string   `json:"option"`
	}{
		ID:     c.ID,
		Title:  c.Title,
		Notes:  c.Notes,
		Option: c.Snippet().Option,
	})
}

type DecompositionSection struct {
	Title      string   `json:"title"`
	Actual     *Chart   `json:"actual,omitempty"`
	Summary    []string `json:"summary,omitempty"`
	Caption    string   `json:"caption"`
	Components []*Chart `json:"components,omitempty"`
	Notices    []Notice `json:"notices,omitempty"`
}

type ForecastSection struct {
	Title   string   `json:"title"`
	Metrics []Metric `json:"metrics,omitempty"`

	// ErrorMetrics are the unformatted scores behind Metrics, nil when they could not be
	// computed.
	ErrorMetrics *reconcile.ErrorMetrics `json:"-"`

	Overlay *Chart   `json:"overlay,omitempty"`
	Detail  *Table   `json:"detail,omitempty"`
	Notices []Notice `json:"notices,omitempty"`
}

type DataSection struct {
	Title   string                 `json:"title"`
	Table   *Table                 `json:"table,omitempty"`
	Rows    []reconcile.UnifiedRow `json:"-"`
	Notices []Notice               `json:"notices,omitempty"`
}

// Placeholder stands in for a mode without data.
type Placeholder struct {
	ImageURL string `json:"imageUrl"`
	Caption  string `json:"caption"`
	Notice   Notice `json:"notice"`
	Message  string `json:"message"`
}

// View is the result of one render pass. A placeholder view carries no sections.
type View struct {
	Mode        Mode         `json:"mode"`
	Label       string       `json:"label"`
	Title       string       `json:"title"`
	Placeholder *Placeholder `json:"placeholder,omitempty"`

	Decomposition *DecompositionSection `json:"decomposition,omitempty"`
	Forecast      *ForecastSection      `json:"forecast,omitempty"`
	Data          *DataSection          `json:"data,omitempty"`
}

// Charts returns every chart of the view in page order.
func (v *View) Charts() []*Chart {
	var out []*Chart
	if v.Decomposition != nil {
		if v.Decomposition.Actual != nil {
			out = append(out, v.Decomposition.Actual)
		}
		out = append(out, v.Decomposition.Components...)
	}
	if v.Forecast != nil && v.Forecast.Overlay != nil {
		out = append(out, v.Forecast.Overlay)
	}
	return out
}

// Notices collects the notices of every section.
func (v *View) Notices() []Notice {
	var out []Notice
	if v.Placeholder != nil {
		out = append(out, v.Placeholder.Notice)
	}
	if v.Decomposition != nil {
		out = append(out, v.Decomposition.Notices...)
	}
	if v.Forecast != nil {
		out = append(out, v.Forecast.Notices...)
	}
	if v.Data != nil {
		out = append(out, v.Data.Notices...)
	}
	return out
}

// Page lays every chart of the view on a standalone go-echarts page.
func (v *View) Page() *components.Page {
	page := components.NewPage()
	page.SetPageTitle(v.Title)
	page.SetLayout(components.PageFlexLayout)
	for _, c := range v.Charts() {
		page.AddCharts(c.Line())
	}
	return page
}
