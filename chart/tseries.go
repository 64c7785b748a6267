package chart

import (
	"time"

	"github.com/aouyang1/go-forecastboard/timedataset"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// LineTSeries generates an echart multi-line chart for some arbitrary time/value combination. The input
// y is a slice of series that must have the same length as the input time slice. NaN values leave a
// gap in their own series only. colors[i], when given, styles series i.
func LineTSeries(seriesName []string, t []time.Time, y [][]float64, opt *Options, colors []string) *charts.Line {
	if opt == nil {
		opt = DefaultOptions()
	}
	line := charts.NewLine()
	opt.Apply(line)

	tooltip := plainTooltipJS
	if opt.Currency {
		tooltip = overlayTooltipJS
	}
	line.SetGlobalOptions(
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(true),
			Trigger:   "axis",
			Formatter: opts.FuncOpts(tooltip),
		}),
	)

	for i, name := range seriesName {
		if i >= len(y) {
			break
		}
		data := make([]opts.LineData, 0, len(y[i]))
		for j := 0; j < len(y[i]) && j < len(t); j++ {
			if !valid(y[i][j]) {
				continue
			}
			data = append(data, point(t[j], y[i][j]))
		}

		seriesOpts := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		}
		if i < len(colors) {
			seriesOpts = append(seriesOpts,
				charts.WithLineStyleOpts(opts.LineStyle{Color: colors[i], Width: 2}),
				charts.WithItemStyleOpts(opts.ItemStyle{Color: colors[i]}),
			)
		}
		line.AddSeries(name, data, seriesOpts...)
	}

	if len(seriesName) > 1 {
		line.SetGlobalOptions(
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		)
	}
	return line
}

// Actual charts the observed series alone.
func Actual(td *timedataset.TimeDataset, opt *Options) *charts.Line {
	if opt == nil {
		opt = DefaultOptions()
	}
	var t []time.Time
	var y []float64
	if td != nil {
		t, y = td.T, td.Y
	}
	return LineTSeries([]string{SeriesActual}, t, [][]float64{y}, opt, []string{ColorActual})
}

// Decomposition charts one component of the additive decomposition in a short panel without
// zoom controls.
func Decomposition(title string, td *timedataset.TimeDataset, height string) *charts.Line {
	opt := DefaultOptions()
	opt.Title = title
	opt.Height = height
	opt.DataZoom = false
	var t []time.Time
	var y []float64
	if td != nil {
		t, y = td.T, td.Y
	}
	return LineTSeries([]string{title}, t, [][]float64{y}, opt, []string{ColorActual})
}
