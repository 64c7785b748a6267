// Package chart composes the dashboard's echarts line charts.
package chart

import (
	"math"
	"time"

	"github.com/aouyang1/go-forecastboard/event"
	"github.com/aouyang1/go-forecastboard/format"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Series colors and names shared by every chart.
const (
	ColorActual   = "#0068C9"
	ColorTrain    = "#FFAA00"
	ColorTest     = "#FF4B4B"
	ColorForecast = "#2DC937"
	ColorBand     = "rgba(45, 201, 55, 0.2)"
	ColorMarker   = "#555555"
	ColorHoliday  = "#9E9E9E"

	SeriesActual   = "Data Aktual"
	SeriesTrain    = "Hasil Training"
	SeriesTest     = "Prediksi Test"
	SeriesForecast = "Forecast"
	SeriesBand     = "Batas Risiko Forecast"
	SeriesBandBase = "Batas Bawah"

	ForecastStartLabel = "Mulai Forecast"

	bandStack  = "forecast-band"
	bandBaseID = "band-base"
	bandID     = "band"
)

// Options controls sizing and decoration shared across charts.
type Options struct {
	Title    string
	Subtitle string
	ChartID  string
	Width    string
	Height   string

	// AssetsHost serves echarts.min.js, defaulting to the go-echarts asset host.
	AssetsHost string

	// Currency formats the y axis as rupiah.
	Currency bool
	DataZoom bool
	Holidays []event.Event
}

func DefaultOptions() *Options {
	return &Options{
		Width:    "100%",
		Height:   "500px",
		Currency: true,
		DataZoom: true,
	}
}

// Apply sets the chart wide options on line. Zero fields keep the go-echarts defaults.
func (o *Options) Apply(line *charts.Line) {
	if o == nil {
		o = DefaultOptions()
	}

	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:      o.Width,
			Height:     o.Height,
			ChartID:    o.ChartID,
			AssetsHost: o.AssetsHost,
			PageTitle:  o.Title,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    o.Title,
			Subtitle: o.Subtitle,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "time",
			AxisLabel: &opts.AxisLabel{
				Formatter: "{dd} {MMM} {yyyy}",
			},
		}),
	)

	yAxis := opts.YAxis{
		Type:      "value",
		Scale:     opts.Bool(true),
		AxisLabel: &opts.AxisLabel{Show: opts.Bool(true)},
	}
	if o.Currency {
		yAxis.AxisLabel.Formatter = opts.FuncOpts(currencyAxisJS)
	}
	line.SetGlobalOptions(charts.WithYAxisOpts(yAxis))

	if o.DataZoom {
		line.SetGlobalOptions(
			charts.WithDataZoomOpts(
				opts.DataZoom{Type: "inside"},
				opts.DataZoom{Type: "slider"},
			),
		)
	}
}

// point is a time axis data item. The third dimension carries the display date for tooltips.
func point(t time.Time, v float64, extra ...interface{}) opts.LineData {
	value := []interface{}{format.ISODate(t), v, format.LongDate(t)}
	return opts.LineData{Value: append(value, extra...)}
}

// nullable maps NaN to a JSON null.
func nullable(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func valid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
