package chart

import (
	"log/slog"

	"github.com/aouyang1/go-forecastboard/event"
	"github.com/aouyang1/go-forecastboard/format"
	"github.com/aouyang1/go-forecastboard/reconcile"
	"github.com/aouyang1/go-forecastboard/timedataset"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Series holds the inputs of the overlay chart. Any of them may be nil.
type Series struct {
	Actual   *timedataset.TimeDataset
	TrainFit *timedataset.TimeDataset
	TestFit  *timedataset.TimeDataset
	Forecast *timedataset.TimeDataset
	Lower    *timedataset.TimeDataset
	Upper    *timedataset.TimeDataset
}

// Overlay draws the actuals, the training fit, the test predictions and the forecast on one
// time axis. The shaded band between the bounds is drawn only when both bounds are present and
// a dashed marker flags the first forecast date.
func Overlay(s Series, opt *Options) *charts.Line {
	if opt == nil {
		opt = DefaultOptions()
	}

	line := charts.NewLine()
	opt.Apply(line)
	line.SetGlobalOptions(
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(true),
			Trigger:   "axis",
			Formatter: opts.FuncOpts(overlayTooltipJS),
		}),
	)

	var legend []string

	if data := lineData(s.Actual); len(data) > 0 {
		seriesOpts := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: ColorActual, Width: 2}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: ColorActual}),
		}
		seriesOpts = append(seriesOpts, holidayMarkLines(opt.Holidays)...)
		line.AddSeries(SeriesActual, data, seriesOpts...)
		legend = append(legend, SeriesActual)
	} else if len(opt.Holidays) > 0 {
		slog.Debug("no actual series to carry holiday markers", "holidays", len(opt.Holidays))
	}

	if data := lineData(s.TrainFit); len(data) > 0 {
		line.AddSeries(SeriesTrain, data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: ColorTrain, Width: 2, Type: "dashed"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: ColorTrain}),
		)
		legend = append(legend, SeriesTrain)
	}

	if data := lineData(s.TestFit); len(data) > 0 {
		line.AddSeries(SeriesTest, data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: ColorTest, Width: 2}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: ColorTest}),
		)
		legend = append(legend, SeriesTest)
	}

	if s.Lower != nil && s.Upper != nil {
		base, band := bandData(s.Forecast, s.Lower, s.Upper)
		if len(base) > 0 {
			line.AddSeries(SeriesBandBase, base,
				charts.WithSeriesId(bandBaseID),
				charts.WithLineChartOpts(opts.LineChart{Stack: bandStack, ShowSymbol: opts.Bool(false)}),
				charts.WithLineStyleOpts(opts.LineStyle{Opacity: opts.Float(0)}),
			)
			line.AddSeries(SeriesBand, band,
				charts.WithSeriesId(bandID),
				charts.WithLineChartOpts(opts.LineChart{Stack: bandStack, ShowSymbol: opts.Bool(false)}),
				charts.WithLineStyleOpts(opts.LineStyle{Opacity: opts.Float(0)}),
				charts.WithAreaStyleOpts(opts.AreaStyle{Color: ColorBand, Opacity: opts.Float(1)}),
				charts.WithItemStyleOpts(opts.ItemStyle{Color: ColorBand}),
			)
			legend = append(legend, SeriesBand)
		}
	}

	if data := forecastData(s.Forecast, s.Lower, s.Upper); len(data) > 0 {
		seriesOpts := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: ColorForecast, Width: 3}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: ColorForecast}),
		}
		if start, ok := reconcile.ForecastStart(s.Forecast); ok {
			seriesOpts = append(seriesOpts,
				charts.WithMarkLineNameXAxisItemOpts(opts.MarkLineNameXAxisItem{
					Name:  ForecastStartLabel,
					XAxis: format.ISODate(start),
				}),
				charts.WithMarkLineStyleOpts(opts.MarkLineStyle{
					Symbol: []string{"none", "none"},
					Label: &opts.Label{
						Show:      opts.Bool(true),
						Position:  "insideEndTop",
						Formatter: "{b}",
					},
					LineStyle: &opts.LineStyle{Color: ColorMarker, Width: 1, Type: "dashed"},
				}),
			)
		}
		line.AddSeries(SeriesForecast, data, seriesOpts...)
		legend = append(legend, SeriesForecast)
	}

	line.SetGlobalOptions(
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
			Top:  "bottom",
			Data: legend,
		}),
	)
	return line
}

// lineData converts a dataset into time axis points, dropping absent values.
func lineData(td *timedataset.TimeDataset) []opts.LineData {
	data := make([]opts.LineData, 0, td.Len())
	for i := 0; i < td.Len(); i++ {
		if !valid(td.Y[i]) {
			continue
		}
		data = append(data, point(td.T[i], td.Y[i]))
	}
	return data
}

// forecastData carries the bounds of each date as extra dimensions for the tooltip.
func forecastData(forecast, lower, upper *timedataset.TimeDataset) []opts.LineData {
	rows := reconcile.ForecastRows(forecast, lower, upper)
	data := make([]opts.LineData, 0, len(rows))
	for _, row := range rows {
		if !valid(row.Forecast) {
			continue
		}
		data = append(data, point(row.Date, row.Forecast, nullable(row.Lower), nullable(row.Upper)))
	}
	return data
}

// bandData returns the transparent lower base and the stacked upper minus lower width. Dates
// missing either bound are skipped in both so the stack stays aligned. Bounds are taken on the
// forecast dates when a forecast is present.
func bandData(forecast, lower, upper *timedataset.TimeDataset) ([]opts.LineData, []opts.LineData) {
	dates := lower
	if !forecast.Empty() {
		dates = forecast
	}
	upperIdx := upper.Index()
	lowerIdx := lower.Index()

	base := make([]opts.LineData, 0, dates.Len())
	band := make([]opts.LineData, 0, dates.Len())
	for i := 0; i < dates.Len(); i++ {
		key := timedataset.DayKey(dates.T[i])
		lo, hasLo := lowerIdx[key]
		hi, hasHi := upperIdx[key]
		if !hasLo || !hasHi || !valid(lo) || !valid(hi) {
			continue
		}
		t := timedataset.FromDayKey(key)
		base = append(base, point(t, lo))
		band = append(band, point(t, hi-lo))
	}
	return base, band
}

func holidayMarkLines(holidays []event.Event) []charts.SeriesOpts {
	if len(holidays) == 0 {
		return nil
	}
	items := make([]opts.MarkLineNameXAxisItem, 0, len(holidays))
	for _, h := range holidays {
		items = append(items, opts.MarkLineNameXAxisItem{
			Name:  h.Name,
			XAxis: format.ISODate(h.Start),
		})
	}
	return []charts.SeriesOpts{
		charts.WithMarkLineNameXAxisItemOpts(items...),
		charts.WithMarkLineStyleOpts(opts.MarkLineStyle{
			Symbol: []string{"none", "none"},
			Label: &opts.Label{
				Show:      opts.Bool(true),
				Position:  "insideEndTop",
				Formatter: "{b}",
				Color:     ColorHoliday,
			},
			LineStyle: &opts.LineStyle{Color: ColorHoliday, Width: 1, Type: "dotted"},
		}),
	}
}
