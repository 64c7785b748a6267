// Package dashboard turns the spreadsheet tabs of a mode into a view model of charts, metrics
// and tables. Every failure is reported as a notice in the section it affects.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/aouyang1/go-forecastboard/chart"
	"github.com/aouyang1/go-forecastboard/event"
	"github.com/aouyang1/go-forecastboard/format"
	"github.com/aouyang1/go-forecastboard/reconcile"
	"github.com/aouyang1/go-forecastboard/sheet"
	"github.com/aouyang1/go-forecastboard/stats"
	"github.com/aouyang1/go-forecastboard/timedataset"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTitle = "Dasbor Hasil Analisis"

	placeholderImage = "https://placehold.co/600x300/EFEFEF/AAAAAA?text=Grafik+Analisis"
)

// Dataset points at the four tabs of one mode.
type Dataset struct {
	Actual   sheet.Source
	Train    sheet.Source
	Test     sheet.Source
	Forecast sheet.Source
}

// Configured reports whether any tab of the dataset is set.
func (d Dataset) Configured() bool {
	return d.Actual.Valid() || d.Train.Valid() || d.Test.Valid() || d.Forecast.Valid()
}

type Option func(*Dashboard)

// WithHolidays marks the named holidays on the overlay chart.
func WithHolidays(names ...string) Option {
	return func(d *Dashboard) {
		d.holidays = names
	}
}

func WithTitle(title string) Option {
	return func(d *Dashboard) {
		d.title = title
	}
}

// WithAssetsHost serves the echarts scripts from host instead of the go-echarts asset host.
func WithAssetsHost(host string) Option {
	return func(d *Dashboard) {
		d.assetsHost = host
	}
}

// Dashboard renders a view per mode from the tabs fetched through its loader.
type Dashboard struct {
	loader   sheet.Loader
	datasets map[Mode]Dataset

	title      string
	holidays   []string
	assetsHost string
}

// New returns a dashboard reading through loader. Modes without a configured dataset render a
// placeholder.
func New(loader sheet.Loader, datasets map[Mode]Dataset, opts ...Option) *Dashboard {
	d := &Dashboard{
		loader:   loader,
		datasets: make(map[Mode]Dataset, len(datasets)),
		title:    DefaultTitle,
	}
	for m, ds := range datasets {
		d.datasets[m] = ds
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Render runs one fetch then render pass for mode. The only error returned is ErrUnknownMode;
// data failures become notices in the view.
func (d *Dashboard) Render(ctx context.Context, mode Mode) (*View, error) {
	if mode == "" {
		mode = DefaultMode
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("unable to render %q, %w", mode, ErrUnknownMode)
	}

	view := &View{
		Mode:  mode,
		Label: mode.Label(),
		Title: d.title + " - " + mode.Label(),
	}

	ds, exists := d.datasets[mode]
	if !exists || !ds.Configured() {
		view.Placeholder = placeholder(mode)
		return view, nil
	}

	tabs := d.load(ctx, ds)
	view.Decomposition = d.decomposition(tabs)
	view.Forecast = d.forecast(tabs)
	view.Data = d.data(tabs)
	return view, nil
}

func placeholder(mode Mode) *Placeholder {
	return &Placeholder{
		ImageURL: placeholderImage,
		Caption:  "Contoh Grafik",
		Notice: Notice{
			Level:   LevelInfo,
			Message: "Analisis sedang diproses.",
		},
		Message: fmt.Sprintf("Konten dan analisis untuk %s akan segera tersedia di sini.", mode.Label()),
	}
}

// tab is the outcome of loading one spreadsheet tab.
type tab struct {
	name  string
	table *sheet.Table
	err   error
}

func (t tab) ok() bool {
	return t.err == nil && t.table != nil
}

// column returns the named column or nil when the tab failed or lacks it.
func (t tab) column(name string) *timedataset.TimeDataset {
	if !t.ok() || !t.table.Has(name) {
		return nil
	}
	td, err := t.table.Column(name)
	if err != nil {
		slog.Warn("unable to read column", "tab", t.name, "column", name, "error", err)
		return nil
	}
	return td
}

func (t tab) notice() Notice {
	msg := fmt.Sprintf("Gagal memuat data %s dari Google Sheets. Cek kembali ID & hak akses. Error: %v", t.name, t.err)
	if errors.Is(t.err, sheet.ErrSchemaMismatch) {
		msg = fmt.Sprintf("Format data %s tidak sesuai. Error: %v", t.name, t.err)
	}
	return Notice{Level: LevelError, Message: msg}
}

type tabs struct {
	actual   tab
	train    tab
	test     tab
	forecast tab
}

func (ts *tabs) all() []tab {
	return []tab{ts.actual, ts.train, ts.test, ts.forecast}
}

// load fetches the four tabs concurrently. A failed tab never cancels the others.
func (d *Dashboard) load(ctx context.Context, ds Dataset) *tabs {
	ts := &tabs{
		actual:   tab{name: "aktual"},
		train:    tab{name: "training"},
		test:     tab{name: "test"},
		forecast: tab{name: "forecast"},
	}

	var g errgroup.Group
	for _, job := range []struct {
		dst    *tab
		src    sheet.Source
		schema sheet.Schema
	}{
		{&ts.actual, ds.Actual, sheet.ActualSchema},
		{&ts.train, ds.Train, sheet.TrainSchema},
		{&ts.test, ds.Test, sheet.TestSchema},
		{&ts.forecast, ds.Forecast, sheet.ForecastSchema},
	} {
		g.Go(func() error {
			job.dst.table, job.dst.err = d.loader.Load(ctx, job.src, job.schema)
			if job.dst.err != nil {
				slog.Warn("unable to load tab", "tab", job.dst.name, "source", job.src.String(), "error", job.dst.err)
			}
			return nil
		})
	}
	g.Wait()
	return ts
}

var componentNotes = map[string][]string{
	sheet.ColTrend: {
		"Biaya pengeluaran secara jangka panjang sedang dalam fase kenaikan yang kuat.",
		"Garis trend dapat dideteksi awal dengan menarikkan garis secara semu ke grafik total pengeluaran.",
	},
	sheet.ColSeasonal: {
		"Pengeluaran memiliki pola musiman tahunan yang kuat dan berulang.",
		"Pola ini menjelaskan perilaku pengeluaran yang menjelaskan naik turunnya sepanjang periode.",
	},
	sheet.ColResid: {
		"Risiko biaya tak terduga yang tidak cukup dijelaskan dengan trend dan musiman.",
		"Nilai risiko tak terduga selalu muncul di akhir pekan Desember hingga akhir pekan Juli.",
	},
}

func (d *Dashboard) decomposition(ts *tabs) *DecompositionSection {
	sec := &DecompositionSection{
		Title:   "Dekomposisi Data",
		Caption: "Grafik ini menguraikan pengeluaran menjadi tiga komponen: pola jangka panjang (Trend), pola berulang (Seasonal), dan noise acak (Residual).",
	}
	if !ts.actual.ok() {
		sec.Notices = append(sec.Notices, ts.actual.notice())
		return sec
	}

	observed := ts.actual.column(sheet.ColObserved)
	if observed == nil {
		sec.Notices = append(sec.Notices, Notice{
			Level:   LevelWarning,
			Message: "Kolom 'observed' untuk data aktual tidak ditemukan.",
		})
	} else {
		opt := d.chartOptions("actual", "Total Pengeluaran Mingguan (Data Aktual)")
		opt.Height = "350px"
		sec.Actual = newChart(opt.ChartID, opt.Title, chart.Actual(observed, opt))
		sec.Summary = summarize(observed)
	}

	components := []struct {
		column string
		title  string
	}{
		{sheet.ColTrend, "Komponen Trend"},
		{sheet.ColSeasonal, "Komponen Seasonal"},
		{sheet.ColResid, "Komponen Residual"},
	}
	for _, c := range components {
		if !ts.actual.table.Has(c.column) {
			sec.Components = nil
			sec.Notices = append(sec.Notices, Notice{
				Level:   LevelInfo,
				Message: "Data dekomposisi (kolom 'trend', 'seasonal', 'resid') tidak ditemukan.",
			})
			break
		}
		line := chart.Decomposition(c.title, ts.actual.column(c.column), "200px")
		if d.assetsHost != "" {
			line.AssetsHost = d.assetsHost
		}
		sec.Components = append(sec.Components, newChart(c.column, c.title, line, componentNotes[c.column]...))
	}
	return sec
}

// summarize describes the range and coverage of the observed series.
func summarize(observed *timedataset.TimeDataset) []string {
	valid := observed.DropNan()
	if valid.Empty() {
		return []string{"Belum ada nilai aktual yang tercatat."}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range valid.Y {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	subject := "Biaya"
	if freq, err := timedataset.TimeSlice(valid.T).EstimateFreq(); err == nil {
		if label := timedataset.FreqLabel(freq); label != "" {
			subject = "Biaya " + strings.ToLower(label)
		}
	}

	first := timedataset.TimeSlice(valid.T).StartTime()
	last := timedataset.TimeSlice(valid.T).EndTime()
	summary := []string{
		fmt.Sprintf("%s berada di kisaran %s hingga %s.", subject, format.Currency(lo), format.Currency(hi)),
		fmt.Sprintf("Data mencakup %d periode dari %s hingga %s.", valid.Len(), format.LongDate(first), format.LongDate(last)),
	}
	if _, spikes := stats.DetectOutliers(valid.Y, stats.DefaultLowerPerc, stats.DefaultUpperPerc, stats.DefaultTukeyFactor); len(spikes) > 0 {
		summary = append(summary, fmt.Sprintf("Terdapat %d lonjakan tajam, tertinggi pada %s.", len(spikes), format.LongDate(valid.T[argmax(valid.Y, spikes)])))
	}
	if missing := observed.Len() - valid.Len(); missing > 0 {
		summary = append(summary, fmt.Sprintf("%d tanggal tidak memiliki nilai aktual.", missing))
	}
	return summary
}

// argmax returns the index in idx with the largest y.
func argmax(y []float64, idx []int) int {
	best := idx[0]
	for _, i := range idx[1:] {
		if y[i] > y[best] {
			best = i
		}
	}
	return best
}

func (d *Dashboard) forecast(ts *tabs) *ForecastSection {
	sec := &ForecastSection{Title: "Forecast Result"}

	actual := ts.actual.column(sheet.ColObserved)
	testFit := ts.test.column(sheet.ColPredicted)
	for _, t := range ts.all() {
		if !t.ok() {
			sec.Notices = append(sec.Notices, t.notice())
		}
	}

	switch metrics, err := reconcile.Metrics(actual, testFit); {
	case actual == nil || testFit == nil:
		sec.Notices = append(sec.Notices, Notice{
			Level:   LevelInfo,
			Message: "Data test atau data aktual tidak ditemukan untuk menghitung metrik performa.",
		})
	case errors.Is(err, reconcile.ErrEmptyOverlap):
		sec.Notices = append(sec.Notices, Notice{
			Level:   LevelWarning,
			Message: "Tidak ada periode data test yang tumpang tindih untuk dihitung performanya.",
		})
	case err != nil:
		sec.Notices = append(sec.Notices, Notice{
			Level:   LevelError,
			Message: fmt.Sprintf("Gagal menghitung metrik performa. Error: %v", err),
		})
	default:
		sec.ErrorMetrics = metrics
		sec.Metrics = metricWidgets(metrics)
	}

	series := chart.Series{
		Actual:   actual,
		TrainFit: ts.train.column(sheet.ColTrainPred),
		TestFit:  testFit,
		Forecast: ts.forecast.column(sheet.ColPredicted),
		Lower:    ts.forecast.column(sheet.ColLower99),
		Upper:    ts.forecast.column(sheet.ColUpper99),
	}
	opt := d.chartOptions("overlay", "Visualisasi Hasil Model")
	opt.Holidays = d.holidayMarkers(series)
	sec.Overlay = newChart(opt.ChartID, opt.Title, chart.Overlay(series, opt))

	if series.Forecast == nil {
		sec.Notices = append(sec.Notices, Notice{
			Level:   LevelInfo,
			Message: "Data forecast tidak tersedia.",
		})
		return sec
	}
	if series.Lower == nil || series.Upper == nil {
		sec.Notices = append(sec.Notices, Notice{
			Level:   LevelInfo,
			Message: "Batas risiko forecast tidak tersedia, hanya garis forecast yang ditampilkan.",
		})
	}
	sec.Detail = forecastTable(reconcile.ForecastRows(series.Forecast, series.Lower, series.Upper))
	return sec
}

func metricWidgets(m *reconcile.ErrorMetrics) []Metric {
	return []Metric{
		{Label: "Relative RMSE (RRMSE)", Value: format.Percent(m.RelativeRMSE)},
		{Label: "Rata-rata Error (MAE)", Value: format.Currency(m.MAE)},
		{
			Label: "Error Tertinggi Terjadi Pada",
			Value: format.LongDate(m.MaxErrorDate),
			Help:  "Selisih sebesar " + format.Currency(m.MaxErrorValue),
		},
		{Label: "MAPE", Value: format.Percent(m.MAPE * 100)},
		{Label: "R²", Value: format.Number(m.R2, 3)},
		{Label: "Periode Test", Value: format.Number(float64(m.Overlap), 0)},
	}
}

func forecastTable(rows []reconcile.ForecastRow) *Table {
	table := &Table{
		Caption: "Detail Nilai Forecast",
		Columns: []string{sheet.DateColumn, "Forecast", "Batas Bawah", "Batas Atas"},
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		table.Rows = append(table.Rows, []string{
			format.Date(r.Date),
			format.Currency(r.Forecast),
			format.Currency(r.Lower),
			format.Currency(r.Upper),
		})
	}
	return table
}

// holidayMarkers resolves the configured holidays over the dates spanned by the chart.
func (d *Dashboard) holidayMarkers(s chart.Series) []event.Event {
	if len(d.holidays) == 0 {
		return nil
	}
	var start, end time.Time
	for _, td := range []*timedataset.TimeDataset{s.Actual, s.TrainFit, s.TestFit, s.Forecast} {
		if td.Empty() {
			continue
		}
		first, last := timedataset.TimeSlice(td.T).StartTime(), timedataset.TimeSlice(td.T).EndTime()
		if start.IsZero() || first.Before(start) {
			start = first
		}
		if end.IsZero() || last.After(end) {
			end = last
		}
	}
	if start.IsZero() {
		return nil
	}

	markers, err := event.Markers(d.holidays, start, end)
	if err != nil {
		slog.Warn("unable to resolve holiday markers", "holidays", d.holidays, "error", err)
		return nil
	}
	return markers
}

func (d *Dashboard) data(ts *tabs) *DataSection {
	sec := &DataSection{Title: "Tinjau Data"}
	for _, t := range ts.all() {
		if !t.ok() {
			sec.Notices = append(sec.Notices, Notice{
				Level:   LevelWarning,
				Message: fmt.Sprintf("Data %s tidak tersedia, tabel disusun dari data yang berhasil dimuat.", t.name),
			})
		}
	}

	rows := reconcile.Unify(
		ts.actual.column(sheet.ColObserved),
		ts.train.column(sheet.ColTrainPred),
		ts.test.column(sheet.ColPredicted),
		ts.forecast.column(sheet.ColPredicted),
	)
	counts := reconcile.CategoryCounts(rows)
	slog.Debug("unified rows",
		"rows", len(rows),
		"historical", counts[reconcile.Historical],
		"training", counts[reconcile.Training],
		"test", counts[reconcile.TestPrediction],
		"forecast", counts[reconcile.Forecast],
	)
	sec.Rows = rows
	sec.Table = unifiedTable(rows)
	if len(rows) == 0 {
		sec.Notices = append(sec.Notices, Notice{
			Level:   LevelInfo,
			Message: "Tidak ada data untuk ditampilkan.",
		})
	}
	return sec
}

func unifiedTable(rows []reconcile.UnifiedRow) *Table {
	table := &Table{
		Caption: "Tabel ini menggabungkan semua data yang digunakan dalam grafik di atas.",
		Columns: []string{sheet.DateColumn, "Keterangan", "Aktual", "Prediksi"},
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		table.Rows = append(table.Rows, []string{
			format.Date(r.Date),
			r.Category.Label(),
			format.Currency(r.Actual),
			format.Currency(r.Predicted),
		})
	}
	return table
}

func (d *Dashboard) chartOptions(id, title string) *chart.Options {
	opt := chart.DefaultOptions()
	opt.ChartID = id
	opt.Title = title
	opt.AssetsHost = d.assetsHost
	return opt
}
