package dashboard

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aouyang1/go-forecastboard/chart"
	"github.com/aouyang1/go-forecastboard/sheet"
	"github.com/aouyang1/go-forecastboard/timedataset"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	actualCSV = `BSM_CREATED_ON,observed,trend,seasonal,resid
2024-01-01,100,90,5,5
2024-01-08,200,180,10,10
`
	trainCSV = `BSM_CREATED_ON,Train Pred
2023-12-18,80
2023-12-25,95
`
	testCSV = `BSM_CREATED_ON,prediksi_inti
2024-01-01,110
2024-01-08,190
`
	forecastCSV = `BSM_CREATED_ON,prediksi_inti,batas_bawah_99,batas_atas_99
2024-01-15,140,120,160
2024-01-22,150,125,175
`
)

var shipDataset = Dataset{
	Actual:   sheet.Source{SpreadsheetID: "sheet", TabID: "actual"},
	Train:    sheet.Source{SpreadsheetID: "sheet", TabID: "train"},
	Test:     sheet.Source{SpreadsheetID: "sheet", TabID: "test"},
	Forecast: sheet.Source{SpreadsheetID: "sheet", TabID: "forecast"},
}

type fakeLoader struct {
	tables map[string]string
	errs   map[string]error

	mu    sync.Mutex
	calls int
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		tables: map[string]string{
			"actual":   actualCSV,
			"train":    trainCSV,
			"test":     testCSV,
			"forecast": forecastCSV,
		},
		errs: make(map[string]error),
	}
}

func (f *fakeLoader) Load(ctx context.Context, src sheet.Source, schema sheet.Schema) (*sheet.Table, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if err, exists := f.errs[src.TabID]; exists {
		return nil, err
	}
	body, exists := f.tables[src.TabID]
	if !exists {
		return nil, fmt.Errorf("tab %s not found, %w", src.TabID, sheet.ErrSourceUnavailable)
	}
	return sheet.Parse(strings.NewReader(body), schema)
}

func (f *fakeLoader) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func renderView(t *testing.T, loader sheet.Loader, opts ...Option) *View {
	t.Helper()
	d := New(loader, map[Mode]Dataset{ModeShip: shipDataset}, opts...)
	view, err := d.Render(context.Background(), ModeShip)
	require.NoError(t, err)
	require.NotNil(t, view)
	return view
}

func hasNotice(notices []Notice, level Level, substr string) bool {
	for _, n := range notices {
		if n.Level == level && strings.Contains(n.Message, substr) {
			return true
		}
	}
	return false
}

func TestParseMode(t *testing.T) {
	testData := map[string]struct {
		input    string
		expected Mode
		err      error
	}{
		"empty":           {input: "", expected: ModeShip},
		"ship id":         {input: "bsm-kapal", expected: ModeShip},
		"ship label":      {input: "BSM Kapal", expected: ModeShip},
		"equipment id":    {input: "BSM-ALAT-BERAT", expected: ModeHeavyEquipment},
		"equipment label": {input: " bsm alat berat ", expected: ModeHeavyEquipment},
		"unknown":         {input: "bsm-pesawat", err: ErrUnknownMode},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			mode, err := ParseMode(td.input)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.expected, mode)
		})
	}
}

func TestRenderFull(t *testing.T) {
	view := renderView(t, newFakeLoader())

	assert.Equal(t, ModeShip, view.Mode)
	assert.Equal(t, "Dasbor Hasil Analisis - BSM Kapal", view.Title)
	assert.Nil(t, view.Placeholder)
	assert.Empty(t, view.Notices())

	require.NotNil(t, view.Decomposition)
	require.NotNil(t, view.Decomposition.Actual)
	require.Len(t, view.Decomposition.Components, 3)
	assert.Equal(t, "trend", view.Decomposition.Components[0].ID)
	assert.Contains(t, view.Decomposition.Summary[0], "Rp 100 hingga Rp 200")
	assert.Contains(t, view.Decomposition.Summary[0], "mingguan")

	require.NotNil(t, view.Forecast)
	require.GreaterOrEqual(t, len(view.Forecast.Metrics), 3)
	assert.Equal(t, Metric{Label: "Relative RMSE (RRMSE)", Value: "6.67%"}, view.Forecast.Metrics[0])
	assert.Equal(t, Metric{Label: "Rata-rata Error (MAE)", Value: "Rp 10"}, view.Forecast.Metrics[1])
	assert.Equal(t, Metric{
		Label: "Error Tertinggi Terjadi Pada",
		Value: "01 January 2024",
		Help:  "Selisih sebesar Rp 10",
	}, view.Forecast.Metrics[2])

	require.NotNil(t, view.Forecast.Detail)
	assert.Equal(t, [][]string{
		{"15 Jan 2024", "Rp 140", "Rp 120", "Rp 160"},
		{"22 Jan 2024", "Rp 150", "Rp 125", "Rp 175"},
	}, view.Forecast.Detail.Rows)

	require.NotNil(t, view.Forecast.Overlay)
	var names []string
	for _, s := range view.Forecast.Overlay.Line().MultiSeries {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		chart.SeriesActual, chart.SeriesTrain, chart.SeriesTest,
		chart.SeriesBandBase, chart.SeriesBand, chart.SeriesForecast,
	}, names)

	require.NotNil(t, view.Data)
	require.NotNil(t, view.Data.Table)
	assert.Equal(t, []string{"BSM_CREATED_ON", "Keterangan", "Aktual", "Prediksi"}, view.Data.Table.Columns)
	assert.Equal(t, [][]string{
		{"18 Dec 2023", "Hasil Training", "-", "Rp 80"},
		{"25 Dec 2023", "Hasil Training", "-", "Rp 95"},
		{"01 Jan 2024", "Prediksi Test", "Rp 100", "Rp 110"},
		{"08 Jan 2024", "Prediksi Test", "Rp 200", "Rp 190"},
		{"15 Jan 2024", "Forecast Masa Depan", "-", "Rp 140"},
		{"22 Jan 2024", "Forecast Masa Depan", "-", "Rp 150"},
	}, view.Data.Table.Rows)

	assert.Len(t, view.Charts(), 5)
}

func TestRenderModes(t *testing.T) {
	testData := map[string]struct {
		datasets    map[Mode]Dataset
		mode        Mode
		placeholder bool
		calls       int
		err         error
	}{
		"default mode": {
			datasets: map[Mode]Dataset{ModeShip: shipDataset},
			calls:    4,
		},
		"heavy equipment without dataset": {
			datasets:    map[Mode]Dataset{ModeShip: shipDataset},
			mode:        ModeHeavyEquipment,
			placeholder: true,
		},
		"heavy equipment with empty dataset": {
			datasets:    map[Mode]Dataset{ModeHeavyEquipment: {}},
			mode:        ModeHeavyEquipment,
			placeholder: true,
		},
		"heavy equipment with dataset": {
			datasets: map[Mode]Dataset{ModeHeavyEquipment: shipDataset},
			mode:     ModeHeavyEquipment,
			calls:    4,
		},
		"unknown mode": {
			datasets: map[Mode]Dataset{ModeShip: shipDataset},
			mode:     Mode("bsm-pesawat"),
			err:      ErrUnknownMode,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			loader := newFakeLoader()
			view, err := New(loader, td.datasets).Render(context.Background(), td.mode)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				assert.Nil(t, view)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.calls, loader.Calls())
			if td.placeholder {
				require.NotNil(t, view.Placeholder)
				assert.Equal(t, LevelInfo, view.Placeholder.Notice.Level)
				assert.Contains(t, view.Placeholder.Message, ModeHeavyEquipment.Label())
				assert.Nil(t, view.Decomposition)
				assert.Nil(t, view.Forecast)
				assert.Nil(t, view.Data)
				assert.Empty(t, view.Charts())
				return
			}
			assert.Nil(t, view.Placeholder)
			assert.NotNil(t, view.Forecast)
		})
	}
}

func TestRenderActualUnavailable(t *testing.T) {
	loader := newFakeLoader()
	loader.errs["actual"] = fmt.Errorf("returned status 404, %w", sheet.ErrSourceUnavailable)
	view := renderView(t, loader)

	assert.Nil(t, view.Decomposition.Actual)
	assert.Empty(t, view.Decomposition.Components)
	assert.True(t, hasNotice(view.Decomposition.Notices, LevelError, "Gagal memuat data aktual"))

	assert.Empty(t, view.Forecast.Metrics)
	assert.True(t, hasNotice(view.Forecast.Notices, LevelInfo, "Data test atau data aktual tidak ditemukan"))
	assert.NotNil(t, view.Forecast.Overlay)
	assert.NotNil(t, view.Forecast.Detail)

	assert.True(t, hasNotice(view.Data.Notices, LevelWarning, "Data aktual tidak tersedia"))
	for _, row := range view.Data.Table.Rows {
		assert.Equal(t, "-", row[2])
	}
	assert.Len(t, view.Data.Table.Rows, 6)
}

func TestRenderSchemaMismatch(t *testing.T) {
	loader := newFakeLoader()
	loader.tables["test"] = "BSM_CREATED_ON,prediction\n2024-01-01,110\n"
	view := renderView(t, loader)

	assert.True(t, hasNotice(view.Forecast.Notices, LevelError, "Format data test tidak sesuai"))
	assert.Empty(t, view.Forecast.Metrics)
	assert.NotNil(t, view.Decomposition.Actual)
}

func TestRenderEmptyOverlap(t *testing.T) {
	loader := newFakeLoader()
	loader.tables["test"] = "BSM_CREATED_ON,prediksi_inti\n2023-06-01,110\n2023-06-08,\n"
	view := renderView(t, loader)

	assert.Empty(t, view.Forecast.Metrics)
	assert.True(t, hasNotice(view.Forecast.Notices, LevelWarning, "tumpang tindih"))
}

func TestRenderForecastWithoutBounds(t *testing.T) {
	loader := newFakeLoader()
	loader.tables["forecast"] = "BSM_CREATED_ON,prediksi_inti\n2024-01-15,140\n2024-01-22,150\n"
	view := renderView(t, loader)

	for _, s := range view.Forecast.Overlay.Line().MultiSeries {
		assert.NotEqual(t, chart.SeriesBand, s.Name)
	}
	assert.True(t, hasNotice(view.Forecast.Notices, LevelInfo, "Batas risiko forecast tidak tersedia"))
	require.NotNil(t, view.Forecast.Detail)
	assert.Equal(t, []string{"15 Jan 2024", "Rp 140", "-", "-"}, view.Forecast.Detail.Rows[0])
}

func TestRenderForecastUnavailable(t *testing.T) {
	loader := newFakeLoader()
	delete(loader.tables, "forecast")
	view := renderView(t, loader)

	assert.Nil(t, view.Forecast.Detail)
	assert.True(t, hasNotice(view.Forecast.Notices, LevelInfo, "Data forecast tidak tersedia"))
	assert.True(t, hasNotice(view.Forecast.Notices, LevelError, "Gagal memuat data forecast"))
	assert.NotEmpty(t, view.Forecast.Metrics)
}

func TestRenderMissingDecomposition(t *testing.T) {
	loader := newFakeLoader()
	loader.tables["actual"] = "BSM_CREATED_ON,observed,trend\n2024-01-01,100,90\n2024-01-08,200,180\n"
	view := renderView(t, loader)

	assert.NotNil(t, view.Decomposition.Actual)
	assert.Empty(t, view.Decomposition.Components)
	assert.True(t, hasNotice(view.Decomposition.Notices, LevelInfo, "Data dekomposisi"))
}

func TestRenderAllUnavailable(t *testing.T) {
	loader := newFakeLoader()
	loader.tables = map[string]string{}
	view := renderView(t, loader)

	assert.Empty(t, view.Data.Table.Rows)
	assert.True(t, hasNotice(view.Data.Notices, LevelInfo, "Tidak ada data"))
	assert.Empty(t, view.Forecast.Overlay.Line().MultiSeries)
	assert.Nil(t, view.Forecast.Detail)
}

func TestRenderHolidays(t *testing.T) {
	view := renderView(t, newFakeLoader(), WithHolidays("natal"), WithTitle("BSM"))
	assert.Equal(t, "BSM - BSM Kapal", view.Title)

	actual := view.Forecast.Overlay.Line().MultiSeries[0]
	require.Equal(t, chart.SeriesActual, actual.Name)
	require.NotNil(t, actual.MarkLines)
	require.Len(t, actual.MarkLines.Data, 1)
}

func TestViewJSON(t *testing.T) {
	view := renderView(t, newFakeLoader())

	b, err := json.Marshal(view)
	require.NoError(t, err)

	var decoded struct {
		Mode     string `json:"mode"`
		Forecast struct {
			Metrics []Metric `json:"metrics"`
			Overlay struct {
				ID     string `json:"id"`
				Option string `json:"option"`
			} `json:"overlay"`
		} `json:"forecast"`
		Data struct {
			Table Table `json:"table"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "bsm-kapal", decoded.Mode)
	assert.Equal(t, "overlay", decoded.Forecast.Overlay.ID)
	assert.Contains(t, decoded.Forecast.Overlay.Option, chart.ForecastStartLabel)
	assert.Equal(t, "6.67%", decoded.Forecast.Metrics[0].Value)
	assert.Len(t, decoded.Data.Table.Rows, 6)
}

func TestViewPage(t *testing.T) {
	view := renderView(t, newFakeLoader())
	page := view.Page()
	assert.Len(t, page.Charts, 5)
	assert.Equal(t, view.Title, page.PageTitle)
}

func TestSummarize(t *testing.T) {
	nan := math.NaN()
	testData := map[string]struct {
		y        []float64
		expected []string
	}{
		"no values": {
			y:        []float64{nan, nan},
			expected: []string{"Belum ada nilai aktual yang tercatat."},
		},
		"spike and gap": {
			y: []float64{10, 11, 12, nan, 10, 11, 100, 12, 11},
			expected: []string{
				"Biaya mingguan berada di kisaran Rp 10 hingga Rp 100.",
				"Data mencakup 8 periode dari 01 January 2024 hingga 26 February 2024.",
				"Terdapat 1 lonjakan tajam, tertinggi pada 12 February 2024.",
				"1 tanggal tidak memiliki nilai aktual.",
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			ts := make([]time.Time, len(td.y))
			for i := range ts {
				ts[i] = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7*i)
			}
			observed, err := timedataset.NewUnivariateDataset(ts, td.y)
			require.NoError(t, err)
			assert.Equal(t, td.expected, summarize(observed))
		})
	}
}
