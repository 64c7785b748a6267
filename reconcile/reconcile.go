// Package reconcile aligns the actual, fitted and forecast series onto one date axis and
// scores the test predictions against the actuals.
package reconcile

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aouyang1/go-forecastboard/score"
	"github.com/aouyang1/go-forecastboard/timedataset"
)

var ErrEmptyOverlap = errors.New("no dates with both actual and test prediction values")

// Category describes which part of the pipeline produced the value of a row.
type Category int

const (
	Historical Category = iota
	Training
	TestPrediction
	Forecast
)

func (c Category) String() string {
	switch c {
	case Historical:
		return "historical"
	case Training:
		return "training"
	case TestPrediction:
		return "test_prediction"
	case Forecast:
		return "forecast"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Label is the display name shown in tables.
func (c Category) Label() string {
	switch c {
	case Historical:
		return "Data Historis"
	case Training:
		return "Hasil Training"
	case TestPrediction:
		return "Prediksi Test"
	case Forecast:
		return "Forecast Masa Depan"
	default:
		return c.String()
	}
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnifiedRow is one date of the unified table. Actual and Predicted are NaN when absent.
type UnifiedRow struct {
	Date      time.Time
	Category  Category
	Actual    float64
	Predicted float64
}

// ErrorMetrics scores the test predictions over the dates where both sides have a value.
type ErrorMetrics struct {
	MAE           float64
	RMSE          float64
	RelativeRMSE  float64 // percent of the mean actual over the overlap, 0 when that mean is 0
	MaxErrorDate  time.Time
	MaxErrorValue float64
	MAPE          float64
	R2            float64
	Overlap       int
}

// Reconcile builds the unified rows and the test metrics. Rows are returned even when the
// metrics cannot be computed, in which case the error is ErrEmptyOverlap.
func Reconcile(actual, trainFit, testFit, forecast *timedataset.TimeDataset) ([]UnifiedRow, *ErrorMetrics, error) {
	rows := Unify(actual, trainFit, testFit, forecast)
	metrics, err := Metrics(actual, testFit)
	if err != nil {
		return rows, nil, err
	}
	return rows, metrics, nil
}

// Unify returns one row per distinct date across all inputs in ascending order. The predicted
// value and category come from the first series containing the date in the order forecast,
// test, train. Dates only present in actual are Historical. A date counts as present in a
// series even when its value there is NaN.
func Unify(actual, trainFit, testFit, forecast *timedataset.TimeDataset) []UnifiedRow {
	actualIdx := actual.Index()
	sources := []struct {
		idx map[int64]float64
		cat Category
	}{
		{forecast.Index(), Forecast},
		{testFit.Index(), TestPrediction},
		{trainFit.Index(), Training},
	}

	keys := make(map[int64]struct{}, len(actualIdx))
	for key := range actualIdx {
		keys[key] = struct{}{}
	}
	for _, src := range sources {
		for key := range src.idx {
			keys[key] = struct{}{}
		}
	}
	sorted := sortedKeys(keys)

	rows := make([]UnifiedRow, 0, len(sorted))
	for _, key := range sorted {
		row := UnifiedRow{
			Date:      timedataset.FromDayKey(key),
			Category:  Historical,
			Actual:    math.NaN(),
			Predicted: math.NaN(),
		}
		if v, exists := actualIdx[key]; exists {
			row.Actual = v
		}
		for _, src := range sources {
			if v, exists := src.idx[key]; exists {
				row.Category = src.cat
				row.Predicted = v
				break
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// sortedKeys returns the day keys of m in chronological order.
func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Metrics scores testFit against actual over their chronological overlap. A day repeated in
// either series counts once with its first value, as in Unify.
func Metrics(actual, testFit *timedataset.TimeDataset) (*ErrorMetrics, error) {
	actualIdx := actual.Index()
	testIdx := testFit.Index()

	var dates []time.Time
	var predicted, observed []float64
	for _, key := range sortedKeys(testIdx) {
		p := testIdx[key]
		if math.IsNaN(p) {
			continue
		}
		a, exists := actualIdx[key]
		if !exists || math.IsNaN(a) {
			continue
		}
		dates = append(dates, timedataset.FromDayKey(key))
		predicted = append(predicted, p)
		observed = append(observed, a)
	}
	if len(dates) == 0 {
		return nil, ErrEmptyOverlap
	}

	scores, err := score.NewScores(predicted, observed)
	if err != nil {
		return nil, fmt.Errorf("unable to score test predictions, %w", err)
	}
	maxIdx, maxErr, err := score.MaxAbsError(predicted, observed)
	if err != nil {
		return nil, fmt.Errorf("unable to find max error, %w", err)
	}

	return &ErrorMetrics{
		MAE:           scores.MAE,
		RMSE:          scores.RMSE,
		RelativeRMSE:  scores.RelativeRMSE,
		MaxErrorDate:  dates[maxIdx],
		MaxErrorValue: maxErr,
		MAPE:          scores.MAPE,
		R2:            scores.R2,
		Overlap:       len(dates),
	}, nil
}

// ForecastRow is one date of the forecast detail table. Bounds are NaN when absent.
type ForecastRow struct {
	Date     time.Time
	Forecast float64
	Lower    float64
	Upper    float64
}

// ForecastRows lists the forecast with its bounds looked up by date. nil bounds give NaN.
func ForecastRows(forecast, lower, upper *timedataset.TimeDataset) []ForecastRow {
	lowerIdx := lower.Index()
	upperIdx := upper.Index()

	rows := make([]ForecastRow, 0, forecast.Len())
	for i := 0; i < forecast.Len(); i++ {
		key := timedataset.DayKey(forecast.T[i])
		row := ForecastRow{
			Date:     timedataset.FromDayKey(key),
			Forecast: forecast.Y[i],
			Lower:    math.NaN(),
			Upper:    math.NaN(),
		}
		if v, exists := lowerIdx[key]; exists {
			row.Lower = v
		}
		if v, exists := upperIdx[key]; exists {
			row.Upper = v
		}
		rows = append(rows, row)
	}
	return rows
}

// ForecastStart is the earliest forecast date.
func ForecastStart(forecast *timedataset.TimeDataset) (time.Time, bool) {
	if forecast.Empty() {
		return time.Time{}, false
	}
	start := forecast.T[0]
	for _, t := range forecast.T[1:] {
		if t.Before(start) {
			start = t
		}
	}
	return timedataset.TruncateDay(start), true
}

// CategoryCounts tallies rows per category.
func CategoryCounts(rows []UnifiedRow) map[Category]int {
	counts := make(map[Category]int)
	for _, row := range rows {
		counts[row.Category]++
	}
	return counts
}
