package timedataset

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrNonMontonic        = errors.New("time feature is not monotonic")
	ErrDatasetLenMismatch = errors.New("time feature has a different length than observations")
	ErrCannotInferFreq    = errors.New("cannot infer frequency from time data")
)

// TimeDataset represents a daily time series storing a slice of calendar days and values.
// Both must be of the same length. Absent values are stored as NaN.
type TimeDataset struct {
	T []time.Time
	Y []float64
}

// NewUnivariateDataset returns an instance of a TimeDataset given a time and value slice. Times
// must be strictly increasing. An empty dataset is valid.
func NewUnivariateDataset(t []time.Time, y []float64) (*TimeDataset, error) {
	if len(t) != len(y) {
		return nil, fmt.Errorf(
			"time feature has length of %d, but values has a length of %d, %w",
			len(t), len(y), ErrDatasetLenMismatch,
		)
	}

	for i := 1; i < len(t); i++ {
		if !t[i].After(t[i-1]) {
			return nil, fmt.Errorf("non-monotonic at %d, %w", i, ErrNonMontonic)
		}
	}

	tSeries := make([]time.Time, len(t))
	ySeries := make([]float64, len(t))
	copy(tSeries, t)
	copy(ySeries, y)
	td := &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}

	return td, nil
}

// Len returns the number of dates in the dataset. A nil dataset has no dates.
func (td *TimeDataset) Len() int {
	if td == nil {
		return 0
	}
	return len(td.T)
}

// Empty reports whether the dataset is nil or has no dates.
func (td *TimeDataset) Empty() bool {
	return td.Len() == 0
}

// DropNan returns a copy of the dataset without the absent values.
func (td *TimeDataset) DropNan() *TimeDataset {
	if td == nil {
		return nil
	}

	tSeries := make([]time.Time, 0, len(td.T))
	ySeries := make([]float64, 0, len(td.T))
	for i := 0; i < len(td.T); i++ {
		if math.IsNaN(td.Y[i]) {
			continue
		}
		tSeries = append(tSeries, td.T[i])
		ySeries = append(ySeries, td.Y[i])
	}
	return &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}
}

// Index maps the day key of every date to its value. On repeated days the first value wins.
func (td *TimeDataset) Index() map[int64]float64 {
	idx := make(map[int64]float64, td.Len())
	if td == nil {
		return idx
	}
	for i, t := range td.T {
		key := DayKey(t)
		if _, exists := idx[key]; exists {
			continue
		}
		idx[key] = td.Y[i]
	}
	return idx
}

// TruncateDay drops the time of day, returning midnight UTC of the same calendar day.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey returns a comparable key for the calendar day of t.
func DayKey(t time.Time) int64 {
	return TruncateDay(t).Unix()
}

// FromDayKey converts a key produced by DayKey back into a date.
func FromDayKey(key int64) time.Time {
	return time.Unix(key, 0).UTC()
}
