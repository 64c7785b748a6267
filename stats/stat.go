package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const (
	DefaultLowerPerc   = 0.25
	DefaultUpperPerc   = 0.75
	DefaultTukeyFactor = 1.5
)

// Fences returns the Tukey fences of y: the lowerPerc and upperPerc quantiles pushed apart by
// tukeyFactor times their distance. NaN values are ignored and ok is false when none remain.
func Fences(y []float64, lowerPerc, upperPerc, tukeyFactor float64) (lower, upper float64, ok bool) {
	lowerPerc = math.Max(lowerPerc, 0.0)
	upperPerc = math.Min(upperPerc, 1.0)
	tukeyFactor = math.Max(tukeyFactor, 0.0)

	sorted := make([]float64, 0, len(y))
	for _, v := range y {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return 0, 0, false
	}
	sort.Float64s(sorted)

	lower = stat.Quantile(lowerPerc, stat.Empirical, sorted, nil)
	upper = stat.Quantile(upperPerc, stat.Empirical, sorted, nil)
	innerRange := upper - lower
	lower -= innerRange * tukeyFactor
	upper += innerRange * tukeyFactor
	return lower, upper, true
}

// DetectOutliers returns the indices of y strictly outside its Tukey fences, split into values
// below the lower fence and values above the upper fence.
func DetectOutliers(y []float64, lowerPerc, upperPerc, tukeyFactor float64) (low, high []int) {
	lower, upper, ok := Fences(y, lowerPerc, upperPerc, tukeyFactor)
	if !ok {
		return nil, nil
	}
	for i, v := range y {
		switch {
		case math.IsNaN(v):
		case v < lower:
			low = append(low, i)
		case v > upper:
			high = append(high, i)
		}
	}
	return low, high
}
