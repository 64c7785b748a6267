// Package score compares predicted values against actuals. Pairs where either side is NaN
// are ignored.
package score

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrResLenMismatch = errors.New("predicted and actual have different lengths")
	ErrNoValues       = errors.New("no comparable predicted and actual values")
)

// Scores tracks the error scores of one predicted series
type Scores struct {
	MAE          float64 `json:"mean_absolute_error"`
	MSE          float64 `json:"mean_squared_error"`
	RMSE         float64 `json:"root_mean_squared_error"`
	RelativeRMSE float64 `json:"relative_root_mean_squared_error"`
	MAPE         float64 `json:"mean_average_percent_error"`
	R2           float64 `json:"r_squared"`
}

// NewScores calculates the scores given the predicted and actual input slice values
func NewScores(predicted, actual []float64) (*Scores, error) {
	mae, err := MAE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean absolute error, %w", err)
	}
	mse, err := MSE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean squared error, %w", err)
	}
	rrmse, err := RelativeRMSE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute relative root mean squared error, %w", err)
	}
	mape, err := MAPE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean average percent error, %w", err)
	}
	rs, err := RSquared(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute r-squared, %w", err)
	}

	return &Scores{
		MAE:          mae,
		MSE:          mse,
		RMSE:         math.Sqrt(mse),
		RelativeRMSE: rrmse,
		MAPE:         mape,
		R2:           rs,
	}, nil
}

// pairs returns the aligned values where both sides are present.
func pairs(predicted, actual []float64) ([]float64, []float64, error) {
	if len(predicted) != len(actual) {
		return nil, nil, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}

	predictCopy := make([]float64, 0, len(predicted))
	actualCopy := make([]float64, 0, len(actual))
	for i := 0; i < len(predicted); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		predictCopy = append(predictCopy, predicted[i])
		actualCopy = append(actualCopy, actual[i])
	}
	if len(actualCopy) == 0 {
		return nil, nil, ErrNoValues
	}
	return predictCopy, actualCopy, nil
}

// MAE computes the mean absolute error, mean(abs(y-yhat)).
func MAE(predicted, actual []float64) (float64, error) {
	p, a, err := pairs(predicted, actual)
	if err != nil {
		return 0, err
	}
	res := make([]float64, len(a))
	floats.SubTo(res, a, p)
	for i := range res {
		res[i] = math.Abs(res[i])
	}
	return stat.Mean(res, nil), nil
}

// MSE computes the mean squared error, mean((y-yhat)^2).
// A score of 0 means a perfect match with no errors.
func MSE(predicted, actual []float64) (float64, error) {
	p, a, err := pairs(predicted, actual)
	if err != nil {
		return 0, err
	}
	res := make([]float64, len(a))
	floats.SubTo(res, a, p)
	return floats.Dot(res, res) / float64(len(res)), nil
}

func RMSE(predicted, actual []float64) (float64, error) {
	mse, err := MSE(predicted, actual)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// RelativeRMSE is the RMSE as a percentage of the mean actual value. A zero mean yields 0
// rather than an infinite score.
func RelativeRMSE(predicted, actual []float64) (float64, error) {
	p, a, err := pairs(predicted, actual)
	if err != nil {
		return 0, err
	}
	rmse, err := RMSE(p, a)
	if err != nil {
		return 0, err
	}
	mean := stat.Mean(a, nil)
	if mean == 0 {
		return 0, nil
	}
	return rmse / mean * 100, nil
}

// MAPE calculates the mean average percent error, mean(abs((y-yhat)/y)). Zero actuals are
// skipped. A score of 0 means a perfect match with no errors.
func MAPE(predicted, actual []float64) (float64, error) {
	p, a, err := pairs(predicted, actual)
	if err != nil {
		return 0, err
	}

	var mape float64
	var n int
	for i := 0; i < len(a); i++ {
		if a[i] == 0 {
			continue
		}
		mape += math.Abs((a[i] - p[i]) / a[i])
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return mape / float64(n), nil
}

// RSquared computes the r squared value between the predicted and actual where 1.0 means perfect
// fit and 0 represents no relationship. Constant actuals score 1.0 when matched exactly and 0
// otherwise.
func RSquared(predicted, actual []float64) (float64, error) {
	p, a, err := pairs(predicted, actual)
	if err != nil {
		return 0, err
	}
	r2 := stat.RSquaredFrom(p, a, nil)
	if math.IsNaN(r2) {
		return 1.0, nil
	}
	if math.IsInf(r2, 0) {
		return 0, nil
	}
	return r2, nil
}

// MaxAbsError returns the index into the inputs of the largest absolute error along with the
// error. Ties resolve to the earliest index.
func MaxAbsError(predicted, actual []float64) (int, float64, error) {
	if len(predicted) != len(actual) {
		return 0, 0, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}

	idx := -1
	var maxErr float64
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		e := math.Abs(actual[i] - predicted[i])
		if idx < 0 || e > maxErr {
			idx = i
			maxErr = e
		}
	}
	if idx < 0 {
		return 0, 0, ErrNoValues
	}
	return idx, maxErr, nil
}
