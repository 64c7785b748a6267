package format

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCurrency(t *testing.T) {
	testData := map[string]struct {
		in       float64
		expected string
	}{
		"zero":           {in: 0, expected: "Rp 0"},
		"small":          {in: 999, expected: "Rp 999"},
		"thousands":      {in: 1234, expected: "Rp 1,234"},
		"millions":       {in: 1234567.89, expected: "Rp 1,234,568"},
		"exact grouping": {in: 100000, expected: "Rp 100,000"},
		"half rounds up": {in: 2.5, expected: "Rp 3"},
		"negative":       {in: -50000.4, expected: "Rp -50,000"},
		"missing":        {in: math.NaN(), expected: "-"},
		"infinite":       {in: math.Inf(1), expected: "-"},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, Currency(td.in))
		})
	}
}

func TestPercent(t *testing.T) {
	testData := map[string]struct {
		in       float64
		expected string
	}{
		"relative rmse": {in: 20.0 / 3.0, expected: "6.67%"},
		"zero":          {in: 0, expected: "0.00%"},
		"large":         {in: 1234.5, expected: "1234.50%"},
		"missing":       {in: math.NaN(), expected: "-"},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, Percent(td.in))
		})
	}
}

func TestNumber(t *testing.T) {
	testData := map[string]struct {
		in       float64
		places   int32
		expected string
	}{
		"two places":          {in: 1234.5, places: 2, expected: "1,234.50"},
		"negative fraction":   {in: -0.125, places: 2, expected: "-0.13"},
		"rounds to zero":      {in: -0.001, places: 2, expected: "0.00"},
		"seven digits":        {in: 1234567, places: 0, expected: "1,234,567"},
		"pads fraction":       {in: 10, places: 2, expected: "10.00"},
		"half away from zero": {in: -2.5, places: 0, expected: "-3"},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, Number(td.in, td.places))
		})
	}
}

func TestDates(t *testing.T) {
	d := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "05 Mar 2024", Date(d))
	assert.Equal(t, "05 March 2024", LongDate(d))
	assert.Equal(t, "2024-03-05", ISODate(d))

	assert.Equal(t, Missing, Date(time.Time{}))
	assert.Equal(t, Missing, LongDate(time.Time{}))
	assert.Equal(t, Missing, ISODate(time.Time{}))
}
