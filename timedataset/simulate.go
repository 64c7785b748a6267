package timedataset

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
)

// GenerateDays returns n calendar days spaced by interval, the last one falling on the day of end.
func GenerateDays(n int, interval time.Duration, end time.Time) []time.Time {
	t := make([]time.Time, 0, n)
	ct := TruncateDay(end).Add(-time.Duration(n-1) * interval)
	for i := 0; i < n; i++ {
		t = append(t, TruncateDay(ct.Add(interval*time.Duration(i))))
	}
	return t
}

type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

// SetNaN marks every value in [start, end) as absent.
func (s Series) SetNaN(t []time.Time, start, end time.Time) Series {
	for i := 0; i < len(s); i++ {
		if !t[i].Before(start) && t[i].Before(end) {
			s[i] = math.NaN()
		}
	}
	return s
}

func GenerateConstY(n int, val float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, val)
	}
	return Series(y)
}

// GenerateTrendY grows linearly by slope per day starting from the first date.
func GenerateTrendY(t []time.Time, slope float64) Series {
	y := make([]float64, 0, len(t))
	if len(t) == 0 {
		return Series(y)
	}
	for i := 0; i < len(t); i++ {
		days := t[i].Sub(t[0]).Hours() / 24.0
		y = append(y, slope*days)
	}
	return Series(y)
}

func GenerateWaveY(t []time.Time, amp, periodDays, order float64) Series {
	n := len(t)
	y := make([]float64, 0, n)
	periodSec := periodDays * 86400.0
	for i := 0; i < n; i++ {
		val := amp * math.Sin(2.0*math.Pi*order/periodSec*float64(t[i].Unix()))
		y = append(y, val)
	}
	return Series(y)
}

// GenerateNoise draws normal noise with the given scale from a seeded source so results repeat.
func GenerateNoise(n int, scale float64, seed uint64) Series {
	r := rand.New(rand.NewPCG(seed, seed))
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, r.NormFloat64()*scale)
	}
	return Series(y)
}
