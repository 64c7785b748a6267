package timedataset

import (
	"math"
	"time"
)

type TimeSlice []time.Time

// StartTime returns the first time, or the zero time when empty.
func (t TimeSlice) StartTime() time.Time {
	var startTime time.Time
	if len(t) < 1 {
		return startTime
	}
	return t[0]
}

// EndTime returns the last time, or the zero time when empty.
func (t TimeSlice) EndTime() time.Time {
	var lastTime time.Time
	if len(t) < 1 {
		return lastTime
	}

	lastTime = t[len(t)-1]
	return lastTime
}

// EstimateFreq returns the most common gap between consecutive dates, preferring the shortest
// gap on ties.
func (t TimeSlice) EstimateFreq() (time.Duration, error) {
	if len(t) < 2 {
		return 0, ErrCannotInferFreq
	}

	frequencies := make(map[time.Duration]int)
	for i := 1; i < len(t); i++ {
		delta := t[i].Sub(t[i-1])
		frequencies[delta] += 1
	}

	var maxCnt int
	maxDelta := time.Duration(math.MaxInt64)

	for delta, cnt := range frequencies {
		if cnt > maxCnt || (cnt == maxCnt && delta < maxDelta) {
			maxCnt = cnt
			maxDelta = delta
		}
	}
	return maxDelta, nil
}

// FreqLabel names a sampling interval for display.
func FreqLabel(freq time.Duration) string {
	switch freq {
	case 24 * time.Hour:
		return "Harian"
	case 7 * 24 * time.Hour:
		return "Mingguan"
	default:
		if freq >= 28*24*time.Hour && freq <= 31*24*time.Hour {
			return "Bulanan"
		}
		return ""
	}
}
