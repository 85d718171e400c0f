package stats

import (
	"math"
	"slices"
	"time"
)

// metaTimeBins is the bin count for the modal-time histogram.
const metaTimeBins = 20

// Lap is one driver's best lap, in leaderboard order.
type Lap struct {
	Driver  string
	Slug    string
	Seconds float64
}

// TrackStats aggregates one track's lap-time series. It is recomputed in
// full on every sync and persisted as a snapshot on the track.
type TrackStats struct {
	TotalDrivers     int
	Mean             float64
	StdDev           float64
	Median           float64
	WorldRecord      float64
	Slowest          float64
	Top1Percent      float64
	Top5Percent      float64
	Top10Percent     float64
	MetaTime         float64
	RecordHolder     string
	RecordHolderSlug string
	ComputedAt       time.Time
}

// Compute derives the aggregate statistics for one track. Input laps must
// already have passed the positive-time filter; ordering is the leaderboard
// order, which breaks record-holder ties by first occurrence. Returns nil
// for an empty series.
func Compute(laps []Lap) *TrackStats {
	if len(laps) == 0 {
		return nil
	}

	// Sort a copy for quantiles and extrema.
	sorted := make([]float64, 0, len(laps))
	for _, lap := range laps {
		sorted = append(sorted, lap.Seconds)
	}

	slices.Sort(sorted)

	var sum float64
	for _, t := range sorted {
		sum += t
	}

	mean := sum / float64(len(sorted))

	// Sample standard deviation (n-1); zero for a single lap.
	var stdDev float64

	if len(sorted) > 1 {
		var squares float64
		for _, t := range sorted {
			d := t - mean
			squares += d * d
		}

		stdDev = math.Sqrt(squares / float64(len(sorted)-1))
	}

	holder := laps[0]
	for _, lap := range laps[1:] {
		if lap.Seconds < holder.Seconds {
			holder = lap
		}
	}

	return &TrackStats{
		TotalDrivers:     len(sorted),
		Mean:             mean,
		StdDev:           stdDev,
		Median:           quantile(sorted, 0.50),
		WorldRecord:      sorted[0],
		Slowest:          sorted[len(sorted)-1],
		Top1Percent:      quantile(sorted, 0.01),
		Top5Percent:      quantile(sorted, 0.05),
		Top10Percent:     quantile(sorted, 0.10),
		MetaTime:         metaTime(sorted),
		RecordHolder:     holder.Driver,
		RecordHolderSlug: holder.Slug,
		ComputedAt:       time.Now().UTC(),
	}
}

// quantile returns the q-quantile (0..1) of a sorted series using linear
// interpolation between order statistics: rank = q*(n-1), interpolated
// between its floor and ceil neighbours.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := q * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))

	if lo == hi {
		return sorted[lo]
	}

	frac := rank - float64(lo)

	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// metaTime estimates the most common lap time: the range is split into 20
// equal-width bins and the midpoint of the fullest bin wins. Ties go to the
// fastest bin. A degenerate range yields the single value.
func metaTime(sorted []float64) float64 {
	min, max := sorted[0], sorted[len(sorted)-1]
	if min == max {
		return min
	}

	width := (max - min) / metaTimeBins

	counts := make([]int, metaTimeBins)

	for _, t := range sorted {
		idx := int((t - min) / width)
		if idx >= metaTimeBins {
			// The maximum lands on the upper edge.
			idx = metaTimeBins - 1
		}

		counts[idx]++
	}

	best := 0
	for i, count := range counts {
		if count > counts[best] {
			best = i
		}
	}

	return min + width*(float64(best)+0.5)
}
