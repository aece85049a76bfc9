// internal/features/stats.go
package features

import (
	"math"
	"sort"

	"github.com/xkilldash9x/scaletuner/api/schemas"
)

// summarize computes the five-number summary over values. An empty input
// yields the zero summary; a single observation yields a standard deviation
// of 0 with every other statistic equal to that value. NaN and infinite
// inputs are excluded before aggregation so the summary stays finite.
func summarize(values []float64) schemas.ValueSummary {
	clean := values[:0:0]
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return schemas.ValueSummary{}
	}

	sorted := make([]float64, len(clean))
	copy(sorted, clean)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	var variance float64
	for _, v := range sorted {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(sorted))

	return schemas.ValueSummary{
		Mean:   mean,
		Median: median(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		StdDev: math.Sqrt(variance),
	}
}

// median expects its input sorted ascending.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
