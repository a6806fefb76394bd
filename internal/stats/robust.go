// Package stats provides the robust statistics primitives used by the
// resolver, outlier filter and window aggregator. All functions are pure and
// never mutate their input.
package stats

import (
	"math"
	"sort"
)

// zScoreScale is the consistency constant relating MAD to the standard
// deviation of a normal distribution.
const zScoreScale = 0.6745

// Median returns the middle value of the sequence, averaging the two central
// values for even counts. The second return is false for empty input.
func Median(values []float64) (float64, bool) {
	n := len(values)
	if n == 0 {
		return 0, false
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if n%2 == 1 {
		return sorted[n/2], true
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2, true
}

// MAD returns the median absolute deviation of values around center.
// The second return is false for empty input. Identical values yield 0.
func MAD(values []float64, center float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}

	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - center)
	}
	m, _ := Median(deviations)
	return m, true
}

// ModifiedZScore returns the robust z-score of x against the given median
// and MAD. A zero MAD makes the score undefined; 0 is returned so that the
// caller never flags anything in a constant-valued series.
func ModifiedZScore(x, median, mad float64) float64 {
	if mad == 0 {
		return 0
	}
	return zScoreScale * (x - median) / mad
}

// RelativeMAD returns MAD scaled by the magnitude of the median, a
// scale-free dispersion measure. Empty input or a zero median yields +Inf:
// a series centered on zero carries no usable scale.
func RelativeMAD(values []float64) float64 {
	med, ok := Median(values)
	if !ok || med == 0 {
		return math.Inf(1)
	}
	mad, _ := MAD(values, med)
	return mad / math.Abs(med)
}

// Mean returns the arithmetic mean. The second return is false for empty input.
func Mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

// WeightedMean returns sum(value*weight)/sum(weight). The second return is
// false for empty input or a zero total weight.
func WeightedMean(values, weights []float64) (float64, bool) {
	if len(values) == 0 || len(values) != len(weights) {
		return 0, false
	}
	var num, den float64
	for i, v := range values {
		num += v * weights[i]
		den += weights[i]
	}
	if den == 0 {
		return 0, false
	}
	return num / den, true
}
