// Package stats holds the numeric primitives the scoring engine is built
// from. Every function is pure and total: malformed input is coerced to a
// safe default instead of propagating NaN or Inf, except where NaN is the
// documented result (Reliability on mismatched or too-short series).
package stats

import (
	"errors"
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
)

// ErrWeightMismatch is returned by WeightedScore when a non-nil weight
// vector does not have one weight per score.
var ErrWeightMismatch = errors.New("weights and scores differ in length")

// Interval is a two-sided confidence interval on the 0-100 scale.
type Interval struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

// Width returns Upper - Lower.
func (i Interval) Width() float64 {
	return i.Upper - i.Lower
}

// Clamp bounds v to [lo, hi]. NaN becomes lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Normalize linearly rescales value from [min, max] to [0, 100].
// Out-of-range values saturate at 0 or 100; a degenerate range returns 0.
func Normalize(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}
	if min == max || !finite(min) || !finite(max) {
		return 0
	}
	if math.IsNaN(value) {
		value = min
	}
	value = Clamp(value, min, max)
	return (value - min) / (max - min) * 100
}

// WeightedScore returns Σ(score_i · w_i / Σw). A nil weight vector means
// equal weights. Negative or NaN weights count as zero, and a vector that
// sums to zero falls back to equal weights. Empty scores return 0.
func WeightedScore(scores, weights []float64) (float64, error) {
	if len(scores) == 0 {
		return 0, nil
	}
	if weights != nil && len(weights) != len(scores) {
		return 0, ErrWeightMismatch
	}

	w := make([]float64, len(scores))
	var sum float64
	for i := range scores {
		wi := 1.0
		if weights != nil {
			wi = weights[i]
			if !finite(wi) || wi < 0 {
				wi = 0
			}
		}
		w[i] = wi
		sum += wi
	}
	if sum == 0 {
		for i := range w {
			w[i] = 1
		}
		sum = float64(len(w))
	}

	var total float64
	for i, s := range scores {
		if !finite(s) {
			s = 0
		}
		total += s * w[i] / sum
	}
	return total, nil
}

// PercentileRank returns the empirical CDF of score within sample, as a
// percentage: the share of sample values at or below score. An empty sample
// returns 0.
func PercentileRank(score float64, sample []float64) float64 {
	if len(sample) == 0 || math.IsNaN(score) {
		return 0
	}
	atOrBelow := 0
	for _, v := range sample {
		if v <= score {
			atOrBelow++
		}
	}
	return float64(atOrBelow) / float64(len(sample)) * 100
}

// ZScore returns (score - mean) / stdDev, or 0 when stdDev is zero or not
// finite.
func ZScore(score, mean, stdDev float64) float64 {
	if stdDev == 0 || !finite(stdDev) || !finite(score) || !finite(mean) {
		return 0
	}
	return (score - mean) / stdDev
}

// Reliability returns the Pearson correlation of a and b.
//
// Mismatched lengths and series shorter than two elements return NaN.
// When either series has zero variance the coefficient is 0.
func Reliability(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 2 {
		return math.NaN()
	}
	r, err := mstats.Correlation(sanitize(a), sanitize(b))
	if err != nil || math.IsNaN(r) {
		return math.NaN()
	}
	return Clamp(r, -1, 1)
}

// SplitHalf applies the Spearman-Brown correction to the correlation of two
// half-test series. NaN in, NaN out.
func SplitHalf(a, b []float64) float64 {
	r := Reliability(a, b)
	if math.IsNaN(r) {
		return r
	}
	if r <= -1 {
		return -1
	}
	return Clamp(2*r/(1+r), -1, 1)
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	m, err := mstats.Mean(sanitize(values))
	if err != nil {
		return 0
	}
	return m
}

// StdDev returns the population standard deviation, 0 for an empty slice.
func StdDev(values []float64) float64 {
	sd, err := mstats.StandardDeviationPopulation(sanitize(values))
	if err != nil {
		return 0
	}
	return sd
}

// Variance returns the population variance, 0 for an empty slice.
func Variance(values []float64) float64 {
	v, err := mstats.PopulationVariance(sanitize(values))
	if err != nil {
		return 0
	}
	return v
}

func sanitize(values []float64) mstats.Float64Data {
	out := make(mstats.Float64Data, len(values))
	for i, v := range values {
		if finite(v) {
			out[i] = v
		}
	}
	return out
}

// ZForConfidence returns the two-sided standard normal critical value for a
// confidence level, √2·erfinv(level). Levels above 1 are read as percentages;
// anything outside (0, 1) falls back to 0.95.
func ZForConfidence(level float64) float64 {
	if level > 1 && level < 100 {
		level /= 100
	}
	if !(level > 0 && level < 1) {
		level = 0.95
	}
	return math.Sqrt2 * math.Erfinv(level)
}

// ConfidenceInterval returns score ± z·SE clamped to [0, 100].
func ConfidenceInterval(score, standardError, level float64) Interval {
	score = Clamp(score, 0, 100)
	if !finite(standardError) {
		standardError = 0
	}
	margin := ZForConfidence(level) * math.Abs(standardError)
	return Interval{
		Lower: Clamp(score-margin, 0, 100),
		Upper: Clamp(score+margin, 0, 100),
	}
}

// AdjustForDemographics multiplies base by the factor configured for each
// demographic value present in both maps. Unknown keys, unknown values and
// non-positive factors leave the score untouched. The result is clamped to
// [0, 100].
func AdjustForDemographics(base float64, demographics map[string]string, factors map[string]map[string]float64) float64 {
	score := base
	if !finite(score) {
		score = 0
	}
	keys := make([]string, 0, len(demographics))
	for k := range demographics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := demographics[key]
		byValue, ok := factors[key]
		if !ok {
			continue
		}
		m, ok := byValue[value]
		if !ok || !finite(m) || m <= 0 {
			continue
		}
		score *= m
	}
	return Clamp(score, 0, 100)
}
