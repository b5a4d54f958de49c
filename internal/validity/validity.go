// Package validity flags response sets that should not be trusted at face
// value: straight-lining, pseudo-random answering, rushed or incomplete
// submissions and socially desirable answering. It never rejects anything;
// callers get flags and warnings and decide what to do with them.
package validity

import (
	"fmt"
	"math"
	"sort"

	"github.com/assessiq/backend/internal/stats"
)

// Engagement levels.
const (
	EngagementHigh     = "high"
	EngagementModerate = "moderate"
	EngagementLow      = "low"
	EngagementUnknown  = "unknown"
)

// Thresholds holds the heuristic cut-offs used by the validator. They have no
// derivation beyond practice; every one of them can be overridden per
// assessment definition.
type Thresholds struct {
	MinItems          int     `json:"min_items" yaml:"min_items"`
	MaxModalShare     float64 `json:"max_modal_share" yaml:"max_modal_share"`
	LargeJumpRatio    float64 `json:"large_jump_ratio" yaml:"large_jump_ratio"`
	MaxJumpRate       float64 `json:"max_jump_rate" yaml:"max_jump_rate"`
	MinVarianceRatio  float64 `json:"min_variance_ratio" yaml:"min_variance_ratio"`
	MinConsistency    float64 `json:"min_consistency" yaml:"min_consistency"`
	FastResponseMs    int64   `json:"fast_response_ms" yaml:"fast_response_ms"`
	SlowResponseMs    int64   `json:"slow_response_ms" yaml:"slow_response_ms"`
	MaxFastShare      float64 `json:"max_fast_share" yaml:"max_fast_share"`
	MinCompletionRate float64 `json:"min_completion_rate" yaml:"min_completion_rate"`
	FakeGoodThreshold float64 `json:"fake_good_threshold" yaml:"fake_good_threshold"`
}

// DefaultThresholds returns the thresholds used when a definition does not
// override them.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinItems:          5,
		MaxModalShare:     0.9,
		LargeJumpRatio:    0.5,
		MaxJumpRate:       0.45,
		MinVarianceRatio:  0.45,
		MinConsistency:    0.01,
		FastResponseMs:    1500,
		SlowResponseMs:    60000,
		MaxFastShare:      0.5,
		MinCompletionRate: 0.8,
		FakeGoodThreshold: 0.7,
	}
}

// Merge returns t with every zero field replaced by the default.
func (t Thresholds) Merge() Thresholds {
	d := DefaultThresholds()
	if t.MinItems <= 0 {
		t.MinItems = d.MinItems
	}
	if t.MaxModalShare <= 0 {
		t.MaxModalShare = d.MaxModalShare
	}
	if t.LargeJumpRatio <= 0 {
		t.LargeJumpRatio = d.LargeJumpRatio
	}
	if t.MaxJumpRate <= 0 {
		t.MaxJumpRate = d.MaxJumpRate
	}
	if t.MinVarianceRatio <= 0 {
		t.MinVarianceRatio = d.MinVarianceRatio
	}
	if t.MinConsistency <= 0 {
		t.MinConsistency = d.MinConsistency
	}
	if t.FastResponseMs <= 0 {
		t.FastResponseMs = d.FastResponseMs
	}
	if t.SlowResponseMs <= 0 {
		t.SlowResponseMs = d.SlowResponseMs
	}
	if t.MaxFastShare <= 0 {
		t.MaxFastShare = d.MaxFastShare
	}
	if t.MinCompletionRate <= 0 {
		t.MinCompletionRate = d.MinCompletionRate
	}
	if t.FakeGoodThreshold <= 0 {
		t.FakeGoodThreshold = d.FakeGoodThreshold
	}
	return t
}

// PatternResult is the outcome of a raw sequence check.
type PatternResult struct {
	IsStraightLining   bool    `json:"is_straight_lining"`
	IsRandomResponding bool    `json:"is_random_responding"`
	ConsistencyScore   float64 `json:"consistency_score"`
	IsValid            bool    `json:"is_valid"`
}

// Metrics is the validity block attached to every scored assessment.
type Metrics struct {
	ConsistencyScore   float64  `json:"consistency_score"`
	IsStraightLining   bool     `json:"is_straight_lining"`
	IsRandomResponding bool     `json:"is_random_responding"`
	IsValid            bool     `json:"is_valid"`
	EngagementLevel    string   `json:"engagement_level"`
	FakeGoodIndicator  float64  `json:"fake_good_indicator"`
	CompletionRate     float64  `json:"completion_rate"`
	Warnings           []string `json:"warnings,omitempty"`
}

// Item is one answered question as seen by the validator.
type Item struct {
	Group          string
	Raw            float64 // answer as given
	Scored         float64 // answer after reverse keying
	ResponseTimeMs *int64
}

// Input is a full response set.
type Input struct {
	Items    []Item
	Expected int // number of questions the assessment asks
}

// Validator runs the checks against a fixed response scale.
type Validator struct {
	Thresholds Thresholds
	Min, Max   float64
}

// New returns a validator for a response scale. Zero threshold fields fall
// back to DefaultThresholds.
func New(t Thresholds, min, max float64) *Validator {
	if min > max {
		min, max = max, min
	}
	return &Validator{Thresholds: t.Merge(), Min: min, Max: max}
}

// ValidateResponsePattern checks a raw answer sequence on a 1-5 Likert scale
// with the default thresholds.
func ValidateResponsePattern(values []float64) PatternResult {
	return New(DefaultThresholds(), 1, 5).Pattern(values)
}

// Pattern checks a single answer sequence for straight-lining and random
// responding. The whole sequence is treated as one group for consistency.
func (v *Validator) Pattern(values []float64) PatternResult {
	straight := v.straightLining(values)
	random := !straight && v.randomResponding([][]float64{values})
	consistency := v.consistency([][]float64{values})
	return PatternResult{
		IsStraightLining:   straight,
		IsRandomResponding: random,
		ConsistencyScore:   consistency,
		IsValid:            !straight && !random,
	}
}

// Assess computes the full validity block for a response set.
func (v *Validator) Assess(in Input) Metrics {
	raw := make([]float64, len(in.Items))
	groups := make(map[string][]float64)
	var order []string
	for i, it := range in.Items {
		raw[i] = it.Raw
		if _, ok := groups[it.Group]; !ok {
			order = append(order, it.Group)
		}
		groups[it.Group] = append(groups[it.Group], it.Scored)
	}
	grouped := make([][]float64, 0, len(order))
	for _, g := range order {
		grouped = append(grouped, groups[g])
	}

	// Straight-lining is about the answers as given. Random responding is
	// judged on reverse-keyed values within each group, where a trait-driven
	// candidate is steady.
	straight := v.straightLining(raw)
	random := !straight && v.randomResponding(grouped)
	m := Metrics{
		IsStraightLining:   straight,
		IsRandomResponding: random,
		ConsistencyScore:   stats.Round(v.consistency(grouped), 4),
		CompletionRate:     stats.Round(completionRate(len(in.Items), in.Expected), 4),
		FakeGoodIndicator:  stats.Round(v.fakeGood(in.Items), 4),
	}
	m.EngagementLevel = v.engagement(in.Items, &m.Warnings)

	if m.IsStraightLining {
		m.Warnings = append(m.Warnings, "straight-lining detected: near-identical answers across items")
	}
	if m.IsRandomResponding {
		m.Warnings = append(m.Warnings, "random responding suspected: erratic answers with no stable pattern")
	}
	if m.CompletionRate < v.Thresholds.MinCompletionRate {
		m.Warnings = append(m.Warnings, fmt.Sprintf("low completion: %.0f%% of questions answered", m.CompletionRate*100))
	}
	if len(in.Items) >= v.Thresholds.MinItems && m.FakeGoodIndicator >= v.Thresholds.FakeGoodThreshold {
		m.Warnings = append(m.Warnings, "possible socially desirable responding: most answers at the favourable extreme")
	}

	m.IsValid = !straight && !random && m.CompletionRate >= v.Thresholds.MinCompletionRate
	return m
}

func (v *Validator) scaleRange(values []float64) float64 {
	lo, hi := v.Min, v.Max
	for _, x := range values {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return hi - lo
}

func modalShare(values []float64) (share float64, distinct int) {
	counts := make(map[float64]int)
	best := 0
	for _, x := range values {
		counts[x]++
		if counts[x] > best {
			best = counts[x]
		}
	}
	if len(values) == 0 {
		return 0, 0
	}
	return float64(best) / float64(len(values)), len(counts)
}

func (v *Validator) straightLining(values []float64) bool {
	if len(values) < 2 {
		return false
	}
	share, distinct := modalShare(values)
	if distinct <= 1 {
		return true
	}
	return len(values) >= v.Thresholds.MinItems && share >= v.Thresholds.MaxModalShare
}

// randomResponding looks for erratic answers inside each group. Jumps are
// counted between neighbours of the same group and variance is pooled
// across groups, so moving between traits is not itself erratic.
func (v *Validator) randomResponding(groups [][]float64) bool {
	var all []float64
	for _, g := range groups {
		all = append(all, g...)
	}
	if len(all) < v.Thresholds.MinItems {
		return false
	}
	r := v.scaleRange(all)
	if r <= 0 {
		return false
	}

	share, _ := modalShare(all)
	if share >= v.Thresholds.MaxModalShare/2 {
		// a dominant answer is a stable sub-pattern
		return false
	}

	var jumps, pairs int
	var pooled float64
	for _, g := range groups {
		for i := 1; i < len(g); i++ {
			pairs++
			if math.Abs(g[i]-g[i-1]) >= v.Thresholds.LargeJumpRatio*r {
				jumps++
			}
		}
		pooled += stats.Variance(g) * float64(len(g))
	}
	if pairs == 0 {
		return false
	}
	jumpRate := float64(jumps) / float64(pairs)

	half := r / 2
	varianceRatio := pooled / float64(len(all)) / (half * half)

	return jumpRate >= v.Thresholds.MaxJumpRate && varianceRatio >= v.Thresholds.MinVarianceRatio
}

// consistency is 1 - mean successive difference / scale range, computed
// inside each group and averaged by group size.
func (v *Validator) consistency(groups [][]float64) float64 {
	var all []float64
	for _, g := range groups {
		all = append(all, g...)
	}
	r := v.scaleRange(all)
	if r <= 0 {
		return 1
	}

	var weighted, weight float64
	for _, g := range groups {
		if len(g) < 2 {
			continue
		}
		var diff float64
		for i := 1; i < len(g); i++ {
			diff += math.Abs(g[i] - g[i-1])
		}
		c := 1 - diff/float64(len(g)-1)/r
		weighted += c * float64(len(g))
		weight += float64(len(g))
	}
	if weight == 0 {
		return 1
	}
	return stats.Clamp(weighted/weight, v.Thresholds.MinConsistency, 1)
}

func (v *Validator) fakeGood(items []Item) float64 {
	if len(items) == 0 {
		return 0
	}
	top := 0
	for _, it := range items {
		if it.Scored >= v.Max {
			top++
		}
	}
	return float64(top) / float64(len(items))
}

func (v *Validator) engagement(items []Item, warnings *[]string) string {
	var times []float64
	fast := 0
	for _, it := range items {
		if it.ResponseTimeMs == nil || *it.ResponseTimeMs < 0 {
			continue
		}
		ms := *it.ResponseTimeMs
		times = append(times, float64(ms))
		if ms < v.Thresholds.FastResponseMs {
			fast++
		}
	}
	if len(times) == 0 {
		return EngagementUnknown
	}

	if float64(fast)/float64(len(times)) > v.Thresholds.MaxFastShare {
		*warnings = append(*warnings, "rapid responding: most answers given faster than items can be read")
		return EngagementLow
	}
	sort.Float64s(times)
	median := times[len(times)/2]
	if len(times)%2 == 0 {
		median = (times[len(times)/2-1] + times[len(times)/2]) / 2
	}
	if median >= float64(v.Thresholds.SlowResponseMs) {
		*warnings = append(*warnings, "slow responding: median answer time suggests interruptions")
		return EngagementModerate
	}
	return EngagementHigh
}

func completionRate(answered, expected int) float64 {
	if expected <= 0 {
		if answered > 0 {
			return 1
		}
		return 0
	}
	return stats.Clamp(float64(answered)/float64(expected), 0, 1)
}
