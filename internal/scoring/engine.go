// Package scoring turns a submission and an assessment definition into a
// scored AssessmentResult. Everything here is a pure function of its inputs:
// the same submission scored against the same definition always produces an
// identical result.
package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/assessiq/backend/internal/models"
	"github.com/assessiq/backend/internal/stats"
	"github.com/assessiq/backend/internal/validity"
)

var ErrNilDefinition = errors.New("scoring: nil definition")

// Options switches off the optional adjustments, mainly for tests and
// side-by-side comparisons.
type Options struct {
	DisableSmoothing    bool `json:"disable_smoothing,omitempty"`
	DisableDemographics bool `json:"disable_demographics,omitempty"`
	DisableExperience   bool `json:"disable_experience,omitempty"`
}

// Interpreter adds assessment-specific wording on top of the generic
// numbers. Implementations must be deterministic and must not change any
// numeric field of the result.
type Interpreter interface {
	Profile(def *models.Definition, r *models.AssessmentResult) models.Profile
	Recommendations(def *models.Definition, r *models.AssessmentResult) []string
}

// Engine scores submissions. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	interpreter Interpreter
}

// NewEngine returns an engine that uses interp for profile text. A nil
// interp falls back to labelling the profile with the overall level.
func NewEngine(interp Interpreter) *Engine {
	if interp == nil {
		interp = LevelInterpreter{}
	}
	return &Engine{interpreter: interp}
}

// Score computes the result for one submission. The definition must already
// have its defaults applied. Only an unusable definition is an error; bad
// or missing answers end up as warnings and validity flags.
//
// ID, Narrative and CompletedAt are left empty for the caller.
func (e *Engine) Score(def *models.Definition, sub models.Submission, opts Options) (*models.AssessmentResult, error) {
	if def == nil {
		return nil, ErrNilDefinition
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("scoring %s: %w", def.Type, err)
	}

	scored, warnings := NormalizeAnswers(def, sub.Responses)
	dims := Aggregate(def, scored, sub.Candidate.Demographics, opts)
	if def.Smoothing.Enabled && !opts.DisableSmoothing {
		dims = Smooth(dims, def.Smoothing)
	}

	shift := 0.0
	if !opts.DisableExperience {
		shift = ExperienceShift(sub.Candidate.YearsExperience, def.Experience)
	}
	levels := NewLevelScheme(def.Levels)

	res := &models.AssessmentResult{
		AssessmentType: def.Type,
		Version:        def.Version,
		Candidate:      sub.Candidate.Clone(),
		Insights: models.Insights{
			Strengths:     []string{},
			Challenges:    []string{},
			Opportunities: []string{},
		},
		ActionPlan: []string{},
	}

	percentages := make([]float64, len(dims))
	weights := make([]float64, len(dims))
	for i := range dims {
		dimDef, _ := def.Dimension(dims[i].Key)
		finishDimension(&dims[i], dimDef, def, levels, shift, &res.Insights)
		percentages[i] = dims[i].Percentage
		weights[i] = dimDef.Weight
		if dims[i].LowConfidence {
			warnings = append(warnings, fmt.Sprintf("no answered items for %s; neutral score used", dims[i].Name))
		}
	}
	res.Dimensions = dims

	overall, err := stats.WeightedScore(percentages, weights)
	if err != nil {
		return nil, fmt.Errorf("scoring %s: %w", def.Type, err)
	}
	res.OverallScore = stats.Round(overall, 2)
	res.OverallPercentile = stats.Round(def.OverallNorms.Percentile(res.OverallScore), 2)
	res.OverallLevel = levels.Level(levelInput(def.LevelBasis, res.OverallScore, res.OverallPercentile, shift))

	if r := splitHalfReliability(scored, def); !math.IsNaN(r) {
		r = stats.Round(r, 4)
		res.Reliability = &r
	}

	res.Validity = assessValidity(def, scored)
	if !res.Validity.IsValid {
		warnings = append(warnings, "response pattern failed validity checks; interpret scores with caution")
	}
	res.Warnings = warnings

	res.Profile = e.interpreter.Profile(def, res)
	res.ActionPlan = buildActionPlan(def, res, e.interpreter.Recommendations(def, res))
	res.Summary = summarize(res)
	return res, nil
}

// finishDimension fills the norm-referenced fields and the per-dimension
// text once the percentage is final.
func finishDimension(ds *models.DimensionScore, dimDef models.Dimension, def *models.Definition, levels LevelScheme, shift float64, ins *models.Insights) {
	ds.Percentage = stats.Round(stats.Clamp(ds.Percentage, 0, 100), 2)
	ds.Percentile = stats.Round(dimDef.Norms.Percentile(ds.Percentage), 2)
	if dimDef.Norms != nil {
		ds.ZScore = stats.Round(stats.ZScore(ds.Percentage, dimDef.Norms.Mean, dimDef.Norms.StdDev), 3)
	}

	se := def.StandardError
	if ds.ItemCount > 0 {
		se /= math.Sqrt(float64(ds.ItemCount))
	}
	ci := stats.ConfidenceInterval(ds.Percentage, se, def.ConfidenceLevel)
	ds.Confidence = stats.Interval{Lower: stats.Round(ci.Lower, 2), Upper: stats.Round(ci.Upper, 2)}

	v := levelInput(def.LevelBasis, ds.Percentage, ds.Percentile, shift)
	ds.Level = levels.Level(v)

	switch band(v) {
	case bandStrength:
		ins.Strengths = append(ins.Strengths, ds.Name)
		if dimDef.StrengthText != "" {
			ds.Strengths = []string{dimDef.StrengthText}
		}
	case bandChallenge:
		ins.Challenges = append(ins.Challenges, ds.Name)
		if dimDef.GrowthText != "" {
			ds.GrowthAreas = []string{dimDef.GrowthText}
		}
	default:
		ins.Opportunities = append(ins.Opportunities, ds.Name)
		if dimDef.GrowthText != "" {
			ds.GrowthAreas = []string{dimDef.GrowthText}
		}
	}
}

// splitHalfReliability correlates the mean of odd-numbered items with the
// mean of even-numbered items across dimensions. Needs at least two
// dimensions with two or more items; otherwise NaN.
func splitHalfReliability(scored []Scored, def *models.Definition) float64 {
	byDim := make(map[string][]float64)
	for _, s := range scored {
		byDim[s.Dimension] = append(byDim[s.Dimension], s.Value)
	}
	var odd, even []float64
	for _, dim := range def.Dimensions {
		values := byDim[dim.Key]
		if len(values) < 2 {
			continue
		}
		var a, b []float64
		for i, v := range values {
			if i%2 == 0 {
				a = append(a, v)
			} else {
				b = append(b, v)
			}
		}
		odd = append(odd, stats.Mean(a))
		even = append(even, stats.Mean(b))
	}
	return stats.SplitHalf(odd, even)
}

func assessValidity(def *models.Definition, scored []Scored) validity.Metrics {
	var t validity.Thresholds
	if def.Validity != nil {
		t = *def.Validity
	}
	v := validity.New(t, def.Scale.Min, def.Scale.Max)

	items := make([]validity.Item, len(scored))
	for i, s := range scored {
		items[i] = validity.Item{
			Group:          s.Dimension,
			Raw:            s.Raw,
			Scored:         s.Value,
			ResponseTimeMs: s.ResponseTimeMs,
		}
	}
	return v.Assess(validity.Input{Items: items, Expected: len(def.Questions)})
}
