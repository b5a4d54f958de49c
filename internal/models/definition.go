package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/assessiq/backend/internal/validity"
)

// Level bases.
const (
	BasisPercentile = "percentile"
	BasisPercentage = "percentage"
)

// MaxExperienceCap bounds how far experience can move level thresholds.
const MaxExperienceCap = 10

type Scale struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

type Option struct {
	Label string  `json:"label" yaml:"label"`
	Value float64 `json:"value" yaml:"value"`
}

// Question maps one item to an output dimension. Either Dimension is set
// directly or Category is resolved through the definition's CategoryMap.
type Question struct {
	ID           string   `json:"id" yaml:"id"`
	Text         string   `json:"text,omitempty" yaml:"text,omitempty"`
	Dimension    string   `json:"dimension,omitempty" yaml:"dimension,omitempty"`
	Subdimension string   `json:"subdimension,omitempty" yaml:"subdimension,omitempty"`
	Category     string   `json:"category,omitempty" yaml:"category,omitempty"`
	Weight       float64  `json:"weight,omitempty" yaml:"weight,omitempty"`
	Reverse      bool     `json:"reverse,omitempty" yaml:"reverse,omitempty"`
	Options      []Option `json:"options,omitempty" yaml:"options,omitempty"`
}

type Dimension struct {
	Key             string             `json:"key" yaml:"key"`
	Name            string             `json:"name" yaml:"name"`
	Weight          float64            `json:"weight" yaml:"weight"`
	Description     string             `json:"description,omitempty" yaml:"description,omitempty"`
	StrengthText    string             `json:"strength_text,omitempty" yaml:"strength_text,omitempty"`
	GrowthText      string             `json:"growth_text,omitempty" yaml:"growth_text,omitempty"`
	Recommendations []string           `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
	Subdimensions   map[string]float64 `json:"subdimensions,omitempty" yaml:"subdimensions,omitempty"`
	Norms           *NormTable         `json:"norms,omitempty" yaml:"norms,omitempty"`
}

// LevelBand is one qualitative bucket; a score belongs to the highest band
// whose Min it reaches.
type LevelBand struct {
	Min   float64 `json:"min" yaml:"min"`
	Label string  `json:"label" yaml:"label"`
}

// DefaultLevels is the seven-band scheme used when a definition has none.
var DefaultLevels = []LevelBand{
	{Min: 90, Label: "Exceptional"},
	{Min: 75, Label: "Strong"},
	{Min: 60, Label: "Above Average"},
	{Min: 40, Label: "Average"},
	{Min: 25, Label: "Below Average"},
	{Min: 10, Label: "Developing"},
	{Min: 0, Label: "Needs Attention"},
}

// ExperienceAdjustment raises level thresholds for experienced candidates
// and lowers them for newcomers, by PointsPerYear per year away from
// BaselineYears, never more than Cap points either way.
type ExperienceAdjustment struct {
	BaselineYears float64 `json:"baseline_years" yaml:"baseline_years"`
	PointsPerYear float64 `json:"points_per_year" yaml:"points_per_year"`
	Cap           float64 `json:"cap" yaml:"cap"`
}

// Smoothing pulls the extreme dimensions of a lopsided profile toward each
// other.
type Smoothing struct {
	Enabled         bool    `json:"enabled" yaml:"enabled"`
	SpreadThreshold float64 `json:"spread_threshold" yaml:"spread_threshold"`
	Nudge           float64 `json:"nudge" yaml:"nudge"`
}

// Definition is the static, read-only configuration of one assessment type.
type Definition struct {
	Type               string                        `json:"type" yaml:"type"`
	Name               string                        `json:"name" yaml:"name"`
	Version            string                        `json:"version" yaml:"version"`
	Description        string                        `json:"description,omitempty" yaml:"description,omitempty"`
	Scale              Scale                         `json:"scale" yaml:"scale"`
	DefaultOptions     []Option                      `json:"default_options,omitempty" yaml:"default_options,omitempty"`
	Dimensions         []Dimension                   `json:"dimensions" yaml:"dimensions"`
	Questions          []Question                    `json:"questions" yaml:"questions"`
	CategoryMap        map[string]string             `json:"category_map,omitempty" yaml:"category_map,omitempty"`
	Levels             []LevelBand                   `json:"levels,omitempty" yaml:"levels,omitempty"`
	LevelBasis         string                        `json:"level_basis,omitempty" yaml:"level_basis,omitempty"`
	Experience         *ExperienceAdjustment         `json:"experience,omitempty" yaml:"experience,omitempty"`
	Smoothing          Smoothing                     `json:"smoothing" yaml:"smoothing"`
	DemographicFactors map[string]map[string]float64 `json:"demographic_factors,omitempty" yaml:"demographic_factors,omitempty"`
	OverallNorms       *NormTable                    `json:"overall_norms,omitempty" yaml:"overall_norms,omitempty"`
	StandardError      float64                       `json:"standard_error,omitempty" yaml:"standard_error,omitempty"`
	ConfidenceLevel    float64                       `json:"confidence_level,omitempty" yaml:"confidence_level,omitempty"`
	NeutralScore       float64                       `json:"neutral_score,omitempty" yaml:"neutral_score,omitempty"`
	Validity           *validity.Thresholds          `json:"validity,omitempty" yaml:"validity,omitempty"`
}

// DefinitionError collects every problem found in a definition.
type DefinitionError struct {
	Type   string
	Errors []string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("invalid definition %q: %s", e.Type, strings.Join(e.Errors, "; "))
}

// ApplyDefaults fills unset optional fields in place.
func (d *Definition) ApplyDefaults() {
	for i := range d.Dimensions {
		if d.Dimensions[i].Weight == 0 {
			d.Dimensions[i].Weight = 1
		}
		if d.Dimensions[i].Name == "" {
			d.Dimensions[i].Name = d.Dimensions[i].Key
		}
	}
	for i := range d.Questions {
		if d.Questions[i].Weight == 0 {
			d.Questions[i].Weight = 1
		}
		if len(d.Questions[i].Options) == 0 && len(d.DefaultOptions) > 0 {
			d.Questions[i].Options = d.DefaultOptions
		}
	}
	if len(d.Levels) == 0 {
		d.Levels = append([]LevelBand(nil), DefaultLevels...)
	}
	sort.SliceStable(d.Levels, func(i, j int) bool { return d.Levels[i].Min > d.Levels[j].Min })
	if d.LevelBasis == "" {
		d.LevelBasis = BasisPercentile
	}
	if d.StandardError == 0 {
		d.StandardError = 10
	}
	if d.ConfidenceLevel == 0 {
		d.ConfidenceLevel = 0.95
	}
	if d.NeutralScore == 0 {
		d.NeutralScore = 50
	}
}

// DimensionFor resolves the dimension a question feeds.
func (d *Definition) DimensionFor(q Question) (string, bool) {
	if q.Dimension != "" {
		return q.Dimension, true
	}
	if q.Category != "" {
		dim, ok := d.CategoryMap[strings.ToLower(q.Category)]
		return dim, ok
	}
	return "", false
}

// Dimension returns the dimension with the given key.
func (d *Definition) Dimension(key string) (Dimension, bool) {
	for _, dim := range d.Dimensions {
		if dim.Key == key {
			return dim, true
		}
	}
	return Dimension{}, false
}

// Question returns the question with the given ID.
func (d *Definition) Question(id string) (Question, bool) {
	for _, q := range d.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Validate checks the definition for internal consistency. Call
// ApplyDefaults first.
func (d *Definition) Validate() error {
	var errs []string

	if d.Type == "" {
		errs = append(errs, "type is required")
	}
	if d.Scale.Min >= d.Scale.Max {
		errs = append(errs, fmt.Sprintf("scale min %v must be below max %v", d.Scale.Min, d.Scale.Max))
	}
	if len(d.Dimensions) == 0 {
		errs = append(errs, "at least one dimension is required")
	}

	dims := make(map[string]bool)
	for _, dim := range d.Dimensions {
		if dim.Key == "" {
			errs = append(errs, "dimension key is required")
			continue
		}
		if dims[dim.Key] {
			errs = append(errs, fmt.Sprintf("duplicate dimension %q", dim.Key))
		}
		dims[dim.Key] = true
		if dim.Weight < 0 {
			errs = append(errs, fmt.Sprintf("dimension %q: negative weight", dim.Key))
		}
		if dim.Norms != nil {
			if err := dim.Norms.Validate(); err != nil {
				errs = append(errs, fmt.Sprintf("dimension %q norms: %v", dim.Key, err))
			}
		}
	}

	for cat, dim := range d.CategoryMap {
		if !dims[dim] {
			errs = append(errs, fmt.Sprintf("category %q maps to unknown dimension %q", cat, dim))
		}
	}

	seen := make(map[string]bool)
	for _, q := range d.Questions {
		if q.ID == "" {
			errs = append(errs, "question id is required")
			continue
		}
		if seen[q.ID] {
			errs = append(errs, fmt.Sprintf("duplicate question %q", q.ID))
		}
		seen[q.ID] = true
		dim, ok := d.DimensionFor(q)
		if !ok || !dims[dim] {
			errs = append(errs, fmt.Sprintf("question %q: no dimension resolves", q.ID))
		}
		if q.Weight < 0 {
			errs = append(errs, fmt.Sprintf("question %q: negative weight", q.ID))
		}
		for _, o := range q.Options {
			if o.Value < d.Scale.Min || o.Value > d.Scale.Max {
				errs = append(errs, fmt.Sprintf("question %q: option %q value %v outside scale", q.ID, o.Label, o.Value))
			}
		}
	}

	for i := 1; i < len(d.Levels); i++ {
		if d.Levels[i].Min == d.Levels[i-1].Min {
			errs = append(errs, fmt.Sprintf("levels %q and %q share lower bound %v", d.Levels[i-1].Label, d.Levels[i].Label, d.Levels[i].Min))
		}
	}
	if len(d.Levels) > 0 && d.Levels[len(d.Levels)-1].Min > 0 {
		errs = append(errs, "lowest level must start at 0")
	}

	if d.LevelBasis != BasisPercentile && d.LevelBasis != BasisPercentage {
		errs = append(errs, fmt.Sprintf("unknown level basis %q", d.LevelBasis))
	}
	if e := d.Experience; e != nil && (e.Cap < 0 || e.Cap > MaxExperienceCap || e.PointsPerYear < 0) {
		errs = append(errs, fmt.Sprintf("experience adjustment must be non-negative with cap <= %d", MaxExperienceCap))
	}
	if d.Smoothing.Nudge < 0 || d.Smoothing.SpreadThreshold < 0 {
		errs = append(errs, "smoothing values must be non-negative")
	}
	if d.OverallNorms != nil {
		if err := d.OverallNorms.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("overall norms: %v", err))
		}
	}

	if len(errs) > 0 {
		return &DefinitionError{Type: d.Type, Errors: errs}
	}
	return nil
}
