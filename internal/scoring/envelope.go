package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/assessiq/backend/internal/models"
)

// Insight bands, read on the same basis as levels.
const (
	StrengthCutoff  = 75.0
	ChallengeCutoff = 25.0
)

type insightBand int

const (
	bandOpportunity insightBand = iota
	bandStrength
	bandChallenge
)

func band(v float64) insightBand {
	switch {
	case v >= StrengthCutoff:
		return bandStrength
	case v < ChallengeCutoff:
		return bandChallenge
	default:
		return bandOpportunity
	}
}

// maxPlanItems caps the action plan length.
const maxPlanItems = 8

// buildActionPlan lists the recommendations of challenge dimensions first,
// then opportunity dimensions, then the interpreter's own suggestions.
// Duplicates are dropped.
func buildActionPlan(def *models.Definition, r *models.AssessmentResult, extra []string) []string {
	plan := []string{}
	seen := make(map[string]bool)
	add := func(items ...string) {
		for _, s := range items {
			s = strings.TrimSpace(s)
			if s == "" || seen[s] || len(plan) >= maxPlanItems {
				continue
			}
			seen[s] = true
			plan = append(plan, s)
		}
	}

	for _, group := range [][]string{r.Insights.Challenges, r.Insights.Opportunities} {
		for _, name := range group {
			for _, ds := range r.Dimensions {
				if ds.Name != name {
					continue
				}
				if dimDef, ok := def.Dimension(ds.Key); ok {
					add(dimDef.Recommendations...)
				}
			}
		}
	}
	add(extra...)
	return plan
}

// summarize renders the one-paragraph summary shown above the report.
func summarize(r *models.AssessmentResult) string {
	who := r.Candidate.Name
	if who == "" {
		who = "The candidate"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s scored %.0f overall (%s percentile, %s).",
		who, r.OverallScore, Ordinal(int(r.OverallPercentile+0.5)), r.OverallLevel)
	if r.Profile.Label != "" {
		fmt.Fprintf(&b, " Profile: %s.", r.Profile.Label)
	}
	if top, ok := extreme(r.Dimensions, true); ok {
		fmt.Fprintf(&b, " Strongest area: %s (%.0f).", top.Name, top.Percentage)
	}
	if low, ok := extreme(r.Dimensions, false); ok && len(r.Dimensions) > 1 {
		fmt.Fprintf(&b, " Main development area: %s (%.0f).", low.Name, low.Percentage)
	}
	if !r.Validity.IsValid {
		b.WriteString(" Responses were flagged by validity checks.")
	}
	return b.String()
}

// extreme returns the highest (or lowest) scoring dimension that has
// answered items; ties keep definition order.
func extreme(dims []models.DimensionScore, highest bool) (models.DimensionScore, bool) {
	var best models.DimensionScore
	found := false
	for _, d := range dims {
		if d.LowConfidence {
			continue
		}
		if !found || (highest && d.Percentage > best.Percentage) || (!highest && d.Percentage < best.Percentage) {
			best, found = d, true
		}
	}
	return best, found
}

// RankedDimensions returns the dimensions ordered by percentage, highest
// first. Ties keep definition order.
func RankedDimensions(r *models.AssessmentResult) []models.DimensionScore {
	out := append([]models.DimensionScore(nil), r.Dimensions...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Percentage > out[j].Percentage })
	return out
}

// Ordinal formats n as 1st, 2nd, 3rd, 4th...
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

// LevelInterpreter labels the profile with the overall level and adds no
// recommendations of its own.
type LevelInterpreter struct{}

func (LevelInterpreter) Profile(_ *models.Definition, r *models.AssessmentResult) models.Profile {
	return models.Profile{
		Label:       r.OverallLevel,
		Description: fmt.Sprintf("Overall performance is %s relative to the norm group.", strings.ToLower(r.OverallLevel)),
	}
}

func (LevelInterpreter) Recommendations(*models.Definition, *models.AssessmentResult) []string {
	return nil
}
