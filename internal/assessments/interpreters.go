package assessments

import (
	"fmt"
	"strings"

	"github.com/assessiq/backend/internal/models"
	"github.com/assessiq/backend/internal/scoring"
)

// ── Career Readiness ────────────────────────────────────

type readinessStage struct {
	Min         float64
	Label       string
	Description string
	Advice      []string
}

// readinessStages is ordered by descending Min; the last stage starts at 0.
var readinessStages = []readinessStage{
	{80, "Launch Ready", "Ready to compete for target roles now.", []string{
		"Apply to your shortlist of target roles this month",
		"Prepare two stories per readiness dimension for interviews",
	}},
	{65, "Emerging Professional", "Close to ready; a few gaps remain before applying broadly.", []string{
		"Close the gap in your lowest dimension before applying broadly",
	}},
	{45, "Developing Explorer", "Building the foundations; direction and skills are still forming.", []string{
		"Narrow your options to two career paths and test each with a short project",
	}},
	{0, "Early Explorer", "At the start of career planning.", []string{
		"Book a session with a career adviser to map out first steps",
	}},
}

type careerInterpreter struct{}

func stageFor(score float64) readinessStage {
	for _, s := range readinessStages {
		if score >= s.Min {
			return s
		}
	}
	return readinessStages[len(readinessStages)-1]
}

func (careerInterpreter) Profile(_ *models.Definition, r *models.AssessmentResult) models.Profile {
	s := stageFor(r.OverallScore)
	return models.Profile{Label: s.Label, Description: s.Description}
}

func (careerInterpreter) Recommendations(_ *models.Definition, r *models.AssessmentResult) []string {
	return stageFor(r.OverallScore).Advice
}

// ── Leadership ──────────────────────────────────────────

type archetype struct {
	Label       string
	Description string
}

// leadershipPairs names the archetype for a pair of top dimensions. Keys are
// the two dimension keys joined by "+" in alphabetical order.
var leadershipPairs = map[string]archetype{
	"decision_making+strategic_thinking":        {"Visionary Strategist", "Sets direction and commits to it decisively."},
	"emotional_intelligence+team_development":   {"People Developer", "Grows others through attention and care."},
	"communication+emotional_intelligence":      {"Inspirational Communicator", "Connects with people and brings them along."},
	"change_management+strategic_thinking":      {"Transformational Leader", "Sees where things must go and moves people there."},
	"communication+team_development":            {"Coach", "Builds capability through clear, regular feedback."},
	"change_management+decision_making":         {"Turnaround Driver", "Acts quickly when things need to change."},
	"communication+strategic_thinking":          {"Direction Setter", "Turns strategy into a story people understand."},
	"change_management+emotional_intelligence":  {"Change Champion", "Guides people through change with empathy."},
	"decision_making+team_development":          {"Operational Leader", "Delivers through a well-organised team."},
	"change_management+communication":           {"Change Communicator", "Keeps people informed and aligned through change."},
	"decision_making+emotional_intelligence":    {"Steady Hand", "Makes calm, considered calls under pressure."},
	"emotional_intelligence+strategic_thinking": {"Purposeful Leader", "Balances long-term goals with people's needs."},
	"change_management+team_development":        {"Capability Builder", "Prepares teams for what comes next."},
	"communication+decision_making":             {"Clear Decider", "Decides and explains decisions well."},
	"strategic_thinking+team_development":       {"Organisation Architect", "Designs teams around long-term goals."},
}

var leadershipSingles = map[string]archetype{
	"strategic_thinking":     {"Strategist", "Leads through long-range thinking."},
	"emotional_intelligence": {"Empath", "Leads through understanding people."},
	"decision_making":        {"Decider", "Leads through decisive action."},
	"team_development":       {"Developer", "Leads by growing others."},
	"communication":          {"Communicator", "Leads through clear communication."},
	"change_management":      {"Change Agent", "Leads through change."},
}

type leadershipInterpreter struct{}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "+" + b
}

func (leadershipInterpreter) Profile(_ *models.Definition, r *models.AssessmentResult) models.Profile {
	ranked := answered(scoring.RankedDimensions(r))
	if len(ranked) == 0 {
		return models.Profile{Label: "Undetermined", Description: "Not enough answers to identify a leadership style."}
	}
	if len(ranked) > 1 {
		if a, ok := leadershipPairs[pairKey(ranked[0].Key, ranked[1].Key)]; ok {
			return models.Profile{Label: a.Label, Description: a.Description}
		}
	}
	if a, ok := leadershipSingles[ranked[0].Key]; ok {
		return models.Profile{Label: a.Label, Description: a.Description}
	}
	return models.Profile{Label: ranked[0].Name}
}

func (leadershipInterpreter) Recommendations(_ *models.Definition, r *models.AssessmentResult) []string {
	ranked := answered(scoring.RankedDimensions(r))
	if len(ranked) < 2 {
		return nil
	}
	top, low := ranked[0], ranked[len(ranked)-1]
	return []string{
		fmt.Sprintf("Use your %s to model %s for the team", strings.ToLower(top.Name), strings.ToLower(low.Name)),
	}
}

// ── Communication Styles ────────────────────────────────

// flexibleMargin is the largest gap between the top two styles that still
// counts as a tie.
const flexibleMargin = 5.0

var styleAdvice = map[string]string{
	"assertive":  "With analytical colleagues, bring data before conclusions",
	"analytical": "With expressive colleagues, lead with the headline before the detail",
	"expressive": "With analytical colleagues, follow up conversations in writing",
	"supportive": "With assertive colleagues, state your own view early in the discussion",
}

type communicationInterpreter struct{}

func (communicationInterpreter) Profile(_ *models.Definition, r *models.AssessmentResult) models.Profile {
	ranked := answered(scoring.RankedDimensions(r))
	if len(ranked) == 0 {
		return models.Profile{Label: "Undetermined"}
	}
	if len(ranked) > 1 && ranked[0].Percentage-ranked[1].Percentage <= flexibleMargin {
		return models.Profile{
			Label:       "Flexible Communicator",
			Description: fmt.Sprintf("Moves easily between %s and %s styles.", ranked[0].Name, ranked[1].Name),
		}
	}
	return models.Profile{
		Label:       ranked[0].Name + " Communicator",
		Description: fmt.Sprintf("Prefers a %s style.", strings.ToLower(ranked[0].Name)),
	}
}

func (communicationInterpreter) Recommendations(_ *models.Definition, r *models.AssessmentResult) []string {
	ranked := answered(scoring.RankedDimensions(r))
	if len(ranked) == 0 {
		return nil
	}
	if advice, ok := styleAdvice[ranked[0].Key]; ok {
		return []string{advice}
	}
	return nil
}

// ── CAIR+ ───────────────────────────────────────────────

// cairTraits lists the code letters in code order. The integrity dimension
// contributes the trailing "+" rather than a letter.
var cairTraits = []struct {
	Key    string
	Letter string
}{
	{"conscientiousness", "C"},
	{"agreeableness", "A"},
	{"innovation", "I"},
	{"resilience", "R"},
}

const (
	cairHighCutoff   = 50.0
	cairIntegrityKey = "integrity"
)

type cairInterpreter struct{}

// TraitCode renders the CAIR+ code: upper case for traits at or above the
// median percentile, lower case below it, "+" when integrity is high.
func TraitCode(r *models.AssessmentResult) string {
	var b strings.Builder
	for _, t := range cairTraits {
		d, ok := r.DimensionByKey(t.Key)
		if !ok {
			continue
		}
		if d.Percentile >= cairHighCutoff {
			b.WriteString(t.Letter)
		} else {
			b.WriteString(strings.ToLower(t.Letter))
		}
	}
	if d, ok := r.DimensionByKey(cairIntegrityKey); ok && d.Percentile >= cairHighCutoff {
		b.WriteString("+")
	}
	return b.String()
}

func (cairInterpreter) Profile(_ *models.Definition, r *models.AssessmentResult) models.Profile {
	code := TraitCode(r)
	var high []string
	for _, t := range cairTraits {
		if d, ok := r.DimensionByKey(t.Key); ok && d.Percentile >= cairHighCutoff {
			high = append(high, strings.ToLower(d.Name))
		}
	}
	desc := "No trait stands above the median."
	if len(high) > 0 {
		desc = "Above the median on " + joinList(high) + "."
	}
	return models.Profile{Label: code, Description: desc}
}

func (cairInterpreter) Recommendations(_ *models.Definition, r *models.AssessmentResult) []string {
	if d, ok := r.DimensionByKey(cairIntegrityKey); ok && d.Percentile < cairHighCutoff {
		return []string{"Discuss how you handle grey areas and rule exceptions with a trusted colleague"}
	}
	return nil
}

// ── helpers ─────────────────────────────────────────────

func answered(dims []models.DimensionScore) []models.DimensionScore {
	out := dims[:0:0]
	for _, d := range dims {
		if !d.LowConfidence {
			out = append(out, d)
		}
	}
	return out
}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
