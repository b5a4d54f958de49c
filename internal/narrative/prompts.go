package narrative

import (
	"fmt"
	"strings"

	"github.com/assessiq/backend/internal/models"
)

func SystemPrompt() string {
	return `You write short, encouraging feedback for candidates who have completed a workplace assessment.

Rules:
- Write two or three paragraphs of plain prose, no headings, no lists, no markdown.
- Use only the scores and labels you are given. Never invent numbers or restate percentiles you were not given.
- Address the candidate in the second person.
- If the responses were flagged as unreliable, say so gently and suggest retaking the assessment.`
}

// BuildUserPrompt renders a result as the facts the model may use. The first
// line names the candidate and assessment.
func BuildUserPrompt(def *models.Definition, r *models.AssessmentResult) string {
	var b strings.Builder

	name := r.Candidate.Name
	if name == "" {
		name = "the candidate"
	}
	title := r.AssessmentType
	if def != nil && def.Name != "" {
		title = def.Name
	}
	fmt.Fprintf(&b, "%s, %s\n\n", name, title)

	fmt.Fprintf(&b, "Overall: %.0f/100 (%s)\n", r.OverallScore, r.OverallLevel)
	if r.Profile.Label != "" {
		fmt.Fprintf(&b, "Profile: %s", r.Profile.Label)
		if r.Profile.Description != "" {
			fmt.Fprintf(&b, " (%s)", r.Profile.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nDimensions:\n")
	for _, d := range r.Dimensions {
		if d.LowConfidence {
			fmt.Fprintf(&b, "- %s: not enough answers\n", d.Name)
			continue
		}
		fmt.Fprintf(&b, "- %s: %.0f/100, %s\n", d.Name, d.Percentage, d.Level)
	}

	if len(r.Insights.Strengths) > 0 {
		fmt.Fprintf(&b, "\nStrengths: %s\n", strings.Join(r.Insights.Strengths, ", "))
	}
	if len(r.Insights.Challenges) > 0 {
		fmt.Fprintf(&b, "Development areas: %s\n", strings.Join(r.Insights.Challenges, ", "))
	}
	if len(r.ActionPlan) > 0 {
		b.WriteString("\nSuggested actions:\n")
		for _, a := range r.ActionPlan {
			fmt.Fprintf(&b, "- %s\n", a)
		}
	}
	if !r.Validity.IsValid {
		b.WriteString("\nNote: the response pattern was flagged as unreliable.\n")
	}
	return b.String()
}
