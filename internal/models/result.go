package models

import (
	"time"

	"github.com/assessiq/backend/internal/stats"
	"github.com/assessiq/backend/internal/validity"
)

// DimensionScore is the scored outcome for one dimension.
type DimensionScore struct {
	Key           string             `json:"key"`
	Name          string             `json:"name"`
	Raw           float64            `json:"raw"`
	MaxRaw        float64            `json:"max_raw"`
	Percentage    float64            `json:"percentage"`
	Percentile    float64            `json:"percentile"`
	ZScore        float64            `json:"z_score"`
	Level         string             `json:"level"`
	Confidence    stats.Interval     `json:"confidence"`
	ItemCount     int                `json:"item_count"`
	LowConfidence bool               `json:"low_confidence,omitempty"`
	Smoothed      bool               `json:"smoothed,omitempty"`
	Subdimensions map[string]float64 `json:"subdimensions,omitempty"`
	Strengths     []string           `json:"strengths,omitempty"`
	GrowthAreas   []string           `json:"growth_areas,omitempty"`
}

type Profile struct {
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

type Insights struct {
	Strengths     []string `json:"strengths"`
	Challenges    []string `json:"challenges"`
	Opportunities []string `json:"opportunities"`
}

// AssessmentResult is the envelope handed to report generators and the UI.
// The scoring engine fills everything except ID, Narrative and CompletedAt.
type AssessmentResult struct {
	ID                string           `json:"id,omitempty"`
	AssessmentType    string           `json:"assessment_type"`
	Version           string           `json:"version"`
	Candidate         Candidate        `json:"candidate"`
	OverallScore      float64          `json:"overall_score"`
	OverallPercentile float64          `json:"overall_percentile"`
	OverallLevel      string           `json:"overall_level"`
	Dimensions        []DimensionScore `json:"dimensions"`
	Profile           Profile          `json:"profile"`
	Insights          Insights         `json:"insights"`
	ActionPlan        []string         `json:"action_plan"`
	Summary           string           `json:"summary"`
	Reliability       *float64         `json:"reliability,omitempty"`
	Validity          validity.Metrics `json:"validity"`
	Warnings          []string         `json:"warnings,omitempty"`
	Narrative         string           `json:"narrative,omitempty"`
	CompletedAt       *time.Time       `json:"completed_at,omitempty"`
}

// DimensionByKey returns the scored dimension with the given key.
func (r *AssessmentResult) DimensionByKey(key string) (DimensionScore, bool) {
	for _, d := range r.Dimensions {
		if d.Key == key {
			return d, true
		}
	}
	return DimensionScore{}, false
}

// ── Stored Results + Analytics ──────────────────────────

// StoredResult is a persisted result row.
type StoredResult struct {
	ID             string           `json:"id"`
	UserID         int64            `json:"user_id"`
	AssessmentType string           `json:"assessment_type"`
	OverallScore   float64          `json:"overall_score"`
	IsValid        bool             `json:"is_valid"`
	Result         AssessmentResult `json:"result"`
	CreatedAt      time.Time        `json:"created_at"`
}

// ResultSummary is the list-view projection of a stored result.
type ResultSummary struct {
	ID                string    `json:"id"`
	AssessmentType    string    `json:"assessment_type"`
	OverallScore      float64   `json:"overall_score"`
	OverallPercentile float64   `json:"overall_percentile"`
	ProfileLabel      string    `json:"profile_label"`
	IsValid           bool      `json:"is_valid"`
	CreatedAt         time.Time `json:"created_at"`
}

// ResultList is a page of a user's results.
type ResultList struct {
	Results []ResultSummary `json:"results"`
	Total   int             `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

type DimensionAnalytics struct {
	Key               string         `json:"key"`
	Name              string         `json:"name"`
	MeanPercentage    float64        `json:"mean_percentage"`
	StdDevPercentage  float64        `json:"std_dev_percentage"`
	LevelDistribution map[string]int `json:"level_distribution"`
}

type CandidateRank struct {
	ResultID         string  `json:"result_id"`
	CandidateName    string  `json:"candidate_name,omitempty"`
	OverallScore     float64 `json:"overall_score"`
	CohortPercentile float64 `json:"cohort_percentile"`
}

// AssessmentAnalytics aggregates every stored result of one assessment type.
type AssessmentAnalytics struct {
	AssessmentType string               `json:"assessment_type"`
	Count          int                  `json:"count"`
	ValidCount     int                  `json:"valid_count"`
	ValidShare     float64              `json:"valid_share"`
	MeanOverall    float64              `json:"mean_overall"`
	StdDevOverall  float64              `json:"std_dev_overall"`
	Dimensions     []DimensionAnalytics `json:"dimensions"`
	ProfileCounts  map[string]int       `json:"profile_counts"`
	Ranking        []CandidateRank      `json:"ranking"`
}

// ── API Request/Response Types ────────────────────────────

type SubmitRequest struct {
	Candidate Candidate  `json:"candidate"`
	Responses []Response `json:"responses"`
}

type AssessmentInfo struct {
	Type          string   `json:"type"`
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	Description   string   `json:"description,omitempty"`
	Dimensions    []string `json:"dimensions"`
	QuestionCount int      `json:"question_count"`
}
