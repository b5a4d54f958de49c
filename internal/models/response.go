package models

import (
	"maps"
	"time"
)

// Response is one answered item. Responses are immutable once recorded.
type Response struct {
	QuestionID     string    `json:"question_id" yaml:"question_id"`
	Answer         Answer    `json:"answer" yaml:"answer"`
	ResponseTimeMs *int64    `json:"response_time_ms,omitempty" yaml:"response_time_ms,omitempty"`
	Timestamp      time.Time `json:"timestamp" yaml:"timestamp"`
}

// Candidate identifies who took the assessment. Demographics is a flat
// key→value map, e.g. {"education": "bachelor"}.
type Candidate struct {
	ID              string            `json:"id,omitempty" yaml:"id,omitempty"`
	Name            string            `json:"name,omitempty" yaml:"name,omitempty"`
	Email           string            `json:"email,omitempty" yaml:"email,omitempty"`
	YearsExperience *float64          `json:"years_experience,omitempty" yaml:"years_experience,omitempty"`
	Demographics    map[string]string `json:"demographics,omitempty" yaml:"demographics,omitempty"`
}

// Clone returns a copy that shares no map or pointer with c.
func (c Candidate) Clone() Candidate {
	out := c
	if c.YearsExperience != nil {
		years := *c.YearsExperience
		out.YearsExperience = &years
	}
	out.Demographics = maps.Clone(c.Demographics)
	return out
}

// Submission is a completed assessment awaiting scoring.
type Submission struct {
	AssessmentType string     `json:"assessment_type" yaml:"assessment_type"`
	Candidate      Candidate  `json:"candidate" yaml:"candidate"`
	Responses      []Response `json:"responses" yaml:"responses"`
}
