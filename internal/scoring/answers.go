package scoring

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/assessiq/backend/internal/models"
	"github.com/assessiq/backend/internal/stats"
)

// Scored is one answered question resolved to the definition's numeric scale.
type Scored struct {
	QuestionID     string
	Dimension      string
	Subdimension   string
	Weight         float64
	Raw            float64 // clamped to the scale, before reverse keying
	Value          float64 // after reverse keying
	ResponseTimeMs *int64
	order          int
}

// NormalizeAnswers resolves every response to a number on the definition's
// scale. It is the only place answers are interpreted; nothing downstream
// sees labels or booleans.
//
// Responses for unknown questions and answers that cannot be resolved are
// dropped with a warning. When a question is answered more than once the
// latest answer by timestamp wins, ties going to the later response. The
// result is in question order.
func NormalizeAnswers(def *models.Definition, responses []models.Response) ([]Scored, []string) {
	var warnings []string

	index := make(map[string]int, len(def.Questions))
	for i, q := range def.Questions {
		index[q.ID] = i
	}

	latest := make(map[string]int)
	for i, r := range responses {
		if _, ok := index[r.QuestionID]; !ok {
			warnings = append(warnings, fmt.Sprintf("response for unknown question %q ignored", r.QuestionID))
			continue
		}
		prev, seen := latest[r.QuestionID]
		if !seen || !r.Timestamp.Before(responses[prev].Timestamp) {
			latest[r.QuestionID] = i
		}
	}

	out := make([]Scored, 0, len(latest))
	for id, ri := range latest {
		qi := index[id]
		q := def.Questions[qi]
		r := responses[ri]

		raw, err := resolveAnswer(q, r.Answer, def.Scale)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("question %q: %v", id, err))
			continue
		}
		dim, _ := def.DimensionFor(q)

		value := raw
		if q.Reverse {
			value = def.Scale.Max - raw + def.Scale.Min
		}
		out = append(out, Scored{
			QuestionID:     q.ID,
			Dimension:      dim,
			Subdimension:   q.Subdimension,
			Weight:         q.Weight,
			Raw:            raw,
			Value:          value,
			ResponseTimeMs: r.ResponseTimeMs,
			order:          qi,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].order < out[j].order })
	sort.Strings(warnings)
	return out, warnings
}

// resolveAnswer converts an answer to a value clamped to the scale. Option
// labels are matched case-insensitively before numeric strings are parsed.
func resolveAnswer(q models.Question, a models.Answer, scale models.Scale) (float64, error) {
	var v float64
	switch {
	case a.IsEmpty():
		return 0, fmt.Errorf("unanswered")
	case a.Number != nil:
		v = *a.Number
	case a.Bool != nil:
		v = scale.Min
		if *a.Bool {
			v = scale.Max
		}
	default:
		label := strings.TrimSpace(a.Label)
		found := false
		for _, o := range q.Options {
			if strings.EqualFold(strings.TrimSpace(o.Label), label) {
				v, found = o.Value, true
				break
			}
		}
		if !found {
			f, err := strconv.ParseFloat(label, 64)
			if err != nil {
				return 0, fmt.Errorf("unrecognised answer %q", a.Label)
			}
			v = f
		}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("answer %s is not a finite number", a)
	}
	return stats.Clamp(v, scale.Min, scale.Max), nil
}
