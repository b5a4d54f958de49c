package validity

import (
	"math"
	"strings"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.001
}

func ms(v int64) *int64 { return &v }

func TestValidateResponsePattern_StraightLining(t *testing.T) {
	got := ValidateResponsePattern([]float64{3, 3, 3, 3, 3, 3, 3, 3})
	if !got.IsStraightLining {
		t.Error("identical answers should be flagged as straight-lining")
	}
	if got.IsValid {
		t.Error("straight-lined response set should not be valid")
	}
	if got.IsRandomResponding {
		t.Error("straight-lining and random responding are exclusive")
	}
}

func TestValidateResponsePattern_ShortIdentical(t *testing.T) {
	got := ValidateResponsePattern([]float64{4, 4})
	if !got.IsStraightLining || got.IsValid {
		t.Errorf("two identical answers: got %+v, want straight-lining", got)
	}
}

func TestValidateResponsePattern_ModalShare(t *testing.T) {
	values := []float64{4, 4, 4, 4, 4, 4, 4, 4, 4, 3}
	if got := ValidateResponsePattern(values); !got.IsStraightLining {
		t.Errorf("90%% identical answers should be straight-lining, got %+v", got)
	}
}

func TestValidateResponsePattern_Random(t *testing.T) {
	values := []float64{1, 5, 2, 4, 1, 5, 3, 1, 5, 2}
	got := ValidateResponsePattern(values)
	if !got.IsRandomResponding {
		t.Errorf("erratic sequence should be flagged random, got %+v", got)
	}
	if got.IsValid {
		t.Error("random sequence should not be valid")
	}
	if !almostEqual(got.ConsistencyScore, 0.25) {
		t.Errorf("consistency = %f, want 0.25", got.ConsistencyScore)
	}
}

func TestValidateResponsePattern_Genuine(t *testing.T) {
	sets := [][]float64{
		{4, 4, 5, 4, 3, 4, 5, 4, 4, 3},
		{2, 3, 2, 4, 3, 2, 3, 3, 4, 2},
	}
	for _, values := range sets {
		got := ValidateResponsePattern(values)
		if !got.IsValid || got.IsStraightLining || got.IsRandomResponding {
			t.Errorf("%v: got %+v, want valid", values, got)
		}
		if got.ConsistencyScore <= 0 || got.ConsistencyScore > 1 {
			t.Errorf("%v: consistency %f outside (0,1]", values, got.ConsistencyScore)
		}
	}
}

func TestValidateResponsePattern_Empty(t *testing.T) {
	got := ValidateResponsePattern(nil)
	if got.IsStraightLining || got.IsRandomResponding || !got.IsValid {
		t.Errorf("empty set: got %+v", got)
	}
	if got.ConsistencyScore != 1 {
		t.Errorf("empty set consistency = %f, want 1", got.ConsistencyScore)
	}
}

func TestConsistency_Floor(t *testing.T) {
	v := New(Thresholds{MinConsistency: 0.05}, 1, 5)
	got := v.Pattern([]float64{1, 5, 1, 5, 1, 5})
	if got.ConsistencyScore != 0.05 {
		t.Errorf("consistency = %f, want floor 0.05", got.ConsistencyScore)
	}
}

func TestAssess_GroupedConsistency(t *testing.T) {
	v := New(DefaultThresholds(), 1, 5)
	in := Input{
		Expected: 6,
		Items: []Item{
			{Group: "a", Raw: 4, Scored: 4},
			{Group: "b", Raw: 3, Scored: 3},
			{Group: "a", Raw: 4, Scored: 4},
			{Group: "b", Raw: 2, Scored: 2},
			{Group: "a", Raw: 3, Scored: 3},
			{Group: "b", Raw: 3, Scored: 3},
		},
	}
	m := v.Assess(in)
	// Each group varies by at most one point between neighbours.
	// a: diffs 0,1 → 1-0.5/4 = 0.875; b: diffs 1,1 → 1-1/4 = 0.75
	if !almostEqual(m.ConsistencyScore, 0.8125) {
		t.Errorf("consistency = %f, want 0.8125", m.ConsistencyScore)
	}
	if !m.IsValid {
		t.Errorf("expected valid, got %+v", m)
	}
	if m.EngagementLevel != EngagementUnknown {
		t.Errorf("engagement = %s, want unknown", m.EngagementLevel)
	}
}

func TestAssess_Completion(t *testing.T) {
	v := New(DefaultThresholds(), 1, 5)
	in := Input{Expected: 10, Items: []Item{
		{Raw: 2, Scored: 2}, {Raw: 3, Scored: 3}, {Raw: 4, Scored: 4},
	}}
	m := v.Assess(in)
	if !almostEqual(m.CompletionRate, 0.3) {
		t.Errorf("completion = %f, want 0.3", m.CompletionRate)
	}
	if m.IsValid {
		t.Error("30% completion should not be valid")
	}
	if !hasWarning(m.Warnings, "low completion") {
		t.Errorf("missing completion warning: %v", m.Warnings)
	}
}

func TestAssess_Engagement(t *testing.T) {
	v := New(DefaultThresholds(), 1, 5)

	rushed := Input{Expected: 4, Items: []Item{
		{Raw: 2, Scored: 2, ResponseTimeMs: ms(400)},
		{Raw: 3, Scored: 3, ResponseTimeMs: ms(500)},
		{Raw: 4, Scored: 4, ResponseTimeMs: ms(700)},
		{Raw: 3, Scored: 3, ResponseTimeMs: ms(9000)},
	}}
	if got := v.Assess(rushed); got.EngagementLevel != EngagementLow {
		t.Errorf("rushed engagement = %s, want low", got.EngagementLevel)
	}

	steady := Input{Expected: 3, Items: []Item{
		{Raw: 2, Scored: 2, ResponseTimeMs: ms(4000)},
		{Raw: 3, Scored: 3, ResponseTimeMs: ms(5200)},
		{Raw: 4, Scored: 4, ResponseTimeMs: ms(6100)},
	}}
	if got := v.Assess(steady); got.EngagementLevel != EngagementHigh {
		t.Errorf("steady engagement = %s, want high", got.EngagementLevel)
	}

	slow := Input{Expected: 2, Items: []Item{
		{Raw: 2, Scored: 2, ResponseTimeMs: ms(90000)},
		{Raw: 3, Scored: 3, ResponseTimeMs: ms(120000)},
	}}
	if got := v.Assess(slow); got.EngagementLevel != EngagementModerate {
		t.Errorf("slow engagement = %s, want moderate", got.EngagementLevel)
	}
}

func TestAssess_FakeGood(t *testing.T) {
	v := New(DefaultThresholds(), 1, 5)
	// Reverse-keyed items answered 1 score as 5: still the favourable extreme.
	in := Input{Expected: 6, Items: []Item{
		{Raw: 5, Scored: 5}, {Raw: 1, Scored: 5}, {Raw: 5, Scored: 5},
		{Raw: 1, Scored: 5}, {Raw: 5, Scored: 5}, {Raw: 4, Scored: 4},
	}}
	m := v.Assess(in)
	if !almostEqual(m.FakeGoodIndicator, 5.0/6.0) {
		t.Errorf("fake-good = %f, want %f", m.FakeGoodIndicator, 5.0/6.0)
	}
	if !hasWarning(m.Warnings, "socially desirable") {
		t.Errorf("missing fake-good warning: %v", m.Warnings)
	}
	if m.IsStraightLining {
		t.Error("alternating raw answers are not straight-lining")
	}
}

func TestAssess_RandomRespondingUsesReverseKeyedValues(t *testing.T) {
	v := New(DefaultThresholds(), 1, 5)
	raw := []float64{5, 1, 4, 2, 5, 1, 4, 2}
	scored := []float64{5, 5, 4, 4, 5, 5, 4, 4}

	keyed := Input{Expected: len(raw)}
	erratic := Input{Expected: len(raw)}
	for i := range raw {
		keyed.Items = append(keyed.Items, Item{Group: "trait", Raw: raw[i], Scored: scored[i]})
		erratic.Items = append(erratic.Items, Item{Group: "trait", Raw: raw[i], Scored: raw[i]})
	}

	m := v.Assess(keyed)
	if m.IsRandomResponding || !m.IsValid {
		t.Errorf("reverse-keyed swings flagged: %+v", m)
	}
	if hasWarning(m.Warnings, "random responding") {
		t.Errorf("unexpected warning: %v", m.Warnings)
	}

	m = v.Assess(erratic)
	if !m.IsRandomResponding || m.IsValid {
		t.Errorf("erratic keyed answers should be flagged: %+v", m)
	}
}

func TestAssess_InterleavedTraitsAreNotRandom(t *testing.T) {
	v := New(DefaultThresholds(), 1, 5)
	// High on one trait, low on the other, asked alternately.
	values := []float64{5, 1, 5, 1, 4, 2, 4, 2}
	in := Input{Expected: len(values)}
	for i, x := range values {
		group := "a"
		if i%2 == 1 {
			group = "b"
		}
		in.Items = append(in.Items, Item{Group: group, Raw: x, Scored: x})
	}

	if !ValidateResponsePattern(values).IsRandomResponding {
		t.Fatal("as one ungrouped sequence this should look random")
	}
	if m := v.Assess(in); m.IsRandomResponding || !m.IsValid {
		t.Errorf("steady answers within each trait flagged: %+v", m)
	}
}

func TestThresholds_Merge(t *testing.T) {
	got := Thresholds{MaxModalShare: 0.8}.Merge()
	if got.MaxModalShare != 0.8 {
		t.Errorf("override lost: %f", got.MaxModalShare)
	}
	if got.MinItems != DefaultThresholds().MinItems {
		t.Errorf("MinItems = %d, want default", got.MinItems)
	}
}

func hasWarning(warnings []string, fragment string) bool {
	for _, w := range warnings {
		if strings.Contains(w, fragment) {
			return true
		}
	}
	return false
}
