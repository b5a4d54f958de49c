package scoring

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/assessiq/backend/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.001
}

var likert = []models.Option{
	{Label: "Strongly disagree", Value: 1},
	{Label: "Disagree", Value: 2},
	{Label: "Neutral", Value: 3},
	{Label: "Agree", Value: 4},
	{Label: "Strongly agree", Value: 5},
}

func testDefinition() *models.Definition {
	d := &models.Definition{
		Type:           "sample",
		Name:           "Sample",
		Version:        "1.0",
		Scale:          models.Scale{Min: 1, Max: 5},
		DefaultOptions: likert,
		Dimensions: []models.Dimension{
			{Key: "drive", Name: "Drive", Weight: 2, Recommendations: []string{"Set weekly goals"}},
			{Key: "focus", Name: "Focus", Weight: 1, Recommendations: []string{"Keep it up"}},
			{Key: "empty", Name: "Empty", Weight: 1},
		},
		Questions: []models.Question{
			{ID: "d1", Dimension: "drive"},
			{ID: "d2", Dimension: "drive", Reverse: true},
			{ID: "d3", Dimension: "drive"},
			{ID: "f1", Dimension: "focus"},
			{ID: "f2", Dimension: "focus"},
			{ID: "e1", Dimension: "empty"},
		},
	}
	d.ApplyDefaults()
	return d
}

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func resp(id string, a models.Answer, offset int) models.Response {
	return models.Response{QuestionID: id, Answer: a, Timestamp: base.Add(time.Duration(offset) * time.Second)}
}

func testResponses() []models.Response {
	return []models.Response{
		resp("d1", models.NumberAnswer(4), 0),
		resp("d2", models.LabelAnswer("agree"), 1),
		resp("d3", models.BoolAnswer(true), 2),
		resp("f1", models.LabelAnswer("3"), 3),
		resp("f2", models.NumberAnswer(9), 4),
		resp("zz", models.NumberAnswer(3), 5),
		resp("e1", models.LabelAnswer("maybe"), 6),
		resp("d1", models.NumberAnswer(2), 7),
	}
}

// ── NormalizeAnswers ─────────────────────────────────────

func TestNormalizeAnswers(t *testing.T) {
	scored, warnings := NormalizeAnswers(testDefinition(), testResponses())

	type pair struct {
		ID         string
		Raw, Value float64
	}
	var got []pair
	for _, s := range scored {
		got = append(got, pair{s.QuestionID, s.Raw, s.Value})
	}
	want := []pair{
		{"d1", 2, 2},
		{"d2", 4, 2},
		{"d3", 5, 5},
		{"f1", 3, 3},
		{"f2", 5, 5},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NormalizeAnswers mismatch (-want +got):\n%s", diff)
	}

	if len(warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", warnings)
	}
	if !strings.Contains(warnings[0]+warnings[1], `"zz"`) || !strings.Contains(warnings[0]+warnings[1], "maybe") {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestNormalizeAnswers_DuplicateKeepsLatest(t *testing.T) {
	def := testDefinition()

	// the earlier-stamped answer arrives last and must lose
	responses := []models.Response{
		resp("f1", models.NumberAnswer(5), 10),
		resp("f1", models.NumberAnswer(1), 2),
	}
	scored, _ := NormalizeAnswers(def, responses)
	if len(scored) != 1 || scored[0].Value != 5 {
		t.Errorf("got %+v, want single value 5", scored)
	}

	// equal timestamps: later in the slice wins
	responses = []models.Response{
		resp("f1", models.NumberAnswer(5), 0),
		resp("f1", models.NumberAnswer(1), 0),
	}
	scored, _ = NormalizeAnswers(def, responses)
	if len(scored) != 1 || scored[0].Value != 1 {
		t.Errorf("got %+v, want single value 1", scored)
	}
}

func TestNormalizeAnswers_RejectsNonFinite(t *testing.T) {
	responses := []models.Response{
		resp("f1", models.NumberAnswer(math.NaN()), 0),
		resp("f2", models.LabelAnswer("Inf"), 0),
		resp("d1", models.Answer{}, 0),
	}
	scored, warnings := NormalizeAnswers(testDefinition(), responses)
	if len(scored) != 0 {
		t.Errorf("scored = %+v, want none", scored)
	}
	if len(warnings) != 3 {
		t.Errorf("warnings = %v, want 3", warnings)
	}
}

// ── Aggregate ────────────────────────────────────────────

func TestAggregate(t *testing.T) {
	def := testDefinition()
	scored, _ := NormalizeAnswers(def, testResponses())
	dims := Aggregate(def, scored, nil, Options{})

	tests := []struct {
		key        string
		raw        float64
		percentage float64
		items      int
		low        bool
	}{
		{"drive", 9, 50, 3, false},
		{"focus", 8, 75, 2, false},
		{"empty", 0, 50, 0, true},
	}
	if len(dims) != len(tests) {
		t.Fatalf("got %d dimensions, want %d", len(dims), len(tests))
	}
	for i, tt := range tests {
		d := dims[i]
		if d.Key != tt.key {
			t.Errorf("dims[%d].Key = %q, want %q", i, d.Key, tt.key)
		}
		if !almostEqual(d.Raw, tt.raw) || !almostEqual(d.Percentage, tt.percentage) {
			t.Errorf("%s: raw %f pct %f, want %f %f", tt.key, d.Raw, d.Percentage, tt.raw, tt.percentage)
		}
		if d.ItemCount != tt.items || d.LowConfidence != tt.low {
			t.Errorf("%s: items %d low %v, want %d %v", tt.key, d.ItemCount, d.LowConfidence, tt.items, tt.low)
		}
	}
}

func TestAggregate_Demographics(t *testing.T) {
	def := testDefinition()
	def.DemographicFactors = map[string]map[string]float64{
		"education": {"bachelor": 1.1},
	}
	scored, _ := NormalizeAnswers(def, testResponses())
	demo := map[string]string{"education": "bachelor"}

	dims := Aggregate(def, scored, demo, Options{})
	if !almostEqual(dims[0].Percentage, 55) || !almostEqual(dims[1].Percentage, 82.5) {
		t.Errorf("adjusted = %f, %f, want 55, 82.5", dims[0].Percentage, dims[1].Percentage)
	}

	dims = Aggregate(def, scored, demo, Options{DisableDemographics: true})
	if !almostEqual(dims[0].Percentage, 50) {
		t.Errorf("disabled adjustment changed score to %f", dims[0].Percentage)
	}
}

func TestAggregate_Subdimensions(t *testing.T) {
	def := &models.Definition{
		Type:  "subs",
		Scale: models.Scale{Min: 1, Max: 5},
		Dimensions: []models.Dimension{
			{Key: "people", Subdimensions: map[string]float64{"empathy": 3, "influence": 1}},
			{Key: "plain"},
		},
		Questions: []models.Question{
			{ID: "p1", Dimension: "people", Subdimension: "empathy"},
			{ID: "p2", Dimension: "people", Subdimension: "influence"},
			{ID: "x1", Dimension: "plain", Subdimension: "a"},
			{ID: "x2", Dimension: "plain", Subdimension: "b"},
		},
	}
	def.ApplyDefaults()
	scored, _ := NormalizeAnswers(def, []models.Response{
		resp("p1", models.NumberAnswer(5), 0),
		resp("p2", models.NumberAnswer(1), 0),
		resp("x1", models.NumberAnswer(5), 0),
		resp("x2", models.NumberAnswer(1), 0),
	})
	dims := Aggregate(def, scored, nil, Options{})

	if !almostEqual(dims[0].Percentage, 75) {
		t.Errorf("weighted subdimensions = %f, want 75", dims[0].Percentage)
	}
	want := map[string]float64{"empathy": 100, "influence": 0}
	if diff := cmp.Diff(want, dims[0].Subdimensions); diff != "" {
		t.Errorf("subdimensions (-want +got):\n%s", diff)
	}
	if !almostEqual(dims[1].Percentage, 50) {
		t.Errorf("unweighted dimension = %f, want 50", dims[1].Percentage)
	}
}

// ── Levels ───────────────────────────────────────────────

func TestLevelScheme_Default(t *testing.T) {
	s := NewLevelScheme(nil)
	tests := []struct {
		score float64
		want  string
	}{
		{100, "Exceptional"},
		{90, "Exceptional"},
		{89.99, "Strong"},
		{75, "Strong"},
		{60, "Above Average"},
		{59.9, "Average"},
		{40, "Average"},
		{25, "Below Average"},
		{10, "Developing"},
		{9.99, "Needs Attention"},
		{0, "Needs Attention"},
		{-5, "Needs Attention"},
		{math.NaN(), "Needs Attention"},
	}
	for _, tt := range tests {
		if got := s.Level(tt.score); got != tt.want {
			t.Errorf("Level(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestLevelScheme_SortsBands(t *testing.T) {
	s := NewLevelScheme([]models.LevelBand{{Min: 0, Label: "Low"}, {Min: 70, Label: "High"}, {Min: 30, Label: "Mid"}})
	if got := s.Level(70); got != "High" {
		t.Errorf("Level(70) = %q, want High", got)
	}
	if got := s.Level(69.9); got != "Mid" {
		t.Errorf("Level(69.9) = %q, want Mid", got)
	}
}

func years(v float64) *float64 { return &v }

func TestExperienceShift(t *testing.T) {
	cfg := &models.ExperienceAdjustment{BaselineYears: 3, PointsPerYear: 2, Cap: 6}
	tests := []struct {
		years *float64
		want  float64
	}{
		{nil, 0},
		{years(0), -6},
		{years(3), 0},
		{years(5), 4},
		{years(10), 6},
		{years(-4), -6},
	}
	for _, tt := range tests {
		got := ExperienceShift(tt.years, cfg)
		if !almostEqual(got, tt.want) {
			t.Errorf("ExperienceShift(%v) = %f, want %f", tt.years, got, tt.want)
		}
	}
	if got := ExperienceShift(years(5), nil); got != 0 {
		t.Errorf("nil config shift = %f, want 0", got)
	}
}

func TestExperienceShift_MonotonicAndCapped(t *testing.T) {
	cfg := &models.ExperienceAdjustment{BaselineYears: 2, PointsPerYear: 4, Cap: 25}
	prev := math.Inf(-1)
	for y := 0.0; y <= 40; y += 0.5 {
		got := ExperienceShift(years(y), cfg)
		if got < prev {
			t.Fatalf("shift decreased at %v years", y)
		}
		if math.Abs(got) > models.MaxExperienceCap {
			t.Fatalf("shift %f exceeds cap at %v years", got, y)
		}
		prev = got
	}
}

// ── Smoothing ────────────────────────────────────────────

func dimsWith(pcts ...float64) []models.DimensionScore {
	out := make([]models.DimensionScore, len(pcts))
	for i, p := range pcts {
		out[i] = models.DimensionScore{Key: string(rune('a' + i)), Percentage: p, ItemCount: 1}
	}
	return out
}

func TestSmooth(t *testing.T) {
	in := dimsWith(90, 20, 50)
	out := Smooth(in, models.Smoothing{Enabled: true, SpreadThreshold: 40, Nudge: 5})

	if out[0].Percentage != 85 || out[1].Percentage != 25 || out[2].Percentage != 50 {
		t.Errorf("smoothed = %v %v %v, want 85 25 50", out[0].Percentage, out[1].Percentage, out[2].Percentage)
	}
	if !out[0].Smoothed || !out[1].Smoothed || out[2].Smoothed {
		t.Error("Smoothed flags wrong")
	}
	if in[0].Percentage != 90 {
		t.Error("input was modified")
	}
}

func TestSmooth_NoOp(t *testing.T) {
	in := dimsWith(60, 40)
	for _, cfg := range []models.Smoothing{
		{Enabled: false, SpreadThreshold: 0, Nudge: 5},
		{Enabled: true, SpreadThreshold: 20, Nudge: 5},
		{Enabled: true, SpreadThreshold: 0, Nudge: 0},
	} {
		out := Smooth(in, cfg)
		if diff := cmp.Diff(in, out); diff != "" {
			t.Errorf("Smooth(%+v) changed scores:\n%s", cfg, diff)
		}
	}
}

func TestSmooth_NeverCrossesMidpoint(t *testing.T) {
	out := Smooth(dimsWith(60, 40), models.Smoothing{Enabled: true, SpreadThreshold: 10, Nudge: 50})
	if out[0].Percentage != 50 || out[1].Percentage != 50 {
		t.Errorf("got %v %v, want both 50", out[0].Percentage, out[1].Percentage)
	}
}

func TestSmooth_StaysInBounds(t *testing.T) {
	for hi := 0.0; hi <= 100; hi += 12.5 {
		for lo := 0.0; lo <= hi; lo += 12.5 {
			for _, nudge := range []float64{1, 10, 75, 200} {
				out := Smooth(dimsWith(hi, lo, 0, 100), models.Smoothing{Enabled: true, SpreadThreshold: 5, Nudge: nudge})
				for _, d := range out {
					if d.Percentage < 0 || d.Percentage > 100 {
						t.Fatalf("hi=%v lo=%v nudge=%v produced %v", hi, lo, nudge, d.Percentage)
					}
				}
			}
		}
	}
}

// ── Engine ───────────────────────────────────────────────

func testSubmission() models.Submission {
	return models.Submission{
		AssessmentType: "sample",
		Candidate:      models.Candidate{Name: "Ada Lovelace"},
		Responses:      testResponses(),
	}
}

func TestEngineScore(t *testing.T) {
	res, err := NewEngine(nil).Score(testDefinition(), testSubmission(), Options{})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	if !almostEqual(res.OverallScore, 56.25) {
		t.Errorf("OverallScore = %f, want 56.25", res.OverallScore)
	}
	if !almostEqual(res.OverallPercentile, 56.25) {
		t.Errorf("OverallPercentile = %f, want 56.25", res.OverallPercentile)
	}
	if res.OverallLevel != "Average" {
		t.Errorf("OverallLevel = %q, want Average", res.OverallLevel)
	}

	levels := map[string]string{}
	for _, d := range res.Dimensions {
		levels[d.Key] = d.Level
		if d.Percentile < 1 || d.Percentile > 99 {
			t.Errorf("%s percentile %f outside [1,99]", d.Key, d.Percentile)
		}
		if d.Confidence.Lower > d.Percentage || d.Confidence.Upper < d.Percentage {
			t.Errorf("%s interval %+v excludes %f", d.Key, d.Confidence, d.Percentage)
		}
	}
	wantLevels := map[string]string{"drive": "Average", "focus": "Strong", "empty": "Average"}
	if diff := cmp.Diff(wantLevels, levels); diff != "" {
		t.Errorf("levels (-want +got):\n%s", diff)
	}

	wantInsights := models.Insights{
		Strengths:     []string{"Focus"},
		Challenges:    []string{},
		Opportunities: []string{"Drive", "Empty"},
	}
	if diff := cmp.Diff(wantInsights, res.Insights); diff != "" {
		t.Errorf("insights (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Set weekly goals"}, res.ActionPlan); diff != "" {
		t.Errorf("action plan (-want +got):\n%s", diff)
	}

	if !res.Validity.IsValid {
		t.Errorf("validity = %+v, want valid", res.Validity)
	}
	if !almostEqual(res.Validity.CompletionRate, 0.8333) {
		t.Errorf("CompletionRate = %f, want 0.8333", res.Validity.CompletionRate)
	}
	if res.Reliability == nil {
		t.Error("Reliability should be set with two multi-item dimensions")
	}
	if !strings.Contains(res.Summary, "Ada Lovelace scored 56 overall (56th percentile, Average)") {
		t.Errorf("Summary = %q", res.Summary)
	}
	if res.Profile.Label != "Average" {
		t.Errorf("Profile = %+v", res.Profile)
	}

	joined := strings.Join(res.Warnings, "\n")
	for _, w := range []string{`"zz"`, "maybe", "no answered items for Empty"} {
		if !strings.Contains(joined, w) {
			t.Errorf("warnings missing %q: %v", w, res.Warnings)
		}
	}

	if res.ID != "" || res.Narrative != "" || res.CompletedAt != nil {
		t.Error("engine must not set ID, Narrative or CompletedAt")
	}
}

func TestEngineScore_Deterministic(t *testing.T) {
	e := NewEngine(nil)
	def := testDefinition()

	first, err := e.Score(def, testSubmission(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Score(def, testSubmission(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated scoring differs (-first +second):\n%s", diff)
	}

	// response order does not matter once timestamps settle duplicates
	sub := testSubmission()
	for i, j := 0, len(sub.Responses)-1; i < j; i, j = i+1, j-1 {
		sub.Responses[i], sub.Responses[j] = sub.Responses[j], sub.Responses[i]
	}
	reversed, err := e.Score(def, sub, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, reversed); diff != "" {
		t.Errorf("reordered responses changed result:\n%s", diff)
	}
}

func TestEngineScore_CandidateIsCopied(t *testing.T) {
	sub := testSubmission()
	sub.Candidate.YearsExperience = years(4)
	sub.Candidate.Demographics = map[string]string{"education": "bachelor"}

	res, err := NewEngine(nil).Score(testDefinition(), sub, Options{})
	if err != nil {
		t.Fatal(err)
	}
	*sub.Candidate.YearsExperience = 40
	sub.Candidate.Demographics["education"] = "doctorate"

	if got := *res.Candidate.YearsExperience; got != 4 {
		t.Errorf("YearsExperience = %v after caller edit, want 4", got)
	}
	if got := res.Candidate.Demographics["education"]; got != "bachelor" {
		t.Errorf("education = %q after caller edit, want bachelor", got)
	}
}

func TestEngineScore_ExperienceShift(t *testing.T) {
	def := testDefinition()
	def.Experience = &models.ExperienceAdjustment{BaselineYears: 2, PointsPerYear: 5, Cap: 10}
	sub := testSubmission()
	sub.Candidate.YearsExperience = years(10)

	res, err := NewEngine(nil).Score(def, sub, Options{})
	if err != nil {
		t.Fatal(err)
	}
	focus, _ := res.DimensionByKey("focus")
	if focus.Level != "Above Average" {
		t.Errorf("focus level = %q, want Above Average after +10 shift", focus.Level)
	}
	if !almostEqual(focus.Percentage, 75) {
		t.Errorf("shift must not change the percentage, got %f", focus.Percentage)
	}

	res, err = NewEngine(nil).Score(def, sub, Options{DisableExperience: true})
	if err != nil {
		t.Fatal(err)
	}
	focus, _ = res.DimensionByKey("focus")
	if focus.Level != "Strong" {
		t.Errorf("disabled shift: focus level = %q, want Strong", focus.Level)
	}
}

func TestEngineScore_Smoothing(t *testing.T) {
	def := testDefinition()
	def.Smoothing = models.Smoothing{Enabled: true, SpreadThreshold: 10, Nudge: 5}

	res, err := NewEngine(nil).Score(def, testSubmission(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	drive, _ := res.DimensionByKey("drive")
	focus, _ := res.DimensionByKey("focus")
	if !almostEqual(drive.Percentage, 55) || !almostEqual(focus.Percentage, 70) {
		t.Errorf("smoothed drive %f focus %f, want 55 70", drive.Percentage, focus.Percentage)
	}

	res, err = NewEngine(nil).Score(def, testSubmission(), Options{DisableSmoothing: true})
	if err != nil {
		t.Fatal(err)
	}
	focus, _ = res.DimensionByKey("focus")
	if !almostEqual(focus.Percentage, 75) || focus.Smoothed {
		t.Errorf("DisableSmoothing ignored: %+v", focus)
	}
}

func TestEngineScore_Errors(t *testing.T) {
	e := NewEngine(nil)
	if _, err := e.Score(nil, testSubmission(), Options{}); !errors.Is(err, ErrNilDefinition) {
		t.Errorf("nil definition: err = %v", err)
	}

	def := testDefinition()
	def.Scale = models.Scale{Min: 5, Max: 1}
	_, err := e.Score(def, testSubmission(), Options{})
	var defErr *models.DefinitionError
	if !errors.As(err, &defErr) {
		t.Errorf("invalid definition: err = %v, want DefinitionError", err)
	}
}

func TestEngineScore_StraightLiningFlagged(t *testing.T) {
	var responses []models.Response
	for i, q := range testDefinition().Questions {
		responses = append(responses, resp(q.ID, models.NumberAnswer(3), i))
	}
	res, err := NewEngine(nil).Score(testDefinition(), models.Submission{Responses: responses}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Validity.IsStraightLining || res.Validity.IsValid {
		t.Errorf("validity = %+v, want straight-lining and invalid", res.Validity)
	}
	if !strings.Contains(res.Summary, "flagged by validity checks") {
		t.Errorf("Summary = %q", res.Summary)
	}
}

func TestOrdinal(t *testing.T) {
	tests := map[int]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 13: "13th", 21: "21st", 22: "22nd", 99: "99th", 101: "101st", 111: "111th"}
	for n, want := range tests {
		if got := Ordinal(n); got != want {
			t.Errorf("Ordinal(%d) = %q, want %q", n, got, want)
		}
	}
}
