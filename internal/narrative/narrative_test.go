package narrative

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/assessiq/backend/internal/models"
	"github.com/assessiq/backend/internal/validity"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func sampleResult() *models.AssessmentResult {
	return &models.AssessmentResult{
		AssessmentType: "leadership",
		Candidate:      models.Candidate{Name: "Ada"},
		OverallScore:   71.4,
		OverallLevel:   "Above Average",
		Profile:        models.Profile{Label: "Coach", Description: "Builds capability."},
		Dimensions: []models.DimensionScore{
			{Name: "Communication", Percentage: 82, Level: "Strong"},
			{Name: "Change Management", LowConfidence: true},
		},
		Insights:   models.Insights{Strengths: []string{"Communication"}},
		ActionPlan: []string{"Map stakeholders"},
		Validity:   validity.Metrics{IsValid: true},
	}
}

func TestBuildUserPrompt(t *testing.T) {
	def := &models.Definition{Name: "Leadership Potential Assessment"}
	p := BuildUserPrompt(def, sampleResult())

	wants := []string{
		"Ada, Leadership Potential Assessment\n",
		"Overall: 71/100 (Above Average)",
		"Profile: Coach (Builds capability.)",
		"- Communication: 82/100, Strong",
		"- Change Management: not enough answers",
		"Strengths: Communication",
		"- Map stakeholders",
	}
	for _, w := range wants {
		if !strings.Contains(p, w) {
			t.Errorf("prompt missing %q:\n%s", w, p)
		}
	}
	if strings.Contains(p, "unreliable") {
		t.Error("valid result should not carry the reliability note")
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain text  ", "plain text"},
		{"```\nfenced\n```", "fenced"},
		{"```markdown\nfenced body\n```", "fenced body"},
		{"```one line```", "one line"},
	}
	for _, tt := range tests {
		if got := clean(tt.in); got != tt.want {
			t.Errorf("clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := strings.Repeat("é", maxNarrativeRunes+50)
	if got := clean(long); len([]rune(got)) != maxNarrativeRunes {
		t.Errorf("clean did not cap length: %d runes", len([]rune(got)))
	}
}

func TestWriter_Mock(t *testing.T) {
	w := New(Config{Mode: ModeMock}, discard)
	got, err := w.Write(context.Background(), &models.Definition{Name: "Leadership"}, sampleResult())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got != "[Mock] Narrative for Ada, Leadership" {
		t.Errorf("narrative = %q", got)
	}
}

func TestWriter_Off(t *testing.T) {
	w := New(Config{Mode: ModeOff}, discard)
	if w != nil {
		t.Fatal("ModeOff should return a nil writer")
	}
	got, err := w.Write(context.Background(), nil, sampleResult())
	if err != nil || got != "" {
		t.Errorf("nil writer returned %q, %v", got, err)
	}
	if w.ModelName() != ModeOff {
		t.Errorf("ModelName = %q", w.ModelName())
	}
}

type failingClient struct{ err error }

func (f failingClient) Generate(context.Context, string, string) (*LLMResponse, error) {
	return nil, f.err
}

type blankClient struct{}

func (blankClient) Generate(context.Context, string, string) (*LLMResponse, error) {
	return &LLMResponse{Content: "```\n```"}, nil
}

func TestWriter_Errors(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewWriter(failingClient{boom}, "test", discard).Write(context.Background(), nil, sampleResult())
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}

	_, err = NewWriter(blankClient{}, "test", discard).Write(context.Background(), nil, sampleResult())
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
}
