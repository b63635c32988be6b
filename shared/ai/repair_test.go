package ai

import (
	"strings"
	"testing"
)

const validResponse = `{
  "semantic_relevance": 0.8,
  "intro_support": 0.7,
  "honesty_risk": 0.2,
  "allowed": true,
  "titles": ["A"],
  "thumbnails": ["B"],
  "notes": "ok"
}`

func TestDecodeEvaluationValidJSON(t *testing.T) {
	eval, err := decodeEvaluation(validResponse)
	if err != nil {
		t.Fatalf("decodeEvaluation() error = %v", err)
	}
	if eval.SemanticRelevance != 0.8 || eval.IntroSupport != 0.7 || eval.HonestyRisk != 0.2 {
		t.Errorf("unexpected scores: %+v", eval)
	}
	if !eval.Allowed {
		t.Error("allowed should be true")
	}
	if len(eval.Titles) != 1 || eval.Titles[0] != "A" {
		t.Errorf("titles = %v, want [A]", eval.Titles)
	}
}

func TestDecodeEvaluationProseWrapped(t *testing.T) {
	response := "Sure! Here is my evaluation:\n" + validResponse + "\nLet me know if you need anything else."

	eval, err := decodeEvaluation(response)
	if err != nil {
		t.Fatalf("decodeEvaluation() error = %v", err)
	}
	if eval.SemanticRelevance != 0.8 || !eval.Allowed {
		t.Errorf("unexpected evaluation: %+v", eval)
	}
}

func TestDecodeEvaluationUnterminatedString(t *testing.T) {
	// Truncated mid-notes: no closing quote, no closing brace.
	response := "```json\n" + `{
  "semantic_relevance": 0.9,
  "intro_support": 0.75,
  "honesty_risk": 0.1,
  "allowed": true,
  "titles": ["A", "B"],
  "thumbnails": [],
  "notes": "the video cov`

	eval, err := decodeEvaluation(response)
	if err != nil {
		t.Fatalf("decodeEvaluation() error = %v", err)
	}
	if eval.SemanticRelevance != 0.9 || !eval.Allowed {
		t.Errorf("unexpected evaluation: %+v", eval)
	}
	if !strings.HasPrefix(eval.Notes, "the video cov") {
		t.Errorf("notes = %q, want the truncated text preserved", eval.Notes)
	}
}

func TestDecodeEvaluationGarbage(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"Plain prose", "I cannot evaluate this video."},
		{"Empty string", ""},
		{"Wrong-typed score", `{"semantic_relevance": "high", "intro_support": 0.7, "honesty_risk": 0.2, "allowed": true}`},
		{"Non-boolean allow", `{"semantic_relevance": 0.8, "intro_support": 0.7, "honesty_risk": 0.2, "allowed": "yes"}`},
		{"Missing required field", `{"semantic_relevance": 0.8, "intro_support": 0.7, "allowed": true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeEvaluation(tt.response); err == nil {
				t.Error("decodeEvaluation() should fail, caller maps this to the conservative sentinel")
			}
		})
	}
}

func TestDecodeEvaluationClampsScores(t *testing.T) {
	response := `{"semantic_relevance": 1.7, "intro_support": -0.3, "honesty_risk": 0.5, "allowed": true}`

	eval, err := decodeEvaluation(response)
	if err != nil {
		t.Fatalf("decodeEvaluation() error = %v", err)
	}
	if eval.SemanticRelevance != 1 {
		t.Errorf("relevance = %v, want clamped to 1", eval.SemanticRelevance)
	}
	if eval.IntroSupport != 0 {
		t.Errorf("intro support = %v, want clamped to 0", eval.IntroSupport)
	}
	if eval.Titles == nil || eval.Thumbnails == nil {
		t.Error("absent lists should decode as empty, not nil")
	}
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Trailing comma before close",
			input: `{"a": 1, "b": 2,}`,
			want:  `{"a": 1, "b": 2}`,
		},
		{
			name:  "Trailing comma in array",
			input: `{"a": [1, 2,]}`,
			want:  `{"a": [1, 2]}`,
		},
		{
			name:  "Code fences stripped",
			input: "```json\n{\"a\": 1}\n```",
			want:  "{\"a\": 1}",
		},
		{
			name:  "Truncated object closed",
			input: `{"a": 1, "b": [2, 3`,
			want:  `{"a": 1, "b": [2, 3]}`,
		},
		{
			name:  "Unterminated string closed",
			input: `{"a": "hello`,
			want:  `{"a": "hello"}`,
		},
		{
			name:  "Truncated after key",
			input: `{"a": 1, "b":`,
			want:  `{"a": 1, "b":null}`,
		},
		{
			name:  "Trailing garbage after object dropped",
			input: `{"a": 1} and that concludes my analysis`,
			want:  `{"a": 1}`,
		},
		{
			name:  "Braces inside strings are not structure",
			input: `{"a": "x } y"`,
			want:  `{"a": "x } y"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := repairJSON(tt.input); got != tt.want {
				t.Errorf("repairJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}
