package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"repack-agent/internal/models"
)

// The model is asked for JSON but may wrap it in prose or code fences,
// truncate it mid-string, or emit garbage. decodeEvaluation runs an
// ordered list of parse strategies and stops at the first success; the
// caller maps total failure to the conservative sentinel.
type parseStrategy struct {
	name  string
	parse func(string) (*models.Evaluation, error)
}

var parseStrategies = []parseStrategy{
	{"direct", parseDirect},
	{"delimited", parseDelimited},
	{"repaired", parseRepaired},
}

func decodeEvaluation(response string) (*models.Evaluation, error) {
	var errs []string
	for _, s := range parseStrategies {
		eval, err := s.parse(response)
		if err == nil {
			return eval, nil
		}
		errs = append(errs, fmt.Sprintf("%s: %v", s.name, err))
	}
	return nil, fmt.Errorf("all parse strategies failed (%s)", strings.Join(errs, "; "))
}

// parseDirect parses the raw response as-is.
func parseDirect(response string) (*models.Evaluation, error) {
	return unmarshalEvaluation(response)
}

// parseDelimited slices the response to the substring between the first
// '{' and the last '}', shedding leading/trailing prose.
func parseDelimited(response string) (*models.Evaluation, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object delimiters found")
	}
	return unmarshalEvaluation(response[start : end+1])
}

// parseRepaired runs a generic repair pass over the response before
// parsing, recovering from unterminated strings, trailing commas and
// truncated objects.
func parseRepaired(response string) (*models.Evaluation, error) {
	return unmarshalEvaluation(repairJSON(response))
}

// unmarshalEvaluation enforces the response contract: the four scalar
// fields must be present and correctly typed. Scores are clamped to [0,1];
// missing text fields default to empty.
func unmarshalEvaluation(text string) (*models.Evaluation, error) {
	var raw struct {
		SemanticRelevance *float64 `json:"semantic_relevance"`
		IntroSupport      *float64 `json:"intro_support"`
		HonestyRisk       *float64 `json:"honesty_risk"`
		Allowed           *bool    `json:"allowed"`
		Titles            []string `json:"titles"`
		Thumbnails        []string `json:"thumbnails"`
		Notes             string   `json:"notes"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, err
	}

	if raw.SemanticRelevance == nil {
		return nil, fmt.Errorf("missing required field semantic_relevance")
	}
	if raw.IntroSupport == nil {
		return nil, fmt.Errorf("missing required field intro_support")
	}
	if raw.HonestyRisk == nil {
		return nil, fmt.Errorf("missing required field honesty_risk")
	}
	if raw.Allowed == nil {
		return nil, fmt.Errorf("missing required field allowed")
	}

	eval := &models.Evaluation{
		SemanticRelevance: clampScore(*raw.SemanticRelevance),
		IntroSupport:      clampScore(*raw.IntroSupport),
		HonestyRisk:       clampScore(*raw.HonestyRisk),
		Allowed:           *raw.Allowed,
		Titles:            raw.Titles,
		Thumbnails:        raw.Thumbnails,
		Notes:             raw.Notes,
	}
	if eval.Titles == nil {
		eval.Titles = []string{}
	}
	if eval.Thumbnails == nil {
		eval.Thumbnails = []string{}
	}
	return eval, nil
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// repairJSON makes a best-effort syntactic repair of a mangled JSON
// object: code fences and surrounding prose are stripped, trailing commas
// removed, an unterminated string closed, and unclosed braces/brackets
// balanced. The result is not guaranteed to parse; the cascade treats a
// failed parse of the repaired text as the final failure.
func repairJSON(response string) string {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```", "")

	start := strings.Index(response, "{")
	if start == -1 {
		return response
	}
	response = response[start:]

	var buf []byte
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(response); i++ {
		c := response[i]
		if inString {
			buf = append(buf, c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
			buf = append(buf, c)
		case '{', '[':
			stack = append(stack, c)
			buf = append(buf, c)
		case '}', ']':
			if len(stack) == 0 {
				continue // unmatched closer, drop it
			}
			stack = stack[:len(stack)-1]
			buf = trimTrailingComma(buf)
			buf = append(buf, c)
			if len(stack) == 0 {
				return string(buf) // top-level object closed; ignore the rest
			}
		default:
			buf = append(buf, c)
		}
	}

	// Truncated response: close what is still open.
	if inString {
		buf = append(buf, '"')
	}
	buf = trimTrailingComma(buf)
	if len(buf) > 0 && buf[len(buf)-1] == ':' {
		buf = append(buf, []byte("null")...)
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			buf = append(buf, '}')
		} else {
			buf = append(buf, ']')
		}
	}
	return string(buf)
}

func trimTrailingComma(buf []byte) []byte {
	i := len(buf) - 1
	for i >= 0 && (buf[i] == ' ' || buf[i] == '\t' || buf[i] == '\n' || buf[i] == '\r') {
		i--
	}
	if i >= 0 && buf[i] == ',' {
		return buf[:i]
	}
	return buf
}
