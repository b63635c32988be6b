package models

import (
	"fmt"
	"time"
)

// Evaluation is the model's verdict on one (trend, video) pair. It is
// transient: only accepted pairs are persisted, as Recommendations.
type Evaluation struct {
	SemanticRelevance float64  `json:"semantic_relevance"`
	IntroSupport      float64  `json:"intro_support"`
	HonestyRisk       float64  `json:"honesty_risk"`
	Allowed           bool     `json:"allowed"`
	Titles            []string `json:"titles"`
	Thumbnails        []string `json:"thumbnails"`
	Notes             string   `json:"notes"`
}

// Recommendation is an accepted (trend, video) pair with its packaging.
type Recommendation struct {
	TrendID           string    `json:"trend_id"`
	VideoID           string    `json:"video_id"`
	SemanticRelevance float64   `json:"semantic_relevance"`
	IntroSupport      float64   `json:"intro_support"`
	HonestyRisk       float64   `json:"honesty_risk"`
	Titles            []string  `json:"titles"`
	Thumbnails        []string  `json:"thumbnails"`
	Notes             string    `json:"notes"`
	CreatedAt         time.Time `json:"created_at"`
}

// RunReport accumulates the counters for one match run. Rejected is always
// derived from the other two, never tracked on its own.
type RunReport struct {
	Trends    int `json:"trends"`
	Evaluated int `json:"evaluated"`
	Accepted  int `json:"accepted"`
}

func (r *RunReport) Rejected() int {
	return r.Evaluated - r.Accepted
}

func (r *RunReport) GetSummary() string {
	return fmt.Sprintf("matched %d trends, evaluated %d candidates, accepted %d, rejected %d",
		r.Trends, r.Evaluated, r.Accepted, r.Rejected())
}
