package models

import "time"

// Trend is a topical news item a video might be reframed around.
// Trends are immutable; a fetch cycle replaces the entire set.
type Trend struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Keywords  []string  `json:"keywords"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}
