package models

import "time"

// ContentType distinguishes long-form videos (the repack corpus) from shorts.
type ContentType string

const (
	ContentTypeLongForm  ContentType = "long-form"
	ContentTypeShortForm ContentType = "short-form"
)

type Video struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Transcript  string      `json:"transcript"`
	Intro       string      `json:"intro"`
	PublishedAt time.Time   `json:"published_at"`
	URL         string      `json:"url"`
	ContentType ContentType `json:"content_type"`
}

// VideoChunk is a fixed-size overlapping window of a video transcript,
// the unit of embedding and retrieval. Owned by exactly one video.
type VideoChunk struct {
	VideoID   string    `json:"video_id"`
	Index     int       `json:"index"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"-"`
}
