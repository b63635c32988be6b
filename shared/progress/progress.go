// Package progress carries the ordered event stream a match run emits.
// The orchestrator is the producer; any presentation layer (console log,
// live push) consumes the same sequence.
package progress

import "log"

type EventType string

const (
	EventStart      EventType = "start"
	EventTrend      EventType = "trend"
	EventCandidates EventType = "candidates"
	EventAccepted   EventType = "accepted"
	EventRejected   EventType = "rejected"
	EventComplete   EventType = "complete"
)

// Event is one progress notification. Payload fields are filled per type:
// Trend* for trend/candidates/accepted/rejected, Video* for per-candidate
// events, the counters for start (TrendCount) and complete.
type Event struct {
	Type       EventType `json:"type"`
	TrendID    string    `json:"trend_id,omitempty"`
	TrendTitle string    `json:"trend_title,omitempty"`
	VideoID    string    `json:"video_id,omitempty"`
	VideoTitle string    `json:"video_title,omitempty"`
	Candidates int       `json:"candidates,omitempty"`
	TrendCount int       `json:"trend_count,omitempty"`
	Evaluated  int       `json:"evaluated,omitempty"`
	Accepted   int       `json:"accepted,omitempty"`
	Rejected   int       `json:"rejected,omitempty"`
	Reason     string    `json:"reason,omitempty"`
}

// Sink consumes progress events. Publish must not block the run for long;
// the orchestrator calls it inline between evaluations.
type Sink interface {
	Publish(Event)
}

// LogSink renders each event as one human-readable log line.
type LogSink struct{}

func (LogSink) Publish(e Event) {
	switch e.Type {
	case EventStart:
		log.Printf("Match run started: %d trends", e.TrendCount)
	case EventTrend:
		log.Printf("Matching trend: %s", e.TrendTitle)
	case EventCandidates:
		log.Printf("Found %d candidate videos for %s", e.Candidates, e.TrendTitle)
	case EventAccepted:
		log.Printf("✅ Accepted: %s ← %s", e.VideoTitle, e.TrendTitle)
	case EventRejected:
		log.Printf("Rejected: %s ← %s (%s)", e.VideoTitle, e.TrendTitle, e.Reason)
	case EventComplete:
		log.Printf("Match run complete: %d evaluated, %d accepted, %d rejected", e.Evaluated, e.Accepted, e.Rejected)
	}
}

// ChannelSink forwards events to a channel for live consumers. Events are
// dropped if the channel is full rather than stalling the run.
type ChannelSink struct {
	C chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{C: make(chan Event, buffer)}
}

func (s *ChannelSink) Publish(e Event) {
	select {
	case s.C <- e:
	default:
	}
}

// MultiSink fans one event out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Publish(e Event) {
	for _, s := range m {
		s.Publish(e)
	}
}
