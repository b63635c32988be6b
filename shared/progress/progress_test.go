package progress

import "testing"

type recordSink struct {
	events []Event
}

func (r *recordSink) Publish(e Event) {
	r.events = append(r.events, e)
}

func TestChannelSinkDelivers(t *testing.T) {
	sink := NewChannelSink(2)
	sink.Publish(Event{Type: EventStart, TrendCount: 3})
	sink.Publish(Event{Type: EventComplete, Evaluated: 5})

	got := <-sink.C
	if got.Type != EventStart || got.TrendCount != 3 {
		t.Errorf("first event = %+v", got)
	}
	got = <-sink.C
	if got.Type != EventComplete || got.Evaluated != 5 {
		t.Errorf("second event = %+v", got)
	}
}

func TestChannelSinkDropsWhenFull(t *testing.T) {
	sink := NewChannelSink(1)
	sink.Publish(Event{Type: EventTrend, TrendID: "t1"})
	// Buffer is full; this must not block and must be dropped.
	sink.Publish(Event{Type: EventTrend, TrendID: "t2"})

	got := <-sink.C
	if got.TrendID != "t1" {
		t.Errorf("kept event = %+v, want t1", got)
	}
	select {
	case e := <-sink.C:
		t.Errorf("unexpected second event: %+v", e)
	default:
	}
}

func TestMultiSinkFansOut(t *testing.T) {
	a := &recordSink{}
	b := &recordSink{}
	multi := MultiSink{a, b}

	multi.Publish(Event{Type: EventAccepted, VideoID: "v1"})

	for i, sink := range []*recordSink{a, b} {
		if len(sink.events) != 1 {
			t.Fatalf("sink %d got %d events", i, len(sink.events))
		}
		if sink.events[0].VideoID != "v1" {
			t.Errorf("sink %d event = %+v", i, sink.events[0])
		}
	}
}
