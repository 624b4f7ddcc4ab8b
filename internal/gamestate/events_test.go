package gamestate

import "testing"

func TestEventQueueOrdersByScheduledTime(t *testing.T) {
	q := NewEventQueue()
	q.Schedule(EventGameEnd, 300)
	q.Schedule(EventResourceTick, 100)
	q.Schedule(EventResourceTick, 200)

	var order []int64
	for {
		e := q.PopDue(1000)
		if e == nil {
			break
		}
		order = append(order, e.ScheduledTime)
	}

	want := []int64{100, 200, 300}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestEventQueuePopDueRespectsCurrentTime(t *testing.T) {
	q := NewEventQueue()
	q.Schedule(EventResourceTick, 500)

	if e := q.PopDue(400); e != nil {
		t.Fatalf("expected no due event at t=400, got %+v", e)
	}
	if e := q.PopDue(500); e == nil {
		t.Fatalf("expected due event at t=500")
	}
}

func TestEventQueueStableTieBreak(t *testing.T) {
	q := NewEventQueue()
	q.Schedule(EventResourceTick, 100)
	q.Schedule(EventGameEnd, 100)

	first := q.PopDue(100)
	second := q.PopDue(100)
	if first.Kind != EventResourceTick || second.Kind != EventGameEnd {
		t.Fatalf("expected insertion-order tie-break, got %v then %v", first.Kind, second.Kind)
	}
}

func TestEventQueueJSONRoundTrip(t *testing.T) {
	q := NewEventQueue()
	q.Schedule(EventResourceTick, 100)
	q.Schedule(EventGameEnd, 200)

	data, err := q.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	q2 := NewEventQueue()
	if err := q2.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if q2.Len() != 2 {
		t.Fatalf("expected 2 events after round trip, got %d", q2.Len())
	}
	if e := q2.PopDue(100); e == nil || e.Kind != EventResourceTick {
		t.Fatalf("expected resource_tick first, got %+v", e)
	}
}
