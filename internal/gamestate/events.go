package gamestate

import (
	"container/heap"
	"encoding/json"
)

// EventKind tags the ScheduledEvent sum type (spec.md §3.4, §9 "tagged
// unions for events"). ArmadaArrival is kept only to recognise and drop
// legacy persisted events; armadas are the source of truth for arrival
// (spec.md §4.3).
type EventKind string

const (
	EventResourceTick  EventKind = "resource_tick"
	EventGameEnd       EventKind = "game_end"
	EventArmadaArrival EventKind = "armada_arrival" // legacy, ignored on drain
)

// ScheduledEvent is one entry in the event queue (spec.md §3.4).
type ScheduledEvent struct {
	Kind          EventKind `json:"kind"`
	ScheduledTime int64     `json:"scheduledTime"`
	seq           int64     // stable tie-break, not persisted meaningfully across processes
}

// EventQueue is a priority queue of ScheduledEvent ordered by ScheduledTime
// with a stable tie-break on insertion order (spec.md §9: "avoid
// resorting an array on every pop"). It implements container/heap.Interface.
type EventQueue struct {
	items  []*ScheduledEvent
	nextSeq int64
}

// NewEventQueue returns an empty queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{}
}

func (q *EventQueue) Len() int { return len(q.items) }

func (q *EventQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.ScheduledTime != b.ScheduledTime {
		return a.ScheduledTime < b.ScheduledTime
	}
	return a.seq < b.seq
}

func (q *EventQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *EventQueue) Push(x any) { q.items = append(q.items, x.(*ScheduledEvent)) }

func (q *EventQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	return item
}

// Schedule inserts a new event, assigning it the next tie-break sequence.
func (q *EventQueue) Schedule(kind EventKind, scheduledTime int64) {
	q.nextSeq++
	heap.Push(q, &ScheduledEvent{Kind: kind, ScheduledTime: scheduledTime, seq: q.nextSeq})
}

// Peek returns the earliest-scheduled event without removing it, or nil if
// the queue is empty.
func (q *EventQueue) Peek() *ScheduledEvent {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// PopDue removes and returns the earliest event iff its ScheduledTime <=
// currentTime; otherwise it returns nil and leaves the queue untouched.
func (q *EventQueue) PopDue(currentTime int64) *ScheduledEvent {
	top := q.Peek()
	if top == nil || top.ScheduledTime > currentTime {
		return nil
	}
	return heap.Pop(q).(*ScheduledEvent)
}

// Snapshot returns a copy of the queue contents in the heap's internal
// order (not sorted by ScheduledTime) for JSON encoding; it does not
// mutate the queue.
func (q *EventQueue) Snapshot() []ScheduledEvent {
	out := make([]ScheduledEvent, len(q.items))
	for i, e := range q.items {
		out[i] = *e
	}
	return out
}

// Restore replaces the queue contents from a decoded snapshot (used when
// loading a GameRecord from JSON, where the heap invariant was lost).
func (q *EventQueue) Restore(events []ScheduledEvent) {
	q.items = make([]*ScheduledEvent, 0, len(events))
	q.nextSeq = 0
	for i := range events {
		e := events[i]
		q.nextSeq++
		e.seq = q.nextSeq
		q.items = append(q.items, &e)
	}
	heap.Init(q)
}

// MarshalJSON encodes the queue as a plain array in heap order; the tie-break
// sequence is insertion order on decode, which is sufficient because
// ScheduledTime ties only need *a* stable order, not the original one.
func (q *EventQueue) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Snapshot())
}

func (q *EventQueue) UnmarshalJSON(data []byte) error {
	var events []ScheduledEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return err
	}
	q.Restore(events)
	return nil
}
