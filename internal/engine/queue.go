package engine

import (
	"container/heap"
	"sync"
)

// Event is a pending wake-up for one process.
type Event struct {
	Due     Minutes
	AgentID string

	seq  uint64
	proc Process
}

// Process returns the process the event will resume.
func (e Event) Process() Process {
	return e.proc
}

// eventHeap implements heap.Interface ordered by due time, then insertion sequence.
type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Due != h[j].Due {
		return h[i].Due < h[j].Due
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(Event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = Event{}
	*h = old[:n-1]
	return item
}

// Queue is a time-ordered event queue. Events due at the same instant come
// out in the order they were pushed.
type Queue struct {
	mu      sync.Mutex
	events  eventHeap
	nextSeq uint64
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	q := &Queue{}
	heap.Init(&q.events)
	return q
}

// Push schedules p to wake at due and returns the queued event.
func (q *Queue) Push(due Minutes, p Process) Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	ev := Event{Due: due, AgentID: p.ID(), seq: q.nextSeq, proc: p}
	q.nextSeq++
	heap.Push(&q.events, ev)
	return ev
}

// Peek returns the earliest event without removing it.
func (q *Queue) Peek() (Event, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return Event{}, ErrEmpty
	}
	return q.events[0], nil
}

// Pop removes and returns the earliest event.
func (q *Queue) Pop() (Event, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return Event{}, ErrEmpty
	}
	return heap.Pop(&q.events).(Event), nil
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
