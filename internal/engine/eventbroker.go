package engine

import (
	"sync"
	"time"
)

// subscriberBufferSize is the channel buffer for each event subscriber.
// Events are dropped if a subscriber falls this far behind.
const subscriberBufferSize = 64

// closedRetention is how long a finished run's closed marker is kept. Past
// it, callers rely on the run's terminal status in the store.
const closedRetention = time.Minute

// EventBroker fans out per-run progress events to subscribers.
// It is safe for concurrent use.
//
// Finished runs keep a closed marker for a while, so a subscriber that
// arrives just after the run ends receives a closed channel instead of
// blocking forever. Topics are removed once closed and expired, or once
// their last subscriber leaves an unfinished run.
type EventBroker struct {
	mu     sync.Mutex
	runs   map[string]*runTopic
	retain time.Duration
}

type runTopic struct {
	subs   map[int]chan string
	nextID int
	closed bool
}

// NewEventBroker creates an empty broker.
func NewEventBroker() *EventBroker {
	return newEventBroker(closedRetention)
}

func newEventBroker(retain time.Duration) *EventBroker {
	return &EventBroker{
		runs:   make(map[string]*runTopic),
		retain: retain,
	}
}

// Subscribe returns a channel of events for runID and an unsubscribe
// function. The channel is already closed if the run has finished.
func (b *EventBroker) Subscribe(runID string) (<-chan string, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.runs[runID]
	if !ok {
		t = &runTopic{subs: make(map[int]chan string)}
		b.runs[runID] = t
	}

	ch := make(chan string, subscriberBufferSize)
	if t.closed {
		close(ch)
		return ch, func() {}
	}

	id := t.nextID
	t.nextID++
	t.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(t.subs, id)
		if !t.closed && len(t.subs) == 0 && b.runs[runID] == t {
			delete(b.runs, runID)
		}
	}
}

// Publish delivers an event to every current subscriber of runID. Slow
// subscribers whose buffer is full miss the event.
func (b *EventBroker) Publish(runID string, event string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.runs[runID]
	if !ok || t.closed {
		return
	}

	for _, ch := range t.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close ends the event stream of runID: subscriber channels are closed and
// later subscribers get a closed channel.
func (b *EventBroker) Close(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.runs[runID]
	if !ok {
		t = &runTopic{subs: make(map[int]chan string)}
		b.runs[runID] = t
	}
	if t.closed {
		return
	}

	t.closed = true
	for id, ch := range t.subs {
		close(ch)
		delete(t.subs, id)
	}

	time.AfterFunc(b.retain, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.runs[runID] == t {
			delete(b.runs, runID)
		}
	})
}

// topics returns how many runs the broker currently tracks.
func (b *EventBroker) topics() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.runs)
}
