package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventKind is the lifecycle step an Event reports.
type EventKind string

const (
	EventStarted  EventKind = "started"
	EventProgress EventKind = "progress"
	EventFinished EventKind = "finished"
	EventFailed   EventKind = "failed"
)

// Stage names a pipeline stage.
type Stage string

const (
	StageParse   Stage = "parse"
	StageProject Stage = "project"
)

// Event is published for every stage transition and progress step.
type Event struct {
	Kind      EventKind `json:"kind"`
	Stage     Stage     `json:"stage"`
	RunID     string    `json:"run_id"`
	Message   string    `json:"message"`
	Fraction  float64   `json:"fraction"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	Error     string    `json:"error,omitempty"`
	Time      time.Time `json:"time"`

	Err error `json:"-"`
}

// DefaultBusBuffer is the per-subscriber channel capacity.
const DefaultBusBuffer = 256

// Bus fans events out to subscribers. Publishing never blocks: a subscriber
// whose buffer is full misses the event.
type Bus struct {
	mu     sync.Mutex
	buffer int
	subs   map[string]chan Event
	closed bool
}

// NewBus returns a bus whose subscriber channels hold buffer events.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = DefaultBusBuffer
	}
	return &Bus{buffer: buffer, subs: make(map[string]chan Event)}
}

// Subscribe registers a new subscriber. The channel is closed by Unsubscribe
// or Close.
func (b *Bus) Subscribe() (string, <-chan Event) {
	id := uuid.NewString()
	ch := make(chan Event, b.buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return id, ch
	}
	b.subs[id] = ch
	return id, ch
}

// Unsubscribe removes and closes a subscriber.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
	}
}

// Publish delivers e to every subscriber with room for it.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribers returns the number of active subscribers.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close closes every subscriber channel. Later subscribers get a closed
// channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
