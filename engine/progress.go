package engine

import (
	"sync"
	"time"
)

type EventType string

const (
	EventStart         EventType = "start"
	EventPhase         EventType = "phase"
	EventKeywordResult EventType = "keyword_result"
	EventValidated     EventType = "validated"
	EventReplied       EventType = "replied"
	EventError         EventType = "error"
	EventSummary       EventType = "summary"
	EventEnd           EventType = "end"
)

// Event is one entry in the ordered progress stream of a cycle run.
type Event struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"runId"`
	Cycle     int       `json:"cycle"`
	Phase     string    `json:"phase,omitempty"`
	Keyword   string    `json:"keyword,omitempty"`
	PostID    string    `json:"postId,omitempty"`
	Message   string    `json:"message,omitempty"`
	Found     int       `json:"found,omitempty"`
	Passed    int       `json:"passed,omitempty"`
	Saved     int       `json:"saved,omitempty"`
	Duplicate int       `json:"duplicate,omitempty"`
	Time      time.Time `json:"time"`
}

const subscriberBuffer = 64

// Bus fans progress events out to any number of live subscribers and keeps
// the current run's history so a subscriber attaching mid-run can replay it.
// A slow subscriber loses events rather than blocking the producer.
type Bus struct {
	mu      sync.Mutex
	history []Event
	subs    map[int]chan Event
	nextID  int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe returns a subscriber id, the live event channel, and a copy of
// the current run's history up to this point.
func (b *Bus) Subscribe() (int, <-chan Event, []Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	replay := make([]Event, len(b.history))
	copy(replay, b.history)

	return id, ch, replay
}

func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// StartRun resets the replay buffer for a fresh cycle run.
func (b *Bus) StartRun() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.history = b.history[:0]
}

func (b *Bus) Emit(event Event) {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.history = append(b.history, event)

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			// subscriber is not keeping up, drop
		}
	}
}

func (b *Bus) History() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	history := make([]Event, len(b.history))
	copy(history, b.history)
	return history
}
