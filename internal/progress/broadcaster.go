// Package progress fans ingestion progress events out to subscribers.
// Delivery is best-effort: a subscriber that cannot keep up is dropped
// rather than blocking the publishing worker.
package progress

import (
	"log/slog"
	"sync"
)

// Event is one progress update for a job, shaped for the wire.
type Event struct {
	Type     string  `json:"type"`
	JobID    string  `json:"job_id"`
	Progress Payload `json:"progress"`
}

// Payload carries the job state inside an Event.
type Payload struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message,omitempty"`
}

// EventType is the message type tag for progress events.
const EventType = "upload_progress"

// channelBuffer is how many undelivered events a subscriber channel may
// hold before it is considered dead.
const channelBuffer = 16

// Broadcaster maintains per-subscriber sets of live push channels.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[string]map[chan Event]struct{}
	logger *slog.Logger
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subs:   make(map[string]map[chan Event]struct{}),
		logger: logger,
	}
}

// Subscribe registers a new channel for the subscriber and returns it
// with an unsubscribe function. The channel is closed on unsubscribe.
func (b *Broadcaster) Subscribe(subscriberID string) (<-chan Event, func()) {
	ch := make(chan Event, channelBuffer)

	b.mu.Lock()
	set, ok := b.subs[subscriberID]
	if !ok {
		set = make(map[chan Event]struct{})
		b.subs[subscriberID] = set
	}
	set[ch] = struct{}{}
	b.mu.Unlock()

	b.logger.Debug("progress subscriber connected", "subscriber", subscriberID)

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.remove(subscriberID, ch)
			close(ch)
		})
	}
	return ch, unsubscribe
}

// Publish fans the event out to all of the subscriber's channels. A full
// channel means the consumer is gone or wedged; it is removed from the
// set instead of retried.
func (b *Broadcaster) Publish(subscriberID, jobID string, payload Payload) {
	event := Event{Type: EventType, JobID: jobID, Progress: payload}

	b.mu.Lock()
	set, ok := b.subs[subscriberID]
	if !ok {
		b.mu.Unlock()
		return
	}
	var dead []chan Event
	for ch := range set {
		select {
		case ch <- event:
		default:
			dead = append(dead, ch)
		}
	}
	for _, ch := range dead {
		delete(set, ch)
	}
	if len(set) == 0 {
		delete(b.subs, subscriberID)
	}
	b.mu.Unlock()

	if len(dead) > 0 {
		b.logger.Warn("dropped stalled progress subscribers",
			"subscriber", subscriberID, "dropped", len(dead))
	}
}

// SubscriberCount reports how many live channels a subscriber has.
func (b *Broadcaster) SubscriberCount(subscriberID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[subscriberID])
}

func (b *Broadcaster) remove(subscriberID string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subs[subscriberID]
	if !ok {
		return
	}
	delete(set, ch)
	if len(set) == 0 {
		delete(b.subs, subscriberID)
	}
}
