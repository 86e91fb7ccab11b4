package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Event is the structured message sent to WebSocket clients.
type Event struct {
	Type     string          `json:"type"`
	ID       uint64          `json:"id"`
	Resource string          `json:"-"`
	Data     json.RawMessage `json:"data"`
	Time     time.Time       `json:"time"`
}

// Control message types exchanged outside the event stream.
const (
	MsgSubscribe = "subscribe"
	MsgReset     = "reset"
	MsgShutdown  = "shutdown"
)

// SubscribeMsg is sent by the client after connecting to replay the toggle
// events it missed. LastEventID 0 replays everything still buffered.
type SubscribeMsg struct {
	Type        string `json:"type"`
	LastEventID uint64 `json:"last_event_id"`
}

// ResetMsg tells the client its view is stale and must be reloaded, because
// the events after its last seen id have been evicted.
type ResetMsg struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// EventSequence hands out monotonic event ids per resource key. Ids of
// different resources are independent.
type EventSequence struct {
	mu       sync.Mutex
	counters map[string]*atomic.Uint64
}

// NewEventSequence creates a new EventSequence.
func NewEventSequence() *EventSequence {
	return &EventSequence{
		counters: make(map[string]*atomic.Uint64),
	}
}

// Next returns the next sequence number for a resource.
func (es *EventSequence) Next(resource string) uint64 {
	es.mu.Lock()
	counter, ok := es.counters[resource]
	if !ok {
		counter = &atomic.Uint64{}
		es.counters[resource] = counter
	}
	es.mu.Unlock()

	return counter.Add(1)
}
