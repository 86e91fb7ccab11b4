package ws

import (
	"slices"
	"sort"
	"sync"
	"time"
)

const (
	defaultBufferMaxLen = 1000
	defaultBufferMaxAge = time.Hour
	bufferSweepInterval = 10 * time.Minute
)

// resourceLog is the ordered replay window of one resource. Event ids are
// increasing, so lookups by id use binary search.
type resourceLog []Event

// trim drops events older than cutoff and keeps at most maxLen of the rest.
func (l resourceLog) trim(cutoff time.Time, maxLen int) resourceLog {
	first := sort.Search(len(l), func(i int) bool { return !l[i].Time.Before(cutoff) })
	l = l[first:]

	if over := len(l) - maxLen; over > 0 {
		l = l[over:]
	}

	return l
}

func (l resourceLog) after(id uint64) []Event {
	i := sort.Search(len(l), func(i int) bool { return l[i].ID > id })
	if i == len(l) {
		return nil
	}

	return slices.Clone(l[i:])
}

// EventBuffer is the replay window shared by all resources: the last maxLen
// toggle events of each resource, none older than maxAge.
type EventBuffer struct {
	mu     sync.RWMutex
	logs   map[string]resourceLog
	maxLen int
	maxAge time.Duration
	now    func() time.Time
	done   chan struct{}
}

// NewEventBuffer creates an EventBuffer and starts a sweeper that forgets
// resources with no recent events. Stop ends the sweeper.
func NewEventBuffer(maxLen int, maxAge time.Duration) *EventBuffer {
	eb := &EventBuffer{
		logs:   make(map[string]resourceLog),
		maxLen: maxLen,
		maxAge: maxAge,
		now:    time.Now,
		done:   make(chan struct{}),
	}
	go eb.sweepLoop()
	return eb
}

// Stop ends the background sweeper.
func (eb *EventBuffer) Stop() {
	close(eb.done)
}

func (eb *EventBuffer) sweepLoop() {
	t := time.NewTicker(bufferSweepInterval)
	defer t.Stop()

	for {
		select {
		case <-eb.done:
			return
		case <-t.C:
			eb.sweep()
		}
	}
}

func (eb *EventBuffer) sweep() {
	cutoff := eb.now().Add(-eb.maxAge)

	eb.mu.Lock()
	defer eb.mu.Unlock()

	for resource, l := range eb.logs {
		if l = l.trim(cutoff, eb.maxLen); len(l) == 0 {
			delete(eb.logs, resource)
			continue
		}
		eb.logs[resource] = l
	}
}

// Append records event in the replay window of resource.
func (eb *EventBuffer) Append(resource string, event *Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	l := append(eb.logs[resource], *event)
	eb.logs[resource] = l.trim(eb.now().Add(-eb.maxAge), eb.maxLen)
}

// Since returns a copy of the buffered events of resource with an id greater
// than lastEventID, oldest first.
func (eb *EventBuffer) Since(resource string, lastEventID uint64) []Event {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	return eb.logs[resource].after(lastEventID)
}

// OldestID returns the id of the oldest buffered event of resource, or 0.
func (eb *EventBuffer) OldestID(resource string) uint64 {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if l := eb.logs[resource]; len(l) > 0 {
		return l[0].ID
	}

	return 0
}
