// Package events fans session notifications out to in-process subscribers
// such as the console WebSocket stream.
package events

import (
	"sync"
	"time"

	"github.com/bizmatters/mindease/console/internal/models"
	"github.com/bizmatters/mindease/console/pkg/logger"
	"github.com/google/uuid"
)

const defaultBuffer = 32

// Publisher is what a session controller needs to emit events.
type Publisher interface {
	Publish(sessionID, eventType string, data map[string]interface{}) models.SessionEvent
}

// Bus is a goroutine-safe publish/subscribe hub keyed by session id.
// Publish never blocks: a subscriber whose buffer is full misses the event.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]map[uint64]chan models.SessionEvent
	nextID      uint64
	buffer      int
	now         func() time.Time
}

// NewBus returns a bus whose subscriber channels hold buffer events.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Bus{
		subscribers: make(map[string]map[uint64]chan models.SessionEvent),
		buffer:      buffer,
		now:         time.Now,
	}
}

// Publish stamps and delivers an event to every subscriber of sessionID.
func (b *Bus) Publish(sessionID, eventType string, data map[string]interface{}) models.SessionEvent {
	event := models.SessionEvent{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Type:      eventType,
		Data:      data,
		Timestamp: b.now().UTC(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers[sessionID] {
		select {
		case ch <- event:
		default:
			logger.WithFields(logger.Fields{
				"session_id":    sessionID,
				"subscriber_id": id,
				"event_type":    eventType,
			}).Warn("dropping event for slow subscriber")
		}
	}
	return event
}

// Subscribe registers a subscriber for sessionID. The returned cancel func
// unregisters it and closes the channel; it is safe to call more than once.
func (b *Bus) Subscribe(sessionID string) (<-chan models.SessionEvent, func()) {
	ch := make(chan models.SessionEvent, b.buffer)

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.subscribers[sessionID] == nil {
		b.subscribers[sessionID] = make(map[uint64]chan models.SessionEvent)
	}
	b.subscribers[sessionID][id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() { b.remove(sessionID, id) })
	}
	return ch, cancel
}

func (b *Bus) remove(sessionID string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[sessionID]
	ch, ok := subs[id]
	if !ok {
		return
	}
	delete(subs, id)
	close(ch)
	if len(subs) == 0 {
		delete(b.subscribers, sessionID)
	}
}

// CloseSession drops every subscriber of sessionID, closing their channels.
func (b *Bus) CloseSession(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subscribers[sessionID] {
		close(ch)
		delete(b.subscribers[sessionID], id)
	}
	delete(b.subscribers, sessionID)
}

// SubscriberCount reports the live subscribers of sessionID.
func (b *Bus) SubscriberCount(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[sessionID])
}
