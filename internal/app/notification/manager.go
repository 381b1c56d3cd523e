// Package notification provides the notification manager for broadcasting room events.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

// DefaultSendTimeout bounds how long a slow subscriber can hold up a broadcast.
const DefaultSendTimeout = 500 * time.Millisecond

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*Event) error
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id     string
	roomID string // empty subscribes to every room
	stream Stream
}

// Manager manages notification subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
	sequenceNoMu  sync.Mutex
	sendTimeout   time.Duration
	now           func() time.Time
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
		sendTimeout:   DefaultSendTimeout,
		now:           time.Now,
	}
}

// Subscribe adds a new subscription for roomID and returns the subscription ID.
func (m *Manager) Subscribe(roomID string, stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:     id,
		roomID: roomID,
		stream: stream,
	}
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// nextSequenceNo returns the next sequence number and increments the counter.
func (m *Manager) nextSequenceNo() uint64 {
	m.sequenceNoMu.Lock()
	defer m.sequenceNoMu.Unlock()
	m.sequenceNo++
	return m.sequenceNo
}

// SequenceNo returns the sequence number of the last broadcast event.
func (m *Manager) SequenceNo() uint64 {
	m.sequenceNoMu.Lock()
	defer m.sequenceNoMu.Unlock()
	return m.sequenceNo
}

// InitialState builds the first event of a new subscription. It carries the last
// broadcast sequence number so the subscriber can tell which events follow it.
func (m *Manager) InitialState(roomID string, payload any) *Event {
	return &Event{
		Type:       EventInitialState,
		RoomID:     roomID,
		SequenceNo: m.SequenceNo(),
		At:         m.now(),
		Payload:    payload,
	}
}

// Publish builds an event and broadcasts it to the room's subscribers.
func (m *Manager) Publish(roomID string, eventType EventType, payload any) *Event {
	event := &Event{
		Type:    eventType,
		RoomID:  roomID,
		At:      m.now(),
		Payload: payload,
	}
	m.Broadcast(event)
	return event
}

// Broadcast stamps the event with the next sequence number and sends it to every
// subscriber of its room. Each send runs in its own goroutine with a timeout.
func (m *Manager) Broadcast(event *Event) {
	event.SequenceNo = m.nextSequenceNo()

	m.mu.RLock()
	// Copy subscriptions to avoid holding lock during sends
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		if sub.roomID == "" || sub.roomID == event.RoomID {
			subs = append(subs, sub)
		}
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), m.sendTimeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- s.stream.Send(event)
			}()

			select {
			case err := <-done:
				if err != nil {
					zlog.Debug().Err(err).Msgf("notification send failed: subscription=%s", s.id)
				}
			case <-ctx.Done():
				zlog.Debug().Msgf("notification send timed out: subscription=%s", s.id)
			}
		}(sub)
	}

	wg.Wait()
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close closes the manager and removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}
