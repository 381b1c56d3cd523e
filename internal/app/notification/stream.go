package notification

import "github.com/cockroachdb/errors"

// ErrStreamFull is returned when a ChannelStream's buffer is full.
var ErrStreamFull = errors.New("notification stream buffer full")

// ChannelStream is a Stream backed by a buffered channel.
// Events are dropped when the reader falls behind.
type ChannelStream struct {
	events chan *Event
}

// NewChannelStream creates a stream buffering up to size events.
func NewChannelStream(size int) *ChannelStream {
	return &ChannelStream{events: make(chan *Event, size)}
}

// Send queues the event without blocking.
func (s *ChannelStream) Send(event *Event) error {
	select {
	case s.events <- event:
		return nil
	default:
		return ErrStreamFull
	}
}

// Events returns the channel to read events from.
func (s *ChannelStream) Events() <-chan *Event {
	return s.events
}
