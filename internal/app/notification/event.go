package notification

import "time"

// EventType identifies a room event.
type EventType string

const (
	EventInitialState       EventType = "initial_state"
	EventSingerJoined       EventType = "singer_joined"
	EventSingerKicked       EventType = "singer_kicked"
	EventRequestAccepted    EventType = "request_accepted"
	EventRequestRejected    EventType = "request_rejected"
	EventPerformanceStarted EventType = "performance_started"
	EventPerformanceEnded   EventType = "performance_ended"
	EventMomentStarted      EventType = "moment_started"
	EventMomentDenied       EventType = "moment_denied"
	EventMomentEnded        EventType = "moment_ended"
	EventSettingsChanged    EventType = "settings_changed"
	EventPhaseChanged       EventType = "phase_changed"
)

// Event is a notification broadcast to a room's subscribers.
type Event struct {
	Type       EventType `json:"type"`
	RoomID     string    `json:"room_id"`
	SequenceNo uint64    `json:"sequence_no"`
	At         time.Time `json:"at"`
	Payload    any       `json:"payload,omitempty"`
}
