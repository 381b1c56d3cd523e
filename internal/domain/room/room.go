// Package room provides the Room aggregate: a karaoke room's configuration, flow
// counters, singers and song requests.
package room

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/karaokebox/internal/domain/party"
	"github.com/osa030/karaokebox/internal/domain/queue"
	"github.com/osa030/karaokebox/internal/domain/request"
	"github.com/osa030/karaokebox/internal/domain/singer"
)

// ErrNotFound is returned by stores for an unknown room ID.
var ErrNotFound = errors.New("room not found")

// Phase represents whether the room takes requests.
type Phase string

const (
	PhaseOpen   Phase = "open"
	PhaseClosed Phase = "closed"
)

// Room is the state a room's stores hold between decisions.
type Room struct {
	ID         string
	Title      string
	Phase      Phase
	CreatedAt  time.Time
	Settings   queue.Settings
	FlowRuleID string
	Policy     party.Policy
	Flow       party.FlowState

	// Stage state
	ActiveMode        party.Mode
	ActiveModeEndsAt  *time.Time
	ReadyCheckActive  bool
	PendingModeration int
	CurrentRequestID  string

	Singers  []*singer.Singer
	Requests []*request.SongRequest
}

// New creates an open room with zeroed flow counters.
func New(id, title string, settings queue.Settings, flowRuleID string, policy party.Policy, now time.Time) *Room {
	return &Room{
		ID:         id,
		Title:      title,
		Phase:      PhaseOpen,
		CreatedAt:  now,
		Settings:   settings.Normalize(),
		FlowRuleID: flowRuleID,
		Policy:     policy.Normalize(),
		ActiveMode: party.Karaoke,
	}
}

// IsOpen reports whether the room accepts requests.
func (r *Room) IsOpen() bool {
	return r.Phase == PhaseOpen
}

// Singer returns the singer with the given ID.
func (r *Room) Singer(id string) (*singer.Singer, bool) {
	for _, s := range r.Singers {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// SingerByExternalID returns the non-kicked singer with the given external ID.
func (r *Room) SingerByExternalID(externalID string) (*singer.Singer, bool) {
	if externalID == "" {
		return nil, false
	}
	for _, s := range r.Singers {
		if s.ExternalUserID == externalID && !s.IsKicked {
			return s, true
		}
	}
	return nil, false
}

// Request returns the request with the given ID.
func (r *Room) Request(id string) (*request.SongRequest, bool) {
	for _, req := range r.Requests {
		if req.ID == id {
			return req, true
		}
	}
	return nil, false
}

// History returns copies of every request the singer has made in this room.
func (r *Room) History(singerID string) []request.SongRequest {
	var out []request.SongRequest
	for _, req := range r.Requests {
		if req.SingerID == singerID {
			out = append(out, *req)
		}
	}
	return out
}

// LiveQueue returns the waiting requests in serving order.
func (r *Room) LiveQueue() []*request.SongRequest {
	var out []*request.SongRequest
	for _, req := range r.Requests {
		if req.Status.IsLive() {
			out = append(out, req)
		}
	}
	request.SortForServing(out)
	return out
}

// QueueDepth returns the number of waiting requests.
func (r *Room) QueueDepth() int {
	n := 0
	for _, req := range r.Requests {
		if req.Status.IsLive() {
			n++
		}
	}
	return n
}

// Current returns the request on stage, or nil.
func (r *Room) Current() *request.SongRequest {
	if r.CurrentRequestID == "" {
		return nil
	}
	req, ok := r.Request(r.CurrentRequestID)
	if !ok {
		return nil
	}
	return req
}

// MomentActive reports whether a group moment holds the stage at now.
// A moment without an end time runs until the host ends it.
func (r *Room) MomentActive(now time.Time) bool {
	if r.ActiveMode.IsKaraoke() {
		return false
	}
	return r.ActiveModeEndsAt == nil || now.Before(*r.ActiveModeEndsAt)
}

// StartMoment hands the stage to a group moment until endsAt.
func (r *Room) StartMoment(mode party.Mode, endsAt time.Time) {
	r.ActiveMode = mode
	r.ActiveModeEndsAt = &endsAt
	r.ReadyCheckActive = mode == party.ReadyCheck
}

// EndMoment returns the stage to karaoke.
func (r *Room) EndMoment() {
	r.ActiveMode = party.Karaoke
	r.ActiveModeEndsAt = nil
	r.ReadyCheckActive = false
}

// Clone returns a deep copy.
func (r *Room) Clone() *Room {
	c := *r
	if r.ActiveModeEndsAt != nil {
		t := *r.ActiveModeEndsAt
		c.ActiveModeEndsAt = &t
	}
	c.Singers = make([]*singer.Singer, len(r.Singers))
	for i, s := range r.Singers {
		cp := *s
		if s.LastRequestAt != nil {
			t := *s.LastRequestAt
			cp.LastRequestAt = &t
		}
		c.Singers[i] = &cp
	}
	c.Requests = make([]*request.SongRequest, len(r.Requests))
	for i, req := range r.Requests {
		cp := *req
		if req.StartedAt != nil {
			t := *req.StartedAt
			cp.StartedAt = &t
		}
		c.Requests[i] = &cp
	}
	return &c
}
