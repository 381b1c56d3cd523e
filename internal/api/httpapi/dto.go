package httpapi

import (
	"time"

	"github.com/osa030/karaokebox/internal/app/advisor"
	"github.com/osa030/karaokebox/internal/app/session"
	"github.com/osa030/karaokebox/internal/domain/party"
	"github.com/osa030/karaokebox/internal/domain/queue"
	"github.com/osa030/karaokebox/internal/domain/request"
	"github.com/osa030/karaokebox/internal/domain/room"
	"github.com/osa030/karaokebox/internal/domain/singer"
	"github.com/osa030/karaokebox/internal/domain/song"
)

// CreateRoomRequest is the body of POST /api/rooms. Both fields are optional.
type CreateRoomRequest struct {
	Title    string `json:"title"`
	FlowRule string `json:"flow_rule"`
}

// JoinRequest is the body of POST /api/rooms/:id/singers.
type JoinRequest struct {
	DisplayName    string `json:"display_name" binding:"required"`
	ExternalUserID string `json:"external_user_id"`
}

// SongRequestBody is the body of POST /api/rooms/:id/requests. A track ID is
// resolved to its title, artist and duration when song lookup is enabled.
type SongRequestBody struct {
	SingerID    string `json:"singer_id" binding:"required"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	TrackID     string `json:"track_id"`
	DurationSec int    `json:"duration_sec" binding:"gte=0"`
}

// SongRequestResponse reports whether a song request was accepted. Message is
// the participant-facing text for the outcome.
type SongRequestResponse struct {
	Success bool                 `json:"success"`
	Pending bool                 `json:"pending"`
	Code    string               `json:"code,omitempty"`
	Message string               `json:"message"`
	Request *request.SongRequest `json:"request,omitempty"`
}

// CompleteRequest is the body of POST .../stage/complete.
type CompleteRequest struct {
	DurationSec int `json:"duration_sec" binding:"gte=0"`
}

// MomentRequest is the body of POST .../moments.
type MomentRequest struct {
	Mode        string `json:"mode" binding:"required"`
	DurationSec int    `json:"duration_sec"`
}

// FlowRuleRequest is the body of POST .../flow-rule.
type FlowRuleRequest struct {
	FlowRule string `json:"flow_rule" binding:"required"`
}

// PresetRequest is the body of POST .../preset.
type PresetRequest struct {
	Preset string `json:"preset" binding:"required"`
}

// ModerationRequest is the body of PUT .../moderation.
type ModerationRequest struct {
	Count int `json:"count"`
}

// RoomResponse is the JSON view of a room.
type RoomResponse struct {
	ID                string           `json:"id"`
	Title             string           `json:"title"`
	Phase             room.Phase       `json:"phase"`
	CreatedAt         time.Time        `json:"created_at"`
	FlowRuleID        string           `json:"flow_rule_id"`
	QueueSettings     queue.Settings   `json:"queue_settings"`
	Policy            party.Policy     `json:"party_policy"`
	Flow              party.FlowState  `json:"flow"`
	ActiveMode        party.Mode       `json:"active_mode"`
	ActiveModeEndsAt  *time.Time       `json:"active_mode_ends_at,omitempty"`
	ReadyCheckActive  bool             `json:"ready_check_active"`
	PendingModeration int              `json:"pending_moderation"`
	Singers           []*singer.Singer `json:"singers"`
}

func newRoomResponse(rm *room.Room) *RoomResponse {
	singers := rm.Singers
	if singers == nil {
		singers = []*singer.Singer{}
	}
	return &RoomResponse{
		ID:                rm.ID,
		Title:             rm.Title,
		Phase:             rm.Phase,
		CreatedAt:         rm.CreatedAt,
		FlowRuleID:        rm.FlowRuleID,
		QueueSettings:     rm.Settings,
		Policy:            rm.Policy,
		Flow:              rm.Flow,
		ActiveMode:        rm.ActiveMode,
		ActiveModeEndsAt:  rm.ActiveModeEndsAt,
		ReadyCheckActive:  rm.ReadyCheckActive,
		PendingModeration: rm.PendingModeration,
		Singers:           singers,
	}
}

// StatusResponse is the host view of a room.
type StatusResponse struct {
	Room            *RoomResponse          `json:"room"`
	Queue           []*request.SongRequest `json:"queue"`
	Current         *request.SongRequest   `json:"current,omitempty"`
	SingingSharePct int                    `json:"singing_share_pct"`
	Recommendation  advisor.Action         `json:"recommendation"`
}

func newStatusResponse(st *session.Status) *StatusResponse {
	return &StatusResponse{
		Room:            newRoomResponse(st.Room),
		Queue:           nonNil(st.Queue),
		Current:         st.Current,
		SingingSharePct: st.SingingSharePct,
		Recommendation:  st.Recommendation,
	}
}

// SongResult is a catalog search hit.
type SongResult struct {
	TrackID     string `json:"track_id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album,omitempty"`
	DurationSec int    `json:"duration_sec"`
	URL         string `json:"url,omitempty"`
}

func newSongResult(t song.Track) SongResult {
	return SongResult{
		TrackID:     t.ID,
		Title:       t.Title,
		Artist:      t.Artist(),
		Album:       t.Album,
		DurationSec: t.DurationSec(),
		URL:         t.URL,
	}
}

// QueueResponse is the participant view of the queue.
type QueueResponse struct {
	Current *request.SongRequest   `json:"current,omitempty"`
	Queue   []*request.SongRequest `json:"queue"`
}

func nonNil(reqs []*request.SongRequest) []*request.SongRequest {
	if reqs == nil {
		return []*request.SongRequest{}
	}
	return reqs
}
