// Package request provides the SongRequest domain entity.
package request

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a song request.
type Status string

const (
	StatusRequested  Status = "requested"  // Accepted and live in the queue
	StatusPending    Status = "pending"    // Accepted over a soft limit, low priority
	StatusPerforming Status = "performing" // On stage
	StatusPerformed  Status = "performed"  // Finished
)

// IsLive reports whether a request with this status is waiting in the queue.
func (s Status) IsLive() bool {
	return s == StatusRequested || s == StatusPending
}

// RequesterType represents who submitted the request.
type RequesterType string

const (
	RequesterTypeSinger RequesterType = "SINGER"
	RequesterTypeHost   RequesterType = "HOST"
)

// SongRequest is a song requested for a singer in a room.
type SongRequest struct {
	ID            string        `json:"id"`
	RoomID        string        `json:"room_id"`
	SingerID      string        `json:"singer_id"`
	Title         string        `json:"title"`
	Artist        string        `json:"artist"`
	TrackID       string        `json:"track_id,omitempty"`
	DurationSec   int           `json:"duration_sec,omitempty"` // 0 if unknown
	SubmittedAt   time.Time     `json:"submitted_at"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	PriorityScore int64         `json:"priority_score"`
	Status        Status        `json:"status"`
	RequesterType RequesterType `json:"requester_type"`
}

// HasTitle reports whether title names a song.
func HasTitle(title string) bool {
	return strings.TrimSpace(title) != ""
}
