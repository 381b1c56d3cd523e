// Package singer provides the Singer domain entity.
package singer

import "time"

// Singer is a participant who can request songs in a room.
type Singer struct {
	ID             string     `json:"id"`               // UUID
	DisplayName    string     `json:"display_name"`     // Display name
	ExternalUserID string     `json:"external_user_id"` // External user ID (for bot integration, optional)
	IsKicked       bool       `json:"is_kicked"`        // Kicked status
	IsHost         bool       `json:"is_host"`          // Joined under a host display name
	JoinedAt       time.Time  `json:"joined_at"`        // Join time
	TotalRequests  int        `json:"total_requests"`   // Admitted request count
	LastRequestAt  *time.Time `json:"last_request_at"`  // Last admitted request time
}

// New creates a new singer.
func New(id, displayName, externalUserID string, joinedAt time.Time) *Singer {
	return &Singer{
		ID:             id,
		DisplayName:    displayName,
		ExternalUserID: externalUserID,
		JoinedAt:       joinedAt,
	}
}

// RecordRequest counts an admitted request.
func (s *Singer) RecordRequest(at time.Time) {
	s.TotalRequests++
	s.LastRequestAt = &at
}

// Kick marks the singer as kicked.
func (s *Singer) Kick() {
	s.IsKicked = true
}

// CanRequest reports whether the singer may submit requests.
func (s *Singer) CanRequest() bool {
	return !s.IsKicked
}
