// Package filter provides the filter chain that screens song requests before
// they reach request admission.
package filter

import (
	"context"

	"github.com/osa030/karaokebox/internal/domain/request"
	"github.com/osa030/karaokebox/internal/domain/room"
	"github.com/osa030/karaokebox/internal/domain/singer"
)

// Submission represents a song request to be validated.
type Submission struct {
	SingerID      string
	Title         string
	Artist        string
	TrackID       string
	DurationSec   int // 0 if unknown
	RequesterType request.RequesterType
}

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "empty_title", "kicked", "duplicate_song"
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// Filter is the interface for request filters.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ReturnCodes returns the codes this filter can return.
	ReturnCodes() []string
	// ValidateConfig validates the filter configuration.
	ValidateConfig(settings map[string]any) error
	// AppliesTo returns true if this filter should be applied to the given requester type.
	AppliesTo(requesterType request.RequesterType) bool
	// Check performs the filter check. s is the requesting singer.
	Check(ctx context.Context, sub Submission, rm *room.Room, s *singer.Singer) Result
}

// registry holds registered filter factories.
var registry = make(map[string]func() Filter)

// Register registers a filter factory.
func Register(name string, factory func() Filter) {
	registry[name] = factory
}

// GetRegistered returns all registered filter factories.
func GetRegistered() map[string]func() Filter {
	return registry
}
