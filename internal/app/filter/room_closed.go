package filter

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/karaokebox/internal/domain/request"
	"github.com/osa030/karaokebox/internal/domain/room"
	"github.com/osa030/karaokebox/internal/domain/singer"
	"github.com/osa030/karaokebox/internal/pkg/rawmap"
)

// RoomClosedConfig represents the configuration for RoomClosedFilter.
type RoomClosedConfig struct {
	// LastCall is an optional "HH:MM" local time after which singers can no longer request.
	LastCall string `yaml:"last_call" mapstructure:"last_call"`
}

// RoomClosedFilter rejects requests once the host closed the room or last call has passed.
type RoomClosedFilter struct {
	lastCallHour   int
	lastCallMinute int
	hasLastCall    bool
	getNow         func() time.Time
}

// NewRoomClosedFilter creates a new room closed filter.
func NewRoomClosedFilter(getNow func() time.Time) *RoomClosedFilter {
	if getNow == nil {
		getNow = time.Now
	}
	return &RoomClosedFilter{getNow: getNow}
}

func (f *RoomClosedFilter) Name() string {
	return "room_closed_filter"
}

func (f *RoomClosedFilter) Description() string {
	return "Rejects requests once the room is closed or last call has passed"
}

func (f *RoomClosedFilter) ReturnCodes() []string {
	return []string{"room_closed", "last_call_passed"}
}

func (f *RoomClosedFilter) ValidateConfig(settings map[string]any) error {
	var config RoomClosedConfig
	if err := rawmap.Decode(settings, &config); err != nil {
		return err
	}
	if config.LastCall == "" {
		f.hasLastCall = false
		return nil
	}
	t, err := time.Parse("15:04", config.LastCall)
	if err != nil {
		return errors.Wrapf(err, "invalid last_call %q (expected HH:MM)", config.LastCall)
	}
	f.lastCallHour, f.lastCallMinute = t.Hour(), t.Minute()
	f.hasLastCall = true
	return nil
}

func (f *RoomClosedFilter) AppliesTo(requesterType request.RequesterType) bool {
	return true
}

func (f *RoomClosedFilter) Check(ctx context.Context, sub Submission, rm *room.Room, s *singer.Singer) Result {
	if rm == nil || !rm.IsOpen() {
		return Reject("room_closed")
	}

	// The host may squeeze in a song after last call
	if f.hasLastCall && sub.RequesterType == request.RequesterTypeSinger {
		if !f.now().Before(f.lastCallFor(rm.CreatedAt)) {
			return Reject("last_call_passed")
		}
	}
	return Accept()
}

// lastCallFor returns the first last-call time at or after the room opened.
func (f *RoomClosedFilter) lastCallFor(openedAt time.Time) time.Time {
	lastCall := time.Date(openedAt.Year(), openedAt.Month(), openedAt.Day(), f.lastCallHour, f.lastCallMinute, 0, 0, openedAt.Location())
	if lastCall.Before(openedAt) {
		lastCall = lastCall.AddDate(0, 0, 1)
	}
	return lastCall
}

func (f *RoomClosedFilter) now() time.Time {
	if f.getNow == nil {
		return time.Now()
	}
	return f.getNow()
}

func init() {
	Register("room_closed_filter", func() Filter {
		return NewRoomClosedFilter(nil)
	})
}
