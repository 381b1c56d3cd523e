package filter

import (
	"context"

	"github.com/osa030/karaokebox/internal/domain/request"
	"github.com/osa030/karaokebox/internal/domain/room"
	"github.com/osa030/karaokebox/internal/domain/singer"
)

// KickedFilter checks if the singer is kicked.
type KickedFilter struct{}

func (f *KickedFilter) Name() string {
	return "kicked_singer_filter"
}

func (f *KickedFilter) Description() string {
	return "Checks if the singer is kicked from the room"
}

func (f *KickedFilter) ReturnCodes() []string {
	return []string{"kicked"}
}

func (f *KickedFilter) ValidateConfig(settings map[string]any) error {
	return nil
}

func (f *KickedFilter) AppliesTo(requesterType request.RequesterType) bool {
	// The host can still queue a song on a kicked singer's behalf
	return requesterType == request.RequesterTypeSinger
}

func (f *KickedFilter) Check(ctx context.Context, sub Submission, rm *room.Room, s *singer.Singer) Result {
	if s != nil && !s.CanRequest() {
		return Reject("kicked")
	}
	return Accept()
}

func init() {
	Register("kicked_singer_filter", func() Filter {
		return &KickedFilter{}
	})
}
