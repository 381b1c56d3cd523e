package filter

import (
	"context"

	"github.com/osa030/karaokebox/internal/domain/request"
	"github.com/osa030/karaokebox/internal/domain/room"
	"github.com/osa030/karaokebox/internal/domain/singer"
)

// SingerQueuedFilter allows one waiting song per singer.
type SingerQueuedFilter struct{}

func (f *SingerQueuedFilter) Name() string {
	return "singer_queued_filter"
}

func (f *SingerQueuedFilter) Description() string {
	return "Checks if the singer already has a song waiting in the queue"
}

func (f *SingerQueuedFilter) ReturnCodes() []string {
	return []string{"singer_queued"}
}

func (f *SingerQueuedFilter) ValidateConfig(settings map[string]any) error {
	return nil
}

func (f *SingerQueuedFilter) AppliesTo(requesterType request.RequesterType) bool {
	return requesterType == request.RequesterTypeSinger
}

func (f *SingerQueuedFilter) Check(ctx context.Context, sub Submission, rm *room.Room, s *singer.Singer) Result {
	for _, req := range rm.Requests {
		if req.SingerID == sub.SingerID && req.Status.IsLive() {
			return Reject("singer_queued")
		}
	}
	return Accept()
}

func init() {
	Register("singer_queued_filter", func() Filter {
		return &SingerQueuedFilter{}
	})
}
