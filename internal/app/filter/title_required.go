package filter

import (
	"context"

	"github.com/osa030/karaokebox/internal/domain/request"
	"github.com/osa030/karaokebox/internal/domain/room"
	"github.com/osa030/karaokebox/internal/domain/singer"
)

// TitleRequiredFilter rejects requests that name no song.
type TitleRequiredFilter struct{}

func (f *TitleRequiredFilter) Name() string {
	return "title_required_filter"
}

func (f *TitleRequiredFilter) Description() string {
	return "Checks that the request names a song"
}

func (f *TitleRequiredFilter) ReturnCodes() []string {
	return []string{"empty_title"}
}

func (f *TitleRequiredFilter) ValidateConfig(settings map[string]any) error {
	return nil
}

func (f *TitleRequiredFilter) AppliesTo(requesterType request.RequesterType) bool {
	return true
}

func (f *TitleRequiredFilter) Check(ctx context.Context, sub Submission, rm *room.Room, s *singer.Singer) Result {
	// Track ids are resolved to titles before the chain runs
	if !request.HasTitle(sub.Title) {
		return Reject("empty_title")
	}
	return Accept()
}

func init() {
	Register("title_required_filter", func() Filter {
		return &TitleRequiredFilter{}
	})
}
