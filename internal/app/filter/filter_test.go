package filter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/karaokebox/internal/domain/party"
	"github.com/osa030/karaokebox/internal/domain/queue"
	"github.com/osa030/karaokebox/internal/domain/request"
	"github.com/osa030/karaokebox/internal/domain/room"
	"github.com/osa030/karaokebox/internal/domain/singer"
)

var openedAt = time.Date(2026, 10, 16, 20, 0, 0, 0, time.UTC)

func openRoom(reqs ...*request.SongRequest) *room.Room {
	rm := room.New("room-1", "Friday", queue.DefaultSettings(), "balanced", party.DefaultPolicy(), openedAt)
	rm.Requests = reqs
	return rm
}

func TestKickedFilter_Check(t *testing.T) {
	tests := []struct {
		name         string
		isKicked     bool
		wantAccepted bool
	}{
		{name: "active singer", isKicked: false, wantAccepted: true},
		{name: "kicked singer", isKicked: true, wantAccepted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &KickedFilter{}
			s := &singer.Singer{ID: "s1", DisplayName: "Aiko", IsKicked: tt.isKicked}

			result := f.Check(context.Background(), Submission{SingerID: "s1", Title: "Song"}, openRoom(), s)

			assert.Equal(t, tt.wantAccepted, result.Accepted)
			if !tt.wantAccepted {
				assert.Equal(t, "kicked", result.Code)
			}
		})
	}
}

func TestTitleRequiredFilter_Check(t *testing.T) {
	tests := []struct {
		name         string
		sub          Submission
		wantAccepted bool
	}{
		{name: "title given", sub: Submission{Title: "Dancing Queen"}, wantAccepted: true},
		{name: "unresolved track id", sub: Submission{TrackID: "abc"}, wantAccepted: false},
		{name: "empty", sub: Submission{}, wantAccepted: false},
		{name: "whitespace title", sub: Submission{Title: "   "}, wantAccepted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := (&TitleRequiredFilter{}).Check(context.Background(), tt.sub, openRoom(), nil)
			assert.Equal(t, tt.wantAccepted, result.Accepted)
			if !tt.wantAccepted {
				assert.Equal(t, "empty_title", result.Code)
			}
		})
	}
}

func TestSingerQueuedFilter_Check(t *testing.T) {
	tests := []struct {
		name         string
		status       request.Status
		wantAccepted bool
	}{
		{name: "song waiting", status: request.StatusRequested, wantAccepted: false},
		{name: "song pending", status: request.StatusPending, wantAccepted: false},
		{name: "song on stage", status: request.StatusPerforming, wantAccepted: true},
		{name: "song performed", status: request.StatusPerformed, wantAccepted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := openRoom(&request.SongRequest{ID: "r1", SingerID: "s1", Title: "Song", Status: tt.status})

			result := (&SingerQueuedFilter{}).Check(context.Background(), Submission{SingerID: "s1", Title: "Other"}, rm, nil)

			assert.Equal(t, tt.wantAccepted, result.Accepted)
			if !tt.wantAccepted {
				assert.Equal(t, "singer_queued", result.Code)
			}
		})
	}
}

func TestSingerQueuedFilter_OtherSinger(t *testing.T) {
	rm := openRoom(&request.SongRequest{ID: "r1", SingerID: "s2", Title: "Song", Status: request.StatusRequested})
	result := (&SingerQueuedFilter{}).Check(context.Background(), Submission{SingerID: "s1", Title: "Song"}, rm, nil)
	assert.True(t, result.Accepted)
}

func TestRoomClosedFilter_Check(t *testing.T) {
	tests := []struct {
		name          string
		closed        bool
		lastCall      string
		now           time.Time
		requesterType request.RequesterType
		wantAccepted  bool
		wantCode      string
	}{
		{
			name:          "open room without last call",
			now:           openedAt.Add(5 * time.Hour),
			requesterType: request.RequesterTypeSinger,
			wantAccepted:  true,
		},
		{
			name:          "closed room",
			closed:        true,
			now:           openedAt,
			requesterType: request.RequesterTypeSinger,
			wantCode:      "room_closed",
		},
		{
			name:          "closed room rejects host too",
			closed:        true,
			now:           openedAt,
			requesterType: request.RequesterTypeHost,
			wantCode:      "room_closed",
		},
		{
			name:          "before last call",
			lastCall:      "23:30",
			now:           time.Date(2026, 10, 16, 23, 0, 0, 0, time.UTC),
			requesterType: request.RequesterTypeSinger,
			wantAccepted:  true,
		},
		{
			name:          "at last call",
			lastCall:      "23:30",
			now:           time.Date(2026, 10, 16, 23, 30, 0, 0, time.UTC),
			requesterType: request.RequesterTypeSinger,
			wantCode:      "last_call_passed",
		},
		{
			name:          "after midnight past last call",
			lastCall:      "23:30",
			now:           time.Date(2026, 10, 17, 0, 30, 0, 0, time.UTC),
			requesterType: request.RequesterTypeSinger,
			wantCode:      "last_call_passed",
		},
		{
			name:          "last call after midnight not reached",
			lastCall:      "01:00",
			now:           time.Date(2026, 10, 17, 0, 59, 0, 0, time.UTC),
			requesterType: request.RequesterTypeSinger,
			wantAccepted:  true,
		},
		{
			name:          "last call after midnight reached",
			lastCall:      "01:00",
			now:           time.Date(2026, 10, 17, 1, 0, 0, 0, time.UTC),
			requesterType: request.RequesterTypeSinger,
			wantCode:      "last_call_passed",
		},
		{
			name:          "host after last call",
			lastCall:      "23:30",
			now:           time.Date(2026, 10, 16, 23, 45, 0, 0, time.UTC),
			requesterType: request.RequesterTypeHost,
			wantAccepted:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewRoomClosedFilter(func() time.Time { return tt.now })
			require.NoError(t, f.ValidateConfig(map[string]any{"last_call": tt.lastCall}))

			rm := openRoom()
			if tt.closed {
				rm.Phase = room.PhaseClosed
			}

			result := f.Check(context.Background(), Submission{Title: "Song", RequesterType: tt.requesterType}, rm, nil)

			assert.Equal(t, tt.wantAccepted, result.Accepted)
			assert.Equal(t, tt.wantCode, result.Code)
		})
	}
}

func TestRoomClosedFilter_ValidateConfig(t *testing.T) {
	f := NewRoomClosedFilter(nil)
	assert.NoError(t, f.ValidateConfig(map[string]any{}))
	assert.NoError(t, f.ValidateConfig(map[string]any{"lastCall": "22:15"}))
	assert.Error(t, f.ValidateConfig(map[string]any{"last_call": "late"}))
}

func TestChain_Execute(t *testing.T) {
	chain := NewChain(
		NewRoomClosedFilter(nil),
		&TitleRequiredFilter{},
		&KickedFilter{},
		NewDuplicateSongFilter(),
	)

	t.Run("accepts a clean request", func(t *testing.T) {
		result := chain.Execute(context.Background(),
			Submission{SingerID: "s1", Title: "Song", RequesterType: request.RequesterTypeSinger},
			openRoom(), &singer.Singer{ID: "s1"})
		assert.True(t, result.Accepted)
	})

	t.Run("first rejection wins", func(t *testing.T) {
		rm := openRoom()
		rm.Phase = room.PhaseClosed
		result := chain.Execute(context.Background(),
			Submission{SingerID: "s1", RequesterType: request.RequesterTypeSinger},
			rm, &singer.Singer{ID: "s1", IsKicked: true})
		assert.False(t, result.Accepted)
		assert.Equal(t, "room_closed", result.Code)
	})

	t.Run("singer-only filters skip host requests", func(t *testing.T) {
		result := chain.Execute(context.Background(),
			Submission{SingerID: "s1", Title: "Song", RequesterType: request.RequesterTypeHost},
			openRoom(), &singer.Singer{ID: "s1", IsKicked: true})
		assert.True(t, result.Accepted)
	})

	assert.Len(t, chain.Filters(), 4)
}

func TestRegistry(t *testing.T) {
	registered := GetRegistered()
	for _, name := range []string{
		"room_closed_filter",
		"title_required_filter",
		"kicked_singer_filter",
		"singer_queued_filter",
		"duplicate_song_filter",
		"duration_limit_filter",
	} {
		factory, ok := registered[name]
		require.True(t, ok, name)
		assert.Equal(t, name, factory().Name())
	}
}
