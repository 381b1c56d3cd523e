package session

import (
	"context"

	"github.com/osa030/karaokebox/internal/domain/room"
	"github.com/osa030/karaokebox/internal/domain/song"
)

// Store persists rooms. Implementations return copies; callers never share
// a *room.Room with the store.
type Store interface {
	Create(ctx context.Context, rm *room.Room) error
	Get(ctx context.Context, id string) (*room.Room, error)
	List(ctx context.Context) ([]*room.Room, error)
	// Update loads the room, applies fn and persists the result atomically.
	// Nothing is persisted when fn returns an error.
	Update(ctx context.Context, id string, fn func(rm *room.Room) error) (*room.Room, error)
}

// SongLookup resolves catalog track IDs.
type SongLookup interface {
	GetTrack(ctx context.Context, trackID string) (*song.Track, error)
}

// SongSearcher finds catalog tracks by free text. Lookups that also search
// enable Manager.SearchSongs.
type SongSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]song.Track, error)
}
