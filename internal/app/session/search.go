package session

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/karaokebox/internal/domain/song"
)

// Search result limits.
const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

// SearchSongs finds catalog tracks for singers to pick from.
func (m *Manager) SearchSongs(ctx context.Context, query string, limit int) ([]song.Track, error) {
	searcher, ok := m.lookup.(SongSearcher)
	if !ok {
		return nil, ErrSearchUnavailable
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return []song.Track{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	limit = min(limit, MaxSearchLimit)

	tracks, err := searcher.Search(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "song search %q", query)
	}
	return tracks, nil
}
