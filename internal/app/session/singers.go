package session

import (
	"context"
	"strings"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/karaokebox/internal/app/notification"
	"github.com/osa030/karaokebox/internal/domain/room"
	"github.com/osa030/karaokebox/internal/domain/singer"
)

// Join adds a singer to an open room. Joining again with the same external user
// ID returns the existing singer. Configured host display names join as hosts.
func (m *Manager) Join(ctx context.Context, roomID, displayName, externalUserID string) (*singer.Singer, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, ErrDisplayNameRequired
	}

	var joined singer.Singer
	var isNew bool
	_, err := m.update(ctx, roomID, func(rm *room.Room) error {
		// A kicked singer rejoining stays kicked
		for _, existing := range rm.Singers {
			if externalUserID != "" && existing.ExternalUserID == externalUserID {
				joined = *existing
				return nil
			}
		}
		if !rm.IsOpen() {
			return ErrRoomClosed
		}
		s := singer.New(m.newID(), displayName, externalUserID, m.now())
		s.IsHost = m.config.IsAdminDisplayName(displayName)
		rm.Singers = append(rm.Singers, s)
		joined = *s
		isNew = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if isNew {
		zlog.Info().Msgf("singer joined: room_id=%s singer_id=%s name=%s host=%t", roomID, joined.ID, joined.DisplayName, joined.IsHost)
		m.notification.Publish(roomID, notification.EventSingerJoined, &joined)
	}
	return &joined, nil
}

// Kick bars a singer from requesting songs.
func (m *Manager) Kick(ctx context.Context, roomID, singerID string) error {
	var name string
	_, err := m.update(ctx, roomID, func(rm *room.Room) error {
		s, ok := rm.Singer(singerID)
		if !ok {
			return ErrSingerNotFound
		}
		s.Kick()
		name = s.DisplayName
		return nil
	})
	if err != nil {
		return err
	}

	zlog.Info().Msgf("singer kicked: room_id=%s singer_id=%s name=%s", roomID, singerID, name)
	m.notification.Publish(roomID, notification.EventSingerKicked, map[string]string{"singer_id": singerID})
	return nil
}

// Singer returns a singer of a room.
func (m *Manager) Singer(ctx context.Context, roomID, singerID string) (*singer.Singer, error) {
	rm, err := m.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	s, ok := rm.Singer(singerID)
	if !ok {
		return nil, ErrSingerNotFound
	}
	return s, nil
}
