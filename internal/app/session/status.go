package session

import (
	"context"

	"github.com/osa030/karaokebox/internal/app/advisor"
	"github.com/osa030/karaokebox/internal/domain/party"
	"github.com/osa030/karaokebox/internal/domain/request"
	"github.com/osa030/karaokebox/internal/domain/room"
)

// Status is a host's view of a room.
type Status struct {
	Room            *room.Room
	Queue           []*request.SongRequest
	Current         *request.SongRequest
	SingingSharePct int
	Recommendation  advisor.Action
}

// Status returns the room with its queue, stage and recommended next action.
func (m *Manager) Status(ctx context.Context, roomID string) (*Status, error) {
	rm, err := m.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	m.expireMoment(rm)

	return &Status{
		Room:            rm,
		Queue:           rm.LiveQueue(),
		Current:         rm.Current(),
		SingingSharePct: party.SingingSharePct(rm.Flow),
		Recommendation:  m.recommend(rm),
	}, nil
}

// Recommend returns the host's recommended next action.
func (m *Manager) Recommend(ctx context.Context, roomID string) (advisor.Action, error) {
	rm, err := m.GetRoom(ctx, roomID)
	if err != nil {
		return advisor.Action{}, err
	}
	m.expireMoment(rm)
	return m.recommend(rm), nil
}

func (m *Manager) recommend(rm *room.Room) advisor.Action {
	in := advisor.Input{
		PendingModerationCount: rm.PendingModeration,
		ReadyCheckActive:       rm.ReadyCheckActive,
		ActiveMode:             rm.ActiveMode,
		QueueLength:            rm.QueueDepth(),
	}
	if cur := rm.Current(); cur != nil {
		in.OnStage = true
		if s, ok := rm.Singer(cur.SingerID); ok {
			in.CurrentSinger = s.DisplayName
		}
	}
	return advisor.Recommend(in)
}
