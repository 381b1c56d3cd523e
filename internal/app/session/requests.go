package session

import (
	"context"
	"strings"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/karaokebox/internal/app/admission"
	"github.com/osa030/karaokebox/internal/app/filter"
	"github.com/osa030/karaokebox/internal/app/notification"
	"github.com/osa030/karaokebox/internal/domain/queue"
	"github.com/osa030/karaokebox/internal/domain/request"
	"github.com/osa030/karaokebox/internal/domain/room"
)

// Rejection codes produced outside the filter chain.
const (
	CodeSongNotFound  = "song_not_found"
	CodeInvalidSinger = "invalid_singer"
)

// RequestOutcome is the result of a song request. Rejections are outcomes, not errors.
type RequestOutcome struct {
	Accepted bool
	Code     string
	Request  *request.SongRequest
	Decision admission.Decision
}

// Pending reports whether the request was admitted over a soft limit.
func (o *RequestOutcome) Pending() bool {
	return o.Accepted && o.Request != nil && o.Request.Status == request.StatusPending
}

// RequestSong screens a song request through the filter chain and request
// admission, and queues it when accepted. Host requests are never limited.
func (m *Manager) RequestSong(ctx context.Context, roomID string, sub filter.Submission) (*RequestOutcome, error) {
	if sub.RequesterType == "" {
		sub.RequesterType = request.RequesterTypeSinger
	}
	sub.Title = strings.TrimSpace(sub.Title)
	sub.Artist = strings.TrimSpace(sub.Artist)

	// Catalog lookups stay outside the room transaction
	if sub.TrackID != "" && m.lookup != nil {
		t, err := m.lookup.GetTrack(ctx, sub.TrackID)
		if err != nil {
			zlog.Warn().Msgf("song request rejected: room_id=%s singer_id=%s track_id=%s code=%s err=%v", roomID, sub.SingerID, sub.TrackID, CodeSongNotFound, err)
			m.metrics.ObserveRequest(false, CodeSongNotFound)
			return &RequestOutcome{Code: CodeSongNotFound}, nil
		}
		sub.TrackID = t.ID
		sub.Title = t.Title
		sub.Artist = t.Artist()
		sub.DurationSec = t.DurationSec()
	}

	outcome := &RequestOutcome{}
	var singerName string
	_, err := m.update(ctx, roomID, func(rm *room.Room) error {
		*outcome = RequestOutcome{}
		s, ok := rm.Singer(sub.SingerID)
		if !ok {
			outcome.Code = CodeInvalidSinger
			return nil
		}
		singerName = s.DisplayName
		if s.IsHost {
			sub.RequesterType = request.RequesterTypeHost
		}

		if result := m.filterChain.Execute(ctx, sub, rm, s); !result.Accepted {
			outcome.Code = result.Code
			return nil
		}

		now := m.now()
		settings := rm.Settings
		if sub.RequesterType == request.RequesterTypeHost {
			settings.LimitMode = queue.LimitNone
		}
		decision := admission.Evaluate(settings, rm.History(s.ID), now)
		outcome.Decision = decision
		if !decision.Accepted {
			outcome.Code = decision.Code
			return nil
		}

		req := &request.SongRequest{
			ID:            m.newID(),
			RoomID:        rm.ID,
			SingerID:      s.ID,
			Title:         sub.Title,
			Artist:        sub.Artist,
			TrackID:       sub.TrackID,
			DurationSec:   sub.DurationSec,
			SubmittedAt:   now,
			PriorityScore: decision.PriorityScore,
			Status:        decision.Status(),
			RequesterType: sub.RequesterType,
		}
		rm.Requests = append(rm.Requests, req)
		s.RecordRequest(now)

		cp := *req
		outcome.Accepted = true
		outcome.Request = &cp
		return nil
	})
	if err != nil {
		return nil, err
	}

	zlog.Info().Msgf("song request: room_id=%s singer=%s title=%s result=%t code=%s", roomID, singerName, sub.Title, outcome.Accepted, outcome.Code)
	m.metrics.ObserveRequest(outcome.Accepted, outcome.Code)
	if outcome.Accepted {
		m.notification.Publish(roomID, notification.EventRequestAccepted, outcome.Request)
	} else {
		m.notification.Publish(roomID, notification.EventRequestRejected, map[string]string{
			"singer_id": sub.SingerID,
			"code":      outcome.Code,
		})
	}
	return outcome, nil
}

// Queue returns the waiting requests in serving order.
func (m *Manager) Queue(ctx context.Context, roomID string) ([]*request.SongRequest, error) {
	rm, err := m.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return rm.LiveQueue(), nil
}
