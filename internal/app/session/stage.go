package session

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/karaokebox/internal/app/moment"
	"github.com/osa030/karaokebox/internal/app/notification"
	"github.com/osa030/karaokebox/internal/domain/party"
	"github.com/osa030/karaokebox/internal/domain/request"
	"github.com/osa030/karaokebox/internal/domain/room"
)

// Performance is a finished song and the seconds credited to the singing share.
type Performance struct {
	Request     request.SongRequest `json:"request"`
	CreditedSec int                 `json:"credited_sec"`
}

// StartNext puts the first waiting request on stage.
func (m *Manager) StartNext(ctx context.Context, roomID string) (*request.SongRequest, error) {
	var started request.SongRequest
	_, err := m.update(ctx, roomID, func(rm *room.Room) error {
		if rm.Current() != nil {
			return ErrStageBusy
		}
		if rm.MomentActive(m.now()) {
			return ErrMomentActive
		}
		q := rm.LiveQueue()
		if len(q) == 0 {
			return ErrNothingQueued
		}

		next := q[0]
		now := m.now()
		next.Status = request.StatusPerforming
		next.StartedAt = &now
		rm.CurrentRequestID = next.ID
		started = *next
		return nil
	})
	if err != nil {
		return nil, err
	}

	zlog.Info().Msgf("performance started: room_id=%s request_id=%s title=%s", roomID, started.ID, started.Title)
	m.notification.Publish(roomID, notification.EventPerformanceStarted, &started)
	return &started, nil
}

// CompletePerformance finishes the song on stage and credits its duration to the
// singing share. A durationSec of zero credits the time since the song started,
// capped at the song length when it is known.
func (m *Manager) CompletePerformance(ctx context.Context, roomID string, durationSec int) (*Performance, error) {
	var done Performance
	rm, err := m.update(ctx, roomID, func(rm *room.Room) error {
		cur := rm.Current()
		if cur == nil {
			return ErrNotPerforming
		}

		sec := durationSec
		if sec <= 0 {
			sec = elapsedSec(cur.StartedAt, m.now())
			if cur.DurationSec > 0 {
				sec = min(sec, cur.DurationSec)
			}
		}
		rm.Flow = party.RecordCompletedPerformance(rm.Flow, party.Performance{DurationSec: sec})

		cur.Status = request.StatusPerformed
		rm.CurrentRequestID = ""
		done = Performance{Request: *cur, CreditedSec: party.ClampPerformanceSec(sec)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zlog.Info().Msgf("performance ended: room_id=%s request_id=%s credited_sec=%d singing_share_pct=%d",
		roomID, done.Request.ID, done.CreditedSec, party.SingingSharePct(rm.Flow))
	m.metrics.ObservePerformance(done.CreditedSec)
	m.notification.Publish(roomID, notification.EventPerformanceEnded, &done)
	return &done, nil
}

// TriggerGroupMoment asks to run a group moment. When allowed, the moment is
// recorded and takes the stage in the same transaction.
func (m *Manager) TriggerGroupMoment(ctx context.Context, roomID string, req moment.Request) (*moment.Decision, error) {
	var decision moment.Decision
	_, err := m.update(ctx, roomID, func(rm *room.Room) error {
		if rm.Current() != nil {
			return ErrStageBusy
		}
		if rm.MomentActive(m.now()) {
			return ErrMomentActive
		}

		decision = m.moments.ShouldAllow(rm.Policy, rm.Flow, rm.QueueDepth(), req)
		if !decision.Allowed {
			return nil
		}

		rm.Flow = party.RecordGroupMoment(rm.Flow, party.Moment{Mode: decision.Mode, DurationSec: decision.BreakDurationSec})
		rm.StartMoment(decision.Mode, m.now().Add(time.Duration(decision.BreakDurationSec)*time.Second))
		return nil
	})
	if err != nil {
		return nil, err
	}

	zlog.Info().Msgf("group moment: room_id=%s mode=%s allowed=%t reason=%s share_pct=%d",
		roomID, decision.Mode, decision.Allowed, decision.Reason, decision.SingingSharePct)
	m.metrics.ObserveMoment(m.modeLabel(decision.Mode), string(decision.Reason))
	if decision.Allowed {
		m.notification.Publish(roomID, notification.EventMomentStarted, &decision)
	} else {
		m.notification.Publish(roomID, notification.EventMomentDenied, &decision)
	}
	return &decision, nil
}

// EndGroupMoment returns the stage to karaoke before the moment runs out.
func (m *Manager) EndGroupMoment(ctx context.Context, roomID string) error {
	var mode party.Mode
	_, err := m.update(ctx, roomID, func(rm *room.Room) error {
		if !rm.MomentActive(m.now()) {
			return ErrNoActiveMoment
		}
		mode = rm.ActiveMode
		rm.EndMoment()
		return nil
	})
	if err != nil {
		return err
	}

	zlog.Info().Msgf("group moment ended: room_id=%s mode=%s", roomID, mode)
	m.notification.Publish(roomID, notification.EventMomentEnded, map[string]string{"mode": mode.String()})
	return nil
}

// modeLabel keeps metric labels to the configured heavy modes and the known
// light modes.
func (m *Manager) modeLabel(mode party.Mode) string {
	if m.moments.IsHeavy(mode) || party.LightModes().Contains(mode) {
		return mode.String()
	}
	return "other"
}

func elapsedSec(startedAt *time.Time, now time.Time) int {
	if startedAt == nil {
		return 0
	}
	return int(now.Sub(*startedAt).Round(time.Second) / time.Second)
}
