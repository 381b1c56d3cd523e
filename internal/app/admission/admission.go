// Package admission decides whether a singer's song request is accepted and
// computes the priority score that orders the live queue.
package admission

import (
	"time"

	"github.com/osa030/karaokebox/internal/domain/queue"
	"github.com/osa030/karaokebox/internal/domain/request"
)

// CodeRequestLimit is the rejection code for a request over the singer's limit.
const CodeRequestLimit = "request_limit"

const (
	// HourWindow is the trailing window counted by the per_hour limit.
	HourWindow = time.Hour
	// QueuedPenaltyMs is added per song the singer already has waiting (round robin).
	QueuedPenaltyMs int64 = 60_000
	// FirstTimeBoostMs is subtracted for a singer who has not performed yet.
	FirstTimeBoostMs int64 = 120_000
)

// Decision is the outcome of Evaluate.
type Decision struct {
	Accepted          bool
	Code              string // CodeRequestLimit when rejected
	PriorityScore     int64  // Smaller is served sooner; zero when rejected
	EnforcedAsPending bool   // Accepted over a soft limit

	TotalCount  int // Singer's requests in the room
	HourCount   int // Singer's requests in the trailing hour
	QueuedCount int // Singer's requests waiting in the queue
}

// Status returns the status a request admitted with this decision starts in.
func (d Decision) Status() request.Status {
	if d.EnforcedAsPending {
		return request.StatusPending
	}
	return request.StatusRequested
}

// Evaluate decides on a new request from a singer whose own prior requests in the
// room are history. It never fails; unknown limit modes do not block.
func Evaluate(settings queue.Settings, history []request.SongRequest, now time.Time) Decision {
	d := Decision{TotalCount: len(history)}
	performed := 0
	windowStart := now.Add(-HourWindow)
	for i := range history {
		h := &history[i]
		if h.SubmittedAt.After(windowStart) {
			d.HourCount++
		}
		if h.Status.IsLive() {
			d.QueuedCount++
		}
		if h.Status == request.StatusPerformed {
			performed++
		}
	}

	if settings.LimitMode != queue.LimitNone && settings.LimitCount > 0 {
		exceeded := false
		switch settings.LimitMode {
		case queue.LimitPerNight:
			exceeded = d.TotalCount >= settings.LimitCount
		case queue.LimitPerHour:
			exceeded = d.HourCount >= settings.LimitCount
		case queue.LimitSoft:
			d.EnforcedAsPending = d.TotalCount >= settings.LimitCount
		}
		if exceeded {
			d.Code = CodeRequestLimit
			return d
		}
	}

	d.Accepted = true
	d.PriorityScore = priorityScore(settings, d.QueuedCount, performed, now)
	return d
}

func priorityScore(settings queue.Settings, queued, performed int, now time.Time) int64 {
	score := now.UnixMilli()
	if settings.Rotation == queue.RotationRoundRobin {
		score += int64(queued) * QueuedPenaltyMs
	}
	if settings.FirstTimeBoost && performed == 0 {
		score -= FirstTimeBoostMs
	}
	return score
}
