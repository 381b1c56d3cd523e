// Package moment decides whether a group moment (mini-game, crowd poll, stage
// break) may interrupt the singing flow right now.
package moment

import (
	"github.com/osa030/karaokebox/internal/domain/party"
)

// Reason explains a decision. Callers should match every value.
type Reason string

const (
	ReasonOK                Reason = "ok"
	ReasonDurationLimit     Reason = "duration_limit"
	ReasonQueueGuard        Reason = "queue_guard"
	ReasonSongGapRequired   Reason = "song_gap_required"
	ReasonConsecutiveLimit  Reason = "consecutive_limit"
	ReasonKaraokeShareGuard Reason = "karaoke_share_guard"
)

// Request is a requested group moment.
type Request struct {
	Mode        party.Mode
	DurationSec int
}

// Decision is the outcome of ShouldAllow.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason"`
	// BreakDurationSec is the usable duration, never above the policy ceiling.
	BreakDurationSec int `json:"break_duration_sec"`
	// SingingSharePct is the projected share on a karaoke share denial and the
	// current share otherwise.
	SingingSharePct int        `json:"singing_share_pct"`
	Mode            party.Mode `json:"mode"`
}

// evaluation carries the inputs shared by the guards.
type evaluation struct {
	policy     party.Policy
	flow       party.FlowState
	queueDepth int
	mode       party.Mode
	requested  int // requested duration clamped into the recordable range
	usable     int // requested, capped by the policy ceiling
	currentPct int
}

func (e *evaluation) deny(reason Reason, durationSec, sharePct int) *Decision {
	return &Decision{
		Allowed:          false,
		Reason:           reason,
		BreakDurationSec: durationSec,
		SingingSharePct:  sharePct,
		Mode:             e.mode,
	}
}

// guard returns a denial, or nil to pass.
type guard func(c *Controller, e *evaluation) *Decision

// guards run in order; the first denial wins.
var guards = []guard{
	durationGuard,
	queueGuard,
	songGapGuard,
	consecutiveGuard,
	karaokeShareGuard,
}

// Controller evaluates group-moment requests against a set of heavy modes.
type Controller struct {
	heavy party.ModeSet
}

// NewController creates a controller. A nil set means party.DefaultHeavyModes.
func NewController(heavy party.ModeSet) *Controller {
	if heavy == nil {
		heavy = party.DefaultHeavyModes()
	}
	return &Controller{heavy: heavy}
}

// IsHeavy reports whether mode needs a song between uses.
func (c *Controller) IsHeavy(mode party.Mode) bool {
	return c.heavy.Contains(mode)
}

// ShouldAllow evaluates a group moment request with the default heavy modes.
func ShouldAllow(policy party.Policy, flow party.FlowState, queueDepth int, mode party.Mode, durationSec int) Decision {
	return NewController(nil).ShouldAllow(policy, flow, queueDepth, Request{Mode: mode, DurationSec: durationSec})
}

// ShouldAllow evaluates a group moment request. It never fails.
func (c *Controller) ShouldAllow(policy party.Policy, flow party.FlowState, queueDepth int, req Request) Decision {
	policy = policy.Normalize()
	flow = flow.Normalize()

	requested := party.ClampMomentSec(req.DurationSec)
	e := &evaluation{
		policy:     policy,
		flow:       flow,
		queueDepth: queueDepth,
		mode:       party.ParseMode(string(req.Mode)),
		requested:  requested,
		usable:     min(requested, policy.MaxBreakDurationSec),
		currentPct: party.SingingSharePct(flow),
	}

	for _, g := range guards {
		if d := g(c, e); d != nil {
			return *d
		}
	}

	return Decision{
		Allowed:          true,
		Reason:           ReasonOK,
		BreakDurationSec: e.usable,
		SingingSharePct:  e.currentPct,
		Mode:             e.mode,
	}
}

func durationGuard(_ *Controller, e *evaluation) *Decision {
	if e.requested > e.policy.MaxBreakDurationSec {
		return e.deny(ReasonDurationLimit, e.policy.MaxBreakDurationSec, e.currentPct)
	}
	return nil
}

func queueGuard(_ *Controller, e *evaluation) *Decision {
	if e.queueDepth >= e.policy.QueueDepthGuardThreshold {
		return e.deny(ReasonQueueGuard, e.usable, e.currentPct)
	}
	return nil
}

func songGapGuard(c *Controller, e *evaluation) *Decision {
	if c.IsHeavy(e.mode) && e.flow.SongsSinceLastGroupMoment < 1 {
		return e.deny(ReasonSongGapRequired, e.usable, e.currentPct)
	}
	return nil
}

func consecutiveGuard(_ *Controller, e *evaluation) *Decision {
	if e.flow.ConsecutiveNonKaraokeModes >= e.policy.MaxConsecutiveNonKaraokeModes {
		return e.deny(ReasonConsecutiveLimit, e.usable, e.currentPct)
	}
	return nil
}

func karaokeShareGuard(_ *Controller, e *evaluation) *Decision {
	if !e.policy.KaraokeFirst {
		return nil
	}
	projectedGroupMs := e.flow.GroupMs + int64(e.usable)*1000
	projected := party.SharePct(e.flow.SingingMs, projectedGroupMs)
	if projected < e.policy.MinSingingSharePct {
		return e.deny(ReasonKaraokeShareGuard, e.usable, projected)
	}
	return nil
}
