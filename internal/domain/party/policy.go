// Package party provides the group-moment policy, the session flow counters that
// balance singing against group moments, and the group-moment mode tags.
package party

import (
	"github.com/osa030/karaokebox/internal/pkg/rawmap"
)

// Policy bounds.
const (
	MinSingingSharePctFloor   = 50
	MinSingingSharePctCeiling = 95
	MaxBreakDurationFloor     = 3
	MaxBreakDurationCeiling   = 120
	MaxConsecutiveFloor       = 1
	MaxConsecutiveCeiling     = 4
	QueueDepthGuardFloor      = 1
	QueueDepthGuardCeiling    = 30
)

// Policy governs when a group moment may interrupt the singing flow.
type Policy struct {
	// KaraokeFirst enforces the projected singing share before a moment is allowed.
	KaraokeFirst bool `json:"karaoke_first" yaml:"karaoke_first"`
	// MinSingingSharePct is the share of elapsed time that must remain singing.
	MinSingingSharePct int `json:"min_singing_share_pct" yaml:"min_singing_share_pct"`
	// MaxBreakDurationSec caps a single group moment.
	MaxBreakDurationSec int `json:"max_break_duration_sec" yaml:"max_break_duration_sec"`
	// MaxConsecutiveNonKaraokeModes is how many moments may run back to back.
	MaxConsecutiveNonKaraokeModes int `json:"max_consecutive_non_karaoke_modes" yaml:"max_consecutive_non_karaoke_modes"`
	// QueueDepthGuardThreshold suppresses moments once this many songs are waiting.
	QueueDepthGuardThreshold int `json:"queue_depth_guard_threshold" yaml:"queue_depth_guard_threshold"`
}

// DefaultPolicy returns the policy used for missing fields.
func DefaultPolicy() Policy {
	return Policy{
		KaraokeFirst:                  true,
		MinSingingSharePct:            70,
		MaxBreakDurationSec:           20,
		MaxConsecutiveNonKaraokeModes: 1,
		QueueDepthGuardThreshold:      8,
	}
}

// RawPolicy is an unvalidated policy. Nil pointers mean "not provided".
type RawPolicy struct {
	KaraokeFirst                  *bool `mapstructure:"karaoke_first"`
	MinSingingSharePct            *int  `mapstructure:"min_singing_share_pct"`
	MaxBreakDurationSec           *int  `mapstructure:"max_break_duration_sec"`
	MaxConsecutiveNonKaraokeModes *int  `mapstructure:"max_consecutive_non_karaoke_modes"`
	QueueDepthGuardThreshold      *int  `mapstructure:"queue_depth_guard_threshold"`
}

// Raw converts the policy back to raw form.
func (p Policy) Raw() RawPolicy {
	karaokeFirst := p.KaraokeFirst
	share := p.MinSingingSharePct
	maxBreak := p.MaxBreakDurationSec
	consecutive := p.MaxConsecutiveNonKaraokeModes
	guard := p.QueueDepthGuardThreshold
	return RawPolicy{
		KaraokeFirst:                  &karaokeFirst,
		MinSingingSharePct:            &share,
		MaxBreakDurationSec:           &maxBreak,
		MaxConsecutiveNonKaraokeModes: &consecutive,
		QueueDepthGuardThreshold:      &guard,
	}
}

// Normalize returns p with every field clamped into its bounds.
func (p Policy) Normalize() Policy {
	return NormalizePolicy(p.Raw())
}

// NormalizePolicy builds a valid policy from raw input. Missing fields take their
// defaults and present fields are clamped into their bounds. It never fails.
func NormalizePolicy(raw RawPolicy) Policy {
	p := DefaultPolicy()
	if raw.KaraokeFirst != nil {
		p.KaraokeFirst = *raw.KaraokeFirst
	}
	p.MinSingingSharePct = clampOr(raw.MinSingingSharePct, p.MinSingingSharePct, MinSingingSharePctFloor, MinSingingSharePctCeiling)
	p.MaxBreakDurationSec = clampOr(raw.MaxBreakDurationSec, p.MaxBreakDurationSec, MaxBreakDurationFloor, MaxBreakDurationCeiling)
	p.MaxConsecutiveNonKaraokeModes = clampOr(raw.MaxConsecutiveNonKaraokeModes, p.MaxConsecutiveNonKaraokeModes, MaxConsecutiveFloor, MaxConsecutiveCeiling)
	p.QueueDepthGuardThreshold = clampOr(raw.QueueDepthGuardThreshold, p.QueueDepthGuardThreshold, QueueDepthGuardFloor, QueueDepthGuardCeiling)
	return p
}

// PolicyFromMap normalizes a loosely typed policy map.
func PolicyFromMap(m map[string]any) Policy {
	return MergePolicy(DefaultPolicy(), m)
}

// MergePolicy overlays the fields present in m onto base and normalizes the result.
func MergePolicy(base Policy, m map[string]any) Policy {
	raw := base.Raw()
	_ = rawmap.Decode(m, &raw)
	return NormalizePolicy(raw)
}

func clampOr(v *int, fallback, lo, hi int) int {
	if v == nil {
		return fallback
	}
	return clamp(*v, lo, hi)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
