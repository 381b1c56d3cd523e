package party

import "math"

// Duration bounds applied when recording events.
const (
	MinPerformanceSec = 30
	MaxPerformanceSec = 720
	MinMomentSec      = 1
	MaxMomentSec      = 600
)

// FlowState holds the session counters. Zero value is the state at session start.
type FlowState struct {
	SingingMs                  int64  `json:"singing_ms"`
	GroupMs                    int64  `json:"group_ms"`
	SongsSinceLastGroupMoment  int    `json:"songs_since_last_group_moment"`
	ConsecutiveNonKaraokeModes int    `json:"consecutive_non_karaoke_modes"`
	LastGroupMode              string `json:"last_group_mode"`
}

// Performance is a completed song.
type Performance struct {
	DurationSec int
}

// Moment is a group moment that ran.
type Moment struct {
	Mode        Mode
	DurationSec int
}

// Normalize clamps negative counters to zero.
func (s FlowState) Normalize() FlowState {
	s.SingingMs = max(s.SingingMs, 0)
	s.GroupMs = max(s.GroupMs, 0)
	s.SongsSinceLastGroupMoment = max(s.SongsSinceLastGroupMoment, 0)
	s.ConsecutiveNonKaraokeModes = max(s.ConsecutiveNonKaraokeModes, 0)
	return s
}

// RecordCompletedPerformance adds a finished song to the counters.
// The duration is clamped so a bad value cannot skew the singing share.
func RecordCompletedPerformance(s FlowState, p Performance) FlowState {
	s = s.Normalize()
	sec := ClampPerformanceSec(p.DurationSec)
	s.SingingMs += int64(sec) * 1000
	s.SongsSinceLastGroupMoment++
	s.ConsecutiveNonKaraokeModes = 0
	return s
}

// RecordGroupMoment adds a group moment to the counters.
func RecordGroupMoment(s FlowState, m Moment) FlowState {
	s = s.Normalize()
	sec := ClampMomentSec(m.DurationSec)
	s.GroupMs += int64(sec) * 1000
	s.ConsecutiveNonKaraokeModes++
	s.SongsSinceLastGroupMoment = 0
	s.LastGroupMode = ParseMode(string(m.Mode)).String()
	return s
}

// SingingSharePct returns the rounded percentage of elapsed time spent singing.
// With no recorded time the room is treated as fully karaoke.
func SingingSharePct(s FlowState) int {
	s = s.Normalize()
	return SharePct(s.SingingMs, s.GroupMs)
}

// SharePct returns round(singing / (singing+group) * 100), or 100 when both are zero.
func SharePct(singingMs, groupMs int64) int {
	total := singingMs + groupMs
	if total <= 0 {
		return 100
	}
	return int(math.Floor(float64(singingMs)/float64(total)*100 + 0.5))
}

// ClampPerformanceSec clamps a song duration into the recordable range.
func ClampPerformanceSec(sec int) int {
	return clamp(sec, MinPerformanceSec, MaxPerformanceSec)
}

// ClampMomentSec clamps a group moment duration into the recordable range.
func ClampMomentSec(sec int) int {
	return clamp(sec, MinMomentSec, MaxMomentSec)
}
