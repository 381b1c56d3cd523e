// Package queue provides the song queue settings that govern request admission
// and serving order, and their normalization.
package queue

import (
	"strings"

	"github.com/osa030/karaokebox/internal/pkg/rawmap"
)

// LimitMode selects how a singer's request count is limited.
type LimitMode string

const (
	LimitNone     LimitMode = "none"      // Unlimited
	LimitPerNight LimitMode = "per_night" // N requests per room
	LimitPerHour  LimitMode = "per_hour"  // N requests in the trailing hour
	LimitSoft     LimitMode = "soft"      // Never rejects; over-limit requests are queued as pending
)

// ParseLimitMode parses a limit mode tag. ok is false for unknown tags.
func ParseLimitMode(s string) (LimitMode, bool) {
	switch m := LimitMode(canonicalTag(s)); m {
	case LimitNone, LimitPerNight, LimitPerHour, LimitSoft:
		return m, true
	default:
		return LimitNone, false
	}
}

// Rotation is the ordering discipline applied to the live queue.
type Rotation string

const (
	RotationRoundRobin Rotation = "round_robin"
	RotationFirstCome  Rotation = "first_come"
)

// ParseRotation parses a rotation tag. ok is false for unknown tags.
func ParseRotation(s string) (Rotation, bool) {
	switch r := Rotation(canonicalTag(s)); r {
	case RotationRoundRobin, RotationFirstCome:
		return r, true
	default:
		return RotationRoundRobin, false
	}
}

// Settings holds the four knobs that govern song request admission and ordering.
type Settings struct {
	LimitMode      LimitMode `json:"limit_mode" yaml:"limit_mode"`
	LimitCount     int       `json:"limit_count" yaml:"limit_count"`
	Rotation       Rotation  `json:"rotation" yaml:"rotation"`
	FirstTimeBoost bool      `json:"first_time_boost" yaml:"first_time_boost"`
}

// DefaultSettings returns the settings used for missing or invalid fields.
func DefaultSettings() Settings {
	return Settings{
		LimitMode:      LimitNone,
		LimitCount:     0,
		Rotation:       RotationRoundRobin,
		FirstTimeBoost: true,
	}
}

// IsUnlimited reports whether no request limit applies.
func (s Settings) IsUnlimited() bool {
	return s.LimitMode == LimitNone || s.LimitCount <= 0
}

// Equal compares two settings field by field.
func (s Settings) Equal(o Settings) bool {
	return s.LimitMode == o.LimitMode &&
		s.LimitCount == o.LimitCount &&
		s.Rotation == o.Rotation &&
		s.FirstTimeBoost == o.FirstTimeBoost
}

// Raw is an unvalidated settings value. Nil pointers mean "not provided".
type Raw struct {
	LimitMode      string `mapstructure:"limit_mode"`
	LimitCount     *int   `mapstructure:"limit_count"`
	Rotation       string `mapstructure:"rotation"`
	FirstTimeBoost *bool  `mapstructure:"first_time_boost"`
}

// Raw converts settings back to raw form.
func (s Settings) Raw() Raw {
	count := s.LimitCount
	boost := s.FirstTimeBoost
	return Raw{
		LimitMode:      string(s.LimitMode),
		LimitCount:     &count,
		Rotation:       string(s.Rotation),
		FirstTimeBoost: &boost,
	}
}

// Normalize returns s with every field made valid.
func (s Settings) Normalize() Settings {
	return Normalize(s.Raw())
}

// Normalize builds valid settings from raw input. It never fails: unknown enum tags
// and missing fields take their defaults, negative counts clamp to zero.
func Normalize(raw Raw) Settings {
	s := DefaultSettings()
	if m, ok := ParseLimitMode(raw.LimitMode); ok {
		s.LimitMode = m
	}
	if raw.LimitCount != nil && *raw.LimitCount > 0 {
		s.LimitCount = *raw.LimitCount
	}
	if r, ok := ParseRotation(raw.Rotation); ok {
		s.Rotation = r
	}
	if raw.FirstTimeBoost != nil {
		s.FirstTimeBoost = *raw.FirstTimeBoost
	}
	return s
}

// FromMap normalizes a loosely typed settings map such as a preset bundle or a
// JSON request body. Fields that fail to decode take their defaults.
func FromMap(m map[string]any) Settings {
	return Merge(DefaultSettings(), m)
}

// Merge overlays the fields present in m onto base and normalizes the result.
// A present but invalid field falls back to its default, not to base.
func Merge(base Settings, m map[string]any) Settings {
	raw := base.Raw()
	// Partially decoded input is still usable; bad fields keep their base value.
	_ = rawmap.Decode(m, &raw)
	return Normalize(raw)
}

func canonicalTag(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}
