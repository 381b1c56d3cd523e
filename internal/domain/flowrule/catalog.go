// Package flowrule provides named queue settings presets ("flow rules") and the
// inverse lookup from settings to the rule they match.
package flowrule

import (
	"github.com/osa030/karaokebox/internal/domain/queue"
)

// Rule IDs of the default catalog.
const (
	Balanced     = "balanced"
	FairTurns    = "fair_turns"
	RapidFire    = "rapid_fire"
	CrowdPleaser = "crowd_pleaser"
)

// Rule is an immutable catalog entry.
type Rule struct {
	ID            string         `json:"id"`
	Label         string         `json:"label"`
	Description   string         `json:"description"`
	QueueSettings queue.Settings `json:"queue_settings"`
}

// Catalog is an ordered set of rules with unique IDs.
type Catalog []Rule

// DefaultCatalog returns a fresh copy of the built-in rules.
func DefaultCatalog() Catalog {
	return Catalog{
		{
			ID:          Balanced,
			Label:       "Balanced",
			Description: "No request cap. Singers rotate and first-timers jump ahead.",
			QueueSettings: queue.Settings{
				LimitMode:      queue.LimitNone,
				LimitCount:     0,
				Rotation:       queue.RotationRoundRobin,
				FirstTimeBoost: true,
			},
		},
		{
			ID:          FairTurns,
			Label:       "Fair turns",
			Description: "Three songs per singer for the night, served in rotation.",
			QueueSettings: queue.Settings{
				LimitMode:      queue.LimitPerNight,
				LimitCount:     3,
				Rotation:       queue.RotationRoundRobin,
				FirstTimeBoost: true,
			},
		},
		{
			ID:          RapidFire,
			Label:       "Rapid fire",
			Description: "Two songs per singer per hour, served in arrival order.",
			QueueSettings: queue.Settings{
				LimitMode:      queue.LimitPerHour,
				LimitCount:     2,
				Rotation:       queue.RotationFirstCome,
				FirstTimeBoost: false,
			},
		},
		{
			ID:          CrowdPleaser,
			Label:       "Crowd pleaser",
			Description: "Nobody is turned away. Past two songs, requests wait as pending.",
			QueueSettings: queue.Settings{
				LimitMode:      queue.LimitSoft,
				LimitCount:     2,
				Rotation:       queue.RotationRoundRobin,
				FirstTimeBoost: true,
			},
		},
	}
}

// Get returns the rule with the given ID.
func (c Catalog) Get(id string) (Rule, bool) {
	for _, r := range c {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}

// Resolve returns the settings of the rule with the given ID, or the balanced
// settings when the ID is unknown.
func (c Catalog) Resolve(id string) queue.Settings {
	if r, ok := c.Get(id); ok {
		return r.QueueSettings.Normalize()
	}
	return c.fallback()
}

// Infer classifies settings into a rule ID.
// Mode and rotation signals are checked before structural equality, so settings
// that happen to equal a catalog entry field by field only match it when none of
// the shortcuts apply.
func (c Catalog) Infer(s queue.Settings) string {
	s = s.Normalize()

	if s.Rotation == queue.RotationFirstCome || s.LimitMode == queue.LimitPerHour {
		return RapidFire
	}
	if s.LimitMode == queue.LimitPerNight {
		return FairTurns
	}
	if s.LimitMode == queue.LimitNone && s.FirstTimeBoost {
		return Balanced
	}
	for _, r := range c {
		if r.QueueSettings.Normalize().Equal(s) {
			return r.ID
		}
	}
	return Balanced
}

// fallback returns the balanced entry of c, or the built-in balanced settings
// when c does not carry one.
func (c Catalog) fallback() queue.Settings {
	if r, ok := c.Get(Balanced); ok {
		return r.QueueSettings.Normalize()
	}
	return queue.DefaultSettings()
}
