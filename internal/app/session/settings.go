package session

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/karaokebox/internal/app/notification"
	"github.com/osa030/karaokebox/internal/domain/party"
	"github.com/osa030/karaokebox/internal/domain/queue"
	"github.com/osa030/karaokebox/internal/domain/room"
)

// SettingsChange is broadcast when a room's queue settings or policy change.
type SettingsChange struct {
	FlowRuleID    string         `json:"flow_rule_id"`
	QueueSettings queue.Settings `json:"queue_settings"`
	Policy        party.Policy   `json:"party_policy"`
}

func settingsChange(rm *room.Room) *SettingsChange {
	return &SettingsChange{FlowRuleID: rm.FlowRuleID, QueueSettings: rm.Settings, Policy: rm.Policy}
}

// ApplyFlowRule replaces the room's queue settings with a catalog rule.
func (m *Manager) ApplyFlowRule(ctx context.Context, roomID, ruleID string) (*room.Room, error) {
	rule, ok := m.catalog.Get(ruleID)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownFlowRule, "flow rule %q", ruleID)
	}
	return m.changeSettings(ctx, roomID, "flow rule applied", func(rm *room.Room) error {
		rm.Settings = rule.QueueSettings
		rm.FlowRuleID = rule.ID
		return nil
	})
}

// ApplyPreset applies a configured event archetype: its queue settings and, when
// the bundle has one, its party policy.
func (m *Manager) ApplyPreset(ctx context.Context, roomID, archetype string) (*room.Room, error) {
	presets := m.config.FlowPresets()
	settings, ruleID, ok := m.catalog.FromPreset(presets, archetype)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownPreset, "preset %q", archetype)
	}
	policyOverrides, hasPolicy := presets.Section(archetype, "party_policy")

	return m.changeSettings(ctx, roomID, "preset applied: preset="+archetype, func(rm *room.Room) error {
		rm.Settings = settings
		rm.FlowRuleID = ruleID
		if hasPolicy {
			rm.Policy = party.MergePolicy(rm.Policy, policyOverrides)
		}
		return nil
	})
}

// UpdateQueueSettings overlays raw queue settings onto the room's and infers the
// matching flow rule.
func (m *Manager) UpdateQueueSettings(ctx context.Context, roomID string, raw map[string]any) (*room.Room, error) {
	return m.changeSettings(ctx, roomID, "queue settings updated", func(rm *room.Room) error {
		rm.Settings = queue.Merge(rm.Settings, raw)
		rm.FlowRuleID = m.catalog.Infer(rm.Settings)
		return nil
	})
}

// UpdatePolicy overlays raw policy fields onto the room's party policy.
func (m *Manager) UpdatePolicy(ctx context.Context, roomID string, raw map[string]any) (*room.Room, error) {
	return m.changeSettings(ctx, roomID, "party policy updated", func(rm *room.Room) error {
		rm.Policy = party.MergePolicy(rm.Policy, raw)
		return nil
	})
}

func (m *Manager) changeSettings(ctx context.Context, roomID, what string, fn func(rm *room.Room) error) (*room.Room, error) {
	rm, err := m.update(ctx, roomID, fn)
	if err != nil {
		return nil, err
	}
	zlog.Info().Msgf("%s: room_id=%s flow_rule=%s settings=%+v policy=%+v", what, roomID, rm.FlowRuleID, rm.Settings, rm.Policy)
	m.notification.Publish(roomID, notification.EventSettingsChanged, settingsChange(rm))
	return rm, nil
}

// SetPendingModeration records how many items await the host's review.
func (m *Manager) SetPendingModeration(ctx context.Context, roomID string, count int) (*room.Room, error) {
	return m.update(ctx, roomID, func(rm *room.Room) error {
		rm.PendingModeration = max(count, 0)
		return nil
	})
}

// Close stops the room from taking requests. The queue can still be sung through.
func (m *Manager) Close(ctx context.Context, roomID string) (*room.Room, error) {
	return m.setPhase(ctx, roomID, room.PhaseClosed)
}

// Reopen lets the room take requests again.
func (m *Manager) Reopen(ctx context.Context, roomID string) (*room.Room, error) {
	return m.setPhase(ctx, roomID, room.PhaseOpen)
}

func (m *Manager) setPhase(ctx context.Context, roomID string, phase room.Phase) (*room.Room, error) {
	changed := false
	rm, err := m.update(ctx, roomID, func(rm *room.Room) error {
		changed = rm.Phase != phase
		rm.Phase = phase
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		zlog.Info().Msgf("phase changed: room_id=%s phase=%s", roomID, phase)
		m.notification.Publish(roomID, notification.EventPhaseChanged, phasePayload(rm))
	}
	return rm, nil
}
