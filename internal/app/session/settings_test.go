package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/karaokebox/internal/app/notification"
	"github.com/osa030/karaokebox/internal/domain/queue"
	"github.com/osa030/karaokebox/internal/domain/room"
)

func TestManager_ApplyFlowRule(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	rm := h.room(t, "")

	got, err := h.m.ApplyFlowRule(ctx, rm.ID, "fair_turns")
	require.NoError(t, err)
	assert.Equal(t, "fair_turns", got.FlowRuleID)
	assert.Equal(t, queue.LimitPerNight, got.Settings.LimitMode)
	assert.Equal(t, 3, got.Settings.LimitCount)

	_, err = h.m.ApplyFlowRule(ctx, rm.ID, "chaos")
	assert.ErrorIs(t, err, ErrUnknownFlowRule)

	_, err = h.m.ApplyFlowRule(ctx, "missing", "fair_turns")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestManager_UpdateQueueSettings(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	rm := h.room(t, "")

	got, err := h.m.UpdateQueueSettings(ctx, rm.ID, map[string]any{"limit_mode": "Per-Night", "limit_count": 3})
	require.NoError(t, err)
	assert.Equal(t, "fair_turns", got.FlowRuleID, "settings matching a rule take its ID")

	got, err = h.m.UpdateQueueSettings(ctx, rm.ID, map[string]any{"limit_count": 5})
	require.NoError(t, err)
	assert.Equal(t, queue.LimitPerNight, got.Settings.LimitMode, "absent fields keep their value")
	assert.Equal(t, 5, got.Settings.LimitCount)

	got, err = h.m.UpdateQueueSettings(ctx, rm.ID, map[string]any{"rotation": "lottery"})
	require.NoError(t, err)
	assert.Equal(t, queue.RotationRoundRobin, got.Settings.Rotation, "invalid fields fall back to defaults")
}

func TestManager_UpdatePolicy(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	rm := h.room(t, "")

	got, err := h.m.UpdatePolicy(ctx, rm.ID, map[string]any{"min_singing_share_pct": 10, "max_break_duration_sec": 45})
	require.NoError(t, err)
	assert.Equal(t, 50, got.Policy.MinSingingSharePct)
	assert.Equal(t, 45, got.Policy.MaxBreakDurationSec)
	assert.True(t, got.Policy.KaraokeFirst)
}

func TestManager_ApplyPreset(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	rm := h.room(t, "")

	stream := notification.NewChannelStream(4)
	h.m.GetNotificationManager().Subscribe(rm.ID, stream)

	got, err := h.m.ApplyPreset(ctx, rm.ID, "office_party")
	require.NoError(t, err)
	assert.Equal(t, queue.LimitSoft, got.Settings.LimitMode)
	assert.Equal(t, 2, got.Settings.LimitCount)
	assert.Equal(t, "crowd_pleaser", got.FlowRuleID)
	assert.False(t, got.Policy.KaraokeFirst)
	assert.Equal(t, 90, got.Policy.MaxBreakDurationSec)
	assert.Equal(t, 8, got.Policy.QueueDepthGuardThreshold, "policy fields the preset omits are kept")

	require.Len(t, stream.Events(), 1)
	e := <-stream.Events()
	assert.Equal(t, notification.EventSettingsChanged, e.Type)
	change, ok := e.Payload.(*SettingsChange)
	require.True(t, ok)
	assert.Equal(t, "crowd_pleaser", change.FlowRuleID)

	_, err = h.m.ApplyPreset(ctx, rm.ID, "wedding")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestManager_CloseReopen(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	rm := h.room(t, "")
	mia := h.join(t, rm.ID, "Mia")
	h.request(t, rm.ID, mia, "Toxic")

	stream := notification.NewChannelStream(4)
	h.m.GetNotificationManager().Subscribe(rm.ID, stream)

	got, err := h.m.Close(ctx, rm.ID)
	require.NoError(t, err)
	assert.Equal(t, room.PhaseClosed, got.Phase)
	_, err = h.m.Close(ctx, rm.ID)
	require.NoError(t, err)
	assert.Len(t, stream.Events(), 1, "closing twice announces once")

	_, err = h.m.StartNext(ctx, rm.ID)
	assert.NoError(t, err, "a closed room still sings through its queue")

	assert.Equal(t, 1, h.roomGauges(t, rm.ID), "gauges stay while a song is on stage")

	_, err = h.m.CompletePerformance(ctx, rm.ID, 180)
	require.NoError(t, err)
	assert.Equal(t, 0, h.roomGauges(t, rm.ID), "a finished closed room drops its gauges")

	got, err = h.m.Reopen(ctx, rm.ID)
	require.NoError(t, err)
	assert.True(t, got.IsOpen())
	assert.Equal(t, 1, h.roomGauges(t, rm.ID))
}
