package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/karaokebox/internal/app/advisor"
	"github.com/osa030/karaokebox/internal/app/filter"
	"github.com/osa030/karaokebox/internal/app/moment"
	"github.com/osa030/karaokebox/internal/domain/party"
	"github.com/osa030/karaokebox/internal/domain/request"
	"github.com/osa030/karaokebox/internal/domain/room"
)

// sing queues a song for singerID, performs it and credits durationSec.
func (h *harness) sing(t *testing.T, roomID, singerID, title string, durationSec int) {
	t.Helper()
	ctx := context.Background()
	require.True(t, h.request(t, roomID, singerID, title).Accepted)
	_, err := h.m.StartNext(ctx, roomID)
	require.NoError(t, err)
	_, err = h.m.CompletePerformance(ctx, roomID, durationSec)
	require.NoError(t, err)
}

func TestManager_StartNext_ServingOrder(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	rm := h.room(t, "")
	mia := h.join(t, rm.ID, "Mia")
	ren := h.join(t, rm.ID, "Ren")

	_, err := h.m.StartNext(ctx, rm.ID)
	assert.ErrorIs(t, err, ErrNothingQueued)

	h.request(t, rm.ID, mia, "Toxic")
	h.clock.Advance(time.Minute)
	h.request(t, rm.ID, mia, "Valerie")
	h.clock.Advance(30 * time.Second)
	h.request(t, rm.ID, ren, "Zombie")

	var sung []string
	for i := 0; i < 3; i++ {
		started, err := h.m.StartNext(ctx, rm.ID)
		require.NoError(t, err)
		assert.Equal(t, request.StatusPerforming, started.Status)
		require.NotNil(t, started.StartedAt)

		_, err = h.m.StartNext(ctx, rm.ID)
		assert.ErrorIs(t, err, ErrStageBusy)

		_, err = h.m.CompletePerformance(ctx, rm.ID, 200)
		require.NoError(t, err)
		sung = append(sung, started.Title)
	}
	assert.Equal(t, []string{"Toxic", "Zombie", "Valerie"}, sung)

	_, err = h.m.CompletePerformance(ctx, rm.ID, 200)
	assert.ErrorIs(t, err, ErrNotPerforming)
}

func TestManager_CompletePerformance(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	rm := h.room(t, "")
	mia := h.join(t, rm.ID, "Mia")

	h.request(t, rm.ID, mia, "Toxic")
	_, err := h.m.StartNext(ctx, rm.ID)
	require.NoError(t, err)
	h.clock.Advance(200*time.Second + 400*time.Millisecond)

	p, err := h.m.CompletePerformance(ctx, rm.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 200, p.CreditedSec, "zero duration credits the elapsed time")
	assert.Equal(t, request.StatusPerformed, p.Request.Status)

	h.request(t, rm.ID, mia, "Valerie")
	_, err = h.m.StartNext(ctx, rm.ID)
	require.NoError(t, err)
	p, err = h.m.CompletePerformance(ctx, rm.ID, 5000)
	require.NoError(t, err)
	assert.Equal(t, party.MaxPerformanceSec, p.CreditedSec)

	out, err := h.m.RequestSong(ctx, rm.ID, filter.Submission{SingerID: mia, Title: "Zombie", DurationSec: 180})
	require.NoError(t, err)
	require.True(t, out.Accepted)
	_, err = h.m.StartNext(ctx, rm.ID)
	require.NoError(t, err)
	h.clock.Advance(600 * time.Second)
	p, err = h.m.CompletePerformance(ctx, rm.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 180, p.CreditedSec, "elapsed time is capped at the song length")

	got, err := h.m.GetRoom(ctx, rm.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200+party.MaxPerformanceSec+180)*1000, got.Flow.SingingMs)
	assert.Equal(t, 3, got.Flow.SongsSinceLastGroupMoment)
	assert.Empty(t, got.CurrentRequestID)
}

func TestManager_GroupMoments(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	rm := h.room(t, "")
	mia := h.join(t, rm.ID, "Mia")

	hype := moment.Request{Mode: party.Hype, DurationSec: 20}

	d, err := h.m.TriggerGroupMoment(ctx, rm.ID, hype)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, moment.ReasonKaraokeShareGuard, d.Reason)
	assert.Equal(t, 0, d.SingingSharePct)

	h.sing(t, rm.ID, mia, "Toxic", 180)

	d, err = h.m.TriggerGroupMoment(ctx, rm.ID, moment.Request{Mode: party.Hype, DurationSec: 60})
	require.NoError(t, err)
	assert.Equal(t, moment.ReasonDurationLimit, d.Reason)
	assert.Equal(t, 20, d.BreakDurationSec)

	d, err = h.m.TriggerGroupMoment(ctx, rm.ID, hype)
	require.NoError(t, err)
	require.True(t, d.Allowed)
	assert.Equal(t, moment.ReasonOK, d.Reason)

	got, err := h.m.GetRoom(ctx, rm.ID)
	require.NoError(t, err)
	assert.Equal(t, party.Hype, got.ActiveMode)
	assert.Equal(t, int64(20_000), got.Flow.GroupMs)

	h.request(t, rm.ID, mia, "Valerie")
	_, err = h.m.StartNext(ctx, rm.ID)
	assert.ErrorIs(t, err, ErrMomentActive)
	_, err = h.m.TriggerGroupMoment(ctx, rm.ID, hype)
	assert.ErrorIs(t, err, ErrMomentActive)

	action, err := h.m.Recommend(ctx, rm.ID)
	require.NoError(t, err)
	assert.Equal(t, advisor.ActionHypeMoment, action.ID)
	assert.Equal(t, advisor.StatusLive, action.Status)

	require.NoError(t, h.m.EndGroupMoment(ctx, rm.ID))
	assert.ErrorIs(t, h.m.EndGroupMoment(ctx, rm.ID), ErrNoActiveMoment)

	d, err = h.m.TriggerGroupMoment(ctx, rm.ID, moment.Request{Mode: party.Bingo, DurationSec: 20})
	require.NoError(t, err)
	assert.Equal(t, moment.ReasonSongGapRequired, d.Reason)

	d, err = h.m.TriggerGroupMoment(ctx, rm.ID, hype)
	require.NoError(t, err)
	assert.Equal(t, moment.ReasonConsecutiveLimit, d.Reason)

	_, err = h.m.StartNext(ctx, rm.ID)
	require.NoError(t, err)
	_, err = h.m.TriggerGroupMoment(ctx, rm.ID, hype)
	assert.ErrorIs(t, err, ErrStageBusy)
}

func TestManager_GroupMoments_Expire(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	rm := h.room(t, "")
	mia := h.join(t, rm.ID, "Mia")
	h.sing(t, rm.ID, mia, "Toxic", 180)

	d, err := h.m.TriggerGroupMoment(ctx, rm.ID, moment.Request{Mode: party.ReadyCheck, DurationSec: 10})
	require.NoError(t, err)
	require.True(t, d.Allowed)

	st, err := h.m.Status(ctx, rm.ID)
	require.NoError(t, err)
	assert.True(t, st.Room.ReadyCheckActive)
	assert.Equal(t, advisor.ActionReadyCheckLive, st.Recommendation.ID)

	h.clock.Advance(11 * time.Second)

	st, err = h.m.Status(ctx, rm.ID)
	require.NoError(t, err)
	assert.False(t, st.Room.ReadyCheckActive)
	assert.Equal(t, party.Karaoke, st.Room.ActiveMode)
	assert.Equal(t, advisor.ActionCrowdCheck, st.Recommendation.ID)
	assert.Equal(t, 95, st.SingingSharePct)

	assert.ErrorIs(t, h.m.EndGroupMoment(ctx, rm.ID), ErrNoActiveMoment)
}

func TestManager_Recommend(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	rm := h.room(t, "")
	mia := h.join(t, rm.ID, "Mia")

	action, err := h.m.Recommend(ctx, rm.ID)
	require.NoError(t, err)
	assert.Equal(t, advisor.ActionCrowdCheck, action.ID)

	h.request(t, rm.ID, mia, "Toxic")
	h.request(t, rm.ID, mia, "Valerie")
	action, err = h.m.Recommend(ctx, rm.ID)
	require.NoError(t, err)
	assert.Equal(t, advisor.ActionStartNext, action.ID)

	_, err = h.m.StartNext(ctx, rm.ID)
	require.NoError(t, err)
	action, err = h.m.Recommend(ctx, rm.ID)
	require.NoError(t, err)
	assert.Equal(t, advisor.ActionHypeMoment, action.ID)
	assert.Contains(t, action.Reason, "Mia")

	_, err = h.m.SetPendingModeration(ctx, rm.ID, 2)
	require.NoError(t, err)
	action, err = h.m.Recommend(ctx, rm.ID)
	require.NoError(t, err)
	assert.Equal(t, advisor.ActionReviewModeration, action.ID)

	rmAfter, err := h.m.SetPendingModeration(ctx, rm.ID, -4)
	require.NoError(t, err)
	assert.Equal(t, 0, rmAfter.PendingModeration)
}

func TestManager_Recommend_SingerUnknown(t *testing.T) {
	h := newHarness(t)
	rm := &room.Room{
		ID:               "r1",
		ActiveMode:       party.Karaoke,
		CurrentRequestID: "q1",
		Requests: []*request.SongRequest{
			{ID: "q1", SingerID: "gone", Title: "Toxic", Status: request.StatusPerforming},
			{ID: "q2", SingerID: "gone", Title: "Valerie", Status: request.StatusRequested},
		},
	}

	action := h.m.recommend(rm)
	assert.Equal(t, advisor.ActionHypeMoment, action.ID)
	assert.Equal(t, advisor.StatusReady, action.Status)
}

func TestManager_TriggerGroupMoment_ModeLabels(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	rm := h.room(t, "")

	for _, mode := range []party.Mode{party.Bingo, party.Hype, "glitter_cannon", "confetti_42"} {
		_, err := h.m.TriggerGroupMoment(ctx, rm.ID, moment.Request{Mode: mode, DurationSec: 10})
		require.NoError(t, err)
	}

	assert.ElementsMatch(t, []string{"bingo", "hype", "other"}, h.momentModes(t))
}
