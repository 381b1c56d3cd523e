package party

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordCompletedPerformance(t *testing.T) {
	start := FlowState{
		SingingMs:                  0,
		GroupMs:                    0,
		SongsSinceLastGroupMoment:  0,
		ConsecutiveNonKaraokeModes: 2,
		LastGroupMode:              "bingo",
	}

	got := RecordCompletedPerformance(start, Performance{DurationSec: 180})

	assert.Equal(t, FlowState{
		SingingMs:                  180000,
		GroupMs:                    0,
		SongsSinceLastGroupMoment:  1,
		ConsecutiveNonKaraokeModes: 0,
		LastGroupMode:              "bingo",
	}, got)
	assert.Equal(t, 2, start.ConsecutiveNonKaraokeModes, "input state must not be mutated")
}

func TestRecordCompletedPerformance_ClampsDuration(t *testing.T) {
	tests := []struct {
		name        string
		durationSec int
		expectedMs  int64
	}{
		{"too short", 5, 30000},
		{"negative", -100, 30000},
		{"lower bound", 30, 30000},
		{"upper bound", 720, 720000},
		{"too long", 86400, 720000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecordCompletedPerformance(FlowState{}, Performance{DurationSec: tt.durationSec})
			assert.Equal(t, tt.expectedMs, got.SingingMs)
		})
	}
}

func TestRecordGroupMoment(t *testing.T) {
	start := FlowState{SingingMs: 240000, SongsSinceLastGroupMoment: 3, ConsecutiveNonKaraokeModes: 0}

	got := RecordGroupMoment(start, Moment{Mode: "Dance-Off", DurationSec: 15})

	assert.Equal(t, FlowState{
		SingingMs:                  240000,
		GroupMs:                    15000,
		SongsSinceLastGroupMoment:  0,
		ConsecutiveNonKaraokeModes: 1,
		LastGroupMode:              "dance_off",
	}, got)

	assert.Equal(t, int64(1000), RecordGroupMoment(FlowState{}, Moment{Mode: Hype, DurationSec: 0}).GroupMs)
	assert.Equal(t, int64(600000), RecordGroupMoment(FlowState{}, Moment{Mode: Hype, DurationSec: 5000}).GroupMs)
}

func TestSingingSharePct(t *testing.T) {
	tests := []struct {
		name     string
		state    FlowState
		expected int
	}{
		{"no data", FlowState{}, 100},
		{"only singing", FlowState{SingingMs: 60000}, 100},
		{"only group", FlowState{GroupMs: 60000}, 0},
		{"two thirds", FlowState{SingingMs: 60000, GroupMs: 30000}, 67},
		{"rounds half up", FlowState{SingingMs: 1, GroupMs: 1}, 50},
		{"rounds 57.14 down", FlowState{SingingMs: 60000, GroupMs: 45000}, 57},
		{"negative counters treated as zero", FlowState{SingingMs: -5, GroupMs: -5}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SingingSharePct(tt.state))
		})
	}
}

func TestSingingSharePct_Monotonic(t *testing.T) {
	singing := int64(200000)
	prev := SingingSharePct(FlowState{SingingMs: singing})
	for group := int64(0); group <= 600000; group += 7000 {
		share := SingingSharePct(FlowState{SingingMs: singing, GroupMs: group})
		assert.LessOrEqual(t, share, prev, "share must not grow with group time (group=%d)", group)
		prev = share
	}
}

func TestModeSet(t *testing.T) {
	heavy := DefaultHeavyModes()
	assert.True(t, heavy.Contains(Strobe))
	assert.True(t, heavy.Contains("STROBE"))
	assert.True(t, heavy.Contains("dance-off"))
	assert.False(t, heavy.Contains(ReadyCheck))
	assert.False(t, heavy.Contains("limbo"))

	light := LightModes()
	assert.True(t, light.Contains("Crowd Poll"))
	assert.False(t, light.Contains(Bingo))
	assert.False(t, light.Contains("limbo"))

	assert.Equal(t, Karaoke, ParseMode(""))
	assert.True(t, ParseMode("  ").IsKaraoke())
	assert.False(t, Hype.IsKaraoke())
}
