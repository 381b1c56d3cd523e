// Package advisor recommends the host's next action from aggregate room state.
package advisor

import (
	"fmt"

	"github.com/osa030/karaokebox/internal/domain/party"
)

// Action IDs.
const (
	ActionReviewModeration = "review_moderation"
	ActionReadyCheckLive   = "ready_check_live"
	ActionHypeMoment       = "hype_moment"
	ActionStartNext        = "start_next"
	ActionCrowdCheck       = "crowd_check"
)

// Status tells the host display how to present an action.
type Status string

const (
	StatusNeedsAttention Status = "needs_attention"
	StatusLive           Status = "live"
	StatusReady          Status = "ready"
)

// Input is the room state the advisor looks at.
type Input struct {
	PendingModerationCount int
	ReadyCheckActive       bool
	ActiveMode             party.Mode
	QueueLength            int
	// OnStage is set while a song is being performed.
	OnStage bool
	// CurrentSinger is the display name of whoever is on stage. Reason text only.
	CurrentSinger string
}

// Action is a recommended next step. Reason is display text only.
type Action struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Reason string `json:"reason"`
	Status Status `json:"status"`
}

type rule struct {
	match  func(in Input) bool
	action func(in Input) Action
}

// rules are evaluated top to bottom; the first match wins.
var rules = []rule{
	{
		match: func(in Input) bool { return in.PendingModerationCount > 0 },
		action: func(in Input) Action {
			return Action{
				ID:     ActionReviewModeration,
				Label:  "Review moderation",
				Reason: fmt.Sprintf("%d %s waiting for review", in.PendingModerationCount, plural(in.PendingModerationCount, "item", "items")),
				Status: StatusNeedsAttention,
			}
		},
	},
	{
		match: func(in Input) bool { return in.ReadyCheckActive },
		action: func(in Input) Action {
			return Action{
				ID:     ActionReadyCheckLive,
				Label:  "Ready check live",
				Reason: "Ready check is running. Wait for the room to check in.",
				Status: StatusLive,
			}
		},
	},
	{
		match: func(in Input) bool { return !in.ActiveMode.IsKaraoke() },
		action: func(in Input) Action {
			return Action{
				ID:     ActionHypeMoment,
				Label:  "Keep the moment going",
				Reason: fmt.Sprintf("%s is live. Ride it out before the next song.", in.ActiveMode),
				Status: StatusLive,
			}
		},
	},
	{
		match: func(in Input) bool { return !in.OnStage && in.QueueLength > 0 },
		action: func(in Input) Action {
			return Action{
				ID:     ActionStartNext,
				Label:  "Start next singer",
				Reason: fmt.Sprintf("Stage is empty and %d %s queued.", in.QueueLength, plural(in.QueueLength, "song is", "songs are")),
				Status: StatusReady,
			}
		},
	},
	{
		match: func(in Input) bool { return in.QueueLength <= 0 },
		action: func(in Input) Action {
			return Action{
				ID:     ActionCrowdCheck,
				Label:  "Crowd check",
				Reason: "Queue is empty. Ask the room who's up next.",
				Status: StatusNeedsAttention,
			}
		},
	},
}

// Recommend returns the host's next action.
func Recommend(in Input) Action {
	for _, r := range rules {
		if r.match(in) {
			return r.action(in)
		}
	}
	return Action{
		ID:     ActionHypeMoment,
		Label:  "Hype moment",
		Reason: fmt.Sprintf("%s is singing with %d %s queued. Lift the crowd.", singerName(in.CurrentSinger), in.QueueLength, plural(in.QueueLength, "song", "songs")),
		Status: StatusReady,
	}
}

func singerName(name string) string {
	if name == "" {
		return "Someone"
	}
	return name
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
