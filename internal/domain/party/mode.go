package party

import "strings"

// Mode is a lowercase group-moment tag, or Karaoke for the base singing mode.
type Mode string

const (
	Karaoke Mode = "karaoke"

	// Light moments: short beats that need no song gap.
	ReadyCheck Mode = "ready_check"
	Hype       Mode = "hype"
	CrowdPoll  Mode = "crowd_poll"
	Applause   Mode = "applause"

	// Heavy moments.
	Strobe         Mode = "strobe"
	Bingo          Mode = "bingo"
	Trivia         Mode = "trivia"
	DanceOff       Mode = "dance_off"
	LightningRound Mode = "lightning_round"
	DuetRoulette   Mode = "duet_roulette"
)

// ParseMode canonicalizes a mode tag. Empty input means Karaoke.
// Unknown tags are kept as given (lowercased) so callers can still report them.
func ParseMode(s string) Mode {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Karaoke
	}
	return Mode(strings.NewReplacer("-", "_", " ", "_").Replace(s))
}

// IsKaraoke reports whether m is the base singing mode.
func (m Mode) IsKaraoke() bool {
	return m == "" || m == Karaoke
}

// String returns the tag.
func (m Mode) String() string {
	if m == "" {
		return string(Karaoke)
	}
	return string(m)
}

// ModeSet is an immutable set of mode tags.
type ModeSet map[Mode]struct{}

// NewModeSet builds a set from the given modes.
func NewModeSet(modes ...Mode) ModeSet {
	s := make(ModeSet, len(modes))
	for _, m := range modes {
		s[ParseMode(string(m))] = struct{}{}
	}
	return s
}

// Contains reports whether m is in the set.
func (s ModeSet) Contains(m Mode) bool {
	_, ok := s[ParseMode(string(m))]
	return ok
}

// DefaultHeavyModes returns the modes that require a song between uses.
func DefaultHeavyModes() ModeSet {
	return NewModeSet(Strobe, Bingo, Trivia, DanceOff, LightningRound, DuetRoulette)
}

// LightModes returns the known modes that need no song gap.
func LightModes() ModeSet {
	return NewModeSet(ReadyCheck, Hype, CrowdPoll, Applause)
}
