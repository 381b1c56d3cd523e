// Package song provides the song metadata returned by catalog lookups.
package song

import (
	"strings"
	"time"
)

// Track is a song resolved from an external catalog.
type Track struct {
	ID       string        // Catalog track ID
	Title    string        // Track title
	Artists  []string      // Artist names
	Album    string        // Album name
	Duration time.Duration // Track duration
	URL      string        // Catalog URL
	Explicit bool          // Explicit content flag
}

// Artist returns the artist names joined for display.
func (t *Track) Artist() string {
	return strings.Join(t.Artists, ", ")
}

// DurationSec returns the duration in whole seconds.
func (t *Track) DurationSec() int {
	return int(t.Duration / time.Second)
}
