package filter

import (
	"context"
	"regexp"
	"strings"

	"github.com/osa030/karaokebox/internal/domain/request"
	"github.com/osa030/karaokebox/internal/domain/room"
	"github.com/osa030/karaokebox/internal/domain/singer"
)

// DuplicateSongFilter rejects a song that is already waiting or on stage.
// Two requests are the same song if:
// - They carry the same catalog track ID
// - Their normalized titles match and the first artist matches (or either artist is unknown)
type DuplicateSongFilter struct{}

// NewDuplicateSongFilter creates a new duplicate song filter.
func NewDuplicateSongFilter() *DuplicateSongFilter {
	return &DuplicateSongFilter{}
}

func (f *DuplicateSongFilter) Name() string {
	return "duplicate_song_filter"
}

func (f *DuplicateSongFilter) Description() string {
	return "Checks if the song is already queued or on stage"
}

func (f *DuplicateSongFilter) ReturnCodes() []string {
	return []string{"duplicate_song"}
}

func (f *DuplicateSongFilter) AppliesTo(requesterType request.RequesterType) bool {
	return requesterType == request.RequesterTypeSinger
}

func (f *DuplicateSongFilter) ValidateConfig(settings map[string]any) error {
	return nil
}

func (f *DuplicateSongFilter) Check(ctx context.Context, sub Submission, rm *room.Room, s *singer.Singer) Result {
	if rm == nil {
		return Accept()
	}
	candidates := rm.LiveQueue()
	if cur := rm.Current(); cur != nil {
		candidates = append(candidates, cur)
	}

	for _, req := range candidates {
		if isSameSong(sub, req) {
			return Reject("duplicate_song")
		}
	}
	return Accept()
}

func isSameSong(sub Submission, req *request.SongRequest) bool {
	if sub.TrackID != "" && sub.TrackID == req.TrackID {
		return true
	}
	title := normalizeSongTitle(sub.Title)
	if title == "" || title != normalizeSongTitle(req.Title) {
		return false
	}
	return isSameArtist(sub.Artist, req.Artist)
}

var (
	// Karaoke catalogs tag the same song many ways
	versionPatterns = []*regexp.Regexp{
		// "(Karaoke Version)"
		regexp.MustCompile(`\s*[\(\[][^\)\]]*(karaoke|instrumental|off vocal|backing track)[^\)\]]*[\)\]]`),
		// "(Remastered 2011)"
		regexp.MustCompile(`\s*[\(\[][^\)\]]*remaster(ed)?[^\)\]]*[\)\]]`),
		// "(Radio Edit)"
		regexp.MustCompile(`\s*[\(\[][^\)\]]*(version|edit|live|mix)[\)\]]`),
		// "- 2011 Remaster"
		regexp.MustCompile(`\s+-\s+\d{4}\s+remaster(ed)?\b.*$`),
		// "- Live"
		regexp.MustCompile(`\s+-\s+(remaster(ed)?|live|radio edit|single version|karaoke( version)?)\b.*$`),
	}
	spacePattern = regexp.MustCompile(`\s+`)
)

// normalizeSongTitle strips version details so that tagged variants of a song compare equal.
func normalizeSongTitle(title string) string {
	normalized := strings.ToLower(title)
	for _, pattern := range versionPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}
	normalized = spacePattern.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

// isSameArtist compares the first credited artist.
func isSameArtist(a, b string) bool {
	a, b = firstArtist(a), firstArtist(b)
	if a == "" || b == "" {
		return true
	}
	return a == b
}

func firstArtist(artist string) string {
	artist = strings.ToLower(artist)
	for _, sep := range []string{",", " feat.", " ft.", " & "} {
		if i := strings.Index(artist, sep); i >= 0 {
			artist = artist[:i]
		}
	}
	return strings.TrimSpace(artist)
}

func init() {
	Register("duplicate_song_filter", func() Filter {
		return NewDuplicateSongFilter()
	})
}
