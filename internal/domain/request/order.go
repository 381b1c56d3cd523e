package request

import "sort"

// Less reports whether a is served before b: lower priority score first, then
// earlier submission.
func Less(a, b *SongRequest) bool {
	if a.PriorityScore != b.PriorityScore {
		return a.PriorityScore < b.PriorityScore
	}
	return a.SubmittedAt.Before(b.SubmittedAt)
}

// SortForServing sorts requests into serving order. Requests that compare equal
// keep their relative order.
func SortForServing(reqs []*SongRequest) {
	sort.SliceStable(reqs, func(i, j int) bool {
		return Less(reqs[i], reqs[j])
	})
}
