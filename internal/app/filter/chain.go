package filter

import (
	"context"

	"github.com/osa030/karaokebox/internal/domain/room"
	"github.com/osa030/karaokebox/internal/domain/singer"
)

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain(filters ...Filter) *Chain {
	c := &Chain{filters: make([]Filter, 0, len(filters))}
	for _, f := range filters {
		c.Add(f)
	}
	return c
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the request.
// Filters are only applied if they declare they apply to the submission's requester type.
func (c *Chain) Execute(ctx context.Context, sub Submission, rm *room.Room, s *singer.Singer) Result {
	for _, f := range c.filters {
		if !f.AppliesTo(sub.RequesterType) {
			continue
		}

		result := f.Check(ctx, sub, rm, s)
		if !result.Accepted {
			return result
		}
	}
	return Accept()
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
