// Package memstore provides an in-memory room store.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/osa030/karaokebox/internal/domain/room"
)

// Store keeps rooms in memory. Rooms are deep-copied in and out.
type Store struct {
	mu    sync.Mutex
	rooms map[string]*room.Room
}

// New creates an empty store.
func New() *Store {
	return &Store{rooms: make(map[string]*room.Room)}
}

// Create adds a room.
func (s *Store) Create(ctx context.Context, rm *room.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[rm.ID]; exists {
		return errors.Newf("room %s already exists", rm.ID)
	}
	s.rooms[rm.ID] = rm.Clone()
	return nil
}

// Get returns a copy of the room.
func (s *Store) Get(ctx context.Context, id string) (*room.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm, ok := s.rooms[id]
	if !ok {
		return nil, room.ErrNotFound
	}
	return rm.Clone(), nil
}

// List returns copies of every room, oldest first.
func (s *Store) List(ctx context.Context) ([]*room.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*room.Room, 0, len(s.rooms))
	for _, rm := range s.rooms {
		out = append(out, rm.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Update applies fn to a copy of the room under the store lock and keeps the
// copy only if fn succeeds.
func (s *Store) Update(ctx context.Context, id string, fn func(rm *room.Room) error) (*room.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.rooms[id]
	if !ok {
		return nil, room.ErrNotFound
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.rooms[id] = next
	return next.Clone(), nil
}
