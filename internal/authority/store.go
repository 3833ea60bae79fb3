package authority

import (
	"context"
	"errors"
	"sync"
)

// errRoomNotFound is the store-level miss; the authority maps it to the wire
// reason code.
var errRoomNotFound = errors.New("room not found")

// Store persists room truth. The in-memory implementation is the default;
// the Postgres one kicks in when a DSN is configured.
type Store interface {
	Get(ctx context.Context, id string) (*gameRoom, error)
	Put(ctx context.Context, g *gameRoom) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*gameRoom, error)
}

type memStore struct {
	mu    sync.RWMutex
	rooms map[string]*gameRoom
}

// NewMemStore builds the in-memory room store.
func NewMemStore() Store {
	return &memStore{rooms: make(map[string]*gameRoom)}
}

func (s *memStore) Get(ctx context.Context, id string) (*gameRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.rooms[id]
	if !ok {
		return nil, errRoomNotFound
	}
	clone := *g
	return &clone, nil
}

func (s *memStore) Put(ctx context.Context, g *gameRoom) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *g
	s.rooms[g.ID] = &clone
	return nil
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
	return nil
}

func (s *memStore) List(ctx context.Context) ([]*gameRoom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*gameRoom, 0, len(s.rooms))
	for _, g := range s.rooms {
		clone := *g
		out = append(out, &clone)
	}
	return out, nil
}
