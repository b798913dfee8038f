package event

import (
	"context"
	"sync"

	id "pintcert/pkg/domain"
	"pintcert/pkg/platform/sentinel"
)

// InMemoryStore keeps reference data in maps. Used by unit tests and local
// development.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.EventID]*Event
	cities map[id.CityID]*City
	roles  map[id.RoleID]*Role
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		events: make(map[id.EventID]*Event),
		cities: make(map[id.CityID]*City),
		roles:  make(map[id.RoleID]*Role),
	}
}

func (s *InMemoryStore) CreateEvent(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; ok {
		return sentinel.ErrConflict
	}
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindEvent(_ context.Context, eventID id.EventID) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[eventID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *InMemoryStore) SaveCity(_ context.Context, c *City) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.cities[c.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindCity(_ context.Context, cityID id.CityID) (*City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cities[cityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemoryStore) SaveRole(_ context.Context, r *Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.roles[r.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindRole(_ context.Context, roleID id.RoleID) (*Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[roleID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *r
	return &cp, nil
}
