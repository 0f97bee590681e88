package store

import (
	"context"
	"sync"
	"time"

	"dsakyc/internal/kyc/models"
	id "dsakyc/pkg/domain"
)

// InMemoryStore keeps applications in a map. Documents are cloned on the way
// in and out so callers never share state with the store.
type InMemoryStore struct {
	mu   sync.RWMutex
	apps map[id.ApplicationID]*models.Application
	now  func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		apps: make(map[id.ApplicationID]*models.Application),
		now:  time.Now,
	}
}

func (s *InMemoryStore) Create(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apps[app.ID]; exists {
		return ErrConflict
	}
	app.Version = 1
	s.apps[app.ID] = app.Clone()
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, appID id.ApplicationID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[appID]
	if !ok {
		return nil, ErrNotFound
	}
	return app.Clone(), nil
}

func (s *InMemoryStore) Save(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.apps[app.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != app.Version {
		return ErrConflict
	}
	app.Version++
	app.UpdatedAt = s.now()
	s.apps[app.ID] = app.Clone()
	return nil
}
