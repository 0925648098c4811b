package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/modelboard/api/internal/model"
)

// MemoryRepository keeps profiles in process memory. Used for development
// and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]*model.Profile
}

// NewMemoryRepository creates an empty repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		profiles: make(map[string]*model.Profile),
	}
}

// GetByID returns a copy of the stored profile
func (r *MemoryRepository) GetByID(_ context.Context, id string) (*model.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p.Clone(), nil
}

// Save stores a copy of p, replacing any previous version
func (r *MemoryRepository) Save(_ context.Context, p *model.Profile) (*model.Profile, error) {
	if p == nil || p.ID == "" {
		return nil, errors.New("profile id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.profiles[p.ID] = p.Clone()
	return p.Clone(), nil
}

// Update applies fn to a copy of the stored profile and stores the result.
// No other write can land between the read and the write.
func (r *MemoryRepository) Update(_ context.Context, id string, fn UpdateFunc) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	r.profiles[id] = next.Clone()
	return next, nil
}

// List returns copies of every profile, newest first
func (r *MemoryRepository) List(_ context.Context) ([]*model.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p.Clone())
	}
	sortProfiles(out)
	return out, nil
}
