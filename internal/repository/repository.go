package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/modelboard/api/internal/model"
)

// ErrProfileNotFound is returned when no profile has the requested ID
var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository persists profiles. Implementations return copies, so
// callers may mutate what they get back.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	Save(ctx context.Context, p *model.Profile) (*model.Profile, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (*model.Profile, error)
	List(ctx context.Context) ([]*model.Profile, error)
}

// UpdateFunc mutates a fresh copy of a stored profile. Returning an error
// discards the change and is passed back to the caller of Update.
type UpdateFunc func(p *model.Profile) error

// sortProfiles orders newest first, then by ID for a stable listing
func sortProfiles(profiles []*model.Profile) {
	sort.Slice(profiles, func(i, j int) bool {
		if !profiles[i].CreatedAt.Equal(profiles[j].CreatedAt) {
			return profiles[i].CreatedAt.After(profiles[j].CreatedAt)
		}
		return profiles[i].ID < profiles[j].ID
	})
}
