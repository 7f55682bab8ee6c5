package memory

import (
	"context"
	"strings"

	"github.com/jhoicas/shopflow-api/internal/domain"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
	"github.com/jhoicas/shopflow-api/internal/domain/repository"
)

var _ repository.UserProfileRepository = (*ProfileRepo)(nil)

// ProfileRepo perfiles de usuario en memoria.
type ProfileRepo struct {
	s *Store
}

func (r *ProfileRepo) Upsert(ctx context.Context, profile *entity.UserProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if profile.ID == "" {
		return domain.ErrInvalidInput
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = r.s.now()
	}
	r.s.profiles[profile.ID] = cloneProfile(profile)
	return nil
}

func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*entity.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return cloneProfile(r.s.profiles[id]), nil
}

func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (*entity.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.profiles {
		if strings.EqualFold(p.Email, email) {
			return cloneProfile(p), nil
		}
	}
	return nil, nil
}
