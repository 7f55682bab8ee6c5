package repository

import (
	"context"

	"github.com/jhoicas/shopflow-api/internal/domain/entity"
)

// UserProfileRepository define el puerto de persistencia para user_profiles (DIP).
type UserProfileRepository interface {
	// Upsert crea o reemplaza el perfil (mismo id).
	Upsert(ctx context.Context, profile *entity.UserProfile) error
	GetByID(ctx context.Context, id string) (*entity.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*entity.UserProfile, error)
}
