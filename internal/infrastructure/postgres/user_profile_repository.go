package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/shopflow-api/internal/domain"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
	"github.com/jhoicas/shopflow-api/internal/domain/repository"
)

var _ repository.UserProfileRepository = (*UserProfileRepo)(nil)

// UserProfileRepo implementación del puerto UserProfileRepository sobre PostgreSQL.
type UserProfileRepo struct {
	q Querier
}

// NewUserProfileRepository construye el adaptador de persistencia para perfiles.
func NewUserProfileRepository(q Querier) *UserProfileRepo {
	return &UserProfileRepo{q: q}
}

// Upsert crea el perfil o actualiza nombre, rol y password si el id ya existe.
func (r *UserProfileRepo) Upsert(ctx context.Context, profile *entity.UserProfile) error {
	if profile.ID == "" {
		return domain.ErrInvalidInput
	}
	query := `
		INSERT INTO user_profiles (id, email, display_name, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email, display_name = EXCLUDED.display_name,
		    role = EXCLUDED.role, password_hash = EXCLUDED.password_hash
		RETURNING created_at`
	err := r.q.QueryRow(ctx, query,
		profile.ID, profile.Email, profile.DisplayName, profile.Role, profile.PasswordHash,
	).Scan(&profile.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("upsert user profile: %w", err)
	}
	return nil
}

// GetByID obtiene un perfil por ID.
func (r *UserProfileRepo) GetByID(ctx context.Context, id string) (*entity.UserProfile, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByEmail obtiene un perfil por email (sin distinguir mayúsculas).
func (r *UserProfileRepo) GetByEmail(ctx context.Context, email string) (*entity.UserProfile, error) {
	return r.getOne(ctx, `WHERE lower(email) = lower($1)`, email)
}

func (r *UserProfileRepo) getOne(ctx context.Context, where string, args ...any) (*entity.UserProfile, error) {
	query := `SELECT id, email, display_name, role, password_hash, created_at FROM user_profiles ` + where
	var p entity.UserProfile
	err := r.q.QueryRow(ctx, query, args...).Scan(&p.ID, &p.Email, &p.DisplayName, &p.Role, &p.PasswordHash, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user profile: %w", err)
	}
	return &p, nil
}
