package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/shopflow-api/internal/application/dto"
	"github.com/jhoicas/shopflow-api/internal/domain"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
	"github.com/jhoicas/shopflow-api/internal/domain/repository"
	"github.com/jhoicas/shopflow-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase proveedor de identidad propio: login con bcrypt y resolución de rol desde user_profiles.
type AuthUseCase struct {
	profileRepo repository.UserProfileRepository
	jwtCfg      JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(profileRepo repository.UserProfileRepository, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{profileRepo: profileRepo, jwtCfg: jwtCfg}
}

// Login verifica email/password, genera JWT y retorna token + perfil.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}
	profile, err := uc.profileRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if profile == nil || profile.PasswordHash == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, profile.ID, profile.Email, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{Token: token, User: *toUserResponse(profile)}, nil
}

// ResolveActor busca el perfil del usuario autenticado y devuelve el Actor con su rol vigente.
// ErrForbidden si el usuario no tiene perfil o su rol no es válido.
func (uc *AuthUseCase) ResolveActor(ctx context.Context, userID string) (entity.Actor, error) {
	profile, err := uc.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return entity.Actor{}, err
	}
	if profile == nil || !entity.ValidRole(profile.Role) {
		return entity.Actor{}, domain.ErrForbidden
	}
	return entity.ActorFromProfile(profile), nil
}

// Me perfil del usuario autenticado.
func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	profile, err := uc.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, domain.ErrUserNotFound
	}
	return toUserResponse(profile), nil
}

// EnsureUser crea o actualiza un usuario con password (lo usa el seed). Si el email ya existe conserva su id.
func (uc *AuthUseCase) EnsureUser(ctx context.Context, email, password, displayName, role string) (*entity.UserProfile, error) {
	if !entity.ValidRole(role) {
		return nil, fmt.Errorf("%w: rol %q", domain.ErrInvalidInput, role)
	}
	if strings.TrimSpace(email) == "" || len(password) < 6 {
		return nil, fmt.Errorf("%w: email y password (mínimo 6 caracteres) requeridos", domain.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	profile, err := uc.profileRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile = &entity.UserProfile{ID: uuid.New().String(), Email: email}
	}
	profile.DisplayName = displayName
	profile.Role = role
	profile.PasswordHash = string(hash)
	if err := uc.profileRepo.Upsert(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func toUserResponse(p *entity.UserProfile) *dto.UserResponse {
	if p == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:          p.ID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Role:        p.Role,
	}
}
