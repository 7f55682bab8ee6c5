package entity

import "time"

// Roles válidos.
const (
	RoleAdmin      = "admin"
	RoleShopkeeper = "shopkeeper"
)

// ValidRole indica si el rol es conocido.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleShopkeeper
}

// UserProfile perfil de usuario (colección user_profiles). El rol se resuelve desde aquí en cada request.
type UserProfile struct {
	ID           string
	Email        string
	DisplayName  string
	Role         string // admin, shopkeeper
	PasswordHash string // bcrypt; solo lo usa el login propio
	CreatedAt    time.Time
}

// Actor usuario autenticado que ejecuta una operación.
type Actor struct {
	ID          string
	DisplayName string
	Role        string
}

// IsAdmin indica si el actor tiene rol admin.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// ActorFromProfile construye el Actor a partir del perfil.
func ActorFromProfile(p *UserProfile) Actor {
	name := p.DisplayName
	if name == "" {
		name = p.Email
	}
	return Actor{ID: p.ID, DisplayName: name, Role: p.Role}
}
