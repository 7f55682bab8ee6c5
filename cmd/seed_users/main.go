// seed_users crea (o actualiza) las cuentas iniciales de administrador y tendero en PostgreSQL.
//
// Uso: go run ./cmd/seed_users -admin-email admin@tienda.co -admin-password ******
// Los valores por defecto se leen de SEED_ADMIN_* y SEED_SHOPKEEPER_* (EMAIL, PASSWORD, NAME).
// Ejecutarlo de nuevo con otro password lo reemplaza; el id del usuario se conserva.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/shopflow-api/internal/application/auth"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
	"github.com/jhoicas/shopflow-api/internal/infrastructure/postgres"
	"github.com/jhoicas/shopflow-api/pkg/config"
)

type account struct {
	email, password, name, role string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}

	admin := account{role: entity.RoleAdmin}
	keeper := account{role: entity.RoleShopkeeper}
	flag.StringVar(&admin.email, "admin-email", os.Getenv("SEED_ADMIN_EMAIL"), "email del administrador")
	flag.StringVar(&admin.password, "admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "password del administrador")
	flag.StringVar(&admin.name, "admin-name", envOr("SEED_ADMIN_NAME", "Administrador"), "nombre visible del administrador")
	flag.StringVar(&keeper.email, "shopkeeper-email", os.Getenv("SEED_SHOPKEEPER_EMAIL"), "email del tendero")
	flag.StringVar(&keeper.password, "shopkeeper-password", os.Getenv("SEED_SHOPKEEPER_PASSWORD"), "password del tendero")
	flag.StringVar(&keeper.name, "shopkeeper-name", envOr("SEED_SHOPKEEPER_NAME", "Tendero"), "nombre visible del tendero")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conexión a PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "Migrar esquema: %v\n", err)
		os.Exit(1)
	}

	authUC := auth.NewAuthUseCase(postgres.NewUserProfileRepository(pool), auth.JWTConfig{Secret: cfg.JWT.Secret})

	seeded := 0
	for _, a := range []account{admin, keeper} {
		if a.email == "" {
			continue
		}
		p, err := authUC.EnsureUser(ctx, a.email, a.password, a.name, a.role)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Usuario %s: %v\n", a.email, err)
			os.Exit(1)
		}
		fmt.Printf("OK %-10s %s (%s)\n", p.Role, p.Email, p.ID)
		seeded++
	}
	if seeded == 0 {
		fmt.Fprintln(os.Stderr, "Nada que sembrar: indique -admin-email y/o -shopkeeper-email")
		os.Exit(2)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
