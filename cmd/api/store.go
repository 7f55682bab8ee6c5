package main

import (
	"context"
	"fmt"

	"github.com/jhoicas/shopflow-api/internal/application/checkout"
	"github.com/jhoicas/shopflow-api/internal/domain/repository"
	"github.com/jhoicas/shopflow-api/internal/infrastructure/memory"
	"github.com/jhoicas/shopflow-api/internal/infrastructure/postgres"
	"github.com/jhoicas/shopflow-api/pkg/config"
	"github.com/jhoicas/shopflow-api/pkg/logger"
)

// store agrupa los repositorios y el runner transaccional del driver elegido.
type store struct {
	tx       checkout.TxRunner
	products repository.ProductRepository
	sales    repository.SaleRepository
	profiles repository.UserProfileRepository
	close    func()
}

func openStore(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*store, error) {
	switch cfg.Driver {
	case config.StoreDriverMemory:
		log.Warn().Msg("usando almacenamiento en memoria: los datos se pierden al reiniciar")
		s := memory.NewStore()
		return &store{
			tx:       s,
			products: s.Products(),
			sales:    s.Sales(),
			profiles: s.Profiles(),
			close:    func() {},
		}, nil

	case config.StoreDriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrar esquema: %w", err)
		}
		return &store{
			tx:       postgres.NewTxRunner(pool, cfg.TxMaxRetries, log.Named("tx")),
			products: postgres.NewProductRepository(pool),
			sales:    postgres.NewSaleRepository(pool),
			profiles: postgres.NewUserProfileRepository(pool),
			close:    pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("driver de almacenamiento no soportado: %q", cfg.Driver)
}
