package postgres

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/shopflow-api/internal/application/checkout"
	"github.com/jhoicas/shopflow-api/internal/application/returns"
	"github.com/jhoicas/shopflow-api/internal/domain/repository"
	"github.com/jhoicas/shopflow-api/pkg/logger"
)

// Ensure TxRunner implements checkout.TxRunner and returns.TxRunner.
var (
	_ checkout.TxRunner = (*TxRunner)(nil)
	_ returns.TxRunner  = (*TxRunner)(nil)
)

const retryBaseDelay = 20 * time.Millisecond

// TxRunner ejecuta callbacks dentro de una transacción SERIALIZABLE y reintenta ante 40001/40P01.
type TxRunner struct {
	pool       *pgxpool.Pool
	maxRetries int
	log        *logger.Logger
}

// NewTxRunner construye el runner con el pool. maxRetries son los reintentos después del primer intento.
func NewTxRunner(pool *pgxpool.Pool, maxRetries int, log *logger.Logger) *TxRunner {
	if log == nil {
		log = logger.Nop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &TxRunner{pool: pool, maxRetries: maxRetries, log: log}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// fn puede ejecutarse más de una vez; no debe tener efectos fuera de los repos.
func (r *TxRunner) Run(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
) error) error {
	for attempt := 0; ; attempt++ {
		err := r.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !isSerializationFailure(err) {
			if isConnectionError(err) {
				return transient("transacción", err)
			}
			return err
		}
		if attempt >= r.maxRetries {
			return transient("reintentos agotados", err)
		}
		r.log.Warn().Err(err).Int("attempt", attempt+1).Msg("conflicto de serialización, reintentando")

		// backoff lineal con jitter
		delay := retryBaseDelay*time.Duration(attempt+1) + time.Duration(rand.Int64N(int64(retryBaseDelay)))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(repository.ProductRepository, repository.SaleRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return transient("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewProductRepository(tx), NewSaleRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isSerializationFailure(err) {
			return err
		}
		return transient("commit transaction", err)
	}
	return nil
}
