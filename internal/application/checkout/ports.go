package checkout

import (
	"context"

	"github.com/jhoicas/shopflow-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción serializable, pasando repositorios atados a esa tx.
// Todas las lecturas y escrituras hechas con esos repos se confirman juntas o no se confirma ninguna.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
	) error) error
}
