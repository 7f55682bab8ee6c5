package returns

import (
	"context"

	"github.com/jhoicas/shopflow-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción serializable (mismo contrato que el del checkout).
type TxRunner interface {
	Run(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
	) error) error
}
