package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/shopflow-api/internal/domain/entity"
)

// PriceUpdate nuevos precios de un producto para el recálculo retroactivo.
type PriceUpdate struct {
	ProductID     string
	PurchasePrice decimal.Decimal
	SellingPrice  decimal.Decimal
}

// SaleRepository define el puerto de persistencia del libro de ventas (DIP).
// GetByID y GetForUpdate devuelven (nil, nil) si la venta no existe.
type SaleRepository interface {
	// Create inserta la venta; el almacén asigna CreatedAt.
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	UpdateItems(ctx context.Context, saleID string, items []entity.SaleItem) error
	// ListByDateRange ventas con CreatedAt en [from, to], ordenadas por CreatedAt.
	// createdBy vacío = todas.
	ListByDateRange(ctx context.Context, from, to time.Time, createdBy string) ([]*entity.Sale, error)
	// ListPage recorre el libro completo ordenado por ID (keyset: ID > afterID).
	ListPage(ctx context.Context, afterID string, limit int) ([]*entity.Sale, error)
	// RepriceBatch reescribe solo los dos precios de las líneas no devueltas del producto en las
	// ventas indicadas. El lote se confirma de forma atómica e independiente de otros lotes y
	// se evalúa sobre el estado vigente de cada venta. Devuelve cuántas ventas cambiaron de verdad.
	RepriceBatch(ctx context.Context, update PriceUpdate, saleIDs []string) (int, error)
}
