package repository

import (
	"context"

	"github.com/jhoicas/shopflow-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia del catálogo (DIP).
// GetByID y GetForUpdate devuelven (nil, nil) si el producto no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate lee el producto bloqueándolo hasta el fin de la transacción en curso.
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// Update escribe nombre, código y precios. No toca quantity: el stock solo cambia por UpdateQuantity.
	Update(ctx context.Context, product *entity.Product) error
	UpdateQuantity(ctx context.Context, id string, quantity int) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*entity.Product, error)
	SearchByNamePrefix(ctx context.Context, prefix string, limit int) ([]*entity.Product, error)
	FindByBarcode(ctx context.Context, barcode string) ([]*entity.Product, error)
}
