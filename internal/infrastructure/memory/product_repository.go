package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/shopflow-api/internal/domain"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
	"github.com/jhoicas/shopflow-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo catálogo en memoria. Con tx != nil las escrituras quedan en la transacción.
type ProductRepo struct {
	s  *Store
	tx *txn
}

func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.autoCommit(r.tx, func(t *txn) error {
		if _, ok := t.product(product.ID); ok {
			return fmt.Errorf("%w: producto %s ya existe", domain.ErrConflict, product.ID)
		}
		now := r.s.now()
		if product.CreatedAt.IsZero() {
			product.CreatedAt = now
		}
		product.UpdatedAt = now
		t.products[product.ID] = cloneProduct(product)
		return nil
	})
}

func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.read(ctx, func(t *txn) {
		if p, ok := t.product(id); ok {
			out = cloneProduct(p)
		}
	})
	return out, err
}

// GetForUpdate en memoria el bloqueo lo da el mutex de la transacción.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

// Update conserva la cantidad almacenada; la del argumento se ignora y se refresca.
func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.autoCommit(r.tx, func(t *txn) error {
		cur, ok := t.product(product.ID)
		if !ok {
			return domain.ErrNotFound
		}
		p := cloneProduct(cur)
		p.Name = product.Name
		p.Barcode = product.Barcode
		p.PurchasePrice = product.PurchasePrice
		p.SellingPrice = product.SellingPrice
		p.UpdatedAt = r.s.now()
		t.products[product.ID] = p

		product.Quantity = p.Quantity
		product.CreatedAt = p.CreatedAt
		product.UpdatedAt = p.UpdatedAt
		return nil
	})
}

func (r *ProductRepo) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if quantity < 0 {
		return fmt.Errorf("%w: cantidad negativa", domain.ErrInvalidInput)
	}
	return r.s.autoCommit(r.tx, func(t *txn) error {
		cur, ok := t.product(id)
		if !ok {
			return domain.ErrNotFound
		}
		p := cloneProduct(cur)
		p.Quantity = quantity
		p.UpdatedAt = r.s.now()
		t.products[id] = p
		return nil
	})
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.autoCommit(r.tx, func(t *txn) error {
		if _, ok := t.product(id); !ok {
			return domain.ErrNotFound
		}
		t.products[id] = nil
		return nil
	})
}

// List todos los productos ordenados por nombre.
func (r *ProductRepo) List(ctx context.Context) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.read(ctx, func(t *txn) {
		for _, p := range t.allProducts() {
			out = append(out, cloneProduct(p))
		}
	})
	return out, err
}

// SearchByNamePrefix prefijo sin distinguir mayúsculas, ordenado por nombre.
func (r *ProductRepo) SearchByNamePrefix(ctx context.Context, prefix string, limit int) ([]*entity.Product, error) {
	key := entity.NameKey(prefix)
	var out []*entity.Product
	err := r.read(ctx, func(t *txn) {
		for _, p := range t.allProducts() {
			if limit > 0 && len(out) >= limit {
				return
			}
			if strings.HasPrefix(entity.NameKey(p.Name), key) {
				out = append(out, cloneProduct(p))
			}
		}
	})
	return out, err
}

func (r *ProductRepo) FindByBarcode(ctx context.Context, barcode string) ([]*entity.Product, error) {
	var out []*entity.Product
	if barcode == "" {
		return out, nil
	}
	err := r.read(ctx, func(t *txn) {
		for _, p := range t.allProducts() {
			if p.Barcode == barcode {
				out = append(out, cloneProduct(p))
			}
		}
	})
	return out, err
}

func (r *ProductRepo) read(ctx context.Context, fn func(t *txn)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.tx != nil {
		fn(r.tx)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	fn(r.s.begin())
	return nil
}
