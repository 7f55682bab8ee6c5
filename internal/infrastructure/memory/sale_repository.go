package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/shopflow-api/internal/domain"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
	"github.com/jhoicas/shopflow-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo libro de ventas en memoria.
type SaleRepo struct {
	s  *Store
	tx *txn
}

// Create inserta la venta y le asigna CreatedAt con el reloj del almacén.
func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.autoCommit(r.tx, func(t *txn) error {
		if _, ok := t.sale(sale.ID); ok {
			return domain.ErrConflict
		}
		sale.CreatedAt = r.s.now()
		t.sales[sale.ID] = sale.Clone()
		return nil
	})
}

func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.read(ctx, func(t *txn) {
		if sl, ok := t.sale(id); ok {
			out = sl.Clone()
		}
	})
	return out, err
}

func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}

func (r *SaleRepo) UpdateItems(ctx context.Context, saleID string, items []entity.SaleItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.autoCommit(r.tx, func(t *txn) error {
		cur, ok := t.sale(saleID)
		if !ok {
			return domain.ErrSaleNotFound
		}
		next := cur.Clone()
		next.Items = entity.CloneItems(items)
		t.sales[saleID] = next
		return nil
	})
}

func (r *SaleRepo) ListByDateRange(ctx context.Context, from, to time.Time, createdBy string) ([]*entity.Sale, error) {
	var out []*entity.Sale
	err := r.read(ctx, func(t *txn) {
		for _, sl := range t.allSales() {
			if sl.CreatedAt.Before(from) || sl.CreatedAt.After(to) {
				continue
			}
			if createdBy != "" && sl.CreatedBy != createdBy {
				continue
			}
			out = append(out, sl.Clone())
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *SaleRepo) ListPage(ctx context.Context, afterID string, limit int) ([]*entity.Sale, error) {
	var all []*entity.Sale
	err := r.read(ctx, func(t *txn) {
		for _, sl := range t.allSales() {
			if sl.ID > afterID {
				all = append(all, sl)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	out := make([]*entity.Sale, len(all))
	for i, sl := range all {
		out[i] = sl.Clone()
	}
	return out, nil
}

// RepriceBatch aplica el lote completo o nada. Ventas inexistentes se ignoran.
func (r *SaleRepo) RepriceBatch(ctx context.Context, update repository.PriceUpdate, saleIDs []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	// el hook corre sin el lock para poder simular escrituras concurrentes
	r.s.mu.Lock()
	hook, call := r.s.repriceHook, r.s.repriceCall
	r.s.repriceCall++
	r.s.mu.Unlock()
	if hook != nil {
		if err := hook(call, saleIDs); err != nil {
			return 0, err
		}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.s.begin()
	n := 0
	for _, id := range saleIDs {
		cur, ok := t.sale(id)
		if !ok {
			continue
		}
		items, changed := entity.RepriceItems(cur.Items, update.ProductID, update.PurchasePrice, update.SellingPrice)
		if !changed {
			continue
		}
		next := cur.Clone()
		next.Items = items
		t.sales[id] = next
		n++
	}
	if err := r.s.commit(t); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *SaleRepo) read(ctx context.Context, fn func(t *txn)) error {
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
