// Package memory implementa catálogo, libro de ventas y perfiles en memoria con el mismo contrato
// transaccional que el adaptador PostgreSQL: las transacciones se serializan con un mutex y las
// escrituras se aplican todas juntas al confirmar.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/shopflow-api/internal/application/checkout"
	"github.com/jhoicas/shopflow-api/internal/application/returns"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
	"github.com/jhoicas/shopflow-api/internal/domain/repository"
)

var (
	_ checkout.TxRunner = (*Store)(nil)
	_ returns.TxRunner  = (*Store)(nil)
)

// Store estado compartido del adaptador.
type Store struct {
	mu       sync.Mutex
	products map[string]*entity.Product
	sales    map[string]*entity.Sale
	profiles map[string]*entity.UserProfile
	now      func() time.Time

	failCommits int
	commitErr   error
	repriceHook func(call int, saleIDs []string) error
	repriceCall int
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		products: make(map[string]*entity.Product),
		sales:    make(map[string]*entity.Sale),
		profiles: make(map[string]*entity.UserProfile),
		now:      time.Now,
	}
}

// SetClock reemplaza el reloj con el que se asignan CreatedAt/UpdatedAt.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailCommits hace fallar los próximos n commits con err (sin aplicar nada).
func (s *Store) FailCommits(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCommits = n
	s.commitErr = err
}

// OnRepriceBatch registra un hook que decide si un lote de recálculo falla. call empieza en 0.
func (s *Store) OnRepriceBatch(fn func(call int, saleIDs []string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repriceHook = fn
	s.repriceCall = 0
}

// Products repositorio de productos fuera de transacción (cada operación confirma sola).
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Sales repositorio de ventas fuera de transacción.
func (s *Store) Sales() *SaleRepo { return &SaleRepo{s: s} }

// Profiles repositorio de perfiles.
func (s *Store) Profiles() *ProfileRepo { return &ProfileRepo{s: s} }

// Run ejecuta fn con repositorios atados a una transacción. Si fn falla no se aplica nada.
func (s *Store) Run(ctx context.Context, fn func(products repository.ProductRepository, sales repository.SaleRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.begin()
	if err := fn(&ProductRepo{s: s, tx: t}, &SaleRepo{s: s, tx: t}); err != nil {
		return err
	}
	return s.commit(t)
}

// txn escrituras pendientes. Un producto nil en el overlay significa borrado.
type txn struct {
	s        *Store
	products map[string]*entity.Product
	sales    map[string]*entity.Sale
}

func (s *Store) begin() *txn {
	return &txn{s: s, products: make(map[string]*entity.Product), sales: make(map[string]*entity.Sale)}
}

// commit se llama con s.mu tomado.
func (s *Store) commit(t *txn) error {
	if s.failCommits > 0 {
		s.failCommits--
		return s.commitErr
	}
	for id, p := range t.products {
		if p == nil {
			delete(s.products, id)
			continue
		}
		s.products[id] = p
	}
	for id, sale := range t.sales {
		s.sales[id] = sale
	}
	return nil
}

// autoCommit ejecuta fn en una transacción propia cuando el repo no está atado a una.
func (s *Store) autoCommit(t *txn, fn func(t *txn) error) error {
	if t != nil {
		return fn(t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	own := s.begin()
	if err := fn(own); err != nil {
		return err
	}
	return s.commit(own)
}

func (t *txn) product(id string) (*entity.Product, bool) {
	if p, ok := t.products[id]; ok {
		return p, p != nil
	}
	p, ok := t.s.products[id]
	return p, ok
}

func (t *txn) allProducts() []*entity.Product {
	out := make([]*entity.Product, 0, len(t.s.products)+len(t.products))
	for id, p := range t.s.products {
		if _, staged := t.products[id]; staged {
			continue
		}
		out = append(out, p)
	}
	for _, p := range t.products {
		if p != nil {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (t *txn) sale(id string) (*entity.Sale, bool) {
	if sl, ok := t.sales[id]; ok {
		return sl, true
	}
	sl, ok := t.s.sales[id]
	return sl, ok
}

func (t *txn) allSales() []*entity.Sale {
	out := make([]*entity.Sale, 0, len(t.s.sales)+len(t.sales))
	for id, sl := range t.s.sales {
		if _, staged := t.sales[id]; staged {
			continue
		}
		out = append(out, sl)
	}
	for _, sl := range t.sales {
		out = append(out, sl)
	}
	return out
}

func cloneProduct(p *entity.Product) *entity.Product {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func cloneProfile(p *entity.UserProfile) *entity.UserProfile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
