package returns_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/shopflow-api/internal/application/checkout"
	"github.com/jhoicas/shopflow-api/internal/application/events"
	"github.com/jhoicas/shopflow-api/internal/application/returns"
	"github.com/jhoicas/shopflow-api/internal/domain"
	"github.com/jhoicas/shopflow-api/internal/domain/cart"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
	"github.com/jhoicas/shopflow-api/internal/infrastructure/memory"
)

var (
	cajero = entity.Actor{ID: "u-caja", DisplayName: "Caja", Role: entity.RoleShopkeeper}
	admin  = entity.Actor{ID: "u-admin", DisplayName: "Admin", Role: entity.RoleAdmin}
)

type fixture struct {
	store    *memory.Store
	checkout *checkout.CheckoutUseCase
	returns  *returns.ReturnUseCase
}

func newFixture(pub events.Publisher) *fixture {
	store := memory.NewStore()
	return &fixture{
		store:    store,
		checkout: checkout.NewCheckoutUseCase(store, nil, nil),
		returns:  returns.NewReturnUseCase(store, pub, nil),
	}
}

func (f *fixture) product(t *testing.T, id string, qty int) *entity.Product {
	t.Helper()
	p := &entity.Product{ID: id, Name: "Producto " + id, SellingPrice: decimal.NewFromInt(10), PurchasePrice: decimal.NewFromInt(6), Quantity: qty}
	require.NoError(t, f.store.Products().Create(context.Background(), p))
	return p
}

func (f *fixture) sell(t *testing.T, lines ...cart.Line) *entity.Sale {
	t.Helper()
	sale, err := f.checkout.Checkout(context.Background(), lines, cajero)
	require.NoError(t, err)
	return sale
}

func (f *fixture) quantity(t *testing.T, id string) int {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Quantity
}

func lineOf(p *entity.Product, qty int) cart.Line {
	return cart.Line{ProductID: p.ID, Name: p.Name, SellingPrice: p.SellingPrice, PurchasePrice: p.PurchasePrice, Quantity: qty}
}

// ─── Ida y vuelta ─────────────────────────────────────────────────────────────

func TestReturn_RestauraStockExacto(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	p := f.product(t, "p1", 5)
	sale := f.sell(t, lineOf(p, 3))
	require.Equal(t, 2, f.quantity(t, p.ID))

	got, err := f.returns.ReturnItem(ctx, returns.ReturnInput{SaleID: sale.ID, ItemIndex: 0, ProductID: p.ID, Quantity: 3}, admin)
	require.NoError(t, err)

	assert.Equal(t, 5, f.quantity(t, p.ID))
	stored, err := f.store.Sales().GetByID(ctx, sale.ID)
	require.NoError(t, err)
	it := stored.Items[0]
	assert.Equal(t, 3, it.Quantity, "la cantidad vendida no cambia")
	assert.True(t, it.Returned)
	require.NotNil(t, it.ReturnedAt)
	assert.Equal(t, admin.ID, it.ReturnedBy)
	assert.Equal(t, entity.RoleAdmin, it.ReturnedByRole)
	assert.True(t, stored.TotalAmount.Equal(sale.TotalAmount), "totalAmount no se recalcula")
	assert.True(t, got.Items[0].Returned)
}

func TestReturn_DosVecesAcreditaUnaSola(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	p := f.product(t, "p1", 5)
	sale := f.sell(t, lineOf(p, 2))

	_, err := f.returns.ReturnItem(ctx, returns.ReturnInput{SaleID: sale.ID, ItemIndex: 0}, cajero)
	require.NoError(t, err)
	_, err = f.returns.ReturnItem(ctx, returns.ReturnInput{SaleID: sale.ID, ItemIndex: 0}, cajero)
	assert.ErrorIs(t, err, domain.ErrAlreadyReturned)
	assert.Equal(t, domain.KindConsistency, domain.KindOf(err))
	assert.Equal(t, 5, f.quantity(t, p.ID))
}

func TestReturn_ConcurrenteAcreditaUnaSola(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	p := f.product(t, "p1", 5)
	sale := f.sell(t, lineOf(p, 2))

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, already := 0, 0
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.returns.ReturnItem(ctx, returns.ReturnInput{SaleID: sale.ID, ItemIndex: 0}, cajero)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if assert.ErrorIs(t, err, domain.ErrAlreadyReturned) {
				already++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, 5, already)
	assert.Equal(t, 5, f.quantity(t, p.ID))
}

func TestReturn_SoloLaLineaIndicada(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	a := f.product(t, "a", 5)
	b := f.product(t, "b", 5)
	sale := f.sell(t, lineOf(a, 1), lineOf(b, 2))

	_, err := f.returns.ReturnItem(ctx, returns.ReturnInput{SaleID: sale.ID, ItemIndex: 1}, cajero)
	require.NoError(t, err)

	stored, err := f.store.Sales().GetByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.False(t, stored.Items[0].Returned)
	assert.True(t, stored.Items[1].Returned)
	assert.Equal(t, 4, f.quantity(t, a.ID))
	assert.Equal(t, 5, f.quantity(t, b.ID))
}

// ─── Errores ──────────────────────────────────────────────────────────────────

func TestReturn_Errores(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	p := f.product(t, "p1", 5)
	sale := f.sell(t, lineOf(p, 2))

	_, err := f.returns.ReturnItem(ctx, returns.ReturnInput{SaleID: "no-existe"}, cajero)
	assert.ErrorIs(t, err, domain.ErrSaleNotFound)

	_, err = f.returns.ReturnItem(ctx, returns.ReturnInput{SaleID: sale.ID, ItemIndex: 3}, cajero)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.returns.ReturnItem(ctx, returns.ReturnInput{SaleID: sale.ID, ItemIndex: 0, ProductID: "otro"}, cajero)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "no se puede acreditar otro producto")

	_, err = f.returns.ReturnItem(ctx, returns.ReturnInput{SaleID: sale.ID, ItemIndex: 0, Quantity: 1}, cajero)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.returns.ReturnItem(ctx, returns.ReturnInput{SaleID: sale.ID, ItemIndex: 0}, entity.Actor{})
	assert.ErrorIs(t, err, domain.ErrMissingActor)

	_, err = f.returns.ReturnItem(ctx, returns.ReturnInput{}, cajero)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	assert.Equal(t, 3, f.quantity(t, p.ID), "ningún intento fallido repone stock")
}

func TestReturn_ProductoBorradoIgualSeDevuelve(t *testing.T) {
	ctx := context.Background()
	bus := events.NewLocalBus()
	ch, cancel, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	f := newFixture(bus)
	p := f.product(t, "p1", 5)
	sale := f.sell(t, lineOf(p, 2))
	require.NoError(t, f.store.Products().Delete(ctx, p.ID))

	got, err := f.returns.ReturnItem(ctx, returns.ReturnInput{SaleID: sale.ID, ItemIndex: 0}, cajero)
	require.NoError(t, err)
	assert.True(t, got.Items[0].Returned)

	select {
	case e := <-ch:
		assert.Equal(t, events.SaleItemReturned, e.Type)
	case <-time.After(time.Second):
		t.Fatal("evento de devolución no publicado")
	}
	assert.Len(t, ch, 0, "sin ajuste de stock no hay ProductChanged")
}

func TestReturn_FalloTransitorioNoMarcaNada(t *testing.T) {
	ctx := context.Background()
	f := newFixture(nil)
	p := f.product(t, "p1", 5)
	sale := f.sell(t, lineOf(p, 2))

	f.store.FailCommits(1, domain.ErrTransient)
	_, err := f.returns.ReturnItem(ctx, returns.ReturnInput{SaleID: sale.ID, ItemIndex: 0}, cajero)
	assert.Equal(t, domain.KindTransient, domain.KindOf(err))

	stored, err := f.store.Sales().GetByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.False(t, stored.Items[0].Returned)
	assert.Equal(t, 3, f.quantity(t, p.ID))
}
