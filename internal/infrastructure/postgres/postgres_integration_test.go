package postgres

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/shopflow-api/internal/application/checkout"
	"github.com/jhoicas/shopflow-api/internal/application/recalculation"
	"github.com/jhoicas/shopflow-api/internal/application/returns"
	"github.com/jhoicas/shopflow-api/internal/domain"
	"github.com/jhoicas/shopflow-api/internal/domain/cart"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
	"github.com/jhoicas/shopflow-api/internal/domain/repository"
	"github.com/jhoicas/shopflow-api/pkg/config"
)

func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	databaseURL := os.Getenv("SHOPFLOW_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set SHOPFLOW_TEST_DATABASE_URL to run postgres integration test")
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, config.DBConfig{DatabaseURL: databaseURL, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool))
	return pool
}

func seedProduct(t *testing.T, pool *pgxpool.Pool, qty int) *entity.Product {
	t.Helper()
	p := &entity.Product{
		ID:            uuid.New().String(),
		Name:          "Jabon IT " + uuid.NewString()[:8],
		PurchasePrice: decimal.RequireFromString("1.50"),
		SellingPrice:  decimal.RequireFromString("2.00"),
		Quantity:      qty,
	}
	require.NoError(t, NewProductRepository(pool).Create(context.Background(), p))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM products WHERE id = $1`, p.ID)
	})
	return p
}

func lineOf(p *entity.Product, qty int) cart.Line {
	return cart.Line{ProductID: p.ID, Name: p.Name, SellingPrice: p.SellingPrice, PurchasePrice: p.PurchasePrice, Quantity: qty}
}

func TestCheckoutReturnReprice_Postgres(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	p := seedProduct(t, pool, 10)
	actor := entity.Actor{ID: "it-admin", DisplayName: "IT", Role: entity.RoleAdmin}

	runner := NewTxRunner(pool, 3, nil)
	sale, err := checkout.NewCheckoutUseCase(runner, nil, nil).Checkout(ctx, []cart.Line{lineOf(p, 4)}, actor)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = pool.Exec(ctx, `DELETE FROM sales WHERE id = $1`, sale.ID) })
	assert.False(t, sale.CreatedAt.IsZero())

	products := NewProductRepository(pool)
	got, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Quantity)

	_, err = checkout.NewCheckoutUseCase(runner, nil, nil).Checkout(ctx, []cart.Line{lineOf(p, 7)}, actor)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 6, stockErr.Available)

	sales := NewSaleRepository(pool)
	update := repository.PriceUpdate{
		ProductID:     p.ID,
		PurchasePrice: decimal.RequireFromString("1.75"),
		SellingPrice:  decimal.RequireFromString("2.50"),
	}
	n, err := sales.RepriceBatch(ctx, update, []string{sale.ID, "no-existe"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = sales.RepriceBatch(ctx, update, []string{sale.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, n, "precios ya vigentes no cuentan")

	stored, err := sales.GetByID(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.True(t, stored.Items[0].SellingPrice.Equal(decimal.RequireFromString("2.50")))
	assert.True(t, stored.TotalAmount.Equal(decimal.RequireFromString("8")), "el total cobrado no cambia")

	_, err = returns.NewReturnUseCase(runner, nil, nil).ReturnItem(ctx, returns.ReturnInput{
		SaleID: sale.ID, ItemIndex: 0, ProductID: p.ID, Quantity: 4,
	}, actor)
	require.NoError(t, err)
	got, err = products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)

	// una línea devuelta ya no se recalcula
	res, err := recalculation.NewRecalculateUseCase(sales, nil, nil, 100).
		Recalculate(ctx, p.ID, decimal.RequireFromString("9"), decimal.RequireFromString("9"))
	require.NoError(t, err)
	stored, err = sales.GetByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.True(t, stored.Items[0].SellingPrice.Equal(decimal.RequireFromString("2.50")))
	assert.GreaterOrEqual(t, res.Scanned, 1)
}

func TestCheckout_ConcurrentNoOversell_Postgres(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	p := seedProduct(t, pool, 3)
	actor := entity.Actor{ID: "it-caja", DisplayName: "Caja", Role: entity.RoleShopkeeper}
	uc := checkout.NewCheckoutUseCase(NewTxRunner(pool, 10, nil), nil, nil)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		oks  int
		sids []string
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := uc.Checkout(ctx, []cart.Line{lineOf(p, 1)}, actor)
			if err != nil {
				return
			}
			mu.Lock()
			oks++
			sids = append(sids, s.ID)
			mu.Unlock()
		}()
	}
	wg.Wait()
	t.Cleanup(func() {
		for _, id := range sids {
			_, _ = pool.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
		}
	})

	got, err := NewProductRepository(pool).GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3-oks, got.Quantity)
	assert.GreaterOrEqual(t, got.Quantity, 0)
}

func TestProductSearch_PrefixLiteral_Postgres(t *testing.T) {
	pool := openTestPool(t)
	p := seedProduct(t, pool, 1)
	repo := NewProductRepository(pool)

	found, err := repo.SearchByNamePrefix(context.Background(), "JABON it "+p.Name[len("Jabon IT "):], 5)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, p.ID, found[0].ID)

	none, err := repo.SearchByNamePrefix(context.Background(), "%", 5)
	require.NoError(t, err)
	for _, x := range none {
		assert.Contains(t, x.Name, "%")
	}
}

func TestProductUpdate_NoEscribeCantidad_Postgres(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	repo := NewProductRepository(pool)
	p := seedProduct(t, pool, 5)

	stale, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateQuantity(ctx, p.ID, 1))

	stale.Name = stale.Name + " editado"
	require.NoError(t, repo.Update(ctx, stale))
	assert.Equal(t, 1, stale.Quantity)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)
	assert.Equal(t, stale.Name, got.Name)
}
