package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/shopflow-api/internal/application/checkout"
	"github.com/jhoicas/shopflow-api/internal/application/dto"
	"github.com/jhoicas/shopflow-api/internal/application/recalculation"
	"github.com/jhoicas/shopflow-api/internal/application/returns"
	"github.com/jhoicas/shopflow-api/internal/application/usecase"
	"github.com/jhoicas/shopflow-api/internal/domain"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
	"github.com/jhoicas/shopflow-api/internal/domain/repository"
	"github.com/jhoicas/shopflow-api/internal/infrastructure/memory"
)

var (
	admin   = entity.Actor{ID: "u-admin", DisplayName: "Admin", Role: entity.RoleAdmin}
	cajero  = entity.Actor{ID: "u-caja", DisplayName: "Caja", Role: entity.RoleShopkeeper}
	cajero2 = entity.Actor{ID: "u-caja2", DisplayName: "Caja 2", Role: entity.RoleShopkeeper}
)

type app struct {
	store    *memory.Store
	products *usecase.ProductUseCase
	sales    *usecase.SaleUseCase
	reports  *usecase.ReportUseCase
}

func newApp() *app {
	store := memory.NewStore()
	recalc := recalculation.NewRecalculateUseCase(store.Sales(), nil, nil, 0)
	return &app{
		store:    store,
		products: usecase.NewProductUseCase(store.Products(), store, recalc, nil, nil),
		sales: usecase.NewSaleUseCase(
			checkout.NewCheckoutUseCase(store, nil, nil),
			returns.NewReturnUseCase(store, nil, nil),
			store.Sales(), time.UTC),
		reports: usecase.NewReportUseCase(store.Products(), store.Sales(), time.UTC),
	}
}

func dp(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func (a *app) create(t *testing.T, name, barcode string, cost, sell int64, qty int) *dto.ProductResponse {
	t.Helper()
	p, err := a.products.Create(context.Background(), dto.CreateProductRequest{
		Name: name, Barcode: barcode, PurchasePrice: dp(cost), SellingPrice: decimal.NewFromInt(sell), Quantity: qty,
	}, admin)
	require.NoError(t, err)
	return p
}

func checkoutReq(p *dto.ProductResponse, qty int) dto.CheckoutRequest {
	return dto.CheckoutRequest{Items: []dto.CheckoutItemRequest{{ProductID: p.ID, Name: p.Name, Quantity: qty, SellingPrice: p.SellingPrice}}}
}

// ─── Productos ────────────────────────────────────────────────────────────────

func TestProducts_TenderoNoFijaNiVePrecioDeCompra(t *testing.T) {
	ctx := context.Background()
	a := newApp()

	p, err := a.products.Create(ctx, dto.CreateProductRequest{Name: "Jabón", PurchasePrice: dp(9), SellingPrice: decimal.NewFromInt(20), Quantity: 3}, cajero)
	require.NoError(t, err)
	assert.Nil(t, p.PurchasePrice)

	asAdmin, err := a.products.GetByID(ctx, p.ID, admin)
	require.NoError(t, err)
	require.NotNil(t, asAdmin.PurchasePrice)
	assert.True(t, asAdmin.PurchasePrice.IsZero(), "creado por tendero: compra en 0")

	_, err = a.products.Update(ctx, p.ID, dto.UpdateProductRequest{PurchasePrice: dp(5)}, cajero)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	assert.ErrorIs(t, a.products.Delete(ctx, p.ID, cajero), domain.ErrForbidden)
}

func TestProducts_BusquedaCodigoYPrefijoSinDuplicados(t *testing.T) {
	ctx := context.Background()
	a := newApp()
	a.create(t, "Pan blanco", "123", 1, 2, 5)
	a.create(t, "Panela", "999", 1, 2, 5)
	a.create(t, "123 Cola", "", 1, 2, 5)
	a.create(t, "Arroz", "pan", 1, 2, 5)

	res, err := a.products.Search(ctx, "Pan", cajero)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)

	res, err = a.products.Search(ctx, "123", cajero)
	require.NoError(t, err)
	require.Equal(t, 2, res.Total)
	assert.Equal(t, "Pan blanco", res.Items[0].Name, "coincidencia por código primero")
	assert.Equal(t, "123 Cola", res.Items[1].Name)

	res, err = a.products.Search(ctx, "  ", cajero)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
}

func TestProducts_EdicionDePrecioDisparaRecalculo(t *testing.T) {
	ctx := context.Background()
	a := newApp()
	p := a.create(t, "Leche", "", 6, 10, 10)
	_, err := a.sales.Checkout(ctx, checkoutReq(p, 2), cajero)
	require.NoError(t, err)
	_, err = a.sales.Checkout(ctx, checkoutReq(p, 1), cajero)
	require.NoError(t, err)

	resp, err := a.products.Update(ctx, p.ID, dto.UpdateProductRequest{PurchasePrice: dp(7), SellingPrice: dp(12)}, admin)
	require.NoError(t, err)
	require.NotNil(t, resp.Recalculation)
	assert.Equal(t, 2, resp.Recalculation.Updated)
	assert.Empty(t, resp.RecalculationErr)

	// editar solo el nombre no recalcula
	name := "Leche entera"
	resp, err = a.products.Update(ctx, p.ID, dto.UpdateProductRequest{Name: &name}, admin)
	require.NoError(t, err)
	assert.Nil(t, resp.Recalculation)

	manual, err := a.products.Recalculate(ctx, p.ID, dto.RecalculateRequest{}, admin)
	require.NoError(t, err)
	assert.Equal(t, 0, manual.Updated, "idempotente con los precios vigentes")

	_, err = a.products.Recalculate(ctx, p.ID, dto.RecalculateRequest{}, cajero)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// beforeEdit ejecuta hook una sola vez, en la primera lectura o transacción de la edición.
type beforeEdit struct {
	hook func()
}

func (b *beforeEdit) fire() {
	if h := b.hook; h != nil {
		b.hook = nil
		h()
	}
}

type hookedRepo struct {
	repository.ProductRepository
	b *beforeEdit
}

func (r hookedRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	r.b.fire()
	return r.ProductRepository.GetByID(ctx, id)
}

type hookedTx struct {
	store *memory.Store
	b     *beforeEdit
}

func (r hookedTx) Run(ctx context.Context, fn func(repository.ProductRepository, repository.SaleRepository) error) error {
	r.b.fire()
	return r.store.Run(ctx, fn)
}

func TestProducts_EdicionSinCantidadNoPisaUnCobroConcurrente(t *testing.T) {
	ctx := context.Background()
	a := newApp()
	p := a.create(t, "Jabón", "", 10, 20, 4)

	// el cobro confirma entre que la edición empieza y escribe
	b := &beforeEdit{hook: func() {
		_, err := a.sales.Checkout(ctx, checkoutReq(p, 4), cajero)
		require.NoError(t, err)
	}}
	products := usecase.NewProductUseCase(hookedRepo{a.store.Products(), b}, hookedTx{a.store, b}, nil, nil, nil)

	name := "Jabón de coco"
	resp, err := products.Update(ctx, p.ID, dto.UpdateProductRequest{Name: &name}, admin)
	require.NoError(t, err)
	assert.Nil(t, b.hook, "el cobro se ejecutó")
	assert.Equal(t, name, resp.Product.Name)
	assert.Equal(t, 0, resp.Product.Quantity)

	got, err := a.store.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity, "las 4 unidades vendidas no vuelven al stock")
	assert.Equal(t, name, got.Name)

	_, err = a.sales.Checkout(ctx, checkoutReq(p, 1), cajero)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 0, stockErr.Available)
}

func TestProducts_EdicionExplicitaDeStock(t *testing.T) {
	ctx := context.Background()
	a := newApp()
	p := a.create(t, "Arroz", "", 3, 5, 2)

	qty := 9
	resp, err := a.products.Update(ctx, p.ID, dto.UpdateProductRequest{Quantity: &qty}, admin)
	require.NoError(t, err)
	assert.Equal(t, 9, resp.Product.Quantity)

	neg := -1
	_, err = a.products.Update(ctx, p.ID, dto.UpdateProductRequest{Quantity: &neg}, admin)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = a.products.Update(ctx, "nope", dto.UpdateProductRequest{Quantity: &qty}, admin)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := a.store.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Quantity)
}

func TestProducts_Validacion(t *testing.T) {
	ctx := context.Background()
	a := newApp()
	_, err := a.products.Create(ctx, dto.CreateProductRequest{Name: " ", SellingPrice: decimal.NewFromInt(1)}, admin)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = a.products.Create(ctx, dto.CreateProductRequest{Name: "X", SellingPrice: decimal.Zero}, admin)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = a.products.GetByID(ctx, "nope", admin)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ─── Ventas ───────────────────────────────────────────────────────────────────

func TestSales_VisibilidadPorRol(t *testing.T) {
	ctx := context.Background()
	a := newApp()
	p := a.create(t, "Leche", "", 6, 10, 10)

	mine, err := a.sales.Checkout(ctx, checkoutReq(p, 1), cajero)
	require.NoError(t, err)
	assert.Nil(t, mine.Profit, "el tendero no ve utilidad")
	assert.Nil(t, mine.Items[0].PurchasePrice)
	_, err = a.sales.Checkout(ctx, checkoutReq(p, 2), cajero2)
	require.NoError(t, err)

	list, err := a.sales.Today(ctx, cajero)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, mine.ID, list.Items[0].ID)
	assert.Nil(t, list.Summary.Profit)

	all, err := a.sales.Today(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
	require.NotNil(t, all.Summary.Profit)
	assert.True(t, all.Summary.Profit.Equal(decimal.NewFromInt(12)))

	_, err = a.sales.GetByID(ctx, mine.ID, cajero2)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = a.sales.GetByID(ctx, "nope", admin)
	assert.ErrorIs(t, err, domain.ErrSaleNotFound)
}

func TestSales_DevolucionExcluyeDelResumen(t *testing.T) {
	ctx := context.Background()
	a := newApp()
	p := a.create(t, "Pan", "", 6, 10, 10)
	req := dto.CheckoutRequest{Items: []dto.CheckoutItemRequest{
		{ProductID: p.ID, Name: p.Name, Quantity: 1, SellingPrice: p.SellingPrice},
		{ProductID: p.ID, Name: p.Name, Quantity: 1, SellingPrice: p.SellingPrice},
	}}
	sale, err := a.sales.Checkout(ctx, req, cajero)
	require.NoError(t, err)

	got, err := a.sales.Return(ctx, sale.ID, 1, dto.ReturnRequest{}, admin)
	require.NoError(t, err)
	assert.True(t, got.Items[1].Returned)
	assert.True(t, got.Revenue.Equal(decimal.NewFromInt(10)))
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(20)))

	rep, err := a.reports.ProfitReport(ctx, time.Time{}, time.Time{}, admin)
	require.NoError(t, err)
	assert.True(t, rep.Summary.Revenue.Equal(decimal.NewFromInt(10)))
	assert.True(t, rep.Summary.Profit.Equal(decimal.NewFromInt(4)))
	require.Len(t, rep.Daily, 1)
	assert.True(t, rep.Daily[0].Profit.Equal(decimal.NewFromInt(4)))
}

// ─── Reportes ─────────────────────────────────────────────────────────────────

func TestReports_SoloAdmin(t *testing.T) {
	ctx := context.Background()
	a := newApp()
	a.create(t, "Pan", "", 2, 5, 3)

	st, err := a.reports.StockSummary(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalStock)
	assert.True(t, st.TotalBuyingCost.Equal(decimal.NewFromInt(6)))
	assert.True(t, st.TotalSellingValue.Equal(decimal.NewFromInt(15)))

	_, err = a.reports.StockSummary(ctx, cajero)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = a.reports.ProfitReport(ctx, time.Time{}, time.Time{}, cajero)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDayRange(t *testing.T) {
	loc := time.FixedZone("COT", -5*3600)
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) // 29 feb 19:00 local
	to := time.Date(2024, 3, 2, 12, 0, 0, 0, loc)

	start, end, err := usecase.DayRange(from, to, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2024, 3, 2, 23, 59, 59, 999999999, loc), end)

	_, _, err = usecase.DayRange(to, from, loc)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
