package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/shopflow-api/internal/domain/entity"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func item(qty int, sell, cost float64, returned bool) entity.SaleItem {
	return entity.SaleItem{ProductID: "p1", Name: "Arroz", Quantity: qty, SellingPrice: d(sell), PurchasePrice: d(cost), Returned: returned}
}

// ─── Entradas vacías ──────────────────────────────────────────────────────────

func TestVacio_DevuelveCeros(t *testing.T) {
	st := StockSummary(nil)
	assert.Equal(t, 0, st.TotalStock)
	assert.True(t, st.TotalBuyingCost.IsZero())

	sum := SalesSummary(nil, Filter{})
	assert.True(t, sum.Revenue.IsZero())
	assert.True(t, sum.Profit.IsZero())
	assert.Empty(t, DailyBuckets(nil, time.UTC))
	assert.True(t, EnrichSale(nil).Revenue.IsZero())
}

// ─── Stock ────────────────────────────────────────────────────────────────────

func TestStockSummary(t *testing.T) {
	st := StockSummary([]*entity.Product{
		{Quantity: 3, PurchasePrice: d(2), SellingPrice: d(5)},
		{Quantity: 0, PurchasePrice: d(100), SellingPrice: d(200)},
		{Quantity: 2, PurchasePrice: d(1.5), SellingPrice: d(4)},
	})
	assert.Equal(t, 3, st.ProductCount)
	assert.Equal(t, 5, st.TotalStock)
	assert.True(t, st.TotalBuyingCost.Equal(d(9)), st.TotalBuyingCost.String())
	assert.True(t, st.TotalSellingValue.Equal(d(23)), st.TotalSellingValue.String())
}

// ─── Ventas ───────────────────────────────────────────────────────────────────

func TestSalesSummary_ExcluyeDevueltos(t *testing.T) {
	// 2 unidades a 10 (costo 6), una devuelta después
	day := time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC)
	sales := []*entity.Sale{{
		ID:        "s1",
		CreatedAt: day,
		Items:     []entity.SaleItem{item(1, 10, 6, false), item(1, 10, 6, true)},
	}}

	sum := SalesSummary(sales, Filter{})
	assert.True(t, sum.Revenue.Equal(d(10)), "revenue = 10, no 20")
	assert.True(t, sum.Profit.Equal(d(4)), "profit = 4, no 8")
	assert.Equal(t, 1, sum.ItemsSold)
	assert.Equal(t, 1, sum.ReturnedItems)

	buckets := DailyBuckets(sales, time.UTC)
	require.Len(t, buckets, 1)
	assert.True(t, buckets[0].Revenue.Equal(d(10)))
	assert.True(t, buckets[0].Profit.Equal(d(4)))
	assert.Equal(t, "Mar 5", buckets[0].Label)
}

func TestSalesSummary_Filtro(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sales := []*entity.Sale{
		{ID: "a", CreatedBy: "u1", CreatedAt: base, Items: []entity.SaleItem{item(1, 5, 1, false)}},
		{ID: "b", CreatedBy: "u2", CreatedAt: base.Add(24 * time.Hour), Items: []entity.SaleItem{item(2, 5, 1, false)}},
		{ID: "c", CreatedBy: "u1", CreatedAt: base.Add(72 * time.Hour), Items: []entity.SaleItem{item(3, 5, 1, false)}},
	}

	sum := SalesSummary(sales, Filter{From: base, To: base.Add(48 * time.Hour)})
	assert.Equal(t, 2, sum.SaleCount)
	assert.True(t, sum.Revenue.Equal(d(15)))

	sum = SalesSummary(sales, Filter{CreatedBy: "u1"})
	assert.Equal(t, 2, sum.SaleCount)
	assert.Equal(t, 4, sum.ItemsSold)
}

func TestDailyBuckets_FechaLocalYOrden(t *testing.T) {
	bogota := time.FixedZone("COT", -5*3600)
	sales := []*entity.Sale{
		// 2024-03-02 03:00 UTC = 2024-03-01 22:00 local
		{ID: "tarde", CreatedAt: time.Date(2024, 3, 2, 3, 0, 0, 0, time.UTC), Items: []entity.SaleItem{item(1, 3, 1, false)}},
		{ID: "antes", CreatedAt: time.Date(2024, 2, 28, 15, 0, 0, 0, time.UTC), Items: []entity.SaleItem{item(1, 7, 2, false)}},
		{ID: "mismo", CreatedAt: time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC), Items: []entity.SaleItem{item(1, 1, 1, false)}},
	}

	buckets := DailyBuckets(sales, bogota)
	require.Len(t, buckets, 2)
	assert.Equal(t, "2024-02-28", buckets[0].Date)
	assert.Equal(t, "2024-03-01", buckets[1].Date)
	assert.Equal(t, 2, buckets[1].SaleCount)
	assert.True(t, buckets[1].Revenue.Equal(d(4)))
	assert.True(t, buckets[1].Profit.Equal(d(2)))
}

func TestEnrichSale_TachaDevueltos(t *testing.T) {
	v := EnrichSale(&entity.Sale{Items: []entity.SaleItem{item(2, 10, 6, false), item(1, 4, 1, true)}})
	require.Len(t, v.Items, 2)
	assert.False(t, v.Items[0].StruckThrough)
	assert.True(t, v.Items[1].StruckThrough)
	assert.True(t, v.Items[1].LineTotal.Equal(d(4)), "la línea devuelta conserva su total para auditoría")
	assert.True(t, v.Revenue.Equal(d(20)))
	assert.True(t, v.Profit.Equal(d(8)))
	assert.Equal(t, 1, v.ReturnedItems)
}
