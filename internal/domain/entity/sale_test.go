package entity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSaleItem_Profit(t *testing.T) {
	it := SaleItem{Quantity: 3, PurchasePrice: decimal.NewFromFloat(1.5), SellingPrice: decimal.NewFromInt(2)}
	assert.True(t, it.LineTotal().Equal(decimal.NewFromInt(6)))
	assert.True(t, it.Profit().Equal(decimal.NewFromFloat(1.5)))
}

func TestSale_CloneNoCompartePunteros(t *testing.T) {
	now := time.Now()
	s := &Sale{ID: "s1", Items: []SaleItem{{ProductID: "p1", Returned: true, ReturnedAt: &now}}}

	c := s.Clone()
	c.Items[0].Name = "otro"
	later := now.Add(time.Hour)
	*c.Items[0].ReturnedAt = later

	assert.Equal(t, "", s.Items[0].Name)
	assert.True(t, s.Items[0].ReturnedAt.Equal(now))
}

func TestActorFromProfile_UsaEmailSiNoHayNombre(t *testing.T) {
	a := ActorFromProfile(&UserProfile{ID: "u1", Email: "a@b.c", Role: RoleAdmin})
	assert.Equal(t, "a@b.c", a.DisplayName)
	assert.True(t, a.IsAdmin())
	assert.False(t, Actor{Role: RoleShopkeeper}.IsAdmin())
}

func TestRepriceItems_SoloLineasVigentesDelProducto(t *testing.T) {
	items := []SaleItem{
		{ProductID: "p1", Quantity: 2, PurchasePrice: decimal.NewFromInt(5), SellingPrice: decimal.NewFromInt(9)},
		{ProductID: "p2", Quantity: 1, PurchasePrice: decimal.NewFromInt(5), SellingPrice: decimal.NewFromInt(9)},
		{ProductID: "p1", Quantity: 3, PurchasePrice: decimal.NewFromInt(5), SellingPrice: decimal.NewFromInt(9), Returned: true},
	}

	out, changed := RepriceItems(items, "p1", decimal.NewFromInt(6), decimal.NewFromInt(10))
	assert.True(t, changed)
	assert.True(t, out[0].SellingPrice.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 2, out[0].Quantity)
	assert.True(t, out[1].SellingPrice.Equal(decimal.NewFromInt(9)), "otro producto intacto")
	assert.True(t, out[2].SellingPrice.Equal(decimal.NewFromInt(9)), "línea devuelta conserva su precio")
	assert.True(t, out[2].Returned)
	assert.True(t, items[0].SellingPrice.Equal(decimal.NewFromInt(9)), "no muta la entrada")

	_, changed = RepriceItems(out, "p1", decimal.NewFromInt(6), decimal.NewFromInt(10))
	assert.False(t, changed, "segunda pasada no cambia nada")
}
