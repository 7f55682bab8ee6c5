package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleItem línea de una venta, identificada por su posición en Sale.Items.
// Quantity es fijo; los precios solo cambian por recálculo retroactivo y Returned pasa de false a true una sola vez.
type SaleItem struct {
	ProductID      string
	Name           string
	Quantity       int
	PurchasePrice  decimal.Decimal
	SellingPrice   decimal.Decimal
	Returned       bool
	ReturnedAt     *time.Time
	ReturnedBy     string
	ReturnedByRole string
}

// LineTotal precio de venta por cantidad.
func (i SaleItem) LineTotal() decimal.Decimal {
	return i.SellingPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// LineCost precio de compra por cantidad.
func (i SaleItem) LineCost() decimal.Decimal {
	return i.PurchasePrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Profit (venta - compra) * cantidad.
func (i SaleItem) Profit() decimal.Decimal {
	return i.LineTotal().Sub(i.LineCost())
}

// Sale venta registrada en el libro. Nunca se borra.
// TotalAmount se calcula una vez al cobrar y no se recalcula con devoluciones ni recálculos.
type Sale struct {
	ID            string
	Items         []SaleItem
	TotalAmount   decimal.Decimal
	CreatedBy     string
	CreatedByName string
	CreatedByRole string
	CreatedAt     time.Time
}

// Clone copia profunda (los ítems y sus punteros no se comparten).
func (s *Sale) Clone() *Sale {
	if s == nil {
		return nil
	}
	out := *s
	out.Items = CloneItems(s.Items)
	return &out
}

// CloneItems copia profunda de una lista de ítems.
func CloneItems(items []SaleItem) []SaleItem {
	out := make([]SaleItem, len(items))
	copy(out, items)
	for i := range out {
		if out[i].ReturnedAt != nil {
			t := *out[i].ReturnedAt
			out[i].ReturnedAt = &t
		}
	}
	return out
}

// RepriceItems devuelve una copia de items con los precios del producto actualizados en las líneas
// no devueltas cuyo precio difiere. changed es false si no había nada que reescribir.
// Cantidades, estado de devolución y líneas de otros productos no se tocan.
func RepriceItems(items []SaleItem, productID string, purchase, selling decimal.Decimal) (out []SaleItem, changed bool) {
	out = CloneItems(items)
	for i := range out {
		it := &out[i]
		if it.ProductID != productID || it.Returned {
			continue
		}
		if it.PurchasePrice.Equal(purchase) && it.SellingPrice.Equal(selling) {
			continue
		}
		it.PurchasePrice = purchase
		it.SellingPrice = selling
		changed = true
	}
	return out, changed
}
