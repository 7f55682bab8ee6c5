package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo.
// Quantity nunca es negativo: solo Checkout lo descuenta y solo una devolución lo repone.
type Product struct {
	ID            string
	Name          string
	Barcode       string // opcional, no es único
	PurchasePrice decimal.Decimal
	SellingPrice  decimal.Decimal
	Quantity      int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// InStock indica si queda al menos una unidad.
func (p *Product) InStock() bool {
	return p != nil && p.Quantity > 0
}

// NameKey clave normalizada para búsqueda por prefijo de nombre.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// PricesDiffer indica si el par de precios dado difiere del vigente en el producto.
func (p *Product) PricesDiffer(purchase, selling decimal.Decimal) bool {
	return !p.PurchasePrice.Equal(purchase) || !p.SellingPrice.Equal(selling)
}
