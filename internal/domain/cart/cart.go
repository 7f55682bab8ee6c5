// Package cart modela el carrito del punto de venta. Vive solo en memoria del cliente y nunca se persiste.
//
// El tope de cantidad de cada línea es el stock capturado al agregar el producto. No se vuelve a
// consultar el stock vivo al editar cantidades: la validación real ocurre en el checkout.
package cart

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/shopflow-api/internal/domain"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
)

// ErrNotInCart el producto no está en el carrito.
var ErrNotInCart = fmt.Errorf("%w: el producto no está en el carrito", domain.ErrInvalidInput)

// Line línea lista para el checkout: snapshot del producto más la cantidad pedida.
type Line struct {
	ProductID     string
	Name          string
	SellingPrice  decimal.Decimal
	PurchasePrice decimal.Decimal
	Quantity      int
}

// Subtotal precio mostrado por cantidad.
func (l Line) Subtotal() decimal.Decimal {
	return l.SellingPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Item entrada del carrito.
type Item struct {
	Product  entity.Product // snapshot al momento de agregar
	Quantity int
}

// Ceiling stock capturado al agregar.
func (i Item) Ceiling() int { return i.Product.Quantity }

// Cart carrito ordenado por orden de inserción. No es seguro para uso concurrente.
type Cart struct {
	items []Item
}

// New crea un carrito vacío.
func New() *Cart { return &Cart{} }

// Add agrega qty unidades del producto. Si ya está en el carrito suma a la cantidad existente
// sin refrescar el snapshot.
func (c *Cart) Add(p *entity.Product, qty int) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("%w: producto requerido", domain.ErrInvalidInput)
	}
	if qty < 1 {
		return fmt.Errorf("%w: la cantidad debe ser al menos 1", domain.ErrInvalidInput)
	}
	if i := c.index(p.ID); i >= 0 {
		it := &c.items[i]
		if it.Quantity+qty > it.Ceiling() {
			return overCeiling(it.Product, it.Quantity+qty)
		}
		it.Quantity += qty
		return nil
	}
	if qty > p.Quantity {
		return overCeiling(*p, qty)
	}
	c.items = append(c.items, Item{Product: *p, Quantity: qty})
	return nil
}

// SetQuantity fija la cantidad de una línea. q < 1 quita la línea.
func (c *Cart) SetQuantity(productID string, q int) error {
	i := c.index(productID)
	if i < 0 {
		return ErrNotInCart
	}
	if q < 1 {
		c.removeAt(i)
		return nil
	}
	if q > c.items[i].Ceiling() {
		return overCeiling(c.items[i].Product, q)
	}
	c.items[i].Quantity = q
	return nil
}

// Remove quita la línea del producto. No falla si no estaba.
func (c *Cart) Remove(productID string) {
	if i := c.index(productID); i >= 0 {
		c.removeAt(i)
	}
}

// Items copia de las entradas.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Lines líneas para el checkout, en orden de inserción.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, Line{
			ProductID:     it.Product.ID,
			Name:          it.Product.Name,
			SellingPrice:  it.Product.SellingPrice,
			PurchasePrice: it.Product.PurchasePrice,
			Quantity:      it.Quantity,
		})
	}
	return out
}

// Total suma de precio de venta por cantidad.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines() {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) Len() int      { return len(c.items) }
func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// Clear vacía el carrito (tras un checkout exitoso).
func (c *Cart) Clear() { c.items = nil }

func (c *Cart) index(productID string) int {
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.items = append(c.items[:i], c.items[i+1:]...)
}

func overCeiling(p entity.Product, requested int) error {
	return &domain.InsufficientStockError{
		ProductID: p.ID,
		Name:      p.Name,
		Available: p.Quantity,
		Requested: requested,
	}
}

// IsOverCeiling indica si err es un rechazo por superar el stock capturado.
func IsOverCeiling(err error) bool {
	return errors.Is(err, domain.ErrInsufficientStock)
}
