package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrUserNotFound      = errors.New("usuario no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")

	ErrEmptyCart       = errors.New("el carrito está vacío")
	ErrMissingActor    = errors.New("no hay usuario autenticado")
	ErrProductNotFound = errors.New("producto no encontrado")
	ErrSaleNotFound    = errors.New("venta no encontrada")
	ErrAlreadyReturned = errors.New("el ítem ya fue devuelto")
	ErrTransient       = errors.New("el almacén no está disponible, intente de nuevo")
	ErrPartialBatch    = errors.New("recálculo aplicado parcialmente")
)

// Kind clasifica un error para decidir cómo se reporta al cliente.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConsistency
	KindTransient
	KindPartial
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConsistency:
		return "consistency"
	case KindTransient:
		return "transient"
	case KindPartial:
		return "partial"
	default:
		return "internal"
	}
}

// KindOf devuelve la clase del error. Errores desconocidos son KindInternal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrPartialBatch):
		return KindPartial
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrMissingActor):
		return KindValidation
	case errors.Is(err, ErrProductNotFound),
		errors.Is(err, ErrSaleNotFound),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrAlreadyReturned),
		errors.Is(err, ErrConflict):
		return KindConsistency
	case errors.Is(err, ErrTransient):
		return KindTransient
	default:
		return KindInternal
	}
}

// ProductNotFoundError un producto del carrito ya no existe en el catálogo.
type ProductNotFoundError struct {
	ProductID string
	Name      string
}

func (e *ProductNotFoundError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("Producto %s no encontrado.", e.Name)
	}
	return fmt.Sprintf("Producto %s no encontrado.", e.ProductID)
}

func (e *ProductNotFoundError) Unwrap() error { return ErrProductNotFound }

// InsufficientStockError el stock vivo no alcanza para la cantidad pedida.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("No hay stock suficiente de %s. Solo quedan %d.", e.Name, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// BatchError un lote de reescritura que no se pudo confirmar.
type BatchError struct {
	Index   int
	SaleIDs []string
	Err     error
}

func (e BatchError) Error() string {
	return fmt.Sprintf("lote %d (%d ventas): %v", e.Index, len(e.SaleIDs), e.Err)
}

// PartialBatchError algunos lotes del recálculo fallaron; los demás quedaron aplicados.
type PartialBatchError struct {
	ProductID string
	Committed int
	Failed    []BatchError
}

func (e *PartialBatchError) Error() string {
	parts := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("%s: producto %s, %d lotes confirmados, %d fallidos [%s]",
		ErrPartialBatch.Error(), e.ProductID, e.Committed, len(e.Failed), strings.Join(parts, "; "))
}

func (e *PartialBatchError) Unwrap() error { return ErrPartialBatch }

// NegativeAmount valida que un monto no sea negativo.
func NegativeAmount(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return fmt.Errorf("%w: %s no puede ser negativo", ErrInvalidInput, field)
	}
	return nil
}
