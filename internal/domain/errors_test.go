package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"carrito vacío", ErrEmptyCart, KindValidation},
		{"sin actor envuelto", fmt.Errorf("checkout: %w", ErrMissingActor), KindValidation},
		{"stock insuficiente", &InsufficientStockError{Name: "Leche", Available: 2, Requested: 3}, KindConsistency},
		{"producto no existe", &ProductNotFoundError{ProductID: "p1"}, KindConsistency},
		{"ya devuelto", ErrAlreadyReturned, KindConsistency},
		{"transitorio", fmt.Errorf("begin: %w", ErrTransient), KindTransient},
		{"parcial", &PartialBatchError{ProductID: "p1"}, KindPartial},
		{"desconocido", errors.New("boom"), KindInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestInsufficientStockError_Mensaje(t *testing.T) {
	err := fmt.Errorf("checkout: %w", &InsufficientStockError{ProductID: "p1", Name: "Leche", Available: 1, Requested: 3})

	var ise *InsufficientStockError
	assert.True(t, errors.As(err, &ise))
	assert.Equal(t, 1, ise.Available)
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Contains(t, err.Error(), "Leche")
	assert.Contains(t, err.Error(), "Solo quedan 1")
}

func TestPartialBatchError_ListaLotes(t *testing.T) {
	err := &PartialBatchError{
		ProductID: "p1",
		Committed: 2,
		Failed:    []BatchError{{Index: 1, SaleIDs: []string{"s1", "s2"}, Err: errors.New("timeout")}},
	}
	assert.Contains(t, err.Error(), "lote 1 (2 ventas): timeout")
	assert.True(t, errors.Is(err, ErrPartialBatch))
}

func TestNegativeAmount(t *testing.T) {
	assert.NoError(t, NegativeAmount("precio", decimal.Zero))
	assert.ErrorIs(t, NegativeAmount("precio", decimal.NewFromInt(-1)), ErrInvalidInput)
}
