package postgres

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/shopflow-api/internal/domain"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
)

func TestEncodeItems_PreciosComoTexto(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	items := []entity.SaleItem{
		{ProductID: "p1", Name: "Jabón", Quantity: 2, PurchasePrice: decimal.RequireFromString("1.50"), SellingPrice: decimal.RequireFromString("2.00")},
		{ProductID: "p2", Name: "Arroz", Quantity: 1, PurchasePrice: decimal.RequireFromString("3"), SellingPrice: decimal.RequireFromString("4"),
			Returned: true, ReturnedAt: &at, ReturnedBy: "u1", ReturnedByRole: entity.RoleAdmin},
	}
	raw, err := encodeItems(items)
	require.NoError(t, err)

	// el UPDATE de recálculo lee y escribe los precios como texto JSON
	var generic []map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, "1.5", generic[0]["purchase_price"])
	assert.Equal(t, false, generic[0]["returned"])
	assert.NotContains(t, generic[0], "returned_at")

	back, err := decodeItems(raw)
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.True(t, back[0].SellingPrice.Equal(items[0].SellingPrice))
	assert.True(t, back[1].Returned)
	assert.True(t, back[1].ReturnedAt.Equal(at))
}

func TestDecodeItems_JSONInvalido(t *testing.T) {
	_, err := decodeItems([]byte(`{"no":"array"}`))
	assert.Error(t, err)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_x`, escapeLike("50% off_x"))
	assert.Equal(t, `a\\b`, escapeLike(`a\b`))
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, isSerializationFailure(&pgconn.PgError{Code: "40001"}))
	assert.True(t, isSerializationFailure(&pgconn.PgError{Code: "40P01"}))
	assert.False(t, isSerializationFailure(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isCheckViolation(&pgconn.PgError{Code: "23514"}))
	assert.False(t, isConnectionError(nil))

	err := transient("commit transaction", errors.New("conn reset"))
	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.Equal(t, domain.KindTransient, domain.KindOf(err))
}
