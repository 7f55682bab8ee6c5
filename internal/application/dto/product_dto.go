package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
// PurchasePrice solo lo puede fijar un admin; para el tendero se guarda en 0.
type CreateProductRequest struct {
	Name          string           `json:"name" validate:"required,min=1,max=200"`
	Barcode       string           `json:"barcode"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal  `json:"selling_price"`
	Quantity      int              `json:"quantity" validate:"min=0"`
}

// UpdateProductRequest edición parcial (campos nil no cambian).
type UpdateProductRequest struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Barcode       *string          `json:"barcode"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
	Quantity      *int             `json:"quantity"`
}

// ProductResponse salida de un producto. PurchasePrice se omite para el tendero.
type ProductResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Barcode       string           `json:"barcode,omitempty"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
	SellingPrice  decimal.Decimal  `json:"selling_price"`
	Quantity      int              `json:"quantity"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ProductListResponse lista de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Total int               `json:"total"`
}

// ProductUpdateResponse producto editado más el resultado del recálculo que disparó (si hubo cambio de precio).
type ProductUpdateResponse struct {
	Product          ProductResponse      `json:"product"`
	Recalculation    *RecalculateResponse `json:"recalculation,omitempty"`
	RecalculationErr string               `json:"recalculation_error,omitempty"`
}

// RecalculateRequest precios a propagar. Si faltan se usan los vigentes del producto.
type RecalculateRequest struct {
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
}

// RecalculateResponse conteos del recálculo retroactivo.
type RecalculateResponse struct {
	ProductID     string `json:"product_id"`
	Scanned       int    `json:"scanned"`
	Updated       int    `json:"updated"`
	FailedBatches int    `json:"failed_batches"`
}
