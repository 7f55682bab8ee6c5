package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutItemRequest línea del carrito tal como la vio el cliente. El costo no viaja: lo fija el catálogo.
type CheckoutItemRequest struct {
	ProductID    string          `json:"product_id" validate:"required"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity" validate:"min=1"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// CheckoutRequest carrito a cobrar.
type CheckoutRequest struct {
	Items []CheckoutItemRequest `json:"items" validate:"required,min=1"`
}

// ReturnRequest datos opcionales de la devolución; si vienen deben coincidir con la línea.
type ReturnRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// SaleItemResponse línea de venta. Campos de costo y utilidad solo para admin.
type SaleItemResponse struct {
	Index          int              `json:"index"`
	ProductID      string           `json:"product_id"`
	Name           string           `json:"name"`
	Quantity       int              `json:"quantity"`
	SellingPrice   decimal.Decimal  `json:"selling_price"`
	PurchasePrice  *decimal.Decimal `json:"purchase_price,omitempty"`
	LineTotal      decimal.Decimal  `json:"line_total"`
	Profit         *decimal.Decimal `json:"profit,omitempty"`
	Returned       bool             `json:"returned"`
	ReturnedAt     *time.Time       `json:"returned_at,omitempty"`
	ReturnedBy     string           `json:"returned_by,omitempty"`
	ReturnedByRole string           `json:"returned_by_role,omitempty"`
}

// SaleResponse venta. Revenue/Profit excluyen líneas devueltas; TotalAmount es el cobrado al momento de la venta.
type SaleResponse struct {
	ID            string             `json:"id"`
	Items         []SaleItemResponse `json:"items"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	Revenue       decimal.Decimal    `json:"revenue"`
	Profit        *decimal.Decimal   `json:"profit,omitempty"`
	ReturnedItems int                `json:"returned_items"`
	CreatedBy     string             `json:"created_by"`
	CreatedByName string             `json:"created_by_name"`
	CreatedByRole string             `json:"created_by_role"`
	CreatedAt     time.Time          `json:"created_at"`
}

// SaleListResponse historial de ventas con sus totales.
type SaleListResponse struct {
	Items   []SaleResponse       `json:"items"`
	Summary SalesSummaryResponse `json:"summary"`
}
