package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StockErrorResponse error de stock con el detalle para corregir el carrito.
type StockErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	ProductID string `json:"product_id"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

// FailedBatchResponse lote del recálculo que no se confirmó.
type FailedBatchResponse struct {
	Index   int      `json:"index"`
	SaleIDs []string `json:"sale_ids"`
	Error   string   `json:"error"`
}

// PartialBatchResponse recálculo aplicado parcialmente (207).
type PartialBatchResponse struct {
	Code      string                `json:"code"`
	Message   string                `json:"message"`
	Committed int                   `json:"committed_batches"`
	Failed    []FailedBatchResponse `json:"failed"`
	Result    *RecalculateResponse  `json:"result,omitempty"`
}
