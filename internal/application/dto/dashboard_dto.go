package dto

// DashboardSummaryDTO respuesta de GET /api/dashboard/summary.
// Ventas de hoy y del mes en curso; la valorización de stock solo se incluye para admin.
type DashboardSummaryDTO struct {
	Today     SalesSummaryResponse  `json:"today"`
	Month     SalesSummaryResponse  `json:"month"`
	Stock     *StockSummaryResponse `json:"stock,omitempty"`
	LowStock  []ProductResponse     `json:"low_stock"`
	DateLabel string                `json:"date_label"` // ej: "Febrero 2026"
}
