package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockSummaryResponse valorización del inventario.
type StockSummaryResponse struct {
	ProductCount      int             `json:"product_count"`
	TotalStock        int             `json:"total_stock"`
	TotalBuyingCost   decimal.Decimal `json:"total_buying_cost"`
	TotalSellingValue decimal.Decimal `json:"total_selling_value"`
}

// SalesSummaryResponse totales de ventas (sin líneas devueltas). Profit solo para admin.
type SalesSummaryResponse struct {
	SaleCount     int              `json:"sale_count"`
	ItemsSold     int              `json:"items_sold"`
	ReturnedItems int              `json:"returned_items"`
	Revenue       decimal.Decimal  `json:"revenue"`
	Profit        *decimal.Decimal `json:"profit,omitempty"`
}

// DailyBucketResponse punto del gráfico diario.
type DailyBucketResponse struct {
	Date      string          `json:"date"`
	Label     string          `json:"label"`
	SaleCount int             `json:"sale_count"`
	Revenue   decimal.Decimal `json:"revenue"`
	Profit    decimal.Decimal `json:"profit"`
}

// ProfitReportResponse reporte de utilidad de un rango.
type ProfitReportResponse struct {
	From    time.Time             `json:"from"`
	To      time.Time             `json:"to"`
	Summary SalesSummaryResponse  `json:"summary"`
	Daily   []DailyBucketResponse `json:"daily"`
}
