// Package analytics contiene el resumen del tablero principal.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/shopflow-api/internal/application/dto"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
	"github.com/jhoicas/shopflow-api/internal/domain/report"
	"github.com/jhoicas/shopflow-api/internal/domain/repository"
)

const (
	lowStockThreshold = 5 // unidades
	lowStockLimit     = 10
)

// DashboardUseCase genera el resumen del día y del mes en curso.
//
// Fuente de datos: repositorios de ventas y productos (solo lectura).
// Los cálculos se delegan en domain/report.
type DashboardUseCase struct {
	saleRepo    repository.SaleRepository
	productRepo repository.ProductRepository
	loc         *time.Location
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(saleRepo repository.SaleRepository, productRepo repository.ProductRepository, loc *time.Location) *DashboardUseCase {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardUseCase{saleRepo: saleRepo, productRepo: productRepo, loc: loc}
}

// GetSummary construye el DashboardSummaryDTO para el actor.
//
// Dos lecturas en paralelo:
//  1. ventas del mes (de ahí sale también el día de hoy)
//  2. catálogo completo → valorización y productos con poco stock
//
// El tendero ve solo sus ventas y no recibe utilidad ni valorización.
func (uc *DashboardUseCase) GetSummary(ctx context.Context, actor entity.Actor) (*dto.DashboardSummaryDTO, error) {
	now := time.Now().In(uc.loc)

	// ── Rangos de fecha ────────────────────────────────────────────────────────
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, uc.loc)
	todayEnd := todayStart.AddDate(0, 0, 1).Add(-time.Nanosecond)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, uc.loc)

	createdBy := ""
	if !actor.IsAdmin() {
		createdBy = actor.ID
	}

	// ── Goroutines para paralelizar las lecturas ──────────────────────────────
	type salesResult struct {
		sales []*entity.Sale
		err   error
	}
	type productsResult struct {
		products []*entity.Product
		err      error
	}
	salesCh := make(chan salesResult, 1)
	productsCh := make(chan productsResult, 1)

	go func() {
		s, err := uc.saleRepo.ListByDateRange(ctx, monthStart, todayEnd, createdBy)
		salesCh <- salesResult{s, err}
	}()
	go func() {
		p, err := uc.productRepo.List(ctx)
		productsCh <- productsResult{p, err}
	}()

	month := <-salesCh
	products := <-productsCh
	if month.err != nil {
		return nil, fmt.Errorf("dashboard: ventas del mes: %w", month.err)
	}
	if products.err != nil {
		return nil, fmt.Errorf("dashboard: productos: %w", products.err)
	}

	today := report.SalesSummary(month.sales, report.Filter{From: todayStart, To: todayEnd})
	monthSum := report.SalesSummary(month.sales, report.Filter{})

	out := &dto.DashboardSummaryDTO{
		Today:     summary(today, actor),
		Month:     summary(monthSum, actor),
		LowStock:  lowStock(products.products, actor),
		DateLabel: monthLabel(now),
	}
	if actor.IsAdmin() {
		st := report.StockSummary(products.products)
		out.Stock = &dto.StockSummaryResponse{
			ProductCount:      st.ProductCount,
			TotalStock:        st.TotalStock,
			TotalBuyingCost:   st.TotalBuyingCost.Round(2),
			TotalSellingValue: st.TotalSellingValue.Round(2),
		}
	}
	return out, nil
}

func summary(s report.Summary, actor entity.Actor) dto.SalesSummaryResponse {
	out := dto.SalesSummaryResponse{
		SaleCount:     s.SaleCount,
		ItemsSold:     s.ItemsSold,
		ReturnedItems: s.ReturnedItems,
		Revenue:       s.Revenue.Round(2),
	}
	if actor.IsAdmin() {
		p := s.Profit.Round(2)
		out.Profit = &p
	}
	return out
}

// lowStock productos con menos de lowStockThreshold unidades, de menor a mayor stock.
func lowStock(products []*entity.Product, actor entity.Actor) []dto.ProductResponse {
	var low []*entity.Product
	for _, p := range products {
		if p.Quantity < lowStockThreshold {
			low = append(low, p)
		}
	}
	sort.SliceStable(low, func(i, j int) bool { return low[i].Quantity < low[j].Quantity })
	if len(low) > lowStockLimit {
		low = low[:lowStockLimit]
	}
	out := make([]dto.ProductResponse, 0, len(low))
	for _, p := range low {
		r := dto.ProductResponse{
			ID:           p.ID,
			Name:         p.Name,
			Barcode:      p.Barcode,
			SellingPrice: p.SellingPrice,
			Quantity:     p.Quantity,
			CreatedAt:    p.CreatedAt,
			UpdatedAt:    p.UpdatedAt,
		}
		if actor.IsAdmin() {
			pp := p.PurchasePrice
			r.PurchasePrice = &pp
		}
		out = append(out, r)
	}
	return out
}

// monthLabel devuelve una etiqueta legible del mes, ej: "Febrero 2026".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}
