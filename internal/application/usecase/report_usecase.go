package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/shopflow-api/internal/application/dto"
	"github.com/jhoicas/shopflow-api/internal/domain"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
	"github.com/jhoicas/shopflow-api/internal/domain/report"
	"github.com/jhoicas/shopflow-api/internal/domain/repository"
)

// ReportUseCase carga snapshots del catálogo y del libro y delega el cálculo en domain/report.
// Los reportes de stock y utilidad son solo para admin.
type ReportUseCase struct {
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	loc         *time.Location
}

// NewReportUseCase construye el caso de uso. loc nil = time.Local.
func NewReportUseCase(productRepo repository.ProductRepository, saleRepo repository.SaleRepository, loc *time.Location) *ReportUseCase {
	if loc == nil {
		loc = time.Local
	}
	return &ReportUseCase{productRepo: productRepo, saleRepo: saleRepo, loc: loc}
}

// Location zona horaria de los reportes.
func (uc *ReportUseCase) Location() *time.Location { return uc.loc }

// StockSummary valorización del inventario.
func (uc *ReportUseCase) StockSummary(ctx context.Context, actor entity.Actor) (*dto.StockSummaryResponse, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	products, err := uc.productRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar productos: %w", err)
	}
	return toStockResponse(report.StockSummary(products)), nil
}

// ProfitReport ingresos y utilidad del rango más los buckets diarios para el gráfico.
func (uc *ReportUseCase) ProfitReport(ctx context.Context, from, to time.Time, actor entity.Actor) (*dto.ProfitReportResponse, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	start, end, err := DayRange(from, to, uc.loc)
	if err != nil {
		return nil, err
	}
	sales, err := uc.saleRepo.ListByDateRange(ctx, start, end, "")
	if err != nil {
		return nil, fmt.Errorf("listar ventas: %w", err)
	}

	buckets := report.DailyBuckets(sales, uc.loc)
	daily := make([]dto.DailyBucketResponse, 0, len(buckets))
	for _, b := range buckets {
		daily = append(daily, dto.DailyBucketResponse{
			Date:      b.Date,
			Label:     b.Label,
			SaleCount: b.SaleCount,
			Revenue:   b.Revenue.Round(2),
			Profit:    b.Profit.Round(2),
		})
	}
	return &dto.ProfitReportResponse{
		From:    start,
		To:      end,
		Summary: toSummaryResponse(report.SalesSummary(sales, report.Filter{From: start, To: end}), actor),
		Daily:   daily,
	}, nil
}
