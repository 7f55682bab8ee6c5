package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/shopflow-api/internal/application/dto"
	"github.com/jhoicas/shopflow-api/internal/application/returns"
	"github.com/jhoicas/shopflow-api/internal/domain"
	"github.com/jhoicas/shopflow-api/internal/domain/cart"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
	"github.com/jhoicas/shopflow-api/internal/domain/report"
	"github.com/jhoicas/shopflow-api/internal/domain/repository"
)

// Checkouter motor de checkout.
type Checkouter interface {
	Checkout(ctx context.Context, lines []cart.Line, actor entity.Actor) (*entity.Sale, error)
}

// Returner motor de devoluciones.
type Returner interface {
	ReturnItem(ctx context.Context, in returns.ReturnInput, actor entity.Actor) (*entity.Sale, error)
}

// SaleUseCase cobro, devoluciones e historial de ventas con visibilidad por rol.
type SaleUseCase struct {
	checkout Checkouter
	returns  Returner
	saleRepo repository.SaleRepository
	loc      *time.Location
	now      func() time.Time
}

// NewSaleUseCase construye el caso de uso. loc define el día calendario de los filtros (nil = time.Local).
func NewSaleUseCase(checkout Checkouter, returns Returner, saleRepo repository.SaleRepository, loc *time.Location) *SaleUseCase {
	if loc == nil {
		loc = time.Local
	}
	return &SaleUseCase{checkout: checkout, returns: returns, saleRepo: saleRepo, loc: loc, now: time.Now}
}

// SetClock reemplaza el reloj que define "hoy".
func (uc *SaleUseCase) SetClock(now func() time.Time) { uc.now = now }

// Location zona horaria de los reportes.
func (uc *SaleUseCase) Location() *time.Location { return uc.loc }

// Checkout cobra el carrito recibido.
func (uc *SaleUseCase) Checkout(ctx context.Context, in dto.CheckoutRequest, actor entity.Actor) (*dto.SaleResponse, error) {
	lines := make([]cart.Line, 0, len(in.Items))
	for _, it := range in.Items {
		lines = append(lines, cart.Line{
			ProductID:    it.ProductID,
			Name:         it.Name,
			Quantity:     it.Quantity,
			SellingPrice: it.SellingPrice,
		})
	}
	sale, err := uc.checkout.Checkout(ctx, lines, actor)
	if err != nil {
		return nil, err
	}
	return ToSaleResponse(sale, actor), nil
}

// Return devuelve la línea itemIndex de la venta.
func (uc *SaleUseCase) Return(ctx context.Context, saleID string, itemIndex int, in dto.ReturnRequest, actor entity.Actor) (*dto.SaleResponse, error) {
	sale, err := uc.returns.ReturnItem(ctx, returns.ReturnInput{
		SaleID:    saleID,
		ItemIndex: itemIndex,
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
	}, actor)
	if err != nil {
		return nil, err
	}
	return ToSaleResponse(sale, actor), nil
}

// GetSale lee una venta aplicando visibilidad: el tendero solo accede a las suyas.
func (uc *SaleUseCase) GetSale(ctx context.Context, id string, actor entity.Actor) (*entity.Sale, error) {
	sale, err := uc.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrSaleNotFound
	}
	if !actor.IsAdmin() && sale.CreatedBy != actor.ID {
		return nil, domain.ErrForbidden
	}
	return sale, nil
}

// GetByID venta proyectada según el rol.
func (uc *SaleUseCase) GetByID(ctx context.Context, id string, actor entity.Actor) (*dto.SaleResponse, error) {
	sale, err := uc.GetSale(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	return ToSaleResponse(sale, actor), nil
}

// List historial entre los días from y to (inclusive, calendario local), más recientes primero.
// El tendero solo ve sus ventas.
func (uc *SaleUseCase) List(ctx context.Context, from, to time.Time, actor entity.Actor) (*dto.SaleListResponse, error) {
	start, end, err := dayRange(uc.now(), from, to, uc.loc)
	if err != nil {
		return nil, err
	}
	createdBy := ""
	if !actor.IsAdmin() {
		createdBy = actor.ID
	}
	sales, err := uc.saleRepo.ListByDateRange(ctx, start, end, createdBy)
	if err != nil {
		return nil, fmt.Errorf("listar ventas: %w", err)
	}
	sort.SliceStable(sales, func(i, j int) bool { return sales[i].CreatedAt.After(sales[j].CreatedAt) })

	out := &dto.SaleListResponse{Items: make([]dto.SaleResponse, 0, len(sales))}
	for _, s := range sales {
		out.Items = append(out.Items, *ToSaleResponse(s, actor))
	}
	out.Summary = toSummaryResponse(report.SalesSummary(sales, report.Filter{}), actor)
	return out, nil
}

// Today ventas del día actual.
func (uc *SaleUseCase) Today(ctx context.Context, actor entity.Actor) (*dto.SaleListResponse, error) {
	now := uc.now().In(uc.loc)
	return uc.List(ctx, now, now, actor)
}

// DayRange convierte dos fechas en [inicio del día from, fin del día to] en loc.
// Fechas cero usan hoy.
func DayRange(from, to time.Time, loc *time.Location) (time.Time, time.Time, error) {
	return dayRange(time.Now(), from, to, loc)
}

func dayRange(now, from, to time.Time, loc *time.Location) (time.Time, time.Time, error) {
	now = now.In(loc)
	if from.IsZero() {
		from = now
	}
	if to.IsZero() {
		to = from
	}
	from, to = from.In(loc), to.In(loc)
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: el rango de fechas está invertido", domain.ErrInvalidInput)
	}
	return start, end, nil
}
