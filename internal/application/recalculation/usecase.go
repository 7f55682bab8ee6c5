package recalculation

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/shopflow-api/internal/application/events"
	"github.com/jhoicas/shopflow-api/internal/domain"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
	"github.com/jhoicas/shopflow-api/internal/domain/repository"
	"github.com/jhoicas/shopflow-api/pkg/logger"
)

// DefaultBatchSize máximo de ventas por lote confirmado.
const DefaultBatchSize = 500

// Result resultado del recálculo.
type Result struct {
	Scanned       int // ventas leídas
	Updated       int // ventas efectivamente reescritas en lotes confirmados
	FailedBatches int
}

// RecalculateUseCase reescribe retroactivamente los precios de compra y venta de las líneas no
// devueltas de un producto en todo el libro de ventas. Recorre el libro completo (no hay índice
// producto -> ventas) y confirma lotes independientes: un lote fallido no revierte los anteriores.
type RecalculateUseCase struct {
	saleRepo  repository.SaleRepository
	publisher events.Publisher
	log       *logger.Logger
	batchSize int
}

// NewRecalculateUseCase construye el caso de uso. batchSize <= 0 usa DefaultBatchSize.
func NewRecalculateUseCase(saleRepo repository.SaleRepository, publisher events.Publisher, log *logger.Logger, batchSize int) *RecalculateUseCase {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &RecalculateUseCase{saleRepo: saleRepo, publisher: publisher, log: log.Named("recalculation"), batchSize: batchSize}
}

// Recalculate aplica los nuevos precios. Ejecutarlo dos veces con los mismos precios no reescribe nada
// la segunda vez. Si algún lote falla devuelve *domain.PartialBatchError junto con el Result parcial.
func (uc *RecalculateUseCase) Recalculate(ctx context.Context, productID string, newPurchase, newSelling decimal.Decimal) (Result, error) {
	var res Result
	if strings.TrimSpace(productID) == "" {
		return res, fmt.Errorf("%w: producto requerido", domain.ErrInvalidInput)
	}
	if err := domain.NegativeAmount("precio de compra", newPurchase); err != nil {
		return res, err
	}
	if err := domain.NegativeAmount("precio de venta", newSelling); err != nil {
		return res, err
	}

	update := repository.PriceUpdate{ProductID: productID, PurchasePrice: newPurchase, SellingPrice: newSelling}
	var (
		pending   []string
		failed    []domain.BatchError
		committed int
		batchIdx  int
	)
	flush := func() {
		if len(pending) == 0 {
			return
		}
		ids := pending
		pending = nil
		idx := batchIdx
		batchIdx++
		n, err := uc.saleRepo.RepriceBatch(ctx, update, ids)
		if err != nil {
			uc.log.Error().Err(err).Str("product_id", productID).Int("batch", idx).Int("sales", len(ids)).Msg("lote de recálculo fallido")
			failed = append(failed, domain.BatchError{Index: idx, SaleIDs: ids, Err: err})
			return
		}
		committed++
		res.Updated += n
	}

	after := ""
	for {
		page, err := uc.saleRepo.ListPage(ctx, after, uc.batchSize)
		if err != nil {
			// sin poder seguir leyendo: lo ya confirmado queda aplicado
			res.FailedBatches = len(failed)
			return res, fmt.Errorf("recorrer ventas: %w", err)
		}
		for _, s := range page {
			res.Scanned++
			if _, changed := entity.RepriceItems(s.Items, productID, newPurchase, newSelling); changed {
				pending = append(pending, s.ID)
				if len(pending) >= uc.batchSize {
					flush()
				}
			}
		}
		if len(page) < uc.batchSize {
			break
		}
		after = page[len(page)-1].ID
	}
	flush()
	res.FailedBatches = len(failed)

	uc.log.Info().
		Str("product_id", productID).
		Int("scanned", res.Scanned).
		Int("updated", res.Updated).
		Int("failed_batches", res.FailedBatches).
		Msg("recálculo de precios terminado")

	if res.Updated > 0 {
		if err := uc.publisher.Publish(ctx, events.Event{Type: events.SalesRepriced, ProductIDs: []string{productID}}); err != nil {
			uc.log.Warn().Err(err).Msg("no se pudo publicar el evento")
		}
	}
	if len(failed) > 0 {
		return res, &domain.PartialBatchError{ProductID: productID, Committed: committed, Failed: failed}
	}
	return res, nil
}
