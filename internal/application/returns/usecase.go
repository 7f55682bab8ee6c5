package returns

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/shopflow-api/internal/application/events"
	"github.com/jhoicas/shopflow-api/internal/domain"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
	"github.com/jhoicas/shopflow-api/internal/domain/repository"
	"github.com/jhoicas/shopflow-api/pkg/logger"
)

// ReturnUseCase revierte una línea vendida: la marca devuelta y repone el stock, en una transacción.
type ReturnUseCase struct {
	txRunner  TxRunner
	publisher events.Publisher
	log       *logger.Logger
	now       func() time.Time
}

// NewReturnUseCase construye el caso de uso. publisher y log pueden ser nil.
func NewReturnUseCase(txRunner TxRunner, publisher events.Publisher, log *logger.Logger) *ReturnUseCase {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ReturnUseCase{txRunner: txRunner, publisher: publisher, log: log.Named("returns"), now: time.Now}
}

// ReturnInput identifica la línea a devolver. ProductID y Quantity son opcionales; si vienen deben
// coincidir con la línea vendida.
type ReturnInput struct {
	SaleID    string
	ItemIndex int
	ProductID string
	Quantity  int
}

// ReturnItem marca la línea como devuelta (una sola vez) y suma su cantidad al stock del producto.
// Si el producto ya no existe la devolución igual se registra, sin ajuste de stock.
func (uc *ReturnUseCase) ReturnItem(ctx context.Context, in ReturnInput, actor entity.Actor) (*entity.Sale, error) {
	if strings.TrimSpace(in.SaleID) == "" {
		return nil, fmt.Errorf("%w: venta requerida", domain.ErrInvalidInput)
	}
	if in.ItemIndex < 0 || in.Quantity < 0 {
		return nil, fmt.Errorf("%w: índice o cantidad negativos", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(actor.ID) == "" {
		return nil, domain.ErrMissingActor
	}

	var (
		result        *entity.Sale
		stockRestored bool
		returned      entity.SaleItem
	)
	err := uc.txRunner.Run(ctx, func(productRepo repository.ProductRepository, saleRepo repository.SaleRepository) error {
		stockRestored = false
		sale, err := saleRepo.GetForUpdate(ctx, in.SaleID)
		if err != nil {
			return fmt.Errorf("leer venta %s: %w", in.SaleID, err)
		}
		if sale == nil {
			return domain.ErrSaleNotFound
		}
		if in.ItemIndex >= len(sale.Items) {
			return fmt.Errorf("%w: la venta tiene %d ítems, índice %d", domain.ErrInvalidInput, len(sale.Items), in.ItemIndex)
		}
		item := sale.Items[in.ItemIndex]
		if item.Returned {
			return domain.ErrAlreadyReturned
		}
		if in.ProductID != "" && in.ProductID != item.ProductID {
			return fmt.Errorf("%w: el ítem %d no corresponde al producto %s", domain.ErrInvalidInput, in.ItemIndex, in.ProductID)
		}
		if in.Quantity != 0 && in.Quantity != item.Quantity {
			return fmt.Errorf("%w: solo se admite devolver la línea completa (%d unidades)", domain.ErrInvalidInput, item.Quantity)
		}

		product, err := productRepo.GetForUpdate(ctx, item.ProductID)
		if err != nil {
			return fmt.Errorf("leer producto %s: %w", item.ProductID, err)
		}

		now := uc.now()
		items := entity.CloneItems(sale.Items)
		items[in.ItemIndex].Returned = true
		items[in.ItemIndex].ReturnedAt = &now
		items[in.ItemIndex].ReturnedBy = actor.ID
		items[in.ItemIndex].ReturnedByRole = actor.Role
		if err := saleRepo.UpdateItems(ctx, sale.ID, items); err != nil {
			return fmt.Errorf("marcar devolución: %w", err)
		}

		if product == nil {
			uc.log.Warn().
				Str("sale_id", sale.ID).
				Int("item_index", in.ItemIndex).
				Str("product_id", item.ProductID).
				Msg("producto inexistente al devolver, no se ajusta stock")
		} else {
			if err := productRepo.UpdateQuantity(ctx, product.ID, product.Quantity+item.Quantity); err != nil {
				return fmt.Errorf("reponer stock %s: %w", product.ID, err)
			}
			stockRestored = true
		}

		sale.Items = items
		result = sale
		returned = items[in.ItemIndex]
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("sale_id", result.ID).
		Int("item_index", in.ItemIndex).
		Str("product_id", returned.ProductID).
		Int("quantity", returned.Quantity).
		Bool("stock_restored", stockRestored).
		Str("actor", actor.ID).
		Msg("ítem devuelto")

	uc.publish(ctx, events.Event{Type: events.SaleItemReturned, SaleID: result.ID, ProductIDs: []string{returned.ProductID}})
	if stockRestored {
		uc.publish(ctx, events.Event{Type: events.ProductChanged, ProductIDs: []string{returned.ProductID}})
	}
	return result, nil
}

func (uc *ReturnUseCase) publish(ctx context.Context, e events.Event) {
	if err := uc.publisher.Publish(ctx, e); err != nil {
		uc.log.Warn().Err(err).Str("event", string(e.Type)).Msg("no se pudo publicar el evento")
	}
}
