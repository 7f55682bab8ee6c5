package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/shopflow-api/internal/application/events"
	"github.com/jhoicas/shopflow-api/internal/domain"
	"github.com/jhoicas/shopflow-api/internal/domain/cart"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
	"github.com/jhoicas/shopflow-api/internal/domain/repository"
	"github.com/jhoicas/shopflow-api/pkg/logger"
)

// CheckoutUseCase convierte un carrito en una venta descontando stock en una sola transacción.
type CheckoutUseCase struct {
	txRunner  TxRunner
	publisher events.Publisher
	log       *logger.Logger
	newID     func() string
}

// NewCheckoutUseCase construye el caso de uso. publisher y log pueden ser nil.
func NewCheckoutUseCase(txRunner TxRunner, publisher events.Publisher, log *logger.Logger) *CheckoutUseCase {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CheckoutUseCase{
		txRunner:  txRunner,
		publisher: publisher,
		log:       log.Named("checkout"),
		newID:     func() string { return uuid.New().String() },
	}
}

// demand cantidad pedida por producto (líneas repetidas se suman; se conserva el primer snapshot).
type demand struct {
	line      cart.Line
	requested int
}

// Checkout valida el carrito fuera de la transacción y luego, dentro de ella:
// lee cada producto con bloqueo, verifica existencia y stock de TODAS las líneas antes de escribir,
// descuenta cantidades e inserta la venta. Si algo falla no queda ningún efecto.
// Precio de venta y total salen del carrito; el precio de compra siempre sale de la fila bloqueada del
// catálogo (el del carrito se ignora).
func (uc *CheckoutUseCase) Checkout(ctx context.Context, lines []cart.Line, actor entity.Actor) (*entity.Sale, error) {
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}
	if strings.TrimSpace(actor.ID) == "" {
		return nil, domain.ErrMissingActor
	}

	order := make([]string, 0, len(lines))
	byProduct := make(map[string]*demand, len(lines))
	for i, l := range lines {
		if strings.TrimSpace(l.ProductID) == "" {
			return nil, fmt.Errorf("%w: línea %d sin producto", domain.ErrInvalidInput, i)
		}
		if l.Quantity < 1 {
			return nil, fmt.Errorf("%w: línea %d con cantidad %d", domain.ErrInvalidInput, i, l.Quantity)
		}
		if l.SellingPrice.IsNegative() {
			return nil, fmt.Errorf("%w: línea %d con precio negativo", domain.ErrInvalidInput, i)
		}
		if d, ok := byProduct[l.ProductID]; ok {
			d.requested += l.Quantity
			continue
		}
		byProduct[l.ProductID] = &demand{line: l, requested: l.Quantity}
		order = append(order, l.ProductID)
	}

	// el total sale del snapshot del carrito: se cobra el precio que vio el cliente
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	saleID := uc.newID()

	var sale *entity.Sale
	err := uc.txRunner.Run(ctx, func(productRepo repository.ProductRepository, saleRepo repository.SaleRepository) error {
		live := make(map[string]*entity.Product, len(order))
		for _, id := range order {
			d := byProduct[id]
			p, err := productRepo.GetForUpdate(ctx, id)
			if err != nil {
				return fmt.Errorf("leer producto %s: %w", id, err)
			}
			if p == nil {
				return &domain.ProductNotFoundError{ProductID: id, Name: d.line.Name}
			}
			if p.Quantity < d.requested {
				return &domain.InsufficientStockError{
					ProductID: id,
					Name:      p.Name,
					Available: p.Quantity,
					Requested: d.requested,
				}
			}
			live[id] = p
		}

		for _, id := range order {
			if err := productRepo.UpdateQuantity(ctx, id, live[id].Quantity-byProduct[id].requested); err != nil {
				return fmt.Errorf("descontar stock %s: %w", id, err)
			}
		}
		// se arma en cada intento: un reintento no hereda costos de la tx abortada
		items := make([]entity.SaleItem, 0, len(lines))
		for _, l := range lines {
			items = append(items, entity.SaleItem{
				ProductID:     l.ProductID,
				Name:          l.Name,
				Quantity:      l.Quantity,
				PurchasePrice: live[l.ProductID].PurchasePrice,
				SellingPrice:  l.SellingPrice,
			})
		}
		s := &entity.Sale{
			ID:            saleID,
			Items:         items,
			TotalAmount:   total,
			CreatedBy:     actor.ID,
			CreatedByName: actor.DisplayName,
			CreatedByRole: actor.Role,
		}
		if err := saleRepo.Create(ctx, s); err != nil {
			return fmt.Errorf("registrar venta: %w", err)
		}
		sale = s
		return nil
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("actor", actor.ID).Int("lines", len(lines)).Msg("checkout rechazado")
		return nil, err
	}

	uc.log.Info().
		Str("sale_id", sale.ID).
		Str("actor", actor.ID).
		Int("lines", len(sale.Items)).
		Str("total", total.StringFixed(2)).
		Msg("venta registrada")

	uc.publish(ctx, events.Event{Type: events.SaleCreated, SaleID: sale.ID, ProductIDs: order})
	uc.publish(ctx, events.Event{Type: events.ProductChanged, ProductIDs: order})
	return sale, nil
}

func (uc *CheckoutUseCase) publish(ctx context.Context, e events.Event) {
	if err := uc.publisher.Publish(ctx, e); err != nil {
		uc.log.Warn().Err(err).Str("event", string(e.Type)).Msg("no se pudo publicar el evento")
	}
}
