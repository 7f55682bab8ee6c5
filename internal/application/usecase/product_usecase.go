package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/shopflow-api/internal/application/dto"
	"github.com/jhoicas/shopflow-api/internal/application/events"
	"github.com/jhoicas/shopflow-api/internal/application/recalculation"
	"github.com/jhoicas/shopflow-api/internal/domain"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
	"github.com/jhoicas/shopflow-api/internal/domain/repository"
	"github.com/jhoicas/shopflow-api/pkg/logger"
)

// searchLimit máximo de resultados por prefijo de nombre.
const searchLimit = 20

// Recalculator motor de recálculo retroactivo.
type Recalculator interface {
	Recalculate(ctx context.Context, productID string, newPurchase, newSelling decimal.Decimal) (recalculation.Result, error)
}

// TxRunner transacción sobre catálogo y libro (la misma que usan checkout y devoluciones).
type TxRunner interface {
	Run(ctx context.Context, fn func(productRepo repository.ProductRepository, saleRepo repository.SaleRepository) error) error
}

// ProductUseCase casos de uso del catálogo. Un cambio de precio hecho por un admin dispara el recálculo
// retroactivo de las ventas.
type ProductUseCase struct {
	repo      repository.ProductRepository
	tx        TxRunner
	recalc    Recalculator
	publisher events.Publisher
	log       *logger.Logger
}

// NewProductUseCase construye el caso de uso. Las ediciones corren dentro de tx.
func NewProductUseCase(repo repository.ProductRepository, tx TxRunner, recalc Recalculator, publisher events.Publisher, log *logger.Logger) *ProductUseCase {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ProductUseCase{repo: repo, tx: tx, recalc: recalc, publisher: publisher, log: log.Named("products")}
}

// Create crea un producto. Si el actor no es admin el precio de compra se guarda en 0.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest, actor entity.Actor) (*dto.ProductResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: nombre requerido", domain.ErrInvalidInput)
	}
	if in.Quantity < 0 {
		return nil, fmt.Errorf("%w: cantidad negativa", domain.ErrInvalidInput)
	}
	if !in.SellingPrice.IsPositive() {
		return nil, fmt.Errorf("%w: el precio de venta debe ser positivo", domain.ErrInvalidInput)
	}
	purchase := decimal.Zero
	if actor.IsAdmin() && in.PurchasePrice != nil {
		purchase = *in.PurchasePrice
	}
	if err := domain.NegativeAmount("precio de compra", purchase); err != nil {
		return nil, err
	}

	product := &entity.Product{
		ID:            uuid.New().String(),
		Name:          name,
		Barcode:       strings.TrimSpace(in.Barcode),
		PurchasePrice: purchase,
		SellingPrice:  in.SellingPrice,
		Quantity:      in.Quantity,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	uc.log.Info().Str("product_id", product.ID).Str("actor", actor.ID).Msg("producto creado")
	uc.changed(ctx, product.ID)
	return toProductResponse(product, actor), nil
}

// GetByID obtiene un producto. ErrNotFound si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string, actor entity.Actor) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return toProductResponse(product, actor), nil
}

// List todo el catálogo ordenado por nombre.
func (uc *ProductUseCase) List(ctx context.Context, actor entity.Actor) (*dto.ProductListResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return toProductList(list, actor), nil
}

// Search coincidencia exacta de código de barras más prefijo de nombre, sin duplicados;
// los resultados por código de barras van primero.
func (uc *ProductUseCase) Search(ctx context.Context, q string, actor entity.Actor) (*dto.ProductListResponse, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return toProductList(nil, actor), nil
	}
	byCode, err := uc.repo.FindByBarcode(ctx, q)
	if err != nil {
		return nil, err
	}
	byName, err := uc.repo.SearchByNamePrefix(ctx, q, searchLimit)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(byCode)+len(byName))
	merged := make([]*entity.Product, 0, len(byCode)+len(byName))
	for _, p := range append(byCode, byName...) {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		merged = append(merged, p)
	}
	return toProductList(merged, actor), nil
}

// Update edita un producto. Solo el admin puede cambiar el precio de compra; si el admin cambia
// cualquiera de los dos precios se recalculan las ventas históricas. Un fallo del recálculo no
// revierte la edición: se informa en la respuesta.
// La lectura y la escritura van en la misma transacción que checkout y devoluciones, y el stock
// solo se escribe si viene Quantity.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest, actor entity.Actor) (*dto.ProductUpdateResponse, error) {
	if in.PurchasePrice != nil && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: solo un admin puede modificar el precio de compra", domain.ErrForbidden)
	}
	if err := validateUpdate(in); err != nil {
		return nil, err
	}

	var (
		product                 *entity.Product
		oldPurchase, oldSelling decimal.Decimal
	)
	err := uc.tx.Run(ctx, func(productRepo repository.ProductRepository, _ repository.SaleRepository) error {
		p, err := productRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		oldPurchase, oldSelling = p.PurchasePrice, p.SellingPrice

		if in.Name != nil {
			p.Name = strings.TrimSpace(*in.Name)
		}
		if in.Barcode != nil {
			p.Barcode = strings.TrimSpace(*in.Barcode)
		}
		if in.PurchasePrice != nil {
			p.PurchasePrice = *in.PurchasePrice
		}
		if in.SellingPrice != nil {
			p.SellingPrice = *in.SellingPrice
		}
		if err := productRepo.Update(ctx, p); err != nil {
			return err
		}
		if in.Quantity != nil {
			if err := productRepo.UpdateQuantity(ctx, p.ID, *in.Quantity); err != nil {
				return err
			}
			p.Quantity = *in.Quantity
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.changed(ctx, product.ID)

	resp := &dto.ProductUpdateResponse{Product: *toProductResponse(product, actor)}
	priceChanged := !oldPurchase.Equal(product.PurchasePrice) || !oldSelling.Equal(product.SellingPrice)
	if actor.IsAdmin() && priceChanged && uc.recalc != nil {
		res, err := uc.recalc.Recalculate(ctx, product.ID, product.PurchasePrice, product.SellingPrice)
		resp.Recalculation = toRecalcResponse(product.ID, res)
		if err != nil {
			uc.log.Error().Err(err).Str("product_id", product.ID).Msg("recálculo tras edición de precio")
			resp.RecalculationErr = err.Error()
		}
	}
	return resp, nil
}

func validateUpdate(in dto.UpdateProductRequest) error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return fmt.Errorf("%w: nombre requerido", domain.ErrInvalidInput)
	}
	if in.PurchasePrice != nil {
		if err := domain.NegativeAmount("precio de compra", *in.PurchasePrice); err != nil {
			return err
		}
	}
	if in.SellingPrice != nil && !in.SellingPrice.IsPositive() {
		return fmt.Errorf("%w: el precio de venta debe ser positivo", domain.ErrInvalidInput)
	}
	if in.Quantity != nil && *in.Quantity < 0 {
		return fmt.Errorf("%w: cantidad negativa", domain.ErrInvalidInput)
	}
	return nil
}

// Delete borra un producto (solo admin). Las ventas existentes conservan su copia del nombre y precios.
func (uc *ProductUseCase) Delete(ctx context.Context, id string, actor entity.Actor) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.log.Info().Str("product_id", id).Str("actor", actor.ID).Msg("producto eliminado")
	uc.changed(ctx, id)
	return nil
}

// Recalculate disparo manual del recálculo (solo admin). Sin precios en la entrada usa los vigentes.
// Con fallo parcial devuelve el resultado y el *domain.PartialBatchError.
func (uc *ProductUseCase) Recalculate(ctx context.Context, id string, in dto.RecalculateRequest, actor entity.Actor) (*dto.RecalculateResponse, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if uc.recalc == nil {
		return nil, errors.New("recálculo no configurado")
	}
	purchase, selling := in.PurchasePrice, in.SellingPrice
	if purchase == nil || selling == nil {
		product, err := uc.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.ErrNotFound
		}
		if purchase == nil {
			purchase = &product.PurchasePrice
		}
		if selling == nil {
			selling = &product.SellingPrice
		}
	}
	res, err := uc.recalc.Recalculate(ctx, id, *purchase, *selling)
	return toRecalcResponse(id, res), err
}

func (uc *ProductUseCase) changed(ctx context.Context, productID string) {
	if err := uc.publisher.Publish(ctx, events.Event{Type: events.ProductChanged, ProductIDs: []string{productID}}); err != nil {
		uc.log.Warn().Err(err).Msg("no se pudo publicar el evento")
	}
}

func toRecalcResponse(productID string, r recalculation.Result) *dto.RecalculateResponse {
	return &dto.RecalculateResponse{ProductID: productID, Scanned: r.Scanned, Updated: r.Updated, FailedBatches: r.FailedBatches}
}
