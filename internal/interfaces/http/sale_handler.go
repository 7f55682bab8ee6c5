package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/shopflow-api/internal/application/dto"
	"github.com/jhoicas/shopflow-api/internal/application/usecase"
	"github.com/jhoicas/shopflow-api/internal/domain"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
)

// dateLayout formato de los parámetros from/to.
const dateLayout = "2006-01-02"

// ReceiptGenerator genera el PDF del recibo de una venta.
type ReceiptGenerator interface {
	GenerateReceipt(ctx context.Context, sale *entity.Sale) ([]byte, error)
}

// SaleHandler cobro, historial, recibo y devoluciones.
type SaleHandler struct {
	uc       *usecase.SaleUseCase
	receipts ReceiptGenerator
}

// NewSaleHandler construye el handler.
func NewSaleHandler(uc *usecase.SaleUseCase, receipts ReceiptGenerator) *SaleHandler {
	return &SaleHandler{uc: uc, receipts: receipts}
}

// Checkout godoc
// @Summary      Cobrar el carrito
// @Description  Descuenta stock y registra la venta en una sola transacción. Todo o nada.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CheckoutRequest  true  "Líneas del carrito"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.StockErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/checkout [post]
func (h *SaleHandler) Checkout(c *fiber.Ctx) error {
	var in dto.CheckoutRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Checkout(c.UserContext(), in, actorOf(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Historial de ventas
// @Description  Días calendario [from, to] en la zona horaria de reportes. El tendero solo ve sus ventas.
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  false  "YYYY-MM-DD (por defecto hoy)"
// @Param        to    query  string  false  "YYYY-MM-DD (por defecto from)"
// @Success      200   {object}  dto.SaleListResponse
// @Router       /api/sales [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	from, to, err := parseRange(c, h.uc.Location())
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.List(c.UserContext(), from, to, actorOf(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"), actorOf(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Receipt godoc
// @Summary      Recibo imprimible (PDF)
// @Tags         sales
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/receipt [get]
func (h *SaleHandler) Receipt(c *fiber.Ctx) error {
	sale, err := h.uc.GetSale(c.UserContext(), c.Params("id"), actorOf(c))
	if err != nil {
		return respondError(c, err)
	}
	pdf, err := h.receipts.GenerateReceipt(c.UserContext(), sale)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="recibo-`+sale.ID+`.pdf"`)
	return c.Send(pdf)
}

// Return godoc
// @Summary      Devolver una línea de la venta
// @Description  Marca la línea como devuelta y repone su cantidad al stock en una sola transacción.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id     path  string  true  "ID de la venta"
// @Param        index  path  int     true  "posición de la línea"
// @Param        body   body  dto.ReturnRequest  false  "product_id/quantity para verificar la línea"
// @Success      200    {object}  dto.SaleResponse
// @Failure      404    {object}  dto.ErrorResponse
// @Failure      409    {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/items/{index}/return [post]
func (h *SaleHandler) Return(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "index debe ser un entero"})
	}
	var in dto.ReturnRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	out, err := h.uc.Return(c.UserContext(), c.Params("id"), index, in, actorOf(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// parseRange lee from/to (YYYY-MM-DD) en loc. Vacíos quedan en cero (el caso de uso usa hoy).
func parseRange(c *fiber.Ctx, loc *time.Location) (time.Time, time.Time, error) {
	parse := func(key string) (time.Time, error) {
		v := c.Query(key)
		if v == "" {
			return time.Time{}, nil
		}
		t, err := time.ParseInLocation(dateLayout, v, loc)
		if err != nil {
			return time.Time{}, domain.ErrInvalidInput
		}
		return t, nil
	}
	from, err := parse("from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parse("to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}
