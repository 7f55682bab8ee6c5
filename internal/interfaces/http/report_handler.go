package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/shopflow-api/internal/application/usecase"
)

// ReportHandler reportes de stock y utilidad (admin).
type ReportHandler struct {
	uc *usecase.ReportUseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *usecase.ReportUseCase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

// Stock godoc
// @Summary      Valorización del inventario
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockSummaryResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/reports/stock [get]
func (h *ReportHandler) Stock(c *fiber.Ctx) error {
	out, err := h.uc.StockSummary(c.UserContext(), actorOf(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Profit godoc
// @Summary      Ingresos y utilidad por día
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  false  "YYYY-MM-DD"
// @Param        to    query  string  false  "YYYY-MM-DD"
// @Success      200   {object}  dto.ProfitReportResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/reports/profit [get]
func (h *ReportHandler) Profit(c *fiber.Ctx) error {
	from, to, err := parseRange(c, h.uc.Location())
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.ProfitReport(c.UserContext(), from, to, actorOf(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
