package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/shopflow-api/internal/application/analytics"
)

// DashboardHandler maneja los endpoints del módulo de Dashboard.
type DashboardHandler struct {
	uc *appanalytics.DashboardUseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *appanalytics.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// GetSummary devuelve el resumen del día y del mes en curso más los productos con poco stock.
// GET /api/dashboard/summary
//
// Las fechas se calculan en el servidor con la zona horaria de reportes. La valorización del
// inventario y la utilidad solo se incluyen para admin.
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.uc.GetSummary(c.UserContext(), actorOf(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}
