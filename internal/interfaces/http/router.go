package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/shopflow-api/internal/application/analytics"
	"github.com/jhoicas/shopflow-api/internal/application/auth"
	"github.com/jhoicas/shopflow-api/internal/application/events"
	"github.com/jhoicas/shopflow-api/internal/application/usecase"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
	"github.com/jhoicas/shopflow-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	ProductUC   *usecase.ProductUseCase
	SaleUC      *usecase.SaleUseCase
	ReportUC    *usecase.ReportUseCase
	DashboardUC *appanalytics.DashboardUseCase
	Receipts    ReceiptGenerator
	Bus         events.Bus
	JWTSecret   string
	Log         *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token; el rol se lee de user_profiles)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret, deps.AuthUC))
	adminOnly := RequireRole(entity.RoleAdmin)

	protected.Get("/auth/me", authHandler.Me)

	// Products
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Get("/", productHandler.List)
	products.Get("/search", productHandler.Search)
	products.Post("/", productHandler.Create)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", adminOnly, productHandler.Delete)
	products.Post("/:id/recalculate", adminOnly, productHandler.Recalculate)

	// Checkout + ventas
	saleHandler := NewSaleHandler(deps.SaleUC, deps.Receipts)
	protected.Post("/checkout", saleHandler.Checkout)
	sales := protected.Group("/sales")
	sales.Get("/", saleHandler.List)
	sales.Get("/:id", saleHandler.GetByID)
	sales.Get("/:id/receipt", saleHandler.Receipt)
	sales.Post("/:id/items/:index/return", saleHandler.Return)

	// Reports (admin)
	reports := protected.Group("/reports", adminOnly)
	reportHandler := NewReportHandler(deps.ReportUC)
	reports.Get("/stock", reportHandler.Stock)
	reports.Get("/profit", reportHandler.Profit)

	// Dashboard
	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	protected.Get("/dashboard/summary", dashboardHandler.GetSummary)

	// Live (SSE)
	if deps.Bus != nil {
		live := protected.Group("/live")
		liveHandler := NewLiveHandler(deps.Bus, deps.ProductUC, deps.SaleUC, deps.Log)
		live.Get("/products", liveHandler.Products)
		live.Get("/sales", liveHandler.Sales)
	}
}
