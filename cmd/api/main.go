package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"golang.org/x/text/language"

	appanalytics "github.com/jhoicas/shopflow-api/internal/application/analytics"
	"github.com/jhoicas/shopflow-api/internal/application/auth"
	"github.com/jhoicas/shopflow-api/internal/application/checkout"
	"github.com/jhoicas/shopflow-api/internal/application/events"
	"github.com/jhoicas/shopflow-api/internal/application/recalculation"
	"github.com/jhoicas/shopflow-api/internal/application/returns"
	"github.com/jhoicas/shopflow-api/internal/application/usecase"
	"github.com/jhoicas/shopflow-api/internal/domain/entity"
	infrapdf "github.com/jhoicas/shopflow-api/internal/infrastructure/pdf"
	"github.com/jhoicas/shopflow-api/internal/infrastructure/redisbus"
	httpRouter "github.com/jhoicas/shopflow-api/internal/interfaces/http"
	"github.com/jhoicas/shopflow-api/pkg/config"
	"github.com/jhoicas/shopflow-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.DB.Driver).
		Msg("iniciando aplicación")

	loc, err := time.LoadLocation(cfg.Engine.ReportTimezone)
	if err != nil {
		log.Fatal().Err(err).Str("tz", cfg.Engine.ReportTimezone).Msg("zona horaria de reportes")
	}

	ctx := context.Background()
	st, err := openStore(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer st.close()

	var bus events.Bus
	if cfg.Redis.Enabled() {
		rb, err := redisbus.New(ctx, cfg.Redis, log.Named("redisbus"))
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		bus = rb
	} else {
		bus = events.NewLocalBus()
	}

	authUC := auth.NewAuthUseCase(st.profiles, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	if cfg.DB.Driver == config.StoreDriverMemory {
		seedMemoryUsers(ctx, authUC, log)
	}

	checkoutUC := checkout.NewCheckoutUseCase(st.tx, bus, log.Named("checkout"))
	returnUC := returns.NewReturnUseCase(st.tx, bus, log.Named("returns"))
	recalcUC := recalculation.NewRecalculateUseCase(st.sales, bus, log.Named("recalculation"), cfg.Engine.RecalcBatchSize)

	productUC := usecase.NewProductUseCase(st.products, st.tx, recalcUC, bus, log.Named("products"))
	saleUC := usecase.NewSaleUseCase(checkoutUC, returnUC, st.sales, loc)
	reportUC := usecase.NewReportUseCase(st.products, st.sales, loc)
	dashboardUC := appanalytics.NewDashboardUseCase(st.sales, st.products, loc)

	// Ticket de venta en PDF
	receipts := infrapdf.NewReceiptGenerator(cfg.App.Name, language.Spanish, loc)

	app := fiber.New(fiber.Config{
		AppName:     cfg.App.Name,
		ReadTimeout: time.Second * 10,
		// sin WriteTimeout: /api/live mantiene la respuesta abierta
		IdleTimeout: time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.HTTP.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(log.FiberMiddleware())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "ShopFlow API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		ProductUC:   productUC,
		SaleUC:      saleUC,
		ReportUC:    reportUC,
		DashboardUC: dashboardUC,
		Receipts:    receipts,
		Bus:         bus,
		JWTSecret:   cfg.JWT.Secret,
		Log:         log.Named("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	// Cerrar el bus primero corta los streams SSE abiertos.
	if err := bus.Close(); err != nil {
		log.Error().Err(err).Msg("cierre del bus de eventos")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// seedMemoryUsers crea las cuentas iniciales cuando el almacenamiento es en memoria,
// donde cmd/seed_users no puede llegar. Lee SEED_ADMIN_* y SEED_SHOPKEEPER_*.
func seedMemoryUsers(ctx context.Context, authUC *auth.AuthUseCase, log *logger.Logger) {
	for _, s := range []struct{ prefix, role string }{
		{"SEED_ADMIN", entity.RoleAdmin},
		{"SEED_SHOPKEEPER", entity.RoleShopkeeper},
	} {
		email := os.Getenv(s.prefix + "_EMAIL")
		password := os.Getenv(s.prefix + "_PASSWORD")
		if email == "" || password == "" {
			continue
		}
		if _, err := authUC.EnsureUser(ctx, email, password, os.Getenv(s.prefix+"_NAME"), s.role); err != nil {
			log.Error().Err(err).Str("email", email).Msg("sembrar usuario")
			continue
		}
		log.Info().Str("email", email).Str("role", s.role).Msg("usuario sembrado")
	}
}
