package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/kiryana-inventory/internal/application/inventory"
	"github.com/jhoicas/kiryana-inventory/internal/application/usecase"
	"github.com/jhoicas/kiryana-inventory/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/kiryana-inventory/internal/interfaces/http"
	"github.com/jhoicas/kiryana-inventory/pkg/config"
	"github.com/jhoicas/kiryana-inventory/pkg/logger"
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
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		applied, err := postgres.Migrate(ctx, pool)
		if err != nil {
			log.Fatal().Err(err).Msg("aplicar migraciones")
		}
		log.Info().Strs("applied", applied).Msg("migraciones aplicadas")
	}

	storeRepo := postgres.NewStoreRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	movementRepo := postgres.NewInventoryMovementRepository(pool)
	permissionRepo := postgres.NewStorePermissionRepository(pool)
	txRunner := postgres.NewTxRunner(pool, cfg.Inventory.LockTimeout)

	gate := inventory.NewPermissionGate(permissionRepo)
	registerMovementUC := inventory.NewRegisterMovementUseCase(txRunner, productRepo, storeRepo, gate)
	ledgerUC := inventory.NewLedgerQueryUseCase(movementRepo, gate)
	summaryUC := inventory.NewSummaryUseCase(productRepo, gate)
	reconciliationUC := inventory.NewReconciliationUseCase(txRunner, productRepo, movementRepo, gate)
	replenishmentUC := inventory.NewReplenishmentUseCase(productRepo, movementRepo, gate)
	storeUC := usecase.NewStoreUseCase(storeRepo, gate)
	productUC := usecase.NewProductUseCase(productRepo, storeRepo, movementRepo, gate)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    8 * 1024 * 1024, // importación de catálogos CSV
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Kiryana Inventory API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		StoreUC:          storeUC,
		ProductUC:        productUC,
		RegisterMovement: registerMovementUC,
		Ledger:           ledgerUC,
		Summary:          summaryUC,
		Reconciliation:   reconciliationUC,
		Replenishment:    replenishmentUC,
		JWTSecret:        cfg.JWT.Secret,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
