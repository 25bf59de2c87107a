// Package main CLI de inventario para la trastienda.
// Uso: kiryana <comando> --store-id <id> [opciones]; ver `kiryana help`.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/kiryana-inventory/internal/application/inventory"
	"github.com/jhoicas/kiryana-inventory/internal/application/usecase"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
	"github.com/jhoicas/kiryana-inventory/internal/infrastructure/postgres"
	"github.com/jhoicas/kiryana-inventory/internal/interfaces/cli"
	"github.com/jhoicas/kiryana-inventory/pkg/config"
	"github.com/jhoicas/kiryana-inventory/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("cargar configuración: " + err.Error() + "\n")
		return cli.ExitError
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Output: os.Stderr})

	// Ctrl+C cancela la espera de conexión; una operación ya iniciada termina igualmente.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 || os.Args[1] == "help" || os.Args[1] == "-h" || os.Args[1] == "--help" {
		return cli.Run(ctx, os.Args[1:], cli.Deps{}, os.Stdout)
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("conexión a PostgreSQL")
		return cli.ExitError
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		if _, err := postgres.Migrate(ctx, pool); err != nil {
			log.Error().Err(err).Msg("aplicar migraciones")
			return cli.ExitError
		}
	}

	storeRepo := postgres.NewStoreRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	movementRepo := postgres.NewInventoryMovementRepository(pool)
	txRunner := postgres.NewTxRunner(pool, cfg.Inventory.LockTimeout)
	gate := inventory.NewPermissionGate(postgres.NewStorePermissionRepository(pool))

	deps := cli.Deps{
		Actor:          entity.Actor{UserID: cfg.CLI.UserID, Role: cfg.CLI.Role},
		Movements:      inventory.NewRegisterMovementUseCase(txRunner, productRepo, storeRepo, gate),
		Ledger:         inventory.NewLedgerQueryUseCase(movementRepo, gate),
		Summary:        inventory.NewSummaryUseCase(productRepo, gate),
		Reconciliation: inventory.NewReconciliationUseCase(txRunner, productRepo, movementRepo, gate),
		Products:       usecase.NewProductUseCase(productRepo, storeRepo, movementRepo, gate),
	}
	log.Debug().Str("user_id", cfg.CLI.UserID).Strs("args", os.Args[1:]).Msg("cli")
	return cli.Run(ctx, os.Args[1:], deps, os.Stdout)
}
