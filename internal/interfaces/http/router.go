package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kiryana-inventory/internal/application/inventory"
	"github.com/jhoicas/kiryana-inventory/internal/application/usecase"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	StoreUC          *usecase.StoreUseCase
	ProductUC        *usecase.ProductUseCase
	RegisterMovement *inventory.RegisterMovementUseCase
	Ledger           *inventory.LedgerQueryUseCase
	Summary          *inventory.SummaryUseCase
	Reconciliation   *inventory.ReconciliationUseCase
	Replenishment    *inventory.ReplenishmentUseCase
	JWTSecret        string
}

// Router registra las rutas de la API y de los formularios web.
func Router(app *fiber.App, deps RouterDeps) {
	auth := AuthMiddleware(deps.JWTSecret)
	adminOnly := RequireRole(entity.RoleAdmin)
	storeHandler := NewStoreHandler(deps.StoreUC)
	productHandler := NewProductHandler(deps.ProductUC)
	inventoryHandler := NewInventoryHandler(deps.RegisterMovement, deps.Ledger, deps.Summary, deps.Reconciliation, deps.Replenishment)

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", auth)

	// Stores (alta, edición y baja solo admin)
	stores := api.Group("/stores")
	stores.Get("/", storeHandler.List)
	stores.Post("/", adminOnly, storeHandler.Create)
	stores.Get("/:id", storeHandler.GetByID)
	stores.Put("/:id", adminOnly, storeHandler.Update)
	stores.Delete("/:id", adminOnly, storeHandler.Deactivate)

	// Movimientos e inventario por tienda
	stores.Post("/:id/stock-in", inventoryHandler.StockIn)
	stores.Post("/:id/sale", inventoryHandler.Sale)
	stores.Post("/:id/removal", inventoryHandler.Removal)
	stores.Post("/:id/transfer", inventoryHandler.Transfer)
	stores.Get("/:id/movements", inventoryHandler.Movements)
	stores.Get("/:id/inventory", inventoryHandler.Summary)
	stores.Get("/:id/replenishment", inventoryHandler.GetReplenishmentList)
	stores.Get("/:id/verify", inventoryHandler.VerifyStore)

	// Catálogo de la tienda
	stores.Get("/:id/products", productHandler.List)
	stores.Post("/:id/products", productHandler.Create)
	stores.Post("/:id/products/import", productHandler.Import)

	// Products
	products := api.Group("/products")
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)
	products.Get("/:id/verify", inventoryHandler.VerifyProduct)
	products.Post("/:id/repair", inventoryHandler.RepairProduct)

	// Formularios web (respuestas flash)
	web := app.Group("/web/stores", auth)
	webHandler := NewWebFormHandler(deps.RegisterMovement)
	web.Post("/:id/stock-in", webHandler.StockIn)
	web.Post("/:id/sale", webHandler.Sale)
	web.Post("/:id/removal", webHandler.Removal)
}
