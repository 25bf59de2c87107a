package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kiryana-inventory/internal/application/dto"
	"github.com/jhoicas/kiryana-inventory/internal/application/inventory"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
	"github.com/jhoicas/kiryana-inventory/internal/domain/repository"
	"github.com/jhoicas/kiryana-inventory/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var (
	admin   = entity.Actor{UserID: "u-admin", Role: entity.RoleAdmin}
	manager = entity.Actor{UserID: "u-manager", Role: entity.RoleManager}
	staff   = entity.Actor{UserID: "u-staff", Role: entity.RoleStaff}
)

type fixture struct {
	db     *memory.DB
	gate   *inventory.PermissionGate
	uc     *inventory.RegisterMovementUseCase
	recon  *inventory.ReconciliationUseCase
	ledger *inventory.LedgerQueryUseCase
	storeA *entity.Store
	storeB *entity.Store
}

// newFixture dos tiendas activas sobre el almacén en memoria.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRunner(t, memory.New(200*time.Millisecond), nil)
}

// newFixtureWithRunner permite envolver el TxRunner (inyección de fallos).
func newFixtureWithRunner(t *testing.T, db *memory.DB, wrap func(inventory.TxRunner) inventory.TxRunner) *fixture {
	t.Helper()
	var runner inventory.TxRunner = db.TxRunner()
	if wrap != nil {
		runner = wrap(runner)
	}
	gate := inventory.NewPermissionGate(db.Permissions())
	f := &fixture{
		db:     db,
		gate:   gate,
		uc:     inventory.NewRegisterMovementUseCase(runner, db.Products(), db.Stores(), gate),
		recon:  inventory.NewReconciliationUseCase(runner, db.Products(), db.Movements(), gate),
		ledger: inventory.NewLedgerQueryUseCase(db.Movements(), gate),
	}
	f.storeA = f.store(t, "Tienda Centro", "CEN")
	f.storeB = f.store(t, "Tienda Norte", "NOR")
	return f
}

func (f *fixture) store(t *testing.T, name, code string) *entity.Store {
	t.Helper()
	now := time.Now()
	s := &entity.Store{ID: uuid.New().String(), Name: name, Code: code, IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.db.Stores().Create(context.Background(), s))
	return s
}

func (f *fixture) product(t *testing.T, storeID, sku, price string, reorder int64) *entity.Product {
	t.Helper()
	now := time.Now()
	p := &entity.Product{
		ID:           uuid.New().String(),
		StoreID:      storeID,
		SKU:          sku,
		Name:         "Producto " + sku,
		UnitPrice:    decimal.RequireFromString(price),
		ReorderLevel: reorder,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, f.db.Products().Create(context.Background(), p))
	return p
}

func (f *fixture) stockIn(t *testing.T, p *entity.Product, qty int64) {
	t.Helper()
	_, err := f.uc.StockIn(context.Background(), inventory.MovementInput{
		Actor: admin, StoreID: p.StoreID, ProductID: p.ID, Quantity: qty,
	})
	require.NoError(t, err)
}

func (f *fixture) quantity(t *testing.T, productID string) int64 {
	t.Helper()
	p, err := f.db.Products().GetByID(context.Background(), productID)
	require.NoError(t, err)
	return p.CurrentQuantity
}

func (f *fixture) movements(t *testing.T, productID string) []*entity.InventoryMovement {
	t.Helper()
	movs, err := f.db.Movements().Query(context.Background(), repository.MovementFilter{ProductID: productID})
	require.NoError(t, err)
	return movs
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func dtoRemoval(productID string, qty int64, reason string) dto.RegisterMovementRequest {
	return dto.RegisterMovementRequest{ProductID: productID, Quantity: qty, Reason: reason}
}
