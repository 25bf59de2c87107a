package inventory_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kiryana-inventory/internal/application/inventory"
	"github.com/jhoicas/kiryana-inventory/internal/domain"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
	"github.com/jhoicas/kiryana-inventory/internal/domain/repository"
	"github.com/jhoicas/kiryana-inventory/internal/infrastructure/memory"
)

func TestEscenarios_EntradaVentaRechazoBaja(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, f.storeA.ID, "ARZ-1", "7.50", 10)

	// A: entrada de 50 a 5.00, sin advertencia
	res, err := f.uc.StockIn(ctx, inventory.MovementInput{
		Actor: admin, StoreID: f.storeA.ID, ProductID: p.ID, Quantity: 50, UnitPrice: price("5.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50), res.NewQuantity)
	assert.Empty(t, res.Warnings)
	assert.True(t, decimal.RequireFromString("5.00").Equal(res.Movement.UnitPrice))

	// B: venta de 45 deja 5, con advertencia de stock bajo
	res, err = f.uc.Sale(ctx, inventory.MovementInput{
		Actor: admin, StoreID: f.storeA.ID, ProductID: p.ID, Quantity: 45,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.NewQuantity)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, inventory.WarningLowStock, res.Warnings[0].Code)
	assert.True(t, decimal.RequireFromString("7.50").Equal(res.Movement.UnitPrice), "sin precio explícito usa el del producto")

	// C: venta de 10 rechazada, la cantidad no cambia
	_, err = f.uc.Sale(ctx, inventory.MovementInput{
		Actor: admin, StoreID: f.storeA.ID, ProductID: p.ID, Quantity: 10,
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(5), insufficient.Available)
	assert.Equal(t, int64(10), insufficient.Requested)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(5), f.quantity(t, p.ID))
	assert.Len(t, f.movements(t, p.ID), 2, "el rechazo no deja movimiento")

	// D: baja de 5 por daño ignora el precio recibido
	res, err = f.uc.Removal(ctx, inventory.MovementInput{
		Actor: admin, StoreID: f.storeA.ID, ProductID: p.ID, Quantity: 5, UnitPrice: price("0.01"), Notes: "caja rota",
	}, "damaged")
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.NewQuantity)
	assert.Equal(t, entity.MovementRemoval, res.Movement.Type)
	assert.True(t, decimal.RequireFromString("7.50").Equal(res.Movement.UnitPrice))
	assert.Equal(t, "Reason: damaged\ncaja rota", res.Movement.Notes)
	assert.Equal(t, "Removal: damaged", res.Movement.Reference)

	got, err := f.recon.Recompute(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, f.quantity(t, p.ID), got)
}

func TestEscenarioE_TrasladoEntreTiendas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	src := f.product(t, f.storeA.ID, "ACE-1", "12.00", 5)
	dst := f.product(t, f.storeB.ID, "ACE-1", "12.50", 5)
	f.stockIn(t, src, 30)

	res, err := f.uc.Transfer(ctx, inventory.TransferInput{
		Actor: admin, ProductID: src.ID, SourceStoreID: f.storeA.ID, DestinationStoreID: f.storeB.ID, Quantity: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.SourceQuantity)
	assert.Equal(t, int64(20), res.DestinationQuantity)
	assert.Equal(t, int64(10), f.quantity(t, src.ID))
	assert.Equal(t, int64(20), f.quantity(t, dst.ID))

	out := f.movements(t, src.ID)
	in := f.movements(t, dst.ID)
	require.Len(t, out, 2)
	require.Len(t, in, 1)
	assert.Equal(t, entity.MovementTransferIn, in[0].Type)
	assert.Equal(t, res.TransferID, in[0].TransferID)
	assert.Equal(t, res.TransferID, res.Out.TransferID)
	assert.Equal(t, entity.MovementTransferOut, res.Out.Type)
	assert.Equal(t, f.storeB.ID, in[0].StoreID)
}

func TestTransfer_StockInsuficienteNoDejaNingunaPata(t *testing.T) {
	f := newFixture(t)
	src := f.product(t, f.storeA.ID, "ACE-1", "12.00", 5)
	dst := f.product(t, f.storeB.ID, "ACE-1", "12.00", 5)
	f.stockIn(t, src, 3)

	_, err := f.uc.Transfer(context.Background(), inventory.TransferInput{
		Actor: admin, ProductID: src.ID, SourceStoreID: f.storeA.ID, DestinationStoreID: f.storeB.ID, Quantity: 4,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(3), f.quantity(t, src.ID))
	assert.Equal(t, int64(0), f.quantity(t, dst.ID))
	assert.Len(t, f.movements(t, src.ID), 1)
	assert.Empty(t, f.movements(t, dst.ID))
}

func TestStockIn_DesbordeEsCantidadInvalida(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, f.storeA.ID, "ARZ-1", "1.00", 0)
	f.stockIn(t, p, 10)

	_, err := f.uc.StockIn(context.Background(), inventory.MovementInput{
		Actor: admin, StoreID: f.storeA.ID, ProductID: p.ID, Quantity: math.MaxInt64,
	})
	var invalid *domain.InvalidQuantityError
	require.ErrorAs(t, err, &invalid)
	assert.True(t, invalid.Overflow)
	assert.Equal(t, int64(10), invalid.Current)
	assert.False(t, errors.Is(err, domain.ErrInsufficientStock), "una entrada nunca es stock insuficiente")
	assert.Equal(t, int64(10), f.quantity(t, p.ID))
	assert.Len(t, f.movements(t, p.ID), 1)

	// justo en el límite sí cabe
	res, err := f.uc.StockIn(context.Background(), inventory.MovementInput{
		Actor: admin, StoreID: f.storeA.ID, ProductID: p.ID, Quantity: math.MaxInt64 - 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), res.NewQuantity)
}

func TestTransfer_DesbordeEnDestinoNoDejaNingunaPata(t *testing.T) {
	f := newFixture(t)
	src := f.product(t, f.storeA.ID, "ACE-1", "12.00", 0)
	dst := f.product(t, f.storeB.ID, "ACE-1", "12.00", 0)
	f.stockIn(t, src, 5)
	f.db.ForceQuantity(dst.ID, math.MaxInt64-2)

	_, err := f.uc.Transfer(context.Background(), inventory.TransferInput{
		Actor: admin, ProductID: src.ID, SourceStoreID: f.storeA.ID, DestinationStoreID: f.storeB.ID, Quantity: 3,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Equal(t, int64(5), f.quantity(t, src.ID))
	assert.Equal(t, int64(math.MaxInt64-2), f.quantity(t, dst.ID))
	assert.Len(t, f.movements(t, src.ID), 1)
	assert.Empty(t, f.movements(t, dst.ID))
}

func TestTransfer_SinProductoDestinoEsNotFound(t *testing.T) {
	f := newFixture(t)
	src := f.product(t, f.storeA.ID, "ACE-1", "12.00", 5)
	f.stockIn(t, src, 3)

	_, err := f.uc.Transfer(context.Background(), inventory.TransferInput{
		Actor: admin, ProductID: src.ID, SourceStoreID: f.storeA.ID, DestinationStoreID: f.storeB.ID, Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransfer_MismaTiendaEsInvalido(t *testing.T) {
	f := newFixture(t)
	src := f.product(t, f.storeA.ID, "ACE-1", "12.00", 5)
	_, err := f.uc.Transfer(context.Background(), inventory.TransferInput{
		Actor: admin, ProductID: src.ID, SourceStoreID: f.storeA.ID, DestinationStoreID: f.storeA.ID, Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecordMovement_CantidadNoPositiva(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, f.storeA.ID, "X", "1.00", 10)
	for _, qty := range []int64{0, -3} {
		_, err := f.uc.StockIn(context.Background(), inventory.MovementInput{
			Actor: admin, StoreID: f.storeA.ID, ProductID: p.ID, Quantity: qty,
		})
		var invalid *domain.InvalidQuantityError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, qty, invalid.Quantity)
	}
	assert.Empty(t, f.movements(t, p.ID))
}

func TestRecordMovement_PrecioNegativo(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, f.storeA.ID, "X", "1.00", 10)
	_, err := f.uc.StockIn(context.Background(), inventory.MovementInput{
		Actor: admin, StoreID: f.storeA.ID, ProductID: p.ID, Quantity: 1, UnitPrice: price("-1"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecordMovement_PrecioConMasDeDosDecimales(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, f.storeA.ID, "X", "1.00", 10)
	_, err := f.uc.StockIn(context.Background(), inventory.MovementInput{
		Actor: admin, StoreID: f.storeA.ID, ProductID: p.ID, Quantity: 1, UnitPrice: price("1.005"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, f.movements(t, p.ID))

	res, err := f.uc.StockIn(context.Background(), inventory.MovementInput{
		Actor: admin, StoreID: f.storeA.ID, ProductID: p.ID, Quantity: 1, UnitPrice: price("1.250"),
	})
	require.NoError(t, err)
	assert.Equal(t, "1.25", res.Movement.UnitPrice.String())
}

func TestRecordMovement_TrasladoSueltoEsInvalido(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, f.storeA.ID, "X", "1.00", 10)
	_, err := f.uc.RecordMovement(context.Background(), inventory.MovementInput{
		Actor: admin, StoreID: f.storeA.ID, ProductID: p.ID, Type: entity.MovementTransferIn, Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecordMovement_ProductoDeOtraTienda(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, f.storeB.ID, "X", "1.00", 10)
	_, err := f.uc.StockIn(context.Background(), inventory.MovementInput{
		Actor: admin, StoreID: f.storeA.ID, ProductID: p.ID, Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int64(0), f.quantity(t, p.ID))
}

func TestRecordMovement_ProductoInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.StockIn(context.Background(), inventory.MovementInput{
		Actor: admin, StoreID: f.storeA.ID, ProductID: "no-existe", Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordMovement_TiendaInactiva(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, f.storeA.ID, "X", "1.00", 10)
	f.storeA.IsActive = false
	require.NoError(t, f.db.Stores().Update(ctx, f.storeA))

	_, err := f.uc.StockIn(ctx, inventory.MovementInput{Actor: admin, StoreID: f.storeA.ID, ProductID: p.ID, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRecordMovement_PermisoDenegado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, f.storeA.ID, "X", "1.00", 10)
	f.db.Grant(staff.UserID, f.storeA.ID, entity.PermissionRead)

	_, err := f.uc.StockIn(ctx, inventory.MovementInput{Actor: staff, StoreID: f.storeA.ID, ProductID: p.ID, Quantity: 1})
	var denied *domain.PermissionDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "write", denied.Action)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, f.movements(t, p.ID))

	// manager con cualquier permiso sobre la tienda puede escribir
	f.db.Grant(manager.UserID, f.storeA.ID, entity.PermissionRead)
	res, err := f.uc.StockIn(ctx, inventory.MovementInput{Actor: manager, StoreID: f.storeA.ID, ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, manager.UserID, res.Movement.CreatedBy)
}

func TestRecordMovement_FechaRetroactivaOrdenaElLibro(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, f.storeA.ID, "X", "1.00", 0)
	f.stockIn(t, p, 10)
	past := time.Now().AddDate(0, 0, -7)
	_, err := f.uc.Sale(ctx, inventory.MovementInput{Actor: admin, StoreID: f.storeA.ID, ProductID: p.ID, Quantity: 1, MovementDate: &past})
	require.NoError(t, err)

	movs := f.movements(t, p.ID)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementStockIn, movs[0].Type, "orden movement_date DESC")
	assert.True(t, movs[1].MovementDate.Equal(past))
}

func TestConcurrencia_VentasNoSobrevenden(t *testing.T) {
	f := newFixtureWithRunner(t, memory.New(5*time.Second), nil)
	p := f.product(t, f.storeA.ID, "X", "1.00", 0)
	const stock, sales = 7, 20
	f.stockIn(t, p, stock)

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
	)
	for i := 0; i < sales; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Sale(context.Background(), inventory.MovementInput{
				Actor: admin, StoreID: f.storeA.ID, ProductID: p.ID, Quantity: 1,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, stock, ok)
	assert.Equal(t, sales-stock, rejected)
	assert.Equal(t, int64(0), f.quantity(t, p.ID))
	net, err := f.recon.Recompute(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), net)
}

func TestConcurrencia_TrasladosCruzadosSinInterbloqueo(t *testing.T) {
	f := newFixtureWithRunner(t, memory.New(5*time.Second), nil)
	a := f.product(t, f.storeA.ID, "ACE-1", "1.00", 0)
	b := f.product(t, f.storeB.ID, "ACE-1", "1.00", 0)
	f.stockIn(t, a, 50)
	f.stockIn(t, b, 50)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.uc.Transfer(context.Background(), inventory.TransferInput{
				Actor: admin, ProductID: a.ID, SourceStoreID: f.storeA.ID, DestinationStoreID: f.storeB.ID, Quantity: 1,
			})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := f.uc.Transfer(context.Background(), inventory.TransferInput{
				Actor: admin, ProductID: b.ID, SourceStoreID: f.storeB.ID, DestinationStoreID: f.storeA.ID, Quantity: 1,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), f.quantity(t, a.ID))
	assert.Equal(t, int64(50), f.quantity(t, b.ID))
}

func TestContencion_BloqueoAgotado(t *testing.T) {
	db := memory.New(50 * time.Millisecond)
	f := newFixtureWithRunner(t, db, nil)
	p := f.product(t, f.storeA.ID, "X", "1.00", 0)

	locked := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = db.TxRunner().Run(context.Background(), func(
			_ repository.InventoryMovementRepository,
			stockRepo repository.StockRepository,
			_ repository.ProductRepository,
		) error {
			_, err := stockRepo.GetForUpdate(context.Background(), p.ID)
			close(locked)
			<-done
			return err
		})
	}()
	<-locked
	defer close(done)

	_, err := f.uc.StockIn(context.Background(), inventory.MovementInput{Actor: admin, StoreID: f.storeA.ID, ProductID: p.ID, Quantity: 1})
	var contention *domain.ContentionError
	require.ErrorAs(t, err, &contention)
	assert.Equal(t, p.ID, contention.ProductID)
	assert.Empty(t, f.movements(t, p.ID))
}

// failingRunner hace fallar AdjustQuantity después de que el movimiento ya se agregó.
type failingRunner struct {
	inner inventory.TxRunner
}

type failingStock struct {
	repository.StockRepository
}

var errInjected = errors.New("fallo inyectado")

func (failingStock) AdjustQuantity(context.Context, string, int64) (int64, error) {
	return 0, errInjected
}

func (r failingRunner) Run(ctx context.Context, fn func(
	movRepo repository.InventoryMovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
) error) error {
	return r.inner.Run(ctx, func(
		movRepo repository.InventoryMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error {
		return fn(movRepo, failingStock{stockRepo}, productRepo)
	})
}

func TestAtomicidad_FalloTrasAgregarMovimiento(t *testing.T) {
	db := memory.New(time.Second)
	healthy := newFixtureWithRunner(t, db, nil)
	p := healthy.product(t, healthy.storeA.ID, "X", "1.00", 0)
	healthy.stockIn(t, p, 4)

	gate := inventory.NewPermissionGate(db.Permissions())
	broken := inventory.NewRegisterMovementUseCase(failingRunner{db.TxRunner()}, db.Products(), db.Stores(), gate)
	_, err := broken.Sale(context.Background(), inventory.MovementInput{
		Actor: admin, StoreID: healthy.storeA.ID, ProductID: p.ID, Quantity: 1,
	})
	require.ErrorIs(t, err, errInjected)

	assert.Equal(t, int64(4), healthy.quantity(t, p.ID))
	assert.Len(t, healthy.movements(t, p.ID), 1, "el movimiento agregado se descarta con el rollback")
}

func TestRegisterFromRequest_RespuestaConAdvertencias(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, f.storeA.ID, "X", "2.00", 10)
	f.stockIn(t, p, 12)

	resp, err := f.uc.RegisterFromRequest(context.Background(), admin, f.storeA.ID, entity.MovementRemoval,
		dtoRemoval(p.ID, 3, "expired"))
	require.NoError(t, err)
	assert.Equal(t, int64(9), resp.NewStockLevel)
	require.Len(t, resp.Warnings, 1)
	assert.Equal(t, "removal", resp.Movement.MovementType)
	assert.Equal(t, "Removal: expired", resp.Movement.Reference)
	assert.True(t, decimal.RequireFromString("6").Equal(resp.Movement.TotalValue))
}
