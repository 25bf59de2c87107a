package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kiryana-inventory/internal/domain"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
	"github.com/jhoicas/kiryana-inventory/internal/domain/inventory"
	"github.com/jhoicas/kiryana-inventory/internal/domain/repository"
)

// WarningLowStock código de advertencia cuando la cantidad resultante queda en o bajo el nivel de reorden.
const WarningLowStock = "LOW_STOCK"

// Warning advertencia no fatal adjunta al resultado de un movimiento.
type Warning struct {
	Code    string
	Message string
}

// RegisterMovementUseCase coordinador de escrituras de inventario: valida, autoriza y registra
// cada movimiento junto con el ajuste de la cantidad en caché en una sola transacción
// con bloqueo de fila (SELECT FOR UPDATE).
type RegisterMovementUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	storeRepo   repository.StoreRepository
	gate        AccessGate
	now         func() time.Time
}

// NewRegisterMovementUseCase construye el caso de uso.
func NewRegisterMovementUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	storeRepo repository.StoreRepository,
	gate AccessGate,
) *RegisterMovementUseCase {
	return &RegisterMovementUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		storeRepo:   storeRepo,
		gate:        gate,
		now:         time.Now,
	}
}

// MovementInput entrada del coordinador para un movimiento simple (stock_in, sale, removal).
// UnitPrice nil usa el precio actual del producto. MovementDate nil usa la fecha actual.
type MovementInput struct {
	Actor        entity.Actor
	StoreID      string
	ProductID    string
	Type         entity.MovementType
	Quantity     int64
	UnitPrice    *decimal.Decimal
	Reference    string
	Notes        string
	MovementDate *time.Time
}

// MovementResult movimiento persistido, cantidad resultante y advertencias.
type MovementResult struct {
	Movement    *entity.InventoryMovement
	NewQuantity int64
	Warnings    []Warning
}

// TransferInput traslado de unidades entre dos tiendas.
// DestinationProductID vacío: se busca en la tienda destino un producto con el mismo SKU.
type TransferInput struct {
	Actor                entity.Actor
	ProductID            string
	SourceStoreID        string
	DestinationStoreID   string
	DestinationProductID string
	Quantity             int64
	Reference            string
	Notes                string
	MovementDate         *time.Time
}

// TransferResult las dos patas del traslado comparten TransferID.
type TransferResult struct {
	TransferID          string
	Out                 *entity.InventoryMovement
	In                  *entity.InventoryMovement
	SourceQuantity      int64
	DestinationQuantity int64
	Warnings            []Warning
}

// StockIn registra una entrada de mercancía.
func (uc *RegisterMovementUseCase) StockIn(ctx context.Context, in MovementInput) (*MovementResult, error) {
	in.Type = entity.MovementStockIn
	return uc.RecordMovement(ctx, in)
}

// Sale registra una venta.
func (uc *RegisterMovementUseCase) Sale(ctx context.Context, in MovementInput) (*MovementResult, error) {
	in.Type = entity.MovementSale
	return uc.RecordMovement(ctx, in)
}

// Removal registra una baja. El motivo se antepone a las notas y, si no hay referencia,
// la referencia queda "Removal: {motivo}". El precio siempre es el actual del producto.
func (uc *RegisterMovementUseCase) Removal(ctx context.Context, in MovementInput, reason string) (*MovementResult, error) {
	in.Type = entity.MovementRemoval
	in.Notes = inventory.RemovalNotes(reason, in.Notes)
	if strings.TrimSpace(in.Reference) == "" {
		in.Reference = inventory.RemovalReference(reason)
	}
	in.UnitPrice = nil
	return uc.RecordMovement(ctx, in)
}

// RecordMovement valida, autoriza y registra un movimiento. Orden de validación:
// tipo, cantidad, precio, permiso de escritura, tienda activa; luego, dentro del bloqueo,
// pertenencia del producto a la tienda y stock suficiente.
func (uc *RegisterMovementUseCase) RecordMovement(ctx context.Context, in MovementInput) (*MovementResult, error) {
	switch in.Type {
	case entity.MovementStockIn, entity.MovementSale, entity.MovementRemoval:
	case entity.MovementTransferIn, entity.MovementTransferOut:
		return nil, fmt.Errorf("%w: los traslados se registran con Transfer", domain.ErrInvalidInput)
	default:
		return nil, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, in.Type)
	}
	if in.Quantity <= 0 {
		return nil, &domain.InvalidQuantityError{Quantity: in.Quantity}
	}
	if in.UnitPrice != nil && !entity.ValidPrice(*in.UnitPrice) {
		return nil, fmt.Errorf("%w: el precio unitario debe ser no negativo y con a lo sumo %d decimales", domain.ErrInvalidInput, entity.PriceScale)
	}
	if in.ProductID == "" || in.StoreID == "" {
		return nil, fmt.Errorf("%w: product_id y store_id son obligatorios", domain.ErrInvalidInput)
	}
	if err := RequireWrite(ctx, uc.gate, in.Actor, in.StoreID); err != nil {
		return nil, err
	}
	if err := uc.requireActiveStore(ctx, in.StoreID); err != nil {
		return nil, err
	}

	date := uc.movementDate(in.MovementDate)
	var result MovementResult
	var reorderLevel int64

	// Una escritura iniciada no se cancela a mitad: el llamador vuelve a consultar si se desconecta.
	txCtx := context.WithoutCancel(ctx)
	err := uc.txRunner.Run(txCtx, func(
		movRepo repository.InventoryMovementRepository,
		stockRepo repository.StockRepository,
		_ repository.ProductRepository,
	) error {
		product, err := stockRepo.GetForUpdate(txCtx, in.ProductID)
		if err != nil {
			return err
		}
		if product.StoreID != in.StoreID {
			return fmt.Errorf("%w: el producto %s no pertenece a la tienda %s", domain.ErrInvalidInput, in.ProductID, in.StoreID)
		}
		if in.Type.Decreases() && product.CurrentQuantity < in.Quantity {
			return &domain.InsufficientStockError{
				ProductID: product.ID,
				Available: product.CurrentQuantity,
				Requested: in.Quantity,
			}
		}
		if in.Type.Increases() && !inventory.CanIncrease(product.CurrentQuantity, in.Quantity) {
			return &domain.InvalidQuantityError{Quantity: in.Quantity, Overflow: true, Current: product.CurrentQuantity}
		}

		price := product.UnitPrice
		if in.UnitPrice != nil && in.Type != entity.MovementRemoval {
			price = *in.UnitPrice
		}
		mov := &entity.InventoryMovement{
			ID:           uuid.New().String(),
			ProductID:    product.ID,
			StoreID:      in.StoreID,
			Type:         in.Type,
			Quantity:     in.Quantity,
			UnitPrice:    price,
			Reference:    strings.TrimSpace(in.Reference),
			Notes:        strings.TrimSpace(in.Notes),
			CreatedBy:    in.Actor.UserID,
			MovementDate: date,
		}
		if err := movRepo.Append(txCtx, mov); err != nil {
			return err
		}
		newQty, err := stockRepo.AdjustQuantity(txCtx, product.ID, inventory.Delta(in.Type, in.Quantity))
		if err != nil {
			return err
		}
		result.Movement = mov
		result.NewQuantity = newQty
		reorderLevel = product.ReorderLevel
		return nil
	})
	if err != nil {
		return nil, withProduct(err, in.ProductID)
	}
	result.Warnings = stockWarnings(result.NewQuantity, reorderLevel)
	return &result, nil
}

// Transfer registra transfer_out en origen y transfer_in en destino en una sola transacción.
// Ambas filas se bloquean en orden ascendente de ID para evitar interbloqueos entre traslados cruzados.
func (uc *RegisterMovementUseCase) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if in.Quantity <= 0 {
		return nil, &domain.InvalidQuantityError{Quantity: in.Quantity}
	}
	if in.ProductID == "" || in.SourceStoreID == "" || in.DestinationStoreID == "" {
		return nil, fmt.Errorf("%w: producto, tienda origen y tienda destino son obligatorios", domain.ErrInvalidInput)
	}
	if in.SourceStoreID == in.DestinationStoreID {
		return nil, fmt.Errorf("%w: origen y destino deben ser tiendas distintas", domain.ErrInvalidInput)
	}
	if err := RequireWrite(ctx, uc.gate, in.Actor, in.SourceStoreID); err != nil {
		return nil, err
	}
	if err := RequireWrite(ctx, uc.gate, in.Actor, in.DestinationStoreID); err != nil {
		return nil, err
	}
	if err := uc.requireActiveStore(ctx, in.SourceStoreID); err != nil {
		return nil, err
	}
	if err := uc.requireActiveStore(ctx, in.DestinationStoreID); err != nil {
		return nil, err
	}
	destID, err := uc.resolveDestination(ctx, in)
	if err != nil {
		return nil, err
	}
	if destID == in.ProductID {
		return nil, fmt.Errorf("%w: el producto destino debe pertenecer a la tienda destino", domain.ErrInvalidInput)
	}

	date := uc.movementDate(in.MovementDate)
	transferID := uuid.New().String()
	res := TransferResult{TransferID: transferID}
	var sourceReorder int64

	txCtx := context.WithoutCancel(ctx)
	err = uc.txRunner.Run(txCtx, func(
		movRepo repository.InventoryMovementRepository,
		stockRepo repository.StockRepository,
		_ repository.ProductRepository,
	) error {
		locked := make(map[string]*entity.Product, 2)
		for _, id := range lockOrder(in.ProductID, destID) {
			p, err := stockRepo.GetForUpdate(txCtx, id)
			if err != nil {
				return err
			}
			locked[id] = p
		}
		src, dst := locked[in.ProductID], locked[destID]
		if src.StoreID != in.SourceStoreID {
			return fmt.Errorf("%w: el producto %s no pertenece a la tienda %s", domain.ErrInvalidInput, src.ID, in.SourceStoreID)
		}
		if dst.StoreID != in.DestinationStoreID {
			return fmt.Errorf("%w: el producto %s no pertenece a la tienda %s", domain.ErrInvalidInput, dst.ID, in.DestinationStoreID)
		}
		if src.CurrentQuantity < in.Quantity {
			return &domain.InsufficientStockError{ProductID: src.ID, Available: src.CurrentQuantity, Requested: in.Quantity}
		}
		if !inventory.CanIncrease(dst.CurrentQuantity, in.Quantity) {
			return &domain.InvalidQuantityError{Quantity: in.Quantity, Overflow: true, Current: dst.CurrentQuantity}
		}

		out := &entity.InventoryMovement{
			ID:           uuid.New().String(),
			ProductID:    src.ID,
			StoreID:      in.SourceStoreID,
			Type:         entity.MovementTransferOut,
			Quantity:     in.Quantity,
			UnitPrice:    src.UnitPrice,
			Reference:    strings.TrimSpace(in.Reference),
			Notes:        strings.TrimSpace(in.Notes),
			TransferID:   transferID,
			CreatedBy:    in.Actor.UserID,
			MovementDate: date,
		}
		inbound := *out
		inbound.ID = uuid.New().String()
		inbound.ProductID = dst.ID
		inbound.StoreID = in.DestinationStoreID
		inbound.Type = entity.MovementTransferIn

		if err := movRepo.Append(txCtx, out); err != nil {
			return err
		}
		if err := movRepo.Append(txCtx, &inbound); err != nil {
			return err
		}
		srcQty, err := stockRepo.AdjustQuantity(txCtx, src.ID, -in.Quantity)
		if err != nil {
			return err
		}
		dstQty, err := stockRepo.AdjustQuantity(txCtx, dst.ID, in.Quantity)
		if err != nil {
			return err
		}
		res.Out, res.In = out, &inbound
		res.SourceQuantity, res.DestinationQuantity = srcQty, dstQty
		sourceReorder = src.ReorderLevel
		return nil
	})
	if err != nil {
		return nil, withProduct(err, in.ProductID)
	}
	res.Warnings = stockWarnings(res.SourceQuantity, sourceReorder)
	return &res, nil
}

// resolveDestination producto explícito, o el mismo SKU en la tienda destino.
func (uc *RegisterMovementUseCase) resolveDestination(ctx context.Context, in TransferInput) (string, error) {
	if in.DestinationProductID != "" {
		return in.DestinationProductID, nil
	}
	src, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return "", err
	}
	if src.SKU == "" {
		return "", fmt.Errorf("%w: el producto %s no tiene SKU; indique el producto destino", domain.ErrNotFound, src.ID)
	}
	dst, err := uc.productRepo.GetByStoreAndSKU(ctx, in.DestinationStoreID, src.SKU)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("%w: no existe el SKU %q en la tienda destino", domain.ErrNotFound, src.SKU)
		}
		return "", err
	}
	return dst.ID, nil
}

func (uc *RegisterMovementUseCase) requireActiveStore(ctx context.Context, storeID string) error {
	store, err := uc.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		return err
	}
	if !store.IsActive {
		return fmt.Errorf("%w: la tienda %s está inactiva", domain.ErrConflict, store.Code)
	}
	return nil
}

func (uc *RegisterMovementUseCase) movementDate(d *time.Time) time.Time {
	if d != nil && !d.IsZero() {
		return *d
	}
	return uc.now()
}

// lockOrder IDs en orden ascendente.
func lockOrder(a, b string) []string {
	if b < a {
		return []string{b, a}
	}
	return []string{a, b}
}

func stockWarnings(qty, reorderLevel int64) []Warning {
	switch {
	case qty == 0:
		return []Warning{{Code: WarningLowStock, Message: "Stock agotado: el producto quedó sin unidades"}}
	case qty <= reorderLevel:
		return []Warning{{Code: WarningLowStock, Message: fmt.Sprintf("Stock bajo: quedan %d unidades (nivel de reorden %d)", qty, reorderLevel)}}
	}
	return nil
}

// withProduct completa el producto en errores de contención que vienen sin él desde el TxRunner.
func withProduct(err error, productID string) error {
	var ce *domain.ContentionError
	if errors.As(err, &ce) && ce.ProductID == "" {
		ce.ProductID = productID
	}
	return err
}
