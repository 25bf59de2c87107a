package repository

import (
	"context"
	"time"

	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
	"github.com/jhoicas/kiryana-inventory/internal/domain/inventory"
)

// MovementFilter filtros tipados del libro. Campos vacíos no filtran.
type MovementFilter struct {
	ProductID string
	StoreID   string
	Type      entity.MovementType
	From      *time.Time // movement_date >= From
	To        *time.Time // movement_date <= To
	Limit     int        // 0 = sin límite
	Offset    int
}

// InventoryMovementRepository define el puerto del libro de movimientos (solo inserción).
// No existe update ni delete: las correcciones son movimientos compensatorios.
type InventoryMovementRepository interface {
	// Append inserta un movimiento inmutable; asigna ID, Seq y CreatedAt.
	Append(ctx context.Context, movement *entity.InventoryMovement) error
	GetByID(ctx context.Context, id string) (*entity.InventoryMovement, error)
	// Query devuelve movimientos ordenados por movement_date DESC, seq ASC.
	Query(ctx context.Context, filter MovementFilter) ([]*entity.InventoryMovement, error)
	// Each recorre el mismo orden que Query sin cargar todo en memoria. Se puede volver a llamar.
	Each(ctx context.Context, filter MovementFilter, fn func(*entity.InventoryMovement) error) error
	// Totals suma entradas y salidas de un producto sobre todo el libro.
	Totals(ctx context.Context, productID string) (inventory.Totals, error)
	CountByProduct(ctx context.Context, productID string) (int64, error)
}
