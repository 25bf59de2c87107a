package inventory

import (
	"context"

	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
	"github.com/jhoicas/kiryana-inventory/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Es la única vía para obtener un StockRepository: la cantidad en caché solo se escribe aquí.
// Si fn devuelve error se hace Rollback y ningún movimiento ni ajuste queda persistido.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.InventoryMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// AccessGate decide si un actor puede leer o escribir en una tienda.
// El coordinador no conoce roles ni tablas de permisos: solo consulta el gate.
type AccessGate interface {
	CanRead(ctx context.Context, actor entity.Actor, storeID string) (bool, error)
	CanWrite(ctx context.Context, actor entity.Actor, storeID string) (bool, error)
}
