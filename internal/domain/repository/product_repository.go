package repository

import (
	"context"

	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
)

// ProductFilter filtros tipados para listar productos de una tienda.
type ProductFilter struct {
	StoreID  string
	LowStock bool // solo productos en o bajo el nivel de reorden
	Limit    int
	Offset   int
}

// ProductRepository define el puerto de persistencia del catálogo (DIP).
// No expone escritura de CurrentQuantity: esa columna solo la toca StockRepository dentro de TxRunner.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetByStoreAndSKU(ctx context.Context, storeID, sku string) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, error)
	Delete(ctx context.Context, id string) error
}
