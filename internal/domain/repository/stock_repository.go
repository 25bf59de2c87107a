package repository

import (
	"context"

	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
)

// StockRepository único escritor de Product.CurrentQuantity.
// Solo se obtiene dentro de TxRunner.Run, atado a la transacción en curso.
type StockRepository interface {
	// GetForUpdate obtiene el producto y bloquea su fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, productID string) (*entity.Product, error)
	// AdjustQuantity suma delta a la caché y devuelve la cantidad resultante.
	AdjustQuantity(ctx context.Context, productID string, delta int64) (int64, error)
	// SetQuantity sobrescribe la caché; solo para reparar deriva contra el libro.
	SetQuantity(ctx context.Context, productID string, quantity int64) error
}
