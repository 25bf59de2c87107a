package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/jhoicas/kiryana-inventory/internal/domain"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
	"github.com/jhoicas/kiryana-inventory/internal/domain/repository"
)

var _ repository.StockRepository = (*stockRepo)(nil)

// stockRepo único escritor de products.current_quantity. Solo se construye dentro de TxRunner.Run.
type stockRepo struct {
	q Querier
}

// newStockRepo adaptador de stock atado a la tx. Sin exportar: solo TxRunner.Run lo entrega.
func newStockRepo(q Querier) *stockRepo {
	return &stockRepo{q: q}
}

// GetForUpdate obtiene el producto y bloquea la fila para update (SELECT FOR UPDATE).
func (r *stockRepo) GetForUpdate(ctx context.Context, productID string) (*entity.Product, error) {
	sql, args, err := psql.Select(productColumns...).From("products").
		Where(squirrel.Eq{"id": productID}).Suffix("FOR UPDATE").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var row productRow
	if err := pgxscan.Get(ctx, r.q, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get product for update: %w", err)
	}
	return row.toEntity(), nil
}

// AdjustQuantity suma delta y devuelve la cantidad resultante. El CHECK current_quantity >= 0
// respalda la verificación de stock que el coordinador hace con la fila bloqueada.
func (r *stockRepo) AdjustQuantity(ctx context.Context, productID string, delta int64) (int64, error) {
	var qty int64
	err := r.q.QueryRow(ctx, `
		UPDATE products SET current_quantity = current_quantity + $2, updated_at = now()
		WHERE id = $1
		RETURNING current_quantity`, productID, delta).Scan(&qty)
	if err != nil {
		if pgxscan.NotFound(err) {
			return 0, domain.ErrNotFound
		}
		if isCheckViolation(err) {
			return 0, fmt.Errorf("%w: producto %s", domain.ErrInsufficientStock, productID)
		}
		if isOutOfRange(err) {
			return 0, &domain.InvalidQuantityError{Quantity: delta, Overflow: true}
		}
		return 0, fmt.Errorf("adjust quantity: %w", err)
	}
	return qty, nil
}

// SetQuantity sobrescribe la caché; solo la usa la reparación contra el libro.
func (r *stockRepo) SetQuantity(ctx context.Context, productID string, quantity int64) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE products SET current_quantity = $2, updated_at = now() WHERE id = $1`, productID, quantity)
	if err != nil {
		if isCheckViolation(err) {
			return &domain.InvalidQuantityError{Quantity: quantity}
		}
		return fmt.Errorf("set quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
