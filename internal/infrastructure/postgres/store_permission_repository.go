package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
	"github.com/jhoicas/kiryana-inventory/internal/domain/repository"
)

var _ repository.StorePermissionRepository = (*StorePermissionRepo)(nil)

// StorePermissionRepo lectura de store_permissions.
type StorePermissionRepo struct {
	q Querier
}

// NewStorePermissionRepository construye el adaptador.
func NewStorePermissionRepository(q Querier) *StorePermissionRepo {
	return &StorePermissionRepo{q: q}
}

// ListByUser permisos del usuario sobre tiendas activas.
func (r *StorePermissionRepo) ListByUser(ctx context.Context, userID string) ([]entity.StorePermission, error) {
	rows, err := r.q.Query(ctx, `
		SELECT sp.user_id, sp.store_id, sp.level, sp.created_at, sp.updated_at
		FROM store_permissions sp
		JOIN stores s ON s.id = sp.store_id AND s.is_active
		WHERE sp.user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	perms, err := pgx.CollectRows(rows, pgx.RowToStructByPos[entity.StorePermission])
	if err != nil {
		return nil, fmt.Errorf("scan permissions: %w", err)
	}
	return perms, nil
}
