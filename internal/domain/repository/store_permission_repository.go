package repository

import (
	"context"

	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
)

// StorePermissionRepository lectura de permisos por usuario (la gestión de permisos es externa al núcleo).
type StorePermissionRepository interface {
	ListByUser(ctx context.Context, userID string) ([]entity.StorePermission, error)
}
