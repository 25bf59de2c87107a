package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/kiryana-inventory/internal/domain"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
	"github.com/jhoicas/kiryana-inventory/internal/domain/repository"
)

// PermissionGate implementa AccessGate sobre la tabla store_permissions.
type PermissionGate struct {
	repo repository.StorePermissionRepository
}

// NewPermissionGate construye el gate.
func NewPermissionGate(repo repository.StorePermissionRepository) *PermissionGate {
	return &PermissionGate{repo: repo}
}

// CanRead admin siempre; el resto con cualquier permiso sobre la tienda.
func (g *PermissionGate) CanRead(ctx context.Context, actor entity.Actor, storeID string) (bool, error) {
	if actor.Role == entity.RoleAdmin {
		return true, nil
	}
	perms, err := g.repo.ListByUser(ctx, actor.UserID)
	if err != nil {
		return false, fmt.Errorf("permisos de %s: %w", actor.UserID, err)
	}
	return entity.CanReadStore(actor, perms, storeID), nil
}

// CanWrite admin siempre; manager con permiso sobre la tienda; el resto con nivel write/admin.
func (g *PermissionGate) CanWrite(ctx context.Context, actor entity.Actor, storeID string) (bool, error) {
	if actor.Role == entity.RoleAdmin {
		return true, nil
	}
	perms, err := g.repo.ListByUser(ctx, actor.UserID)
	if err != nil {
		return false, fmt.Errorf("permisos de %s: %w", actor.UserID, err)
	}
	return entity.CanWriteStore(actor, perms, storeID), nil
}

// RequireRead devuelve *domain.PermissionDeniedError si el gate no autoriza la lectura.
func RequireRead(ctx context.Context, gate AccessGate, actor entity.Actor, storeID string) error {
	ok, err := gate.CanRead(ctx, actor, storeID)
	if err != nil {
		return err
	}
	if !ok {
		return &domain.PermissionDeniedError{ActorID: actor.UserID, StoreID: storeID, Action: "read"}
	}
	return nil
}

// RequireWrite devuelve *domain.PermissionDeniedError si el gate no autoriza la escritura.
func RequireWrite(ctx context.Context, gate AccessGate, actor entity.Actor, storeID string) error {
	ok, err := gate.CanWrite(ctx, actor, storeID)
	if err != nil {
		return err
	}
	if !ok {
		return &domain.PermissionDeniedError{ActorID: actor.UserID, StoreID: storeID, Action: "write"}
	}
	return nil
}
