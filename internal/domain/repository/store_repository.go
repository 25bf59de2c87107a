package repository

import (
	"context"

	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
)

// StoreRepository define el puerto de persistencia para Store (DIP).
type StoreRepository interface {
	Create(ctx context.Context, store *entity.Store) error
	GetByID(ctx context.Context, id string) (*entity.Store, error)
	GetActiveByCode(ctx context.Context, code string) (*entity.Store, error)
	Update(ctx context.Context, store *entity.Store) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*entity.Store, error)
}
