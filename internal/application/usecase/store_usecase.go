package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/kiryana-inventory/internal/application/dto"
	"github.com/jhoicas/kiryana-inventory/internal/application/inventory"
	"github.com/jhoicas/kiryana-inventory/internal/domain"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
	"github.com/jhoicas/kiryana-inventory/internal/domain/repository"
)

// StoreUseCase casos de uso CRUD para tiendas.
type StoreUseCase struct {
	repo repository.StoreRepository
	gate inventory.AccessGate
}

// NewStoreUseCase construye el caso de uso.
func NewStoreUseCase(repo repository.StoreRepository, gate inventory.AccessGate) *StoreUseCase {
	return &StoreUseCase{repo: repo, gate: gate}
}

// Create crea una tienda. Solo admin; el código es único entre tiendas activas.
func (uc *StoreUseCase) Create(ctx context.Context, actor entity.Actor, in dto.CreateStoreRequest) (*dto.StoreResponse, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, &domain.PermissionDeniedError{ActorID: actor.UserID, Action: "write"}
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	if in.Name == "" || in.Code == "" {
		return nil, fmt.Errorf("%w: nombre y código son obligatorios", domain.ErrInvalidInput)
	}
	existing, err := uc.repo.GetActiveByCode(ctx, in.Code)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: ya existe una tienda activa con código %s", domain.ErrDuplicate, in.Code)
	}
	now := time.Now()
	store := &entity.Store{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Code:      in.Code,
		Location:  in.Location,
		Address:   in.Address,
		Phone:     in.Phone,
		Email:     in.Email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, store); err != nil {
		return nil, err
	}
	return toStoreResponse(store), nil
}

// GetByID obtiene una tienda por ID.
func (uc *StoreUseCase) GetByID(ctx context.Context, actor entity.Actor, id string) (*dto.StoreResponse, error) {
	if err := inventory.RequireRead(ctx, uc.gate, actor, id); err != nil {
		return nil, err
	}
	store, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toStoreResponse(store), nil
}

// Update actualiza una tienda. Reactivar comprueba que el código siga libre.
func (uc *StoreUseCase) Update(ctx context.Context, actor entity.Actor, id string, in dto.UpdateStoreRequest) (*dto.StoreResponse, error) {
	if err := inventory.RequireWrite(ctx, uc.gate, actor, id); err != nil {
		return nil, err
	}
	store, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: el nombre es obligatorio", domain.ErrInvalidInput)
		}
		store.Name = name
	}
	if in.Location != nil {
		store.Location = *in.Location
	}
	if in.Address != nil {
		store.Address = *in.Address
	}
	if in.Phone != nil {
		store.Phone = *in.Phone
	}
	if in.Email != nil {
		store.Email = *in.Email
	}
	if in.IsActive != nil && *in.IsActive != store.IsActive {
		if *in.IsActive {
			other, err := uc.repo.GetActiveByCode(ctx, store.Code)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
			if other != nil && other.ID != store.ID {
				return nil, fmt.Errorf("%w: ya existe una tienda activa con código %s", domain.ErrDuplicate, store.Code)
			}
		}
		store.IsActive = *in.IsActive
	}
	store.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, store); err != nil {
		return nil, err
	}
	return toStoreResponse(store), nil
}

// Deactivate marca la tienda como inactiva; deja de aceptar movimientos pero conserva su historial.
func (uc *StoreUseCase) Deactivate(ctx context.Context, actor entity.Actor, id string) (*dto.StoreResponse, error) {
	inactive := false
	return uc.Update(ctx, actor, id, dto.UpdateStoreRequest{IsActive: &inactive})
}

// List lista las tiendas visibles para el actor.
func (uc *StoreUseCase) List(ctx context.Context, actor entity.Actor, activeOnly bool, limit, offset int) (*dto.StoreListResponse, error) {
	list, err := uc.repo.List(ctx, activeOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.StoreResponse, 0, len(list))
	for _, s := range list {
		ok, err := uc.gate.CanRead(ctx, actor, s.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			items = append(items, *toStoreResponse(s))
		}
	}
	return &dto.StoreListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func toStoreResponse(s *entity.Store) *dto.StoreResponse {
	if s == nil {
		return nil
	}
	return &dto.StoreResponse{
		ID:        s.ID,
		Name:      s.Name,
		Code:      s.Code,
		Location:  s.Location,
		Address:   s.Address,
		Phone:     s.Phone,
		Email:     s.Email,
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
