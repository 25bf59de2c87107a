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

// ProductUseCase casos de uso del catálogo. El stock no se toca aquí: solo cambia con movimientos.
type ProductUseCase struct {
	repo      repository.ProductRepository
	storeRepo repository.StoreRepository
	movRepo   repository.InventoryMovementRepository
	gate      inventory.AccessGate
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(
	repo repository.ProductRepository,
	storeRepo repository.StoreRepository,
	movRepo repository.InventoryMovementRepository,
	gate inventory.AccessGate,
) *ProductUseCase {
	return &ProductUseCase{repo: repo, storeRepo: storeRepo, movRepo: movRepo, gate: gate}
}

// Create crea un producto con cantidad 0. El SKU, si viene, es único dentro de la tienda.
func (uc *ProductUseCase) Create(ctx context.Context, actor entity.Actor, storeID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if err := inventory.RequireWrite(ctx, uc.gate, actor, storeID); err != nil {
		return nil, err
	}
	if _, err := uc.storeRepo.GetByID(ctx, storeID); err != nil {
		return nil, err
	}
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: el nombre es obligatorio", domain.ErrInvalidInput)
	}
	if !entity.ValidPrice(in.UnitPrice) || (in.CostPrice != nil && !entity.ValidPrice(*in.CostPrice)) {
		return nil, fmt.Errorf("%w: los precios deben ser no negativos y con a lo sumo %d decimales", domain.ErrInvalidInput, entity.PriceScale)
	}
	reorder := int64(entity.DefaultReorderLevel)
	if in.ReorderLevel != nil {
		if *in.ReorderLevel < 0 {
			return nil, fmt.Errorf("%w: el nivel de reorden no puede ser negativo", domain.ErrInvalidInput)
		}
		reorder = *in.ReorderLevel
	}
	if err := uc.checkSKU(ctx, storeID, in.SKU, ""); err != nil {
		return nil, err
	}
	now := time.Now()
	product := &entity.Product{
		ID:           uuid.New().String(),
		StoreID:      storeID,
		SKU:          in.SKU,
		Barcode:      strings.TrimSpace(in.Barcode),
		Name:         in.Name,
		Description:  in.Description,
		Category:     in.Category,
		UnitPrice:    in.UnitPrice,
		CostPrice:    in.CostPrice,
		ReorderLevel: reorder,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return ToProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, actor entity.Actor, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := inventory.RequireRead(ctx, uc.gate, actor, product.StoreID); err != nil {
		return nil, err
	}
	return ToProductResponse(product), nil
}

// GetBySKU obtiene un producto por tienda y SKU.
func (uc *ProductUseCase) GetBySKU(ctx context.Context, actor entity.Actor, storeID, sku string) (*dto.ProductResponse, error) {
	if err := inventory.RequireRead(ctx, uc.gate, actor, storeID); err != nil {
		return nil, err
	}
	product, err := uc.repo.GetByStoreAndSKU(ctx, storeID, sku)
	if err != nil {
		return nil, err
	}
	return ToProductResponse(product), nil
}

// Update actualiza datos del catálogo. Nunca modifica la cantidad en stock.
func (uc *ProductUseCase) Update(ctx context.Context, actor entity.Actor, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := inventory.RequireWrite(ctx, uc.gate, actor, product.StoreID); err != nil {
		return nil, err
	}
	if in.SKU != nil {
		sku := strings.TrimSpace(*in.SKU)
		if sku != product.SKU {
			if err := uc.checkSKU(ctx, product.StoreID, sku, product.ID); err != nil {
				return nil, err
			}
			product.SKU = sku
		}
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: el nombre es obligatorio", domain.ErrInvalidInput)
		}
		product.Name = name
	}
	if in.Barcode != nil {
		product.Barcode = strings.TrimSpace(*in.Barcode)
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Category != nil {
		product.Category = *in.Category
	}
	if in.UnitPrice != nil {
		if !entity.ValidPrice(*in.UnitPrice) {
			return nil, fmt.Errorf("%w: el precio debe ser no negativo y con a lo sumo %d decimales", domain.ErrInvalidInput, entity.PriceScale)
		}
		product.UnitPrice = *in.UnitPrice
	}
	if in.CostPrice != nil {
		if !entity.ValidPrice(*in.CostPrice) {
			return nil, fmt.Errorf("%w: el costo debe ser no negativo y con a lo sumo %d decimales", domain.ErrInvalidInput, entity.PriceScale)
		}
		cost := *in.CostPrice
		product.CostPrice = &cost
	}
	if in.ReorderLevel != nil {
		if *in.ReorderLevel < 0 {
			return nil, fmt.Errorf("%w: el nivel de reorden no puede ser negativo", domain.ErrInvalidInput)
		}
		product.ReorderLevel = *in.ReorderLevel
	}
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return ToProductResponse(product), nil
}

// List lista productos de una tienda con paginación; lowStock filtra los que están en o bajo el reorden.
func (uc *ProductUseCase) List(ctx context.Context, actor entity.Actor, storeID string, lowStock bool, limit, offset int) (*dto.ProductListResponse, error) {
	if err := inventory.RequireRead(ctx, uc.gate, actor, storeID); err != nil {
		return nil, err
	}
	list, err := uc.repo.List(ctx, repository.ProductFilter{StoreID: storeID, LowStock: lowStock, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *ToProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Delete elimina un producto solo si ningún movimiento lo referencia.
func (uc *ProductUseCase) Delete(ctx context.Context, actor entity.Actor, id string) error {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := inventory.RequireWrite(ctx, uc.gate, actor, product.StoreID); err != nil {
		return err
	}
	n, err := uc.movRepo.CountByProduct(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %d movimientos", domain.ErrProductHasMovements, n)
	}
	return uc.repo.Delete(ctx, id)
}

// checkSKU rechaza un SKU ya usado en la tienda por otro producto.
func (uc *ProductUseCase) checkSKU(ctx context.Context, storeID, sku, selfID string) error {
	if sku == "" {
		return nil
	}
	existing, err := uc.repo.GetByStoreAndSKU(ctx, storeID, sku)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return &domain.DuplicateSKUError{StoreID: storeID, SKU: sku}
	}
	return nil
}

// ToProductResponse convierte la entidad a su DTO de salida.
func ToProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:              p.ID,
		StoreID:         p.StoreID,
		SKU:             p.SKU,
		Barcode:         p.Barcode,
		Name:            p.Name,
		Description:     p.Description,
		Category:        p.Category,
		UnitPrice:       p.UnitPrice,
		CostPrice:       p.CostPrice,
		ReorderLevel:    p.ReorderLevel,
		CurrentQuantity: p.CurrentQuantity,
		StockStatus:     string(p.StockStatus()),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
