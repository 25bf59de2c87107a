package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kiryana-inventory/internal/application/dto"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
	"github.com/jhoicas/kiryana-inventory/internal/domain/repository"
)

// SummaryUseCase resumen de inventario de una tienda (estado de stock y valor).
type SummaryUseCase struct {
	productRepo repository.ProductRepository
	gate        AccessGate
}

// NewSummaryUseCase construye el caso de uso.
func NewSummaryUseCase(productRepo repository.ProductRepository, gate AccessGate) *SummaryUseCase {
	return &SummaryUseCase{productRepo: productRepo, gate: gate}
}

// StoreSummary valora el stock al precio actual del producto; los totales de movimientos
// usan en cambio el precio histórico de cada movimiento.
func (uc *SummaryUseCase) StoreSummary(ctx context.Context, actor entity.Actor, storeID string) (*dto.InventorySummaryResponse, error) {
	if err := RequireRead(ctx, uc.gate, actor, storeID); err != nil {
		return nil, err
	}
	res := &dto.InventorySummaryResponse{
		StoreID:    storeID,
		TotalValue: decimal.Zero,
		Products:   []dto.InventoryItemDTO{},
	}
	for offset := 0; ; offset += verifyPageSize {
		page, err := uc.productRepo.List(ctx, repository.ProductFilter{StoreID: storeID, Limit: verifyPageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, p := range page {
			status := p.StockStatus()
			switch status {
			case entity.StockStatusOutOfStock:
				res.OutOfStockCount++
			case entity.StockStatusLowStock:
				res.LowStockCount++
			}
			value := p.StockValue()
			res.TotalItems += p.CurrentQuantity
			res.TotalValue = res.TotalValue.Add(value)
			res.Products = append(res.Products, dto.InventoryItemDTO{
				ID:              p.ID,
				Name:            p.Name,
				SKU:             p.SKU,
				CurrentQuantity: p.CurrentQuantity,
				ReorderLevel:    p.ReorderLevel,
				UnitPrice:       p.UnitPrice,
				Value:           value,
				Status:          string(status),
			})
		}
		if len(page) < verifyPageSize {
			break
		}
	}
	res.ProductCount = len(res.Products)
	return res, nil
}
