package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kiryana-inventory/internal/application/dto"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
	"github.com/jhoicas/kiryana-inventory/internal/domain/repository"
)

// ReplenishmentUseCase genera la lista de reposición de una tienda.
// Combina el stock actual con las ventas del libro para priorizar los SKUs críticos.
type ReplenishmentUseCase struct {
	productRepo repository.ProductRepository
	movRepo     repository.InventoryMovementRepository
	gate        AccessGate
	now         func() time.Time
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(
	productRepo repository.ProductRepository,
	movRepo repository.InventoryMovementRepository,
	gate AccessGate,
) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{
		productRepo: productRepo,
		movRepo:     movRepo,
		gate:        gate,
		now:         time.Now,
	}
}

// salesWindow ventana de ventas usada para priorizar la reposición.
const salesWindow = 90 * 24 * time.Hour

type salesStats struct {
	units   int64
	revenue decimal.Decimal
}

// GenerateReplenishmentList devuelve los productos en o bajo el nivel de reorden con la cantidad
// sugerida de pedido y un ranking de prioridad basado en margen y volumen de ventas de 90 días.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(
	ctx context.Context,
	actor entity.Actor,
	storeID string,
) ([]dto.ReplenishmentSuggestionDTO, error) {
	if err := RequireRead(ctx, uc.gate, actor, storeID); err != nil {
		return nil, err
	}

	// 1. Productos en o bajo el nivel de reorden
	var low []*entity.Product
	for offset := 0; ; offset += verifyPageSize {
		page, err := uc.productRepo.List(ctx, repository.ProductFilter{StoreID: storeID, LowStock: true, Limit: verifyPageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		low = append(low, page...)
		if len(page) < verifyPageSize {
			break
		}
	}
	if len(low) == 0 {
		return []dto.ReplenishmentSuggestionDTO{}, nil
	}

	// 2. Ventas de los últimos 90 días por producto, al precio histórico
	from := uc.now().Add(-salesWindow)
	sales := make(map[string]*salesStats, len(low))
	err := uc.movRepo.Each(ctx, repository.MovementFilter{StoreID: storeID, Type: entity.MovementSale, From: &from},
		func(m *entity.InventoryMovement) error {
			s, ok := sales[m.ProductID]
			if !ok {
				s = &salesStats{revenue: decimal.Zero}
				sales[m.ProductID] = s
			}
			s.units += m.Quantity
			s.revenue = s.revenue.Add(m.TotalValue())
			return nil
		})
	if err != nil {
		return nil, err
	}

	// 3. Construir los DTOs enriquecidos
	hundred := decimal.NewFromInt(100)
	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0, len(low))
	for _, p := range low {
		ideal := decimal.NewFromInt(p.ReorderLevel).Mul(decimal.NewFromFloat(1.5)).Ceil().IntPart()
		suggested := ideal - p.CurrentQuantity
		if suggested < 0 {
			suggested = 0
		}
		unitCost := p.UnitPrice
		if p.CostPrice != nil {
			unitCost = *p.CostPrice
		}

		var margin decimal.Decimal
		var unitsSold int64
		if s, ok := sales[p.ID]; ok && s.revenue.GreaterThan(decimal.Zero) {
			unitsSold = s.units
			cogs := unitCost.Mul(decimal.NewFromInt(s.units))
			margin = s.revenue.Sub(cogs).Div(s.revenue).Mul(hundred).Round(2)
		} else if s != nil {
			unitsSold = s.units
		} else if p.UnitPrice.GreaterThan(decimal.Zero) {
			// Sin historial de ventas: estimar margen por precio y costo
			margin = p.UnitPrice.Sub(unitCost).Div(p.UnitPrice).Mul(hundred).Round(2)
		}

		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			ProductID:           p.ID,
			SKU:                 p.SKU,
			ProductName:         p.Name,
			CurrentStock:        p.CurrentQuantity,
			ReorderLevel:        p.ReorderLevel,
			IdealStock:          ideal,
			SuggestedOrderQty:   suggested,
			UnitCost:            unitCost,
			EstimatedOrderCost:  unitCost.Mul(decimal.NewFromInt(suggested)),
			GrossMarginPct:      margin,
			UnitsSoldLast90Days: unitsSold,
		})
	}

	// 4. Ordenar: primero agotados, luego mayor volumen de ventas, mayor margen y mayor déficit.
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if (a.CurrentStock == 0) != (b.CurrentStock == 0) {
			return a.CurrentStock == 0
		}
		if a.UnitsSoldLast90Days != b.UnitsSoldLast90Days {
			return a.UnitsSoldLast90Days > b.UnitsSoldLast90Days
		}
		if !a.GrossMarginPct.Equal(b.GrossMarginPct) {
			return a.GrossMarginPct.GreaterThan(b.GrossMarginPct)
		}
		return a.ReorderLevel-a.CurrentStock > b.ReorderLevel-b.CurrentStock
	})

	// 5. Asignar prioridad (1 = más urgente)
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}
