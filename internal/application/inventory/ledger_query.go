package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/kiryana-inventory/internal/application/dto"
	"github.com/jhoicas/kiryana-inventory/internal/domain"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
	"github.com/jhoicas/kiryana-inventory/internal/domain/repository"
)

const (
	defaultMovementLimit = 50
	maxMovementLimit     = 500
)

// MovementQuery filtros del historial de una tienda. Days > 0 sustituye a From.
type MovementQuery struct {
	StoreID   string
	ProductID string
	Type      entity.MovementType
	Days      int
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// LedgerQueryUseCase consulta del libro de movimientos (solo lectura).
type LedgerQueryUseCase struct {
	movRepo repository.InventoryMovementRepository
	gate    AccessGate
	now     func() time.Time
}

// NewLedgerQueryUseCase construye el caso de uso.
func NewLedgerQueryUseCase(movRepo repository.InventoryMovementRepository, gate AccessGate) *LedgerQueryUseCase {
	return &LedgerQueryUseCase{movRepo: movRepo, gate: gate, now: time.Now}
}

// ListMovements página de movimientos (movement_date DESC, seq ASC) y totales por tipo
// sobre todos los movimientos que cumplen el filtro, no solo la página.
func (uc *LedgerQueryUseCase) ListMovements(ctx context.Context, actor entity.Actor, q MovementQuery) (*dto.MovementListResponse, error) {
	if q.StoreID == "" {
		return nil, fmt.Errorf("%w: store_id es obligatorio", domain.ErrInvalidInput)
	}
	if q.Type != "" && !q.Type.Valid() {
		return nil, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, q.Type)
	}
	if q.Days < 0 {
		return nil, fmt.Errorf("%w: days no puede ser negativo", domain.ErrInvalidInput)
	}
	if err := RequireRead(ctx, uc.gate, actor, q.StoreID); err != nil {
		return nil, err
	}

	filter := repository.MovementFilter{
		ProductID: q.ProductID,
		StoreID:   q.StoreID,
		Type:      q.Type,
		From:      q.From,
		To:        q.To,
	}
	if q.Days > 0 {
		from := uc.now().AddDate(0, 0, -q.Days)
		filter.From = &from
	}

	var totals dto.MovementTotalsDTO
	total := 0
	err := uc.movRepo.Each(ctx, filter, func(m *entity.InventoryMovement) error {
		addTotals(&totals, m)
		total++
		return nil
	})
	if err != nil {
		return nil, err
	}

	filter.Limit, filter.Offset = pageBounds(q.Limit, q.Offset)
	movs, err := uc.movRepo.Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementDTO, 0, len(movs))
	for _, m := range movs {
		items = append(items, ToMovementDTO(m))
	}
	return &dto.MovementListResponse{
		Items:  items,
		Totals: totals,
		Page:   dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset, Total: total},
	}, nil
}

func addTotals(t *dto.MovementTotalsDTO, m *entity.InventoryMovement) {
	switch m.Type {
	case entity.MovementStockIn:
		t.StockIn += m.Quantity
		t.StockValue = t.StockValue.Add(m.TotalValue())
	case entity.MovementSale:
		t.Sales += m.Quantity
		t.SalesValue = t.SalesValue.Add(m.TotalValue())
	case entity.MovementRemoval:
		t.Removals += m.Quantity
	case entity.MovementTransferIn:
		t.TransferIn += m.Quantity
	case entity.MovementTransferOut:
		t.TransferOut += m.Quantity
	}
	t.NetChange += m.SignedQuantity()
}

func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultMovementLimit
	}
	if limit > maxMovementLimit {
		limit = maxMovementLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
