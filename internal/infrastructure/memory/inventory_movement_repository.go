package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/kiryana-inventory/internal/domain"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
	"github.com/jhoicas/kiryana-inventory/internal/domain/inventory"
	"github.com/jhoicas/kiryana-inventory/internal/domain/repository"
)

// InventoryMovementRepository implementa repository.InventoryMovementRepository sobre los
// movimientos confirmados. Dentro de una transacción se usa txMovementRepo.
type InventoryMovementRepository struct {
	db *DB
}

func (r *InventoryMovementRepository) Append(_ context.Context, m *entity.InventoryMovement) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.stamp(m)
	r.db.movements = append(r.db.movements, cloneMovement(m))
	return nil
}

func (r *InventoryMovementRepository) GetByID(_ context.Context, id string) (*entity.InventoryMovement, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return findMovement(r.db.movements, id)
}

func (r *InventoryMovementRepository) Query(_ context.Context, f repository.MovementFilter) ([]*entity.InventoryMovement, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return queryMovements(r.db.movements, f), nil
}

func (r *InventoryMovementRepository) Each(ctx context.Context, f repository.MovementFilter, fn func(*entity.InventoryMovement) error) error {
	list, _ := r.Query(ctx, f)
	return each(ctx, list, fn)
}

func (r *InventoryMovementRepository) Totals(_ context.Context, productID string) (inventory.Totals, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return totals(r.db.movements, productID), nil
}

func (r *InventoryMovementRepository) CountByProduct(_ context.Context, productID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, m := range r.db.movements {
		if m.ProductID == productID {
			n++
		}
	}
	return n, nil
}

// stamp asigna ID, Seq y CreatedAt. Requiere db.mu tomado.
func (db *DB) stamp(m *entity.InventoryMovement) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	db.seq++
	m.Seq = db.seq
	m.CreatedAt = time.Now()
	if m.MovementDate.IsZero() {
		m.MovementDate = m.CreatedAt
	}
}

func findMovement(list []*entity.InventoryMovement, id string) (*entity.InventoryMovement, error) {
	for _, m := range list {
		if m.ID == id {
			return cloneMovement(m), nil
		}
	}
	return nil, domain.ErrNotFound
}

func matches(m *entity.InventoryMovement, f repository.MovementFilter) bool {
	switch {
	case f.ProductID != "" && m.ProductID != f.ProductID:
		return false
	case f.StoreID != "" && m.StoreID != f.StoreID:
		return false
	case f.Type != "" && m.Type != f.Type:
		return false
	case f.From != nil && m.MovementDate.Before(*f.From):
		return false
	case f.To != nil && m.MovementDate.After(*f.To):
		return false
	}
	return true
}

// queryMovements filtra y ordena por movement_date DESC, seq ASC.
func queryMovements(list []*entity.InventoryMovement, f repository.MovementFilter) []*entity.InventoryMovement {
	out := make([]*entity.InventoryMovement, 0)
	for _, m := range list {
		if matches(m, f) {
			out = append(out, cloneMovement(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].MovementDate.Equal(out[j].MovementDate) {
			return out[i].MovementDate.After(out[j].MovementDate)
		}
		return out[i].Seq < out[j].Seq
	})
	return paginate(out, f.Limit, f.Offset)
}

func totals(list []*entity.InventoryMovement, productID string) inventory.Totals {
	var t inventory.Totals
	for _, m := range list {
		if m.ProductID == productID {
			t.Add(m)
		}
	}
	return t
}

func each(ctx context.Context, list []*entity.InventoryMovement, fn func(*entity.InventoryMovement) error) error {
	for _, m := range list {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}
