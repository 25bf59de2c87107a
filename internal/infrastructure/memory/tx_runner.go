package memory

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/kiryana-inventory/internal/domain"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
	"github.com/jhoicas/kiryana-inventory/internal/domain/inventory"
	"github.com/jhoicas/kiryana-inventory/internal/domain/repository"
)

var errLockTimeout = errors.New("lock timeout")

// TxRunner ejecuta fn con repositorios atados a una transacción en memoria.
// Los movimientos y ajustes quedan en espera hasta el commit; si fn falla se descartan.
type TxRunner struct {
	db *DB
}

// Run Commit si fn devuelve nil, descarte en cualquier otro caso (incluido panic).
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.InventoryMovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
) error) error {
	tx := &memTx{
		db:      r.db,
		held:    make(map[string]chan struct{}),
		pending: make(map[string]int64),
	}
	defer tx.release()

	if err := fn(&txMovementRepo{tx: tx}, &txStockRepo{tx: tx}, r.db.Products()); err != nil {
		return err
	}
	return tx.commit()
}

type memTx struct {
	db      *DB
	held    map[string]chan struct{}
	staged  []*entity.InventoryMovement
	pending map[string]int64 // cantidad resultante por producto
}

// lock toma el bloqueo del producto con espera acotada. Es reentrante dentro de la misma tx.
func (tx *memTx) lock(ctx context.Context, productID string) error {
	if _, ok := tx.held[productID]; ok {
		return nil
	}
	ch := tx.db.lockFor(productID)
	timer := time.NewTimer(tx.db.lockTimeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		tx.held[productID] = ch
		return nil
	case <-timer.C:
		return &domain.ContentionError{ProductID: productID, Err: errLockTimeout}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (tx *memTx) release() {
	for id, ch := range tx.held {
		<-ch
		delete(tx.held, id)
	}
}

// quantity cantidad vista por la tx: la pendiente si la hay, si no la confirmada.
func (tx *memTx) quantity(productID string) (int64, error) {
	if q, ok := tx.pending[productID]; ok {
		return q, nil
	}
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	p, ok := tx.db.products[productID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return p.CurrentQuantity, nil
}

func (tx *memTx) commit() error {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	for id := range tx.pending {
		if _, ok := tx.db.products[id]; !ok {
			return domain.ErrNotFound
		}
	}
	now := time.Now()
	tx.db.movements = append(tx.db.movements, tx.staged...)
	for id, q := range tx.pending {
		p := tx.db.products[id]
		p.CurrentQuantity = q
		p.UpdatedAt = now
	}
	return nil
}

type txStockRepo struct {
	tx *memTx
}

func (r *txStockRepo) GetForUpdate(ctx context.Context, productID string) (*entity.Product, error) {
	if err := r.tx.lock(ctx, productID); err != nil {
		return nil, err
	}
	p, err := r.tx.db.Products().GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if q, ok := r.tx.pending[productID]; ok {
		p.CurrentQuantity = q
	}
	return p, nil
}

// AdjustQuantity rechaza un resultado negativo igual que el CHECK de la tabla products
// y un desborde igual que el rango de BIGINT.
func (r *txStockRepo) AdjustQuantity(ctx context.Context, productID string, delta int64) (int64, error) {
	if err := r.tx.lock(ctx, productID); err != nil {
		return 0, err
	}
	cur, err := r.tx.quantity(productID)
	if err != nil {
		return 0, err
	}
	if delta > 0 && !inventory.CanIncrease(cur, delta) {
		return 0, &domain.InvalidQuantityError{Quantity: delta, Overflow: true, Current: cur}
	}
	next := cur + delta
	if next < 0 {
		return 0, &domain.InsufficientStockError{ProductID: productID, Available: cur, Requested: -delta}
	}
	r.tx.pending[productID] = next
	return next, nil
}

func (r *txStockRepo) SetQuantity(ctx context.Context, productID string, quantity int64) error {
	if quantity < 0 {
		return &domain.InvalidQuantityError{Quantity: quantity}
	}
	if err := r.tx.lock(ctx, productID); err != nil {
		return err
	}
	if _, err := r.tx.quantity(productID); err != nil {
		return err
	}
	r.tx.pending[productID] = quantity
	return nil
}

// txMovementRepo ve los movimientos confirmados más los de la propia transacción.
type txMovementRepo struct {
	tx *memTx
}

func (r *txMovementRepo) Append(_ context.Context, m *entity.InventoryMovement) error {
	r.tx.db.mu.Lock()
	r.tx.db.stamp(m)
	r.tx.db.mu.Unlock()
	r.tx.staged = append(r.tx.staged, cloneMovement(m))
	return nil
}

func (r *txMovementRepo) visible() []*entity.InventoryMovement {
	r.tx.db.mu.Lock()
	defer r.tx.db.mu.Unlock()
	out := make([]*entity.InventoryMovement, 0, len(r.tx.db.movements)+len(r.tx.staged))
	out = append(out, r.tx.db.movements...)
	return append(out, r.tx.staged...)
}

func (r *txMovementRepo) GetByID(_ context.Context, id string) (*entity.InventoryMovement, error) {
	return findMovement(r.visible(), id)
}

func (r *txMovementRepo) Query(_ context.Context, f repository.MovementFilter) ([]*entity.InventoryMovement, error) {
	return queryMovements(r.visible(), f), nil
}

func (r *txMovementRepo) Each(ctx context.Context, f repository.MovementFilter, fn func(*entity.InventoryMovement) error) error {
	return each(ctx, queryMovements(r.visible(), f), fn)
}

func (r *txMovementRepo) Totals(_ context.Context, productID string) (inventory.Totals, error) {
	return totals(r.visible(), productID), nil
}

func (r *txMovementRepo) CountByProduct(_ context.Context, productID string) (int64, error) {
	var n int64
	for _, m := range r.visible() {
		if m.ProductID == productID {
			n++
		}
	}
	return n, nil
}
