package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/kiryana-inventory/internal/application/inventory"
	"github.com/jhoicas/kiryana-inventory/internal/domain"
	"github.com/jhoicas/kiryana-inventory/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

var tracer = otel.Tracer("kiryana-inventory/tx")

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTxRunner construye el runner. lockTimeout acota la espera por filas bloqueadas (SET LOCAL lock_timeout).
func NewTxRunner(pool *pgxpool.Pool, lockTimeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, lockTimeout: lockTimeout}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Un lock_timeout agotado se devuelve como *domain.ContentionError.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.InventoryMovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
) error) (err error) {
	ctx, span := tracer.Start(ctx, "inventory.transaction",
		trace.WithAttributes(attribute.Int64("tx.lock_timeout_ms", r.lockTimeout.Milliseconds())))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// Rollback con contexto propio: tras un fallo ctx puede estar cancelado.
	defer func() { _ = tx.Rollback(context.Background()) }()

	if r.lockTimeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set lock_timeout: %w", err)
		}
	}

	if err := fn(NewInventoryMovementRepository(tx), newStockRepo(tx), NewProductRepository(tx)); err != nil {
		if isLockTimeout(err) {
			return &domain.ContentionError{Err: err}
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
