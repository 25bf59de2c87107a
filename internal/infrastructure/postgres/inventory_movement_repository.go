package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kiryana-inventory/internal/domain"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
	"github.com/jhoicas/kiryana-inventory/internal/domain/inventory"
	"github.com/jhoicas/kiryana-inventory/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

var movementColumns = []string{
	"id", "seq", "product_id", "store_id", "movement_type", "quantity", "unit_price",
	"reference", "notes", "COALESCE(transfer_id::text, '') AS transfer_id", "created_by",
	"movement_date", "created_at",
}

type movementRow struct {
	ID           string          `db:"id"`
	Seq          int64           `db:"seq"`
	ProductID    string          `db:"product_id"`
	StoreID      string          `db:"store_id"`
	MovementType string          `db:"movement_type"`
	Quantity     int64           `db:"quantity"`
	UnitPrice    decimal.Decimal `db:"unit_price"`
	Reference    string          `db:"reference"`
	Notes        string          `db:"notes"`
	TransferID   string          `db:"transfer_id"`
	CreatedBy    string          `db:"created_by"`
	MovementDate time.Time       `db:"movement_date"`
	CreatedAt    time.Time       `db:"created_at"`
}

func (r movementRow) toEntity() *entity.InventoryMovement {
	return &entity.InventoryMovement{
		ID:           r.ID,
		Seq:          r.Seq,
		ProductID:    r.ProductID,
		StoreID:      r.StoreID,
		Type:         entity.MovementType(r.MovementType),
		Quantity:     r.Quantity,
		UnitPrice:    r.UnitPrice,
		Reference:    r.Reference,
		Notes:        r.Notes,
		TransferID:   r.TransferID,
		CreatedBy:    r.CreatedBy,
		MovementDate: r.MovementDate,
		CreatedAt:    r.CreatedAt,
	}
}

// InventoryMovementRepo libro de movimientos sobre PostgreSQL (usable con pool o tx).
// Solo inserción: la tabla además rechaza UPDATE y DELETE con un trigger.
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

// Append inserta un movimiento y completa ID, Seq y CreatedAt.
func (r *InventoryMovementRepo) Append(ctx context.Context, m *entity.InventoryMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO inventory_movements (id, product_id, store_id, movement_type, quantity, unit_price,
			reference, notes, transfer_id, created_by, movement_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, '')::uuid, $10, $11)
		RETURNING seq, created_at`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.ProductID, m.StoreID, string(m.Type), m.Quantity, m.UnitPrice,
		m.Reference, m.Notes, m.TransferID, m.CreatedBy, m.MovementDate,
	).Scan(&m.Seq, &m.CreatedAt)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, m.ProductID)
		case isCheckViolation(err):
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *InventoryMovementRepo) GetByID(ctx context.Context, id string) (*entity.InventoryMovement, error) {
	sql, args, err := psql.Select(movementColumns...).From("inventory_movements").
		Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var row movementRow
	if err := pgxscan.Get(ctx, r.q, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return row.toEntity(), nil
}

// Query devuelve los movimientos que cumplen el filtro (movement_date DESC, seq ASC).
func (r *InventoryMovementRepo) Query(ctx context.Context, f repository.MovementFilter) ([]*entity.InventoryMovement, error) {
	sql, args, err := buildMovementSelect(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var rows []movementRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("query movements: %w", err)
	}
	out := make([]*entity.InventoryMovement, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

// Each recorre fila a fila con un cursor; no carga todo el resultado en memoria.
func (r *InventoryMovementRepo) Each(ctx context.Context, f repository.MovementFilter, fn func(*entity.InventoryMovement) error) error {
	sql, args, err := buildMovementSelect(f).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("query movements: %w", err)
	}
	defer rows.Close()

	scanner := pgxscan.NewRowScanner(rows)
	for rows.Next() {
		var row movementRow
		if err := scanner.Scan(&row); err != nil {
			return fmt.Errorf("scan movement: %w", err)
		}
		if err := fn(row.toEntity()); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Totals Σ entradas y Σ salidas del producto en una sola pasada.
func (r *InventoryMovementRepo) Totals(ctx context.Context, productID string) (inventory.Totals, error) {
	var t inventory.Totals
	err := r.q.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(quantity) FILTER (WHERE movement_type IN ('stock_in', 'transfer_in')), 0),
			COALESCE(SUM(quantity) FILTER (WHERE movement_type IN ('sale', 'removal', 'transfer_out')), 0)
		FROM inventory_movements WHERE product_id = $1`, productID).Scan(&t.Increase, &t.Decrease)
	if err != nil {
		return t, fmt.Errorf("movement totals: %w", err)
	}
	return t, nil
}

// CountByProduct número de movimientos que referencian al producto.
func (r *InventoryMovementRepo) CountByProduct(ctx context.Context, productID string) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM inventory_movements WHERE product_id = $1`, productID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count movements: %w", err)
	}
	return n, nil
}

// buildMovementSelect traduce el filtro tipado a SQL. Campos vacíos no filtran.
func buildMovementSelect(f repository.MovementFilter) squirrel.SelectBuilder {
	q := psql.Select(movementColumns...).From("inventory_movements")
	if f.ProductID != "" {
		q = q.Where(squirrel.Eq{"product_id": f.ProductID})
	}
	if f.StoreID != "" {
		q = q.Where(squirrel.Eq{"store_id": f.StoreID})
	}
	if f.Type != "" {
		q = q.Where(squirrel.Eq{"movement_type": string(f.Type)})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"movement_date": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.LtOrEq{"movement_date": *f.To})
	}
	q = q.OrderBy("movement_date DESC", "seq ASC")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	return q
}
