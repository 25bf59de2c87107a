package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/kiryana-inventory/internal/domain"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
	"github.com/jhoicas/kiryana-inventory/internal/domain/repository"
)

var _ repository.StoreRepository = (*StoreRepo)(nil)

const storeColumns = `id, name, code, location, address, phone, email, is_active, created_at, updated_at`

// StoreRepo implementación del puerto StoreRepository sobre PostgreSQL.
type StoreRepo struct {
	q Querier
}

// NewStoreRepository construye el adaptador de persistencia para tiendas.
func NewStoreRepository(q Querier) *StoreRepo {
	return &StoreRepo{q: q}
}

// Create persiste una nueva tienda. El índice parcial stores_active_code_key rechaza códigos activos repetidos.
func (r *StoreRepo) Create(ctx context.Context, s *entity.Store) error {
	query := `
		INSERT INTO stores (id, name, code, location, address, phone, email, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.Name, s.Code, s.Location, s.Address, s.Phone, s.Email, s.IsActive, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert store: %w", err)
	}
	return nil
}

// GetByID obtiene una tienda por ID.
func (r *StoreRepo) GetByID(ctx context.Context, id string) (*entity.Store, error) {
	return r.scanOne(r.q.QueryRow(ctx, `SELECT `+storeColumns+` FROM stores WHERE id = $1`, id))
}

// GetActiveByCode obtiene la tienda activa con ese código.
func (r *StoreRepo) GetActiveByCode(ctx context.Context, code string) (*entity.Store, error) {
	return r.scanOne(r.q.QueryRow(ctx, `SELECT `+storeColumns+` FROM stores WHERE code = $1 AND is_active`, code))
}

func (r *StoreRepo) scanOne(row pgx.Row) (*entity.Store, error) {
	var s entity.Store
	err := row.Scan(&s.ID, &s.Name, &s.Code, &s.Location, &s.Address, &s.Phone, &s.Email,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get store: %w", err)
	}
	return &s, nil
}

// Update actualiza una tienda existente.
func (r *StoreRepo) Update(ctx context.Context, s *entity.Store) error {
	query := `
		UPDATE stores SET name = $2, location = $3, address = $4, phone = $5, email = $6,
			is_active = $7, updated_at = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, s.ID, s.Name, s.Location, s.Address, s.Phone, s.Email, s.IsActive, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update store: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista tiendas ordenadas por nombre.
func (r *StoreRepo) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*entity.Store, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + storeColumns + ` FROM stores WHERE ($1 = false OR is_active) ORDER BY name LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, activeOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()
	var list []*entity.Store
	for rows.Next() {
		var s entity.Store
		if err := rows.Scan(&s.ID, &s.Name, &s.Code, &s.Location, &s.Address, &s.Phone, &s.Email,
			&s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}
