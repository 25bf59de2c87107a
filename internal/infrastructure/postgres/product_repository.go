package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kiryana-inventory/internal/domain"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
	"github.com/jhoicas/kiryana-inventory/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const skuConstraint = "products_store_sku_key"

// productColumns columnas de lectura; los textos opcionales se normalizan a "".
var productColumns = []string{
	"id", "store_id",
	"COALESCE(sku, '') AS sku", "COALESCE(barcode, '') AS barcode",
	"name", "description", "category",
	"unit_price", "cost_price", "reorder_level", "current_quantity",
	"created_at", "updated_at",
}

type productRow struct {
	ID              string           `db:"id"`
	StoreID         string           `db:"store_id"`
	SKU             string           `db:"sku"`
	Barcode         string           `db:"barcode"`
	Name            string           `db:"name"`
	Description     string           `db:"description"`
	Category        string           `db:"category"`
	UnitPrice       decimal.Decimal  `db:"unit_price"`
	CostPrice       *decimal.Decimal `db:"cost_price"`
	ReorderLevel    int64            `db:"reorder_level"`
	CurrentQuantity int64            `db:"current_quantity"`
	CreatedAt       time.Time        `db:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at"`
}

func (r productRow) toEntity() *entity.Product {
	return &entity.Product{
		ID:              r.ID,
		StoreID:         r.StoreID,
		SKU:             r.SKU,
		Barcode:         r.Barcode,
		Name:            r.Name,
		Description:     r.Description,
		Category:        r.Category,
		UnitPrice:       r.UnitPrice,
		CostPrice:       r.CostPrice,
		ReorderLevel:    r.ReorderLevel,
		CurrentQuantity: r.CurrentQuantity,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
// Nunca escribe current_quantity: esa columna es de stockRepo.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto con current_quantity = 0.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (id, store_id, sku, barcode, name, description, category,
			unit_price, cost_price, reorder_level, current_quantity, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8, $9, $10, 0, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.StoreID, p.SKU, p.Barcode, p.Name, p.Description, p.Category,
		p.UnitPrice, p.CostPrice, p.ReorderLevel, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return mapProductWriteError(err, p)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, psql.Select(productColumns...).From("products").Where(squirrel.Eq{"id": id}))
}

// GetByStoreAndSKU obtiene un producto por tienda y SKU.
func (r *ProductRepo) GetByStoreAndSKU(ctx context.Context, storeID, sku string) (*entity.Product, error) {
	if sku == "" {
		return nil, domain.ErrNotFound
	}
	return r.getOne(ctx, psql.Select(productColumns...).From("products").
		Where(squirrel.Eq{"store_id": storeID, "sku": sku}))
}

func (r *ProductRepo) getOne(ctx context.Context, q squirrel.SelectBuilder) (*entity.Product, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var row productRow
	if err := pgxscan.Get(ctx, r.q, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return row.toEntity(), nil
}

// Update actualiza datos del catálogo. current_quantity no está en el SET.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	query := `
		UPDATE products SET sku = NULLIF($2, ''), barcode = NULLIF($3, ''), name = $4, description = $5,
			category = $6, unit_price = $7, cost_price = $8, reorder_level = $9, updated_at = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		p.ID, p.SKU, p.Barcode, p.Name, p.Description, p.Category,
		p.UnitPrice, p.CostPrice, p.ReorderLevel, p.UpdatedAt,
	)
	if err != nil {
		return mapProductWriteError(err, p)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista productos ordenados por nombre.
func (r *ProductRepo) List(ctx context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	sql, args, err := buildProductList(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var rows []productRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]*entity.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func buildProductList(f repository.ProductFilter) squirrel.SelectBuilder {
	q := psql.Select(productColumns...).From("products").OrderBy("name", "id")
	if f.StoreID != "" {
		q = q.Where(squirrel.Eq{"store_id": f.StoreID})
	}
	if f.LowStock {
		q = q.Where("current_quantity <= reorder_level")
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	return q
}

// Delete elimina un producto; la FK de inventory_movements impide borrar productos con historial.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrProductHasMovements
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapProductWriteError(err error, p *entity.Product) error {
	switch {
	case isConstraint(err, codeUniqueViolation, skuConstraint):
		return &domain.DuplicateSKUError{StoreID: p.StoreID, SKU: p.SKU}
	case isUniqueViolation(err):
		return domain.ErrDuplicate
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: tienda %s", domain.ErrNotFound, p.StoreID)
	case isCheckViolation(err):
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return fmt.Errorf("write product: %w", err)
}
