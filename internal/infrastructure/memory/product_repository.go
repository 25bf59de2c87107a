package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/kiryana-inventory/internal/domain"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
	"github.com/jhoicas/kiryana-inventory/internal/domain/repository"
)

// ProductRepository implementa repository.ProductRepository.
type ProductRepository struct {
	db *DB
}

func (r *ProductRepository) Create(_ context.Context, p *entity.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.products[p.ID]; ok {
		return domain.ErrDuplicate
	}
	if r.skuTaken(p.StoreID, p.SKU, p.ID) {
		return &domain.DuplicateSKUError{StoreID: p.StoreID, SKU: p.SKU}
	}
	c := cloneProduct(p)
	c.CurrentQuantity = 0
	r.db.products[p.ID] = c
	return nil
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (r *ProductRepository) GetByStoreAndSKU(_ context.Context, storeID, sku string) (*entity.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.products {
		if sku != "" && p.StoreID == storeID && p.SKU == sku {
			return cloneProduct(p), nil
		}
	}
	return nil, domain.ErrNotFound
}

// Update conserva la cantidad almacenada: el catálogo no escribe stock.
func (r *ProductRepository) Update(_ context.Context, p *entity.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur, ok := r.db.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if r.skuTaken(cur.StoreID, p.SKU, p.ID) {
		return &domain.DuplicateSKUError{StoreID: cur.StoreID, SKU: p.SKU}
	}
	c := cloneProduct(p)
	c.StoreID = cur.StoreID
	c.CurrentQuantity = cur.CurrentQuantity
	c.CreatedAt = cur.CreatedAt
	r.db.products[p.ID] = c
	return nil
}

func (r *ProductRepository) List(_ context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*entity.Product, 0)
	for _, p := range r.db.products {
		if f.StoreID != "" && p.StoreID != f.StoreID {
			continue
		}
		if f.LowStock && !p.IsLowStock() {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, f.Limit, f.Offset), nil
}

func (r *ProductRepository) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.products[id]; !ok {
		return domain.ErrNotFound
	}
	for _, m := range r.db.movements {
		if m.ProductID == id {
			return domain.ErrProductHasMovements
		}
	}
	delete(r.db.products, id)
	return nil
}

func (r *ProductRepository) skuTaken(storeID, sku, selfID string) bool {
	if sku == "" {
		return false
	}
	for _, p := range r.db.products {
		if p.StoreID == storeID && p.SKU == sku && p.ID != selfID {
			return true
		}
	}
	return false
}
