package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/kiryana-inventory/internal/domain"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
)

// StoreRepository implementa repository.StoreRepository.
type StoreRepository struct {
	db *DB
}

func (r *StoreRepository) Create(_ context.Context, s *entity.Store) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.stores[s.ID]; ok {
		return domain.ErrDuplicate
	}
	if s.IsActive && r.activeCodeTaken(s.Code, s.ID) {
		return domain.ErrDuplicate
	}
	c := *s
	r.db.stores[s.ID] = &c
	return nil
}

func (r *StoreRepository) GetByID(_ context.Context, id string) (*entity.Store, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.stores[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (r *StoreRepository) GetActiveByCode(_ context.Context, code string) (*entity.Store, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, s := range r.db.stores {
		if s.IsActive && s.Code == code {
			c := *s
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *StoreRepository) Update(_ context.Context, s *entity.Store) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.stores[s.ID]; !ok {
		return domain.ErrNotFound
	}
	if s.IsActive && r.activeCodeTaken(s.Code, s.ID) {
		return domain.ErrDuplicate
	}
	c := *s
	r.db.stores[s.ID] = &c
	return nil
}

func (r *StoreRepository) List(_ context.Context, activeOnly bool, limit, offset int) ([]*entity.Store, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*entity.Store, 0, len(r.db.stores))
	for _, s := range r.db.stores {
		if activeOnly && !s.IsActive {
			continue
		}
		c := *s
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, limit, offset), nil
}

func (r *StoreRepository) activeCodeTaken(code, selfID string) bool {
	for _, s := range r.db.stores {
		if s.IsActive && s.Code == code && s.ID != selfID {
			return true
		}
	}
	return false
}

// StorePermissionRepository implementa repository.StorePermissionRepository.
type StorePermissionRepository struct {
	db *DB
}

func (r *StorePermissionRepository) ListByUser(_ context.Context, userID string) ([]entity.StorePermission, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	perms := r.db.perms[userID]
	out := make([]entity.StorePermission, len(perms))
	copy(out, perms)
	return out, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
