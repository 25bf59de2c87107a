// Package memory implementa los repositorios y el TxRunner en memoria.
// Lo usan las pruebas de aplicación, HTTP y CLI; reproduce la semántica de bloqueo por fila
// y de commit/rollback de la implementación postgres.
package memory

import (
	"sync"
	"time"

	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
)

// DefaultLockTimeout espera máxima por el bloqueo de un producto.
const DefaultLockTimeout = 3 * time.Second

// DB almacén en memoria compartido por todos los repositorios.
type DB struct {
	mu          sync.Mutex
	stores      map[string]*entity.Store
	products    map[string]*entity.Product
	movements   []*entity.InventoryMovement
	perms       map[string][]entity.StorePermission
	seq         int64
	locks       map[string]chan struct{}
	lockTimeout time.Duration
}

// New crea un almacén vacío. lockTimeout <= 0 usa DefaultLockTimeout.
func New(lockTimeout time.Duration) *DB {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &DB{
		stores:      make(map[string]*entity.Store),
		products:    make(map[string]*entity.Product),
		perms:       make(map[string][]entity.StorePermission),
		locks:       make(map[string]chan struct{}),
		lockTimeout: lockTimeout,
	}
}

// Grant otorga (o reemplaza) el permiso de un usuario sobre una tienda.
func (db *DB) Grant(userID, storeID, level string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	now := time.Now()
	perms := db.perms[userID]
	for i := range perms {
		if perms[i].StoreID == storeID {
			perms[i].Level = level
			perms[i].UpdatedAt = now
			return
		}
	}
	db.perms[userID] = append(perms, entity.StorePermission{
		UserID: userID, StoreID: storeID, Level: level, CreatedAt: now, UpdatedAt: now,
	})
}

// ForceQuantity escribe la caché saltándose el libro. Solo para simular corrupción
// externa en pruebas de verificación y reparación.
func (db *DB) ForceQuantity(productID string, qty int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if p, ok := db.products[productID]; ok {
		p.CurrentQuantity = qty
	}
}

// Products repositorio del catálogo.
func (db *DB) Products() *ProductRepository { return &ProductRepository{db: db} }

// Stores repositorio de tiendas.
func (db *DB) Stores() *StoreRepository { return &StoreRepository{db: db} }

// Movements repositorio del libro fuera de transacción.
func (db *DB) Movements() *InventoryMovementRepository { return &InventoryMovementRepository{db: db} }

// Permissions repositorio de permisos por tienda.
func (db *DB) Permissions() *StorePermissionRepository { return &StorePermissionRepository{db: db} }

// TxRunner coordinador transaccional en memoria.
func (db *DB) TxRunner() *TxRunner { return &TxRunner{db: db} }

func (db *DB) lockFor(productID string) chan struct{} {
	db.mu.Lock()
	defer db.mu.Unlock()
	ch, ok := db.locks[productID]
	if !ok {
		ch = make(chan struct{}, 1)
		db.locks[productID] = ch
	}
	return ch
}

func cloneProduct(p *entity.Product) *entity.Product {
	c := *p
	if p.CostPrice != nil {
		cost := *p.CostPrice
		c.CostPrice = &cost
	}
	return &c
}

func cloneMovement(m *entity.InventoryMovement) *entity.InventoryMovement {
	c := *m
	return &c
}
