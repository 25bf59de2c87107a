package entity

import "time"

// Roles de usuario. El núcleo de inventario no los interpreta: solo el gate de autorización.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// Niveles de permiso por tienda.
const (
	PermissionRead  = "read"
	PermissionWrite = "write"
	PermissionAdmin = "admin"
)

// Actor quien ejecuta la operación (usuario web/API o proceso CLI).
type Actor struct {
	UserID string
	Role   string
}

// StorePermission asocia un usuario con una tienda y un nivel de permiso.
type StorePermission struct {
	UserID    string
	StoreID   string
	Level     string // read, write, admin
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanReadStore admin ve todas las tiendas; el resto necesita un permiso explícito para la tienda.
func CanReadStore(actor Actor, perms []StorePermission, storeID string) bool {
	if actor.Role == RoleAdmin {
		return true
	}
	for _, p := range perms {
		if p.StoreID == storeID {
			return true
		}
	}
	return false
}

// CanWriteStore admin escribe en todo; manager en sus tiendas; el resto solo con nivel write o admin.
func CanWriteStore(actor Actor, perms []StorePermission, storeID string) bool {
	if actor.Role == RoleAdmin {
		return true
	}
	for _, p := range perms {
		if p.StoreID != storeID {
			continue
		}
		if actor.Role == RoleManager || p.Level == PermissionWrite || p.Level == PermissionAdmin {
			return true
		}
	}
	return false
}
