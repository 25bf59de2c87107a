package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrConflict            = errors.New("conflicto con el estado actual")
	ErrInvalidQuantity     = errors.New("la cantidad debe ser un entero positivo")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrDuplicateSKU        = errors.New("el SKU ya existe en la tienda")
	ErrPermissionDenied    = errors.New("permiso denegado sobre la tienda")
	ErrLedgerDrift         = errors.New("la cantidad en caché no coincide con el libro de movimientos")
	ErrContention          = errors.New("tiempo de espera agotado por bloqueo concurrente")
	ErrProductHasMovements = errors.New("el producto tiene movimientos registrados")
)

// InvalidQuantityError cantidad no positiva, o una entrada que desbordaría la cantidad en caché.
// Se rechaza antes de cualquier escritura.
type InvalidQuantityError struct {
	Quantity int64
	// Overflow la cantidad es positiva pero sumada a Current supera el máximo representable.
	Overflow bool
	Current  int64
}

func (e *InvalidQuantityError) Error() string {
	if e.Overflow {
		return fmt.Sprintf("cantidad inválida %d: con el stock actual %d supera el máximo permitido", e.Quantity, e.Current)
	}
	return fmt.Sprintf("cantidad inválida %d: debe ser un entero positivo", e.Quantity)
}

func (e *InvalidQuantityError) Is(target error) bool { return target == ErrInvalidQuantity }

// InsufficientStockError la salida dejaría el stock en negativo.
// Lleva disponible/solicitado para que el llamador explique el fallo sin otra consulta.
type InsufficientStockError struct {
	ProductID string
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: disponible %d, solicitado %d", e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// DuplicateSKUError SKU repetido dentro de la misma tienda.
type DuplicateSKUError struct {
	StoreID string
	SKU     string
}

func (e *DuplicateSKUError) Error() string {
	return fmt.Sprintf("el SKU %q ya existe en la tienda %s", e.SKU, e.StoreID)
}

func (e *DuplicateSKUError) Is(target error) bool {
	return target == ErrDuplicateSKU || target == ErrDuplicate
}

// PermissionDeniedError el gate de autorización rechazó la operación.
type PermissionDeniedError struct {
	ActorID string
	StoreID string
	Action  string // read | write
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permiso %s denegado al usuario %q en la tienda %s", e.Action, e.ActorID, e.StoreID)
}

func (e *PermissionDeniedError) Is(target error) bool {
	return target == ErrPermissionDenied || target == ErrForbidden
}

// LedgerDriftError solo la produce la verificación de integridad, nunca el flujo normal de escritura.
type LedgerDriftError struct {
	ProductID string
	Cached    int64
	Ledger    int64
}

func (e *LedgerDriftError) Error() string {
	return fmt.Sprintf("deriva en producto %s: caché %d, libro %d", e.ProductID, e.Cached, e.Ledger)
}

func (e *LedgerDriftError) Is(target error) bool { return target == ErrLedgerDrift }

// ContentionError se agotó la espera del bloqueo de fila. No hubo escritura parcial: se puede reintentar.
type ContentionError struct {
	ProductID string
	Err       error
}

func (e *ContentionError) Error() string {
	if e.ProductID == "" {
		return fmt.Sprintf("%s: %v", ErrContention.Error(), e.Err)
	}
	return fmt.Sprintf("%s (producto %s): %v", ErrContention.Error(), e.ProductID, e.Err)
}

func (e *ContentionError) Is(target error) bool { return target == ErrContention }

func (e *ContentionError) Unwrap() error { return e.Err }
