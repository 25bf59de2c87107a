package inventory

import (
	"math"
	"strings"

	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
)

// Totals sumas por dirección de los movimientos de un producto.
type Totals struct {
	Increase int64
	Decrease int64
}

// Net cantidad derivada del libro: Σ entradas − Σ salidas.
func (t Totals) Net() int64 {
	return t.Increase - t.Decrease
}

// Add acumula un movimiento en la dirección que indica su tipo.
func (t *Totals) Add(m *entity.InventoryMovement) {
	if m.Type.Increases() {
		t.Increase += m.Quantity
		return
	}
	t.Decrease += m.Quantity
}

// Replay recalcula los totales a partir de una secuencia de movimientos (servicio de dominio).
func Replay(movements []*entity.InventoryMovement) Totals {
	var t Totals
	for _, m := range movements {
		t.Add(m)
	}
	return t
}

// Delta variación de la caché para un movimiento de tipo t y cantidad positiva qty.
func Delta(t entity.MovementType, qty int64) int64 {
	if t.Increases() {
		return qty
	}
	return -qty
}

// CanIncrease indica si sumar qty (positiva) a current cabe en un int64.
func CanIncrease(current, qty int64) bool {
	return current <= math.MaxInt64-qty
}

// RemovalNotes antepone el motivo de baja a las notas: "Reason: {reason}".
func RemovalNotes(reason, notes string) string {
	reason = strings.TrimSpace(reason)
	notes = strings.TrimSpace(notes)
	if reason == "" {
		return notes
	}
	if notes == "" {
		return "Reason: " + reason
	}
	return "Reason: " + reason + "\n" + notes
}

// RemovalReference referencia por defecto de una baja.
func RemovalReference(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ""
	}
	return "Removal: " + reason
}
