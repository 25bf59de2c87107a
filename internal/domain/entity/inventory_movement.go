package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento del libro de inventario.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementStockIn     MovementType = "stock_in"     // entrada de mercancía
	MovementSale        MovementType = "sale"         // venta
	MovementRemoval     MovementType = "removal"      // baja (dañado, vencido, robado...)
	MovementTransferIn  MovementType = "transfer_in"  // traslado entrante desde otra tienda
	MovementTransferOut MovementType = "transfer_out" // traslado saliente hacia otra tienda
)

// MovementTypes todos los tipos válidos, en orden estable.
var MovementTypes = []MovementType{
	MovementStockIn, MovementSale, MovementRemoval, MovementTransferIn, MovementTransferOut,
}

// Valid indica si t es un tipo conocido.
func (t MovementType) Valid() bool {
	switch t {
	case MovementStockIn, MovementSale, MovementRemoval, MovementTransferIn, MovementTransferOut:
		return true
	}
	return false
}

// Increases: stock_in y transfer_in suman; sale, removal y transfer_out restan.
func (t MovementType) Increases() bool {
	return t == MovementStockIn || t == MovementTransferIn
}

// Decreases es el complemento de Increases para tipos válidos.
func (t MovementType) Decreases() bool {
	return t == MovementSale || t == MovementRemoval || t == MovementTransferOut
}

// Label nombre legible para reportes.
func (t MovementType) Label() string {
	switch t {
	case MovementStockIn:
		return "Stock In"
	case MovementSale:
		return "Sale"
	case MovementRemoval:
		return "Removal"
	case MovementTransferIn:
		return "Transfer In"
	case MovementTransferOut:
		return "Transfer Out"
	}
	return string(t)
}

// InventoryMovement hecho inmutable del libro: N unidades del producto P en la tienda S
// cambiaron por el motivo T en la fecha D. Quantity siempre es positiva; la dirección la da Type.
// Una vez persistido nunca se edita ni se borra: las correcciones son movimientos compensatorios.
type InventoryMovement struct {
	ID           string
	Seq          int64 // orden de inserción, desempata movimientos con la misma fecha
	ProductID    string
	StoreID      string
	Type         MovementType
	Quantity     int64
	UnitPrice    decimal.Decimal // precio al momento del movimiento (histórico)
	Reference    string          // factura, recibo, orden de compra...
	Notes        string
	TransferID   string // enlaza las dos patas de un traslado
	CreatedBy    string // UserID
	MovementDate time.Time
	CreatedAt    time.Time
}

// SignedQuantity cantidad con signo según la dirección del tipo.
func (m *InventoryMovement) SignedQuantity() int64 {
	if m.Type.Increases() {
		return m.Quantity
	}
	return -m.Quantity
}

// TotalValue cantidad por precio histórico.
func (m *InventoryMovement) TotalValue() decimal.Decimal {
	return m.UnitPrice.Mul(decimal.NewFromInt(m.Quantity))
}
