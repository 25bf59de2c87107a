package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockStatus clasificación de stock usada de forma uniforme en API, CLI y reportes.
type StockStatus string

const (
	StockStatusOutOfStock StockStatus = "out_of_stock"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusInStock    StockStatus = "in_stock"
)

// Label nombre legible del estado.
func (s StockStatus) Label() string {
	switch s {
	case StockStatusOutOfStock:
		return "Out of Stock"
	case StockStatusLowStock:
		return "Low Stock"
	}
	return "In Stock"
}

// DefaultReorderLevel nivel de reorden cuando no se indica.
const DefaultReorderLevel = 10

// PriceScale decimales de un precio; coincide con NUMERIC(14, 2) en la base de datos.
const PriceScale = 2

// maxPrice primer valor que no cabe en NUMERIC(14, 2).
var maxPrice = decimal.New(1, 12)

// ValidPrice precio no negativo, con a lo sumo PriceScale decimales y dentro del rango de la columna.
// Un precio con más decimales se rechaza en vez de redondearse según el almacenamiento.
func ValidPrice(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThan(maxPrice) && d.Equal(d.Truncate(PriceScale))
}

// Product representa un producto de una tienda (el SKU es único por tienda, no global).
// CurrentQuantity es una caché derivada del libro de movimientos: solo el coordinador de
// inventario la escribe, nunca el catálogo.
type Product struct {
	ID              string
	StoreID         string
	SKU             string
	Barcode         string
	Name            string
	Description     string
	Category        string
	UnitPrice       decimal.Decimal
	CostPrice       *decimal.Decimal
	ReorderLevel    int64
	CurrentQuantity int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsLowStock true si la cantidad está en o por debajo del nivel de reorden.
func (p *Product) IsLowStock() bool {
	return p.CurrentQuantity <= p.ReorderLevel
}

// IsOutOfStock true si no queda stock.
func (p *Product) IsOutOfStock() bool {
	return p.CurrentQuantity == 0
}

// StockStatus OutOfStock tiene prioridad sobre LowStock, y LowStock sobre InStock.
func (p *Product) StockStatus() StockStatus {
	switch {
	case p.IsOutOfStock():
		return StockStatusOutOfStock
	case p.IsLowStock():
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

// StockValue valor del stock al precio actual (no al precio histórico de los movimientos).
func (p *Product) StockValue() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(p.CurrentQuantity))
}
