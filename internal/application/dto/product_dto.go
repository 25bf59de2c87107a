package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto en una tienda.
// No hay campo de stock: la cantidad inicial entra por un movimiento stock_in.
type CreateProductRequest struct {
	SKU          string           `json:"sku" validate:"required,min=1,max=100"`
	Barcode      string           `json:"barcode"`
	Name         string           `json:"name" validate:"required,min=1,max=200"`
	Description  string           `json:"description"`
	Category     string           `json:"category"`
	UnitPrice    decimal.Decimal  `json:"unit_price"`
	CostPrice    *decimal.Decimal `json:"cost_price,omitempty"`
	ReorderLevel *int64           `json:"reorder_level,omitempty"`
}

// UpdateProductRequest entrada para actualizar un producto (sin stock: eso solo cambia con movimientos).
type UpdateProductRequest struct {
	SKU          *string          `json:"sku"`
	Barcode      *string          `json:"barcode"`
	Name         *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description  *string          `json:"description"`
	Category     *string          `json:"category"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	CostPrice    *decimal.Decimal `json:"cost_price"`
	ReorderLevel *int64           `json:"reorder_level"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID              string           `json:"id"`
	StoreID         string           `json:"store_id"`
	SKU             string           `json:"sku"`
	Barcode         string           `json:"barcode,omitempty"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	Category        string           `json:"category,omitempty"`
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	CostPrice       *decimal.Decimal `json:"cost_price,omitempty"`
	ReorderLevel    int64            `json:"reorder_level"`
	CurrentQuantity int64            `json:"current_quantity"`
	StockStatus     string           `json:"stock_status"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// ImportProductsResponse resultado de una importación de catálogo por CSV.
type ImportProductsResponse struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}
