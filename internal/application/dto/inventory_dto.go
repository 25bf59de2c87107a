package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/stores/{id}/stock-in|sale|removal.
type RegisterMovementRequest struct {
	ProductID    string           `json:"product_id"`
	Quantity     int64            `json:"quantity"`
	UnitPrice    *decimal.Decimal `json:"unit_price,omitempty"`
	Reference    string           `json:"reference,omitempty"`
	Notes        string           `json:"notes,omitempty"`
	MovementDate *time.Time       `json:"movement_date,omitempty"`
	Reason       string           `json:"reason,omitempty"` // solo removal
}

// TransferRequest body para POST /api/stores/{id}/transfer (la tienda de la ruta es el origen).
type TransferRequest struct {
	ProductID            string     `json:"product_id"`
	DestinationStoreID   string     `json:"destination_store_id"`
	DestinationProductID string     `json:"destination_product_id,omitempty"` // vacío = mismo SKU en destino
	Quantity             int64      `json:"quantity"`
	Reference            string     `json:"reference,omitempty"`
	Notes                string     `json:"notes,omitempty"`
	MovementDate         *time.Time `json:"movement_date,omitempty"`
}

// WarningDTO advertencia no fatal (p. ej. LOW_STOCK).
type WarningDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MovementDTO salida de un movimiento del libro.
type MovementDTO struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	StoreID      string          `json:"store_id"`
	MovementType string          `json:"movement_type"`
	Quantity     int64           `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalValue   decimal.Decimal `json:"total_value"`
	Reference    string          `json:"reference,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	TransferID   string          `json:"transfer_id,omitempty"`
	CreatedBy    string          `json:"created_by,omitempty"`
	MovementDate time.Time       `json:"movement_date"`
	CreatedAt    time.Time       `json:"created_at"`
}

// MovementResponse respuesta de un movimiento registrado.
type MovementResponse struct {
	ID            string       `json:"id"`
	NewStockLevel int64        `json:"new_stock_level"`
	Message       string       `json:"message"`
	Warnings      []WarningDTO `json:"warnings,omitempty"`
	Movement      MovementDTO  `json:"movement"`
}

// TransferResponse respuesta de un traslado (dos patas, ambas o ninguna).
type TransferResponse struct {
	TransferID       string       `json:"transfer_id"`
	SourceStockLevel int64        `json:"source_stock_level"`
	DestinationLevel int64        `json:"destination_stock_level"`
	Message          string       `json:"message"`
	Warnings         []WarningDTO `json:"warnings,omitempty"`
	OutboundMovement MovementDTO  `json:"outbound_movement"`
	InboundMovement  MovementDTO  `json:"inbound_movement"`
}

// MovementTotalsDTO totales por tipo de los movimientos listados (valorados al precio histórico).
type MovementTotalsDTO struct {
	StockIn     int64           `json:"stock_in"`
	Sales       int64           `json:"sales"`
	Removals    int64           `json:"removals"`
	TransferIn  int64           `json:"transfer_in"`
	TransferOut int64           `json:"transfer_out"`
	NetChange   int64           `json:"net_change"`
	SalesValue  decimal.Decimal `json:"sales_value"`
	StockValue  decimal.Decimal `json:"stock_in_value"`
}

// MovementListResponse lista de movimientos con totales.
type MovementListResponse struct {
	Items  []MovementDTO     `json:"items"`
	Totals MovementTotalsDTO `json:"totals"`
	Page   PageResponse      `json:"page"`
}

// InventoryItemDTO estado de un producto en el resumen de inventario.
type InventoryItemDTO struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	SKU             string          `json:"sku,omitempty"`
	CurrentQuantity int64           `json:"current_quantity"`
	ReorderLevel    int64           `json:"reorder_level"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Value           decimal.Decimal `json:"value"`
	Status          string          `json:"status"`
}

// InventorySummaryResponse resumen de inventario de una tienda.
type InventorySummaryResponse struct {
	StoreID         string             `json:"store_id"`
	ProductCount    int                `json:"product_count"`
	TotalItems      int64              `json:"total_items"`
	LowStockCount   int                `json:"low_stock_count"`
	OutOfStockCount int                `json:"out_of_stock_count"`
	TotalValue      decimal.Decimal    `json:"total_value"`
	Products        []InventoryItemDTO `json:"products"`
}

// VerifyResponse resultado de verificar la caché contra el libro.
type VerifyResponse struct {
	ProductID string `json:"product_id"`
	Cached    int64  `json:"cached_quantity"`
	Ledger    int64  `json:"ledger_quantity"`
	InSync    bool   `json:"in_sync"`
}

// DriftReportResponse verificación de todos los productos de una tienda.
type DriftReportResponse struct {
	StoreID   string           `json:"store_id"`
	Checked   int              `json:"checked"`
	Drifted   []VerifyResponse `json:"drifted"`
	CheckedAt time.Time        `json:"checked_at"`
}

// RepairResponse resultado de reparar la caché.
type RepairResponse struct {
	ProductID string `json:"product_id"`
	Previous  int64  `json:"previous_quantity"`
	Current   int64  `json:"current_quantity"`
	Repaired  bool   `json:"repaired"`
}

// ReplenishmentSuggestionDTO sugerencia de reposición para un producto en o bajo su nivel de reorden.
type ReplenishmentSuggestionDTO struct {
	ProductID           string          `json:"product_id"`
	SKU                 string          `json:"sku"`
	ProductName         string          `json:"product_name"`
	CurrentStock        int64           `json:"current_stock"`
	ReorderLevel        int64           `json:"reorder_level"`
	IdealStock          int64           `json:"ideal_stock"`          // ReorderLevel * 1.5
	SuggestedOrderQty   int64           `json:"suggested_order_qty"`  // IdealStock - CurrentStock
	UnitCost            decimal.Decimal `json:"unit_cost"`            // cost_price, o unit_price si no hay costo
	EstimatedOrderCost  decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	GrossMarginPct      decimal.Decimal `json:"gross_margin_pct"`
	UnitsSoldLast90Days int64           `json:"units_sold_last_90d"`
	Priority            int             `json:"priority"` // 1 = más urgente
}
