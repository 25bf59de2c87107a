package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kiryana-inventory/internal/application/dto"
	"github.com/jhoicas/kiryana-inventory/internal/application/inventory"
	"github.com/jhoicas/kiryana-inventory/internal/domain"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
)

const dateLayout = "2006-01-02"

// InventoryHandler maneja las peticiones HTTP de movimientos e inventario (protegido).
type InventoryHandler struct {
	uc            *inventory.RegisterMovementUseCase
	ledger        *inventory.LedgerQueryUseCase
	summary       *inventory.SummaryUseCase
	recon         *inventory.ReconciliationUseCase
	replenishment *inventory.ReplenishmentUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	uc *inventory.RegisterMovementUseCase,
	ledger *inventory.LedgerQueryUseCase,
	summary *inventory.SummaryUseCase,
	recon *inventory.ReconciliationUseCase,
	replenishment *inventory.ReplenishmentUseCase,
) *InventoryHandler {
	return &InventoryHandler{uc: uc, ledger: ledger, summary: summary, recon: recon, replenishment: replenishment}
}

// StockIn godoc
// @Summary      Registrar entrada de mercancía
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true  "ID de la tienda"
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, quantity, unit_price (opcional)"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stores/{id}/stock-in [post]
func (h *InventoryHandler) StockIn(c *fiber.Ctx) error {
	return h.register(c, entity.MovementStockIn)
}

// Sale godoc
// @Summary      Registrar venta
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true  "ID de la tienda"
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, quantity"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stores/{id}/sale [post]
func (h *InventoryHandler) Sale(c *fiber.Ctx) error {
	return h.register(c, entity.MovementSale)
}

// Removal godoc
// @Summary      Registrar baja (dañado, vencido, robado...)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true  "ID de la tienda"
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, quantity, reason"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stores/{id}/removal [post]
func (h *InventoryHandler) Removal(c *fiber.Ctx) error {
	return h.register(c, entity.MovementRemoval)
}

func (h *InventoryHandler) register(c *fiber.Ctx, kind entity.MovementType) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.ProductID == "" {
		return badRequest(c, "VALIDATION", "product_id es requerido")
	}
	out, err := h.uc.RegisterFromRequest(c.UserContext(), Actor(c), c.Params("id"), kind, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Transfer godoc
// @Summary      Trasladar stock a otra tienda
// @Description  La tienda de la ruta es el origen. Si no se indica destination_product_id
//
//	se busca el producto con el mismo SKU en la tienda destino.
//
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID de la tienda origen"
// @Param        body  body  dto.TransferRequest  true  "product_id, destination_store_id, quantity"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stores/{id}/transfer [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.ProductID == "" || in.DestinationStoreID == "" {
		return badRequest(c, "VALIDATION", "product_id y destination_store_id son requeridos")
	}
	out, err := h.uc.TransferFromRequest(c.UserContext(), Actor(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Movements godoc
// @Summary      Historial de movimientos de la tienda
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id          path   string  true   "ID de la tienda"
// @Param        product_id  query  string  false  "Filtrar por producto"
// @Param        type        query  string  false  "stock_in | sale | removal | transfer_in | transfer_out"
// @Param        days        query  int     false  "Últimos N días"
// @Param        from        query  string  false  "Desde (YYYY-MM-DD)"
// @Param        to          query  string  false  "Hasta (YYYY-MM-DD, inclusive)"
// @Param        limit       query  int     false  "Límite"  default(50)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stores/{id}/movements [get]
func (h *InventoryHandler) Movements(c *fiber.Ctx) error {
	q := inventory.MovementQuery{
		StoreID:   c.Params("id"),
		ProductID: c.Query("product_id"),
		Type:      entity.MovementType(c.Query("type")),
		Days:      c.QueryInt("days", 0),
		Limit:     c.QueryInt("limit", 0),
		Offset:    c.QueryInt("offset", 0),
	}
	var err error
	if q.From, err = queryDate(c, "from", false); err != nil {
		return badRequest(c, "VALIDATION", "from debe tener formato YYYY-MM-DD")
	}
	if q.To, err = queryDate(c, "to", true); err != nil {
		return badRequest(c, "VALIDATION", "to debe tener formato YYYY-MM-DD")
	}
	out, err := h.ledger.ListMovements(c.UserContext(), Actor(c), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// queryDate lee una fecha YYYY-MM-DD; endOfDay la lleva al último instante del día.
func queryDate(c *fiber.Ctx, key string, endOfDay bool) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		d = d.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &d, nil
}

// Summary godoc
// @Summary      Resumen de inventario de la tienda
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la tienda"
// @Success      200  {object}  dto.InventorySummaryResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/stores/{id}/inventory [get]
func (h *InventoryHandler) Summary(c *fiber.Ctx) error {
	out, err := h.summary.StoreSummary(c.UserContext(), Actor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetReplenishmentList godoc
// @Summary      Lista de reposición
// @Description  Devuelve los productos en o por debajo del punto de reorden con la cantidad sugerida
//
//	de pedido, priorizando agotados, volumen de ventas y margen.
//
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la tienda"
// @Success      200  {array}   dto.ReplenishmentSuggestionDTO
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/stores/{id}/replenishment [get]
func (h *InventoryHandler) GetReplenishmentList(c *fiber.Ctx) error {
	list, err := h.replenishment.GenerateReplenishmentList(c.UserContext(), Actor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"replenishments": list,
	})
}

// VerifyProduct godoc
// @Summary      Verificar caché de stock contra el libro
// @Description  No corrige la deriva: la informa con in_sync=false.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.VerifyResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/verify [get]
func (h *InventoryHandler) VerifyProduct(c *fiber.Ctx) error {
	out, err := h.recon.Verify(c.UserContext(), Actor(c), c.Params("id"))
	if err != nil && !(errors.Is(err, domain.ErrLedgerDrift) && out != nil) {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RepairProduct godoc
// @Summary      Reparar la caché de stock desde el libro
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.RepairResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/repair [post]
func (h *InventoryHandler) RepairProduct(c *fiber.Ctx) error {
	out, err := h.recon.Repair(c.UserContext(), Actor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// VerifyStore godoc
// @Summary      Verificar todos los productos de la tienda
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la tienda"
// @Success      200  {object}  dto.DriftReportResponse
// @Router       /api/stores/{id}/verify [get]
func (h *InventoryHandler) VerifyStore(c *fiber.Ctx) error {
	out, err := h.recon.VerifyStore(c.UserContext(), Actor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
