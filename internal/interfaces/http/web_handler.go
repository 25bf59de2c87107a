package http

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kiryana-inventory/internal/application/dto"
	"github.com/jhoicas/kiryana-inventory/internal/application/inventory"
	"github.com/jhoicas/kiryana-inventory/internal/domain"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
)

// Niveles de mensaje flash.
const (
	FlashSuccess = "success"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

// WebFormHandler endpoints de formulario: responden siempre con un mensaje flash, nunca con el error crudo.
type WebFormHandler struct {
	uc *inventory.RegisterMovementUseCase
}

// NewWebFormHandler construye el handler.
func NewWebFormHandler(uc *inventory.RegisterMovementUseCase) *WebFormHandler {
	return &WebFormHandler{uc: uc}
}

// StockIn POST /web/stores/:id/stock-in
func (h *WebFormHandler) StockIn(c *fiber.Ctx) error { return h.submit(c, entity.MovementStockIn) }

// Sale POST /web/stores/:id/sale
func (h *WebFormHandler) Sale(c *fiber.Ctx) error { return h.submit(c, entity.MovementSale) }

// Removal POST /web/stores/:id/removal
func (h *WebFormHandler) Removal(c *fiber.Ctx) error { return h.submit(c, entity.MovementRemoval) }

func (h *WebFormHandler) submit(c *fiber.Ctx, kind entity.MovementType) error {
	in, err := parseMovementForm(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.FlashMessage{Level: FlashDanger, Message: err.Error()})
	}
	out, err := h.uc.RegisterFromRequest(c.UserContext(), Actor(c), c.Params("id"), kind, in)
	if err != nil {
		status, _ := errorResponse(err)
		if status == fiber.StatusInternalServerError {
			requestLog(c).Error().Err(err).Str("path", c.Path()).Msg("formulario de movimiento")
		}
		return c.Status(status).JSON(dto.FlashMessage{Level: FlashDanger, Message: flashText(err)})
	}
	if len(out.Warnings) > 0 {
		msgs := make([]string, 0, len(out.Warnings)+1)
		msgs = append(msgs, out.Message)
		for _, w := range out.Warnings {
			msgs = append(msgs, w.Message)
		}
		return c.Status(fiber.StatusCreated).JSON(dto.FlashMessage{Level: FlashWarning, Message: strings.Join(msgs, ". ")})
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FlashMessage{Level: FlashSuccess, Message: out.Message})
}

// parseMovementForm campos: product_id, quantity, unit_price, reference, notes, movement_date (YYYY-MM-DD), reason.
func parseMovementForm(c *fiber.Ctx) (dto.RegisterMovementRequest, error) {
	in := dto.RegisterMovementRequest{
		ProductID: strings.TrimSpace(c.FormValue("product_id")),
		Reference: strings.TrimSpace(c.FormValue("reference")),
		Notes:     strings.TrimSpace(c.FormValue("notes")),
		Reason:    strings.TrimSpace(c.FormValue("reason")),
	}
	if in.ProductID == "" {
		return in, errors.New("Seleccione un producto")
	}
	qty, err := strconv.ParseInt(strings.TrimSpace(c.FormValue("quantity")), 10, 64)
	if err != nil {
		return in, errors.New("La cantidad debe ser un número entero")
	}
	in.Quantity = qty
	if raw := strings.TrimSpace(c.FormValue("unit_price")); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return in, errors.New("Precio unitario inválido")
		}
		in.UnitPrice = &price
	}
	if raw := strings.TrimSpace(c.FormValue("movement_date")); raw != "" {
		d, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			return in, errors.New("La fecha debe tener formato AAAA-MM-DD")
		}
		in.MovementDate = &d
	}
	return in, nil
}

// flashText mensaje legible para el usuario del formulario.
func flashText(err error) string {
	var (
		insufficient *domain.InsufficientStockError
		dupSKU       *domain.DuplicateSKUError
	)
	switch {
	case errors.As(err, &insufficient):
		return fmt.Sprintf("Stock insuficiente. Disponible: %d, solicitado: %d", insufficient.Available, insufficient.Requested)
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "La cantidad debe ser un entero positivo"
	case errors.As(err, &dupSKU):
		return fmt.Sprintf("El SKU %s ya existe en esta tienda", dupSKU.SKU)
	case errors.Is(err, domain.ErrPermissionDenied):
		return "No tiene permiso para registrar movimientos en esta tienda"
	case errors.Is(err, domain.ErrContention):
		return "El producto está siendo actualizado por otra operación. Intente de nuevo"
	case errors.Is(err, domain.ErrNotFound):
		return "Producto no encontrado en esta tienda"
	case errors.Is(err, domain.ErrConflict):
		return "La tienda no está activa"
	case errors.Is(err, domain.ErrInvalidInput):
		return "Datos inválidos. Revise el formulario"
	}
	return "No se pudo registrar el movimiento. Intente de nuevo"
}
