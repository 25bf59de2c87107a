package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kiryana-inventory/internal/application/dto"
	"github.com/jhoicas/kiryana-inventory/internal/domain"
)

// errorResponse traduce un error de dominio a status HTTP + cuerpo.
// Los errores tipados aportan Details para que el cliente explique el fallo sin otra consulta.
func errorResponse(err error) (int, dto.ErrorResponse) {
	var (
		insufficient *domain.InsufficientStockError
		invalidQty   *domain.InvalidQuantityError
		dupSKU       *domain.DuplicateSKUError
		denied       *domain.PermissionDeniedError
		contention   *domain.ContentionError
		drift        *domain.LedgerDriftError
	)
	switch {
	case errors.As(err, &insufficient):
		return fiber.StatusBadRequest, dto.ErrorResponse{
			Code: "INSUFFICIENT_STOCK", Message: insufficient.Error(),
			Details: map[string]any{"product_id": insufficient.ProductID, "available": insufficient.Available, "requested": insufficient.Requested},
		}
	case errors.As(err, &invalidQty):
		return fiber.StatusBadRequest, dto.ErrorResponse{
			Code: "INVALID_QUANTITY", Message: invalidQty.Error(),
			Details: map[string]any{"quantity": invalidQty.Quantity},
		}
	case errors.As(err, &dupSKU):
		return fiber.StatusConflict, dto.ErrorResponse{
			Code: "DUPLICATE_SKU", Message: dupSKU.Error(),
			Details: map[string]any{"store_id": dupSKU.StoreID, "sku": dupSKU.SKU},
		}
	case errors.As(err, &denied):
		return fiber.StatusForbidden, dto.ErrorResponse{
			Code: "FORBIDDEN", Message: denied.Error(),
			Details: map[string]any{"store_id": denied.StoreID, "action": denied.Action},
		}
	case errors.As(err, &contention):
		return fiber.StatusConflict, dto.ErrorResponse{
			Code: "CONTENTION", Message: "operación concurrente en curso, reintente",
			Details: map[string]any{"product_id": contention.ProductID, "retryable": true},
		}
	case errors.As(err, &drift):
		return fiber.StatusConflict, dto.ErrorResponse{
			Code: "LEDGER_DRIFT", Message: drift.Error(),
			Details: map[string]any{"product_id": drift.ProductID, "cached": drift.Cached, "ledger": drift.Ledger},
		}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, domain.ErrProductHasMovements):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "HAS_MOVEMENTS", Message: err.Error()}
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()}
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()}
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Code: "UNAUTHORIZED", Message: err.Error()}
	}
	return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
}

// writeError responde con el error traducido. Los 500 se registran con el detalle original.
func writeError(c *fiber.Ctx, err error) error {
	status, body := errorResponse(err)
	if status == fiber.StatusInternalServerError {
		requestLog(c).Error().Err(err).Str("path", c.Path()).Msg("error no controlado")
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}
