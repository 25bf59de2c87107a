package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kiryana-inventory/internal/application/dto"
	"github.com/jhoicas/kiryana-inventory/internal/application/usecase"
)

// StoreHandler maneja las peticiones HTTP para Store (protegido).
type StoreHandler struct {
	uc *usecase.StoreUseCase
}

// NewStoreHandler construye el handler.
func NewStoreHandler(uc *usecase.StoreUseCase) *StoreHandler {
	return &StoreHandler{uc: uc}
}

// Create godoc
// @Summary      Crear tienda (solo admin)
// @Tags         stores
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStoreRequest  true  "Datos de la tienda"
// @Success      201   {object}  dto.StoreResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stores [post]
func (h *StoreHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateStoreRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.Name == "" || in.Code == "" {
		return badRequest(c, "VALIDATION", "name y code son requeridos")
	}
	out, err := h.uc.Create(c.UserContext(), Actor(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener tienda por ID
// @Tags         stores
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la tienda"
// @Success      200  {object}  dto.StoreResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stores/{id} [get]
func (h *StoreHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), Actor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar tiendas visibles para el usuario
// @Tags         stores
// @Security     Bearer
// @Produce      json
// @Param        active  query  bool  false  "Solo activas"  default(true)
// @Param        limit   query  int   false  "Límite"        default(20)
// @Param        offset  query  int   false  "Offset"        default(0)
// @Success      200  {object}  dto.StoreListResponse
// @Router       /api/stores [get]
func (h *StoreHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	out, err := h.uc.List(c.UserContext(), Actor(c), c.QueryBool("active", true), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar o reactivar tienda
// @Tags         stores
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID de la tienda"
// @Param        body  body  dto.UpdateStoreRequest  true  "Datos a actualizar"
// @Success      200   {object}  dto.StoreResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stores/{id} [put]
func (h *StoreHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateStoreRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.Update(c.UserContext(), Actor(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Deactivate godoc
// @Summary      Desactivar tienda
// @Description  La tienda y su historial se conservan; deja de aceptar movimientos.
// @Tags         stores
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la tienda"
// @Success      200  {object}  dto.StoreResponse
// @Router       /api/stores/{id} [delete]
func (h *StoreHandler) Deactivate(c *fiber.Ctx) error {
	out, err := h.uc.Deactivate(c.UserContext(), Actor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
