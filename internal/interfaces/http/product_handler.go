package http

import (
	"bytes"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/kiryana-inventory/internal/application/dto"
	"github.com/jhoicas/kiryana-inventory/internal/application/usecase"
)

// ProductHandler maneja las peticiones HTTP para Product (protegido).
type ProductHandler struct {
	uc *usecase.ProductUseCase
}

// NewProductHandler construye el handler.
func NewProductHandler(uc *usecase.ProductUseCase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// Create godoc
// @Summary      Crear producto en la tienda
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID de la tienda"
// @Param        body  body  dto.CreateProductRequest  true  "Datos del producto"
// @Success      201   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stores/{id}/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if in.SKU == "" || in.Name == "" {
		return badRequest(c, "VALIDATION", "sku y name son requeridos")
	}
	out, err := h.uc.Create(c.UserContext(), Actor(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), Actor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar productos de la tienda
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id         path   string  true   "ID de la tienda"
// @Param        sku        query  string  false  "Buscar por SKU exacto"
// @Param        low_stock  query  bool    false  "Solo productos en o bajo el nivel de reorden"
// @Param        limit      query  int     false  "Límite"  default(20)
// @Param        offset     query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ProductListResponse
// @Router       /api/stores/{id}/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	storeID := c.Params("id")
	if sku := c.Query("sku"); sku != "" {
		p, err := h.uc.GetBySKU(c.UserContext(), Actor(c), storeID, sku)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(dto.ProductListResponse{Items: []dto.ProductResponse{*p}, Page: dto.PageResponse{Limit: 1, Total: 1}})
	}
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	out, err := h.uc.List(c.UserContext(), Actor(c), storeID, c.QueryBool("low_stock", false), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar producto
// @Description  No modifica la cantidad en stock: solo los movimientos la cambian.
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID del producto"
// @Param        body  body  dto.UpdateProductRequest  true  "Datos a actualizar"
// @Success      200   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/products/{id} [put]
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateProductRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.Update(c.UserContext(), Actor(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar producto sin movimientos
// @Tags         products
// @Security     Bearer
// @Param        id   path  string  true  "ID del producto"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), Actor(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Import godoc
// @Summary      Importar catálogo desde CSV
// @Description  Columnas: sku, barcode, name, description, category, unit_price, cost_price, reorder_level.
//
//	Acepta multipart (campo file) o el CSV como cuerpo. latin1=true para archivos ISO-8859-1.
//
// @Tags         products
// @Security     Bearer
// @Accept       mpfd
// @Produce      json
// @Param        id      path      string  true   "ID de la tienda"
// @Param        file    formData  file    false  "Archivo CSV"
// @Param        latin1  query     bool    false  "Codificación ISO-8859-1"
// @Success      200  {object}  dto.ImportProductsResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stores/{id}/products/import [post]
func (h *ProductHandler) Import(c *fiber.Ctx) error {
	var r io.Reader
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return badRequest(c, "INVALID_FILE", "no se pudo leer el archivo")
		}
		defer f.Close()
		r = f
	} else {
		body := c.Body()
		if len(body) == 0 {
			return badRequest(c, "VALIDATION", "se requiere un archivo CSV")
		}
		r = bytes.NewReader(body)
	}
	out, err := h.uc.ImportCSV(c.UserContext(), Actor(c), c.Params("id"), r, c.QueryBool("latin1", false))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
