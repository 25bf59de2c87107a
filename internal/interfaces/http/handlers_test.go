package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kiryana-inventory/internal/application/dto"
	"github.com/jhoicas/kiryana-inventory/internal/application/inventory"
	"github.com/jhoicas/kiryana-inventory/internal/application/usecase"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
	"github.com/jhoicas/kiryana-inventory/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/kiryana-inventory/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/kiryana-inventory/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type apiFixture struct {
	app   *fiber.App
	db    *memory.DB
	store *entity.Store
	other *entity.Store
}

// newAPIFixture API completa sobre el almacén en memoria con dos tiendas activas.
func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	db := memory.New(200 * time.Millisecond)
	gate := inventory.NewPermissionGate(db.Permissions())
	runner := db.TxRunner()

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		StoreUC:          usecase.NewStoreUseCase(db.Stores(), gate),
		ProductUC:        usecase.NewProductUseCase(db.Products(), db.Stores(), db.Movements(), gate),
		RegisterMovement: inventory.NewRegisterMovementUseCase(runner, db.Products(), db.Stores(), gate),
		Ledger:           inventory.NewLedgerQueryUseCase(db.Movements(), gate),
		Summary:          inventory.NewSummaryUseCase(db.Products(), gate),
		Reconciliation:   inventory.NewReconciliationUseCase(runner, db.Products(), db.Movements(), gate),
		Replenishment:    inventory.NewReplenishmentUseCase(db.Products(), db.Movements(), gate),
		JWTSecret:        testJWTSecret,
	})

	f := &apiFixture{app: app, db: db}
	f.store = f.seedStore(t, "Tienda Centro", "CEN")
	f.other = f.seedStore(t, "Tienda Norte", "NOR")
	return f
}

func (f *apiFixture) seedStore(t *testing.T, name, code string) *entity.Store {
	t.Helper()
	now := time.Now()
	s := &entity.Store{ID: uuid.New().String(), Name: name, Code: code, IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.db.Stores().Create(context.Background(), s))
	return s
}

func (f *apiFixture) seedProduct(t *testing.T, storeID, sku, price string, reorder int64) *entity.Product {
	t.Helper()
	now := time.Now()
	p := &entity.Product{
		ID: uuid.New().String(), StoreID: storeID, SKU: sku, Name: "Producto " + sku,
		UnitPrice: decimal.RequireFromString(price), ReorderLevel: reorder, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, f.db.Products().Create(context.Background(), p))
	return p
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, userID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

// doJSON lanza una petición con cuerpo JSON (body nil = sin cuerpo).
func (f *apiFixture) doJSON(t *testing.T, method, path, auth string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (f *apiFixture) doForm(t *testing.T, path, auth string, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", auth)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

var adminAuth = func(t *testing.T) string { return bearer(t, "u-admin", entity.RoleAdmin) }

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos
// ──────────────────────────────────────────────────────────────────────────────

func TestStockInYVenta_ActualizanNivel(t *testing.T) {
	f := newAPIFixture(t)
	p := f.seedProduct(t, f.store.ID, "ARROZ", "2.50", 5)
	auth := adminAuth(t)

	resp := f.doJSON(t, http.MethodPost, "/api/stores/"+f.store.ID+"/stock-in", auth,
		dto.RegisterMovementRequest{ProductID: p.ID, Quantity: 10})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	in := decode[dto.MovementResponse](t, resp)
	assert.Equal(t, int64(10), in.NewStockLevel)
	assert.NotEmpty(t, in.ID)

	resp = f.doJSON(t, http.MethodPost, "/api/stores/"+f.store.ID+"/sale", auth,
		dto.RegisterMovementRequest{ProductID: p.ID, Quantity: 6})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sale := decode[dto.MovementResponse](t, resp)
	assert.Equal(t, int64(4), sale.NewStockLevel)
	require.Len(t, sale.Warnings, 1)
	assert.Equal(t, inventory.WarningLowStock, sale.Warnings[0].Code)
	assert.Equal(t, "2.5", sale.Movement.UnitPrice.String(), "la venta toma el precio actual del producto")
}

func TestVenta_StockInsuficienteDevuelveDetalles(t *testing.T) {
	f := newAPIFixture(t)
	p := f.seedProduct(t, f.store.ID, "ARROZ", "2.50", 0)
	auth := adminAuth(t)
	f.doJSON(t, http.MethodPost, "/api/stores/"+f.store.ID+"/stock-in", auth,
		dto.RegisterMovementRequest{ProductID: p.ID, Quantity: 3}).Body.Close()

	resp := f.doJSON(t, http.MethodPost, "/api/stores/"+f.store.ID+"/sale", auth,
		dto.RegisterMovementRequest{ProductID: p.ID, Quantity: 5})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Code)
	assert.EqualValues(t, 3, body.Details["available"])
	assert.EqualValues(t, 5, body.Details["requested"])
}

func TestMovimiento_CantidadInvalida(t *testing.T) {
	f := newAPIFixture(t)
	p := f.seedProduct(t, f.store.ID, "ARROZ", "2.50", 0)

	resp := f.doJSON(t, http.MethodPost, "/api/stores/"+f.store.ID+"/stock-in", adminAuth(t),
		dto.RegisterMovementRequest{ProductID: p.ID, Quantity: 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_QUANTITY", decode[dto.ErrorResponse](t, resp).Code)
}

func TestMovimiento_SinPermisoDevuelve403(t *testing.T) {
	f := newAPIFixture(t)
	p := f.seedProduct(t, f.store.ID, "ARROZ", "2.50", 0)
	f.db.Grant("u-staff", f.store.ID, entity.PermissionRead)

	resp := f.doJSON(t, http.MethodPost, "/api/stores/"+f.store.ID+"/stock-in", bearer(t, "u-staff", entity.RoleStaff),
		dto.RegisterMovementRequest{ProductID: p.ID, Quantity: 1})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decode[dto.ErrorResponse](t, resp).Code)
}

func TestMovimiento_ProductoInexistenteDevuelve404(t *testing.T) {
	f := newAPIFixture(t)
	resp := f.doJSON(t, http.MethodPost, "/api/stores/"+f.store.ID+"/sale", adminAuth(t),
		dto.RegisterMovementRequest{ProductID: uuid.New().String(), Quantity: 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestMovimiento_SinTokenDevuelve401(t *testing.T) {
	f := newAPIFixture(t)
	resp := f.doJSON(t, http.MethodPost, "/api/stores/"+f.store.ID+"/sale", "", dto.RegisterMovementRequest{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestTraslado_PorSKUEnDestino(t *testing.T) {
	f := newAPIFixture(t)
	src := f.seedProduct(t, f.store.ID, "ACEITE", "8.00", 0)
	dst := f.seedProduct(t, f.other.ID, "ACEITE", "9.00", 0)
	auth := adminAuth(t)
	f.doJSON(t, http.MethodPost, "/api/stores/"+f.store.ID+"/stock-in", auth,
		dto.RegisterMovementRequest{ProductID: src.ID, Quantity: 10}).Body.Close()

	resp := f.doJSON(t, http.MethodPost, "/api/stores/"+f.store.ID+"/transfer", auth,
		dto.TransferRequest{ProductID: src.ID, DestinationStoreID: f.other.ID, Quantity: 4})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decode[dto.TransferResponse](t, resp)
	assert.Equal(t, int64(6), out.SourceStockLevel)
	assert.Equal(t, int64(4), out.DestinationLevel)
	assert.Equal(t, dst.ID, out.InboundMovement.ProductID)
	assert.Equal(t, out.TransferID, out.OutboundMovement.TransferID)
	assert.Equal(t, "8", out.InboundMovement.UnitPrice.String(), "ambas patas usan el precio de origen")
}

func TestHistorial_FiltroPorTipoYFechaInvalida(t *testing.T) {
	f := newAPIFixture(t)
	p := f.seedProduct(t, f.store.ID, "ARROZ", "2.00", 0)
	auth := adminAuth(t)
	f.doJSON(t, http.MethodPost, "/api/stores/"+f.store.ID+"/stock-in", auth,
		dto.RegisterMovementRequest{ProductID: p.ID, Quantity: 10}).Body.Close()
	f.doJSON(t, http.MethodPost, "/api/stores/"+f.store.ID+"/sale", auth,
		dto.RegisterMovementRequest{ProductID: p.ID, Quantity: 2}).Body.Close()

	resp := f.doJSON(t, http.MethodGet, "/api/stores/"+f.store.ID+"/movements?type=sale", auth, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.MovementListResponse](t, resp)
	require.Len(t, list.Items, 1)
	assert.Equal(t, int64(2), list.Totals.Sales)

	resp = f.doJSON(t, http.MethodGet, "/api/stores/"+f.store.ID+"/movements?from=2024-13-01", auth, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

// ──────────────────────────────────────────────────────────────────────────────
// Catálogo, resumen y verificación
// ──────────────────────────────────────────────────────────────────────────────

func TestProducto_SKUDuplicadoDevuelve409(t *testing.T) {
	f := newAPIFixture(t)
	auth := adminAuth(t)
	req := dto.CreateProductRequest{SKU: "AZUCAR", Name: "Azúcar 1kg", UnitPrice: decimal.RequireFromString("3.20")}

	resp := f.doJSON(t, http.MethodPost, "/api/stores/"+f.store.ID+"/products", auth, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.ProductResponse](t, resp)
	assert.Equal(t, int64(0), created.CurrentQuantity)
	assert.Equal(t, int64(entity.DefaultReorderLevel), created.ReorderLevel)

	resp = f.doJSON(t, http.MethodPost, "/api/stores/"+f.store.ID+"/products", auth, req)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE_SKU", decode[dto.ErrorResponse](t, resp).Code)

	// el mismo SKU en otra tienda es válido
	resp = f.doJSON(t, http.MethodPost, "/api/stores/"+f.other.ID+"/products", auth, req)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func TestProducto_NoSeBorraConMovimientos(t *testing.T) {
	f := newAPIFixture(t)
	p := f.seedProduct(t, f.store.ID, "ARROZ", "2.00", 0)
	auth := adminAuth(t)
	f.doJSON(t, http.MethodPost, "/api/stores/"+f.store.ID+"/stock-in", auth,
		dto.RegisterMovementRequest{ProductID: p.ID, Quantity: 1}).Body.Close()

	resp := f.doJSON(t, http.MethodDelete, "/api/products/"+p.ID, auth, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	empty := f.seedProduct(t, f.store.ID, "VACIO", "1.00", 0)
	resp = f.doJSON(t, http.MethodDelete, "/api/products/"+empty.ID, auth, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func TestProducto_ActualizarNoTocaLaCantidad(t *testing.T) {
	f := newAPIFixture(t)
	p := f.seedProduct(t, f.store.ID, "ARROZ", "2.00", 0)
	auth := adminAuth(t)
	f.doJSON(t, http.MethodPost, "/api/stores/"+f.store.ID+"/stock-in", auth,
		dto.RegisterMovementRequest{ProductID: p.ID, Quantity: 7}).Body.Close()

	name := "Arroz premium"
	resp := f.doJSON(t, http.MethodPut, "/api/products/"+p.ID, auth, dto.UpdateProductRequest{Name: &name})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.ProductResponse](t, resp)
	assert.Equal(t, name, out.Name)
	assert.Equal(t, int64(7), out.CurrentQuantity)
}

func TestProducto_PrecioConTresDecimalesDevuelve400(t *testing.T) {
	f := newAPIFixture(t)
	auth := adminAuth(t)

	resp := f.doJSON(t, http.MethodPost, "/api/stores/"+f.store.ID+"/products", auth,
		dto.CreateProductRequest{SKU: "FINO", Name: "Precio fino", UnitPrice: decimal.RequireFromString("2.345")})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	p := f.seedProduct(t, f.store.ID, "ARROZ", "2.00", 0)
	price := decimal.RequireFromString("3.999")
	resp = f.doJSON(t, http.MethodPut, "/api/products/"+p.ID, auth, dto.UpdateProductRequest{UnitPrice: &price})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	got, err := f.db.Products().GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "2", got.UnitPrice.String())
}

func TestVenta_CantidadQueDesbordaDevuelve400(t *testing.T) {
	f := newAPIFixture(t)
	p := f.seedProduct(t, f.store.ID, "ARROZ", "1.00", 0)
	auth := adminAuth(t)
	f.doJSON(t, http.MethodPost, "/api/stores/"+f.store.ID+"/stock-in", auth,
		dto.RegisterMovementRequest{ProductID: p.ID, Quantity: 10}).Body.Close()

	resp := f.doJSON(t, http.MethodPost, "/api/stores/"+f.store.ID+"/stock-in", auth,
		dto.RegisterMovementRequest{ProductID: p.ID, Quantity: math.MaxInt64})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_QUANTITY", decode[dto.ErrorResponse](t, resp).Code)
}

func TestImportarCSV(t *testing.T) {
	f := newAPIFixture(t)
	f.seedProduct(t, f.store.ID, "EXISTE", "1.00", 0)
	csv := "sku,name,unit_price,reorder_level\nNUEVO,Producto nuevo,4.50,3\nEXISTE,Repetido,1.00,1\nMALO,Precio malo,abc,1\n"

	req := httptest.NewRequest(http.MethodPost, "/api/stores/"+f.store.ID+"/products/import", strings.NewReader(csv))
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("Authorization", adminAuth(t))
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.ImportProductsResponse](t, resp)
	assert.Equal(t, 1, out.Created)
	assert.Equal(t, 1, out.Skipped)
	assert.Len(t, out.Errors, 1)
}

func TestResumenInventario(t *testing.T) {
	f := newAPIFixture(t)
	p := f.seedProduct(t, f.store.ID, "ARROZ", "2.00", 5)
	f.seedProduct(t, f.store.ID, "VACIO", "1.00", 5)
	auth := adminAuth(t)
	f.doJSON(t, http.MethodPost, "/api/stores/"+f.store.ID+"/stock-in", auth,
		dto.RegisterMovementRequest{ProductID: p.ID, Quantity: 20}).Body.Close()

	resp := f.doJSON(t, http.MethodGet, "/api/stores/"+f.store.ID+"/inventory", auth, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.InventorySummaryResponse](t, resp)
	assert.Equal(t, 2, out.ProductCount)
	assert.Equal(t, 1, out.OutOfStockCount)
	assert.Equal(t, "40", out.TotalValue.String())
}

func TestVerificar_InformaDerivaSinCorregir(t *testing.T) {
	f := newAPIFixture(t)
	p := f.seedProduct(t, f.store.ID, "ARROZ", "2.00", 0)
	auth := adminAuth(t)
	f.doJSON(t, http.MethodPost, "/api/stores/"+f.store.ID+"/stock-in", auth,
		dto.RegisterMovementRequest{ProductID: p.ID, Quantity: 5}).Body.Close()
	f.db.ForceQuantity(p.ID, 9)

	resp := f.doJSON(t, http.MethodGet, "/api/products/"+p.ID+"/verify", auth, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v := decode[dto.VerifyResponse](t, resp)
	assert.False(t, v.InSync)
	assert.Equal(t, int64(9), v.Cached)
	assert.Equal(t, int64(5), v.Ledger)

	resp = f.doJSON(t, http.MethodPost, "/api/products/"+p.ID+"/repair", auth, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	r := decode[dto.RepairResponse](t, resp)
	assert.True(t, r.Repaired)
	assert.Equal(t, int64(5), r.Current)
}

// ──────────────────────────────────────────────────────────────────────────────
// Formularios web
// ──────────────────────────────────────────────────────────────────────────────

func TestFormulario_VentaExitosaYFallida(t *testing.T) {
	f := newAPIFixture(t)
	p := f.seedProduct(t, f.store.ID, "ARROZ", "2.00", 0)
	auth := adminAuth(t)

	resp := f.doForm(t, "/web/stores/"+f.store.ID+"/stock-in", auth, url.Values{
		"product_id": {p.ID}, "quantity": {"4"}, "movement_date": {"2024-03-01"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, apphttp.FlashSuccess, decode[dto.FlashMessage](t, resp).Level)

	resp = f.doForm(t, "/web/stores/"+f.store.ID+"/sale", auth, url.Values{
		"product_id": {p.ID}, "quantity": {"9"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	flash := decode[dto.FlashMessage](t, resp)
	assert.Equal(t, apphttp.FlashDanger, flash.Level)
	assert.Contains(t, flash.Message, "Disponible: 4")
}

func TestFormulario_CantidadNoNumerica(t *testing.T) {
	f := newAPIFixture(t)
	p := f.seedProduct(t, f.store.ID, "ARROZ", "2.00", 0)

	resp := f.doForm(t, "/web/stores/"+f.store.ID+"/removal", adminAuth(t), url.Values{
		"product_id": {p.ID}, "quantity": {"dos"}, "reason": {"damaged"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	flash := decode[dto.FlashMessage](t, resp)
	assert.Equal(t, apphttp.FlashDanger, flash.Level)
	assert.NotContains(t, flash.Message, "strconv", "nunca se muestra el error crudo")
}

// ──────────────────────────────────────────────────────────────────────────────
// Tiendas
// ──────────────────────────────────────────────────────────────────────────────

func TestTiendas_SoloAdminCreaYStaffVeLasSuyas(t *testing.T) {
	f := newAPIFixture(t)
	f.db.Grant("u-staff", f.store.ID, entity.PermissionRead)

	resp := f.doJSON(t, http.MethodPost, "/api/stores", bearer(t, "u-staff", entity.RoleStaff),
		dto.CreateStoreRequest{Name: "Sur", Code: "sur"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = f.doJSON(t, http.MethodPost, "/api/stores", adminAuth(t), dto.CreateStoreRequest{Name: "Sur", Code: "sur"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "SUR", decode[dto.StoreResponse](t, resp).Code)

	resp = f.doJSON(t, http.MethodGet, "/api/stores", bearer(t, "u-staff", entity.RoleStaff), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.StoreListResponse](t, resp)
	require.Len(t, list.Items, 1)
	assert.Equal(t, f.store.ID, list.Items[0].ID)
}
