package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"github.com/jhoicas/kiryana-inventory/internal/application/dto"
	"github.com/jhoicas/kiryana-inventory/internal/application/inventory"
	"github.com/jhoicas/kiryana-inventory/internal/domain"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
)

const dateLayout = "2006-01-02"

// Motivos de baja aceptados por el CLI.
var removalReasons = []string{"damaged", "expired", "stolen", "other"}

// productFlags identifican el producto por ID o por SKU dentro de la tienda.
type productFlags struct {
	id  *string
	sku *string
}

func addProductFlags(fs *pflag.FlagSet) productFlags {
	return productFlags{
		id:  fs.String("product-id", "", "ID del producto"),
		sku: fs.String("sku", "", "SKU del producto en la tienda"),
	}
}

func (r *runner) resolveProduct(ctx context.Context, storeID string, pf productFlags) (string, error) {
	if id := strings.TrimSpace(*pf.id); id != "" {
		return id, nil
	}
	sku := strings.TrimSpace(*pf.sku)
	if sku == "" {
		return "", usagef("indique --product-id o --sku")
	}
	p, err := r.deps.Products.GetBySKU(ctx, r.deps.Actor, storeID, sku)
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		return nil, usagef("--date debe tener formato AAAA-MM-DD")
	}
	return &d, nil
}

func parsePrice(raw, flag string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, usagef("%s inválido: %q", flag, raw)
	}
	return &d, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos
// ──────────────────────────────────────────────────────────────────────────────

func runStockIn(ctx context.Context, r *runner, args []string) error {
	return r.movement(ctx, entity.MovementStockIn, args)
}

func runSale(ctx context.Context, r *runner, args []string) error {
	return r.movement(ctx, entity.MovementSale, args)
}

func runRemoval(ctx context.Context, r *runner, args []string) error {
	return r.movement(ctx, entity.MovementRemoval, args)
}

func (r *runner) movement(ctx context.Context, kind entity.MovementType, args []string) error {
	fs, storeID := r.newFlags(string(kind))
	pf := addProductFlags(fs)
	qty := fs.Int64("quantity", 0, "Cantidad (entero positivo)")
	price := fs.String("unit-price", "", "Precio unitario (por defecto el precio actual del producto)")
	reference := fs.String("reference", "", "Factura, recibo u orden de compra")
	notes := fs.String("notes", "", "Notas")
	date := fs.String("date", "", "Fecha del movimiento AAAA-MM-DD (por defecto hoy)")
	var reason *string
	if kind == entity.MovementRemoval {
		reason = fs.String("reason", "", "Motivo: "+strings.Join(removalReasons, "|"))
	}
	if err := parse(fs, args, storeID); err != nil {
		return err
	}
	in := dto.RegisterMovementRequest{Quantity: *qty, Reference: *reference, Notes: *notes}
	if reason != nil {
		if !validReason(*reason) {
			return usagef("--reason debe ser uno de: %s", strings.Join(removalReasons, ", "))
		}
		in.Reason = *reason
	}
	var err error
	if in.UnitPrice, err = parsePrice(*price, "--unit-price"); err != nil {
		return err
	}
	if in.MovementDate, err = parseDate(*date); err != nil {
		return err
	}
	if in.ProductID, err = r.resolveProduct(ctx, *storeID, pf); err != nil {
		return err
	}
	out, err := r.deps.Movements.RegisterFromRequest(ctx, r.deps.Actor, *storeID, kind, in)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, out.Message)
	r.printWarnings(out.Warnings)
	return nil
}

func validReason(reason string) bool {
	for _, v := range removalReasons {
		if v == reason {
			return true
		}
	}
	return false
}

func (r *runner) printWarnings(ws []dto.WarningDTO) {
	for _, w := range ws {
		fmt.Fprintf(r.out, "Aviso [%s]: %s\n", w.Code, w.Message)
	}
}

func runTransfer(ctx context.Context, r *runner, args []string) error {
	fs, storeID := r.newFlags("transfer")
	pf := addProductFlags(fs)
	toStore := fs.String("to-store", "", "ID de la tienda destino (obligatorio)")
	toProduct := fs.String("to-product-id", "", "ID del producto en destino (por defecto el mismo SKU)")
	qty := fs.Int64("quantity", 0, "Cantidad (entero positivo)")
	reference := fs.String("reference", "", "Referencia")
	notes := fs.String("notes", "", "Notas")
	date := fs.String("date", "", "Fecha del traslado AAAA-MM-DD")
	if err := parse(fs, args, storeID); err != nil {
		return err
	}
	if *toStore == "" {
		return usagef("--to-store es obligatorio")
	}
	movementDate, err := parseDate(*date)
	if err != nil {
		return err
	}
	productID, err := r.resolveProduct(ctx, *storeID, pf)
	if err != nil {
		return err
	}
	out, err := r.deps.Movements.TransferFromRequest(ctx, r.deps.Actor, *storeID, dto.TransferRequest{
		ProductID:            productID,
		DestinationStoreID:   *toStore,
		DestinationProductID: *toProduct,
		Quantity:             *qty,
		Reference:            *reference,
		Notes:                *notes,
		MovementDate:         movementDate,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, out.Message)
	fmt.Fprintf(r.out, "Traslado: %s\n", out.TransferID)
	r.printWarnings(out.Warnings)
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func runMovements(ctx context.Context, r *runner, args []string) error {
	fs, storeID := r.newFlags("movements")
	pf := addProductFlags(fs)
	kind := fs.String("type", "", "stock_in | sale | removal | transfer_in | transfer_out")
	days := fs.Int("days", 0, "Últimos N días")
	limit := fs.Int("limit", 50, "Máximo de filas")
	if err := parse(fs, args, storeID); err != nil {
		return err
	}
	q := inventory.MovementQuery{StoreID: *storeID, Type: entity.MovementType(*kind), Days: *days, Limit: *limit}
	if *pf.id != "" || *pf.sku != "" {
		id, err := r.resolveProduct(ctx, *storeID, pf)
		if err != nil {
			return err
		}
		q.ProductID = id
	}
	res, err := r.deps.Ledger.ListMovements(ctx, r.deps.Actor, q)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FECHA\tTIPO\tPRODUCTO\tCANT\tPRECIO\tTOTAL\tREFERENCIA")
	for _, m := range res.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			m.MovementDate.Format(dateLayout), entity.MovementType(m.MovementType).Label(), m.ProductID,
			r.p.Sprintf("%d", m.Quantity), m.UnitPrice.StringFixed(2), m.TotalValue.StringFixed(2), m.Reference)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	t := res.Totals
	r.p.Fprintf(r.out, "\nMostrando %d de %d movimientos\n", len(res.Items), res.Page.Total)
	r.p.Fprintf(r.out, "Entradas: %d  Ventas: %d  Bajas: %d  Traslados +%d/-%d  Neto: %d\n",
		t.StockIn, t.Sales, t.Removals, t.TransferIn, t.TransferOut, t.NetChange)
	fmt.Fprintf(r.out, "Valor ventas: %s  Valor entradas: %s\n", t.SalesValue.StringFixed(2), t.StockValue.StringFixed(2))
	return nil
}

func runInventory(ctx context.Context, r *runner, args []string) error {
	fs, storeID := r.newFlags("inventory")
	if err := parse(fs, args, storeID); err != nil {
		return err
	}
	s, err := r.deps.Summary.StoreSummary(ctx, r.deps.Actor, *storeID)
	if err != nil {
		return err
	}
	r.p.Fprintf(r.out, "Productos: %d  Unidades: %d  Bajo stock: %d  Agotados: %d\n",
		s.ProductCount, s.TotalItems, s.LowStockCount, s.OutOfStockCount)
	fmt.Fprintf(r.out, "Valor total: %s\n\n", s.TotalValue.StringFixed(2))
	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SKU\tNOMBRE\tCANT\tREORDEN\tESTADO\tVALOR")
	for _, it := range s.Products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", it.SKU, it.Name, r.p.Sprintf("%d", it.CurrentQuantity),
			it.ReorderLevel, entity.StockStatus(it.Status).Label(), it.Value.StringFixed(2))
	}
	return tw.Flush()
}

func runListProducts(ctx context.Context, r *runner, args []string) error {
	fs, storeID := r.newFlags("list-products")
	lowStock := fs.Bool("low-stock", false, "Solo productos en o bajo el nivel de reorden")
	limit := fs.Int("limit", 100, "Máximo de filas")
	if err := parse(fs, args, storeID); err != nil {
		return err
	}
	res, err := r.deps.Products.List(ctx, r.deps.Actor, *storeID, *lowStock, *limit, 0)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSKU\tNOMBRE\tPRECIO\tCANT\tESTADO")
	for _, p := range res.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.SKU, p.Name, p.UnitPrice.StringFixed(2),
			r.p.Sprintf("%d", p.CurrentQuantity), entity.StockStatus(p.StockStatus).Label())
	}
	return tw.Flush()
}

// ──────────────────────────────────────────────────────────────────────────────
// Catálogo
// ──────────────────────────────────────────────────────────────────────────────

func runAddProduct(ctx context.Context, r *runner, args []string) error {
	fs, storeID := r.newFlags("add-product")
	sku := fs.String("sku", "", "SKU (único en la tienda)")
	name := fs.String("name", "", "Nombre (obligatorio)")
	price := fs.String("unit-price", "0", "Precio de venta")
	cost := fs.String("cost-price", "", "Precio de costo")
	reorder := fs.Int64("reorder-level", entity.DefaultReorderLevel, "Nivel de reorden")
	barcode := fs.String("barcode", "", "Código de barras")
	category := fs.String("category", "", "Categoría")
	description := fs.String("description", "", "Descripción")
	if err := parse(fs, args, storeID); err != nil {
		return err
	}
	if strings.TrimSpace(*name) == "" {
		return usagef("--name es obligatorio")
	}
	unitPrice, err := parsePrice(*price, "--unit-price")
	if err != nil {
		return err
	}
	if unitPrice == nil {
		unitPrice = &decimal.Zero
	}
	costPrice, err := parsePrice(*cost, "--cost-price")
	if err != nil {
		return err
	}
	req := dto.CreateProductRequest{
		SKU: *sku, Name: *name, Barcode: *barcode, Category: *category, Description: *description,
		UnitPrice: *unitPrice, CostPrice: costPrice, ReorderLevel: reorder,
	}
	out, err := r.deps.Products.Create(ctx, r.deps.Actor, *storeID, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Producto creado: %s (%s)\n", out.ID, out.Name)
	return nil
}

func runImportProducts(ctx context.Context, r *runner, args []string) error {
	fs, storeID := r.newFlags("import-products")
	file := fs.String("file", "", "Ruta del CSV (obligatorio)")
	latin1 := fs.Bool("latin1", false, "El archivo está en ISO-8859-1")
	if err := parse(fs, args, storeID); err != nil {
		return err
	}
	if *file == "" {
		return usagef("--file es obligatorio")
	}
	f, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("abrir %s: %w", *file, err)
	}
	defer f.Close()
	res, err := r.deps.Products.ImportCSV(ctx, r.deps.Actor, *storeID, f, *latin1)
	if err != nil {
		return err
	}
	r.p.Fprintf(r.out, "Creados: %d  Omitidos (SKU repetido): %d  Errores: %d\n", res.Created, res.Skipped, len(res.Errors))
	for _, e := range res.Errors {
		fmt.Fprintf(r.out, "  %s\n", e)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Integridad
// ──────────────────────────────────────────────────────────────────────────────

func runVerify(ctx context.Context, r *runner, args []string) error {
	fs, storeID := r.newFlags("verify")
	pf := addProductFlags(fs)
	repair := fs.Bool("repair", false, "Corregir la caché desde el libro (requiere --product-id o --sku)")
	if err := parse(fs, args, storeID); err != nil {
		return err
	}
	if *pf.id == "" && *pf.sku == "" {
		if *repair {
			return usagef("--repair requiere --product-id o --sku")
		}
		report, err := r.deps.Reconciliation.VerifyStore(ctx, r.deps.Actor, *storeID)
		if err != nil {
			return err
		}
		r.p.Fprintf(r.out, "Verificados: %d  Con deriva: %d\n", report.Checked, len(report.Drifted))
		for _, d := range report.Drifted {
			fmt.Fprintf(r.out, "  %s: caché %d, libro %d\n", d.ProductID, d.Cached, d.Ledger)
		}
		if len(report.Drifted) > 0 {
			return domain.ErrLedgerDrift
		}
		return nil
	}
	productID, err := r.resolveProduct(ctx, *storeID, pf)
	if err != nil {
		return err
	}
	if *repair {
		res, err := r.deps.Reconciliation.Repair(ctx, r.deps.Actor, productID)
		if err != nil {
			return err
		}
		if res.Repaired {
			fmt.Fprintf(r.out, "Reparado: %d -> %d\n", res.Previous, res.Current)
		} else {
			fmt.Fprintf(r.out, "Sin cambios: %d\n", res.Current)
		}
		return nil
	}
	res, err := r.deps.Reconciliation.Verify(ctx, r.deps.Actor, productID)
	if err != nil && !(errors.Is(err, domain.ErrLedgerDrift) && res != nil) {
		return err
	}
	fmt.Fprintf(r.out, "Caché: %d  Libro: %d  En sincronía: %t\n", res.Cached, res.Ledger, res.InSync)
	return err
}
