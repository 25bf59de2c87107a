// Package cli implementa la interfaz de línea de comandos del inventario.
// Uso: kiryana <comando> --store-id <id> [opciones]
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jhoicas/kiryana-inventory/internal/application/inventory"
	"github.com/jhoicas/kiryana-inventory/internal/application/usecase"
	"github.com/jhoicas/kiryana-inventory/internal/domain"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
)

// Códigos de salida.
const (
	ExitOK    = 0
	ExitError = 1 // error de negocio o de infraestructura
	ExitUsage = 2 // argumentos inválidos
)

// Deps casos de uso que consume el CLI. Actor es la identidad con la que se registran los movimientos.
type Deps struct {
	Actor          entity.Actor
	Movements      *inventory.RegisterMovementUseCase
	Ledger         *inventory.LedgerQueryUseCase
	Summary        *inventory.SummaryUseCase
	Reconciliation *inventory.ReconciliationUseCase
	Products       *usecase.ProductUseCase
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, r *runner, args []string) error
}

var commands = []command{
	{"stock-in", "Registrar entrada de mercancía", runStockIn},
	{"sale", "Registrar venta", runSale},
	{"removal", "Registrar baja (--reason damaged|expired|stolen|other)", runRemoval},
	{"transfer", "Trasladar stock a otra tienda", runTransfer},
	{"movements", "Historial de movimientos con totales", runMovements},
	{"inventory", "Resumen de inventario de la tienda", runInventory},
	{"list-products", "Listar productos (--low-stock)", runListProducts},
	{"add-product", "Crear producto", runAddProduct},
	{"import-products", "Importar catálogo desde CSV", runImportProducts},
	{"verify", "Verificar (y opcionalmente reparar) la caché de stock", runVerify},
}

// usageError argumentos inválidos: se imprime junto con la ayuda del comando.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

type runner struct {
	deps Deps
	out  io.Writer
	p    *message.Printer
}

// Run ejecuta args (sin el nombre del binario) y devuelve el código de salida.
func Run(ctx context.Context, args []string, deps Deps, out io.Writer) int {
	if len(args) == 0 {
		printUsage(out)
		return ExitUsage
	}
	name := args[0]
	if name == "help" || name == "--help" || name == "-h" {
		printUsage(out)
		return ExitOK
	}
	if strings.TrimSpace(deps.Actor.UserID) == "" {
		fmt.Fprintln(out, "Error: defina CLI_USER_ID (y CLI_ROLE si corresponde) para identificar al operador")
		return ExitUsage
	}
	r := &runner{deps: deps, out: out, p: message.NewPrinter(language.Spanish)}
	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}
		err := cmd.run(ctx, r, args[1:])
		var ue *usageError
		switch {
		case err == nil:
			return ExitOK
		case errors.Is(err, pflag.ErrHelp):
			return ExitOK
		case errors.As(err, &ue):
			fmt.Fprintf(out, "Error: %s\n", ue.msg)
			return ExitUsage
		default:
			fmt.Fprintf(out, "Error: %s\n", describe(err))
			return ExitError
		}
	}
	fmt.Fprintf(out, "Comando desconocido: %s\n", name)
	printUsage(out)
	return ExitUsage
}

func printUsage(out io.Writer) {
	var b strings.Builder
	b.WriteString("Kiryana Inventory CLI\n\nUso:\n  kiryana <comando> --store-id <id> [opciones]\n\nComandos:\n")
	for _, cmd := range commands {
		fmt.Fprintf(&b, "  %-16s %s\n", cmd.name, cmd.summary)
	}
	b.WriteString(`
Variables de entorno:
  DATABASE_URL / DB_*   Conexión a PostgreSQL
  CLI_USER_ID           Usuario que registra los movimientos (obligatorio)
  CLI_ROLE              Rol del usuario; vacío aplica sus permisos de tienda

Ejemplos:
  kiryana stock-in --store-id <id> --sku ARROZ-1KG --quantity 24 --unit-price 2.50
  kiryana removal --store-id <id> --sku LECHE --quantity 3 --reason expired
  kiryana transfer --store-id <id> --to-store <id> --sku ARROZ-1KG --quantity 5
  kiryana movements --store-id <id> --days 7 --type sale
`)
	fmt.Fprint(out, b.String())
}

// describe mensaje legible de un error de dominio.
func describe(err error) string {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return fmt.Sprintf("stock insuficiente. Disponible: %d, solicitado: %d", insufficient.Available, insufficient.Requested)
	}
	return err.Error()
}

// newFlags FlagSet del comando con --store-id obligatorio (no hay tienda por defecto).
func (r *runner) newFlags(name string) (*pflag.FlagSet, *string) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(r.out)
	storeID := fs.String("store-id", "", "ID de la tienda (obligatorio)")
	return fs, storeID
}

func parse(fs *pflag.FlagSet, args []string, storeID *string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return usagef("%v", err)
	}
	if strings.TrimSpace(*storeID) == "" {
		return usagef("--store-id es obligatorio")
	}
	return nil
}
