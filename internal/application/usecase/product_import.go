package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/kiryana-inventory/internal/application/dto"
	"github.com/jhoicas/kiryana-inventory/internal/application/inventory"
	"github.com/jhoicas/kiryana-inventory/internal/domain"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
)

// Encabezados reconocidos en el CSV de catálogo. name y unit_price son obligatorios.
var importColumns = []string{"sku", "barcode", "name", "description", "category", "unit_price", "cost_price", "reorder_level"}

// ImportCSV crea productos en la tienda a partir de un CSV con encabezado.
// Las filas con SKU duplicado se omiten; otros errores de fila se acumulan sin abortar el resto.
// latin1 decodifica archivos exportados en ISO-8859-1 (hojas de cálculo antiguas).
func (uc *ProductUseCase) ImportCSV(ctx context.Context, actor entity.Actor, storeID string, r io.Reader, latin1 bool) (*dto.ImportProductsResponse, error) {
	if err := inventory.RequireWrite(ctx, uc.gate, actor, storeID); err != nil {
		return nil, err
	}
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: CSV sin encabezado: %v", domain.ErrInvalidInput, err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"name", "unit_price"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("%w: falta la columna %q (reconocidas: %s)", domain.ErrInvalidInput, required, strings.Join(importColumns, ", "))
		}
	}

	res := &dto.ImportProductsResponse{}
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("línea %d: %v", line, err))
			continue
		}
		req, err := parseImportRow(idx, record)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("línea %d: %v", line, err))
			continue
		}
		_, err = uc.Create(ctx, actor, storeID, req)
		switch {
		case errors.Is(err, domain.ErrDuplicateSKU):
			res.Skipped++
		case err != nil:
			res.Errors = append(res.Errors, fmt.Sprintf("línea %d: %v", line, err))
		default:
			res.Created++
		}
	}
	return res, nil
}

func parseImportRow(idx map[string]int, record []string) (dto.CreateProductRequest, error) {
	field := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	var req dto.CreateProductRequest
	req.SKU = field("sku")
	req.Barcode = field("barcode")
	req.Name = field("name")
	req.Description = field("description")
	req.Category = field("category")

	price, err := decimal.NewFromString(field("unit_price"))
	if err != nil {
		return req, fmt.Errorf("unit_price inválido %q", field("unit_price"))
	}
	req.UnitPrice = price
	if v := field("cost_price"); v != "" {
		cost, err := decimal.NewFromString(v)
		if err != nil {
			return req, fmt.Errorf("cost_price inválido %q", v)
		}
		req.CostPrice = &cost
	}
	if v := field("reorder_level"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return req, fmt.Errorf("reorder_level inválido %q", v)
		}
		req.ReorderLevel = &n
	}
	return req, nil
}
