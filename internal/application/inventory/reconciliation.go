package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/kiryana-inventory/internal/application/dto"
	"github.com/jhoicas/kiryana-inventory/internal/domain"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
	"github.com/jhoicas/kiryana-inventory/internal/domain/repository"
)

// verifyPageSize tamaño de página al recorrer los productos de una tienda.
const verifyPageSize = 200

// ReconciliationUseCase recalcula la cantidad desde el libro y la compara con la caché.
// La verificación nunca corrige; Repair es una operación explícita.
type ReconciliationUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	movRepo     repository.InventoryMovementRepository
	gate        AccessGate
	now         func() time.Time
}

// NewReconciliationUseCase construye el caso de uso.
func NewReconciliationUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	movRepo repository.InventoryMovementRepository,
	gate AccessGate,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		movRepo:     movRepo,
		gate:        gate,
		now:         time.Now,
	}
}

// Recompute Σ entradas − Σ salidas del producto sobre todo el libro. Es idempotente.
func (uc *ReconciliationUseCase) Recompute(ctx context.Context, productID string) (int64, error) {
	t, err := uc.movRepo.Totals(ctx, productID)
	if err != nil {
		return 0, err
	}
	return t.Net(), nil
}

// Verify compara caché y libro con la fila bloqueada, para no leer a mitad de una escritura.
// Con deriva devuelve el resultado junto con *domain.LedgerDriftError.
func (uc *ReconciliationUseCase) Verify(ctx context.Context, actor entity.Actor, productID string) (*dto.VerifyResponse, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := RequireRead(ctx, uc.gate, actor, product.StoreID); err != nil {
		return nil, err
	}
	return uc.verify(ctx, productID)
}

func (uc *ReconciliationUseCase) verify(ctx context.Context, productID string) (*dto.VerifyResponse, error) {
	var res dto.VerifyResponse
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.InventoryMovementRepository,
		stockRepo repository.StockRepository,
		_ repository.ProductRepository,
	) error {
		p, err := stockRepo.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		t, err := movRepo.Totals(ctx, productID)
		if err != nil {
			return err
		}
		res = dto.VerifyResponse{
			ProductID: productID,
			Cached:    p.CurrentQuantity,
			Ledger:    t.Net(),
			InSync:    p.CurrentQuantity == t.Net(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !res.InSync {
		return &res, &domain.LedgerDriftError{ProductID: productID, Cached: res.Cached, Ledger: res.Ledger}
	}
	return &res, nil
}

// VerifyStore verifica todos los productos de la tienda y lista los que tienen deriva.
func (uc *ReconciliationUseCase) VerifyStore(ctx context.Context, actor entity.Actor, storeID string) (*dto.DriftReportResponse, error) {
	if err := RequireRead(ctx, uc.gate, actor, storeID); err != nil {
		return nil, err
	}
	report := &dto.DriftReportResponse{StoreID: storeID, Drifted: []dto.VerifyResponse{}}
	for offset := 0; ; offset += verifyPageSize {
		page, err := uc.productRepo.List(ctx, repository.ProductFilter{StoreID: storeID, Limit: verifyPageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, p := range page {
			res, err := uc.verify(ctx, p.ID)
			var drift *domain.LedgerDriftError
			switch {
			case errors.As(err, &drift):
				report.Drifted = append(report.Drifted, *res)
			case err != nil:
				return nil, err
			}
			report.Checked++
		}
		if len(page) < verifyPageSize {
			break
		}
	}
	report.CheckedAt = uc.now()
	return report, nil
}

// Repair sobrescribe la caché con el valor del libro. Requiere permiso de escritura
// y nunca la invoca el flujo normal de escritura.
func (uc *ReconciliationUseCase) Repair(ctx context.Context, actor entity.Actor, productID string) (*dto.RepairResponse, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := RequireWrite(ctx, uc.gate, actor, product.StoreID); err != nil {
		return nil, err
	}
	var res dto.RepairResponse
	txCtx := context.WithoutCancel(ctx)
	err = uc.txRunner.Run(txCtx, func(
		movRepo repository.InventoryMovementRepository,
		stockRepo repository.StockRepository,
		_ repository.ProductRepository,
	) error {
		p, err := stockRepo.GetForUpdate(txCtx, productID)
		if err != nil {
			return err
		}
		t, err := movRepo.Totals(txCtx, productID)
		if err != nil {
			return err
		}
		res = dto.RepairResponse{ProductID: productID, Previous: p.CurrentQuantity, Current: t.Net()}
		if p.CurrentQuantity == t.Net() {
			return nil
		}
		res.Repaired = true
		return stockRepo.SetQuantity(txCtx, productID, t.Net())
	})
	if err != nil {
		return nil, withProduct(err, productID)
	}
	return &res, nil
}
