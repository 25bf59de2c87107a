package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/kiryana-inventory/internal/application/dto"
	"github.com/jhoicas/kiryana-inventory/internal/domain/entity"
)

// RegisterFromRequest adapta el request HTTP/CLI/formulario al coordinador y devuelve la respuesta.
// kind es stock_in, sale o removal; en removal se usa in.Reason.
func (uc *RegisterMovementUseCase) RegisterFromRequest(
	ctx context.Context,
	actor entity.Actor,
	storeID string,
	kind entity.MovementType,
	in dto.RegisterMovementRequest,
) (*dto.MovementResponse, error) {
	input := MovementInput{
		Actor:        actor,
		StoreID:      storeID,
		ProductID:    in.ProductID,
		Type:         kind,
		Quantity:     in.Quantity,
		UnitPrice:    in.UnitPrice,
		Reference:    in.Reference,
		Notes:        in.Notes,
		MovementDate: in.MovementDate,
	}
	var (
		res *MovementResult
		err error
	)
	if kind == entity.MovementRemoval {
		res, err = uc.Removal(ctx, input, in.Reason)
	} else {
		res, err = uc.RecordMovement(ctx, input)
	}
	if err != nil {
		return nil, err
	}
	return &dto.MovementResponse{
		ID:            res.Movement.ID,
		NewStockLevel: res.NewQuantity,
		Message: fmt.Sprintf("%s registrado: %d unidades. Nuevo nivel de stock: %d",
			kind.Label(), res.Movement.Quantity, res.NewQuantity),
		Warnings: ToWarningDTOs(res.Warnings),
		Movement: ToMovementDTO(res.Movement),
	}, nil
}

// TransferFromRequest adapta el request de traslado; la tienda de la ruta es el origen.
func (uc *RegisterMovementUseCase) TransferFromRequest(
	ctx context.Context,
	actor entity.Actor,
	sourceStoreID string,
	in dto.TransferRequest,
) (*dto.TransferResponse, error) {
	res, err := uc.Transfer(ctx, TransferInput{
		Actor:                actor,
		ProductID:            in.ProductID,
		SourceStoreID:        sourceStoreID,
		DestinationStoreID:   in.DestinationStoreID,
		DestinationProductID: in.DestinationProductID,
		Quantity:             in.Quantity,
		Reference:            in.Reference,
		Notes:                in.Notes,
		MovementDate:         in.MovementDate,
	})
	if err != nil {
		return nil, err
	}
	return &dto.TransferResponse{
		TransferID:       res.TransferID,
		SourceStockLevel: res.SourceQuantity,
		DestinationLevel: res.DestinationQuantity,
		Message: fmt.Sprintf("Traslado registrado: %d unidades. Stock origen: %d, stock destino: %d",
			in.Quantity, res.SourceQuantity, res.DestinationQuantity),
		Warnings:         ToWarningDTOs(res.Warnings),
		OutboundMovement: ToMovementDTO(res.Out),
		InboundMovement:  ToMovementDTO(res.In),
	}, nil
}

// ToMovementDTO convierte un movimiento del libro a su representación de salida.
func ToMovementDTO(m *entity.InventoryMovement) dto.MovementDTO {
	return dto.MovementDTO{
		ID:           m.ID,
		ProductID:    m.ProductID,
		StoreID:      m.StoreID,
		MovementType: string(m.Type),
		Quantity:     m.Quantity,
		UnitPrice:    m.UnitPrice,
		TotalValue:   m.TotalValue(),
		Reference:    m.Reference,
		Notes:        m.Notes,
		TransferID:   m.TransferID,
		CreatedBy:    m.CreatedBy,
		MovementDate: m.MovementDate,
		CreatedAt:    m.CreatedAt,
	}
}

// ToWarningDTOs nil si no hay advertencias.
func ToWarningDTOs(ws []Warning) []dto.WarningDTO {
	if len(ws) == 0 {
		return nil
	}
	out := make([]dto.WarningDTO, 0, len(ws))
	for _, w := range ws {
		out = append(out, dto.WarningDTO{Code: w.Code, Message: w.Message})
	}
	return out
}
