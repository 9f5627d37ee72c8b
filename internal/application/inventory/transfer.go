package inventory

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// TransferCoordinator traslada stock de un producto entre dos ubicaciones.
// Flujo: pending -> in_progress -> (una tx con transfer_out + transfer_in) -> completed.
// Si la ejecución falla el traslado queda cancelled y no existe ninguna de sus transacciones.
type TransferCoordinator struct {
	runner    TxRunner
	ledger    *StockLedger
	alerts    *AlertEngine
	transfers repository.InventoryTransferRepository
	products  repository.ProductRepository
	log       zerolog.Logger
	now       func() time.Time
}

// NewTransferCoordinator construye el caso de uso.
func NewTransferCoordinator(
	runner TxRunner,
	ledger *StockLedger,
	alerts *AlertEngine,
	transfers repository.InventoryTransferRepository,
	products repository.ProductRepository,
	log zerolog.Logger,
) *TransferCoordinator {
	return &TransferCoordinator{
		runner:    runner,
		ledger:    ledger,
		alerts:    alerts,
		transfers: transfers,
		products:  products,
		log:       log.With().Str("component", "transfer_coordinator").Logger(),
		now:       time.Now,
	}
}

// CreateInventoryTransfer crea el traslado en pending y lo ejecuta de inmediato.
// Devuelve el traslado completed, o el error de ejecución (el traslado queda cancelled).
func (uc *TransferCoordinator) CreateInventoryTransfer(ctx context.Context, tenantID, userID string, in dto.CreateTransferRequest) (*dto.TransferResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, domain.NewValidationError("reason", "es requerido")
	}
	if len(in.Metadata) > 0 && !json.Valid(in.Metadata) {
		return nil, domain.NewValidationError("metadata", "debe ser JSON válido")
	}
	product, err := uc.products.GetByID(ctx, tenantID, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	now := uc.now()
	t := &entity.InventoryTransfer{
		ID:             uuid.New().String(),
		TenantID:       tenantID,
		ProductID:      in.ProductID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Quantity:       in.Quantity,
		Reason:         strings.TrimSpace(in.Reason),
		Notes:          in.Notes,
		Status:         entity.TransferStatusPending,
		Metadata:       in.Metadata,
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.runner.Run(ctx, func(tx Tx) error {
		return tx.Transfers().Create(ctx, t)
	}); err != nil {
		return nil, err
	}

	if err := uc.setStatus(ctx, t, entity.TransferStatusInProgress); err != nil {
		uc.cancel(ctx, t, err)
		return nil, err
	}

	var alert *entity.InventoryAlert
	execErr := uc.runner.Run(ctx, func(tx Tx) error {
		if _, err := uc.ledger.Append(ctx, tx, LedgerEntry{
			TenantID:        tenantID,
			ProductID:       t.ProductID,
			Delta:           -t.Quantity,
			TransactionType: entity.TransactionTypeTransferOut,
			ReferenceID:     t.ID,
			LocationID:      t.FromLocationID,
			CreatedBy:       userID,
		}); err != nil {
			return err
		}
		if _, err := uc.ledger.Append(ctx, tx, LedgerEntry{
			TenantID:        tenantID,
			ProductID:       t.ProductID,
			Delta:           t.Quantity,
			TransactionType: entity.TransactionTypeTransferIn,
			ReferenceID:     t.ID,
			LocationID:      t.ToLocationID,
			CreatedBy:       userID,
		}); err != nil {
			return err
		}
		completed := *t
		if err := inventory.TransitionTransfer(&completed, entity.TransferStatusCompleted); err != nil {
			return err
		}
		completed.UpdatedAt = uc.now()
		if err := tx.Transfers().UpdateStatus(ctx, tenantID, t.ID, completed.Status, completed.UpdatedAt); err != nil {
			return err
		}
		alert = uc.alerts.reevaluateBestEffort(ctx, tx, tenantID, t.ProductID)
		*t = completed
		return nil
	})
	if execErr != nil {
		uc.cancel(ctx, t, execErr)
		return nil, execErr
	}

	uc.log.Info().
		Str("tenant_id", tenantID).
		Str("transfer_id", t.ID).
		Str("product_id", t.ProductID).
		Str("from_location_id", t.FromLocationID).
		Str("to_location_id", t.ToLocationID).
		Int64("quantity", t.Quantity).
		Msg("traslado completado")

	out := toTransferResponse(t)
	if alert != nil {
		out.Alerts = []dto.AlertResponse{toAlertResponse(alert)}
	}
	return out, nil
}

func (uc *TransferCoordinator) setStatus(ctx context.Context, t *entity.InventoryTransfer, status string) error {
	next := *t
	if err := inventory.TransitionTransfer(&next, status); err != nil {
		return err
	}
	next.UpdatedAt = uc.now()
	if err := uc.runner.Run(ctx, func(tx Tx) error {
		return tx.Transfers().UpdateStatus(ctx, next.TenantID, next.ID, next.Status, next.UpdatedAt)
	}); err != nil {
		return err
	}
	*t = next
	return nil
}

// cancel deja el traslado en cancelled. Usa un contexto sin cancelación para que un timeout
// de la ejecución no impida registrar el estado final.
func (uc *TransferCoordinator) cancel(ctx context.Context, t *entity.InventoryTransfer, cause error) {
	if err := uc.setStatus(context.WithoutCancel(ctx), t, entity.TransferStatusCancelled); err != nil {
		uc.log.Error().Err(err).
			Str("tenant_id", t.TenantID).
			Str("transfer_id", t.ID).
			Msg("no se pudo cancelar el traslado")
		return
	}
	uc.log.Warn().Err(cause).
		Str("tenant_id", t.TenantID).
		Str("transfer_id", t.ID).
		Msg("traslado cancelado")
}

// GetInventoryTransferByID obtiene un traslado del tenant.
func (uc *TransferCoordinator) GetInventoryTransferByID(ctx context.Context, tenantID, id string) (*dto.TransferResponse, error) {
	t, err := uc.transfers.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return toTransferResponse(t), nil
}

// GetInventoryTransfers lista traslados filtrados por producto y estado, más recientes primero.
func (uc *TransferCoordinator) GetInventoryTransfers(ctx context.Context, tenantID string, filter repository.TransferFilter, limit, offset int) (*dto.TransferListResponse, error) {
	if filter.Status != "" && !inventory.IsValidTransferStatus(filter.Status) {
		return nil, domain.NewValidationError("status", "debe ser uno de: pending in_progress completed cancelled")
	}
	list, err := uc.transfers.List(ctx, tenantID, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.TransferResponse, 0, len(list))
	for _, t := range list {
		items = append(items, *toTransferResponse(t))
	}
	return &dto.TransferListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}
