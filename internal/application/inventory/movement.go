package inventory

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// MovementRecorder registra movimientos manuales de stock (in/out). Cada movimiento produce
// exactamente una transacción del ledger dentro de la misma transacción de BD.
type MovementRecorder struct {
	runner    TxRunner
	ledger    *StockLedger
	alerts    *AlertEngine
	movements repository.InventoryMovementRepository
	log       zerolog.Logger
	now       func() time.Time
}

// NewMovementRecorder construye el caso de uso. movements se usa para las lecturas.
func NewMovementRecorder(
	runner TxRunner,
	ledger *StockLedger,
	alerts *AlertEngine,
	movements repository.InventoryMovementRepository,
	log zerolog.Logger,
) *MovementRecorder {
	return &MovementRecorder{
		runner:    runner,
		ledger:    ledger,
		alerts:    alerts,
		movements: movements,
		log:       log.With().Str("component", "movement_recorder").Logger(),
		now:       time.Now,
	}
}

// CreateInventoryMovement valida, persiste el movimiento, aplica ±quantity al ledger y
// reevalúa alertas. Errores: ValidationError, ErrNotFound (producto o proveedor de otro tenant),
// InsufficientStockError si una salida dejaría el stock negativo.
func (uc *MovementRecorder) CreateInventoryMovement(ctx context.Context, tenantID, userID string, in dto.CreateMovementRequest) (*dto.MovementResponse, error) {
	if err := validateMovement(in); err != nil {
		return nil, err
	}

	now := uc.now()
	mov := &entity.InventoryMovement{
		ID:            uuid.New().String(),
		TenantID:      tenantID,
		ProductID:     in.ProductID,
		Quantity:      in.Quantity,
		Type:          in.Type,
		Reason:        strings.TrimSpace(in.Reason),
		Notes:         in.Notes,
		ReferenceID:   in.ReferenceID,
		ReferenceType: in.ReferenceType,
		Metadata:      in.Metadata,
		TransactionID: uuid.New().String(),
		CreatedBy:     userID,
		CreatedAt:     now,
	}
	if in.UnitCost != nil {
		mov.UnitCost = decimal.NewNullDecimal(*in.UnitCost)
	}

	var (
		txn   *entity.InventoryTransaction
		alert *entity.InventoryAlert
	)
	// Inicia transacción; Commit si todo ok, Rollback si algo falla (TxRunner.Run lo hace)
	err := uc.runner.Run(ctx, func(tx Tx) error {
		product, err := tx.Products().GetByID(ctx, tenantID, in.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		if mov.ReferenceType == entity.ReferenceTypeSupplier {
			supplier, err := tx.Suppliers().GetByID(ctx, tenantID, mov.ReferenceID)
			if err != nil {
				return err
			}
			if supplier == nil {
				return domain.ErrNotFound
			}
		}
		if err := tx.Movements().Create(ctx, mov); err != nil {
			return err
		}
		txn, err = uc.ledger.Append(ctx, tx, LedgerEntry{
			ID:              mov.TransactionID,
			TenantID:        tenantID,
			ProductID:       mov.ProductID,
			Delta:           mov.Delta(),
			TransactionType: mov.TransactionType(),
			ReferenceID:     mov.ID,
			UnitCost:        mov.UnitCost,
			CreatedBy:       userID,
		})
		if err != nil {
			return err
		}
		alert = uc.alerts.reevaluateBestEffort(ctx, tx, tenantID, mov.ProductID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("tenant_id", tenantID).
		Str("product_id", mov.ProductID).
		Str("type", mov.Type).
		Int64("quantity", mov.Quantity).
		Int64("balance_after", txn.BalanceAfter).
		Msg("movimiento registrado")

	out := toMovementResponse(mov)
	out.BalanceAfter = &txn.BalanceAfter
	if alert != nil {
		out.Alerts = []dto.AlertResponse{toAlertResponse(alert)}
	}
	return out, nil
}

func validateMovement(in dto.CreateMovementRequest) error {
	verr := &domain.ValidationError{}
	if err := dto.Validate(in); err != nil {
		var ok bool
		if verr, ok = err.(*domain.ValidationError); !ok {
			return err
		}
	}
	if in.Reason != "" && strings.TrimSpace(in.Reason) == "" {
		verr.Add("reason", "es requerido")
	}
	if in.UnitCost != nil {
		if in.Type == entity.MovementTypeOUT {
			verr.Add("unit_cost", "solo aplica a entradas")
		} else if in.UnitCost.IsNegative() {
			verr.Add("unit_cost", "no puede ser negativo")
		}
	}
	if in.ReferenceType == entity.ReferenceTypeSupplier && in.ReferenceID == "" {
		verr.Add("reference_id", "es requerido cuando reference_type es supplier")
	}
	if len(in.Metadata) > 0 && !json.Valid(in.Metadata) {
		verr.Add("metadata", "debe ser JSON válido")
	}
	return verr.OrNil()
}

// GetInventoryMovementByID obtiene un movimiento del tenant.
func (uc *MovementRecorder) GetInventoryMovementByID(ctx context.Context, tenantID, id string) (*dto.MovementResponse, error) {
	m, err := uc.movements.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	return toMovementResponse(m), nil
}

// GetInventoryMovements lista movimientos filtrados, más recientes primero.
func (uc *MovementRecorder) GetInventoryMovements(ctx context.Context, tenantID string, filter repository.MovementFilter, limit, offset int) (*dto.MovementListResponse, error) {
	if filter.Type != "" && filter.Type != entity.MovementTypeIN && filter.Type != entity.MovementTypeOUT {
		return nil, domain.NewValidationError("type", "debe ser uno de: in out")
	}
	list, err := uc.movements.List(ctx, tenantID, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, *toMovementResponse(m))
	}
	return &dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}
