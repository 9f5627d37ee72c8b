package inventory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// ServiceDeductionEngine descuenta del stock la lista de materiales de un servicio completado.
// Todo o nada: si falta stock de cualquier producto no se escribe ninguna transacción y se
// devuelven todos los faltantes.
type ServiceDeductionEngine struct {
	runner          TxRunner
	ledger          *StockLedger
	alerts          *AlertEngine
	serviceProducts repository.ServiceProductRepository
	idempotency     IdempotencyStore
	idempotencyTTL  time.Duration
	log             zerolog.Logger
}

// NewServiceDeductionEngine construye el motor. idempotency puede ser nil (sin Idempotency-Key).
func NewServiceDeductionEngine(
	runner TxRunner,
	ledger *StockLedger,
	alerts *AlertEngine,
	serviceProducts repository.ServiceProductRepository,
	idempotency IdempotencyStore,
	idempotencyTTL time.Duration,
	log zerolog.Logger,
) *ServiceDeductionEngine {
	return &ServiceDeductionEngine{
		runner:          runner,
		ledger:          ledger,
		alerts:          alerts,
		serviceProducts: serviceProducts,
		idempotency:     idempotency,
		idempotencyTTL:  idempotencyTTL,
		log:             log.With().Str("component", "deduction_engine").Logger(),
	}
}

type deductionLine struct {
	productID string
	quantity  int64
}

// DeductInventoryForService abre una transacción, bloquea los saldos en orden de productID,
// verifica todas las líneas y solo entonces escribe una transacción "deduction" por producto
// (referenceId = serviceId). Tras el commit reevalúa las alertas de cada producto afectado.
// Con idempotencyKey no vacía, repetir la misma clave devuelve domain.ErrDuplicate.
func (e *ServiceDeductionEngine) DeductInventoryForService(ctx context.Context, tenantID, userID, idempotencyKey string, in dto.DeductionRequest) (*dto.DeductionResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}

	if idempotencyKey != "" && e.idempotency != nil {
		key := tenantID + ":" + idempotencyKey
		ok, err := e.idempotency.Reserve(ctx, key, e.idempotencyTTL)
		if err != nil {
			return nil, fmt.Errorf("reservar clave de idempotencia: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("idempotency key %q ya usada: %w", idempotencyKey, domain.ErrDuplicate)
		}
		out, err := e.deduct(ctx, tenantID, userID, in)
		if err != nil {
			// Liberar la clave para que el cliente pueda reintentar.
			if rerr := e.idempotency.Release(context.WithoutCancel(ctx), key); rerr != nil {
				e.log.Warn().Err(rerr).Str("tenant_id", tenantID).Msg("no se pudo liberar la clave de idempotencia")
			}
			return nil, err
		}
		return out, nil
	}
	return e.deduct(ctx, tenantID, userID, in)
}

func (e *ServiceDeductionEngine) deduct(ctx context.Context, tenantID, userID string, in dto.DeductionRequest) (*dto.DeductionResponse, error) {
	lines, err := e.resolveLines(ctx, tenantID, in)
	if err != nil {
		return nil, err
	}

	var txns []*entity.InventoryTransaction
	err = e.runner.Run(ctx, func(tx Tx) error {
		var shortfalls []domain.StockShortfall
		for _, l := range lines {
			product, err := tx.Products().GetByID(ctx, tenantID, l.productID)
			if err != nil {
				return err
			}
			if product == nil {
				return fmt.Errorf("producto %s: %w", l.productID, domain.ErrNotFound)
			}
			bal, err := tx.Ledger().GetBalanceForUpdate(ctx, tenantID, l.productID)
			if err != nil {
				return err
			}
			if bal.Quantity < l.quantity {
				shortfalls = append(shortfalls, domain.StockShortfall{
					ProductID: l.productID,
					Required:  l.quantity,
					Available: bal.Quantity,
				})
			}
		}
		if len(shortfalls) > 0 {
			return &domain.InsufficientStockError{Items: shortfalls}
		}
		for _, l := range lines {
			txn, err := e.ledger.Append(ctx, tx, LedgerEntry{
				TenantID:        tenantID,
				ProductID:       l.productID,
				Delta:           -l.quantity,
				TransactionType: entity.TransactionTypeDeduction,
				ReferenceID:     in.ServiceID,
				CreatedBy:       userID,
			})
			if err != nil {
				return err
			}
			txns = append(txns, txn)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := &dto.DeductionResponse{
		Success:      true,
		ServiceID:    in.ServiceID,
		Transactions: make([]dto.TransactionResponse, 0, len(txns)),
		Alerts:       []dto.AlertResponse{},
	}
	for _, t := range txns {
		out.Transactions = append(out.Transactions, toTransactionResponse(t))
	}
	for _, l := range lines {
		alert, err := e.alerts.Reevaluate(ctx, tenantID, l.productID)
		if err != nil {
			e.log.Warn().Err(err).
				Str("tenant_id", tenantID).
				Str("product_id", l.productID).
				Msg("falló la reevaluación de alertas tras la deducción")
			continue
		}
		if alert != nil {
			out.Alerts = append(out.Alerts, *alert)
		}
	}

	e.log.Info().
		Str("tenant_id", tenantID).
		Str("service_id", in.ServiceID).
		Str("user_id", userID).
		Str("notes", in.Notes).
		Int("products", len(lines)).
		Msg("inventario descontado por servicio")
	return out, nil
}

// resolveLines usa las líneas del request o, si viene vacío, la lista de materiales no opcional
// del servicio. Fusiona productos repetidos y ordena por productID (orden de bloqueo).
func (e *ServiceDeductionEngine) resolveLines(ctx context.Context, tenantID string, in dto.DeductionRequest) ([]deductionLine, error) {
	requested := in.Products
	if len(requested) == 0 {
		links, err := e.serviceProducts.ListByService(ctx, tenantID, in.ServiceID)
		if err != nil {
			return nil, err
		}
		for _, l := range links {
			if l.Optional {
				continue
			}
			requested = append(requested, dto.DeductionLine{ProductID: l.ProductID, Quantity: l.Quantity})
		}
		if len(requested) == 0 {
			return nil, domain.NewValidationError("products", "el servicio no tiene productos requeridos")
		}
	}

	merged := make(map[string]int64, len(requested))
	for i, r := range requested {
		if merged[r.ProductID] > math.MaxInt64-r.Quantity {
			return nil, domain.NewValidationError(fmt.Sprintf("products[%d].quantity", i), "la cantidad acumulada del producto excede el máximo permitido")
		}
		merged[r.ProductID] += r.Quantity
	}
	lines := make([]deductionLine, 0, len(merged))
	for id, q := range merged {
		lines = append(lines, deductionLine{productID: id, quantity: q})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].productID < lines[j].productID })
	return lines, nil
}
