package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// LedgerEntry una escritura en el ledger.
type LedgerEntry struct {
	ID              string // opcional; se genera si está vacío
	TenantID        string
	ProductID       string
	Delta           int64
	TransactionType string
	ReferenceID     string
	LocationID      string
	UnitCost        decimal.NullDecimal // costo de entrada; recalcula el promedio ponderado
	CreatedBy       string
}

// StockLedger fuente única de verdad del stock: transacciones inmutables más un saldo
// materializado por producto que se bloquea en cada escritura.
type StockLedger struct {
	repo     repository.StockLedgerRepository
	products repository.ProductRepository
	now      func() time.Time
}

// NewStockLedger construye el ledger. repo y products se usan para lecturas fuera de transacción.
func NewStockLedger(repo repository.StockLedgerRepository, products repository.ProductRepository) *StockLedger {
	return &StockLedger{repo: repo, products: products, now: time.Now}
}

// Append escribe una transacción dentro de la tx del caller. Bloquea el saldo del producto
// (SELECT FOR UPDATE), verifica que current+delta >= 0 y actualiza saldo y costo promedio.
// Si el stock no alcanza devuelve *domain.InsufficientStockError y el caller debe abortar la tx.
func (l *StockLedger) Append(ctx context.Context, tx Tx, e LedgerEntry) (*entity.InventoryTransaction, error) {
	if e.Delta == 0 {
		return nil, domain.NewValidationError("quantity", "debe ser distinta de cero")
	}
	if !entity.IsValidTransactionType(e.TransactionType) {
		return nil, domain.NewValidationError("transaction_type", "tipo desconocido")
	}
	bal, err := tx.Ledger().GetBalanceForUpdate(ctx, e.TenantID, e.ProductID)
	if err != nil {
		return nil, err
	}
	next, err := inventory.ApplyDelta(e.ProductID, bal.Quantity, e.Delta)
	if err != nil {
		return nil, err
	}

	unitCost := bal.AverageCost
	if e.Delta > 0 && e.UnitCost.Valid {
		unitCost = e.UnitCost.Decimal
		bal.AverageCost = inventory.CostCalculator(bal.Quantity, bal.AverageCost, e.Delta, e.UnitCost.Decimal)
	}

	now := l.now()
	bal.Quantity = next
	bal.UpdatedAt = now
	if err := tx.Ledger().SaveBalance(ctx, bal); err != nil {
		return nil, err
	}

	txn := &entity.InventoryTransaction{
		ID:              e.ID,
		TenantID:        e.TenantID,
		ProductID:       e.ProductID,
		QuantityDelta:   e.Delta,
		TransactionType: e.TransactionType,
		ReferenceID:     e.ReferenceID,
		LocationID:      e.LocationID,
		UnitCost:        unitCost,
		BalanceAfter:    next,
		CreatedBy:       e.CreatedBy,
		CreatedAt:       now,
	}
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if err := tx.Ledger().CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// CurrentStock stock actual del producto (saldo materializado).
func (l *StockLedger) CurrentStock(ctx context.Context, tenantID, productID string) (int64, error) {
	bal, err := l.repo.GetBalance(ctx, tenantID, productID)
	if err != nil {
		return 0, err
	}
	return bal.Quantity, nil
}

// GetStockLevel compara el saldo materializado con la suma de los deltas del ledger.
func (l *StockLedger) GetStockLevel(ctx context.Context, tenantID, productID string) (*dto.StockLevelResponse, error) {
	product, err := l.products.GetByID(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	bal, err := l.repo.GetBalance(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	sum, err := l.repo.SumDeltas(ctx, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("sumar ledger: %w", err)
	}
	return &dto.StockLevelResponse{
		ProductID:   productID,
		Quantity:    bal.Quantity,
		LedgerSum:   sum,
		Consistent:  bal.Quantity == sum,
		AverageCost: bal.AverageCost.StringFixed(4),
		UpdatedAt:   bal.UpdatedAt,
	}, nil
}

// GetInventoryTransactions lista transacciones del tenant, más recientes primero.
func (l *StockLedger) GetInventoryTransactions(ctx context.Context, tenantID string, filter repository.TransactionFilter, limit, offset int) (*dto.TransactionListResponse, error) {
	if filter.TransactionType != "" && !entity.IsValidTransactionType(filter.TransactionType) {
		return nil, domain.NewValidationError("transaction_type", "tipo desconocido")
	}
	list, err := l.repo.ListTransactions(ctx, tenantID, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.TransactionResponse, 0, len(list))
	for _, t := range list {
		items = append(items, toTransactionResponse(t))
	}
	return &dto.TransactionListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// GetInventoryTransactionByID obtiene una transacción; ErrNotFound si no existe o es de otro tenant.
func (l *StockLedger) GetInventoryTransactionByID(ctx context.Context, tenantID, id string) (*dto.TransactionResponse, error) {
	t, err := l.repo.GetTransactionByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	out := toTransactionResponse(t)
	return &out, nil
}
