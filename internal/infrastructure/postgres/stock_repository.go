package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ repository.StockLedgerRepository = (*StockLedgerRepo)(nil)

// StockLedgerRepo saldos materializados y transacciones del ledger (usable con pool o tx).
type StockLedgerRepo struct {
	q Querier
}

// NewStockLedgerRepository construye el adaptador del ledger. Pasar pool o tx (Querier).
func NewStockLedgerRepository(q Querier) *StockLedgerRepo {
	return &StockLedgerRepo{q: q}
}

const transactionColumns = `id, tenant_id, product_id, quantity_delta, transaction_type, reference_id,
	location_id, unit_cost, balance_after, created_by, created_at`

// GetBalanceForUpdate crea la fila de saldo en 0 si no existe y la bloquea (SELECT FOR UPDATE).
func (r *StockLedgerRepo) GetBalanceForUpdate(ctx context.Context, tenantID, productID string) (*entity.StockBalance, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_balances (tenant_id, product_id, quantity, average_cost, updated_at)
		VALUES ($1, $2, 0, 0, now())
		ON CONFLICT (tenant_id, product_id) DO NOTHING`, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("ensure stock balance: %w", err)
	}
	query := `
		SELECT tenant_id, product_id, quantity, average_cost, updated_at
		FROM stock_balances WHERE tenant_id = $1 AND product_id = $2
		FOR UPDATE`
	var b entity.StockBalance
	if err := r.q.QueryRow(ctx, query, tenantID, productID).Scan(
		&b.TenantID, &b.ProductID, &b.Quantity, &b.AverageCost, &b.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("get stock balance for update: %w", err)
	}
	return &b, nil
}

// GetBalance obtiene el saldo sin bloquear; un producto sin fila tiene stock 0.
func (r *StockLedgerRepo) GetBalance(ctx context.Context, tenantID, productID string) (*entity.StockBalance, error) {
	query := `
		SELECT tenant_id, product_id, quantity, average_cost, updated_at
		FROM stock_balances WHERE tenant_id = $1 AND product_id = $2`
	var b entity.StockBalance
	err := r.q.QueryRow(ctx, query, tenantID, productID).Scan(
		&b.TenantID, &b.ProductID, &b.Quantity, &b.AverageCost, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockBalance{TenantID: tenantID, ProductID: productID, AverageCost: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get stock balance: %w", err)
	}
	return &b, nil
}

// SaveBalance actualiza cantidad y costo promedio. El CHECK quantity >= 0 se traduce a ErrInsufficientStock.
func (r *StockLedgerRepo) SaveBalance(ctx context.Context, b *entity.StockBalance) error {
	query := `
		UPDATE stock_balances SET quantity = $3, average_cost = $4, updated_at = $5
		WHERE tenant_id = $1 AND product_id = $2`
	cmd, err := r.q.Exec(ctx, query, b.TenantID, b.ProductID, b.Quantity, b.AverageCost, b.UpdatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return domain.ErrInsufficientStock
		}
		return fmt.Errorf("update stock balance: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("update stock balance %s: %w", b.ProductID, domain.ErrNotFound)
	}
	return nil
}

// CreateTransaction inserta una transacción inmutable del ledger.
func (r *StockLedgerRepo) CreateTransaction(ctx context.Context, t *entity.InventoryTransaction) error {
	query := `INSERT INTO inventory_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.TenantID, t.ProductID, t.QuantityDelta, t.TransactionType, t.ReferenceID,
		t.LocationID, t.UnitCost, t.BalanceAfter, t.CreatedBy, t.CreatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isCheckViolation(err):
			return domain.ErrInsufficientStock
		}
		return fmt.Errorf("insert inventory transaction: %w", err)
	}
	return nil
}

// GetTransactionByID obtiene una transacción del tenant.
func (r *StockLedgerRepo) GetTransactionByID(ctx context.Context, tenantID, id string) (*entity.InventoryTransaction, error) {
	if !isUUID(id) {
		return nil, nil
	}
	query := `SELECT ` + transactionColumns + ` FROM inventory_transactions WHERE tenant_id = $1 AND id = $2`
	t, err := scanTransaction(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory transaction: %w", err)
	}
	return t, nil
}

// ListTransactions lista transacciones, más recientes primero.
func (r *StockLedgerRepo) ListTransactions(ctx context.Context, tenantID string, f repository.TransactionFilter, limit, offset int) ([]*entity.InventoryTransaction, error) {
	w := &whereBuilder{}
	w.add("tenant_id = $%d", tenantID)
	if f.ProductID != "" {
		w.add("product_id = $%d", f.ProductID)
	}
	if f.TransactionType != "" {
		w.add("transaction_type = $%d", f.TransactionType)
	}
	query, args := w.page(`SELECT `+transactionColumns+` FROM inventory_transactions`, "created_at DESC, id DESC", limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory transactions: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory transaction: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// SumDeltas suma de quantity_delta del producto; debe coincidir con el saldo materializado.
func (r *StockLedgerRepo) SumDeltas(ctx context.Context, tenantID, productID string) (int64, error) {
	var sum int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity_delta), 0)::BIGINT
		FROM inventory_transactions WHERE tenant_id = $1 AND product_id = $2`,
		tenantID, productID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum inventory transactions: %w", err)
	}
	return sum, nil
}

func scanTransaction(row pgx.Row) (*entity.InventoryTransaction, error) {
	var t entity.InventoryTransaction
	if err := row.Scan(
		&t.ID, &t.TenantID, &t.ProductID, &t.QuantityDelta, &t.TransactionType, &t.ReferenceID,
		&t.LocationID, &t.UnitCost, &t.BalanceAfter, &t.CreatedBy, &t.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}
