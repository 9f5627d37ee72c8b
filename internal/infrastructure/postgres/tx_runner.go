package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewTxRunner construye el runner con el pool. timeout acota la duración de cada transacción
// (0 = sin límite): se aplica como lock_timeout/statement_timeout y al Commit.
func NewTxRunner(pool *pgxpool.Pool, timeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, timeout: timeout}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(tx inventory.Tx) error) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if r.timeout > 0 {
		ms := r.timeout.Milliseconds()
		for _, setting := range []string{"lock_timeout", "statement_timeout"} {
			if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL %s = %d", setting, ms)); err != nil {
				return fmt.Errorf("set %s: %w", setting, err)
			}
		}
	}

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// pgTx repositorios atados a una pgx.Tx (o a un savepoint de ella).
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Ledger() repository.StockLedgerRepository { return NewStockLedgerRepository(t.tx) }
func (t *pgTx) Movements() repository.InventoryMovementRepository {
	return NewInventoryMovementRepository(t.tx)
}
func (t *pgTx) Transfers() repository.InventoryTransferRepository {
	return NewInventoryTransferRepository(t.tx)
}
func (t *pgTx) Alerts() repository.InventoryAlertRepository { return NewInventoryAlertRepository(t.tx) }
func (t *pgTx) Products() repository.ProductRepository      { return NewProductRepository(t.tx) }
func (t *pgTx) Suppliers() repository.SupplierRepository    { return NewSupplierRepository(t.tx) }

// Savepoint abre una subtransacción (SAVEPOINT). Si fn falla solo se revierte hasta el savepoint.
func (t *pgTx) Savepoint(ctx context.Context, fn func(inventory.Tx) error) error {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}
	defer func() { _ = sp.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(&pgTx{tx: sp}); err != nil {
		return err
	}
	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}
