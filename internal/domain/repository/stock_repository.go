package repository

import (
	"context"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// StockLedgerRepository puerto del ledger: saldo materializado por producto y transacciones inmutables.
// Las escrituras se usan dentro de una transacción para garantizar consistencia.
type StockLedgerRepository interface {
	// GetBalanceForUpdate obtiene el saldo y bloquea la fila (SELECT FOR UPDATE). Si no existe la crea en 0.
	GetBalanceForUpdate(ctx context.Context, tenantID, productID string) (*entity.StockBalance, error)
	// GetBalance lee el saldo sin bloquear. Si no existe devuelve saldo 0.
	GetBalance(ctx context.Context, tenantID, productID string) (*entity.StockBalance, error)
	SaveBalance(ctx context.Context, balance *entity.StockBalance) error
	CreateTransaction(ctx context.Context, txn *entity.InventoryTransaction) error
	GetTransactionByID(ctx context.Context, tenantID, id string) (*entity.InventoryTransaction, error)
	ListTransactions(ctx context.Context, tenantID string, filter TransactionFilter, limit, offset int) ([]*entity.InventoryTransaction, error)
	// SumDeltas recalcula el stock sumando los deltas de todas las transacciones del producto.
	SumDeltas(ctx context.Context, tenantID, productID string) (int64, error)
}
