package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// Tx repositorios atados a una misma transacción de BD.
type Tx interface {
	Ledger() repository.StockLedgerRepository
	Movements() repository.InventoryMovementRepository
	Transfers() repository.InventoryTransferRepository
	Alerts() repository.InventoryAlertRepository
	Products() repository.ProductRepository
	Suppliers() repository.SupplierRepository
	// Savepoint ejecuta fn en una subtransacción: si fn falla solo se deshace lo hecho en ella.
	Savepoint(ctx context.Context, fn func(Tx) error) error
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback de todo; si no, Commit. Garantiza atomicidad para el motor de inventario.
type TxRunner interface {
	Run(ctx context.Context, fn func(tx Tx) error) error
}

// IdempotencyStore reserva claves de idempotencia por un tiempo limitado.
type IdempotencyStore interface {
	// Reserve devuelve false si la clave ya estaba reservada.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
