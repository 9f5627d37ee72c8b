package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de transacción del ledger.
const (
	TransactionTypeMovementIn  = "movement_in"
	TransactionTypeMovementOut = "movement_out"
	TransactionTypeTransferOut = "transfer_out"
	TransactionTypeTransferIn  = "transfer_in"
	TransactionTypeDeduction   = "deduction"
)

// IsValidTransactionType indica si t es un tipo de transacción conocido.
func IsValidTransactionType(t string) bool {
	switch t {
	case TransactionTypeMovementIn, TransactionTypeMovementOut,
		TransactionTypeTransferOut, TransactionTypeTransferIn, TransactionTypeDeduction:
		return true
	}
	return false
}

// InventoryTransaction fila inmutable del ledger. Nunca se actualiza ni se borra;
// las correcciones son transacciones nuevas de signo contrario.
type InventoryTransaction struct {
	ID              string
	TenantID        string
	ProductID       string
	QuantityDelta   int64 // positivo = entrada
	TransactionType string
	ReferenceID     string // movimiento, traslado o servicio que la originó
	LocationID      string // solo en traslados
	UnitCost        decimal.Decimal
	BalanceAfter    int64
	CreatedBy       string
	CreatedAt       time.Time
}
