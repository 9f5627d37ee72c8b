package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento manual.
const (
	MovementTypeIN  = "in"  // entrada
	MovementTypeOUT = "out" // salida
)

// ReferenceTypeSupplier referencia a un proveedor del mismo tenant (procedencia de la entrada).
const ReferenceTypeSupplier = "supplier"

// InventoryMovement ajuste manual de stock. Produce exactamente una InventoryTransaction.
type InventoryMovement struct {
	ID            string
	TenantID      string
	ProductID     string
	Quantity      int64 // siempre positiva; el signo lo da Type
	Type          string
	Reason        string
	Notes         string
	ReferenceID   string
	ReferenceType string
	UnitCost      decimal.NullDecimal // solo entradas
	Metadata      json.RawMessage
	TransactionID string
	CreatedBy     string
	CreatedAt     time.Time
}

// Delta cantidad con signo que el movimiento aplica al ledger.
func (m *InventoryMovement) Delta() int64 {
	if m.Type == MovementTypeOUT {
		return -m.Quantity
	}
	return m.Quantity
}

// TransactionType tipo de transacción de ledger que corresponde al movimiento.
func (m *InventoryMovement) TransactionType() string {
	if m.Type == MovementTypeOUT {
		return TransactionTypeMovementOut
	}
	return TransactionTypeMovementIn
}
