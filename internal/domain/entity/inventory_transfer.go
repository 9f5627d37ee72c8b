package entity

import (
	"encoding/json"
	"time"
)

// Estados de un traslado.
const (
	TransferStatusPending    = "pending"
	TransferStatusInProgress = "in_progress"
	TransferStatusCompleted  = "completed"
	TransferStatusCancelled  = "cancelled"
)

// InventoryTransfer traslado de un producto entre dos ubicaciones. Sus dos transacciones
// (transfer_out y transfer_in) comparten el ID del traslado como ReferenceID.
type InventoryTransfer struct {
	ID             string
	TenantID       string
	ProductID      string
	FromLocationID string
	ToLocationID   string
	Quantity       int64
	Reason         string
	Notes          string
	Status         string
	Metadata       json.RawMessage
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
