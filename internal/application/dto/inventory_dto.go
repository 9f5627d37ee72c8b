package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// CreateMovementRequest body para POST /api/inventory/movements.
type CreateMovementRequest struct {
	ProductID     string           `json:"product_id" validate:"required,max=64"`
	Quantity      int64            `json:"quantity" validate:"gt=0,max=1000000000000"`
	Type          string           `json:"type" validate:"required,oneof=in out"`
	Reason        string           `json:"reason" validate:"required,max=255"`
	Notes         string           `json:"notes,omitempty" validate:"max=2000"`
	ReferenceID   string           `json:"reference_id,omitempty" validate:"max=255"`
	ReferenceType string           `json:"reference_type,omitempty" validate:"max=50"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty" swaggertype:"string"` // solo entradas
	Metadata      json.RawMessage  `json:"metadata,omitempty" swaggertype:"object"`
}

// MovementResponse salida de un movimiento registrado.
type MovementResponse struct {
	ID            string          `json:"id"`
	TenantID      string          `json:"tenant_id"`
	ProductID     string          `json:"product_id"`
	Quantity      int64           `json:"quantity"`
	Type          string          `json:"type"`
	Reason        string          `json:"reason"`
	Notes         string          `json:"notes,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	ReferenceType string          `json:"reference_type,omitempty"`
	UnitCost      *string         `json:"unit_cost,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty" swaggertype:"object"`
	TransactionID string          `json:"transaction_id"`
	BalanceAfter  *int64          `json:"balance_after,omitempty"` // solo al crear
	Alerts        []AlertResponse `json:"alerts,omitempty"`
	CreatedBy     string          `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// TransactionResponse salida de una transacción del ledger.
type TransactionResponse struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	ProductID       string    `json:"product_id"`
	QuantityDelta   int64     `json:"quantity_delta"`
	TransactionType string    `json:"transaction_type"`
	ReferenceID     string    `json:"reference_id"`
	LocationID      string    `json:"location_id,omitempty"`
	UnitCost        string    `json:"unit_cost"`
	BalanceAfter    int64     `json:"balance_after"`
	CreatedBy       string    `json:"created_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// TransactionListResponse lista paginada de transacciones.
type TransactionListResponse struct {
	Items []TransactionResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}

// StockLevelResponse saldo de un producto: fila materializada vs suma del ledger.
type StockLevelResponse struct {
	ProductID   string    `json:"product_id"`
	Quantity    int64     `json:"quantity"`
	LedgerSum   int64     `json:"ledger_sum"`
	Consistent  bool      `json:"consistent"`
	AverageCost string    `json:"average_cost"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// CreateTransferRequest body para POST /api/inventory/transfers.
type CreateTransferRequest struct {
	ProductID      string          `json:"product_id" validate:"required,max=64"`
	FromLocationID string          `json:"from_location_id" validate:"required,max=64"`
	ToLocationID   string          `json:"to_location_id" validate:"required,max=64,nefield=FromLocationID"`
	Quantity       int64           `json:"quantity" validate:"gt=0,max=1000000000000"`
	Reason         string          `json:"reason" validate:"required,max=255"`
	Notes          string          `json:"notes,omitempty" validate:"max=2000"`
	Metadata       json.RawMessage `json:"metadata,omitempty" swaggertype:"object"`
}

// TransferResponse salida de un traslado.
type TransferResponse struct {
	ID             string          `json:"id"`
	TenantID       string          `json:"tenant_id"`
	ProductID      string          `json:"product_id"`
	FromLocationID string          `json:"from_location_id"`
	ToLocationID   string          `json:"to_location_id"`
	Quantity       int64           `json:"quantity"`
	Reason         string          `json:"reason"`
	Notes          string          `json:"notes,omitempty"`
	Status         string          `json:"status"`
	Metadata       json.RawMessage `json:"metadata,omitempty" swaggertype:"object"`
	Alerts         []AlertResponse `json:"alerts,omitempty"`
	CreatedBy      string          `json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TransferListResponse lista paginada de traslados.
type TransferListResponse struct {
	Items []TransferResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// DeductionLine producto y cantidad a descontar.
type DeductionLine struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	Quantity  int64  `json:"quantity" validate:"gt=0,max=1000000000000"`
}

// DeductionRequest body para POST /api/inventory/deductions.
// Si Products está vacío se usa la lista de materiales del servicio (líneas no opcionales).
type DeductionRequest struct {
	ServiceID string          `json:"service_id" validate:"required,max=64"`
	Products  []DeductionLine `json:"products" validate:"max=200,dive"`
	Notes     string          `json:"notes,omitempty" validate:"max=2000"`
}

// DeductionResponse resultado de una deducción exitosa.
type DeductionResponse struct {
	Success      bool                  `json:"success"`
	ServiceID    string                `json:"service_id"`
	Transactions []TransactionResponse `json:"transactions"`
	Alerts       []AlertResponse       `json:"alerts"`
}
