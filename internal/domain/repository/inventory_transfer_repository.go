package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// InventoryTransferRepository puerto de persistencia para traslados.
type InventoryTransferRepository interface {
	Create(ctx context.Context, transfer *entity.InventoryTransfer) error
	UpdateStatus(ctx context.Context, tenantID, id, status string, updatedAt time.Time) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.InventoryTransfer, error)
	List(ctx context.Context, tenantID string, filter TransferFilter, limit, offset int) ([]*entity.InventoryTransfer, error)
}
