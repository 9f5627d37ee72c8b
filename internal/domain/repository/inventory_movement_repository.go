package repository

import (
	"context"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// InventoryMovementRepository define el puerto de persistencia para movimientos de inventario.
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.InventoryMovement, error)
	List(ctx context.Context, tenantID string, filter MovementFilter, limit, offset int) ([]*entity.InventoryMovement, error)
}
