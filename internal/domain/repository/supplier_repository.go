package repository

import (
	"context"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// SupplierRepository define el puerto de persistencia para Supplier (DIP).
type SupplierRepository interface {
	Create(ctx context.Context, supplier *entity.Supplier) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Supplier, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Supplier, error)
}
