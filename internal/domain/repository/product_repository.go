package repository

import (
	"context"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// ProductRepository lectura de productos del catálogo (solo lectura para el ledger).
type ProductRepository interface {
	// GetByID devuelve nil si el producto no existe o pertenece a otro tenant.
	GetByID(ctx context.Context, tenantID, id string) (*entity.Product, error)
}
