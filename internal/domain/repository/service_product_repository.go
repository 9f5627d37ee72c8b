package repository

import (
	"context"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// ServiceProductRepository puerto para la lista de materiales de los servicios.
type ServiceProductRepository interface {
	// Create devuelve domain.ErrDuplicate si el producto ya está en la lista del servicio.
	Create(ctx context.Context, link *entity.ServiceProductLink) error
	ListByService(ctx context.Context, tenantID, serviceID string) ([]*entity.ServiceProductLink, error)
}
