package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ repository.ServiceProductRepository = (*ServiceProductRepo)(nil)

// ServiceProductRepo lista de materiales por servicio.
type ServiceProductRepo struct {
	q Querier
}

// NewServiceProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewServiceProductRepository(q Querier) *ServiceProductRepo {
	return &ServiceProductRepo{q: q}
}

// Create agrega un producto al servicio. ErrDuplicate si el producto ya estaba en la lista.
func (r *ServiceProductRepo) Create(ctx context.Context, l *entity.ServiceProductLink) error {
	query := `
		INSERT INTO service_products (id, tenant_id, service_id, product_id, quantity, optional, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.TenantID, l.ServiceID, l.ProductID, l.Quantity, l.Optional, jsonParam(l.Metadata), l.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert service product: %w", err)
	}
	return nil
}

// ListByService devuelve la lista de materiales ordenada por producto.
func (r *ServiceProductRepo) ListByService(ctx context.Context, tenantID, serviceID string) ([]*entity.ServiceProductLink, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, tenant_id, service_id, product_id, quantity, optional, metadata, created_at
		FROM service_products WHERE tenant_id = $1 AND service_id = $2
		ORDER BY product_id`, tenantID, serviceID)
	if err != nil {
		return nil, fmt.Errorf("list service products: %w", err)
	}
	defer rows.Close()
	var list []*entity.ServiceProductLink
	for rows.Next() {
		var l entity.ServiceProductLink
		var metadata []byte
		if err := rows.Scan(&l.ID, &l.TenantID, &l.ServiceID, &l.ProductID, &l.Quantity, &l.Optional, &metadata, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan service product: %w", err)
		}
		l.Metadata = metadata
		list = append(list, &l)
	}
	return list, rows.Err()
}
