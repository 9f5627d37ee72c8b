package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ repository.SupplierRepository = (*SupplierRepo)(nil)

// SupplierRepo implementación del puerto SupplierRepository sobre PostgreSQL.
type SupplierRepo struct {
	q Querier
}

// NewSupplierRepository construye el adaptador de persistencia para proveedores.
func NewSupplierRepository(q Querier) *SupplierRepo {
	return &SupplierRepo{q: q}
}

// Create persiste un nuevo proveedor.
func (r *SupplierRepo) Create(ctx context.Context, s *entity.Supplier) error {
	query := `
		INSERT INTO suppliers (id, tenant_id, name, contact_person, email, phone, address, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.TenantID, s.Name, s.ContactPerson, s.Email, s.Phone, s.Address,
		jsonParam(s.Metadata), s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert supplier: %w", err)
	}
	return nil
}

// GetByID obtiene un proveedor del tenant.
func (r *SupplierRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Supplier, error) {
	if !isUUID(id) {
		return nil, nil
	}
	query := `
		SELECT id, tenant_id, name, contact_person, email, phone, address, metadata, created_at, updated_at
		FROM suppliers WHERE tenant_id = $1 AND id = $2`
	s, err := scanSupplier(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	return s, nil
}

// ListByTenant lista proveedores por tenant con paginación.
func (r *SupplierRepo) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Supplier, error) {
	query := `
		SELECT id, tenant_id, name, contact_person, email, phone, address, metadata, created_at, updated_at
		FROM suppliers WHERE tenant_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func scanSupplier(row pgx.Row) (*entity.Supplier, error) {
	var s entity.Supplier
	var metadata []byte
	if err := row.Scan(
		&s.ID, &s.TenantID, &s.Name, &s.ContactPerson, &s.Email, &s.Phone, &s.Address,
		&metadata, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.Metadata = metadata
	return &s, nil
}
