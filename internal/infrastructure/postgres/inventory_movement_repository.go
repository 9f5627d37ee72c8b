package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

// InventoryMovementRepo implementación sobre PostgreSQL (usable con pool o tx).
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

const movementColumns = `id, tenant_id, product_id, quantity, type, reason, notes, reference_id,
	reference_type, unit_cost, metadata, transaction_id, created_by, created_at`

// Create persiste un movimiento de inventario.
func (r *InventoryMovementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `INSERT INTO inventory_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.TenantID, m.ProductID, m.Quantity, m.Type, m.Reason, m.Notes, m.ReferenceID,
		m.ReferenceType, m.UnitCost, jsonParam(m.Metadata), m.TransactionID, m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create inventory movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento del tenant.
func (r *InventoryMovementRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.InventoryMovement, error) {
	if !isUUID(id) {
		return nil, nil
	}
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE tenant_id = $1 AND id = $2`
	m, err := scanMovement(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// List lista movimientos filtrados por producto y tipo, más recientes primero.
func (r *InventoryMovementRepo) List(ctx context.Context, tenantID string, f repository.MovementFilter, limit, offset int) ([]*entity.InventoryMovement, error) {
	w := &whereBuilder{}
	w.add("tenant_id = $%d", tenantID)
	if f.ProductID != "" {
		w.add("product_id = $%d", f.ProductID)
	}
	if f.Type != "" {
		w.add("type = $%d", f.Type)
	}
	query, args := w.page(`SELECT `+movementColumns+` FROM inventory_movements`, "created_at DESC, id DESC", limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.InventoryMovement, error) {
	var m entity.InventoryMovement
	var metadata []byte
	if err := row.Scan(
		&m.ID, &m.TenantID, &m.ProductID, &m.Quantity, &m.Type, &m.Reason, &m.Notes, &m.ReferenceID,
		&m.ReferenceType, &m.UnitCost, &metadata, &m.TransactionID, &m.CreatedBy, &m.CreatedAt,
	); err != nil {
		return nil, err
	}
	m.Metadata = metadata
	return &m, nil
}
