package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ repository.InventoryTransferRepository = (*InventoryTransferRepo)(nil)

// InventoryTransferRepo traslados entre ubicaciones (usable con pool o tx).
type InventoryTransferRepo struct {
	q Querier
}

// NewInventoryTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryTransferRepository(q Querier) *InventoryTransferRepo {
	return &InventoryTransferRepo{q: q}
}

const transferColumns = `id, tenant_id, product_id, from_location_id, to_location_id, quantity,
	reason, notes, status, metadata, created_by, created_at, updated_at`

// Create persiste el traslado (normalmente en pending).
func (r *InventoryTransferRepo) Create(ctx context.Context, t *entity.InventoryTransfer) error {
	query := `INSERT INTO inventory_transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.TenantID, t.ProductID, t.FromLocationID, t.ToLocationID, t.Quantity,
		t.Reason, t.Notes, t.Status, jsonParam(t.Metadata), t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create inventory transfer: %w", err)
	}
	return nil
}

// UpdateStatus cambia el estado del traslado. ErrNotFound si no existe para el tenant.
func (r *InventoryTransferRepo) UpdateStatus(ctx context.Context, tenantID, id, status string, updatedAt time.Time) error {
	if !isUUID(id) {
		return domain.ErrNotFound
	}
	cmd, err := r.q.Exec(ctx, `
		UPDATE inventory_transfers SET status = $3, updated_at = $4
		WHERE tenant_id = $1 AND id = $2`, tenantID, id, status, updatedAt)
	if err != nil {
		return fmt.Errorf("update transfer status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID obtiene un traslado del tenant.
func (r *InventoryTransferRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.InventoryTransfer, error) {
	if !isUUID(id) {
		return nil, nil
	}
	query := `SELECT ` + transferColumns + ` FROM inventory_transfers WHERE tenant_id = $1 AND id = $2`
	t, err := scanTransfer(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	return t, nil
}

// List lista traslados filtrados, más recientes primero.
func (r *InventoryTransferRepo) List(ctx context.Context, tenantID string, f repository.TransferFilter, limit, offset int) ([]*entity.InventoryTransfer, error) {
	w := &whereBuilder{}
	w.add("tenant_id = $%d", tenantID)
	if f.ProductID != "" {
		w.add("product_id = $%d", f.ProductID)
	}
	if f.Status != "" {
		w.add("status = $%d", f.Status)
	}
	query, args := w.page(`SELECT `+transferColumns+` FROM inventory_transfers`, "created_at DESC, id DESC", limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryTransfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func scanTransfer(row pgx.Row) (*entity.InventoryTransfer, error) {
	var t entity.InventoryTransfer
	var metadata []byte
	if err := row.Scan(
		&t.ID, &t.TenantID, &t.ProductID, &t.FromLocationID, &t.ToLocationID, &t.Quantity,
		&t.Reason, &t.Notes, &t.Status, &metadata, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.Metadata = metadata
	return &t, nil
}
