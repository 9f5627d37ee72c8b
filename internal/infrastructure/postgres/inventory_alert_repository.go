package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ repository.InventoryAlertRepository = (*InventoryAlertRepo)(nil)

// InventoryAlertRepo alertas de stock (usable con pool o tx).
// El índice único parcial ux_inventory_alerts_open garantiza una sola alerta abierta por (producto, tipo).
type InventoryAlertRepo struct {
	q Querier
}

// NewInventoryAlertRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryAlertRepository(q Querier) *InventoryAlertRepo {
	return &InventoryAlertRepo{q: q}
}

const alertColumns = `id, tenant_id, product_id, alert_type, message, current_stock, is_acknowledged,
	acknowledged_by, acknowledged_notes, acknowledged_at, created_at, updated_at`

// Upsert crea la alerta o actualiza la abierta del mismo tipo. Completa ID y fechas en a.
// Devuelve true si la fila es nueva.
func (r *InventoryAlertRepo) Upsert(ctx context.Context, a *entity.InventoryAlert) (bool, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	query := `
		INSERT INTO inventory_alerts (id, tenant_id, product_id, alert_type, message, current_stock, is_acknowledged, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, false, $7, $8)
		ON CONFLICT (tenant_id, product_id, alert_type) WHERE is_acknowledged = false
		DO UPDATE SET message = EXCLUDED.message, current_stock = EXCLUDED.current_stock, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at, (xmax = 0) AS inserted`
	var inserted bool
	err := r.q.QueryRow(ctx, query,
		a.ID, a.TenantID, a.ProductID, a.AlertType, a.Message, a.CurrentStock, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt, &inserted)
	if err != nil {
		return false, fmt.Errorf("upsert inventory alert: %w", err)
	}
	return inserted, nil
}

// GetByID obtiene una alerta del tenant.
func (r *InventoryAlertRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.InventoryAlert, error) {
	return r.get(ctx, `SELECT `+alertColumns+` FROM inventory_alerts WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

// GetByIDForUpdate obtiene la alerta bloqueando la fila (para reconocerla).
func (r *InventoryAlertRepo) GetByIDForUpdate(ctx context.Context, tenantID, id string) (*entity.InventoryAlert, error) {
	return r.get(ctx, `SELECT `+alertColumns+` FROM inventory_alerts WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, id)
}

func (r *InventoryAlertRepo) get(ctx context.Context, query, tenantID, id string) (*entity.InventoryAlert, error) {
	if !isUUID(id) {
		return nil, nil
	}
	a, err := scanAlert(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory alert: %w", err)
	}
	return a, nil
}

// Acknowledge persiste los campos de reconocimiento.
func (r *InventoryAlertRepo) Acknowledge(ctx context.Context, a *entity.InventoryAlert) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE inventory_alerts
		SET is_acknowledged = $3, acknowledged_by = $4, acknowledged_notes = $5, acknowledged_at = $6, updated_at = $7
		WHERE tenant_id = $1 AND id = $2`,
		a.TenantID, a.ID, a.IsAcknowledged, a.AcknowledgedBy, a.AcknowledgedNotes, a.AcknowledgedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("acknowledge inventory alert: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista alertas filtradas, más recientes primero.
func (r *InventoryAlertRepo) List(ctx context.Context, tenantID string, f repository.AlertFilter, limit, offset int) ([]*entity.InventoryAlert, error) {
	w := &whereBuilder{}
	w.add("tenant_id = $%d", tenantID)
	if f.ProductID != "" {
		w.add("product_id = $%d", f.ProductID)
	}
	if f.AlertType != "" {
		w.add("alert_type = $%d", f.AlertType)
	}
	if f.IsAcknowledged != nil {
		w.add("is_acknowledged = $%d", *f.IsAcknowledged)
	}
	query, args := w.page(`SELECT `+alertColumns+` FROM inventory_alerts`, "created_at DESC, id DESC", limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory alerts: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory alert: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// CountOpenByType cuenta las alertas sin reconocer agrupadas por tipo.
func (r *InventoryAlertRepo) CountOpenByType(ctx context.Context, tenantID string) (map[string]int64, error) {
	rows, err := r.q.Query(ctx, `
		SELECT alert_type, COUNT(*) FROM inventory_alerts
		WHERE tenant_id = $1 AND is_acknowledged = false
		GROUP BY alert_type`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("count open alerts: %w", err)
	}
	defer rows.Close()
	out := map[string]int64{}
	for rows.Next() {
		var alertType string
		var n int64
		if err := rows.Scan(&alertType, &n); err != nil {
			return nil, fmt.Errorf("scan alert count: %w", err)
		}
		out[alertType] = n
	}
	return out, rows.Err()
}

func scanAlert(row pgx.Row) (*entity.InventoryAlert, error) {
	var a entity.InventoryAlert
	if err := row.Scan(
		&a.ID, &a.TenantID, &a.ProductID, &a.AlertType, &a.Message, &a.CurrentStock, &a.IsAcknowledged,
		&a.AcknowledgedBy, &a.AcknowledgedNotes, &a.AcknowledgedAt, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
