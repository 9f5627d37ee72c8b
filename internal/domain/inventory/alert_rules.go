package inventory

import (
	"time"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// Thresholds umbrales configurados en el producto. Un valor <= 0 desactiva su regla.
type Thresholds struct {
	LowStock     int64
	ReorderPoint int64
}

// ThresholdsOf extrae los umbrales del producto.
func ThresholdsOf(p *entity.Product) Thresholds {
	if p == nil {
		return Thresholds{}
	}
	return Thresholds{LowStock: p.LowStockThreshold, ReorderPoint: p.ReorderPoint}
}

// EvaluateAlert determina el tipo de alerta para el stock dado.
// out_of_stock (stock == 0) tiene precedencia sobre low_stock, y éste sobre reorder_point.
// Devuelve "" si no corresponde ninguna alerta.
func EvaluateAlert(stock int64, t Thresholds) string {
	switch {
	case stock <= 0:
		return entity.AlertTypeOutOfStock
	case t.LowStock > 0 && stock <= t.LowStock:
		return entity.AlertTypeLowStock
	case t.ReorderPoint > 0 && stock <= t.ReorderPoint:
		return entity.AlertTypeReorderPoint
	}
	return ""
}

// AcknowledgeAlert marca la alerta como reconocida. Reconocer de nuevo no es error:
// se conservan el primer AcknowledgedBy y AcknowledgedAt, y las notas solo se
// reemplazan si las nuevas no están vacías. Devuelve true si hubo cambios.
func AcknowledgeAlert(a *entity.InventoryAlert, by, notes string, at time.Time) bool {
	if a.IsAcknowledged {
		if notes == "" || notes == a.AcknowledgedNotes {
			return false
		}
		a.AcknowledgedNotes = notes
		a.UpdatedAt = at
		return true
	}
	a.IsAcknowledged = true
	a.AcknowledgedBy = by
	a.AcknowledgedNotes = notes
	a.AcknowledgedAt = &at
	a.UpdatedAt = at
	return true
}
