package entity

import "time"

// Product producto del catálogo (propiedad de otro subsistema). El ledger solo lee su ID,
// el tenant y los umbrales que usa el motor de alertas.
type Product struct {
	ID                string
	TenantID          string
	SKU               string
	Name              string
	LowStockThreshold int64 // <= 0 desactiva la alerta low_stock
	ReorderPoint      int64 // <= 0 desactiva la alerta reorder_point
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
