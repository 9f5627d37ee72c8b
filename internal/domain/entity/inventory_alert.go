package entity

import "time"

// Tipos de alerta, en orden de precedencia.
const (
	AlertTypeOutOfStock   = "out_of_stock"
	AlertTypeLowStock     = "low_stock"
	AlertTypeReorderPoint = "reorder_point"
)

// IsValidAlertType indica si t es un tipo de alerta conocido.
func IsValidAlertType(t string) bool {
	return t == AlertTypeOutOfStock || t == AlertTypeLowStock || t == AlertTypeReorderPoint
}

// InventoryAlert señal derivada del stock. Como máximo existe una alerta sin reconocer
// por (tenant, producto, tipo).
type InventoryAlert struct {
	ID                string
	TenantID          string
	ProductID         string
	AlertType         string
	Message           string
	CurrentStock      int64
	IsAcknowledged    bool
	AcknowledgedBy    string
	AcknowledgedNotes string
	AcknowledgedAt    *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
