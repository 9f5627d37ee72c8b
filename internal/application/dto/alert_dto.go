package dto

import "time"

// CreateAlertRequest body para POST /api/inventory/alerts (alerta manual).
type CreateAlertRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	AlertType string `json:"alert_type" validate:"required,oneof=low_stock out_of_stock reorder_point"`
	Message   string `json:"message,omitempty" validate:"max=500"`
}

// AcknowledgeAlertRequest body para POST /api/inventory/alerts/:id/acknowledge.
type AcknowledgeAlertRequest struct {
	AcknowledgedBy    string `json:"acknowledged_by" validate:"required,max=255"`
	AcknowledgedNotes string `json:"acknowledged_notes,omitempty" validate:"max=2000"`
}

// AlertResponse salida de una alerta.
type AlertResponse struct {
	ID                string     `json:"id"`
	TenantID          string     `json:"tenant_id"`
	ProductID         string     `json:"product_id"`
	AlertType         string     `json:"alert_type"`
	Message           string     `json:"message"`
	CurrentStock      int64      `json:"current_stock"`
	IsAcknowledged    bool       `json:"is_acknowledged"`
	AcknowledgedBy    string     `json:"acknowledged_by,omitempty"`
	AcknowledgedNotes string     `json:"acknowledged_notes,omitempty"`
	AcknowledgedAt    *time.Time `json:"acknowledged_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// AlertListResponse lista paginada de alertas.
type AlertListResponse struct {
	Items []AlertResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// AlertSummaryResponse alertas sin reconocer por tipo.
type AlertSummaryResponse struct {
	OutOfStock   int64 `json:"out_of_stock"`
	LowStock     int64 `json:"low_stock"`
	ReorderPoint int64 `json:"reorder_point"`
	Total        int64 `json:"total"`
}
