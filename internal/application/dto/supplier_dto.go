package dto

import (
	"encoding/json"
	"time"
)

// CreateSupplierRequest entrada para crear un proveedor.
type CreateSupplierRequest struct {
	Name          string          `json:"name" validate:"required,min=1,max=200"`
	ContactPerson string          `json:"contact_person,omitempty" validate:"max=200"`
	Email         string          `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone         string          `json:"phone,omitempty" validate:"max=50"`
	Address       string          `json:"address,omitempty" validate:"max=500"`
	Metadata      json.RawMessage `json:"metadata,omitempty" swaggertype:"object"`
}

// SupplierResponse salida de un proveedor.
type SupplierResponse struct {
	ID            string          `json:"id"`
	TenantID      string          `json:"tenant_id"`
	Name          string          `json:"name"`
	ContactPerson string          `json:"contact_person,omitempty"`
	Email         string          `json:"email,omitempty"`
	Phone         string          `json:"phone,omitempty"`
	Address       string          `json:"address,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty" swaggertype:"object"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// SupplierListResponse lista paginada de proveedores.
type SupplierListResponse struct {
	Items []SupplierResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
