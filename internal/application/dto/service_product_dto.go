package dto

import (
	"encoding/json"
	"time"
)

// AddServiceProductRequest agrega un producto a la lista de materiales de un servicio.
type AddServiceProductRequest struct {
	ProductID string          `json:"product_id" validate:"required,max=64"`
	Quantity  int64           `json:"quantity" validate:"gt=0,max=1000000000000"`
	Optional  bool            `json:"optional"`
	Metadata  json.RawMessage `json:"metadata,omitempty" swaggertype:"object"`
}

// ServiceProductResponse línea de la lista de materiales.
type ServiceProductResponse struct {
	ID        string          `json:"id"`
	ServiceID string          `json:"service_id"`
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	Optional  bool            `json:"optional"`
	Metadata  json.RawMessage `json:"metadata,omitempty" swaggertype:"object"`
	CreatedAt time.Time       `json:"created_at"`
}

// ServiceProductListResponse lista de materiales de un servicio.
type ServiceProductListResponse struct {
	ServiceID string                   `json:"service_id"`
	Items     []ServiceProductResponse `json:"items"`
}
