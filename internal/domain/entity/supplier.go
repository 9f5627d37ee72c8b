package entity

import (
	"encoding/json"
	"time"
)

// Supplier proveedor (dato de referencia por tenant).
type Supplier struct {
	ID            string
	TenantID      string
	Name          string
	ContactPerson string
	Email         string
	Phone         string
	Address       string
	Metadata      json.RawMessage
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
