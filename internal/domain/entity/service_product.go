package entity

import (
	"encoding/json"
	"time"
)

// ServiceProductLink línea de la lista de materiales de un servicio: cuánto consume
// de un producto cada ejecución del servicio.
type ServiceProductLink struct {
	ID        string
	TenantID  string
	ServiceID string
	ProductID string
	Quantity  int64
	Optional  bool
	Metadata  json.RawMessage
	CreatedAt time.Time
}
