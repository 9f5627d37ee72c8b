package repository

import (
	"context"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// InventoryAlertRepository puerto de persistencia para alertas.
type InventoryAlertRepository interface {
	// Upsert inserta la alerta o, si ya existe una sin reconocer del mismo (producto, tipo),
	// actualiza su mensaje y stock en el lugar. Devuelve true si la fila es nueva.
	// En ambos casos completa ID y fechas de alert con los valores persistidos.
	Upsert(ctx context.Context, alert *entity.InventoryAlert) (bool, error)
	GetByID(ctx context.Context, tenantID, id string) (*entity.InventoryAlert, error)
	// GetByIDForUpdate igual que GetByID pero bloquea la fila hasta el fin de la transacción.
	GetByIDForUpdate(ctx context.Context, tenantID, id string) (*entity.InventoryAlert, error)
	// Acknowledge persiste los campos de reconocimiento de la alerta.
	Acknowledge(ctx context.Context, alert *entity.InventoryAlert) error
	List(ctx context.Context, tenantID string, filter AlertFilter, limit, offset int) ([]*entity.InventoryAlert, error)
	// CountOpenByType cuenta alertas sin reconocer agrupadas por tipo.
	CountOpenByType(ctx context.Context, tenantID string) (map[string]int64, error)
}
