package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockBalance fila materializada del saldo de un producto por tenant.
// Se bloquea con SELECT FOR UPDATE durante cada append al ledger; Quantity nunca es negativa.
type StockBalance struct {
	TenantID    string
	ProductID   string
	Quantity    int64
	AverageCost decimal.Decimal // costo promedio ponderado (inicia en 0)
	UpdatedAt   time.Time
}
