package inventory

import (
	"math"

	"github.com/jhoicas/inventory-ledger/internal/domain"
)

// ApplyDelta devuelve el nuevo saldo tras aplicar delta. Si quedaría negativo
// retorna *domain.InsufficientStockError con el faltante del producto; si excede
// el rango de int64 retorna *domain.ValidationError sobre quantity.
func ApplyDelta(productID string, current, delta int64) (int64, error) {
	if delta > 0 && current > math.MaxInt64-delta {
		return current, domain.NewValidationError("quantity", "el saldo resultante excede el máximo permitido")
	}
	if delta == math.MinInt64 {
		return current, domain.NewValidationError("quantity", "cantidad fuera de rango")
	}
	next := current + delta
	if next < 0 {
		return current, &domain.InsufficientStockError{Items: []domain.StockShortfall{
			{ProductID: productID, Required: -delta, Available: current},
		}}
	}
	return next, nil
}
