package inventory

import "github.com/shopspring/decimal"

// costScale decimales con que se guarda el costo promedio.
const costScale = 4

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func CostCalculator(stockActual int64, costoActual decimal.Decimal, cantEntrada int64, costoEntrada decimal.Decimal) decimal.Decimal {
	if stockActual < 0 {
		stockActual = 0
	}
	sum := stockActual + cantEntrada
	if sum <= 0 {
		return decimal.Zero
	}
	stock := decimal.NewFromInt(stockActual)
	entrada := decimal.NewFromInt(cantEntrada)
	num := stock.Mul(costoActual).Add(entrada.Mul(costoEntrada))
	return num.DivRound(decimal.NewFromInt(sum), costScale)
}
