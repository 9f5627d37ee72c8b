package repository

// TransactionFilter filtros opcionales para listar transacciones del ledger.
type TransactionFilter struct {
	ProductID       string
	TransactionType string
}

// MovementFilter filtros opcionales para listar movimientos.
type MovementFilter struct {
	ProductID string
	Type      string
}

// TransferFilter filtros opcionales para listar traslados.
type TransferFilter struct {
	ProductID string
	Status    string
}

// AlertFilter filtros opcionales para listar alertas. IsAcknowledged nil = sin filtro.
type AlertFilter struct {
	ProductID      string
	AlertType      string
	IsAcknowledged *bool
}
