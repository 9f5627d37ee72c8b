package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-ledger/internal/domain"
)

func TestValidationError_EsErrInvalidInput(t *testing.T) {
	verr := domain.NewValidationError("quantity", "debe ser mayor que cero")
	verr.Add("reason", "es requerido")

	wrapped := fmt.Errorf("crear movimiento: %w", verr)
	assert.ErrorIs(t, wrapped, domain.ErrInvalidInput)

	var target *domain.ValidationError
	require.True(t, errors.As(wrapped, &target))
	assert.Len(t, target.Fields, 2)
	assert.Contains(t, verr.Error(), "quantity: debe ser mayor que cero")
}

func TestValidationError_OrNilSinCampos(t *testing.T) {
	verr := &domain.ValidationError{}
	assert.NoError(t, verr.OrNil())

	verr.Add("reason", "es requerido")
	assert.Error(t, verr.OrNil())
}

func TestInsufficientStockError_ListaTodosLosFaltantes(t *testing.T) {
	err := &domain.InsufficientStockError{Items: []domain.StockShortfall{
		{ProductID: "A", Required: 4, Available: 1},
		{ProductID: "B", Required: 20, Available: 5},
	}}
	wrapped := fmt.Errorf("deducción: %w", err)

	assert.ErrorIs(t, wrapped, domain.ErrInsufficientStock)
	assert.NotErrorIs(t, wrapped, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "B: requerido=20, disponible=5")
}
