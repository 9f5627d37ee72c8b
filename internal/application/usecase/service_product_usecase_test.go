package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/application/usecase"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/testutil"
)

func TestServiceProductUseCase_AddYList(t *testing.T) {
	store := testutil.NewStore()
	store.SeedProduct(tenantA, "A", 0, 0)
	store.SeedProduct(tenantA, "B", 0, 0)
	uc := usecase.NewServiceProductUseCase(store.ServiceProducts(), store.Products())
	ctx := context.Background()

	_, err := uc.Add(ctx, tenantA, "svc-1", dto.AddServiceProductRequest{ProductID: "B", Quantity: 2, Optional: true})
	require.NoError(t, err)
	out, err := uc.Add(ctx, tenantA, "svc-1", dto.AddServiceProductRequest{ProductID: "A", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, "svc-1", out.ServiceID)

	list, err := uc.List(ctx, tenantA, "svc-1")
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "A", list.Items[0].ProductID)
	assert.True(t, list.Items[1].Optional)

	list, err = uc.List(ctx, tenantB, "svc-1")
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestServiceProductUseCase_Errores(t *testing.T) {
	store := testutil.NewStore()
	store.SeedProduct(tenantA, "A", 0, 0)
	uc := usecase.NewServiceProductUseCase(store.ServiceProducts(), store.Products())
	ctx := context.Background()

	_, err := uc.Add(ctx, tenantA, "svc-1", dto.AddServiceProductRequest{ProductID: "A", Quantity: 1})
	require.NoError(t, err)

	_, err = uc.Add(ctx, tenantA, "svc-1", dto.AddServiceProductRequest{ProductID: "A", Quantity: 5})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.Add(ctx, tenantB, "svc-1", dto.AddServiceProductRequest{ProductID: "A", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound, "el producto es de otro tenant")

	_, err = uc.Add(ctx, tenantA, "svc-1", dto.AddServiceProductRequest{ProductID: "A", Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Add(ctx, tenantA, "", dto.AddServiceProductRequest{ProductID: "A", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
