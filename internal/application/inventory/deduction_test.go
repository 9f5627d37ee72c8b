package inventory_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

func seedAB(f *fixture, a, b int64) {
	f.store.SeedProduct(tenantA, "A", 0, 0)
	f.store.SeedProduct(tenantA, "B", 5, 0)
	f.store.SeedStock(tenantA, "A", a)
	f.store.SeedStock(tenantA, "B", b)
}

// Escenario: {A:4, B:20} con B=5 -> un único faltante de B y ninguna transacción.
func TestDeduct_TodoONada(t *testing.T) {
	f := newFixture(t)
	seedAB(f, 10, 5)

	_, err := f.deductions.DeductInventoryForService(context.Background(), tenantA, userID, "", dto.DeductionRequest{
		ServiceID: "svc-1",
		Products:  []dto.DeductionLine{{ProductID: "A", Quantity: 4}, {ProductID: "B", Quantity: 20}},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, []domain.StockShortfall{{ProductID: "B", Required: 20, Available: 5}}, ise.Items)

	assert.Empty(t, f.store.TransactionsByReference(tenantA, "svc-1"))
	assert.Equal(t, int64(10), f.store.Balance(tenantA, "A"), "A no se descuenta aunque alcanzaba")
	assert.Equal(t, int64(5), f.store.Balance(tenantA, "B"))
}

func TestDeduct_ReportaTodosLosFaltantes(t *testing.T) {
	f := newFixture(t)
	seedAB(f, 1, 5)

	_, err := f.deductions.DeductInventoryForService(context.Background(), tenantA, userID, "", dto.DeductionRequest{
		ServiceID: "svc-1",
		Products:  []dto.DeductionLine{{ProductID: "B", Quantity: 20}, {ProductID: "A", Quantity: 4}},
	})
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, []domain.StockShortfall{
		{ProductID: "A", Required: 4, Available: 1},
		{ProductID: "B", Required: 20, Available: 5},
	}, ise.Items)
}

func TestDeduct_Exitosa(t *testing.T) {
	f := newFixture(t)
	seedAB(f, 10, 5)

	out, err := f.deductions.DeductInventoryForService(context.Background(), tenantA, userID, "", dto.DeductionRequest{
		ServiceID: "svc-1",
		Products:  []dto.DeductionLine{{ProductID: "B", Quantity: 2}, {ProductID: "A", Quantity: 4}},
	})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "svc-1", out.ServiceID)
	require.Len(t, out.Transactions, 2)
	assert.Equal(t, "A", out.Transactions[0].ProductID, "líneas en orden de productID")
	assert.Equal(t, int64(-4), out.Transactions[0].QuantityDelta)
	assert.Equal(t, int64(-2), out.Transactions[1].QuantityDelta)

	txns := f.store.TransactionsByReference(tenantA, "svc-1")
	require.Len(t, txns, 2)
	for _, tx := range txns {
		assert.Equal(t, entity.TransactionTypeDeduction, tx.TransactionType)
		assert.Equal(t, userID, tx.CreatedBy)
	}
	assert.Equal(t, int64(6), f.store.Balance(tenantA, "A"))
	assert.Equal(t, int64(3), f.store.Balance(tenantA, "B"))

	require.Len(t, out.Alerts, 1, "B queda en 3 con umbral 5")
	assert.Equal(t, "B", out.Alerts[0].ProductID)
	assert.Equal(t, entity.AlertTypeLowStock, out.Alerts[0].AlertType)
}

func TestDeduct_FusionaLineasRepetidas(t *testing.T) {
	f := newFixture(t)
	seedAB(f, 10, 5)

	out, err := f.deductions.DeductInventoryForService(context.Background(), tenantA, userID, "", dto.DeductionRequest{
		ServiceID: "svc-1",
		Products:  []dto.DeductionLine{{ProductID: "A", Quantity: 2}, {ProductID: "A", Quantity: 3}},
	})
	require.NoError(t, err)
	require.Len(t, out.Transactions, 1)
	assert.Equal(t, int64(-5), out.Transactions[0].QuantityDelta)
	assert.Equal(t, int64(5), f.store.Balance(tenantA, "A"))
}

// Dos líneas de MaxInt64 sumadas no pueden convertir la deducción en un aumento de stock.
func TestDeduct_CantidadesQueDesbordanSeRechazan(t *testing.T) {
	f := newFixture(t)
	seedAB(f, 10, 5)
	txBefore := f.store.TransactionCount(tenantA)

	_, err := f.deductions.DeductInventoryForService(context.Background(), tenantA, userID, "", dto.DeductionRequest{
		ServiceID: "svc-1",
		Products:  []dto.DeductionLine{{ProductID: "A", Quantity: math.MaxInt64}, {ProductID: "A", Quantity: math.MaxInt64}},
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "products[0].quantity", verr.Fields[0].Field)

	assert.Equal(t, int64(10), f.store.Balance(tenantA, "A"), "el saldo no cambia")
	assert.Equal(t, txBefore, f.store.TransactionCount(tenantA), "no se escribe ninguna transacción")
}

func TestDeduct_RegistraNotasEnElLog(t *testing.T) {
	f := newFixture(t)
	seedAB(f, 10, 5)
	var buf bytes.Buffer
	engine := inventory.NewServiceDeductionEngine(f.store, f.ledger, f.alerts, f.store.ServiceProducts(), nil, 0, zerolog.New(&buf))

	_, err := engine.DeductInventoryForService(context.Background(), tenantA, userID, "", dto.DeductionRequest{
		ServiceID: "svc-1",
		Products:  []dto.DeductionLine{{ProductID: "A", Quantity: 1}},
		Notes:     "cambio de aceite",
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"notes":"cambio de aceite"`)
	assert.Contains(t, buf.String(), `"service_id":"svc-1"`)
}

func TestDeduct_UsaListaDeMateriales(t *testing.T) {
	f := newFixture(t)
	seedAB(f, 10, 5)
	ctx := context.Background()
	links := f.store.ServiceProducts()
	require.NoError(t, links.Create(ctx, &entity.ServiceProductLink{ID: "l1", TenantID: tenantA, ServiceID: "svc-1", ProductID: "A", Quantity: 3}))
	require.NoError(t, links.Create(ctx, &entity.ServiceProductLink{ID: "l2", TenantID: tenantA, ServiceID: "svc-1", ProductID: "B", Quantity: 1, Optional: true}))

	out, err := f.deductions.DeductInventoryForService(ctx, tenantA, userID, "", dto.DeductionRequest{ServiceID: "svc-1"})
	require.NoError(t, err)
	require.Len(t, out.Transactions, 1, "las líneas opcionales no se descuentan")
	assert.Equal(t, "A", out.Transactions[0].ProductID)
	assert.Equal(t, int64(7), f.store.Balance(tenantA, "A"))
	assert.Equal(t, int64(5), f.store.Balance(tenantA, "B"))
}

func TestDeduct_SinLineasNiListaDeMateriales(t *testing.T) {
	f := newFixture(t)
	seedAB(f, 10, 5)

	_, err := f.deductions.DeductInventoryForService(context.Background(), tenantA, userID, "", dto.DeductionRequest{ServiceID: "svc-1"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "products", verr.Fields[0].Field)
}

func TestDeduct_Validaciones(t *testing.T) {
	f := newFixture(t)
	seedAB(f, 10, 5)

	_, err := f.deductions.DeductInventoryForService(context.Background(), tenantA, userID, "", dto.DeductionRequest{
		ServiceID: "svc-1",
		Products:  []dto.DeductionLine{{ProductID: "A", Quantity: 0}},
	})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "products[0].quantity", verr.Fields[0].Field)

	_, err = f.deductions.DeductInventoryForService(context.Background(), tenantA, userID, "", dto.DeductionRequest{
		Products: []dto.DeductionLine{{ProductID: "A", Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDeduct_ProductoInexistenteNoEscribeNada(t *testing.T) {
	f := newFixture(t)
	seedAB(f, 10, 5)

	_, err := f.deductions.DeductInventoryForService(context.Background(), tenantA, userID, "", dto.DeductionRequest{
		ServiceID: "svc-1",
		Products:  []dto.DeductionLine{{ProductID: "A", Quantity: 1}, {ProductID: "Z", Quantity: 1}},
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.store.TransactionsByReference(tenantA, "svc-1"))
	assert.Equal(t, int64(10), f.store.Balance(tenantA, "A"))
}

func TestDeduct_IdempotencyKey(t *testing.T) {
	f := newFixture(t)
	seedAB(f, 10, 5)
	ctx := context.Background()
	req := dto.DeductionRequest{ServiceID: "svc-1", Products: []dto.DeductionLine{{ProductID: "A", Quantity: 4}}}

	_, err := f.deductions.DeductInventoryForService(ctx, tenantA, userID, "key-1", req)
	require.NoError(t, err)

	_, err = f.deductions.DeductInventoryForService(ctx, tenantA, userID, "key-1", req)
	require.ErrorIs(t, err, domain.ErrDuplicate, "la misma clave no descuenta dos veces")
	assert.Equal(t, int64(6), f.store.Balance(tenantA, "A"))

	// La clave es por tenant.
	f.store.SeedProduct(tenantB, "C", 0, 0)
	f.store.SeedStock(tenantB, "C", 3)
	_, err = f.deductions.DeductInventoryForService(ctx, tenantB, userID, "key-1", dto.DeductionRequest{
		ServiceID: "svc-1", Products: []dto.DeductionLine{{ProductID: "C", Quantity: 1}},
	})
	require.NoError(t, err)
}

func TestDeduct_IdempotencyKeySeLiberaSiFalla(t *testing.T) {
	f := newFixture(t)
	seedAB(f, 10, 5)
	ctx := context.Background()
	req := dto.DeductionRequest{ServiceID: "svc-1", Products: []dto.DeductionLine{{ProductID: "B", Quantity: 8}}}

	_, err := f.deductions.DeductInventoryForService(ctx, tenantA, userID, "key-2", req)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	f.store.SeedStock(tenantA, "B", 5)
	out, err := f.deductions.DeductInventoryForService(ctx, tenantA, userID, "key-2", req)
	require.NoError(t, err, "tras un fallo el cliente puede reintentar con la misma clave")
	assert.Len(t, out.Transactions, 1)
	assert.Equal(t, int64(2), f.store.Balance(tenantA, "B"))
}

func TestDeduct_SinStoreDeIdempotenciaIgnoraLaClave(t *testing.T) {
	f := newFixture(t)
	seedAB(f, 10, 5)
	f.deductions = newDeductionEngineWithoutIdempotency(f)
	req := dto.DeductionRequest{ServiceID: "svc-1", Products: []dto.DeductionLine{{ProductID: "A", Quantity: 1}}}

	for i := 0; i < 2; i++ {
		_, err := f.deductions.DeductInventoryForService(context.Background(), tenantA, userID, "key-3", req)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(8), f.store.Balance(tenantA, "A"))
}

// Deducciones concurrentes nunca dejan el stock negativo.
func TestDeduct_Concurrente(t *testing.T) {
	f := newFixture(t)
	seedAB(f, 10, 5)
	ctx := context.Background()

	const workers = 25
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.deductions.DeductInventoryForService(ctx, tenantA, userID, "", dto.DeductionRequest{
				ServiceID: "svc-c",
				Products:  []dto.DeductionLine{{ProductID: "A", Quantity: 1}},
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			fail++
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, workers-10, fail)
	assert.Zero(t, f.store.Balance(tenantA, "A"))
	assert.Zero(t, f.store.LedgerSum(tenantA, "A"))
	assert.Len(t, f.store.TransactionsByReference(tenantA, "svc-c"), 10)
}

func TestDeduct_ContextoCancelado(t *testing.T) {
	f := newFixture(t)
	seedAB(f, 10, 5)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := f.deductions.DeductInventoryForService(ctx, tenantA, userID, "", dto.DeductionRequest{
		ServiceID: "svc-1", Products: []dto.DeductionLine{{ProductID: "A", Quantity: 1}},
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int64(10), f.store.Balance(tenantA, "A"))
}
