package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/application/usecase"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/cache"
	apphttp "github.com/jhoicas/inventory-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventory-ledger/internal/testutil"
)

// ──────────────────────────────────────────────────────────────────────────────
// Servidor de prueba: router completo sobre el almacén en memoria
// ──────────────────────────────────────────────────────────────────────────────

type testServer struct {
	app   *fiber.App
	store *testutil.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := testutil.NewStore()
	idem := cache.NewMemoryIdempotencyStore(0)
	t.Cleanup(func() { _ = idem.Close() })

	log := zerolog.Nop()
	ledger := inventory.NewStockLedger(store.Ledger(), store.Products())
	alerts := inventory.NewAlertEngine(store, store.Alerts(), "es", log)

	app := fiber.New()
	app.Use(requestid.New())
	app.Use(apphttp.RequestLogger(log))
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:          ledger,
		Movements:       inventory.NewMovementRecorder(store, ledger, alerts, store.Movements(), log),
		Transfers:       inventory.NewTransferCoordinator(store, ledger, alerts, store.Transfers(), store.Products(), log),
		Deductions:      inventory.NewServiceDeductionEngine(store, ledger, alerts, store.ServiceProducts(), idem, time.Hour, log),
		Alerts:          alerts,
		SupplierUC:      usecase.NewSupplierUseCase(store.Suppliers()),
		ServiceProducts: usecase.NewServiceProductUseCase(store.ServiceProducts(), store.Products()),
		JWTSecret:       testJWTSecret,
		JWTIssuer:       testIssuer,
		Log:             log,
	})
	return &testServer{app: app, store: store}
}

// do lanza la petición autenticada como tenantID (vacío = sin token). body puede ser string
// (se envía tal cual) o cualquier valor serializable a JSON.
func (s *testServer) do(t *testing.T, method, path, tenantID string, body any, headers ...string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tenantID != "" {
		req.Header.Set("Authorization", bearer(t, tenantID))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

// ──────────────────────────────────────────────────────────────────────────────
// Autenticación
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_SinTokenDevuelve401(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodGet, "/api/inventory/movements", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, string(body), "MISSING_TOKEN")
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos
// ──────────────────────────────────────────────────────────────────────────────

func TestMovements_SalidaSinStockDevuelve409ConFaltantes(t *testing.T) {
	s := newTestServer(t)
	s.store.SeedProduct(testTenantA, "P", 0, 0)
	s.store.SeedStock(testTenantA, "P", 10)

	status, body := s.do(t, http.MethodPost, "/api/inventory/movements", testTenantA, dto.CreateMovementRequest{
		ProductID: "P", Quantity: 15, Type: "out", Reason: "venta",
	})

	require.Equal(t, http.StatusConflict, status, string(body))
	res := decode[dto.InsufficientStockResponse](t, body)
	assert.False(t, res.Success)
	assert.Equal(t, "INSUFFICIENT_STOCK", res.Code)
	assert.Equal(t, []domain.StockShortfall{{ProductID: "P", Required: 15, Available: 10}}, res.InsufficientStock)
	assert.Equal(t, int64(10), s.store.Balance(testTenantA, "P"), "el stock no cambia")
	assert.Equal(t, 0, s.store.MovementCount(testTenantA))
}

func TestMovements_EntradaYConsulta(t *testing.T) {
	s := newTestServer(t)
	s.store.SeedProduct(testTenantA, "P", 0, 0)

	status, body := s.do(t, http.MethodPost, "/api/inventory/movements", testTenantA, map[string]any{
		"product_id": "P", "quantity": 10, "type": "in", "reason": "compra", "unit_cost": "1500.50",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	mov := decode[dto.MovementResponse](t, body)
	require.NotNil(t, mov.BalanceAfter)
	assert.Equal(t, int64(10), *mov.BalanceAfter)
	require.NotNil(t, mov.UnitCost)
	assert.Equal(t, "1500.5000", *mov.UnitCost)

	status, body = s.do(t, http.MethodGet, "/api/inventory/movements/"+mov.ID, testTenantA, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, mov.ID, decode[dto.MovementResponse](t, body).ID)

	status, _ = s.do(t, http.MethodGet, "/api/inventory/movements/"+mov.ID, testTenantB, nil)
	assert.Equal(t, http.StatusNotFound, status, "otro tenant no ve el movimiento")

	status, body = s.do(t, http.MethodGet, "/api/inventory/movements?type=in&limit=5", testTenantA, nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[dto.MovementListResponse](t, body)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 5, list.Page.Limit)
}

func TestMovements_ValidacionDevuelveCampos(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodPost, "/api/inventory/movements", testTenantA, map[string]any{
		"product_id": "P", "quantity": 0, "type": "x", "reason": "r",
	})
	require.Equal(t, http.StatusBadRequest, status)
	res := decode[dto.ErrorResponse](t, body)
	assert.Equal(t, "VALIDATION", res.Code)
	fields := make([]string, 0, len(res.Fields))
	for _, f := range res.Fields {
		fields = append(fields, f.Field)
	}
	assert.Contains(t, fields, "quantity")
	assert.Contains(t, fields, "type")
}

func TestMovements_CuerpoInvalido(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodPost, "/api/inventory/movements", testTenantA, `{"quantity":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_BODY", decode[dto.ErrorResponse](t, body).Code)
}

func TestMovements_FiltroDeTipoInvalido(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(t, http.MethodGet, "/api/inventory/movements?type=adjustment", testTenantA, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ledger y saldo
// ──────────────────────────────────────────────────────────────────────────────

func TestStock_SaldoConsistente(t *testing.T) {
	s := newTestServer(t)
	s.store.SeedProduct(testTenantA, "P", 0, 0)
	s.store.SeedStock(testTenantA, "P", 7)

	status, body := s.do(t, http.MethodGet, "/api/inventory/stock/P", testTenantA, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	lvl := decode[dto.StockLevelResponse](t, body)
	assert.Equal(t, int64(7), lvl.Quantity)
	assert.Equal(t, int64(7), lvl.LedgerSum)
	assert.True(t, lvl.Consistent)

	status, _ = s.do(t, http.MethodGet, "/api/inventory/stock/P", testTenantB, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTransactions_ListaYDetalle(t *testing.T) {
	s := newTestServer(t)
	s.store.SeedProduct(testTenantA, "P", 0, 0)
	s.store.SeedStock(testTenantA, "P", 3)

	status, body := s.do(t, http.MethodGet, "/api/inventory/transactions?product_id=P", testTenantA, nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[dto.TransactionListResponse](t, body)
	require.Len(t, list.Items, 1)

	status, body = s.do(t, http.MethodGet, "/api/inventory/transactions/"+list.Items[0].ID, testTenantA, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(3), decode[dto.TransactionResponse](t, body).QuantityDelta)

	status, _ = s.do(t, http.MethodGet, "/api/inventory/transactions?transaction_type=robo", testTenantA, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestTransactions_FiltroPorTipoDocumentado(t *testing.T) {
	s := newTestServer(t)
	s.store.SeedProduct(testTenantA, "P", 0, 0)
	s.store.SeedStock(testTenantA, "P", 3)

	for _, tt := range []string{"movement_in", "movement_out", "transfer_out", "transfer_in", "deduction"} {
		status, body := s.do(t, http.MethodGet, "/api/inventory/transactions?transaction_type="+tt, testTenantA, nil)
		require.Equal(t, http.StatusOK, status, tt)
		list := decode[dto.TransactionListResponse](t, body)
		for _, item := range list.Items {
			assert.Equal(t, tt, item.TransactionType)
		}
		if tt == "movement_in" {
			assert.Len(t, list.Items, 1)
		}
	}

	status, _ := s.do(t, http.MethodGet, "/api/inventory/transactions?transaction_type=adjustment", testTenantA, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Traslados
// ──────────────────────────────────────────────────────────────────────────────

func TestTransfers_Completado(t *testing.T) {
	s := newTestServer(t)
	s.store.SeedProduct(testTenantA, "P", 0, 0)
	s.store.SeedStock(testTenantA, "P", 5)

	status, body := s.do(t, http.MethodPost, "/api/inventory/transfers", testTenantA, dto.CreateTransferRequest{
		ProductID: "P", FromLocationID: "bodega", ToLocationID: "sala", Quantity: 5, Reason: "reubicación",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	tr := decode[dto.TransferResponse](t, body)
	assert.Equal(t, "completed", tr.Status)
	assert.Len(t, s.store.TransactionsByReference(testTenantA, tr.ID), 2)
	assert.Equal(t, int64(5), s.store.Balance(testTenantA, "P"), "el neto de un traslado es cero")

	status, body = s.do(t, http.MethodGet, "/api/inventory/transfers/"+tr.ID, testTenantA, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "completed", decode[dto.TransferResponse](t, body).Status)

	status, body = s.do(t, http.MethodGet, "/api/inventory/transfers?status=completed", testTenantA, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[dto.TransferListResponse](t, body).Items, 1)
}

func TestTransfers_SinStockQuedaCancelado(t *testing.T) {
	s := newTestServer(t)
	s.store.SeedProduct(testTenantA, "P", 0, 0)
	s.store.SeedStock(testTenantA, "P", 2)

	status, body := s.do(t, http.MethodPost, "/api/inventory/transfers", testTenantA, dto.CreateTransferRequest{
		ProductID: "P", FromLocationID: "bodega", ToLocationID: "sala", Quantity: 5, Reason: "reubicación",
	})
	require.Equal(t, http.StatusConflict, status, string(body))
	assert.Equal(t, "INSUFFICIENT_STOCK", decode[dto.InsufficientStockResponse](t, body).Code)

	transfers := s.store.AllTransfers(testTenantA)
	require.Len(t, transfers, 1)
	assert.Equal(t, "cancelled", transfers[0].Status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Deducciones
// ──────────────────────────────────────────────────────────────────────────────

func TestDeductions_FaltanteNoEscribeNada(t *testing.T) {
	s := newTestServer(t)
	s.store.SeedProduct(testTenantA, "A", 0, 0)
	s.store.SeedProduct(testTenantA, "B", 0, 0)
	s.store.SeedStock(testTenantA, "A", 10)
	s.store.SeedStock(testTenantA, "B", 5)
	before := s.store.TransactionCount(testTenantA)

	status, body := s.do(t, http.MethodPost, "/api/inventory/deductions", testTenantA, dto.DeductionRequest{
		ServiceID: "S1",
		Products:  []dto.DeductionLine{{ProductID: "A", Quantity: 4}, {ProductID: "B", Quantity: 20}},
	})
	require.Equal(t, http.StatusConflict, status, string(body))
	res := decode[dto.InsufficientStockResponse](t, body)
	assert.Equal(t, []domain.StockShortfall{{ProductID: "B", Required: 20, Available: 5}}, res.InsufficientStock)
	assert.Equal(t, before, s.store.TransactionCount(testTenantA), "todo o nada")
	assert.Equal(t, int64(10), s.store.Balance(testTenantA, "A"))
}

func TestDeductions_CantidadFueraDeRangoDevuelve400(t *testing.T) {
	s := newTestServer(t)
	s.store.SeedProduct(testTenantA, "A", 0, 0)
	s.store.SeedStock(testTenantA, "A", 10)

	status, body := s.do(t, http.MethodPost, "/api/inventory/deductions", testTenantA, dto.DeductionRequest{
		ServiceID: "S1",
		Products:  []dto.DeductionLine{{ProductID: "A", Quantity: math.MaxInt64}, {ProductID: "A", Quantity: math.MaxInt64}},
	})
	require.Equal(t, http.StatusBadRequest, status, string(body))
	res := decode[dto.ErrorResponse](t, body)
	assert.Equal(t, "VALIDATION", res.Code)
	assert.Equal(t, int64(10), s.store.Balance(testTenantA, "A"), "la deducción no suma stock")
}

func TestDeductions_IdempotencyKeyRepetida(t *testing.T) {
	s := newTestServer(t)
	s.store.SeedProduct(testTenantA, "A", 0, 0)
	s.store.SeedStock(testTenantA, "A", 10)
	req := dto.DeductionRequest{ServiceID: "S1", Products: []dto.DeductionLine{{ProductID: "A", Quantity: 2}}}

	status, body := s.do(t, http.MethodPost, "/api/inventory/deductions", testTenantA, req, apphttp.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusOK, status, string(body))
	res := decode[dto.DeductionResponse](t, body)
	assert.True(t, res.Success)
	assert.Len(t, res.Transactions, 1)

	status, body = s.do(t, http.MethodPost, "/api/inventory/deductions", testTenantA, req, apphttp.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE_REQUEST", decode[dto.ErrorResponse](t, body).Code)
	assert.Equal(t, int64(8), s.store.Balance(testTenantA, "A"), "la repetición no descuenta dos veces")
}

func TestDeductions_UsaListaDeMaterialesDelServicio(t *testing.T) {
	s := newTestServer(t)
	s.store.SeedProduct(testTenantA, "A", 0, 0)
	s.store.SeedStock(testTenantA, "A", 10)

	status, body := s.do(t, http.MethodPost, "/api/services/S1/products", testTenantA, dto.AddServiceProductRequest{
		ProductID: "A", Quantity: 3,
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = s.do(t, http.MethodGet, "/api/services/S1/products", testTenantA, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[dto.ServiceProductListResponse](t, body).Items, 1)

	status, body = s.do(t, http.MethodPost, "/api/inventory/deductions", testTenantA, dto.DeductionRequest{ServiceID: "S1"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, int64(7), s.store.Balance(testTenantA, "A"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Alertas
// ──────────────────────────────────────────────────────────────────────────────

func TestAlerts_CrearResumirYReconocer(t *testing.T) {
	s := newTestServer(t)
	s.store.SeedProduct(testTenantA, "P", 5, 10)
	s.store.SeedStock(testTenantA, "P", 3)

	status, body := s.do(t, http.MethodPost, "/api/inventory/alerts", testTenantA, dto.CreateAlertRequest{ProductID: "P", AlertType: "low_stock"})
	require.Equal(t, http.StatusCreated, status, string(body))
	first := decode[dto.AlertResponse](t, body)

	status, body = s.do(t, http.MethodPost, "/api/inventory/alerts", testTenantA, dto.CreateAlertRequest{ProductID: "P", AlertType: "low_stock"})
	require.Equal(t, http.StatusOK, status, "una alerta abierta del mismo tipo se actualiza")
	assert.Equal(t, first.ID, decode[dto.AlertResponse](t, body).ID)

	status, body = s.do(t, http.MethodGet, "/api/inventory/alerts/summary", testTenantA, nil)
	require.Equal(t, http.StatusOK, status)
	sum := decode[dto.AlertSummaryResponse](t, body)
	assert.Equal(t, int64(1), sum.LowStock)
	assert.Equal(t, int64(1), sum.Total)

	status, body = s.do(t, http.MethodPost, "/api/inventory/alerts/"+first.ID+"/acknowledge", testTenantA, dto.AcknowledgeAlertRequest{AcknowledgedBy: "ana"})
	require.Equal(t, http.StatusOK, status, string(body))
	acked := decode[dto.AlertResponse](t, body)
	assert.True(t, acked.IsAcknowledged)
	assert.Equal(t, "ana", acked.AcknowledgedBy)

	status, body = s.do(t, http.MethodGet, "/api/inventory/alerts/summary", testTenantA, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(0), decode[dto.AlertSummaryResponse](t, body).Total)

	status, body = s.do(t, http.MethodGet, "/api/inventory/alerts?is_acknowledged=true", testTenantA, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[dto.AlertListResponse](t, body).Items, 1)

	status, _ = s.do(t, http.MethodGet, "/api/inventory/alerts/"+first.ID, testTenantB, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAlerts_FiltroReconocidaInvalido(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodGet, "/api/inventory/alerts?is_acknowledged=quizas", testTenantA, nil)
	require.Equal(t, http.StatusBadRequest, status)
	res := decode[dto.ErrorResponse](t, body)
	require.Len(t, res.Fields, 1)
	assert.Equal(t, "is_acknowledged", res.Fields[0].Field)
}

// ──────────────────────────────────────────────────────────────────────────────
// Proveedores
// ──────────────────────────────────────────────────────────────────────────────

func TestSuppliers_CrearYUsarComoProcedencia(t *testing.T) {
	s := newTestServer(t)
	s.store.SeedProduct(testTenantA, "P", 0, 0)

	status, body := s.do(t, http.MethodPost, "/api/suppliers", testTenantA, dto.CreateSupplierRequest{
		Name: "Acme", Email: "ventas@acme.co",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	sup := decode[dto.SupplierResponse](t, body)

	status, _ = s.do(t, http.MethodGet, "/api/suppliers/"+sup.ID, testTenantA, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, http.MethodGet, "/api/suppliers/"+sup.ID, testTenantB, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = s.do(t, http.MethodGet, "/api/suppliers", testTenantA, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[dto.SupplierListResponse](t, body).Items, 1)

	status, body = s.do(t, http.MethodPost, "/api/inventory/movements", testTenantA, dto.CreateMovementRequest{
		ProductID: "P", Quantity: 4, Type: "in", Reason: "compra",
		ReferenceType: "supplier", ReferenceID: sup.ID,
	})
	assert.Equal(t, http.StatusCreated, status, string(body))
}
