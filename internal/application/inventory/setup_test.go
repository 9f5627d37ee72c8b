package inventory_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/inventory-ledger/internal/testutil"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	tenantA = "00000000-0000-0000-0000-00000000000a"
	tenantB = "00000000-0000-0000-0000-00000000000b"
	userID  = "00000000-0000-0000-0000-000000000001"
)

type fixture struct {
	store      *testutil.Store
	idem       *cache.MemoryIdempotencyStore
	ledger     *inventory.StockLedger
	alerts     *inventory.AlertEngine
	movements  *inventory.MovementRecorder
	transfers  *inventory.TransferCoordinator
	deductions *inventory.ServiceDeductionEngine
}

// newFixture arma todos los servicios del ledger sobre el almacén en memoria.
func newFixture(t *testing.T) *fixture {
	return newFixtureWithLocale(t, "es")
}

func newFixtureWithLocale(t *testing.T, locale string) *fixture {
	t.Helper()
	store := testutil.NewStore()
	idem := cache.NewMemoryIdempotencyStore(0)
	t.Cleanup(func() { _ = idem.Close() })

	log := zerolog.Nop()
	ledger := inventory.NewStockLedger(store.Ledger(), store.Products())
	alerts := inventory.NewAlertEngine(store, store.Alerts(), locale, log)
	return &fixture{
		store:      store,
		idem:       idem,
		ledger:     ledger,
		alerts:     alerts,
		movements:  inventory.NewMovementRecorder(store, ledger, alerts, store.Movements(), log),
		transfers:  inventory.NewTransferCoordinator(store, ledger, alerts, store.Transfers(), store.Products(), log),
		deductions: inventory.NewServiceDeductionEngine(store, ledger, alerts, store.ServiceProducts(), idem, time.Hour, log),
	}
}

func boolPtr(b bool) *bool { return &b }

func newDeductionEngineWithoutIdempotency(f *fixture) *inventory.ServiceDeductionEngine {
	return inventory.NewServiceDeductionEngine(f.store, f.ledger, f.alerts, f.store.ServiceProducts(), nil, 0, zerolog.Nop())
}
