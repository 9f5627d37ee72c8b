// Package testutil utilidades comunes para tests: un almacén en memoria que implementa
// los puertos de repositorio y el TxRunner con semántica de commit/rollback.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ inventory.TxRunner = (*Store)(nil)

type state struct {
	products     map[string]entity.Product
	balances     map[string]entity.StockBalance
	transactions []entity.InventoryTransaction
	movements    []entity.InventoryMovement
	transfers    []entity.InventoryTransfer
	alerts       []entity.InventoryAlert
	suppliers    []entity.Supplier
	links        []entity.ServiceProductLink
}

func newState() *state {
	return &state{
		products: map[string]entity.Product{},
		balances: map[string]entity.StockBalance{},
	}
}

func (s *state) clone() *state {
	c := &state{
		products:     make(map[string]entity.Product, len(s.products)),
		balances:     make(map[string]entity.StockBalance, len(s.balances)),
		transactions: append([]entity.InventoryTransaction(nil), s.transactions...),
		movements:    append([]entity.InventoryMovement(nil), s.movements...),
		transfers:    append([]entity.InventoryTransfer(nil), s.transfers...),
		alerts:       append([]entity.InventoryAlert(nil), s.alerts...),
		suppliers:    append([]entity.Supplier(nil), s.suppliers...),
		links:        append([]entity.ServiceProductLink(nil), s.links...),
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	return c
}

func balanceKey(tenantID, productID string) string { return tenantID + "|" + productID }

// Store almacén en memoria. Run serializa las transacciones con un único lock global,
// lo que equivale a bloquear todas las filas de saldo durante la transacción.
type Store struct {
	mu sync.Mutex
	st *state

	// Fallos inyectables (se leen dentro del lock).
	FailCreateTransaction func(txn *entity.InventoryTransaction) error
	FailAlertUpsert       error
	FailTransferStatus    func(status string) error

	commits   int
	rollbacks int
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Run ejecuta fn en una "transacción": si fn falla se restaura la foto previa del estado.
func (s *Store) Run(ctx context.Context, fn func(tx inventory.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := s.st.clone()
	if err := fn(&memTx{s: s}); err != nil {
		s.st = snap
		s.rollbacks++
		return err
	}
	s.commits++
	return nil
}

type memTx struct {
	s *Store
}

func (t *memTx) Ledger() repository.StockLedgerRepository         { return &ledgerRepo{v: view{s: t.s}} }
func (t *memTx) Movements() repository.InventoryMovementRepository { return &movementRepo{v: view{s: t.s}} }
func (t *memTx) Transfers() repository.InventoryTransferRepository { return &transferRepo{v: view{s: t.s}} }
func (t *memTx) Alerts() repository.InventoryAlertRepository       { return &alertRepo{v: view{s: t.s}} }
func (t *memTx) Products() repository.ProductRepository            { return &productRepo{v: view{s: t.s}} }
func (t *memTx) Suppliers() repository.SupplierRepository          { return &supplierRepo{v: view{s: t.s}} }

func (t *memTx) Savepoint(ctx context.Context, fn func(inventory.Tx) error) error {
	snap := t.s.st.clone()
	if err := fn(t); err != nil {
		t.s.st = snap
		return err
	}
	return nil
}

// Repositorios "de pool" (fuera de transacción): toman el lock en cada llamada.

func (s *Store) Ledger() repository.StockLedgerRepository { return &ledgerRepo{v: view{s: s, lock: true}} }
func (s *Store) Movements() repository.InventoryMovementRepository {
	return &movementRepo{v: view{s: s, lock: true}}
}
func (s *Store) Transfers() repository.InventoryTransferRepository {
	return &transferRepo{v: view{s: s, lock: true}}
}
func (s *Store) Alerts() repository.InventoryAlertRepository { return &alertRepo{v: view{s: s, lock: true}} }
func (s *Store) Products() repository.ProductRepository      { return &productRepo{v: view{s: s, lock: true}} }
func (s *Store) Suppliers() repository.SupplierRepository    { return &supplierRepo{v: view{s: s, lock: true}} }
func (s *Store) ServiceProducts() repository.ServiceProductRepository {
	return &serviceProductRepo{v: view{s: s, lock: true}}
}

type view struct {
	s    *Store
	lock bool
}

func (v view) do(fn func(st *state) error) error {
	if v.lock {
		v.s.mu.Lock()
		defer v.s.mu.Unlock()
	}
	return fn(v.s.st)
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers para preparar y observar el estado
// ──────────────────────────────────────────────────────────────────────────────

// SeedProduct registra un producto del catálogo con sus umbrales.
func (s *Store) SeedProduct(tenantID, productID string, lowStock, reorderPoint int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.st.products[productID] = entity.Product{
		ID: productID, TenantID: tenantID, Name: productID,
		LowStockThreshold: lowStock, ReorderPoint: reorderPoint,
		CreatedAt: now, UpdatedAt: now,
	}
}

// SeedStock deja el producto con qty unidades escribiendo una transacción movement_in,
// de modo que saldo y ledger coinciden.
func (s *Store) SeedStock(tenantID, productID string, qty int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := balanceKey(tenantID, productID)
	bal := s.st.balances[key]
	bal.TenantID, bal.ProductID = tenantID, productID
	bal.Quantity += qty
	bal.UpdatedAt = time.Now()
	s.st.balances[key] = bal
	s.st.transactions = append(s.st.transactions, entity.InventoryTransaction{
		ID: uuid.New().String(), TenantID: tenantID, ProductID: productID,
		QuantityDelta: qty, TransactionType: entity.TransactionTypeMovementIn,
		ReferenceID: "seed", BalanceAfter: bal.Quantity, CreatedAt: time.Now(),
	})
}

// SeedSupplier registra un proveedor.
func (s *Store) SeedSupplier(tenantID, supplierID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.suppliers = append(s.st.suppliers, entity.Supplier{ID: supplierID, TenantID: tenantID, Name: supplierID, CreatedAt: time.Now()})
}

// Balance saldo materializado del producto.
func (s *Store) Balance(tenantID, productID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.balances[balanceKey(tenantID, productID)].Quantity
}

// LedgerSum suma de los deltas de todas las transacciones del producto.
func (s *Store) LedgerSum(tenantID, productID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sumDeltas(s.st, tenantID, productID)
}

// TransactionsByReference transacciones con el referenceId dado.
func (s *Store) TransactionsByReference(tenantID, referenceID string) []entity.InventoryTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.InventoryTransaction
	for _, t := range s.st.transactions {
		if t.TenantID == tenantID && t.ReferenceID == referenceID {
			out = append(out, t)
		}
	}
	return out
}

// TransactionCount número total de transacciones del tenant.
func (s *Store) TransactionCount(tenantID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.st.transactions {
		if t.TenantID == tenantID {
			n++
		}
	}
	return n
}

// OpenAlerts alertas sin reconocer del producto.
func (s *Store) OpenAlerts(tenantID, productID string) []entity.InventoryAlert {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.InventoryAlert
	for _, a := range s.st.alerts {
		if a.TenantID == tenantID && a.ProductID == productID && !a.IsAcknowledged {
			out = append(out, a)
		}
	}
	return out
}

// AllTransfers traslados del tenant en orden de creación.
func (s *Store) AllTransfers(tenantID string) []entity.InventoryTransfer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.InventoryTransfer
	for _, t := range s.st.transfers {
		if t.TenantID == tenantID {
			out = append(out, t)
		}
	}
	return out
}

// MovementCount número de movimientos del tenant.
func (s *Store) MovementCount(tenantID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.st.movements {
		if m.TenantID == tenantID {
			n++
		}
	}
	return n
}

// Rollbacks número de transacciones deshechas.
func (s *Store) Rollbacks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollbacks
}

func sumDeltas(st *state, tenantID, productID string) int64 {
	var sum int64
	for _, t := range st.transactions {
		if t.TenantID == tenantID && t.ProductID == productID {
			sum += t.QuantityDelta
		}
	}
	return sum
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// ──────────────────────────────────────────────────────────────────────────────
// Ledger
// ──────────────────────────────────────────────────────────────────────────────

type ledgerRepo struct{ v view }

func (r *ledgerRepo) GetBalanceForUpdate(ctx context.Context, tenantID, productID string) (*entity.StockBalance, error) {
	var out *entity.StockBalance
	err := r.v.do(func(st *state) error {
		key := balanceKey(tenantID, productID)
		bal, ok := st.balances[key]
		if !ok {
			bal = entity.StockBalance{TenantID: tenantID, ProductID: productID, AverageCost: decimal.Zero, UpdatedAt: time.Now()}
			st.balances[key] = bal
		}
		out = &bal
		return nil
	})
	return out, err
}

func (r *ledgerRepo) GetBalance(ctx context.Context, tenantID, productID string) (*entity.StockBalance, error) {
	var out *entity.StockBalance
	err := r.v.do(func(st *state) error {
		bal, ok := st.balances[balanceKey(tenantID, productID)]
		if !ok {
			bal = entity.StockBalance{TenantID: tenantID, ProductID: productID, AverageCost: decimal.Zero}
		}
		out = &bal
		return nil
	})
	return out, err
}

func (r *ledgerRepo) SaveBalance(ctx context.Context, balance *entity.StockBalance) error {
	return r.v.do(func(st *state) error {
		if balance.Quantity < 0 {
			return domain.ErrInsufficientStock
		}
		st.balances[balanceKey(balance.TenantID, balance.ProductID)] = *balance
		return nil
	})
}

func (r *ledgerRepo) CreateTransaction(ctx context.Context, txn *entity.InventoryTransaction) error {
	return r.v.do(func(st *state) error {
		if f := r.v.s.FailCreateTransaction; f != nil {
			if err := f(txn); err != nil {
				return err
			}
		}
		if txn.ID == "" {
			txn.ID = uuid.New().String()
		}
		st.transactions = append(st.transactions, *txn)
		return nil
	})
}

func (r *ledgerRepo) GetTransactionByID(ctx context.Context, tenantID, id string) (*entity.InventoryTransaction, error) {
	var out *entity.InventoryTransaction
	err := r.v.do(func(st *state) error {
		for _, t := range st.transactions {
			if t.ID == id && t.TenantID == tenantID {
				t := t
				out = &t
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *ledgerRepo) ListTransactions(ctx context.Context, tenantID string, f repository.TransactionFilter, limit, offset int) ([]*entity.InventoryTransaction, error) {
	var out []*entity.InventoryTransaction
	err := r.v.do(func(st *state) error {
		var all []*entity.InventoryTransaction
		for i := len(st.transactions) - 1; i >= 0; i-- {
			t := st.transactions[i]
			if t.TenantID != tenantID ||
				(f.ProductID != "" && t.ProductID != f.ProductID) ||
				(f.TransactionType != "" && t.TransactionType != f.TransactionType) {
				continue
			}
			all = append(all, &t)
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

func (r *ledgerRepo) SumDeltas(ctx context.Context, tenantID, productID string) (int64, error) {
	var sum int64
	err := r.v.do(func(st *state) error {
		sum = sumDeltas(st, tenantID, productID)
		return nil
	})
	return sum, err
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos y traslados
// ──────────────────────────────────────────────────────────────────────────────

type movementRepo struct{ v view }

func (r *movementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	return r.v.do(func(st *state) error {
		st.movements = append(st.movements, *m)
		return nil
	})
}

func (r *movementRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.InventoryMovement, error) {
	var out *entity.InventoryMovement
	err := r.v.do(func(st *state) error {
		for _, m := range st.movements {
			if m.ID == id && m.TenantID == tenantID {
				m := m
				out = &m
			}
		}
		return nil
	})
	return out, err
}

func (r *movementRepo) List(ctx context.Context, tenantID string, f repository.MovementFilter, limit, offset int) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	err := r.v.do(func(st *state) error {
		var all []*entity.InventoryMovement
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			if m.TenantID != tenantID ||
				(f.ProductID != "" && m.ProductID != f.ProductID) ||
				(f.Type != "" && m.Type != f.Type) {
				continue
			}
			all = append(all, &m)
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

type transferRepo struct{ v view }

func (r *transferRepo) Create(ctx context.Context, t *entity.InventoryTransfer) error {
	return r.v.do(func(st *state) error {
		st.transfers = append(st.transfers, *t)
		return nil
	})
}

func (r *transferRepo) UpdateStatus(ctx context.Context, tenantID, id, status string, updatedAt time.Time) error {
	return r.v.do(func(st *state) error {
		if f := r.v.s.FailTransferStatus; f != nil {
			if err := f(status); err != nil {
				return err
			}
		}
		for i := range st.transfers {
			if st.transfers[i].ID == id && st.transfers[i].TenantID == tenantID {
				st.transfers[i].Status = status
				st.transfers[i].UpdatedAt = updatedAt
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

func (r *transferRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.InventoryTransfer, error) {
	var out *entity.InventoryTransfer
	err := r.v.do(func(st *state) error {
		for _, t := range st.transfers {
			if t.ID == id && t.TenantID == tenantID {
				t := t
				out = &t
			}
		}
		return nil
	})
	return out, err
}

func (r *transferRepo) List(ctx context.Context, tenantID string, f repository.TransferFilter, limit, offset int) ([]*entity.InventoryTransfer, error) {
	var out []*entity.InventoryTransfer
	err := r.v.do(func(st *state) error {
		var all []*entity.InventoryTransfer
		for i := len(st.transfers) - 1; i >= 0; i-- {
			t := st.transfers[i]
			if t.TenantID != tenantID ||
				(f.ProductID != "" && t.ProductID != f.ProductID) ||
				(f.Status != "" && t.Status != f.Status) {
				continue
			}
			all = append(all, &t)
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

// ──────────────────────────────────────────────────────────────────────────────
// Alertas
// ──────────────────────────────────────────────────────────────────────────────

type alertRepo struct{ v view }

func (r *alertRepo) Upsert(ctx context.Context, a *entity.InventoryAlert) (bool, error) {
	created := false
	err := r.v.do(func(st *state) error {
		if r.v.s.FailAlertUpsert != nil {
			return r.v.s.FailAlertUpsert
		}
		for i := range st.alerts {
			cur := &st.alerts[i]
			if cur.TenantID == a.TenantID && cur.ProductID == a.ProductID && cur.AlertType == a.AlertType && !cur.IsAcknowledged {
				cur.Message = a.Message
				cur.CurrentStock = a.CurrentStock
				cur.UpdatedAt = a.UpdatedAt
				*a = *cur
				return nil
			}
		}
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		st.alerts = append(st.alerts, *a)
		created = true
		return nil
	})
	return created, err
}

func (r *alertRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.InventoryAlert, error) {
	var out *entity.InventoryAlert
	err := r.v.do(func(st *state) error {
		for _, a := range st.alerts {
			if a.ID == id && a.TenantID == tenantID {
				a := a
				out = &a
			}
		}
		return nil
	})
	return out, err
}

func (r *alertRepo) GetByIDForUpdate(ctx context.Context, tenantID, id string) (*entity.InventoryAlert, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *alertRepo) Acknowledge(ctx context.Context, a *entity.InventoryAlert) error {
	return r.v.do(func(st *state) error {
		for i := range st.alerts {
			if st.alerts[i].ID == a.ID && st.alerts[i].TenantID == a.TenantID {
				st.alerts[i] = *a
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

func (r *alertRepo) List(ctx context.Context, tenantID string, f repository.AlertFilter, limit, offset int) ([]*entity.InventoryAlert, error) {
	var out []*entity.InventoryAlert
	err := r.v.do(func(st *state) error {
		var all []*entity.InventoryAlert
		for i := len(st.alerts) - 1; i >= 0; i-- {
			a := st.alerts[i]
			if a.TenantID != tenantID ||
				(f.ProductID != "" && a.ProductID != f.ProductID) ||
				(f.AlertType != "" && a.AlertType != f.AlertType) ||
				(f.IsAcknowledged != nil && a.IsAcknowledged != *f.IsAcknowledged) {
				continue
			}
			all = append(all, &a)
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

func (r *alertRepo) CountOpenByType(ctx context.Context, tenantID string) (map[string]int64, error) {
	out := map[string]int64{}
	err := r.v.do(func(st *state) error {
		for _, a := range st.alerts {
			if a.TenantID == tenantID && !a.IsAcknowledged {
				out[a.AlertType]++
			}
		}
		return nil
	})
	return out, err
}

// ──────────────────────────────────────────────────────────────────────────────
// Catálogo, proveedores y lista de materiales
// ──────────────────────────────────────────────────────────────────────────────

type productRepo struct{ v view }

func (r *productRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.v.do(func(st *state) error {
		if p, ok := st.products[id]; ok && p.TenantID == tenantID {
			out = &p
		}
		return nil
	})
	return out, err
}

type supplierRepo struct{ v view }

func (r *supplierRepo) Create(ctx context.Context, s *entity.Supplier) error {
	return r.v.do(func(st *state) error {
		st.suppliers = append(st.suppliers, *s)
		return nil
	})
}

func (r *supplierRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Supplier, error) {
	var out *entity.Supplier
	err := r.v.do(func(st *state) error {
		for _, s := range st.suppliers {
			if s.ID == id && s.TenantID == tenantID {
				s := s
				out = &s
			}
		}
		return nil
	})
	return out, err
}

func (r *supplierRepo) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Supplier, error) {
	var out []*entity.Supplier
	err := r.v.do(func(st *state) error {
		var all []*entity.Supplier
		for i := len(st.suppliers) - 1; i >= 0; i-- {
			s := st.suppliers[i]
			if s.TenantID == tenantID {
				all = append(all, &s)
			}
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

type serviceProductRepo struct{ v view }

func (r *serviceProductRepo) Create(ctx context.Context, l *entity.ServiceProductLink) error {
	return r.v.do(func(st *state) error {
		for _, cur := range st.links {
			if cur.TenantID == l.TenantID && cur.ServiceID == l.ServiceID && cur.ProductID == l.ProductID {
				return domain.ErrDuplicate
			}
		}
		st.links = append(st.links, *l)
		return nil
	})
}

func (r *serviceProductRepo) ListByService(ctx context.Context, tenantID, serviceID string) ([]*entity.ServiceProductLink, error) {
	var out []*entity.ServiceProductLink
	err := r.v.do(func(st *state) error {
		for _, l := range st.links {
			if l.TenantID == tenantID && l.ServiceID == serviceID {
				l := l
				out = append(out, &l)
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
		return nil
	})
	return out, err
}
