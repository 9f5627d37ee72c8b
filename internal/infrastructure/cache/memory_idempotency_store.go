package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
)

var _ inventory.IdempotencyStore = (*MemoryIdempotencyStore)(nil)

// MemoryIdempotencyStore claves de idempotencia en memoria (una sola instancia / desarrollo).
// Una goroutine purga periódicamente las claves vencidas hasta que se llama Close.
type MemoryIdempotencyStore struct {
	mu        sync.Mutex
	entries   map[string]time.Time // clave -> vencimiento
	now       func() time.Time
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemoryIdempotencyStore crea el almacén y arranca la purga cada cleanupEvery (0 = sin purga).
func NewMemoryIdempotencyStore(cleanupEvery time.Duration) *MemoryIdempotencyStore {
	s := &MemoryIdempotencyStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if cleanupEvery > 0 {
		s.wg.Add(1)
		go s.cleanupLoop(cleanupEvery)
	}
	return s
}

// Reserve reserva la clave por ttl. Devuelve false si ya estaba reservada y no ha vencido.
func (s *MemoryIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if exp, ok := s.entries[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.entries[key] = now.Add(ttl)
	return true, nil
}

// Release libera la clave.
func (s *MemoryIdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Close detiene la purga. Se puede llamar varias veces.
func (s *MemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

func (s *MemoryIdempotencyStore) cleanupLoop(every time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *MemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, exp := range s.entries {
		if !now.Before(exp) {
			delete(s.entries, k)
		}
	}
}
