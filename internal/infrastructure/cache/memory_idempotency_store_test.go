package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIdempotencyStore_ReservaUnaSolaVez(t *testing.T) {
	s := NewMemoryIdempotencyStore(0)
	defer s.Close()
	ctx := context.Background()

	ok, err := s.Reserve(ctx, "t1:k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Reserve(ctx, "t1:k1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "la segunda reserva de la misma clave debe fallar")

	ok, _ = s.Reserve(ctx, "t2:k1", time.Minute)
	assert.True(t, ok, "la misma clave de otro tenant es independiente")
}

func TestMemoryIdempotencyStore_ReleasePermiteReintentar(t *testing.T) {
	s := NewMemoryIdempotencyStore(0)
	defer s.Close()
	ctx := context.Background()

	_, _ = s.Reserve(ctx, "k", time.Minute)
	require.NoError(t, s.Release(ctx, "k"))

	ok, err := s.Reserve(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryIdempotencyStore_ClaveVencida(t *testing.T) {
	s := NewMemoryIdempotencyStore(0)
	defer s.Close()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = s.Reserve(ctx, "k", time.Minute)
	now = now.Add(2 * time.Minute)

	ok, _ := s.Reserve(ctx, "k", time.Minute)
	assert.True(t, ok, "una clave vencida se puede reservar de nuevo")

	now = now.Add(2 * time.Minute)
	s.cleanup()
	assert.Empty(t, s.entries)
}

func TestMemoryIdempotencyStore_Concurrente(t *testing.T) {
	s := NewMemoryIdempotencyStore(time.Hour)
	defer s.Close()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.Reserve(context.Background(), "misma", time.Minute); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load(), "solo una goroutine reserva la clave")
}

func TestMemoryIdempotencyStore_CloseIdempotente(t *testing.T) {
	s := NewMemoryIdempotencyStore(time.Millisecond)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
