package cache_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tierhub/backend/internal/infrastructure/cache"
)

func TestInMemoryNonceStore_ConsumeOnce(t *testing.T) {
	store := cache.NewInMemoryNonceStore()
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "nonce-1", time.Minute))

	ok, err := store.Consume(ctx, "nonce-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Consume(ctx, "nonce-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInMemoryNonceStore_UnknownNonce(t *testing.T) {
	ok, err := cache.NewInMemoryNonceStore().Consume(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInMemoryNonceStore_Expired(t *testing.T) {
	store := cache.NewInMemoryNonceStore()
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "nonce-exp", time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	ok, err := store.Consume(ctx, "nonce-exp")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInMemoryNonceStore_ConcurrentConsume(t *testing.T) {
	store := cache.NewInMemoryNonceStore()
	ctx := context.Background()
	require.NoError(t, store.Store(ctx, "shared", time.Minute))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.Consume(ctx, "shared"); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
}
