package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvalidURLStartsDisabled(t *testing.T) {
	store := New(context.Background(), "not-a-redis-url", "", zerolog.Nop())
	require.NotNil(t, store)
	defer store.Close()

	assert.False(t, store.Enabled())
}

func TestNewUnreachableHostStartsDisabled(t *testing.T) {
	// Port 1 is closed; connection refused is not a DNS error, so the
	// fallback URL must not be tried.
	store := New(context.Background(), "redis://127.0.0.1:1", "redis://127.0.0.1:2", zerolog.Nop())
	require.NotNil(t, store)
	defer store.Close()

	assert.False(t, store.Enabled())
}

func TestDisabledStoreOperations(t *testing.T) {
	store := New(context.Background(), "not-a-redis-url", "", zerolog.Nop())
	defer store.Close()
	require.False(t, store.Enabled())

	var dest map[string]int
	assert.False(t, store.Get(context.Background(), "stats:top:1:all:none:none", &dest))
	assert.Nil(t, dest)

	// Set on a disabled store is a no-op and must not panic.
	store.Set(context.Background(), "stats:top:1:all:none:none", map[string]int{"a": 1}, time.Minute)
}

func TestNewHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	store := New(ctx, "redis://127.0.0.1:1", "", zerolog.Nop())
	defer store.Close()

	assert.False(t, store.Enabled())
	// A cancelled context skips the backoff sleeps between attempts.
	assert.Less(t, time.Since(start), 10*time.Second)
}
