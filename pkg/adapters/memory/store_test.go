package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/rillweb/pkg/adapters/memory"
	"github.com/aretw0/rillweb/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheStore_Contract(t *testing.T) {
	store := memory.NewCacheStore()
	ports.RunCacheStoreContract(t, store)
}

func TestMemoryCacheStore_CopyOnRead(t *testing.T) {
	store := memory.NewCacheStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("abc")))
	val, err := store.Get(ctx, "k")
	require.NoError(t, err)
	val[0] = 'x'

	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}
