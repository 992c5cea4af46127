package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunCacheStoreContract runs a suite of tests to verify that a CacheStore implementation
// adheres to the defined interface contract.
func RunCacheStoreContract(t *testing.T, store CacheStore) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405") + "/"

	t.Run("Set and Get", func(t *testing.T) {
		key := prefix + "a"
		err := store.Set(ctx, key, []byte(`{"rows":3}`))
		require.NoError(t, err, "Set should not return error")

		val, err := store.Get(ctx, key)
		require.NoError(t, err, "Get should not return error")
		assert.JSONEq(t, `{"rows":3}`, string(val))
	})

	t.Run("Get Missing", func(t *testing.T) {
		_, err := store.Get(ctx, prefix+"missing")
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
	})

	t.Run("Keys by prefix", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, prefix+"files/x", []byte("1")))
		require.NoError(t, store.Set(ctx, prefix+"files/y", []byte("2")))
		require.NoError(t, store.Set(ctx, prefix+"catalog/x", []byte("3")))

		keys, err := store.Keys(ctx, prefix+"files/")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{prefix + "files/x", prefix + "files/y"}, keys)
	})

	t.Run("Delete", func(t *testing.T) {
		key := prefix + "gone"
		require.NoError(t, store.Set(ctx, key, []byte("v")))

		err := store.Delete(ctx, key, prefix+"never-existed")
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrCacheMiss, "Get after Delete should return ErrCacheMiss")
	})
}
