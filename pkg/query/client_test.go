package query_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/rillweb/pkg/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateQueryClient_DefaultOptions(t *testing.T) {
	c := query.CreateQueryClient()
	opts := c.DefaultOptions()

	assert.False(t, opts.RefetchOnMount)
	assert.False(t, opts.RefetchOnReconnect)
	assert.False(t, opts.RefetchOnWindowFocus)
	assert.Zero(t, opts.Retry)
	assert.JSONEq(t, `{}`, string(opts.PlaceholderData))
}

func TestCreateQueryClient_NewInstancePerCall(t *testing.T) {
	a := query.CreateQueryClient()
	b := query.CreateQueryClient()
	ctx := context.Background()

	require.NoError(t, a.SetData(ctx, query.FilesKey("default"), []string{"x"}))
	_, cached := b.Data(ctx, query.FilesKey("default"))
	assert.False(t, cached)
}

func TestClient_DataReturnsPlaceholder(t *testing.T) {
	c := query.CreateQueryClient()
	raw, cached := c.Data(context.Background(), query.CatalogKey("default"))
	assert.False(t, cached)
	assert.JSONEq(t, `{}`, string(raw))
}

func TestClient_FetchCaches(t *testing.T) {
	c := query.CreateQueryClient()
	ctx := context.Background()

	var calls int32
	fn := func(ctx context.Context) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		return []string{"/sources/orders.yaml"}, nil
	}

	files, err := query.FetchQuery(ctx, c, query.FilesKey("default"), fn)
	require.NoError(t, err)
	assert.Equal(t, []string{"/sources/orders.yaml"}, files)

	files, err = query.FetchQuery(ctx, c, query.FilesKey("default"), fn)
	require.NoError(t, err)
	assert.Equal(t, []string{"/sources/orders.yaml"}, files)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_FetchDeduplicatesConcurrentCalls(t *testing.T) {
	c := query.CreateQueryClient()
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	fn := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return map[string]int{"rows": 3}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			raw, err := c.Fetch(ctx, query.TableQueriesKey("default", "orders"), fn)
			assert.NoError(t, err)
			assert.JSONEq(t, `{"rows":3}`, string(raw))
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_NoRetryByDefault(t *testing.T) {
	c := query.CreateQueryClient()

	var calls int32
	boom := errors.New("boom")
	_, err := c.Fetch(context.Background(), query.FilesKey("default"), func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_RetryWhenEnabled(t *testing.T) {
	c := query.CreateQueryClient()

	var calls int32
	raw, err := c.Fetch(context.Background(), query.FilesKey("default"), func(ctx context.Context) (any, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return nil, errors.New("transient")
		}
		return []string{}, nil
	}, query.WithRetry(3), query.WithRetryDelay(time.Millisecond))

	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_InvalidateQueries(t *testing.T) {
	c := query.CreateQueryClient()
	ctx := context.Background()

	require.NoError(t, c.SetData(ctx, query.TableQueriesKey("default", "orders"), 1))
	require.NoError(t, c.SetData(ctx, query.Key{"queries", "default", "tables", "orders", "null-count"}, 2))
	require.NoError(t, c.SetData(ctx, query.TableQueriesKey("default", "orders_v2"), 3))

	var invalidated []query.Key
	unsubscribe := c.OnInvalidate(func(k query.Key) { invalidated = append(invalidated, k) })
	defer unsubscribe()

	require.NoError(t, c.InvalidateQueries(ctx, query.TableQueriesKey("default", "orders")))

	_, cached := c.Data(ctx, query.TableQueriesKey("default", "orders"))
	assert.False(t, cached)
	_, cached = c.Data(ctx, query.Key{"queries", "default", "tables", "orders", "null-count"})
	assert.False(t, cached)
	_, cached = c.Data(ctx, query.TableQueriesKey("default", "orders_v2"))
	assert.True(t, cached, "prefix matching must respect segment boundaries")

	assert.Equal(t, []query.Key{query.TableQueriesKey("default", "orders")}, invalidated)
}

func TestClient_InvalidateRefetchesMountedQueries(t *testing.T) {
	c := query.CreateQueryClient()
	ctx := context.Background()

	var calls int32
	fn := func(ctx context.Context) (any, error) {
		return atomic.AddInt32(&calls, 1), nil
	}

	raw, unmount, err := c.Mount(ctx, query.FilesKey("default"), fn)
	require.NoError(t, err)
	assert.Equal(t, "1", string(raw))

	require.NoError(t, c.InvalidateQueries(ctx, query.FilesKey("default")))
	raw, cached := c.Data(ctx, query.FilesKey("default"))
	assert.True(t, cached)
	assert.Equal(t, "2", string(raw))

	unmount()
	require.NoError(t, c.InvalidateQueries(ctx, query.FilesKey("default")))
	_, cached = c.Data(ctx, query.FilesKey("default"))
	assert.False(t, cached)
}

func TestClient_RefetchTriggersDisabled(t *testing.T) {
	c := query.CreateQueryClient()
	ctx := context.Background()

	var calls int32
	fn := func(ctx context.Context) (any, error) {
		return atomic.AddInt32(&calls, 1), nil
	}

	_, unmount, err := c.Mount(ctx, query.CatalogKey("default"), fn)
	require.NoError(t, err)
	defer unmount()

	_, unmount2, err := c.Mount(ctx, query.CatalogKey("default"), fn)
	require.NoError(t, err)
	defer unmount2()

	require.NoError(t, c.Reconnect(ctx))
	require.NoError(t, c.WindowFocus(ctx))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_RefetchTriggersEnabled(t *testing.T) {
	c := query.NewClient()
	ctx := context.Background()

	var calls int32
	fn := func(ctx context.Context) (any, error) {
		return atomic.AddInt32(&calls, 1), nil
	}

	_, unmount, err := c.Mount(ctx, query.CatalogKey("default"), fn)
	require.NoError(t, err)
	defer unmount()

	require.NoError(t, c.Reconnect(ctx))
	require.NoError(t, c.WindowFocus(ctx))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestKey_RoundTripWithSlashes(t *testing.T) {
	k := query.FileKey("default", "/sources/orders.yaml")
	parsed, err := query.ParseKey(k.String())
	require.NoError(t, err)
	assert.Equal(t, k, parsed)
	assert.True(t, k.HasPrefix(query.Key{"file", "default"}))
	assert.False(t, k.HasPrefix(query.Key{"file", "other"}))
}
