package files_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/aretw0/rillweb/pkg/files"
	"github.com/aretw0/rillweb/pkg/invalidation"
	"github.com/aretw0/rillweb/pkg/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuntime struct {
	mu      sync.Mutex
	paths   []string
	content map[string]string
	lists   int
	gets    int
	err     error
}

func (f *fakeRuntime) ListFiles(_ context.Context, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.err != nil {
		return nil, f.err
	}
	return append([]string(nil), f.paths...), nil
}

func (f *fakeRuntime) GetFile(_ context.Context, _, path string) (*domain.FileContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.FileContent{Path: path, Blob: f.content[path]}, nil
}

func (f *fakeRuntime) setPaths(p ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = p
}

func TestBrowser_ListIsCached(t *testing.T) {
	rt := &fakeRuntime{paths: []string{"/sources/orders.yaml"}}
	b := files.New(query.CreateQueryClient(), rt)
	ctx := context.Background()

	got, err := b.List(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, []string{"/sources/orders.yaml"}, got)

	rt.setPaths("/sources/orders.yaml", "/models/m.sql")
	got, err = b.List(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, []string{"/sources/orders.yaml"}, got)
	assert.Equal(t, 1, rt.lists)
}

func TestBrowser_GetRefetchesAfterReconcile(t *testing.T) {
	rt := &fakeRuntime{content: map[string]string{"/sources/orders.yaml": "type: local_file"}}
	client := query.CreateQueryClient()
	b := files.New(client, rt)
	ctx := context.Background()

	f, err := b.Get(ctx, "default", "/sources/orders.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/sources/orders.yaml", f.Path)
	assert.Equal(t, "type: local_file", f.Blob)

	rt.content["/sources/orders.yaml"] = "type: s3"
	require.NoError(t, invalidation.InvalidateAfterReconcile(ctx, client, "default",
		&domain.ReconcileResponse{AffectedPaths: []string{"/sources/orders.yaml"}}))

	f, err = b.Get(ctx, "default", "/sources/orders.yaml")
	require.NoError(t, err)
	assert.Equal(t, "type: s3", f.Blob)
	assert.Equal(t, 2, rt.gets)
}

func TestBrowser_ErrorsAreNotCached(t *testing.T) {
	rt := &fakeRuntime{err: domain.ErrRuntimeRequest}
	b := files.New(query.CreateQueryClient(), rt)
	ctx := context.Background()

	_, err := b.List(ctx, "default")
	require.ErrorIs(t, err, domain.ErrRuntimeRequest)

	rt.err = nil
	rt.setPaths("/models/m.sql")
	got, err := b.List(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, []string{"/models/m.sql"}, got)
}

func TestBrowser_WatchReceivesRefetchedListing(t *testing.T) {
	rt := &fakeRuntime{paths: []string{"/sources/orders.yaml"}}
	client := query.CreateQueryClient()
	b := files.New(client, rt)
	ctx := context.Background()

	var seen [][]string
	unmount, err := b.Watch(ctx, "default", func(p []string) {
		seen = append(seen, p)
	})
	require.NoError(t, err)

	rt.setPaths("/sources/orders.yaml", "/models/m.sql")
	require.NoError(t, client.InvalidateQueries(ctx, query.FilesKey("default")))

	assert.Equal(t, [][]string{
		{"/sources/orders.yaml"},
		{"/sources/orders.yaml", "/models/m.sql"},
	}, seen)

	unmount()
	rt.setPaths()
	require.NoError(t, client.InvalidateQueries(ctx, query.FilesKey("default")))
	assert.Len(t, seen, 2)
}

func TestBrowser_WatchFailsWhenRuntimeIsDown(t *testing.T) {
	rt := &fakeRuntime{err: errors.New("connection refused")}
	b := files.New(query.CreateQueryClient(), rt)

	called := false
	_, err := b.Watch(context.Background(), "default", func([]string) { called = true })
	require.Error(t, err)
	assert.False(t, called)
}
