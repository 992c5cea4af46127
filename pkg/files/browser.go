// Package files reads the project files of a runtime instance through the query cache.
package files

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/aretw0/rillweb/internal/logging"
	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/aretw0/rillweb/pkg/ports"
	"github.com/aretw0/rillweb/pkg/query"
)

// Browser serves file listings and contents from the query cache, falling back
// to the runtime on a miss. Invalidating the files key refetches watched listings.
type Browser struct {
	client *query.Client
	source ports.FileBrowser
	logger *slog.Logger
}

// Option configures a Browser.
type Option func(*Browser)

// WithLogger configures a logger for the Browser.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Browser) {
		b.logger = logger
	}
}

// New creates a Browser reading from source and caching in client.
func New(client *query.Client, source ports.FileBrowser, opts ...Option) *Browser {
	b := &Browser{
		client: client,
		source: source,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// List returns the file paths of an instance.
func (b *Browser) List(ctx context.Context, instanceID string) ([]string, error) {
	return query.FetchQuery(ctx, b.client, query.FilesKey(instanceID), func(ctx context.Context) ([]string, error) {
		return b.source.ListFiles(ctx, instanceID)
	})
}

// Get returns the content of one file.
func (b *Browser) Get(ctx context.Context, instanceID, path string) (*domain.FileContent, error) {
	return query.FetchQuery(ctx, b.client, query.FileKey(instanceID, path), func(ctx context.Context) (*domain.FileContent, error) {
		return b.source.GetFile(ctx, instanceID, path)
	})
}

// Watch mounts the file listing of an instance. fn receives the initial listing
// and every listing refetched after an invalidation. The returned function unmounts.
func (b *Browser) Watch(ctx context.Context, instanceID string, fn func([]string)) (func(), error) {
	var mounted atomic.Bool
	raw, unmount, err := b.client.Mount(ctx, query.FilesKey(instanceID), func(ctx context.Context) (any, error) {
		paths, err := b.source.ListFiles(ctx, instanceID)
		if err != nil {
			return nil, err
		}
		if mounted.Load() {
			fn(paths)
		}
		return paths, nil
	})
	if err != nil {
		return nil, fmt.Errorf("watch files of %s: %w", instanceID, err)
	}

	var paths []string
	if err := json.Unmarshal(raw, &paths); err != nil {
		unmount()
		return nil, fmt.Errorf("decode files of %s: %w", instanceID, err)
	}
	mounted.Store(true)
	fn(paths)
	b.logger.Debug("Watching files", "instance", instanceID, "count", len(paths))
	return unmount, nil
}
