// Package invalidation drops cached query results made stale by a reconcile.
package invalidation

import (
	"context"
	"errors"

	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/aretw0/rillweb/pkg/query"
)

// InvalidateAfterReconcile invalidates the file and catalog listings of the
// instance, then every query tied to an affected path.
func InvalidateAfterReconcile(ctx context.Context, client *query.Client, instanceID string, resp *domain.ReconcileResponse) error {
	keys := []query.Key{
		query.FilesKey(instanceID),
		query.CatalogKey(instanceID),
	}
	if resp != nil {
		for _, p := range resp.AffectedPaths {
			keys = append(keys, affectedKeys(instanceID, p)...)
		}
	}

	var errs []error
	for _, k := range keys {
		if err := client.InvalidateQueries(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func affectedKeys(instanceID, path string) []query.Key {
	name := domain.NameFromFilePath(path)
	keys := []query.Key{
		query.FileKey(instanceID, path),
		query.CatalogEntryKey(instanceID, name),
	}

	typ, ok := domain.EntityTypeFromPath(path)
	if !ok {
		return keys
	}
	switch typ {
	case domain.EntityTable, domain.EntityModel:
		keys = append(keys, query.TableQueriesKey(instanceID, name))
	case domain.EntityMetricsDefinition:
		keys = append(keys, query.MetricsViewQueriesKey(instanceID, name))
	}
	return keys
}

// Invalidator adapts InvalidateAfterReconcile to ports.CacheInvalidator.
type Invalidator struct {
	Client *query.Client
}

// InvalidateAfterReconcile implements ports.CacheInvalidator.
func (i Invalidator) InvalidateAfterReconcile(ctx context.Context, instanceID string, resp *domain.ReconcileResponse) error {
	return InvalidateAfterReconcile(ctx, i.Client, instanceID, resp)
}
