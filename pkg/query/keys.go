package query

// Runtime query keys. The first segment is the runtime endpoint family so that
// invalidation can target one family for one instance.

// FilesKey lists the files of an instance.
func FilesKey(instanceID string) Key {
	return Key{"files", instanceID}
}

// FileKey is the content of one file.
func FileKey(instanceID, path string) Key {
	return Key{"file", instanceID, path}
}

// CatalogKey lists the catalog entries of an instance.
func CatalogKey(instanceID string) Key {
	return Key{"catalog", instanceID}
}

// CatalogEntryKey is one catalog entry.
func CatalogEntryKey(instanceID, name string) Key {
	return Key{"catalog-entry", instanceID, name}
}

// TableQueriesKey prefixes every profiling query run against a table.
func TableQueriesKey(instanceID, table string) Key {
	return Key{"queries", instanceID, "tables", table}
}

// MetricsViewQueriesKey prefixes every query run against a metrics view.
func MetricsViewQueriesKey(instanceID, metricsView string) Key {
	return Key{"queries", instanceID, "metrics-views", metricsView}
}
