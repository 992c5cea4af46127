package domain

import (
	"fmt"
	"path"
	"strings"
)

// EntityType is the kind of a workbench entity.
type EntityType string

const (
	EntityTable             EntityType = "Table"
	EntityModel             EntityType = "Model"
	EntityMetricsDefinition EntityType = "MetricsDefinition"
	EntityMetricsExplorer   EntityType = "MetricsExplorer"
	EntityApplication       EntityType = "Application"
)

// EntityTypes lists every known entity kind.
var EntityTypes = []EntityType{
	EntityTable,
	EntityModel,
	EntityMetricsDefinition,
	EntityMetricsExplorer,
	EntityApplication,
}

// Valid reports whether t is one of the known entity kinds.
func (t EntityType) Valid() bool {
	for _, known := range EntityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseEntityType converts a string (case-insensitive) into an EntityType.
func ParseEntityType(s string) (EntityType, error) {
	for _, known := range EntityTypes {
		if strings.EqualFold(string(known), s) {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntityType, s)
}

// artifact layout per entity kind: folder, file extension and route segment.
type artifactLayout struct {
	folder string
	ext    string
	route  string
}

var layouts = map[EntityType]artifactLayout{
	EntityTable:             {folder: "sources", ext: ".yaml", route: "source"},
	EntityModel:             {folder: "models", ext: ".sql", route: "model"},
	EntityMetricsDefinition: {folder: "dashboards", ext: ".yaml", route: "dashboard"},
}

// FilePathFromNameAndType returns the deterministic artifact path of an entity.
// Kinds without a backing file return an empty string.
func FilePathFromNameAndType(name string, t EntityType) string {
	l, ok := layouts[t]
	if !ok {
		return ""
	}
	return "/" + l.folder + "/" + name + l.ext
}

// NameFromFilePath returns the entity name encoded in an artifact path.
func NameFromFilePath(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// EntityTypeFromPath infers the entity kind from the artifact folder.
func EntityTypeFromPath(p string) (EntityType, bool) {
	clean := strings.TrimPrefix(path.Clean("/"+p), "/")
	folder, _, found := strings.Cut(clean, "/")
	if !found {
		return "", false
	}
	for t, l := range layouts {
		if l.folder == folder {
			return t, true
		}
	}
	return "", false
}

// RouteFromNameAndType returns the canonical UI location of an entity.
func RouteFromNameAndType(name string, t EntityType) string {
	l, ok := layouts[t]
	if !ok {
		return "/"
	}
	return "/" + l.route + "/" + name
}

// ParseRoute is the inverse of RouteFromNameAndType.
func ParseRoute(route string) (string, EntityType, error) {
	trimmed := strings.Trim(route, "/")
	segment, name, found := strings.Cut(trimmed, "/")
	if !found || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownRoute, route)
	}
	for t, l := range layouts {
		if l.route == segment {
			return name, t, nil
		}
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnknownRoute, route)
}
