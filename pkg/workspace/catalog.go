package workspace

import (
	"log/slog"
	"strings"
)

// Catalog is a named version set declared at the workspace root, referenced
// by members as "catalog:<name>" or the bare "catalog:" default (§4.9).
type Catalog map[string]map[string]string // catalog name -> dep name -> version

// defaultCatalogName is the catalog a bare "catalog:" reference resolves
// against.
const defaultCatalogName = "default"

// Resolve substitutes a "catalog:" or "catalog:<name>" versionSpec with the
// concrete version registered for depName in the named catalog. An
// unresolved reference (unknown catalog, or depName missing from it)
// returns ok=false; the caller skips that dependency with a warning rather
// than failing the whole aggregation (§4.9).
func (c Catalog) Resolve(depName, versionSpec string, logger *slog.Logger) (resolved string, ok bool) {
	name := defaultCatalogName
	if versionSpec != "catalog:" {
		name = trimCatalogPrefix(versionSpec)
	}

	set, found := c[name]
	if !found {
		if logger != nil {
			logger.Warn("unresolved workspace catalog reference", "catalog", name, "dependency", depName)
		}
		return "", false
	}
	version, found := set[depName]
	if !found {
		if logger != nil {
			logger.Warn("dependency not declared in workspace catalog", "catalog", name, "dependency", depName)
		}
		return "", false
	}
	return version, true
}

func trimCatalogPrefix(spec string) string {
	if name := strings.TrimPrefix(spec, "catalog:"); name != "" {
		return name
	}
	return defaultCatalogName
}

// IsCatalogRef reports whether versionSpec is a "catalog:" or
// "catalog:<name>" reference.
func IsCatalogRef(versionSpec string) bool {
	return strings.HasPrefix(versionSpec, "catalog:")
}
