// Package depsfile reads a project's declared dependencies from whichever
// of pantry.json, pantry.jsonc, or package.json is present (spec §6),
// recognizing the superset of fields either format may carry.
package depsfile

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// CandidateNames is the set of deps file names checked, in priority order,
// at a project root.
var CandidateNames = []string{"pantry.json", "pantry.jsonc", "package.json"}

// DepsFile is the recognized-fields superset of a project's dependency
// declaration (§6).
type DepsFile struct {
	Dependencies        map[string]string            `json:"dependencies"`
	DevDependencies     map[string]string            `json:"devDependencies"`
	PeerDependencies    map[string]string            `json:"peerDependencies"`
	Scripts             map[string]string            `json:"scripts"`
	TrustedDependencies []string                      `json:"trustedDependencies"`
	Overrides           map[string]string            `json:"overrides"`
	Workspaces          []string                      `json:"workspaces"`
	Catalog             map[string]string            `json:"catalog"`
	Catalogs            map[string]map[string]string `json:"catalogs"`

	// Path is the file this was loaded from, kept for diagnostics and for
	// deps-hash computation (§3).
	Path string `json:"-"`
}

// Locate finds the first candidate deps file present in dir, in
// CandidateNames priority order. It returns "", false if none exist.
func Locate(dir string) (string, bool) {
	for _, name := range CandidateNames {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// Load reads and parses the deps file at path. Comments are stripped before
// unmarshaling regardless of extension, since pantry.json tolerates the
// same JSONC superset pantry.jsonc does (§6).
func Load(path string) (*DepsFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading deps file %s", path)
	}

	var df DepsFile
	if err := json.Unmarshal(stripJSONComments(raw), &df); err != nil {
		return nil, errors.Wrapf(err, "parsing deps file %s", path)
	}
	df.Path = path
	return &df, nil
}

// AllDependencies merges Dependencies, and optionally DevDependencies and
// PeerDependencies, into one name->version-spec map. Later maps don't
// override earlier ones on conflict; the first declaration wins, matching
// how a project would expect its own dependencies field to take precedence
// over a peer declaration of the same name.
func (df *DepsFile) AllDependencies(includeDev, includePeer bool) map[string]string {
	out := make(map[string]string, len(df.Dependencies))
	for name, spec := range df.Dependencies {
		out[name] = spec
	}
	if includeDev {
		for name, spec := range df.DevDependencies {
			if _, exists := out[name]; !exists {
				out[name] = spec
			}
		}
	}
	if includePeer {
		for name, spec := range df.PeerDependencies {
			if _, exists := out[name]; !exists {
				out[name] = spec
			}
		}
	}
	return out
}

// CatalogSet builds a workspace.Catalog-shaped map (named catalog -> dep ->
// version) from the file's "catalog" (default set) and "catalogs" (named
// sets) fields.
func (df *DepsFile) CatalogSet() map[string]map[string]string {
	out := map[string]map[string]string{}
	if len(df.Catalog) > 0 {
		out["default"] = df.Catalog
	}
	for name, set := range df.Catalogs {
		out[name] = set
	}
	return out
}
