// Package workspace implements the Workspace Aggregator (spec §4.9):
// discovering workspace members via glob patterns, resolving catalog and
// override references, filtering by name/path pattern, and detecting
// change-affected members against a git ref.
package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// ignoredDirNames are never treated as workspace members even if a glob
// pattern would otherwise match them (§4.9).
var ignoredDirNames = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
}

// Member is one workspace member directory.
type Member struct {
	// Path is the member's directory, relative to the workspace root.
	Path string
	// Name is the published name: package.json's "name" field if present,
	// else the directory's basename (§4.9).
	Name string
}

// DiscoverMembers expands each glob pattern in patterns against root and
// returns every matching directory that is a *valid* member: it contains a
// config file or deps file (hasConfigOrDeps), and isn't under an ignored
// directory name or hidden (dotfile) directory.
func DiscoverMembers(root string, patterns []string, hasConfigOrDeps func(dir string) bool) ([]Member, error) {
	seen := map[string]bool{}
	var members []Member

	for _, pattern := range patterns {
		matches, err := doublestar.Glob(os.DirFS(root), pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "expanding workspace pattern %q", pattern)
		}
		for _, rel := range matches {
			if seen[rel] {
				continue
			}
			abs := filepath.Join(root, rel)
			info, err := os.Stat(abs)
			if err != nil || !info.IsDir() {
				continue
			}
			if isIgnoredPath(rel) {
				continue
			}
			if hasConfigOrDeps != nil && !hasConfigOrDeps(abs) {
				continue
			}
			seen[rel] = true
			members = append(members, Member{
				Path: rel,
				Name: memberName(abs),
			})
		}
	}
	return members, nil
}

// isIgnoredPath reports whether any path segment of rel is an ignored
// directory name or a hidden (dotfile) directory.
func isIgnoredPath(rel string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if seg == "" {
			continue
		}
		if ignoredDirNames[seg] {
			return true
		}
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

// memberName reads package.json's "name" field if present, falling back to
// the directory's basename (§4.9). Scoped names ("@scope/name") are
// returned verbatim; callers that need a nested publish directory split on
// "/" themselves (see PublishDir).
func memberName(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return filepath.Base(dir)
	}
	var pkg struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil || pkg.Name == "" {
		return filepath.Base(dir)
	}
	return pkg.Name
}

// PublishDir returns the path, relative to "<root>/pantry", that a member's
// workspace:* symlink should occupy: scoped names ("@scope/name") produce
// a nested "@scope/name" directory, matching how the npm registry itself
// lays out scoped packages on disk (§4.9).
func PublishDir(name string) string {
	return name
}
