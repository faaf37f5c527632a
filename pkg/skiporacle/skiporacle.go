// Package skiporacle implements the Skip Oracle (spec §4.3): the decision
// of whether a dependency can be left untouched given lockfile and on-disk
// state, called both on the whole-set fast path and per task inside workers.
package skiporacle

import (
	"os"
	"path/filepath"

	"github.com/home-lang/pantry-sub012/pkg/dependency"
	"github.com/home-lang/pantry-sub012/pkg/lockfile"
)

// stackBudget is the size of the scratch buffer used to assemble the
// lockfile key before falling back to a heap-allocated builder. Go gives no
// control over actual stack placement; this fixed-size array stands in for
// the budget described in spec.md §8 (see DESIGN.md's Open Question note).
const stackBudget = 512

// assembleKey builds "{clean_name}@{version_spec}" using a fixed-size
// scratch buffer when it fits, falling back to ordinary string
// concatenation (which the Go runtime may place on the heap) otherwise.
func assembleKey(cleanName, versionSpec string) string {
	need := len(cleanName) + 1 + len(versionSpec)
	if need <= stackBudget {
		var buf [stackBudget]byte
		n := copy(buf[:], cleanName)
		buf[n] = '@'
		n++
		n += copy(buf[n:], versionSpec)
		return string(buf[:n])
	}
	return cleanName + "@" + versionSpec
}

// CanSkip implements the §4.3 predicate: the lockfile has a matching entry
// at the dependency's key, that entry's name/version agree with the clean
// name and version spec, and the on-disk package directory is accessible.
func CanSkip(dep dependency.Dependency, lf *lockfile.Lockfile, projectDir string) bool {
	if lf == nil {
		return false
	}
	clean := dep.CleanName()
	key := assembleKey(clean, dep.VersionSpec)

	entry, ok := lf.Packages[key]
	if !ok {
		return false
	}
	if entry.Name != clean || entry.Version != dep.VersionSpec {
		return false
	}

	pkgDir := filepath.Join(projectDir, "pantry", clean)
	// access(), not a full stat: existence only, no content verification.
	if _, err := os.Lstat(pkgDir); err != nil {
		return false
	}
	return true
}
