package installer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
)

// maxBinWalkDepth caps how deep executable discovery walks below a
// package's install root (§4.4(b), §8).
const maxBinWalkDepth = 8

// discoverExecutables walks root up to maxBinWalkDepth levels deep looking
// for any directory named "bin", then returns the path of every regular
// file or symlink directly inside each one found. Grounded on
// github.com/karrick/godirwalk (vendored by golang-dep), whose Walk callback
// gives cheap access to each Dirent's type without an extra stat.
// DiscoverExecutables is the exported form of discoverExecutables, used by
// pkg/local to find executables under a local/linked dependency's own
// build-output directory (e.g. "zig-out/bin") rather than a downloaded
// package's install root.
func DiscoverExecutables(root string) ([]string, error) {
	return discoverExecutables(root)
}

func discoverExecutables(root string) ([]string, error) {
	var found []string

	err := godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			depth := depthBelow(root, path)
			if depth > maxBinWalkDepth {
				return filepath.SkipDir
			}
			if de.IsDir() && filepath.Base(path) == "bin" {
				entries, err := godirwalk.ReadDirents(path, nil)
				if err != nil {
					return errors.Wrapf(err, "reading bin dir %s", path)
				}
				for _, entry := range entries {
					if entry.IsRegular() || entry.IsSymlink() {
						found = append(found, filepath.Join(path, entry.Name()))
					}
				}
				return filepath.SkipDir // don't descend into a bin/ we've already harvested
			}
			return nil
		},
		ErrorCallback: func(_ string, err error) godirwalk.ErrorAction {
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking %s for executables", root)
	}
	return found, nil
}

func depthBelow(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// LinkExecutables is the exported form of linkExecutables, reused by
// pkg/local for its own bin-linking step (§4.8 step 4).
func LinkExecutables(executables []string, binDir string) error {
	return linkExecutables(executables, binDir)
}

// linkExecutables chmods each discovered executable to 0755 and
// atomic-symlinks it into binDir under its basename (§4.4(b)).
func linkExecutables(executables []string, binDir string) error {
	for _, exe := range executables {
		if err := os.Chmod(exe, 0o755); err != nil {
			return errors.Wrapf(err, "chmod 0755 %s", exe)
		}
		dst := filepath.Join(binDir, filepath.Base(exe))
		if err := AtomicSymlink(exe, dst); err != nil {
			return err
		}
	}
	return nil
}
