package installer

import (
	"os"
	"strings"

	"github.com/pkg/errors"
)

// AtomicSymlink implements the create-else-unlink-then-create portable
// protocol (spec.md §4.4, §9): attempt symlink(target, dst); on EEXIST,
// unlink(dst) then retry. This is the same "try the cheap op, recover a
// specific errno, retry" shape golang-dep's renameWithFallback uses for
// cross-device renames, applied here to the create-or-replace symlink
// primitive that isn't portable across platforms.
func AtomicSymlink(target, dst string) error {
	if err := validateLinkName(dst); err != nil {
		return err
	}

	err := os.Symlink(target, dst)
	if err == nil {
		return nil
	}
	if !os.IsExist(err) {
		return errors.Wrapf(err, "symlinking %s -> %s", dst, target)
	}

	if rmErr := os.Remove(dst); rmErr != nil && !os.IsNotExist(rmErr) {
		return errors.Wrapf(rmErr, "removing existing entry at %s before relinking", dst)
	}
	if err := os.Symlink(target, dst); err != nil {
		return errors.Wrapf(err, "symlinking %s -> %s after clearing existing entry", dst, target)
	}
	return nil
}

// validateLinkName rejects destination basenames containing '/', '..', or a
// backslash, and rejects the reserved single-dot name (§4.4), guarding
// against escaping the containing directory or colliding with reserved
// directory entries.
func validateLinkName(dst string) error {
	base := baseName(dst)
	if base == "" {
		return errors.New("symlink destination has empty basename")
	}
	if strings.Contains(base, "/") || strings.Contains(base, "\\") {
		return errors.Errorf("invalid symlink destination name %q: contains a path separator", base)
	}
	if base == "." || base == ".." || strings.Contains(base, "..") {
		return errors.Errorf("invalid symlink destination name %q: contains '..'", base)
	}
	return nil
}

func baseName(p string) string {
	i := strings.LastIndexAny(p, "/\\")
	if i < 0 {
		return p
	}
	return p[i+1:]
}
