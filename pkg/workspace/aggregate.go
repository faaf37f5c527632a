package workspace

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/home-lang/pantry-sub012/pkg/installer"
)

// ResolvedDep is one dependency entry after catalog substitution and
// override application, ready for dedup and resolution.
type ResolvedDep struct {
	Name        string
	VersionSpec string
}

// Key is the dedup identity "{name}@{version}" (§4.9).
func (d ResolvedDep) Key() string {
	return d.Name + "@" + d.VersionSpec
}

// Dedup collapses deps from every member into a single set keyed by
// "{name}@{version}" (§4.9).
func Dedup(deps []ResolvedDep) []ResolvedDep {
	seen := map[string]bool{}
	var out []ResolvedDep
	for _, d := range deps {
		key := d.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out
}

// IsWorkspaceRef reports whether versionSpec is a "workspace:*" reference,
// which is wired by symlink rather than resolved and installed (§4.9).
func IsWorkspaceRef(versionSpec string) bool {
	return strings.HasPrefix(versionSpec, "workspace:")
}

// LinkWorkspaceMember symlinks a workspace member under
// "<root>/pantry/<published-name>", using the atomic-symlink protocol
// shared with downloaded-package installs (§4.9). Scoped names
// ("@scope/name") produce a nested directory, since PublishDir returns the
// name unchanged and filepath.Join below splits on "/" naturally.
func LinkWorkspaceMember(root string, m Member, logger *slog.Logger) error {
	memberAbs := filepath.Join(root, m.Path)
	dst := filepath.Join(root, "pantry", filepath.FromSlash(PublishDir(m.Name)))

	if err := ensureParentDir(dst); err != nil {
		return err
	}
	if err := installer.AtomicSymlink(memberAbs, dst); err != nil {
		return errors.Wrapf(err, "linking workspace member %s", m.Name)
	}
	if logger != nil {
		logger.Debug("linked workspace member", "name", m.Name, "path", m.Path)
	}
	return nil
}

func ensureParentDir(dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrapf(err, "creating parent directory for %s", dst)
	}
	return nil
}
