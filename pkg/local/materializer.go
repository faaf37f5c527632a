// Package local implements the Local/Link Materializer (spec §4.8): the
// sequential, non-pooled path that wires filesystem-path and link:
// dependencies into a project without going through the Resolver, Download
// Cache, or Worker Pool at all.
package local

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/home-lang/pantry-sub012/pkg/installer"
)

// Materializer resolves link:<name> and literal filesystem-path
// dependencies directly against disk, bypassing remote resolution entirely.
type Materializer struct {
	// LinksDir is "~/.pantry/links", where the companion `link` command
	// registers link:<name> targets as symlinks.
	LinksDir string
	Logger   *slog.Logger
}

// New constructs a Materializer rooted at the given links directory.
func New(linksDir string, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{LinksDir: linksDir, Logger: logger}
}

// Result mirrors installer.Result's shape for the orchestrator's benefit,
// since a materialized local dependency occupies the same lockfile and
// checkpoint slots a resolved-and-installed one would.
type Result struct {
	PackageName string
	InstallDir  string
}

// ResolvePath turns a dependency's VersionSpec into the absolute filesystem
// path it designates: link:<name> indirects through LinksDir; "~/", "/",
// "./", "../" specs are literal paths, expanded relative to projectDir where
// relevant.
func (m *Materializer) ResolvePath(versionSpec, projectDir string) (string, error) {
	switch {
	case strings.HasPrefix(versionSpec, "link:"):
		name := strings.TrimPrefix(versionSpec, "link:")
		return filepath.Join(m.LinksDir, name), nil
	case strings.HasPrefix(versionSpec, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "resolving home directory for ~ path")
		}
		return filepath.Join(home, strings.TrimPrefix(versionSpec, "~/")), nil
	case strings.HasPrefix(versionSpec, "/"):
		return versionSpec, nil
	case strings.HasPrefix(versionSpec, "./"), strings.HasPrefix(versionSpec, "../"):
		return filepath.Join(projectDir, versionSpec), nil
	default:
		return "", errors.Errorf("not a local dependency spec: %q", versionSpec)
	}
}

// Materialize runs the four steps of §4.8 for one local dependency. It is
// always called sequentially by the orchestrator, never from the worker
// pool: the work is microsecond-scale filesystem bookkeeping, not I/O worth
// parallelizing.
func (m *Materializer) Materialize(pkgName, versionSpec, projectDir, envBinDir string) (*Result, error) {
	localPath, err := m.ResolvePath(versionSpec, projectDir)
	if err != nil {
		return nil, err
	}

	// Step 1: validate the resolved path exists.
	if _, err := os.Lstat(localPath); err != nil {
		return nil, errors.Wrapf(err, "local dependency %s: path %s does not exist", pkgName, localPath)
	}

	pkgDir := filepath.Join(projectDir, "pantry", pkgName)
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating %s", pkgDir)
	}

	// Step 2: <project>/pantry/<pkg_name>/src -> <local_path>/src, unless the
	// local package has no src/ directory, which is a warning, not a failure
	// (spec.md §9's design note: some local deps are pure build-output
	// directories with nothing under src/).
	srcPath := filepath.Join(localPath, "src")
	if _, err := os.Lstat(srcPath); err != nil {
		m.Logger.Warn("local dependency has no src directory, skipping src symlink",
			"package", pkgName, "path", srcPath)
	} else {
		if err := installer.AtomicSymlink(srcPath, filepath.Join(pkgDir, "src")); err != nil {
			return nil, errors.Wrapf(err, "linking src for local dependency %s", pkgName)
		}
	}

	// Step 3: <env-bin-dir>/<pkg_name> -> <local_path>, for convenience.
	if envBinDir != "" {
		if err := os.MkdirAll(envBinDir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "creating env bin dir %s", envBinDir)
		}
		if err := installer.AtomicSymlink(localPath, filepath.Join(envBinDir, pkgName)); err != nil {
			return nil, errors.Wrapf(err, "linking env convenience symlink for %s", pkgName)
		}
	}

	// Step 4: symlink any executables under <local_path>/zig-out/bin (or
	// an analogous "bin" dir at any depth) into <project>/pantry/.bin.
	executables, err := installer.DiscoverExecutables(localPath)
	if err != nil {
		return nil, errors.Wrapf(err, "discovering executables for local dependency %s", pkgName)
	}
	if len(executables) > 0 {
		projectBinDir := filepath.Join(projectDir, "pantry", ".bin")
		if err := os.MkdirAll(projectBinDir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "creating project bin dir %s", projectBinDir)
		}
		if err := installer.LinkExecutables(executables, projectBinDir); err != nil {
			return nil, errors.Wrapf(err, "linking executables for local dependency %s", pkgName)
		}
	}

	return &Result{PackageName: pkgName, InstallDir: pkgDir}, nil
}
