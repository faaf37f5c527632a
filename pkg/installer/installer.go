// Package installer implements the Package Installer component (spec §4.4):
// materializing one resolved PackageSpec into the project environment by
// fetching through the cache, extracting, discovering and linking
// executables, and running its post-install script through the Lifecycle
// Gate.
package installer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/home-lang/pantry-sub012/pkg/pkgspec"
)

// LifecycleGate is the narrow slice of the Lifecycle Gate (pkg/lifecycle)
// the installer needs: running a package's post-install script if it is
// trusted. Accepting this interface here, rather than importing
// pkg/lifecycle's concrete type, keeps the installer free of the gate's
// trust-list and PATH-synthesis internals.
type LifecycleGate interface {
	RunPostInstall(ctx context.Context, pkgName, installDir, script string) error
}

// Installer materializes PackageSpecs into a project's pantry/ directory.
type Installer struct {
	Cache     DownloadCache
	Extractor Extractor
	Gate      LifecycleGate
	Offline   bool
}

// Result is what one successful Install call produces.
type Result struct {
	InstalledVersion string
	InstallPath      string
}

// CanonicalInstallPath returns the source-dependent install path under
// pantryDir for spec (§4.4: "e.g. pantry/github.com/<owner>/<repo>/<ref>").
func CanonicalInstallPath(pantryDir string, spec pkgspec.PackageSpec) string {
	switch spec.Source {
	case pkgspec.SourceGitHub:
		return filepath.Join(pantryDir, "github.com", spec.Repo, spec.Ref)
	default:
		return filepath.Join(pantryDir, spec.Name)
	}
}

// Install runs the §4.4 pipeline for one package: offline branch when
// Offline is set, otherwise fetch-extract-link-lifecycle, returning the
// install path and resolved version, or a typed *Error. ignoreScripts
// mirrors --ignore-scripts: when set, the post-install script is never
// read or run.
func (in *Installer) Install(ctx context.Context, spec pkgspec.PackageSpec, pantryDir, binDir string, ignoreScripts bool) (Result, error) {
	installPath := CanonicalInstallPath(pantryDir, spec)

	if in.Offline {
		res, err := in.installOffline(spec, installPath)
		if err != nil {
			return res, err
		}
		if err := in.runPostInstall(ctx, spec.Name, installPath, ignoreScripts); err != nil {
			return Result{}, err
		}
		return res, nil
	}

	if in.Cache == nil {
		return Result{}, newError(KindIOError, spec.Name, "no download cache configured", nil)
	}

	archivePath, err := in.Cache.Fetch(ctx, spec.Name, spec.Version, spec.URL)
	if err != nil {
		return Result{}, newError(KindNetworkError, spec.Name, err.Error(), err)
	}

	if in.Extractor == nil {
		return Result{}, newError(KindExtractionError, spec.Name, "no extractor configured", nil)
	}
	if err := in.Extractor.Extract(archivePath, installPath); err != nil {
		return Result{}, newError(KindExtractionError, spec.Name, err.Error(), err)
	}

	executables, err := discoverExecutables(installPath)
	if err != nil {
		return Result{}, newError(KindIOError, spec.Name, err.Error(), err)
	}
	if err := linkExecutables(executables, binDir); err != nil {
		return Result{}, newError(KindSymlinkError, spec.Name, err.Error(), err)
	}

	if err := in.runPostInstall(ctx, spec.Name, installPath, ignoreScripts); err != nil {
		return Result{}, err
	}

	return Result{InstalledVersion: spec.Version, InstallPath: installPath}, nil
}

func (in *Installer) installOffline(spec pkgspec.PackageSpec, installPath string) (Result, error) {
	cached, ok := in.Cache.Lookup(spec.Name, spec.Version)
	if !ok {
		return Result{}, newError(KindOfflineCacheMiss, spec.Name, "artifact not present in local cache", nil)
	}
	if err := copyTree(cached, installPath); err != nil {
		return Result{}, newError(KindIOError, spec.Name, errors.Wrap(err, "offline install copy").Error(), err)
	}
	return Result{InstalledVersion: spec.Version, InstallPath: installPath}, nil
}

// runPostInstall reads the extracted package's own postinstall script
// (package.json's "scripts.postinstall") and runs it through the Gate,
// which itself decides trust (§4.4(c), §4.6).
func (in *Installer) runPostInstall(ctx context.Context, pkgName, installPath string, ignoreScripts bool) error {
	if ignoreScripts || in.Gate == nil {
		return nil
	}
	script, err := readPostInstallScript(installPath)
	if err != nil {
		return newError(KindIOError, pkgName, err.Error(), err)
	}
	if script == "" {
		return nil
	}
	if err := in.Gate.RunPostInstall(ctx, pkgName, installPath, script); err != nil {
		return newError(KindLifecycleScriptFailed, pkgName, err.Error(), err)
	}
	return nil
}

// readPostInstallScript reads scripts.postinstall out of the package's own
// extracted package.json. A missing package.json is not an error: plenty
// of packages (especially local/link ones reusing this helper's sibling in
// pkg/local) have no manifest at all.
func readPostInstallScript(installPath string) (string, error) {
	data, err := os.ReadFile(filepath.Join(installPath, "package.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.Wrap(err, "reading package.json for postinstall script")
	}
	var pkg struct {
		Scripts struct {
			PostInstall string `json:"postinstall"`
		} `json:"scripts"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return "", errors.Wrap(err, "parsing package.json for postinstall script")
	}
	return pkg.Scripts.PostInstall, nil
}
