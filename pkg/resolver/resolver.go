// Package resolver implements the Resolver component (spec §4.1): turning a
// declared Dependency into a concrete PackageSpec by walking a fixed
// decision order across the built-in registry, the Pantry S3 registry, and
// the npm registry, with in-flight deduplication across concurrent callers.
package resolver

import (
	"context"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/home-lang/pantry-sub012/pkg/dependency"
	"github.com/home-lang/pantry-sub012/pkg/pkgspec"
)

// Resolver resolves Dependencies to PackageSpecs. It is safe for concurrent
// use: the Worker Pool calls Resolve from many goroutines, and the
// coordinator folds concurrent requests for the same key together.
type Resolver struct {
	Builtin BuiltinRegistry
	S3      KVCatalog
	NPM     NPMRegistry

	coord *coordinator
}

// New constructs a Resolver. Any of the registry collaborators may be nil;
// a nil collaborator is treated as "has nothing", and resolution falls
// through to the next source in the decision order.
func New(builtin BuiltinRegistry, s3 KVCatalog, npm NPMRegistry) *Resolver {
	return &Resolver{Builtin: builtin, S3: s3, NPM: npm, coord: newCoordinator()}
}

// Resolve implements the §4.1 decision order for a single dependency. Local
// and link: dependencies are handled by pkg/local, never by Resolve.
func (r *Resolver) Resolve(ctx context.Context, dep dependency.Dependency) (pkgspec.PackageSpec, error) {
	key := dep.Name + "@" + dep.VersionSpec
	return r.coord.do(key, func() (pkgspec.PackageSpec, error) {
		return r.resolveOnce(ctx, dep)
	})
}

func (r *Resolver) resolveOnce(ctx context.Context, dep dependency.Dependency) (pkgspec.PackageSpec, error) {
	clean := dep.CleanName()

	if dep.GitHubRef != nil {
		return resolveGitHub(*dep.GitHubRef)
	}

	// Step 1: zig/ziglang dev-build pattern.
	if isZigName(clean) && isZigDevBuild(dep.VersionSpec) {
		return pkgspec.PackageSpec{
			Name:    clean,
			Version: dep.VersionSpec,
			Source:  pkgspec.SourceZiglang,
		}, nil
	}

	// Step 2: built-in registry.
	if r.Builtin != nil {
		if version, ok := r.Builtin.Lookup(clean); ok {
			return pkgspec.PackageSpec{
				Name:    clean,
				Version: version,
				Source:  pkgspec.SourceBuiltinRegistry,
			}, nil
		}
	}

	// Step 3: Pantry S3 registry.
	if r.S3 != nil {
		entry, err := r.S3.Get(ctx, clean)
		if err == nil && entry != nil {
			if verr := validateTarballScheme(entry.TarballURL); verr != nil {
				return pkgspec.PackageSpec{}, newError(KindInvalidTarballSpec, clean, entry.TarballURL, verr)
			}
			return pkgspec.PackageSpec{
				Name:    clean,
				Version: entry.Version,
				Source:  pkgspec.SourcePantryS3,
				URL:     entry.TarballURL,
			}, nil
		}
	}

	// Step 4: npm registry.
	if r.NPM != nil {
		meta, err := r.NPM.FetchPackageMeta(ctx, clean)
		if err == nil && meta != nil {
			version, tarball, nerr := pickNPMVersion(meta, dep.VersionSpec)
			if nerr != nil {
				return pkgspec.PackageSpec{}, newError(KindNoTarballURL, clean, nerr.Error(), nerr)
			}
			if verr := validateTarballScheme(tarball); verr != nil {
				return pkgspec.PackageSpec{}, newError(KindInvalidTarballSpec, clean, tarball, verr)
			}
			return pkgspec.PackageSpec{
				Name:    clean,
				Version: version,
				Source:  pkgspec.SourceNPM,
				URL:     tarball,
			}, nil
		}
	}

	// Step 5: nothing found.
	return pkgspec.PackageSpec{}, newError(KindPackageNotFound, clean, "not found in pantry or npm registry", nil)
}

// pickNPMVersion resolves dep.VersionSpec against meta's dist-tags and
// available versions, per §4.1: "latest" (or any dist-tag name) maps
// directly, otherwise the highest version satisfying the semver constraint
// wins.
func pickNPMVersion(meta *NPMPackageMeta, versionSpec string) (version, tarball string, err error) {
	spec := strings.TrimSpace(versionSpec)
	if spec == "" {
		spec = "latest"
	}

	if tag, ok := meta.DistTags[spec]; ok {
		spec = tag
	}

	if vm, ok := meta.Versions[spec]; ok {
		if vm.Dist.Tarball == "" {
			return "", "", errors.Errorf("npm response lacked a valid dist.tarball for %s", spec)
		}
		return spec, vm.Dist.Tarball, nil
	}

	versions := make([]string, 0, len(meta.Versions))
	for v := range meta.Versions {
		versions = append(versions, v)
	}
	best, err := highestSatisfying(versions, spec)
	if err != nil {
		return "", "", err
	}
	vm := meta.Versions[best]
	if vm.Dist.Tarball == "" {
		return "", "", errors.Errorf("npm response lacked a valid dist.tarball for %s", best)
	}
	return best, vm.Dist.Tarball, nil
}

// validateTarballScheme enforces §4.1's "only http:// and https:// accepted"
// rule, rejecting file:// and any other scheme.
func validateTarballScheme(tarballURL string) error {
	u, err := url.Parse(tarballURL)
	if err != nil {
		return errors.Wrapf(err, "invalid tarball URL %q", tarballURL)
	}
	switch u.Scheme {
	case "http", "https":
		return nil
	default:
		return errors.Errorf("invalid tarball scheme %q", u.Scheme)
	}
}
