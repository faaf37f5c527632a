// Package pkgspec defines the resolved, installable form of a dependency.
package pkgspec

// Source identifies where a PackageSpec's artifact ultimately comes from.
type Source string

const (
	SourceBuiltinRegistry Source = "builtin_registry"
	SourceNPM             Source = "npm"
	SourcePantryS3        Source = "pantry_s3"
	SourceGitHub          Source = "github"
	SourceHTTP            Source = "http"
	SourceZiglang         Source = "ziglang"
	SourceLocal           Source = "local"
)

// PackageSpec is the output of the Resolver: a concrete, fetchable package.
type PackageSpec struct {
	Name    string
	Version string
	Source  Source

	// URL is the tarball/archive fetch location for registry-backed sources.
	URL string
	// Repo is the owner/repo pair for SourceGitHub; Ref holds the resolved
	// commit-ish.
	Repo string
	Ref  string

	// Integrity is a content hash of the fetched artifact, populated after
	// the Package Download Cache resolves it; empty until then.
	Integrity string
}

// Key is the lockfile identity key "{name}@{version}" (§3).
func (p PackageSpec) Key() string {
	return p.Name + "@" + p.Version
}
