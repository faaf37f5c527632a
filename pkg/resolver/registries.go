package resolver

import "context"

// BuiltinRegistry is the built-in package registry data, an external
// collaborator per spec.md §1. It answers whether a name is one of
// Pantry's known built-in packages and, if so, what version to pin it to.
type BuiltinRegistry interface {
	Lookup(name string) (version string, ok bool)
}

// KVCatalog is the external K/V catalog backing the Pantry S3 registry
// (§4.1 step 3): "one GET via the external K/V catalog".
type KVCatalog interface {
	Get(ctx context.Context, name string) (*S3Entry, error)
}

// S3Entry is what the Pantry S3 registry returns for a package name.
type S3Entry struct {
	Version    string
	TarballURL string
}

// NPMRegistry is the external npm registry transport (§4.1 step 4, §6).
// The core never makes the HTTP call itself - that belongs to the
// TLS/HTTP transport collaborator named out of scope in spec.md §1 - it
// only consumes the parsed response shape below.
type NPMRegistry interface {
	FetchPackageMeta(ctx context.Context, name string) (*NPMPackageMeta, error)
}

// NPMPackageMeta is the subset of an npm registry response the Resolver
// needs: dist-tags and, per version, the tarball URL.
type NPMPackageMeta struct {
	DistTags map[string]string // e.g. "latest" -> "4.17.21"
	Versions map[string]NPMVersionMeta
}

type NPMVersionMeta struct {
	Dist struct {
		Tarball string
	}
}
