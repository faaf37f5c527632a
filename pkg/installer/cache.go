package installer

import "context"

// DownloadCache is the external, content-addressed Package Download Cache
// (spec.md §1, §4.4): given a resolved PackageSpec, it returns a local path
// to the already-fetched artifact. The installer never performs network
// I/O itself; that belongs to this collaborator.
type DownloadCache interface {
	// Fetch returns the local path to the artifact for spec, downloading it
	// first if necessary. The cache guarantees at-most-one concurrent fetch
	// per (name, version) tuple (§5).
	Fetch(ctx context.Context, name, version, url string) (localPath string, err error)

	// Lookup returns the local path to an already-cached artifact without
	// triggering a download, used by the offline branch (§4.4.1). ok is
	// false on a cache miss.
	Lookup(name, version string) (localPath string, ok bool)
}

// Extractor unpacks an artifact at archivePath into destDir. Tarball
// extraction is an external collaborator per spec.md §1.
type Extractor interface {
	Extract(archivePath, destDir string) error
}
