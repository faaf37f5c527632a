package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// diskCache is a minimal content-addressed store for downloaded archives,
// implementing installer.DownloadCache. spec.md §1 names on-disk cache
// storage as an external collaborator the core only consumes through this
// interface; this is the thinnest adapter that makes `pantry install`
// runnable, not a re-implementation of a production cache (no eviction, no
// integrity verification beyond the content-addressed path itself).
type diskCache struct {
	dir string
}

func newDiskCache(dir string) *diskCache {
	return &diskCache{dir: dir}
}

// Fetch downloads url, if not already present, into a path keyed by
// sha256(url), and returns that path.
func (c *diskCache) Fetch(ctx context.Context, name, version, rawURL string) (string, error) {
	if rawURL == "" {
		return "", fmt.Errorf("no tarball URL for %s@%s", name, version)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", err
	}

	sum := sha256.Sum256([]byte(rawURL))
	path := filepath.Join(c.dir, hex.EncodeToString(sum[:])+".archive")
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: %s", rawURL, resp.Status)
	}

	tmp, err := os.CreateTemp(c.dir, ".download-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	return path, nil
}

// Lookup always misses: this minimal adapter never records an
// already-extracted artifact for offline reuse, so --offline installs
// against it always fall through to installer.KindOfflineCacheMiss. A
// production cache would index extracted trees by (name, version) here.
func (c *diskCache) Lookup(name, version string) (string, bool) {
	return "", false
}
