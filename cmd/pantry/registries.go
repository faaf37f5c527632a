package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/home-lang/pantry-sub012/pkg/resolver"
)

// builtinRegistry is a minimal stand-in for the built-in package registry
// data spec.md §1 names as an external collaborator: a generated,
// versioned catalog of well-known packages compiled into the real binary.
// This core ships none of that data; it only implements the narrow
// resolver.BuiltinRegistry interface so the CLI has something to query.
type builtinRegistry struct{}

func (builtinRegistry) Lookup(name string) (string, bool) {
	return "", false
}

// httpClient is shared by every registry/cache adapter below. spec.md §1
// names "TLS/HTTP transport" as an external collaborator; net/http is the
// only transport available in the pack for a plain REST GET (go-git's own
// HTTP transport is internal to its git-protocol client and isn't reusable
// here), so it is used directly rather than reimplemented.
var httpClient = &http.Client{Timeout: 30 * time.Second}

// npmRegistry queries the public npm registry (spec §4.1 step 4, §6).
type npmRegistry struct {
	baseURL string
}

func newNPMRegistry() *npmRegistry {
	return &npmRegistry{baseURL: "https://registry.npmjs.org"}
}

func (n *npmRegistry) FetchPackageMeta(ctx context.Context, name string) (*resolver.NPMPackageMeta, error) {
	reqURL := n.baseURL + "/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("npm registry returned %s for %s", resp.Status, name)
	}

	var raw struct {
		DistTags map[string]string `json:"dist-tags"`
		Versions map[string]struct {
			Dist struct {
				Tarball string `json:"tarball"`
			} `json:"dist"`
		} `json:"versions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	meta := &resolver.NPMPackageMeta{
		DistTags: raw.DistTags,
		Versions: make(map[string]resolver.NPMVersionMeta, len(raw.Versions)),
	}
	for v, vm := range raw.Versions {
		var entry resolver.NPMVersionMeta
		entry.Dist.Tarball = vm.Dist.Tarball
		meta.Versions[v] = entry
	}
	return meta, nil
}

// s3Catalog queries the Pantry S3 registry (spec §4.1 step 3, §6: "one GET
// via the external K/V catalog", URL pattern
// https://pantry-registry.s3.<region>.amazonaws.com/<s3-path>).
type s3Catalog struct {
	region string
}

func newS3Catalog() *s3Catalog {
	return &s3Catalog{region: "us-east-1"}
}

func (s *s3Catalog) Get(ctx context.Context, name string) (*resolver.S3Entry, error) {
	reqURL := fmt.Sprintf("https://pantry-registry.s3.%s.amazonaws.com/packages/%s.json", s.region, url.PathEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var entry struct {
		Version    string `json:"version"`
		TarballURL string `json:"tarball_url"`
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, err
	}
	return &resolver.S3Entry{Version: entry.Version, TarballURL: entry.TarballURL}, nil
}
