// Package dependency defines the declared-dependency input unit that the
// rest of the install engine resolves, schedules, and materializes.
package dependency

import (
	"strings"

	"github.com/pkg/errors"
)

// maxNameLength mirrors the npm package-name ceiling; Pantry reuses it as the
// upper bound for any dependency name regardless of source.
const maxNameLength = 214

// SourceHint narrows where a Resolver should look for a dependency before it
// falls through its default decision order.
type SourceHint string

const (
	SourceRegistry SourceHint = "registry"
	SourceGitHub   SourceHint = "github"
	SourceGit      SourceHint = "git"
	SourceURL      SourceHint = "url"
)

// Kind is the dependency's role in the project: production, dev-only, or peer.
type Kind string

const (
	KindNormal Kind = "normal"
	KindDev    Kind = "dev"
	KindPeer   Kind = "peer"
)

// GitHubRef identifies a git-hosted package pinned to a specific ref.
type GitHubRef struct {
	Owner string
	Repo  string
	Ref   string
}

// Dependency is one entry out of a project's deps file, before resolution.
type Dependency struct {
	// Name is the raw, possibly prefixed name as declared (e.g. "npm:lodash").
	Name string
	// VersionSpec is an exact version, a semver range, a tag, a filesystem
	// path, "link:<name>", or a git ref, depending on CleanName's shape.
	VersionSpec string
	SourceHint  SourceHint
	Kind        Kind
	GitHubRef   *GitHubRef
}

// knownPrefixes is the set of recognized "source:" prefixes a name may carry.
var knownPrefixes = []string{"npm:", "local:", "auto:", "github:"}

// CleanName strips any recognized source prefix and returns the bare package
// name used as the identity key everywhere downstream (lockfile, on-disk
// directory, skip oracle).
func (d Dependency) CleanName() string {
	for _, p := range knownPrefixes {
		if strings.HasPrefix(d.Name, p) {
			return strings.TrimPrefix(d.Name, p)
		}
	}
	return d.Name
}

// Prefix returns the recognized source prefix on Name, or "" if none.
func (d Dependency) Prefix() string {
	for _, p := range knownPrefixes {
		if strings.HasPrefix(d.Name, p) {
			return p
		}
	}
	return ""
}

// IsLocal reports whether VersionSpec denotes a filesystem-path or link:
// dependency, materialized by pkg/local rather than resolved remotely.
func (d Dependency) IsLocal() bool {
	v := d.VersionSpec
	switch {
	case strings.HasPrefix(v, "link:"):
		return true
	case strings.HasPrefix(v, "~/"), strings.HasPrefix(v, "/"),
		strings.HasPrefix(v, "./"), strings.HasPrefix(v, "../"):
		return true
	default:
		return false
	}
}

// Validate enforces the §3 invariants: non-empty clean name, no
// path-traversal characters, and a bounded total length. It does not
// validate VersionSpec, since "local:" and "link:" specs are themselves
// paths and are checked separately by pkg/local.
func (d Dependency) Validate() error {
	clean := d.CleanName()
	if clean == "" {
		return errors.Errorf("invalid dependency spec: %q: empty name", d.Name)
	}
	if len(d.Name) > maxNameLength {
		return errors.Errorf("invalid dependency spec: %q: name exceeds %d characters", d.Name, maxNameLength)
	}
	if strings.Contains(clean, "..") || strings.ContainsAny(clean, `/\`) {
		// Scoped npm packages ("@scope/name") are the one legitimate use of
		// '/' in a name; allow exactly one, non-leading, non-trailing slash
		// when the name starts with '@'.
		if !isScopedName(clean) {
			return errors.Errorf("invalid dependency spec: %q: contains path-traversal characters", d.Name)
		}
	}
	return nil
}

func isScopedName(name string) bool {
	if !strings.HasPrefix(name, "@") {
		return false
	}
	parts := strings.Split(name, "/")
	if len(parts) != 2 {
		return false
	}
	return parts[0] != "@" && parts[1] != "" && !strings.Contains(parts[1], "..")
}

// Key is the lockfile identity key "{clean_name}@{version_spec}" (§3, §4.3).
func (d Dependency) Key() string {
	return d.CleanName() + "@" + d.VersionSpec
}
