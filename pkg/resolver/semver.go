package resolver

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// highestSatisfying picks the highest version in versions that satisfies
// constraint, per §4.1's npm-style constraint semantics. versions need not
// be pre-sorted. "v"-prefixed versions and pre-release suffixes are
// tolerated by Masterminds/semver's parser; pre-release ordering is left to
// its default (lower than any matching final release), which keeps npm's
// "don't silently adopt a pre-release" behavior.
func highestSatisfying(versions []string, constraint string) (string, error) {
	c, err := buildConstraint(constraint)
	if err != nil {
		return "", errors.Wrapf(err, "invalid version spec %q", constraint)
	}

	var best *semver.Version
	var bestRaw string
	for _, raw := range versions {
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue // not a semver-shaped tag; skip rather than fail the whole match
		}
		if !c.Check(v) {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
			bestRaw = raw
		}
	}
	if best == nil {
		return "", errors.Errorf("no version satisfies %q", constraint)
	}
	return bestRaw, nil
}

// buildConstraint translates the npm-flavored constraint operators named in
// §4.1 into a Masterminds/semver Constraints value. "^" and "~" are passed
// straight through - semver/v3 implements the same caret/tilde semantics
// spec.md describes (caret pins the leftmost nonzero component, tilde pins
// minor). The remaining operators (>=, <=, >, <, =, exact) are native
// semver/v3 syntax already.
func buildConstraint(spec string) (*semver.Constraints, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" || spec == "latest" || spec == "*" {
		spec = "*"
	}
	return semver.NewConstraint(spec)
}

// satisfies reports whether version (a concrete version, not a range)
// matches constraint.
func satisfies(version, constraint string) (bool, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, errors.Wrapf(err, "invalid version %q", version)
	}
	c, err := buildConstraint(constraint)
	if err != nil {
		return false, err
	}
	return c.Check(v), nil
}
