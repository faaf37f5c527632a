package workspace

import (
	"path"
	"strings"
)

// Filter is a parsed, comma-separated set of include/exclude patterns over
// workspace member names or paths (§4.9). Patterns use glob "*"/"?"; a
// leading "!" negates.
type Filter struct {
	includes []string
	excludes []string
}

// ParseFilter splits a raw comma-separated filter expression into positive
// and negative glob patterns.
func ParseFilter(raw string) Filter {
	var f Filter
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "!") {
			f.excludes = append(f.excludes, strings.TrimPrefix(part, "!"))
		} else {
			f.includes = append(f.includes, part)
		}
	}
	return f
}

// Matches reports whether m is included by f: at least one positive pattern
// matches its name or path, and no negative pattern matches either (§4.9).
// An empty Filter (no patterns at all) matches everything.
func (f Filter) Matches(m Member) bool {
	if len(f.includes) == 0 && len(f.excludes) == 0 {
		return true
	}
	for _, pattern := range f.excludes {
		if matchesEither(pattern, m) {
			return false
		}
	}
	if len(f.includes) == 0 {
		return true
	}
	for _, pattern := range f.includes {
		if matchesEither(pattern, m) {
			return true
		}
	}
	return false
}

func matchesEither(pattern string, m Member) bool {
	if ok, _ := path.Match(pattern, m.Name); ok {
		return true
	}
	normalized := strings.TrimPrefix(pattern, "./")
	if ok, _ := path.Match(normalized, m.Path); ok {
		return true
	}
	return false
}
