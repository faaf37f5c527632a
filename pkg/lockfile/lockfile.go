// Package lockfile implements the Lockfile Store (spec §4.2): reading,
// writing, and equivalence-comparing pantry.lock, and the conditional-write
// law that keeps repeat installs byte-for-byte stable.
package lockfile

import (
	"reflect"
)

// SchemaVersion is the lockfile schema this package reads and writes.
const SchemaVersion = 1

// LockfileVersion increments whenever the on-disk shape changes in a way
// that isn't equivalence-transparent. Bumped independently of SchemaVersion
// so older Pantry builds can still recognize a schema they understand.
const LockfileVersion = 1

// Entry is one line of the lockfile, keyed by "{name}@{version}" in the
// owning Lockfile's Packages map.
type Entry struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Source       string            `json:"source"`
	URL          string            `json:"url,omitempty"`
	Resolved     string            `json:"resolved,omitempty"`
	Integrity    string            `json:"integrity,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Key returns the entry's lockfile identity key.
func (e Entry) Key() string {
	return e.Name + "@" + e.Version
}

// Lockfile is the in-memory form of pantry.lock. GeneratedAt is semantically
// ignored by Equivalent and by the Store's conditional write.
type Lockfile struct {
	SchemaVersion   int
	LockfileVersion int
	GeneratedAt     string
	// Order records package insertion order, since Go maps have none, and
	// is the order entries are serialized in. The orchestrator adds local
	// dependencies first, then remote ones in planning order; that plan is
	// built by iterating the deps file's dependency maps, so Order is not the
	// file's declaration order and may differ between runs.
	Order    []string
	Packages map[string]Entry
}

// New returns an empty Lockfile with the current schema/lockfile versions.
func New() *Lockfile {
	return &Lockfile{
		SchemaVersion:   SchemaVersion,
		LockfileVersion: LockfileVersion,
		Packages:        make(map[string]Entry),
	}
}

// Add appends an entry, recording insertion order. Re-adding an existing key
// updates the entry in place without disturbing its original position.
func (l *Lockfile) Add(e Entry) {
	key := e.Key()
	if _, exists := l.Packages[key]; !exists {
		l.Order = append(l.Order, key)
	}
	l.Packages[key] = e
}

// Equivalent implements §4.2's equivalence relation: it ignores GeneratedAt
// and compares schema fields, package count, and every entry's name,
// version, source, url, resolved, integrity, and dependencies map.
func Equivalent(a, b *Lockfile) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.SchemaVersion != b.SchemaVersion || a.LockfileVersion != b.LockfileVersion {
		return false
	}
	if len(a.Packages) != len(b.Packages) {
		return false
	}
	for key, ea := range a.Packages {
		eb, ok := b.Packages[key]
		if !ok {
			return false
		}
		if !entriesEquivalent(ea, eb) {
			return false
		}
	}
	return true
}

func entriesEquivalent(a, b Entry) bool {
	if a.Name != b.Name || a.Version != b.Version || a.Source != b.Source {
		return false
	}
	if a.URL != b.URL || a.Resolved != b.Resolved || a.Integrity != b.Integrity {
		return false
	}
	return reflect.DeepEqual(a.Dependencies, b.Dependencies)
}
