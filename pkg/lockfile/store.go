package lockfile

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// marshal serializes l as pretty-printed JSON with a fixed top-level key
// order (version, lockfileVersion, generatedAt, packages) and package
// entries in insertion order, 2-space indent, LF newlines, trailing newline.
// Stable ordering — not Go's encoding/json map iteration, which is
// randomized — is what makes the conditional write in Write meaningful.
func marshal(l *Lockfile) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")

	writeField := func(key string, value json.RawMessage, last bool) error {
		buf.WriteString("  \"")
		buf.WriteString(key)
		buf.WriteString("\": ")
		buf.Write(value)
		if !last {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
		return nil
	}

	enc := func(v interface{}) json.RawMessage {
		b, _ := json.Marshal(v)
		return b
	}

	writeField("version", enc(l.SchemaVersion), false)
	writeField("lockfileVersion", enc(l.LockfileVersion), false)
	writeField("generatedAt", enc(l.GeneratedAt), false)

	buf.WriteString("  \"packages\": {\n")
	for i, key := range l.Order {
		entry := l.Packages[key]
		eb, err := marshalEntry(entry)
		if err != nil {
			return nil, err
		}
		buf.WriteString("    \"")
		buf.WriteString(key)
		buf.WriteString("\": ")
		// Indent the entry's own lines to nest under "packages".
		indented := bytes.ReplaceAll(eb, []byte("\n"), []byte("\n    "))
		buf.Write(indented)
		if i != len(l.Order)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("  }\n")
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func marshalEntry(e Entry) ([]byte, error) {
	var out bytes.Buffer
	if err := json.Indent(&out, mustMarshal(e), "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func mustMarshal(e Entry) []byte {
	b, _ := json.Marshal(e)
	return b
}

type rawLockfile struct {
	Version         int              `json:"version"`
	LockfileVersion int              `json:"lockfileVersion"`
	GeneratedAt     string           `json:"generatedAt"`
	Packages        map[string]Entry `json:"packages"`
}

// Unmarshal parses JSON lockfile content. Packages is reconstructed with
// Order sorted by the "{name}@{version}" keys as plain strings (byte-wise),
// since raw JSON object key order is not
// preserved by encoding/json — callers that need the original declaration
// order (the Orchestrator, when diffing) carry it separately from the
// resolved dependency set rather than recovering it from a parsed file.
func Unmarshal(data []byte) (*Lockfile, error) {
	var raw rawLockfile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "lockfile malformed")
	}
	l := &Lockfile{
		SchemaVersion:   raw.Version,
		LockfileVersion: raw.LockfileVersion,
		GeneratedAt:     raw.GeneratedAt,
		Packages:        raw.Packages,
	}
	for key := range raw.Packages {
		l.Order = append(l.Order, key)
	}
	sortStrings(l.Order)
	return l, nil
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// Store reads, writes, and diffs lockfiles on disk.
type Store struct{}

// Read loads and parses the lockfile at path. A missing file is not an
// error; it returns (nil, nil) so callers can distinguish "no lockfile yet"
// from a malformed one.
func (Store) Read(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading lockfile %s", path)
	}
	return Unmarshal(data)
}

// Write performs the conditional write described in §4.2: it first reads
// the destination, and if the existing content is Equivalent to l, leaves
// the file untouched (preserving mtime). Otherwise it writes atomically via
// a temp file in the same directory followed by rename, the same
// write-to-temp-then-rename shape golang-dep's SafeWriter uses for
// manifest/lock/vendor writes.
func (Store) Write(path string, l *Lockfile) error {
	existing, err := (Store{}).Read(path)
	if err != nil {
		// A malformed existing lockfile shouldn't block writing a fresh one.
		existing = nil
	}
	if Equivalent(existing, l) {
		return nil
	}

	data, err := marshal(l)
	if err != nil {
		return errors.Wrap(err, "marshaling lockfile")
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".pantry.lock.*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp lockfile")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing temp lockfile")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp lockfile")
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrap(err, "renaming temp lockfile into place")
	}
	return nil
}
