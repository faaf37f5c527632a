// Package checkpoint implements the install checkpoint (spec §4.7): a
// transient, fsync-durable journal of progress that lets an interrupted
// install resume instead of restarting from scratch, and that can be rolled
// back if a project hook fails after packages have already landed on disk.
package checkpoint

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/theckman/go-flock"
)

// FileName is the checkpoint's fixed location relative to the project root.
const FileName = ".pantry.checkpoint"

// Checkpoint is the persisted progress journal described in spec.md §4.7.
type Checkpoint struct {
	InstalledPackages map[string]bool `json:"installed_packages"`
	RecordedDirs      []string        `json:"recorded_dirs"`
	StartedAt         time.Time       `json:"started_at"`
}

// Store owns the on-disk checkpoint file for one project. A flock guards the
// file against concurrent installs in the same project, mirroring the
// teacher's use of github.com/theckman/go-flock to serialize writers.
type Store struct {
	path string
	lock *flock.Flock
}

// Open locates (or prepares to create) the checkpoint for projectDir and
// acquires its file lock. Call Close when the install invocation ends.
func Open(projectDir string) (*Store, error) {
	path := filepath.Join(projectDir, FileName)
	lk := flock.NewFlock(path + ".lock")
	locked, err := lk.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "acquiring checkpoint lock")
	}
	if !locked {
		return nil, errors.New("another pantry install appears to be running in this project")
	}
	return &Store{path: path, lock: lk}, nil
}

// Close releases the checkpoint's file lock. It does not touch the
// checkpoint file itself.
func (s *Store) Close() error {
	return s.lock.Unlock()
}

// Load reads the checkpoint from disk. A missing file is not an error: it
// returns a fresh, empty Checkpoint, which the orchestrator treats as "no
// resume in progress" (§4.7).
func (s *Store) Load() (*Checkpoint, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Checkpoint{InstalledPackages: map[string]bool{}}, false, nil
		}
		return nil, false, errors.Wrap(err, "reading checkpoint")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &Checkpoint{InstalledPackages: map[string]bool{}}, false, nil
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, false, errors.Wrap(err, "parsing checkpoint")
	}
	if cp.InstalledPackages == nil {
		cp.InstalledPackages = map[string]bool{}
	}
	return &cp, true, nil
}

// New starts a fresh checkpoint for a new (non-resumed) install run.
func New() *Checkpoint {
	return &Checkpoint{
		InstalledPackages: map[string]bool{},
		StartedAt:         time.Now(),
	}
}

// RecordSuccess appends a completed package and its install directory to the
// checkpoint and performs an fsync-durable write (§4.7). Write failures are
// returned to the caller but are treated as best-effort warnings by the
// orchestrator: resumability degrades gracefully rather than failing the
// install outright (spec.md §5).
func (s *Store) RecordSuccess(cp *Checkpoint, pkgName, installDir string) error {
	cp.InstalledPackages[pkgName] = true
	cp.RecordedDirs = append(cp.RecordedDirs, installDir)
	return s.persist(cp)
}

// persist writes cp to a temp file in the same directory and fsyncs it
// before renaming over the checkpoint path, so a crash mid-write never
// leaves a truncated checkpoint behind.
func (s *Store) persist(cp *Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return errors.Wrap(err, "encoding checkpoint")
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".pantry.checkpoint.tmp-*")
	if err != nil {
		return errors.Wrap(err, "creating checkpoint temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "writing checkpoint temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "fsyncing checkpoint temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "closing checkpoint temp file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "renaming checkpoint into place")
	}
	return nil
}

// Rollback iterates cp's RecordedDirs and removes each, undoing an install
// whose project hook failed after packages had already landed (§4.7).
func (s *Store) Rollback(cp *Checkpoint) []error {
	var errs []error
	for _, dir := range cp.RecordedDirs {
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, errors.Wrapf(err, "removing %s", dir))
		}
	}
	return errs
}

// Clear removes the checkpoint file on a clean finish (zero failures, §4.7).
// A missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing checkpoint")
	}
	return nil
}

// IsResume reports whether cp represents a resumed install, i.e. it already
// has at least one installed package recorded.
func (cp *Checkpoint) IsResume() bool {
	return len(cp.InstalledPackages) > 0
}

// AlreadyInstalled reports whether pkgName was recorded as installed by a
// prior, interrupted run. The orchestrator bypasses the Skip Oracle for
// these (§4.7) since the checkpoint is a stronger, more recent signal.
func (cp *Checkpoint) AlreadyInstalled(pkgName string) bool {
	return cp.InstalledPackages[pkgName]
}
