// Package envlayout computes the deterministic per-project and per-user
// environment directory shape described in spec.md §3.
package envlayout

import (
	"crypto/md5" //nolint:gosec // content-addressing, not cryptographic use
	"encoding/hex"
	"os"
	"path/filepath"
)

// Layout describes the on-disk locations the install engine reads and
// writes for one project invocation.
type Layout struct {
	ProjectDir  string // <project>/
	PantryDir   string // <project>/pantry/
	BinDir      string // <project>/pantry/.bin/
	LockPath    string // <project>/pantry.lock
	Checkpoint  string // <project>/.pantry.checkpoint
	UserEnvDir  string // <user-home>/.pantry/envs/<basename>_<proj-hash>-<deps-hash>/
	UserBinDir  string // <user-home>/.pantry/envs/.../bin/
	ProjHash    string
	DepsHash    string
}

// ProjHash returns the first 4 bytes of MD5(canonical project path) as
// lowercase hex (§3).
func ProjHash(projectDir string) string {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		abs = projectDir
	}
	sum := md5.Sum([]byte(abs)) //nolint:gosec
	return hex.EncodeToString(sum[:4])
}

// DepsHash returns the first 8 hex characters of MD5(depsFilePath),
// prefixed with "d" (§3). When no deps file exists, callers pass the
// project directory itself as depsFilePath, per §3's fallback rule.
func DepsHash(depsFilePath string) string {
	sum := md5.Sum([]byte(depsFilePath)) //nolint:gosec
	full := hex.EncodeToString(sum[:])
	return "d" + full[:8]
}

// New computes the full Layout for a project, given its root directory, the
// path used to derive DepsHash (the deps file, or the project dir if
// config-only), and the user's home directory.
func New(projectDir, depsHashSource, homeDir string) Layout {
	projHash := ProjHash(projectDir)
	depsHash := DepsHash(depsHashSource)
	base := filepath.Base(filepath.Clean(projectDir))
	userEnvDir := filepath.Join(homeDir, ".pantry", "envs", base+"_"+projHash+"-"+depsHash)

	return Layout{
		ProjectDir: projectDir,
		PantryDir:  filepath.Join(projectDir, "pantry"),
		BinDir:     filepath.Join(projectDir, "pantry", ".bin"),
		LockPath:   filepath.Join(projectDir, "pantry.lock"),
		Checkpoint: filepath.Join(projectDir, ".pantry.checkpoint"),
		UserEnvDir: userEnvDir,
		UserBinDir: filepath.Join(userEnvDir, "bin"),
		ProjHash:   projHash,
		DepsHash:   depsHash,
	}
}

// Ensure creates the directory shape (pantry/, pantry/.bin/, and the user
// env bin dir) idempotently.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.PantryDir, l.BinDir, l.UserBinDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// PackageDir is <project>/pantry/<cleanName>.
func (l Layout) PackageDir(cleanName string) string {
	return filepath.Join(l.PantryDir, cleanName)
}
