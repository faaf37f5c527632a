// Package lifecycle implements the Lifecycle Gate (spec §4.6): deciding
// whether a package's post-install script may run, and, when it may,
// executing it with a freshly synthesized PATH and a bounded timeout.
package lifecycle

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/pkg/errors"
)

// Default script timeouts (§5).
const (
	DefaultScriptTimeout = 120 * time.Second
	DefaultHookTimeout   = 60 * time.Second
)

// Gate decides trust and executes lifecycle scripts.
type Gate struct {
	// ProjectTrusted is the root config's trustedDependencies array (§4.6).
	ProjectTrusted map[string]bool
	ScriptTimeout  time.Duration
	HookTimeout    time.Duration
	Logger         *slog.Logger
}

// New constructs a Gate with default timeouts and an optional trust set.
func New(projectTrusted []string, logger *slog.Logger) *Gate {
	set := make(map[string]bool, len(projectTrusted))
	for _, n := range projectTrusted {
		set[n] = true
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		ProjectTrusted: set,
		ScriptTimeout:  DefaultScriptTimeout,
		HookTimeout:    DefaultHookTimeout,
		Logger:         logger,
	}
}

// IsTrusted reports whether name may run lifecycle scripts: it is trusted
// iff it's in the built-in default trust list or the project's
// trustedDependencies array (§4.6).
func (g *Gate) IsTrusted(name string) bool {
	return IsDefaultTrusted(name) || g.ProjectTrusted[name]
}

// RunPostInstall runs a package's post-install script iff the package is
// trusted. An untrusted package is silently skipped (not an error): the
// overall install still succeeds for it, per §4.6 and the scenario in
// spec.md §8 #6. Satisfies pkg/installer.LifecycleGate.
func (g *Gate) RunPostInstall(ctx context.Context, pkgName, installDir, script string) error {
	if script == "" {
		return nil
	}
	if !g.IsTrusted(pkgName) {
		g.Logger.Debug("skipping script for untrusted package", "package", pkgName)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.ScriptTimeout)
	defer cancel()

	env := append(os.Environ(), "PATH="+synthesizePATH(installDir, os.Getenv("PATH")))
	cmd := shellCommand(ctx, script, installDir, env)
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errors.Errorf("post-install script for %s timed out after %s", pkgName, g.ScriptTimeout)
		}
		return errors.Wrapf(err, "post-install script for %s failed", pkgName)
	}
	return nil
}

// RunProjectHook runs a root-level pre/postinstall hook. Project hooks are
// declared by the root project itself, so trust membership doesn't gate
// whether they run - only the mechanics (timeout, shell dispatch, PATH
// synthesis rooted at projectDir) are shared with RunPostInstall, which is
// the sense in which spec.md §4.6 means "governed by the same trust model".
func (g *Gate) RunProjectHook(ctx context.Context, hookName, projectDir, script string) error {
	if script == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.HookTimeout)
	defer cancel()

	env := append(os.Environ(), "PATH="+synthesizePATH(projectDir, os.Getenv("PATH")))
	cmd := shellCommand(ctx, script, projectDir, env)
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errors.Errorf("%s hook timed out after %s", hookName, g.HookTimeout)
		}
		return errors.Wrapf(err, "%s hook failed", hookName)
	}
	return nil
}
