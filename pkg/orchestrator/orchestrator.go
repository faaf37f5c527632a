// Package orchestrator implements the Install Orchestrator state machine
// (spec §4.10): Init -> FastPathCheck -> Resolve -> Schedule -> Execute ->
// Lifecycle -> Lockfile -> Cleanup -> Done, with Rollback as a fault branch.
// Grounded on golang-dep/cmd/dep/ensure.go's top-level command flow (load
// context -> solve -> safe-write), adapted from a single solve step to the
// fast-path/resolve/schedule/execute pipeline this spec specifies.
package orchestrator

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/home-lang/pantry-sub012/pkg/checkpoint"
	"github.com/home-lang/pantry-sub012/pkg/dependency"
	"github.com/home-lang/pantry-sub012/pkg/depsfile"
	"github.com/home-lang/pantry-sub012/pkg/envlayout"
	"github.com/home-lang/pantry-sub012/pkg/installer"
	"github.com/home-lang/pantry-sub012/pkg/lifecycle"
	"github.com/home-lang/pantry-sub012/pkg/local"
	"github.com/home-lang/pantry-sub012/pkg/lockfile"
	"github.com/home-lang/pantry-sub012/pkg/metrics"
	"github.com/home-lang/pantry-sub012/pkg/pkgspec"
	"github.com/home-lang/pantry-sub012/pkg/resolver"
	"github.com/home-lang/pantry-sub012/pkg/skiporacle"
	"github.com/home-lang/pantry-sub012/pkg/workerpool"
	"github.com/home-lang/pantry-sub012/pkg/workspace"
)

// Options selects the dependency subset and behavior flags for one install
// invocation (§6's CLI surface).
type Options struct {
	Force         bool
	Offline       bool
	IncludeDev    bool
	IncludePeer   bool
	Filter        workspace.Filter
	IgnoreScripts bool

	// ChangedSinceRef, when set, narrows a workspace install to members
	// affected by changes since this git ref (§4.9's change-detection
	// filter). Ignored outside a workspace (DepsFile.Workspaces empty).
	ChangedSinceRef string
}

// Orchestrator wires every engine component together for one project.
type Orchestrator struct {
	ProjectDir string
	Layout     envlayout.Layout

	DepsFile     *depsfile.DepsFile
	Resolver     *resolver.Resolver
	Installer    *installer.Installer
	Gate         *lifecycle.Gate
	Materializer *local.Materializer
	Checkpoint   *checkpoint.Store
	LockStore    lockfile.Store
	Metrics      *metrics.Metrics
	Logger       *slog.Logger

	ShowProgress bool
}

// Summary is the end-of-run report (§4.10 Cleanup / §8).
type Summary struct {
	UpToDate bool
	// SkippedCount is the number of dependencies the fast path found
	// already satisfied, populated only when UpToDate is true (§8 scenario
	// 1: "up to date 1 package").
	SkippedCount int
	Installed    int
	Failed       int
	Failures     []string
	ElapsedMS    int64
}

// plannedDep is one dependency after override/catalog resolution, still
// carrying whether it's local.
type plannedDep struct {
	Name        string
	VersionSpec string
	IsLocal     bool
}

// New constructs an Orchestrator for projectDir with the given deps file
// already loaded, a default lockfile Store, and slog.Default() as logger.
// It wires no other collaborator (Resolver, Installer, Gate, Materializer,
// Checkpoint, Metrics stay nil for the caller to set) and does not use opts.
func New(projectDir string, layout envlayout.Layout, df *depsfile.DepsFile, opts Options) *Orchestrator {
	return &Orchestrator{
		ProjectDir: projectDir,
		Layout:     layout,
		DepsFile:   df,
		LockStore:  lockfile.Store{},
		Logger:     slog.Default(),
	}
}

// Run executes the full state machine and returns the run summary.
// Individual package failures are reported in Summary but never cause Run
// itself to return an error: only orchestrator-level faults (checkpoint
// I/O, a failing preinstall hook) do, per §4.10's exit-code split.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Summary, error) {
	start := time.Now()

	// -- Init --
	if err := o.Layout.Ensure(); err != nil {
		return nil, errors.Wrap(err, "preparing environment directories")
	}
	existingLock, err := o.LockStore.Read(o.Layout.LockPath)
	if err != nil {
		return nil, errors.Wrap(err, "reading existing lockfile")
	}

	cpStore := o.Checkpoint
	var cp *checkpoint.Checkpoint
	if cpStore != nil {
		var err error
		cp, _, err = cpStore.Load()
		if err != nil {
			return nil, errors.Wrap(err, "loading checkpoint")
		}
	} else {
		cp = checkpoint.New()
	}

	if o.DepsFile != nil && len(o.DepsFile.Workspaces) > 0 {
		deps, invalid, err := o.planWorkspaceDependencies(opts)
		if err != nil {
			return nil, errors.Wrap(err, "aggregating workspace dependencies")
		}
		return o.runPipeline(ctx, opts, start, existingLock, cp, cpStore, deps, invalid)
	}

	deps, invalid := o.planDependencies(opts)
	return o.runPipeline(ctx, opts, start, existingLock, cp, cpStore, deps, invalid)
}

// runPipeline drives FastPathCheck through Cleanup over an already-planned
// dependency set, shared by the single-project path and the workspace path
// (§4.9, §4.10): once deps are merged, overridden, and catalog-resolved,
// both run the identical resolve/schedule/execute/lockfile machinery.
func (o *Orchestrator) runPipeline(ctx context.Context, opts Options, start time.Time, existingLock *lockfile.Lockfile, cp *checkpoint.Checkpoint, cpStore *checkpoint.Store, deps []plannedDep, invalid []string) (*Summary, error) {
	// -- FastPathCheck --
	if !opts.Force && len(invalid) == 0 && existingLock != nil && o.allSkippable(deps, existingLock) {
		return &Summary{
			UpToDate:     true,
			SkippedCount: len(deps),
			ElapsedMS:    time.Since(start).Milliseconds(),
		}, nil
	}

	// -- Resolve / Schedule --
	var localDeps, remoteDeps []plannedDep
	for _, d := range deps {
		if !opts.Filter.Matches(workspace.Member{Name: d.Name}) {
			continue
		}
		if d.IsLocal {
			localDeps = append(localDeps, d)
		} else {
			remoteDeps = append(remoteDeps, d)
		}
	}

	// -- Execute: preinstall project hook --
	if o.Gate != nil && o.DepsFile != nil && !opts.IgnoreScripts {
		if script, ok := o.DepsFile.Scripts["preinstall"]; ok && script != "" {
			if err := o.Gate.RunProjectHook(ctx, "preinstall", o.ProjectDir, script); err != nil {
				o.rollback(cp)
				return nil, errors.Wrap(err, "preinstall hook failed")
			}
		}
	}

	newLock := lockfile.New()
	failures := append([]string{}, invalid...)
	installedCount := 0

	// Local/link deps are materialized sequentially, never via the pool
	// (§4.8: "microsecond-scale; no thread pool").
	for _, d := range localDeps {
		if o.Materializer == nil {
			continue
		}
		res, err := o.Materializer.Materialize(d.Name, d.VersionSpec, o.ProjectDir, o.Layout.UserBinDir)
		if err != nil {
			failures = append(failures, d.Name+": "+err.Error())
			continue
		}
		installedCount++
		newLock.Add(lockfile.Entry{Name: d.Name, Version: d.VersionSpec, Source: "local"})
		if cpStore != nil {
			if err := cpStore.RecordSuccess(cp, d.Name, res.InstallDir); err != nil {
				o.Logger.Warn("checkpoint write failed", "package", d.Name, "err", err)
			}
		}
	}

	// resolvedSpecs is indexed identically to remoteDeps/results so each
	// worker writes to a disjoint slot, mirroring the no-output-channel
	// pre-allocated-slice pattern workerpool itself uses for TaskResult.
	resolvedSpecs := make([]pkgspec.PackageSpec, len(remoteDeps))
	tasks := o.buildTasks(ctx, remoteDeps, cp, opts, resolvedSpecs, existingLock)
	results := workerpool.Run(ctx, tasks, o.ShowProgress)

	for i, r := range results {
		dep := remoteDeps[i]
		if r.Success {
			installedCount++
			newLock.Add(lockfile.Entry{
				Name:    dep.Name,
				Version: resolvedSpecs[i].Version,
				Source:  string(resolvedSpecs[i].Source),
			})
			if cpStore != nil {
				installDir := o.Layout.PackageDir(dep.Name)
				if err := cpStore.RecordSuccess(cp, dep.Name, installDir); err != nil {
					o.Logger.Warn("checkpoint write failed", "package", dep.Name, "err", err)
				}
			}
		} else {
			failures = append(failures, dep.Name+": "+r.ErrorMessage)
		}
		if o.Metrics != nil {
			o.Metrics.ObserveTask(r.Success, time.Duration(r.ElapsedMS)*time.Millisecond)
		}
	}

	// -- Lifecycle: project-level postinstall (warn, don't roll back) --
	if o.Gate != nil && o.DepsFile != nil && !opts.IgnoreScripts {
		if script, ok := o.DepsFile.Scripts["postinstall"]; ok && script != "" {
			if err := o.Gate.RunProjectHook(ctx, "postinstall", o.ProjectDir, script); err != nil {
				o.Logger.Warn("postinstall project hook failed", "err", err)
			}
		}
	}

	// -- Lockfile --
	if err := o.LockStore.Write(o.Layout.LockPath, newLock); err != nil {
		o.Logger.Warn("writing lockfile failed", "err", err)
	}

	// -- Cleanup --
	if len(failures) == 0 && cpStore != nil {
		if err := cpStore.Clear(); err != nil {
			o.Logger.Warn("clearing checkpoint failed", "err", err)
		}
	}

	summary := &Summary{
		Installed: installedCount,
		Failed:    len(failures),
		Failures:  failures,
		ElapsedMS: time.Since(start).Milliseconds(),
	}
	if o.Metrics != nil {
		o.Metrics.ObserveInstallRun(time.Since(start))
	}
	return summary, nil
}

func (o *Orchestrator) rollback(cp *checkpoint.Checkpoint) {
	if o.Checkpoint == nil {
		return
	}
	for _, err := range o.Checkpoint.Rollback(cp) {
		o.Logger.Warn("rollback error", "err", err)
	}
}

// planDependencies merges the deps file's dependency sets per opts,
// validates each declared name (§3, §7's InvalidDepSpec), applies
// overrides, resolves catalog references (dropping unresolved ones with a
// warning), and tags each surviving dependency as local or remote (§4.9,
// §4.10 Resolve). Invalid names are reported back, not silently dropped.
func (o *Orchestrator) planDependencies(opts Options) (out []plannedDep, invalid []string) {
	if o.DepsFile == nil {
		return nil, nil
	}
	merged := o.DepsFile.AllDependencies(opts.IncludeDev, opts.IncludePeer)
	overrides := workspace.Overrides(o.DepsFile.Overrides)
	catalogs := workspace.Catalog(o.DepsFile.CatalogSet())

	for name, spec := range merged {
		dep := dependency.Dependency{Name: name, VersionSpec: spec}
		if err := dep.Validate(); err != nil {
			invalid = append(invalid, name+": "+err.Error())
			continue
		}
		spec = overrides.Apply(name, spec)
		if workspace.IsCatalogRef(spec) {
			resolved, ok := catalogs.Resolve(name, spec, o.Logger)
			if !ok {
				continue
			}
			spec = resolved
		}
		isLocal := isLocalSpec(spec)
		out = append(out, plannedDep{Name: name, VersionSpec: spec, IsLocal: isLocal})
	}
	return out, invalid
}

// planWorkspaceDependencies implements §4.9's aggregation: discover every
// workspace member, narrow them by --filter and (if set) change detection,
// then merge, validate, override/catalog-resolve, and dedup each member's
// own dependencies into one installable set. workspace:* references are
// symlinked here directly rather than scheduled for remote install.
func (o *Orchestrator) planWorkspaceDependencies(opts Options) (out []plannedDep, invalid []string, err error) {
	members, err := workspace.DiscoverMembers(o.ProjectDir, o.DepsFile.Workspaces, hasDepsFile)
	if err != nil {
		return nil, nil, err
	}

	if opts.ChangedSinceRef != "" {
		changed, err := workspace.ChangedFiles(o.ProjectDir, opts.ChangedSinceRef, true)
		if err != nil {
			return nil, nil, err
		}
		members = workspace.AffectedMembers(members, changed)
	}

	var filtered []workspace.Member
	for _, m := range members {
		if opts.Filter.Matches(m) {
			filtered = append(filtered, m)
		}
	}

	overrides := workspace.Overrides(o.DepsFile.Overrides)
	catalogs := workspace.Catalog(o.DepsFile.CatalogSet())

	var resolvedDeps []workspace.ResolvedDep
	for _, m := range filtered {
		memberDir := filepath.Join(o.ProjectDir, m.Path)
		memberDepsPath, ok := depsfile.Locate(memberDir)
		if !ok {
			continue
		}
		memberDf, err := depsfile.Load(memberDepsPath)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "loading deps file for workspace member %s", m.Name)
		}

		merged := memberDf.AllDependencies(opts.IncludeDev, opts.IncludePeer)
		for name, spec := range merged {
			dep := dependency.Dependency{Name: name, VersionSpec: spec}
			if err := dep.Validate(); err != nil {
				invalid = append(invalid, m.Name+"/"+name+": "+err.Error())
				continue
			}

			if workspace.IsWorkspaceRef(spec) {
				target := findMemberByName(members, name)
				if target == nil {
					invalid = append(invalid, m.Name+"/"+name+": unresolved workspace:* reference")
					continue
				}
				if err := workspace.LinkWorkspaceMember(o.ProjectDir, *target, o.Logger); err != nil {
					return nil, nil, err
				}
				continue
			}

			spec = overrides.Apply(name, spec)
			if workspace.IsCatalogRef(spec) {
				resolved, ok := catalogs.Resolve(name, spec, o.Logger)
				if !ok {
					continue
				}
				spec = resolved
			}
			resolvedDeps = append(resolvedDeps, workspace.ResolvedDep{Name: name, VersionSpec: spec})
		}
	}

	deduped := workspace.Dedup(resolvedDeps)
	out = make([]plannedDep, 0, len(deduped))
	for _, d := range deduped {
		out = append(out, plannedDep{Name: d.Name, VersionSpec: d.VersionSpec, IsLocal: isLocalSpec(d.VersionSpec)})
	}
	return out, invalid, nil
}

// hasDepsFile satisfies workspace.DiscoverMembers' hasConfigOrDeps: a
// directory is a valid member only if it carries its own deps file.
func hasDepsFile(dir string) bool {
	_, ok := depsfile.Locate(dir)
	return ok
}

func findMemberByName(members []workspace.Member, name string) *workspace.Member {
	for i := range members {
		if members[i].Name == name {
			return &members[i]
		}
	}
	return nil
}

func isLocalSpec(versionSpec string) bool {
	switch {
	case len(versionSpec) >= 5 && versionSpec[:5] == "link:":
		return true
	case len(versionSpec) >= 2 && versionSpec[:2] == "~/":
		return true
	case len(versionSpec) >= 1 && versionSpec[0] == '/':
		return true
	case len(versionSpec) >= 2 && versionSpec[:2] == "./":
		return true
	case len(versionSpec) >= 3 && versionSpec[:3] == "../":
		return true
	default:
		return false
	}
}

// allSkippable reports whether every planned dependency passes the Skip
// Oracle against lf (§4.10 FastPathCheck).
func (o *Orchestrator) allSkippable(deps []plannedDep, lf *lockfile.Lockfile) bool {
	for _, d := range deps {
		if d.IsLocal {
			continue
		}
		if !skiporacle.CanSkip(depForSkipCheck(d), lf, o.ProjectDir) {
			return false
		}
		if o.Metrics != nil {
			o.Metrics.IncSkipOracleHit()
		}
	}
	return true
}

func (o *Orchestrator) buildTasks(ctx context.Context, deps []plannedDep, cp *checkpoint.Checkpoint, opts Options, resolvedSpecs []pkgspec.PackageSpec, existingLock *lockfile.Lockfile) []workerpool.Task {
	tasks := make([]workerpool.Task, len(deps))
	for i, d := range deps {
		d, i := d, i
		tasks[i] = workerpool.Task{
			Name:        d.Name,
			VersionSpec: d.VersionSpec,
			Run: func(taskCtx context.Context) error {
				return o.installOne(taskCtx, d, cp, opts, &resolvedSpecs[i], existingLock)
			},
		}
	}
	return tasks
}

// installOne resolves and installs one dependency, first giving the Skip
// Oracle a chance to avoid all network and disk I/O for it: §4.3 requires
// the oracle run "both on the whole-set fast path and per task inside
// workers", since a single non-skippable dependency in the set must not
// force every other, individually up-to-date dependency to be re-resolved.
func (o *Orchestrator) installOne(ctx context.Context, d plannedDep, cp *checkpoint.Checkpoint, opts Options, resolved *pkgspec.PackageSpec, existingLock *lockfile.Lockfile) error {
	if !opts.Force {
		if cp != nil && cp.AlreadyInstalled(d.Name) {
			return nil
		}
		dep := depForSkipCheck(d)
		if skiporacle.CanSkip(dep, existingLock, o.ProjectDir) {
			if entry, ok := existingLock.Packages[dep.Key()]; ok {
				*resolved = pkgspec.PackageSpec{
					Name:      entry.Name,
					Version:   entry.Version,
					Source:    pkgspec.Source(entry.Source),
					URL:       entry.URL,
					Integrity: entry.Integrity,
				}
			}
			if o.Metrics != nil {
				o.Metrics.IncSkipOracleHit()
			}
			return nil
		}
	}

	if o.Resolver == nil {
		return errors.New("no resolver configured")
	}
	spec, err := o.Resolver.Resolve(ctx, depForSkipCheck(d))
	if err != nil {
		return err
	}
	*resolved = spec
	if o.Metrics != nil {
		o.Metrics.ObserveResolution(string(spec.Source))
	}

	if o.Installer == nil {
		return errors.New("no installer configured")
	}

	_, err = o.Installer.Install(ctx, spec, o.Layout.PantryDir, o.Layout.BinDir, opts.IgnoreScripts)
	return err
}

// depForSkipCheck rebuilds the dependency.Dependency skiporacle.CanSkip and
// resolver.Resolve expect; planDependencies only keeps the name/spec/local
// flag it needs for scheduling, so the full type is reconstructed at the
// point of use.
func depForSkipCheck(d plannedDep) dependency.Dependency {
	return dependency.Dependency{Name: d.Name, VersionSpec: d.VersionSpec}
}
