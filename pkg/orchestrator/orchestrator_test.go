package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/home-lang/pantry-sub012/pkg/depsfile"
	"github.com/home-lang/pantry-sub012/pkg/envlayout"
	"github.com/home-lang/pantry-sub012/pkg/installer"
	"github.com/home-lang/pantry-sub012/pkg/lockfile"
	"github.com/home-lang/pantry-sub012/pkg/resolver"
)

type fakeBuiltin struct{ versions map[string]string }

func (f *fakeBuiltin) Lookup(name string) (string, bool) {
	v, ok := f.versions[name]
	return v, ok
}

type fakeCache struct{}

func (fakeCache) Fetch(_ context.Context, _, _, _ string) (string, error) { return "/tmp/fake.tgz", nil }
func (fakeCache) Lookup(_, _ string) (string, bool)                       { return "", false }

type fakeExtractor struct{}

func (fakeExtractor) Extract(_, destDir string) error {
	return os.MkdirAll(destDir, 0o755)
}

func newTestOrchestrator(t *testing.T, projectDir string) *Orchestrator {
	t.Helper()
	layout := envlayout.New(projectDir, filepath.Join(projectDir, "pantry.json"), t.TempDir())

	df := &depsfile.DepsFile{
		Dependencies: map[string]string{"lodash": "4.17.21"},
	}

	res := resolver.New(&fakeBuiltin{versions: map[string]string{"lodash": "4.17.21"}}, nil, nil)
	inst := &installer.Installer{Cache: fakeCache{}, Extractor: fakeExtractor{}}

	return &Orchestrator{
		ProjectDir: projectDir,
		Layout:     layout,
		DepsFile:   df,
		Resolver:   res,
		Installer:  inst,
		LockStore:  lockfile.Store{},
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRunInstallsAndWritesLockfile(t *testing.T) {
	projectDir := t.TempDir()
	o := newTestOrchestrator(t, projectDir)

	summary, err := o.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Installed != 1 {
		t.Fatalf("Installed = %d, want 1", summary.Installed)
	}
	if summary.Failed != 0 {
		t.Fatalf("Failed = %d, want 0: %v", summary.Failed, summary.Failures)
	}

	if _, err := os.Stat(o.Layout.LockPath); err != nil {
		t.Fatalf("expected lockfile to be written: %v", err)
	}
}

func TestRunFastPathSkipsUpToDateInstall(t *testing.T) {
	projectDir := t.TempDir()
	o := newTestOrchestrator(t, projectDir)

	if _, err := o.Run(context.Background(), Options{}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	summary, err := o.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !summary.UpToDate {
		t.Fatal("expected the second run to take the fast path")
	}
}

func TestRunForceBypassesFastPath(t *testing.T) {
	projectDir := t.TempDir()
	o := newTestOrchestrator(t, projectDir)

	if _, err := o.Run(context.Background(), Options{}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	summary, err := o.Run(context.Background(), Options{Force: true})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.UpToDate {
		t.Fatal("expected --force to bypass the fast path")
	}
}

// trackingBuiltin wraps fakeBuiltin and counts lookups per name, so a test
// can assert a given dependency was never re-resolved.
type trackingBuiltin struct {
	*fakeBuiltin
	mu      sync.Mutex
	lookups map[string]int
}

func (f *trackingBuiltin) Lookup(name string) (string, bool) {
	f.mu.Lock()
	if f.lookups == nil {
		f.lookups = map[string]int{}
	}
	f.lookups[name]++
	f.mu.Unlock()
	return f.fakeBuiltin.Lookup(name)
}

func TestPerTaskSkipOracleAvoidsReresolvingUpToDateDependency(t *testing.T) {
	projectDir := t.TempDir()
	o := newTestOrchestrator(t, projectDir)

	if _, err := o.Run(context.Background(), Options{}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	tracking := &trackingBuiltin{fakeBuiltin: &fakeBuiltin{versions: map[string]string{
		"lodash":  "4.17.21",
		"zzz-new": "1.0.0",
	}}}
	o.Resolver = resolver.New(tracking, nil, nil)
	o.DepsFile = &depsfile.DepsFile{Dependencies: map[string]string{
		"lodash":  "4.17.21",
		"zzz-new": "1.0.0",
	}}

	summary, err := o.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.UpToDate {
		t.Fatal("expected the fast path to fail, since zzz-new has no lockfile entry yet")
	}
	if summary.Failed != 0 {
		t.Fatalf("Failed = %d, want 0: %v", summary.Failed, summary.Failures)
	}
	if got := tracking.lookups["lodash"]; got != 0 {
		t.Fatalf("lodash was re-resolved %d times, want 0: the per-task Skip Oracle should have short-circuited it", got)
	}
	if got := tracking.lookups["zzz-new"]; got == 0 {
		t.Fatal("expected zzz-new, which has no lockfile entry, to be resolved")
	}
}

func TestRunWorkspaceAggregatesAndDedupsMemberDependencies(t *testing.T) {
	root := t.TempDir()
	writeMemberDeps := func(path, content string) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	writeMemberDeps(filepath.Join(root, "packages", "a", "pantry.json"), `{"dependencies":{"lodash":"4.17.21"}}`)
	writeMemberDeps(filepath.Join(root, "packages", "b", "pantry.json"), `{"dependencies":{"lodash":"4.17.21","leftpad":"1.0.0"}}`)

	layout := envlayout.New(root, filepath.Join(root, "pantry.json"), t.TempDir())
	df := &depsfile.DepsFile{Workspaces: []string{"packages/*"}}

	res := resolver.New(&fakeBuiltin{versions: map[string]string{
		"lodash":  "4.17.21",
		"leftpad": "1.0.0",
	}}, nil, nil)
	inst := &installer.Installer{Cache: fakeCache{}, Extractor: fakeExtractor{}}

	o := &Orchestrator{
		ProjectDir: root,
		Layout:     layout,
		DepsFile:   df,
		Resolver:   res,
		Installer:  inst,
		LockStore:  lockfile.Store{},
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	summary, err := o.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Failed != 0 {
		t.Fatalf("Failed = %d, want 0: %v", summary.Failed, summary.Failures)
	}
	if summary.Installed != 2 {
		t.Fatalf("Installed = %d, want 2 (lodash deduped across members, plus leftpad)", summary.Installed)
	}
}

func TestPlanDependenciesRejectsInvalidNames(t *testing.T) {
	projectDir := t.TempDir()
	o := newTestOrchestrator(t, projectDir)
	o.DepsFile = &depsfile.DepsFile{Dependencies: map[string]string{
		"lodash":       "4.17.21",
		"../../escape": "1.0.0",
	}}

	deps, invalid := o.planDependencies(Options{})
	if len(deps) != 1 || deps[0].Name != "lodash" {
		t.Fatalf("deps = %+v, want only lodash", deps)
	}
	if len(invalid) != 1 {
		t.Fatalf("invalid = %v, want exactly one rejected entry", invalid)
	}
}
