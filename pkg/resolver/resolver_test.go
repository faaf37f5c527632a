package resolver

import (
	"context"
	"sync"
	"testing"

	"github.com/home-lang/pantry-sub012/pkg/dependency"
	"github.com/home-lang/pantry-sub012/pkg/pkgspec"
)

type mapBuiltin map[string]string

func (m mapBuiltin) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

type fakeNPM struct {
	meta map[string]*NPMPackageMeta
}

func (f *fakeNPM) FetchPackageMeta(_ context.Context, name string) (*NPMPackageMeta, error) {
	m, ok := f.meta[name]
	if !ok {
		return nil, errNotFound
	}
	return m, nil
}

var errNotFound = &Error{Kind: KindPackageNotFound, Package: "unknown"}

func TestResolveBuiltin(t *testing.T) {
	r := New(mapBuiltin{"core-tool": "1.0.0"}, nil, nil)
	spec, err := r.Resolve(context.Background(), dependency.Dependency{Name: "core-tool", VersionSpec: "1.0.0"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if spec.Source != pkgspec.SourceBuiltinRegistry {
		t.Fatalf("Source = %v, want builtin_registry", spec.Source)
	}
}

func TestResolveNPMLatest(t *testing.T) {
	npm := &fakeNPM{meta: map[string]*NPMPackageMeta{
		"lodash": {
			DistTags: map[string]string{"latest": "4.17.21"},
			Versions: map[string]NPMVersionMeta{
				"4.17.21": {Dist: struct{ Tarball string }{Tarball: "https://registry.npmjs.org/lodash/-/lodash-4.17.21.tgz"}},
			},
		},
	}}
	r := New(nil, nil, npm)
	spec, err := r.Resolve(context.Background(), dependency.Dependency{Name: "lodash", VersionSpec: "latest"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if spec.Version != "4.17.21" || spec.Source != pkgspec.SourceNPM {
		t.Fatalf("unexpected spec: %+v", spec)
	}
}

func TestResolveNPMSemverRange(t *testing.T) {
	npm := &fakeNPM{meta: map[string]*NPMPackageMeta{
		"foo": {
			Versions: map[string]NPMVersionMeta{
				"1.2.0": {Dist: struct{ Tarball string }{Tarball: "https://example.com/foo-1.2.0.tgz"}},
				"1.3.0": {Dist: struct{ Tarball string }{Tarball: "https://example.com/foo-1.3.0.tgz"}},
				"2.0.0": {Dist: struct{ Tarball string }{Tarball: "https://example.com/foo-2.0.0.tgz"}},
			},
		},
	}}
	r := New(nil, nil, npm)
	spec, err := r.Resolve(context.Background(), dependency.Dependency{Name: "foo", VersionSpec: "^1.0.0"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if spec.Version != "1.3.0" {
		t.Fatalf("Version = %q, want 1.3.0 (highest satisfying ^1.0.0)", spec.Version)
	}
}

func TestResolveRejectsFileScheme(t *testing.T) {
	npm := &fakeNPM{meta: map[string]*NPMPackageMeta{
		"evil": {
			DistTags: map[string]string{"latest": "1.0.0"},
			Versions: map[string]NPMVersionMeta{
				"1.0.0": {Dist: struct{ Tarball string }{Tarball: "file:///etc/passwd"}},
			},
		},
	}}
	r := New(nil, nil, npm)
	_, err := r.Resolve(context.Background(), dependency.Dependency{Name: "evil", VersionSpec: "latest"})
	if err == nil {
		t.Fatal("expected error for file:// tarball scheme")
	}
}

func TestResolveNotFound(t *testing.T) {
	r := New(nil, nil, &fakeNPM{meta: map[string]*NPMPackageMeta{}})
	_, err := r.Resolve(context.Background(), dependency.Dependency{Name: "zzz-nope", VersionSpec: "1.0.0"})
	var rerr *Error
	if err == nil {
		t.Fatal("expected PackageNotFound error")
	}
	if !asResolverError(err, &rerr) || rerr.Kind != KindPackageNotFound {
		t.Fatalf("expected PackageNotFound, got %v", err)
	}
}

func asResolverError(err error, target **Error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = e
	return true
}

func TestResolveDedupConcurrent(t *testing.T) {
	npm := &fakeNPM{meta: map[string]*NPMPackageMeta{
		"lodash": {
			DistTags: map[string]string{"latest": "4.17.21"},
			Versions: map[string]NPMVersionMeta{
				"4.17.21": {Dist: struct{ Tarball string }{Tarball: "https://registry.npmjs.org/lodash/-/lodash-4.17.21.tgz"}},
			},
		},
	}}
	r := New(nil, nil, npm)

	var wg sync.WaitGroup
	results := make([]pkgspec.PackageSpec, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			spec, err := r.Resolve(context.Background(), dependency.Dependency{Name: "lodash", VersionSpec: "latest"})
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = spec
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatalf("expected byte-identical PackageSpec across concurrent resolutions, got %+v vs %+v", results[i], results[0])
		}
	}
}
