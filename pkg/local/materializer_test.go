package local

import (
	"os"
	"path/filepath"
	"testing"
)

func setupLocalPkg(t *testing.T, withSrc, withBin bool) string {
	t.Helper()
	dir := t.TempDir()
	if withSrc {
		if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if withBin {
		binDir := filepath.Join(dir, "zig-out", "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			t.Fatal(err)
		}
		exe := filepath.Join(binDir, "mytool")
		if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestResolvePathVariants(t *testing.T) {
	m := New("/home/user/.pantry/links", nil)

	got, err := m.ResolvePath("link:mylib", "/proj")
	if err != nil || got != "/home/user/.pantry/links/mylib" {
		t.Fatalf("link: got %q, %v", got, err)
	}

	got, err = m.ResolvePath("../sibling", "/proj")
	if err != nil || got != "/sibling" {
		t.Fatalf("../: got %q, %v", got, err)
	}

	got, err = m.ResolvePath("/abs/path", "/proj")
	if err != nil || got != "/abs/path" {
		t.Fatalf("abs: got %q, %v", got, err)
	}

	if _, err := m.ResolvePath("^1.0.0", "/proj"); err == nil {
		t.Fatal("expected error for a non-local version spec")
	}
}

func TestMaterializeFullPackage(t *testing.T) {
	localDir := setupLocalPkg(t, true, true)
	projectDir := t.TempDir()
	envBinDir := filepath.Join(t.TempDir(), "bin")

	m := New(filepath.Join(t.TempDir(), "links"), nil)
	result, err := m.Materialize("mypkg", localDir, projectDir, envBinDir)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if result.PackageName != "mypkg" {
		t.Fatalf("PackageName = %q", result.PackageName)
	}

	srcLink := filepath.Join(projectDir, "pantry", "mypkg", "src")
	if target, err := os.Readlink(srcLink); err != nil || target != filepath.Join(localDir, "src") {
		t.Fatalf("src symlink: target=%q err=%v", target, err)
	}

	convenienceLink := filepath.Join(envBinDir, "mypkg")
	if target, err := os.Readlink(convenienceLink); err != nil || target != localDir {
		t.Fatalf("convenience symlink: target=%q err=%v", target, err)
	}

	binLink := filepath.Join(projectDir, "pantry", ".bin", "mytool")
	if _, err := os.Lstat(binLink); err != nil {
		t.Fatalf("expected mytool symlinked into project bin dir: %v", err)
	}
}

func TestMaterializeMissingSrcIsWarningNotFailure(t *testing.T) {
	localDir := setupLocalPkg(t, false, false)
	projectDir := t.TempDir()

	m := New(filepath.Join(t.TempDir(), "links"), nil)
	result, err := m.Materialize("nosource", localDir, projectDir, "")
	if err != nil {
		t.Fatalf("expected missing src/ to be a warning, not an error: %v", err)
	}
	if result == nil {
		t.Fatal("expected a result even without a src directory")
	}

	srcLink := filepath.Join(projectDir, "pantry", "nosource", "src")
	if _, err := os.Lstat(srcLink); err == nil {
		t.Fatal("expected no src symlink to be created when local package has no src/")
	}
}

func TestMaterializeMissingPathFails(t *testing.T) {
	projectDir := t.TempDir()
	m := New(filepath.Join(t.TempDir(), "links"), nil)

	_, err := m.Materialize("ghost", filepath.Join(t.TempDir(), "does-not-exist"), projectDir, "")
	if err == nil {
		t.Fatal("expected an error when the local path does not exist")
	}
}
