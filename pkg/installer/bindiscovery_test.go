package installer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoverExecutablesFindsBinAtDepth(t *testing.T) {
	root := t.TempDir()
	binDir := filepath.Join(root, "a", "b", "bin")
	os.MkdirAll(binDir, 0o755)
	os.WriteFile(filepath.Join(binDir, "tool"), []byte("#!/bin/sh\n"), 0o644)

	found, err := discoverExecutables(root)
	if err != nil {
		t.Fatalf("discoverExecutables: %v", err)
	}
	if len(found) != 1 || filepath.Base(found[0]) != "tool" {
		t.Fatalf("found = %v, want one entry named tool", found)
	}
}

func TestDiscoverExecutablesStopsAtDepthEight(t *testing.T) {
	root := t.TempDir()
	deep := root
	for i := 0; i < 10; i++ {
		deep = filepath.Join(deep, "d")
	}
	binDir := filepath.Join(deep, "bin")
	os.MkdirAll(binDir, 0o755)
	os.WriteFile(filepath.Join(binDir, "deep-tool"), []byte("x"), 0o644)

	found, err := discoverExecutables(root)
	if err != nil {
		t.Fatalf("discoverExecutables: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("found = %v, want none (bin dir exceeds depth 8)", found)
	}
}

func TestLinkExecutablesChmodsAndLinks(t *testing.T) {
	root := t.TempDir()
	binDir := filepath.Join(root, "pkg", "bin")
	dst := filepath.Join(root, ".bin")
	os.MkdirAll(binDir, 0o755)
	os.MkdirAll(dst, 0o755)
	exe := filepath.Join(binDir, "tool")
	os.WriteFile(exe, []byte("x"), 0o600)

	if err := linkExecutables([]string{exe}, dst); err != nil {
		t.Fatalf("linkExecutables: %v", err)
	}
	fi, err := os.Stat(exe)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o755 {
		t.Fatalf("mode = %v, want 0755", fi.Mode().Perm())
	}
	link := filepath.Join(dst, "tool")
	if target, err := os.Readlink(link); err != nil || target != exe {
		t.Fatalf("Readlink(%s) = %q, %v; want %q", link, target, err, exe)
	}
}
