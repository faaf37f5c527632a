package installer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAtomicSymlinkCreatesNew(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	os.WriteFile(target, []byte("hi"), 0o644)
	dst := filepath.Join(dir, "link")

	if err := AtomicSymlink(target, dst); err != nil {
		t.Fatalf("AtomicSymlink: %v", err)
	}
	got, err := os.Readlink(dst)
	if err != nil || got != target {
		t.Fatalf("Readlink = %q, %v; want %q", got, err, target)
	}
}

func TestAtomicSymlinkReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	targetA := filepath.Join(dir, "a.txt")
	targetB := filepath.Join(dir, "b.txt")
	os.WriteFile(targetA, []byte("a"), 0o644)
	os.WriteFile(targetB, []byte("b"), 0o644)
	dst := filepath.Join(dir, "link")

	if err := AtomicSymlink(targetA, dst); err != nil {
		t.Fatalf("first AtomicSymlink: %v", err)
	}
	if err := AtomicSymlink(targetB, dst); err != nil {
		t.Fatalf("second AtomicSymlink: %v", err)
	}
	got, _ := os.Readlink(dst)
	if got != targetB {
		t.Fatalf("Readlink = %q, want %q", got, targetB)
	}
}

func TestAtomicSymlinkRejectsTraversalName(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	os.WriteFile(target, []byte("hi"), 0o644)

	if err := validateLinkName(dir + "/.."); err == nil {
		t.Fatal("expected error for '..' destination name")
	}
}

func TestAtomicSymlinkRejectsBackslash(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	os.WriteFile(target, []byte("hi"), 0o644)

	if err := validateLinkName(filepath.Join(dir, `evil\name`)); err == nil {
		t.Fatal("expected error for backslash in destination name")
	}
}
