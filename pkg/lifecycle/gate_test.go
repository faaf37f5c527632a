package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestIsTrustedDefaultList(t *testing.T) {
	g := New(nil, nil)
	if !g.IsTrusted("esbuild") {
		t.Fatal("expected esbuild to be default-trusted")
	}
	if g.IsTrusted("evil-pkg") {
		t.Fatal("expected evil-pkg to be untrusted by default")
	}
}

func TestIsTrustedProjectList(t *testing.T) {
	g := New([]string{"my-native-addon"}, nil)
	if !g.IsTrusted("my-native-addon") {
		t.Fatal("expected project-trusted package to be trusted")
	}
}

func TestRunPostInstallSkipsUntrusted(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")
	g := New(nil, nil)

	err := g.RunPostInstall(context.Background(), "evil-pkg", dir, "touch "+marker)
	if err != nil {
		t.Fatalf("RunPostInstall: %v", err)
	}
	if _, statErr := os.Stat(marker); statErr == nil {
		t.Fatal("expected untrusted script not to run")
	}
}

func TestRunPostInstallRunsTrusted(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")
	g := New(nil, nil)

	err := g.RunPostInstall(context.Background(), "esbuild", dir, "touch "+marker)
	if err != nil {
		t.Fatalf("RunPostInstall: %v", err)
	}
	if _, statErr := os.Stat(marker); statErr != nil {
		t.Fatalf("expected trusted script to run and create marker: %v", statErr)
	}
}

func TestRunPostInstallTimesOut(t *testing.T) {
	dir := t.TempDir()
	g := New(nil, nil)
	g.ScriptTimeout = 50 * time.Millisecond

	err := g.RunPostInstall(context.Background(), "esbuild", dir, "sleep 5")
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestSynthesizePATHIncludesAncestorBinDirs(t *testing.T) {
	root := t.TempDir()
	pkgDir := filepath.Join(root, "pantry", "sub", "pkg")
	os.MkdirAll(filepath.Join(root, "pantry", ".bin"), 0o755)
	os.MkdirAll(pkgDir, 0o755)

	path := synthesizePATH(pkgDir, "/usr/bin")
	if !contains(path, filepath.Join(root, "pantry", ".bin")) {
		t.Fatalf("PATH = %q, want it to include project's pantry/.bin", path)
	}
	if !contains(path, "/usr/bin") {
		t.Fatalf("PATH = %q, want inherited PATH preserved", path)
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && (haystack == needle || indexOf(haystack, needle) >= 0)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
