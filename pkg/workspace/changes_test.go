package workspace

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestChangedFilesBetweenCommits(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}

	sig := &object.Signature{Name: "test", Email: "test@example.com", When: time.Unix(0, 0)}

	writeFile(t, filepath.Join(dir, "packages", "a", "index.js"), "console.log('a')")
	if _, err := wt.Add("packages/a/index.js"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	baseHash, err := wt.Commit("base", &git.CommitOptions{Author: sig})
	if err != nil {
		t.Fatalf("Commit base: %v", err)
	}

	writeFile(t, filepath.Join(dir, "packages", "b", "index.js"), "console.log('b')")
	if _, err := wt.Add("packages/b/index.js"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := wt.Commit("add b", &git.CommitOptions{Author: sig}); err != nil {
		t.Fatalf("Commit head: %v", err)
	}

	files, err := ChangedFiles(dir, baseHash.String(), false)
	if err != nil {
		t.Fatalf("ChangedFiles: %v", err)
	}

	found := false
	for _, f := range files {
		if f == "packages/b/index.js" {
			found = true
		}
	}
	if !found {
		t.Fatalf("ChangedFiles = %v, want packages/b/index.js", files)
	}

	members := []Member{{Path: "packages/a", Name: "a"}, {Path: "packages/b", Name: "b"}}
	affected := AffectedMembers(members, files)
	if len(affected) != 1 || affected[0].Name != "b" {
		t.Fatalf("AffectedMembers = %+v, want only b", affected)
	}
}
