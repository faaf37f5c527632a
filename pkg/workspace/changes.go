package workspace

import (
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/pkg/errors"
)

// ChangedFiles returns every file path, relative to the repository root,
// that differs between ref and HEAD, plus (when includeWorkingTree is true)
// every uncommitted or untracked path reported by the worktree's status
// (§4.9's "plus optional uncommitted and untracked sets").
func ChangedFiles(repoDir, ref string, includeWorkingTree bool) ([]string, error) {
	repo, err := git.PlainOpen(repoDir)
	if err != nil {
		return nil, errors.Wrapf(err, "opening git repository at %s", repoDir)
	}

	files := map[string]bool{}

	headRef, err := repo.Head()
	if err != nil {
		return nil, errors.Wrap(err, "resolving HEAD")
	}
	headCommit, err := repo.CommitObject(headRef.Hash())
	if err != nil {
		return nil, errors.Wrap(err, "loading HEAD commit")
	}
	headTree, err := headCommit.Tree()
	if err != nil {
		return nil, errors.Wrap(err, "loading HEAD tree")
	}

	baseHash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, errors.Wrapf(err, "resolving ref %q", ref)
	}
	baseCommit, err := repo.CommitObject(*baseHash)
	if err != nil {
		return nil, errors.Wrapf(err, "loading commit for ref %q", ref)
	}
	baseTree, err := baseCommit.Tree()
	if err != nil {
		return nil, errors.Wrap(err, "loading base tree")
	}

	changes, err := baseTree.Diff(headTree)
	if err != nil {
		return nil, errors.Wrap(err, "diffing trees")
	}
	for _, change := range changes {
		if change.From.Name != "" {
			files[change.From.Name] = true
		}
		if change.To.Name != "" {
			files[change.To.Name] = true
		}
	}

	if includeWorkingTree {
		wt, err := repo.Worktree()
		if err != nil {
			return nil, errors.Wrap(err, "loading worktree")
		}
		status, err := wt.Status()
		if err != nil {
			return nil, errors.Wrap(err, "reading worktree status")
		}
		for path := range status {
			files[path] = true
		}
	}

	out := make([]string, 0, len(files))
	for f := range files {
		out = append(out, f)
	}
	return out, nil
}

// AffectedMembers filters members to those containing at least one changed
// file (§4.9).
func AffectedMembers(members []Member, changedFiles []string) []Member {
	var affected []Member
	for _, m := range members {
		prefix := filepath.ToSlash(m.Path) + "/"
		for _, f := range changedFiles {
			f = filepath.ToSlash(f)
			if f == filepath.ToSlash(m.Path) || strings.HasPrefix(f, prefix) {
				affected = append(affected, m)
				break
			}
		}
	}
	return affected
}
