package resolver

import (
	"fmt"

	"github.com/home-lang/pantry-sub012/pkg/dependency"
	"github.com/home-lang/pantry-sub012/pkg/pkgspec"
)

// resolveGitHub turns a GitHubRef into a PackageSpec without cloning
// anything: the core only needs the fetch location, which for a github-hosted
// dependency is a tarball URL at a pinned ref. Actually cloning or listing
// remote refs is the Package Download Cache's job (§1 names tarball
// extraction and transport as external collaborators); `github.com/
// Masterminds/vcs`, which golang-dep uses for exactly that job, is
// therefore not wired here (see DESIGN.md).
func resolveGitHub(ref dependency.GitHubRef) (pkgspec.PackageSpec, error) {
	if ref.Owner == "" || ref.Repo == "" {
		return pkgspec.PackageSpec{}, newError(KindInvalidVersionSpec, ref.Repo, "github dependency missing owner/repo", nil)
	}
	rev := ref.Ref
	if rev == "" {
		rev = "HEAD"
	}
	url := fmt.Sprintf("https://codeload.github.com/%s/%s/tar.gz/%s", ref.Owner, ref.Repo, rev)
	return pkgspec.PackageSpec{
		Name:    ref.Repo,
		Version: rev,
		Source:  pkgspec.SourceGitHub,
		URL:     url,
		Repo:    ref.Owner + "/" + ref.Repo,
		Ref:     rev,
	}, nil
}
