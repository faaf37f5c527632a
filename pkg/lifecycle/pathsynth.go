package lifecycle

import (
	"os"
	"path/filepath"
	"strings"
)

// maxPathAncestorDepth bounds how far up from a package's install directory
// PATH synthesis walks looking for ancestor "pantry/.bin" directories
// (§4.6, §8).
const maxPathAncestorDepth = 20

// synthesizePATH builds a PATH value composed of every "<ancestor>/pantry/
// .bin" from installDir up to maxPathAncestorDepth levels, followed by the
// inherited PATH (§4.6). It is rebuilt from scratch on every invocation,
// never cached across scripts, because the ancestor walk depends on the
// package currently being installed (spec.md §9's design note).
func synthesizePATH(installDir, inheritedPATH string) string {
	var bins []string
	dir := installDir
	for depth := 0; depth < maxPathAncestorDepth; depth++ {
		candidate := filepath.Join(dir, "pantry", ".bin")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			bins = append(bins, candidate)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if len(bins) == 0 {
		return inheritedPATH
	}
	return strings.Join(bins, string(os.PathListSeparator)) + string(os.PathListSeparator) + inheritedPATH
}
