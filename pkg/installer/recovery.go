package installer

// RecoverySuggestion is the user-facing hint printed alongside a failed
// package (§4.4, §7).
type RecoverySuggestion string

// recoverySuggestions maps an error Kind (see pkg/installer/errors.go) to
// the advisory text to print alongside it. Wording is advisory per spec.md
// §7, not a stable contract.
var recoverySuggestions = map[Kind]RecoverySuggestion{
	KindPackageNotFound:       "try `pantry search`",
	KindNetworkError:          "check connectivity or `--offline`",
	KindOfflineCacheMiss:      "run without `--offline` once to populate the cache",
	KindExtractionError:       "the cached artifact may be corrupt; try `pantry install --force`",
	KindLifecycleScriptFailed: "re-run with `--ignore-scripts` to skip its post-install step",
	KindSymlinkError:          "check filesystem permissions under the project's pantry/ directory",
}

// SuggestionFor returns the recovery suggestion for kind, if any.
func SuggestionFor(kind Kind) (RecoverySuggestion, bool) {
	s, ok := recoverySuggestions[kind]
	return s, ok
}
