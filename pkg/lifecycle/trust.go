package lifecycle

// defaultTrustList is the static set of well-known native-addon and
// build-tool packages permitted to run lifecycle scripts without explicit
// project opt-in (§4.6). It is compiled-in configuration data, not code
// (spec.md §9's design note), kept as a plain map literal for exactly that
// reason - extending it is a data change, never a logic change.
var defaultTrustList = map[string]bool{
	"esbuild":        true,
	"swc":            true,
	"@swc/core":      true,
	"sharp":          true,
	"node-gyp":       true,
	"node-gyp-build": true,
	"fsevents":       true,
	"core-js":        true,
	"protobufjs":     true,
	"puppeteer":      true,
	"cypress":        true,
	"electron":       true,
	"bufferutil":     true,
	"utf-8-validate": true,
	"better-sqlite3": true,
	"canvas":         true,
}

// IsDefaultTrusted reports whether name is in the built-in default trust
// list, independent of any project-level trustedDependencies declaration.
func IsDefaultTrusted(name string) bool {
	return defaultTrustList[name]
}
