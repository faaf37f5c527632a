package resolver

import "regexp"

// zigDevBuildPattern matches Zig's dev-build version scheme, e.g.
// "0.12.0-dev.1234+abcdef012". §4.1 step 1 routes a "zig"/"ziglang"
// dependency whose version matches this pattern straight to source=ziglang,
// bypassing the registry lookups entirely.
var zigDevBuildPattern = regexp.MustCompile(`^\d+\.\d+\.\d+-dev\.\d+\+[0-9a-f]+$`)

func isZigName(name string) bool {
	return name == "zig" || name == "ziglang"
}

func isZigDevBuild(version string) bool {
	return zigDevBuildPattern.MatchString(version)
}
