package workspace

// Overrides is a package.json-style "overrides" map: dependency name to the
// version that replaces whatever a member declared for it, applied before
// resolution (§4.9).
type Overrides map[string]string

// Apply returns the override for depName if one is declared, else
// versionSpec unchanged.
func (o Overrides) Apply(depName, versionSpec string) string {
	if override, ok := o[depName]; ok {
		return override
	}
	return versionSpec
}
