package rules

// Category names in their fixed execution order.
const (
	CategorySecrets      = "secrets"
	CategoryFiles        = "files"
	CategoryDocs         = "docs"
	CategorySecurity     = "security"
	CategoryWorkflows    = "workflows"
	CategoryQuality      = "quality"
	CategoryDependencies = "dependencies"
	CategoryLicenses     = "licenses"
	CategoryDocker       = "docker"
	CategoryGit          = "git"
	CategoryCustom       = "custom"
)

// CategoryNames lists every valid category in execution order.
func CategoryNames() []string {
	return []string{
		CategorySecrets,
		CategoryFiles,
		CategoryDocs,
		CategorySecurity,
		CategoryWorkflows,
		CategoryQuality,
		CategoryDependencies,
		CategoryLicenses,
		CategoryDocker,
		CategoryGit,
		CategoryCustom,
	}
}

// IsValidCategory reports whether the supplied name is a known category.
func IsValidCategory(categoryName string) bool {
	for _, knownName := range CategoryNames() {
		if knownName == categoryName {
			return true
		}
	}
	return false
}
