package categories

import (
	"context"

	"github.com/delfour-co/repolens/internal/config"
	"github.com/delfour-co/repolens/internal/rules"
	"github.com/delfour-co/repolens/internal/scanner"
)

const (
	codeOwnersRuleSlug         = "security/codeowners"
	dependencyHygieneRuleSlug  = "security/dependencies"
	missingCodeOwnersRuleID    = "SECURITY001"
	missingLockFileRuleID      = "SECURITY002"
	missingVersionFileRuleID   = "SECURITY003"
	codeOwnersRemediationText  = "Create a CODEOWNERS file in .github/ to define code ownership and review requirements."
	lockFileRemediationText    = "Generate the lock file by running your package manager's install command."
	versionFileDescriptionText = "Specifying runtime versions (e.g., .nvmrc, .python-version) ensures consistent development environments."
)

var codeOwnersFileNames = []string{"CODEOWNERS", ".github/CODEOWNERS", "docs/CODEOWNERS"}

var manifestLockFilePairs = []struct {
	manifestFile string
	lockFile     string
}{
	{"package.json", "package-lock.json"},
	{"Cargo.toml", "Cargo.lock"},
	{"Gemfile", "Gemfile.lock"},
	{"pyproject.toml", "poetry.lock"},
	{"Pipfile", "Pipfile.lock"},
	{"composer.json", "composer.lock"},
	{"go.mod", "go.sum"},
}

var runtimeVersionFileNames = []string{
	".nvmrc", ".node-version", ".python-version", ".ruby-version", "rust-toolchain.toml",
}

var projectTypeMarkerFiles = []string{
	"package.json", "pyproject.toml", "requirements.txt", "Gemfile", "Cargo.toml",
}

// SecurityCategory checks ownership, lock file, and runtime pinning hygiene.
type SecurityCategory struct{}

// NewSecurityCategory constructs the security category.
func NewSecurityCategory() *SecurityCategory {
	return &SecurityCategory{}
}

// Name identifies the category.
func (category *SecurityCategory) Name() string {
	return rules.CategorySecurity
}

// Run executes every security check.
func (category *SecurityCategory) Run(executionContext context.Context, repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error) {
	findings := []rules.Finding{}

	if configuration.IsRuleEnabled(codeOwnersRuleSlug) {
		findings = append(findings, checkCodeOwners(repositoryScanner, configuration)...)
	}
	if configuration.IsRuleEnabled(dependencyHygieneRuleSlug) {
		findings = append(findings, checkDependencyHygiene(repositoryScanner)...)
	}

	return findings, nil
}

func checkCodeOwners(repositoryScanner *scanner.Scanner, configuration *config.Config) []rules.Finding {
	if anyFileExists(repositoryScanner, codeOwnersFileNames) {
		return nil
	}
	// Enterprise repositories treat missing ownership as a blocker.
	defaultSeverity := rules.SeverityInfo
	if configuration.Preset == string(config.PresetEnterprise) {
		defaultSeverity = rules.SeverityCritical
	}
	severity := resolveSeverity(configuration, codeOwnersRuleSlug, defaultSeverity)
	return []rules.Finding{
		rules.NewFinding(missingCodeOwnersRuleID, rules.CategorySecurity, severity, "CODEOWNERS file is missing").
			WithDescription("A CODEOWNERS file automatically assigns reviewers to pull requests based on file paths.").
			WithRemediation(codeOwnersRemediationText),
	}
}

func checkDependencyHygiene(repositoryScanner *scanner.Scanner) []rules.Finding {
	findings := []rules.Finding{}

	for _, filePair := range manifestLockFilePairs {
		if repositoryScanner.FileExists(filePair.manifestFile) && !repositoryScanner.FileExists(filePair.lockFile) {
			findings = append(findings, rules.NewFinding(missingLockFileRuleID, rules.CategorySecurity, rules.SeverityWarning, "Lock file "+filePair.lockFile+" is missing").
				WithDescription("Lock files ensure reproducible builds and protect against supply chain attacks.").
				WithRemediation(lockFileRemediationText))
		}
	}

	if !anyFileExists(repositoryScanner, runtimeVersionFileNames) && anyFileExists(repositoryScanner, projectTypeMarkerFiles) {
		findings = append(findings, rules.NewFinding(missingVersionFileRuleID, rules.CategorySecurity, rules.SeverityInfo, "No runtime version file found").
			WithDescription(versionFileDescriptionText))
	}

	return findings
}
