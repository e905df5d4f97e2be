package categories

import (
	"context"
	"fmt"
	"strings"

	"github.com/delfour-co/repolens/internal/config"
	"github.com/delfour-co/repolens/internal/rules"
	"github.com/delfour-co/repolens/internal/scanner"
)

const (
	readmeRuleSlug        = "docs/readme"
	licenseRuleSlug       = "docs/license"
	contributingRuleSlug  = "docs/contributing"
	codeOfConductRuleSlug = "docs/code-of-conduct"
	securityPolicyDocSlug = "docs/security"

	missingReadmeRuleID        = "DOC001"
	shortReadmeRuleID          = "DOC002"
	readmeSectionRuleID        = "DOC003"
	missingLicenseRuleID       = "DOC004"
	missingContributingRuleID  = "DOC005"
	missingCodeOfConductRuleID = "DOC006"
	missingSecurityRuleID      = "DOC007"

	minimumReadmeLineCount = 10
)

var readmeFileNames = []string{"README.md", "README", "README.txt", "README.rst"}
var licenseFileNames = []string{"LICENSE", "LICENSE.md", "LICENSE.txt", "COPYING"}
var contributingFileNames = []string{"CONTRIBUTING.md", "CONTRIBUTING", ".github/CONTRIBUTING.md"}
var codeOfConductFileNames = []string{"CODE_OF_CONDUCT.md", "CODE_OF_CONDUCT", ".github/CODE_OF_CONDUCT.md"}
var securityPolicyFileNames = []string{"SECURITY.md", ".github/SECURITY.md"}

var recommendedReadmeSections = []struct {
	keyword     string
	description string
}{
	{"installation", "Installation instructions"},
	{"usage", "Usage examples"},
	{"license", "License information"},
}

// DocsCategory checks the presence and quality of project documentation.
type DocsCategory struct{}

// NewDocsCategory constructs the docs category.
func NewDocsCategory() *DocsCategory {
	return &DocsCategory{}
}

// Name identifies the category.
func (category *DocsCategory) Name() string {
	return rules.CategoryDocs
}

// Run executes every documentation check.
func (category *DocsCategory) Run(executionContext context.Context, repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error) {
	findings := []rules.Finding{}

	if configuration.IsRuleEnabled(readmeRuleSlug) {
		findings = append(findings, checkReadme(repositoryScanner, configuration)...)
	}
	if configuration.IsRuleEnabled(licenseRuleSlug) {
		findings = append(findings, checkLicenseFile(repositoryScanner, configuration)...)
	}
	if configuration.IsRuleEnabled(contributingRuleSlug) {
		findings = append(findings, checkMissingDocument(repositoryScanner, contributingFileNames,
			missingContributingRuleID, "CONTRIBUTING file is missing",
			"A CONTRIBUTING file helps potential contributors understand how to participate in your project.",
			"Create a CONTRIBUTING.md file with contribution guidelines, code style, and pull request process.")...)
	}
	if configuration.IsRuleEnabled(codeOfConductRuleSlug) {
		findings = append(findings, checkMissingDocument(repositoryScanner, codeOfConductFileNames,
			missingCodeOfConductRuleID, "CODE_OF_CONDUCT file is missing",
			"A Code of Conduct establishes expectations for behavior and helps create a welcoming community.",
			"Add a CODE_OF_CONDUCT.md file. Consider using the Contributor Covenant as a starting point.")...)
	}
	if configuration.IsRuleEnabled(securityPolicyDocSlug) {
		findings = append(findings, checkMissingDocument(repositoryScanner, securityPolicyFileNames,
			missingSecurityRuleID, "SECURITY policy file is missing",
			"A SECURITY.md file tells users how to report security vulnerabilities responsibly.",
			"Create a SECURITY.md file with instructions for reporting security issues.")...)
	}

	return findings, nil
}

func anyFileExists(repositoryScanner *scanner.Scanner, fileNames []string) bool {
	for _, fileName := range fileNames {
		if repositoryScanner.FileExists(fileName) {
			return true
		}
	}
	return false
}

func checkReadme(repositoryScanner *scanner.Scanner, configuration *config.Config) []rules.Finding {
	if !anyFileExists(repositoryScanner, readmeFileNames) {
		severity := resolveSeverity(configuration, readmeRuleSlug, rules.SeverityWarning)
		return []rules.Finding{
			rules.NewFinding(missingReadmeRuleID, rules.CategoryDocs, severity, "README file is missing").
				WithDescription("A README file is essential for explaining what the project does and how to use it.").
				WithRemediation("Create a README.md file with project description, installation instructions, and usage examples."),
		}
	}

	readmeContent, readError := repositoryScanner.ReadFile("README.md")
	if readError != nil {
		return nil
	}
	contentText := string(readmeContent)
	findings := []rules.Finding{}

	lineCount := len(strings.Split(strings.TrimRight(contentText, "\n"), "\n"))
	if lineCount < minimumReadmeLineCount {
		findings = append(findings, rules.NewFinding(shortReadmeRuleID, rules.CategoryDocs, rules.SeverityWarning, fmt.Sprintf("README is too short (%d lines)", lineCount)).
			WithDescription("A comprehensive README should include sections for description, installation, usage, and contribution guidelines."))
	}

	loweredContent := strings.ToLower(contentText)
	for _, recommendedSection := range recommendedReadmeSections {
		if strings.Contains(loweredContent, recommendedSection.keyword) {
			continue
		}
		findings = append(findings, rules.NewFinding(readmeSectionRuleID, rules.CategoryDocs, rules.SeverityInfo, "README missing section: "+recommendedSection.description))
	}
	return findings
}

func checkLicenseFile(repositoryScanner *scanner.Scanner, configuration *config.Config) []rules.Finding {
	if anyFileExists(repositoryScanner, licenseFileNames) {
		return nil
	}
	// Enterprise repositories commonly omit a public license.
	if configuration.Preset == string(config.PresetEnterprise) {
		return nil
	}
	severity := resolveSeverity(configuration, licenseRuleSlug, rules.SeverityCritical)
	return []rules.Finding{
		rules.NewFinding(missingLicenseRuleID, rules.CategoryDocs, severity, "LICENSE file is missing").
			WithDescription("A LICENSE file is required for open source projects to define how others can use your code.").
			WithRemediation("Add a LICENSE file with an appropriate open source license (MIT, Apache-2.0, GPL-3.0, etc.)."),
	}
}

func checkMissingDocument(repositoryScanner *scanner.Scanner, fileNames []string, ruleIdentifier string, message string, description string, remediation string) []rules.Finding {
	if anyFileExists(repositoryScanner, fileNames) {
		return nil
	}
	return []rules.Finding{
		rules.NewFinding(ruleIdentifier, rules.CategoryDocs, rules.SeverityWarning, message).
			WithDescription(description).
			WithRemediation(remediation),
	}
}
