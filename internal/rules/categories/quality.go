package categories

import (
	"context"
	"strings"

	"github.com/delfour-co/repolens/internal/config"
	"github.com/delfour-co/repolens/internal/rules"
	"github.com/delfour-co/repolens/internal/scanner"
)

const (
	testsRuleSlug        = "quality/tests"
	lintingRuleSlug      = "quality/linting"
	editorConfigRuleSlug = "files/editorconfig"

	missingTestsRuleID        = "QUALITY001"
	missingTestScriptRuleID   = "QUALITY002"
	missingLintingRuleID      = "QUALITY003"
	missingEditorConfigRuleID = "QUALITY004"
)

var testDirectoryNames = []string{"test", "tests", "__tests__", "spec", "specs"}
var testFilePatterns = []string{"*.test.*", "*.spec.*", "*_test.*", "*Test.*"}

var lintingConfigFileNames = []string{
	".eslintrc", ".eslintrc.js", ".eslintrc.json", ".eslintrc.yml", "eslint.config.js", "biome.json",
	".prettierrc", ".prettierrc.js", ".prettierrc.json",
	"pyproject.toml", ".flake8", "setup.cfg", ".pylintrc", "ruff.toml",
	".rubocop.yml",
	".golangci.yml", ".golangci.yaml",
	"rustfmt.toml", ".rustfmt.toml", "clippy.toml",
}

// QualityCategory checks for tests, linting configuration, and editor setup.
type QualityCategory struct{}

// NewQualityCategory constructs the quality category.
func NewQualityCategory() *QualityCategory {
	return &QualityCategory{}
}

// Name identifies the category.
func (category *QualityCategory) Name() string {
	return rules.CategoryQuality
}

// Run executes every quality check.
func (category *QualityCategory) Run(executionContext context.Context, repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error) {
	findings := []rules.Finding{}

	if configuration.IsRuleEnabled(testsRuleSlug) {
		testFindings, testError := checkTests(repositoryScanner)
		if testError != nil {
			return nil, testError
		}
		findings = append(findings, testFindings...)
	}
	if configuration.IsRuleEnabled(lintingRuleSlug) {
		findings = append(findings, checkLinting(repositoryScanner)...)
	}
	if configuration.IsRuleEnabled(editorConfigRuleSlug) {
		findings = append(findings, checkEditorConfig(repositoryScanner)...)
	}

	return findings, nil
}

func checkTests(repositoryScanner *scanner.Scanner) ([]rules.Finding, error) {
	hasTestDirectory := false
	for _, testDirectoryName := range testDirectoryNames {
		if repositoryScanner.DirectoryExists(testDirectoryName) {
			hasTestDirectory = true
			break
		}
	}

	hasTestFiles := false
	for _, testFilePattern := range testFilePatterns {
		matchingPaths, matchError := repositoryScanner.FilesMatchingPattern(testFilePattern)
		if matchError != nil {
			return nil, matchError
		}
		if len(matchingPaths) > 0 {
			hasTestFiles = true
			break
		}
	}

	findings := []rules.Finding{}
	if !hasTestDirectory && !hasTestFiles {
		findings = append(findings, rules.NewFinding(missingTestsRuleID, rules.CategoryQuality, rules.SeverityInfo, "No tests detected").
			WithDescription("Tests are important for ensuring code quality and catching regressions.").
			WithRemediation("Add tests to your project. Consider using a testing framework appropriate for your language."))
	}

	if repositoryScanner.FileExists("package.json") {
		packageContent, readError := repositoryScanner.ReadFile("package.json")
		if readError == nil {
			contentText := string(packageContent)
			if !strings.Contains(contentText, `"test"`) || strings.Contains(contentText, `"test": "echo`) {
				findings = append(findings, rules.NewFinding(missingTestScriptRuleID, rules.CategoryQuality, rules.SeverityInfo, "No test script defined in package.json").
					WithDescription("A 'test' script in package.json enables running tests with 'npm test'."))
			}
		}
	}

	return findings, nil
}

func checkLinting(repositoryScanner *scanner.Scanner) []rules.Finding {
	if anyFileExists(repositoryScanner, lintingConfigFileNames) {
		return nil
	}

	lintingSuggestion := ""
	switch {
	case repositoryScanner.FileExists("package.json"):
		lintingSuggestion = "ESLint for linting and Prettier for formatting"
	case repositoryScanner.FileExists("pyproject.toml") || repositoryScanner.FileExists("requirements.txt"):
		lintingSuggestion = "Ruff or Flake8 for linting"
	case repositoryScanner.FileExists("Gemfile"):
		lintingSuggestion = "RuboCop for linting"
	case repositoryScanner.FileExists("go.mod"):
		lintingSuggestion = "golangci-lint for linting"
	case repositoryScanner.FileExists("Cargo.toml"):
		lintingSuggestion = "Clippy for linting and rustfmt for formatting"
	default:
		return nil
	}

	return []rules.Finding{
		rules.NewFinding(missingLintingRuleID, rules.CategoryQuality, rules.SeverityInfo, "No linting configuration detected").
			WithDescription("Linting tools help maintain consistent code style and catch potential issues.").
			WithRemediation("Consider adding " + lintingSuggestion + " to your project."),
	}
}

func checkEditorConfig(repositoryScanner *scanner.Scanner) []rules.Finding {
	if repositoryScanner.FileExists(".editorconfig") {
		return nil
	}
	return []rules.Finding{
		rules.NewFinding(missingEditorConfigRuleID, rules.CategoryQuality, rules.SeverityInfo, ".editorconfig file is missing").
			WithDescription("EditorConfig helps maintain consistent coding styles across different editors and IDEs.").
			WithRemediation("Create a .editorconfig file to define coding style preferences."),
	}
}
