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
	largeFileRuleSlug     = "files/large"
	gitIgnoreRuleSlug     = "files/gitignore"
	temporaryFileRuleSlug = "files/temp"

	largeFileRuleID        = "FILE001"
	missingGitIgnoreRuleID = "FILE002"
	gitIgnoreEntryRuleID   = "FILE003"
	temporaryFileRuleID    = "FILE004"

	largeFileThresholdBytes = 10 * 1024 * 1024
	gitIgnoreFileName       = ".gitignore"
)

var recommendedGitIgnoreEntries = []struct {
	pattern     string
	description string
}{
	{".env", "Environment files"},
	{"*.key", "Private keys"},
	{"*.pem", "Certificates"},
	{"node_modules", "Node.js dependencies"},
	{".DS_Store", "macOS metadata"},
}

var temporaryFilePatterns = []string{"*.log", "*.tmp", "*.temp", "*~", "*.swp", "*.swo", "*.bak"}

// FilesCategory checks repository hygiene around large, ignored, and
// temporary files.
type FilesCategory struct{}

// NewFilesCategory constructs the files category.
func NewFilesCategory() *FilesCategory {
	return &FilesCategory{}
}

// Name identifies the category.
func (category *FilesCategory) Name() string {
	return rules.CategoryFiles
}

// Run executes every files check.
func (category *FilesCategory) Run(executionContext context.Context, repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error) {
	findings := []rules.Finding{}

	if configuration.IsRuleEnabled(largeFileRuleSlug) {
		largeFileFindings, largeFileError := checkLargeFiles(repositoryScanner, configuration)
		if largeFileError != nil {
			return nil, largeFileError
		}
		findings = append(findings, largeFileFindings...)
	}

	if configuration.IsRuleEnabled(gitIgnoreRuleSlug) {
		findings = append(findings, checkGitIgnore(repositoryScanner, configuration)...)
	}

	if configuration.IsRuleEnabled(temporaryFileRuleSlug) {
		temporaryFindings, temporaryError := checkTemporaryFiles(repositoryScanner, configuration)
		if temporaryError != nil {
			return nil, temporaryError
		}
		findings = append(findings, temporaryFindings...)
	}

	return findings, nil
}

func checkLargeFiles(repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error) {
	severity := resolveSeverity(configuration, largeFileRuleSlug, rules.SeverityWarning)
	largeFiles, sizeError := repositoryScanner.FilesLargerThan(largeFileThresholdBytes)
	if sizeError != nil {
		return nil, sizeError
	}
	findings := []rules.Finding{}
	for _, largeFile := range largeFiles {
		sizeMegabytes := float64(largeFile.Size) / 1024.0 / 1024.0
		findings = append(findings, rules.NewFinding(largeFileRuleID, rules.CategoryFiles, severity, fmt.Sprintf("Large file detected (%.1f MB)", sizeMegabytes)).
			WithLocation(largeFile.Path, 0).
			WithDescription("Large files can slow down repository operations and increase clone times.").
			WithRemediation("Consider using Git LFS (Large File Storage) for binary or large files."))
	}
	return findings, nil
}

func checkGitIgnore(repositoryScanner *scanner.Scanner, configuration *config.Config) []rules.Finding {
	if !repositoryScanner.FileExists(gitIgnoreFileName) {
		severity := resolveSeverity(configuration, gitIgnoreRuleSlug, rules.SeverityWarning)
		return []rules.Finding{
			rules.NewFinding(missingGitIgnoreRuleID, rules.CategoryFiles, severity, ".gitignore file is missing").
				WithDescription("A .gitignore file helps prevent accidentally committing unwanted files.").
				WithRemediation("Create a .gitignore file with appropriate patterns for your project type."),
		}
	}

	gitIgnoreContent, readError := repositoryScanner.ReadFile(gitIgnoreFileName)
	if readError != nil {
		return nil
	}
	contentText := string(gitIgnoreContent)
	findings := []rules.Finding{}
	for _, recommendedEntry := range recommendedGitIgnoreEntries {
		if strings.Contains(contentText, recommendedEntry.pattern) {
			continue
		}
		findings = append(findings, rules.NewFinding(gitIgnoreEntryRuleID, rules.CategoryFiles, rules.SeverityInfo, ".gitignore missing recommended entry: "+recommendedEntry.pattern).
			WithDescription(fmt.Sprintf("Adding '%s' to .gitignore helps prevent committing %s.", recommendedEntry.pattern, strings.ToLower(recommendedEntry.description))))
	}
	return findings
}

func checkTemporaryFiles(repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error) {
	severity := resolveSeverity(configuration, temporaryFileRuleSlug, rules.SeverityWarning)
	findings := []rules.Finding{}
	for _, temporaryPattern := range temporaryFilePatterns {
		matchingPaths, matchError := repositoryScanner.FilesMatchingPattern(temporaryPattern)
		if matchError != nil {
			return nil, matchError
		}
		for _, matchingPath := range matchingPaths {
			findings = append(findings, rules.NewFinding(temporaryFileRuleID, rules.CategoryFiles, severity, "Temporary file found in repository").
				WithLocation(matchingPath, 0).
				WithDescription("Temporary files should not be committed to version control.").
				WithRemediation("Remove the file and add the pattern to .gitignore."))
		}
	}
	return findings, nil
}
