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
	largeBinariesRuleSlug     = "git/large-binaries"
	gitattributesRuleSlug     = "git/gitattributes"
	sensitiveTrackingRuleSlug = "git/sensitive-files"

	largeBinaryFileRuleID      = "GIT001"
	missingGitattributesRuleID = "GIT002"
	trackedSensitiveFileRuleID = "GIT003"

	largeBinaryThresholdBytes = 1024 * 1024
)

var binaryFileExtensions = []string{
	"exe", "dll", "so", "dylib", "zip", "tar", "gz", "png", "jpg", "jpeg",
	"mp4", "pdf", "jar", "whl", "a", "lib", "bin", "o", "obj",
}

var trackedSensitivePatterns = []string{
	".env", "*.key", "*.pem", "credentials*", "secrets*", "*_rsa", "*.p12",
}

// GitCategory checks repository tracking hygiene.
type GitCategory struct{}

// NewGitCategory constructs the git category.
func NewGitCategory() *GitCategory {
	return &GitCategory{}
}

// Name identifies the category.
func (category *GitCategory) Name() string {
	return rules.CategoryGit
}

// Run evaluates every enabled git hygiene rule.
func (category *GitCategory) Run(executionContext context.Context, repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error) {
	findings := []rules.Finding{}

	if configuration.IsRuleEnabled(largeBinariesRuleSlug) {
		largeBinaryFindings, checkError := checkLargeBinaryFiles(repositoryScanner, configuration)
		if checkError != nil {
			return nil, checkError
		}
		findings = append(findings, largeBinaryFindings...)
	}
	if configuration.IsRuleEnabled(gitattributesRuleSlug) {
		findings = append(findings, checkGitattributesPresence(repositoryScanner, configuration)...)
	}
	if configuration.IsRuleEnabled(sensitiveTrackingRuleSlug) {
		sensitiveFindings, checkError := checkTrackedSensitiveFiles(repositoryScanner, configuration)
		if checkError != nil {
			return nil, checkError
		}
		findings = append(findings, sensitiveFindings...)
	}

	return findings, nil
}

func checkLargeBinaryFiles(repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error) {
	largeFiles, sizeError := repositoryScanner.FilesLargerThan(largeBinaryThresholdBytes)
	if sizeError != nil {
		return nil, sizeError
	}
	findings := []rules.Finding{}
	for _, fileInfo := range largeFiles {
		lowerPath := strings.ToLower(fileInfo.Path)
		hasBinaryExtension := false
		for _, binaryExtension := range binaryFileExtensions {
			if strings.HasSuffix(lowerPath, "."+binaryExtension) {
				hasBinaryExtension = true
				break
			}
		}
		if !hasBinaryExtension {
			continue
		}
		sizeMegabytes := float64(fileInfo.Size) / (1024.0 * 1024.0)
		findings = append(findings, rules.NewFinding(largeBinaryFileRuleID, rules.CategoryGit,
			resolveSeverity(configuration, largeBinariesRuleSlug, rules.SeverityWarning),
			fmt.Sprintf("Large binary file %q (%.2f MB) detected", fileInfo.Path, sizeMegabytes)).
			WithLocation(fileInfo.Path, 0).
			WithDescription("Large binary files increase clone time, consume disk space, and cannot be efficiently diffed.").
			WithRemediation("Use Git LFS or an external artifact repository for binary files, or add the file to .gitignore."))
	}
	return findings, nil
}

func checkGitattributesPresence(repositoryScanner *scanner.Scanner, configuration *config.Config) []rules.Finding {
	if repositoryScanner.FileExists(".gitattributes") {
		return nil
	}
	return []rules.Finding{
		rules.NewFinding(missingGitattributesRuleID, rules.CategoryGit,
			resolveSeverity(configuration, gitattributesRuleSlug, rules.SeverityInfo),
			".gitattributes file is missing").
			WithDescription("A .gitattributes file keeps line endings consistent across platforms and defines binary handling and Git LFS patterns.").
			WithRemediation("Create a .gitattributes file, e.g. starting with '* text=auto'."),
	}
}

func checkTrackedSensitiveFiles(repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error) {
	gitignoreContent := ""
	if rawContent, readError := repositoryScanner.ReadFile(gitIgnoreFileName); readError == nil {
		gitignoreContent = string(rawContent)
	}

	findings := []rules.Finding{}
	for _, sensitivePattern := range trackedSensitivePatterns {
		matchingPaths, matchError := findFilesMatchingSensitivePattern(repositoryScanner, sensitivePattern)
		if matchError != nil {
			return nil, matchError
		}
		for _, filePath := range matchingPaths {
			if gitignoreCoversFile(gitignoreContent, filePath, sensitivePattern) {
				continue
			}
			findings = append(findings, rules.NewFinding(trackedSensitiveFileRuleID, rules.CategoryGit,
				resolveSeverity(configuration, sensitiveTrackingRuleSlug, rules.SeverityWarning),
				fmt.Sprintf("Sensitive file %q may be tracked in repository", filePath)).
				WithLocation(filePath, 0).
				WithDescription("The file matches a sensitive pattern and may contain secrets or private keys. Tracked files remain in repository history even after deletion.").
				WithRemediation(fmt.Sprintf("Add %q or %q to .gitignore. If already committed, remove it from history and rotate any exposed credentials.", filePath, sensitivePattern)))
		}
	}
	return findings, nil
}

func findFilesMatchingSensitivePattern(repositoryScanner *scanner.Scanner, sensitivePattern string) ([]string, error) {
	switch {
	case strings.HasPrefix(sensitivePattern, "*."):
		return repositoryScanner.FilesWithExtensions([]string{strings.TrimPrefix(sensitivePattern, "*.")})
	case strings.HasSuffix(sensitivePattern, "*"):
		candidatePaths, matchError := repositoryScanner.FilesMatchingPattern(sensitivePattern)
		if matchError != nil {
			return nil, matchError
		}
		namePrefix := strings.TrimSuffix(sensitivePattern, "*")
		matchingPaths := []string{}
		for _, candidatePath := range candidatePaths {
			fileName := candidatePath
			if slashIndex := strings.LastIndex(fileName, "/"); slashIndex >= 0 {
				fileName = fileName[slashIndex+1:]
			}
			if strings.HasPrefix(fileName, namePrefix) {
				matchingPaths = append(matchingPaths, candidatePath)
			}
		}
		return matchingPaths, nil
	case strings.HasPrefix(sensitivePattern, "*"):
		candidatePaths, matchError := repositoryScanner.FilesMatchingPattern(sensitivePattern)
		if matchError != nil {
			return nil, matchError
		}
		nameSuffix := strings.TrimPrefix(sensitivePattern, "*")
		matchingPaths := []string{}
		for _, candidatePath := range candidatePaths {
			if strings.HasSuffix(candidatePath, nameSuffix) {
				matchingPaths = append(matchingPaths, candidatePath)
			}
		}
		return matchingPaths, nil
	default:
		if repositoryScanner.FileExists(sensitivePattern) {
			return []string{sensitivePattern}, nil
		}
		return nil, nil
	}
}

func gitignoreCoversFile(gitignoreContent string, filePath string, sensitivePattern string) bool {
	fileName := filePath
	if slashIndex := strings.LastIndex(fileName, "/"); slashIndex >= 0 {
		fileName = fileName[slashIndex+1:]
	}

	for _, gitignoreLine := range strings.Split(gitignoreContent, "\n") {
		trimmedLine := strings.TrimSpace(gitignoreLine)
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, "#") {
			continue
		}
		if trimmedLine == filePath || trimmedLine == fileName || trimmedLine == sensitivePattern {
			return true
		}
		if strings.Contains(trimmedLine, "*") &&
			(simpleGlobCovers(trimmedLine, fileName) || simpleGlobCovers(trimmedLine, filePath)) {
			return true
		}
		if directoryPattern, isDirectory := strings.CutSuffix(trimmedLine, "/"); isDirectory {
			if strings.HasPrefix(filePath, directoryPattern+"/") {
				return true
			}
		}
	}
	return false
}

func simpleGlobCovers(ignorePattern string, candidatePath string) bool {
	if patternSuffix, found := strings.CutPrefix(ignorePattern, "*"); found {
		return strings.HasSuffix(candidatePath, patternSuffix)
	}
	if patternPrefix, found := strings.CutSuffix(ignorePattern, "*"); found {
		return strings.HasPrefix(candidatePath, patternPrefix)
	}
	return ignorePattern == candidatePath
}
