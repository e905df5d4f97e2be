package categories

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/delfour-co/repolens/internal/config"
	"github.com/delfour-co/repolens/internal/execshell"
	"github.com/delfour-co/repolens/internal/rules"
	"github.com/delfour-co/repolens/internal/scanner"
)

const (
	customRuleIdentifierPrefix = "custom/"

	maximumReportedMatchLines = 5
)

// CustomCategory evaluates user-defined rules from the configuration. A rule
// is driven either by a regular expression matched against file contents or
// by an external command executed once per candidate file.
type CustomCategory struct {
	shellExecutor *execshell.ShellExecutor
}

// NewCustomCategory constructs the custom category. The executor may be nil
// when command-based rules are not in use; such rules are then skipped.
func NewCustomCategory(shellExecutor *execshell.ShellExecutor) *CustomCategory {
	return &CustomCategory{shellExecutor: shellExecutor}
}

// Name identifies the category.
func (category *CustomCategory) Name() string {
	return rules.CategoryCustom
}

// Run evaluates every configured custom rule in identifier order.
func (category *CustomCategory) Run(executionContext context.Context, repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error) {
	if len(configuration.CustomRules) == 0 {
		return nil, nil
	}

	ruleIdentifiers := make([]string, 0, len(configuration.CustomRules))
	for ruleIdentifier := range configuration.CustomRules {
		ruleIdentifiers = append(ruleIdentifiers, ruleIdentifier)
	}
	sort.Strings(ruleIdentifiers)

	allFiles, walkError := repositoryScanner.Files()
	if walkError != nil {
		return nil, walkError
	}
	findings := []rules.Finding{}

	for _, ruleIdentifier := range ruleIdentifiers {
		customRule := configuration.CustomRules[ruleIdentifier]
		candidateFiles := filterCustomRuleFiles(allFiles, customRule.Files)

		switch {
		case customRule.Command != "":
			commandFindings, commandError := category.runCommandRule(executionContext, repositoryScanner, ruleIdentifier, customRule, candidateFiles)
			if commandError != nil {
				return nil, commandError
			}
			findings = append(findings, commandFindings...)
		case customRule.Pattern != "":
			findings = append(findings, runPatternRule(repositoryScanner, ruleIdentifier, customRule, candidateFiles)...)
		}
	}

	return findings, nil
}

func filterCustomRuleFiles(allFiles []scanner.FileInfo, filePatterns []string) []scanner.FileInfo {
	if len(filePatterns) == 0 {
		return allFiles
	}
	candidateFiles := []scanner.FileInfo{}
	for _, fileInfo := range allFiles {
		for _, filePattern := range filePatterns {
			if scanner.GlobMatch(filePattern, fileInfo.Path) {
				candidateFiles = append(candidateFiles, fileInfo)
				break
			}
		}
	}
	return candidateFiles
}

func runPatternRule(repositoryScanner *scanner.Scanner, ruleIdentifier string, customRule config.CustomRule, candidateFiles []scanner.FileInfo) []rules.Finding {
	ruleExpression, compileError := regexp.Compile(customRule.Pattern)
	if compileError != nil {
		return nil
	}
	ruleSeverity := customRuleSeverity(customRule)

	findings := []rules.Finding{}
	for _, fileInfo := range candidateFiles {
		fileContent, readError := repositoryScanner.ReadFile(fileInfo.Path)
		if readError != nil {
			continue
		}
		contentText := string(fileContent)
		patternFound := ruleExpression.MatchString(contentText)

		shouldReport := patternFound
		if customRule.Invert {
			shouldReport = !patternFound
		}
		if !shouldReport {
			continue
		}

		matchedLines := []int{}
		if !customRule.Invert {
			for lineIndex, contentLine := range strings.Split(contentText, "\n") {
				if !ruleExpression.MatchString(contentLine) {
					continue
				}
				matchedLines = append(matchedLines, lineIndex+1)
				if len(matchedLines) == maximumReportedMatchLines {
					break
				}
			}
		}

		findingMessage := customRule.Message
		if findingMessage == "" {
			if customRule.Invert {
				findingMessage = fmt.Sprintf("Required pattern %q not found", customRule.Pattern)
			} else {
				findingMessage = fmt.Sprintf("Pattern %q matched", customRule.Pattern)
			}
		}

		findingDescription := customRule.Description
		if findingDescription == "" {
			if len(matchedLines) == 0 {
				findingDescription = fmt.Sprintf("Custom rule %q triggered in %s", ruleIdentifier, fileInfo.Path)
			} else {
				lineLabels := make([]string, 0, len(matchedLines))
				for _, matchedLine := range matchedLines {
					lineLabels = append(lineLabels, fmt.Sprintf("line %d", matchedLine))
				}
				findingDescription = fmt.Sprintf("Custom rule %q triggered in %s at %s", ruleIdentifier, fileInfo.Path, strings.Join(lineLabels, ", "))
			}
		}

		firstMatchedLine := 0
		if len(matchedLines) > 0 {
			firstMatchedLine = matchedLines[0]
		}

		finding := rules.NewFinding(customRuleIdentifierPrefix+ruleIdentifier, rules.CategoryCustom, ruleSeverity, findingMessage).
			WithLocation(fileInfo.Path, firstMatchedLine).
			WithDescription(findingDescription)
		if customRule.Remediation != "" {
			finding = finding.WithRemediation(customRule.Remediation)
		}
		findings = append(findings, finding)
	}
	return findings
}

func (category *CustomCategory) runCommandRule(executionContext context.Context, repositoryScanner *scanner.Scanner, ruleIdentifier string, customRule config.CustomRule, candidateFiles []scanner.FileInfo) ([]rules.Finding, error) {
	if category.shellExecutor == nil {
		return nil, nil
	}
	ruleSeverity := customRuleSeverity(customRule)
	commandTimeout := time.Duration(customRule.EffectiveTimeoutSeconds()) * time.Second

	findings := []rules.Finding{}
	for _, fileInfo := range candidateFiles {
		executionResult, executionError := category.shellExecutor.ExecuteShellScript(
			executionContext, customRule.Command, repositoryScanner.Root(), []string{fileInfo.Path}, commandTimeout)
		if executionError != nil {
			return nil, fmt.Errorf("custom rule %s: %w", ruleIdentifier, executionError)
		}

		commandFailed := executionResult.ExitCode != 0
		shouldReport := commandFailed
		if customRule.Invert {
			shouldReport = !commandFailed
		}
		if !shouldReport {
			continue
		}

		findingMessage := customRule.Message
		if findingMessage == "" {
			if customRule.Invert {
				findingMessage = fmt.Sprintf("Command %q succeeded unexpectedly", customRule.Command)
			} else {
				findingMessage = fmt.Sprintf("Command %q reported an issue", customRule.Command)
			}
		}

		findingDescription := customRule.Description
		if findingDescription == "" {
			findingDescription = fmt.Sprintf("Custom rule %q triggered in %s", ruleIdentifier, fileInfo.Path)
			if trimmedOutput := strings.TrimSpace(executionResult.StandardError); trimmedOutput != "" {
				findingDescription = findingDescription + ": " + trimmedOutput
			}
		}

		finding := rules.NewFinding(customRuleIdentifierPrefix+ruleIdentifier, rules.CategoryCustom, ruleSeverity, findingMessage).
			WithLocation(fileInfo.Path, 0).
			WithDescription(findingDescription)
		if customRule.Remediation != "" {
			finding = finding.WithRemediation(customRule.Remediation)
		}
		findings = append(findings, finding)
	}
	return findings, nil
}

func customRuleSeverity(customRule config.CustomRule) rules.Severity {
	parsedSeverity, parseError := rules.ParseSeverity(customRule.EffectiveSeverity())
	if parseError != nil {
		return rules.SeverityWarning
	}
	return parsedSeverity
}
