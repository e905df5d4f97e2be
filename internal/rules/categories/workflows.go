package categories

import (
	"context"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/delfour-co/repolens/internal/config"
	"github.com/delfour-co/repolens/internal/rules"
	"github.com/delfour-co/repolens/internal/scanner"
)

const (
	workflowSecretsRuleSlug     = "workflows/secrets"
	workflowPermissionsRuleSlug = "workflows/permissions"
	pinnedActionsRuleSlug       = "workflows/pinned-actions"

	workflowSecretRuleID      = "WF001"
	workflowPermissionRuleID  = "WF002"
	unpinnedActionRuleID      = "WF003"
	workflowsDirectoryConstant = ".github/workflows"
)

var workflowSecretExpressions = []struct {
	expression  *regexp.Regexp
	description string
}{
	{regexp.MustCompile(`password\s*:\s*['"][^'"]+['"]`), "hardcoded password"},
	{regexp.MustCompile(`token\s*:\s*['"][^'"]+['"]`), "hardcoded token"},
	{regexp.MustCompile(`api[_-]?key\s*:\s*['"][^'"]+['"]`), "hardcoded API key"},
	{regexp.MustCompile(`secret\s*:\s*['"][^'"]+['"]`), "hardcoded secret"},
}

var unpinnedActionExpressions = []*regexp.Regexp{
	regexp.MustCompile(`uses:\s+\S+@main\b`),
	regexp.MustCompile(`uses:\s+\S+@master\b`),
	regexp.MustCompile(`uses:\s+\S+@latest\b`),
}

// workflowDocument is the subset of a GitHub Actions workflow the checks
// need. Permissions may be a mapping or a shorthand scalar, so the nodes are
// kept raw and only tested for presence.
type workflowDocument struct {
	Permissions *yaml.Node `yaml:"permissions"`
	Jobs        map[string]struct {
		Permissions *yaml.Node `yaml:"permissions"`
	} `yaml:"jobs"`
}

// WorkflowsCategory checks GitHub Actions workflow files for security issues.
type WorkflowsCategory struct{}

// NewWorkflowsCategory constructs the workflows category.
func NewWorkflowsCategory() *WorkflowsCategory {
	return &WorkflowsCategory{}
}

// Name identifies the category.
func (category *WorkflowsCategory) Name() string {
	return rules.CategoryWorkflows
}

// Run executes every workflow check.
func (category *WorkflowsCategory) Run(executionContext context.Context, repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error) {
	workflowPaths, listError := listWorkflowFiles(repositoryScanner)
	if listError != nil {
		return nil, listError
	}
	if len(workflowPaths) == 0 {
		return nil, nil
	}

	findings := []rules.Finding{}
	for _, workflowPath := range workflowPaths {
		workflowContent, readError := repositoryScanner.ReadFile(workflowPath)
		if readError != nil {
			continue
		}
		contentText := string(workflowContent)

		if configuration.IsRuleEnabled(workflowSecretsRuleSlug) {
			findings = append(findings, checkWorkflowSecrets(workflowPath, contentText, configuration)...)
		}
		if configuration.IsRuleEnabled(workflowPermissionsRuleSlug) {
			findings = append(findings, checkWorkflowPermissions(workflowPath, workflowContent)...)
		}
		if configuration.IsRuleEnabled(pinnedActionsRuleSlug) && configuration.Preset == string(config.PresetStrict) {
			findings = append(findings, checkUnpinnedActions(workflowPath, contentText)...)
		}
	}
	return findings, nil
}

func listWorkflowFiles(repositoryScanner *scanner.Scanner) ([]string, error) {
	directoryPaths, directoryError := repositoryScanner.FilesInDirectory(workflowsDirectoryConstant)
	if directoryError != nil {
		return nil, directoryError
	}
	workflowPaths := []string{}
	for _, directoryPath := range directoryPaths {
		if strings.HasSuffix(directoryPath, ".yml") || strings.HasSuffix(directoryPath, ".yaml") {
			workflowPaths = append(workflowPaths, directoryPath)
		}
	}
	return workflowPaths, nil
}

func checkWorkflowSecrets(workflowPath string, contentText string, configuration *config.Config) []rules.Finding {
	severity := resolveSeverity(configuration, workflowSecretsRuleSlug, rules.SeverityCritical)
	findings := []rules.Finding{}
	contentLines := strings.Split(contentText, "\n")
	for _, secretExpression := range workflowSecretExpressions {
		if !secretExpression.expression.MatchString(contentText) {
			continue
		}
		matchLine := 0
		for lineIndex, lineText := range contentLines {
			if secretExpression.expression.MatchString(lineText) {
				matchLine = lineIndex + 1
				break
			}
		}
		findings = append(findings, rules.NewFinding(workflowSecretRuleID, rules.CategoryWorkflows, severity, "Potential "+secretExpression.description+" in workflow").
			WithLocation(workflowPath, matchLine).
			WithDescription("Secrets should never be hardcoded in workflow files.").
			WithRemediation("Use GitHub Secrets (secrets.SECRET_NAME) instead of hardcoded values."))
	}
	return findings
}

func checkWorkflowPermissions(workflowPath string, workflowContent []byte) []rules.Finding {
	var document workflowDocument
	if unmarshalError := yaml.Unmarshal(workflowContent, &document); unmarshalError != nil {
		// Malformed workflows are reported by GitHub itself, not here.
		return nil
	}
	if document.Permissions != nil {
		return nil
	}
	for _, jobDocument := range document.Jobs {
		if jobDocument.Permissions != nil {
			return nil
		}
	}
	return []rules.Finding{
		rules.NewFinding(workflowPermissionRuleID, rules.CategoryWorkflows, rules.SeverityWarning, "Workflow missing explicit permissions").
			WithLocation(workflowPath, 0).
			WithDescription("Workflows without explicit permissions use the default permissions, which may be more permissive than necessary.").
			WithRemediation("Add a 'permissions:' block to explicitly define the minimum required permissions."),
	}
}

func checkUnpinnedActions(workflowPath string, contentText string) []rules.Finding {
	findings := []rules.Finding{}
	for _, unpinnedExpression := range unpinnedActionExpressions {
		for lineIndex, lineText := range strings.Split(contentText, "\n") {
			if !unpinnedExpression.MatchString(lineText) {
				continue
			}
			findings = append(findings, rules.NewFinding(unpinnedActionRuleID, rules.CategoryWorkflows, rules.SeverityWarning, "Workflow uses unpinned action reference").
				WithLocation(workflowPath, lineIndex+1).
				WithDescription("Using @main, @master, or @latest for actions can introduce breaking changes or security vulnerabilities.").
				WithRemediation("Pin actions to a specific version tag (e.g., @v4) or commit SHA for maximum security."))
		}
	}
	return findings
}
