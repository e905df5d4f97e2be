package planner

import (
	"fmt"
	"strings"

	"github.com/delfour-co/repolens/internal/config"
	"github.com/delfour-co/repolens/internal/rules"
)

const (
	gitignoreActionCategory  = "gitignore"
	fileActionCategory       = "file"
	githubActionCategory     = "github"
	defaultProtectedBranch   = "main"
	gitignoreEntryMarkerText = "entry: "
)

var standardGitIgnoreEntries = []string{".env", "*.key", "*.pem", ".DS_Store"}

// documentCreationRules maps a missing-document finding to the file an
// action would create.
var documentCreationRules = []struct {
	ruleIdentifier string
	targetPath     string
	description    string
}{
	{"DOC004", "LICENSE", "Create LICENSE file"},
	{"DOC005", "CONTRIBUTING.md", "Create CONTRIBUTING.md"},
	{"DOC006", "CODE_OF_CONDUCT.md", "Create CODE_OF_CONDUCT.md"},
	{"DOC007", "SECURITY.md", "Create SECURITY.md"},
	{"SECURITY001", ".github/CODEOWNERS", "Create CODEOWNERS file"},
}

// ActionPlanner derives remediation plans from audit results.
type ActionPlanner struct {
	configuration *config.Config
}

// NewActionPlanner constructs a planner bound to the configuration.
func NewActionPlanner(configuration *config.Config) *ActionPlanner {
	return &ActionPlanner{configuration: configuration}
}

// CreatePlan builds an advisory plan from the findings. File-creation
// actions follow missing-document findings, the gitignore action aggregates
// recommended entries, and repository-level actions are added for the
// stricter presets.
func (actionPlanner *ActionPlanner) CreatePlan(auditResults *rules.AuditResults) *ActionPlan {
	plan := &ActionPlan{}

	if gitignoreAction, planned := planGitIgnoreUpdate(auditResults); planned {
		plan.Add(gitignoreAction)
	}

	presentRuleIdentifiers := map[string]struct{}{}
	for _, finding := range auditResults.Findings {
		presentRuleIdentifiers[finding.RuleID] = struct{}{}
	}
	for _, creationRule := range documentCreationRules {
		if _, needed := presentRuleIdentifiers[creationRule.ruleIdentifier]; !needed {
			continue
		}
		plan.Add(NewAction(fileActionCategory, creationRule.description, OperationCreateFile).
			WithTarget(creationRule.targetPath))
	}

	activePreset, presetError := actionPlanner.configuration.ActivePreset()
	if presetError == nil && (activePreset == config.PresetEnterprise || activePreset == config.PresetStrict) {
		plan.Add(NewAction(githubActionCategory,
			fmt.Sprintf("Enable branch protection on %q", defaultProtectedBranch),
			OperationConfigureBranchProtection).
			WithDetail("Require pull request reviews: 1").
			WithDetail("Require status checks").
			WithDetail("Block force pushes and deletions"))
		plan.Add(NewAction(githubActionCategory, "Update repository settings", OperationUpdateRepositorySettings).
			WithDetail("Enable vulnerability alerts").
			WithDetail("Enable automated security fixes"))
	}

	return plan
}

func planGitIgnoreUpdate(auditResults *rules.AuditResults) (Action, bool) {
	entries := []string{}
	gitignoreMissing := false
	for _, finding := range auditResults.Findings {
		switch finding.RuleID {
		case "FILE002":
			gitignoreMissing = true
		case "FILE003":
			if _, entryText, markerFound := strings.Cut(finding.Message, gitignoreEntryMarkerText); markerFound {
				entries = append(entries, entryText)
			}
		}
	}
	if !gitignoreMissing && len(entries) == 0 {
		return Action{}, false
	}

	seenEntries := map[string]struct{}{}
	for _, entry := range entries {
		seenEntries[entry] = struct{}{}
	}
	for _, standardEntry := range standardGitIgnoreEntries {
		if _, alreadyListed := seenEntries[standardEntry]; !alreadyListed {
			entries = append(entries, standardEntry)
		}
	}

	gitignoreAction := NewAction(gitignoreActionCategory, "Add entries to .gitignore", OperationUpdateGitIgnore).
		WithTarget(".gitignore")
	for _, entry := range entries {
		gitignoreAction = gitignoreAction.WithDetail(entry)
	}
	return gitignoreAction, true
}
