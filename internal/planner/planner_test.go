package planner_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/delfour-co/repolens/internal/config"
	"github.com/delfour-co/repolens/internal/planner"
	"github.com/delfour-co/repolens/internal/rules"
)

func resultsWithFindings(findings ...rules.Finding) *rules.AuditResults {
	auditResults := rules.NewAuditResults("demo", "opensource", time.Now())
	auditResults.AddFindings(findings)
	return auditResults
}

func actionsWithOperation(plan *planner.ActionPlan, operation planner.Operation) []planner.Action {
	matching := []planner.Action{}
	for _, action := range plan.Actions {
		if action.Operation == operation {
			matching = append(matching, action)
		}
	}
	return matching
}

func TestCreatePlanForCleanResultsIsEmpty(testInstance *testing.T) {
	actionPlanner := planner.NewActionPlanner(config.DefaultConfig())
	plan := actionPlanner.CreatePlan(resultsWithFindings())
	require.True(testInstance, plan.IsEmpty())
}

func TestCreatePlanGitIgnoreEntries(testInstance *testing.T) {
	actionPlanner := planner.NewActionPlanner(config.DefaultConfig())
	plan := actionPlanner.CreatePlan(resultsWithFindings(
		rules.NewFinding("FILE003", rules.CategoryFiles, rules.SeverityInfo, ".gitignore missing recommended entry: node_modules/"),
	))

	gitignoreActions := actionsWithOperation(plan, planner.OperationUpdateGitIgnore)
	require.Len(testInstance, gitignoreActions, 1)
	require.Equal(testInstance, ".gitignore", gitignoreActions[0].TargetPath)
	require.Contains(testInstance, gitignoreActions[0].Details, "node_modules/")
	require.Contains(testInstance, gitignoreActions[0].Details, ".env")
	require.NotEqual(testInstance, uuid.Nil, gitignoreActions[0].ID)
}

func TestCreatePlanDocumentCreation(testInstance *testing.T) {
	actionPlanner := planner.NewActionPlanner(config.DefaultConfig())
	plan := actionPlanner.CreatePlan(resultsWithFindings(
		rules.NewFinding("DOC004", rules.CategoryDocs, rules.SeverityCritical, "LICENSE file is missing"),
		rules.NewFinding("DOC007", rules.CategoryDocs, rules.SeverityInfo, "SECURITY.md is missing"),
	))

	createActions := actionsWithOperation(plan, planner.OperationCreateFile)
	require.Len(testInstance, createActions, 2)
	require.Equal(testInstance, "LICENSE", createActions[0].TargetPath)
	require.Equal(testInstance, "SECURITY.md", createActions[1].TargetPath)
}

func TestCreatePlanEnterpriseAddsRepositoryActions(testInstance *testing.T) {
	enterpriseConfiguration := config.DefaultConfig()
	enterpriseConfiguration.Preset = string(config.PresetEnterprise)
	actionPlanner := planner.NewActionPlanner(enterpriseConfiguration)

	plan := actionPlanner.CreatePlan(resultsWithFindings())
	require.Len(testInstance, actionsWithOperation(plan, planner.OperationConfigureBranchProtection), 1)
	require.Len(testInstance, actionsWithOperation(plan, planner.OperationUpdateRepositorySettings), 1)
}

func TestPlanCategoryFilters(testInstance *testing.T) {
	plan := &planner.ActionPlan{}
	plan.Add(planner.NewAction("file", "Create LICENSE file", planner.OperationCreateFile))
	plan.Add(planner.NewAction("github", "Update repository settings", planner.OperationUpdateRepositorySettings))

	plan.FilterSkip([]string{"github"})
	require.Equal(testInstance, 1, plan.Len())
	require.Equal(testInstance, "file", plan.Actions[0].Category)

	plan.FilterOnly([]string{"missing"})
	require.True(testInstance, plan.IsEmpty())
}
