package engine_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/delfour-co/repolens/internal/cache"
	"github.com/delfour-co/repolens/internal/config"
	"github.com/delfour-co/repolens/internal/rules"
	"github.com/delfour-co/repolens/internal/rules/engine"
	"github.com/delfour-co/repolens/internal/scanner"
)

const (
	stubCategoryNameConstant = "stub"
	stubRuleIdentifier       = "STUB001"
	testCacheMaxAgeHours     = 24
)

type stubCategory struct {
	findings []rules.Finding
	runError error
	runCount int
}

func (category *stubCategory) Name() string {
	return stubCategoryNameConstant
}

func (category *stubCategory) Run(executionContext context.Context, repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error) {
	category.runCount++
	return category.findings, category.runError
}

type countingFileAuditor struct {
	stubCategory
	candidatePaths []string
	auditedFiles   int
}

func (category *countingFileAuditor) CandidateFiles(repositoryScanner *scanner.Scanner, configuration *config.Config) ([]string, error) {
	return category.candidatePaths, nil
}

func (category *countingFileAuditor) AuditFile(executionContext context.Context, repositoryScanner *scanner.Scanner, configuration *config.Config, filePath string) ([]rules.Finding, error) {
	category.auditedFiles++
	return []rules.Finding{
		rules.NewFinding(stubRuleIdentifier, stubCategoryNameConstant, rules.SeverityWarning, "stub finding").
			WithLocation(filePath, 1),
	}, nil
}

func (category *countingFileAuditor) RepositoryFindings(executionContext context.Context, repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error) {
	return nil, nil
}

func newRepositoryWithFile(testInstance *testing.T, relativePath string, content string) *scanner.Scanner {
	testInstance.Helper()
	repositoryRoot := testInstance.TempDir()
	absolutePath := filepath.Join(repositoryRoot, filepath.FromSlash(relativePath))
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(absolutePath), 0o755))
	require.NoError(testInstance, os.WriteFile(absolutePath, []byte(content), 0o644))
	return scanner.NewScanner(repositoryRoot)
}

func TestEngineAggregatesCategoryFindings(testInstance *testing.T) {
	category := &stubCategory{findings: []rules.Finding{
		rules.NewFinding(stubRuleIdentifier, stubCategoryNameConstant, rules.SeverityCritical, "issue"),
	}}
	rulesEngine := engine.NewRulesEngineWithCategories(zap.NewNop(), []engine.RuleCategory{category})

	auditResults, runError := rulesEngine.Run(context.Background(), newRepositoryWithFile(testInstance, "main.go", "package main\n"), config.DefaultConfig())
	require.NoError(testInstance, runError)
	require.Equal(testInstance, 1, category.runCount)
	require.Equal(testInstance, 1, auditResults.TotalCount())
	require.True(testInstance, auditResults.HasCritical())
}

func TestEngineCategoryErrorAbortsRun(testInstance *testing.T) {
	categoryError := errors.New("walk failed")
	failingCategory := &stubCategory{runError: categoryError}
	trailingCategory := &stubCategory{}
	rulesEngine := engine.NewRulesEngineWithCategories(zap.NewNop(), []engine.RuleCategory{failingCategory, trailingCategory})

	_, runError := rulesEngine.Run(context.Background(), newRepositoryWithFile(testInstance, "main.go", "package main\n"), config.DefaultConfig())
	require.ErrorIs(testInstance, runError, categoryError)
	require.Contains(testInstance, runError.Error(), stubCategoryNameConstant)
	require.Zero(testInstance, trailingCategory.runCount)
}

func TestEngineOnlyAndSkipSelection(testInstance *testing.T) {
	category := &stubCategory{}
	rulesEngine := engine.NewRulesEngineWithCategories(zap.NewNop(), []engine.RuleCategory{category})
	rulesEngine.SetOnlyCategories([]string{stubCategoryNameConstant})
	rulesEngine.SetSkipCategories([]string{stubCategoryNameConstant})

	auditResults, runError := rulesEngine.Run(context.Background(), newRepositoryWithFile(testInstance, "main.go", "package main\n"), config.DefaultConfig())
	require.NoError(testInstance, runError)
	require.Zero(testInstance, category.runCount)
	require.Zero(testInstance, auditResults.TotalCount())
}

func TestEngineOnlySelectionExcludesOthers(testInstance *testing.T) {
	selectedCategory := &stubCategory{}
	rulesEngine := engine.NewRulesEngineWithCategories(zap.NewNop(), []engine.RuleCategory{selectedCategory})
	rulesEngine.SetOnlyCategories([]string{"other"})

	_, runError := rulesEngine.Run(context.Background(), newRepositoryWithFile(testInstance, "main.go", "package main\n"), config.DefaultConfig())
	require.NoError(testInstance, runError)
	require.Zero(testInstance, selectedCategory.runCount)
}

func TestEngineCacheSkipsUnchangedFiles(testInstance *testing.T) {
	repositoryScanner := newRepositoryWithFile(testInstance, "src/app.js", "let value = 1\n")
	fileAuditor := &countingFileAuditor{candidatePaths: []string{"src/app.js"}}
	auditCache := cache.NewAuditCache(filepath.Join(testInstance.TempDir(), "cache"), testCacheMaxAgeHours, zap.NewNop())
	auditCache.Load()

	rulesEngine := engine.NewRulesEngineWithCategories(zap.NewNop(), []engine.RuleCategory{fileAuditor})
	rulesEngine.SetCache(auditCache)

	firstResults, firstError := rulesEngine.Run(context.Background(), repositoryScanner, config.DefaultConfig())
	require.NoError(testInstance, firstError)
	require.Equal(testInstance, 1, fileAuditor.auditedFiles)
	require.Equal(testInstance, 1, firstResults.TotalCount())

	secondResults, secondError := rulesEngine.Run(context.Background(), repositoryScanner, config.DefaultConfig())
	require.NoError(testInstance, secondError)
	require.Equal(testInstance, 1, fileAuditor.auditedFiles)
	require.Equal(testInstance, firstResults.Findings, secondResults.Findings)

	takenCache := rulesEngine.TakeCache()
	require.Same(testInstance, auditCache, takenCache)
	require.Nil(testInstance, rulesEngine.TakeCache())
	require.Equal(testInstance, 1, takenCache.Len())
}

func TestEngineWithoutCacheCallsRun(testInstance *testing.T) {
	fileAuditor := &countingFileAuditor{candidatePaths: []string{"src/app.js"}}
	rulesEngine := engine.NewRulesEngineWithCategories(zap.NewNop(), []engine.RuleCategory{fileAuditor})

	_, runError := rulesEngine.Run(context.Background(), newRepositoryWithFile(testInstance, "src/app.js", "let value = 1\n"), config.DefaultConfig())
	require.NoError(testInstance, runError)
	require.Equal(testInstance, 1, fileAuditor.runCount)
	require.Zero(testInstance, fileAuditor.auditedFiles)
}

func TestEngineProgressAndTiming(testInstance *testing.T) {
	firstCategory := &stubCategory{findings: []rules.Finding{
		rules.NewFinding(stubRuleIdentifier, stubCategoryNameConstant, rules.SeverityInfo, "note"),
	}}
	rulesEngine := engine.NewRulesEngineWithCategories(zap.NewNop(), []engine.RuleCategory{firstCategory})

	progressCategories := []string{}
	progressCounts := []int{}
	progressPhases := []bool{}
	rulesEngine.SetProgressCallback(func(categoryName string, completedCategories int, findingsCount int, durationMilliseconds int64, done bool) {
		progressCategories = append(progressCategories, categoryName)
		progressCounts = append(progressCounts, findingsCount)
		progressPhases = append(progressPhases, done)
	})

	_, auditTiming, runError := rulesEngine.RunWithTiming(context.Background(), newRepositoryWithFile(testInstance, "main.go", "package main\n"), config.DefaultConfig())
	require.NoError(testInstance, runError)
	require.Equal(testInstance, []string{stubCategoryNameConstant, stubCategoryNameConstant}, progressCategories)
	require.Equal(testInstance, []int{0, 1}, progressCounts)
	require.Equal(testInstance, []bool{false, true}, progressPhases)
	require.Len(testInstance, auditTiming.Categories, 1)
	require.Equal(testInstance, stubCategoryNameConstant, auditTiming.Categories[0].Name)
	require.Equal(testInstance, 1, auditTiming.Categories[0].FindingsCount)
}

func TestEngineDefaultCategoriesOrdered(testInstance *testing.T) {
	rulesEngine := engine.NewRulesEngine(zap.NewNop(), nil)
	repositoryScanner := newRepositoryWithFile(testInstance, "README.md", "# Demo\n\nA thorough description across\nmany\nlines\nof\nthe\nproject\nand\nits\nusage\nnotes\n")

	progressCategories := []string{}
	rulesEngine.SetProgressCallback(func(categoryName string, completedCategories int, findingsCount int, durationMilliseconds int64, done bool) {
		if done {
			progressCategories = append(progressCategories, categoryName)
		}
	})

	_, runError := rulesEngine.Run(context.Background(), repositoryScanner, config.DefaultConfig())
	require.NoError(testInstance, runError)
	require.Equal(testInstance, rules.CategoryNames(), progressCategories)
}
