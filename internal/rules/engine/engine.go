package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/delfour-co/repolens/internal/cache"
	"github.com/delfour-co/repolens/internal/config"
	"github.com/delfour-co/repolens/internal/execshell"
	"github.com/delfour-co/repolens/internal/rules"
	"github.com/delfour-co/repolens/internal/rules/categories"
	"github.com/delfour-co/repolens/internal/scanner"
)

const categoryFailureTemplateConstant = "category %s: %w"

// RuleCategory is one named group of checks executed against a repository.
type RuleCategory interface {
	Name() string
	Run(executionContext context.Context, repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error)
}

// FileAuditor is implemented by categories whose per-file findings depend
// only on that file's content. The engine routes such categories through the
// audit cache, re-evaluating only files whose content hash changed.
type FileAuditor interface {
	CandidateFiles(repositoryScanner *scanner.Scanner, configuration *config.Config) ([]string, error)
	AuditFile(executionContext context.Context, repositoryScanner *scanner.Scanner, configuration *config.Config, filePath string) ([]rules.Finding, error)
	RepositoryFindings(executionContext context.Context, repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error)
}

// ProgressCallback receives two notifications per category: one before the
// category starts, with done false and zero counters, and one after it
// finishes, with done true and the findings count and duration filled in.
type ProgressCallback func(categoryName string, completedCategories int, findingsCount int, durationMilliseconds int64, done bool)

// RulesEngine executes rule categories in their fixed order.
type RulesEngine struct {
	ruleCategories   []RuleCategory
	onlyCategories   map[string]struct{}
	skipCategories   map[string]struct{}
	progressCallback ProgressCallback
	auditCache       *cache.AuditCache
	logger           *zap.Logger
}

// NewRulesEngine constructs an engine with the default category set. The
// shell executor is only needed for command-based custom rules and may be
// nil.
func NewRulesEngine(logger *zap.Logger, shellExecutor *execshell.ShellExecutor) *RulesEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RulesEngine{
		ruleCategories: []RuleCategory{
			categories.NewSecretsCategory(),
			categories.NewFilesCategory(),
			categories.NewDocsCategory(),
			categories.NewSecurityCategory(),
			categories.NewWorkflowsCategory(),
			categories.NewQualityCategory(),
			categories.NewDependenciesCategory(),
			categories.NewLicensesCategory(),
			categories.NewDockerCategory(),
			categories.NewGitCategory(),
			categories.NewCustomCategory(shellExecutor),
		},
		logger: logger,
	}
}

// NewRulesEngineWithCategories constructs an engine with an explicit category
// list. Intended for tests and embedders that supply their own checks.
func NewRulesEngineWithCategories(logger *zap.Logger, ruleCategories []RuleCategory) *RulesEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RulesEngine{ruleCategories: ruleCategories, logger: logger}
}

// SetOnlyCategories restricts the run to the named categories. An empty list
// removes the restriction.
func (rulesEngine *RulesEngine) SetOnlyCategories(categoryNames []string) {
	rulesEngine.onlyCategories = categoryNameSet(categoryNames)
}

// SetSkipCategories excludes the named categories from the run.
func (rulesEngine *RulesEngine) SetSkipCategories(categoryNames []string) {
	rulesEngine.skipCategories = categoryNameSet(categoryNames)
}

// SetProgressCallback registers a callback invoked before each category
// starts and again after it completes.
func (rulesEngine *RulesEngine) SetProgressCallback(progressCallback ProgressCallback) {
	rulesEngine.progressCallback = progressCallback
}

// SetCache hands a loaded audit cache to the engine. The engine owns the
// cache until TakeCache is called.
func (rulesEngine *RulesEngine) SetCache(auditCache *cache.AuditCache) {
	rulesEngine.auditCache = auditCache
}

// TakeCache returns the audit cache and releases engine ownership, letting
// the caller persist it.
func (rulesEngine *RulesEngine) TakeCache() *cache.AuditCache {
	takenCache := rulesEngine.auditCache
	rulesEngine.auditCache = nil
	return takenCache
}

func categoryNameSet(categoryNames []string) map[string]struct{} {
	if len(categoryNames) == 0 {
		return nil
	}
	nameSet := make(map[string]struct{}, len(categoryNames))
	for _, categoryName := range categoryNames {
		nameSet[categoryName] = struct{}{}
	}
	return nameSet
}

func (rulesEngine *RulesEngine) shouldRunCategory(categoryName string) bool {
	if rulesEngine.onlyCategories != nil {
		if _, selected := rulesEngine.onlyCategories[categoryName]; !selected {
			return false
		}
	}
	_, skipped := rulesEngine.skipCategories[categoryName]
	return !skipped
}

// Run executes every selected category and returns the aggregated results.
// A category error aborts the run.
func (rulesEngine *RulesEngine) Run(executionContext context.Context, repositoryScanner *scanner.Scanner, configuration *config.Config) (*rules.AuditResults, error) {
	auditResults, _, runError := rulesEngine.RunWithTiming(executionContext, repositoryScanner, configuration)
	return auditResults, runError
}

// RunWithTiming executes every selected category and additionally reports
// per-category execution metrics.
func (rulesEngine *RulesEngine) RunWithTiming(executionContext context.Context, repositoryScanner *scanner.Scanner, configuration *config.Config) (*rules.AuditResults, *rules.AuditTiming, error) {
	activePreset, presetError := configuration.ActivePreset()
	if presetError != nil {
		return nil, nil, presetError
	}

	auditResults := rules.NewAuditResults(repositoryScanner.RepositoryName(), string(activePreset), time.Now().UTC())
	auditTiming := &rules.AuditTiming{}

	completedCategories := 0
	for _, ruleCategory := range rulesEngine.ruleCategories {
		categoryName := ruleCategory.Name()
		if !rulesEngine.shouldRunCategory(categoryName) {
			continue
		}

		if rulesEngine.progressCallback != nil {
			rulesEngine.progressCallback(categoryName, completedCategories, 0, 0, false)
		}

		categoryStart := time.Now()
		categoryFindings, categoryError := rulesEngine.runCategory(executionContext, ruleCategory, repositoryScanner, configuration)
		if categoryError != nil {
			return nil, nil, fmt.Errorf(categoryFailureTemplateConstant, categoryName, categoryError)
		}
		categoryDuration := time.Since(categoryStart)

		rules.SortFindings(categoryFindings)
		auditResults.AddFindings(categoryFindings)
		auditTiming.AddCategory(rules.CategoryTiming{
			Name:          categoryName,
			FindingsCount: len(categoryFindings),
			Duration:      categoryDuration,
		})

		completedCategories++
		rulesEngine.logger.Debug("category finished",
			zap.String("category", categoryName),
			zap.Int("findings", len(categoryFindings)),
			zap.Duration("duration", categoryDuration))
		if rulesEngine.progressCallback != nil {
			rulesEngine.progressCallback(categoryName, completedCategories, len(categoryFindings), categoryDuration.Milliseconds(), true)
		}
	}

	return auditResults, auditTiming, nil
}

func (rulesEngine *RulesEngine) runCategory(executionContext context.Context, ruleCategory RuleCategory, repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error) {
	fileAuditor, supportsFileAudit := ruleCategory.(FileAuditor)
	if !supportsFileAudit || rulesEngine.auditCache == nil {
		return ruleCategory.Run(executionContext, repositoryScanner, configuration)
	}
	return rulesEngine.runCachedCategory(executionContext, fileAuditor, repositoryScanner, configuration)
}

func (rulesEngine *RulesEngine) runCachedCategory(executionContext context.Context, fileAuditor FileAuditor, repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error) {
	candidatePaths, candidateError := fileAuditor.CandidateFiles(repositoryScanner, configuration)
	if candidateError != nil {
		return nil, candidateError
	}

	findings := []rules.Finding{}
	for _, candidatePath := range candidatePaths {
		fileContent, readError := repositoryScanner.ReadFile(candidatePath)
		if readError != nil {
			continue
		}
		contentHash := cache.ContentHash(fileContent)
		if cachedFindings, cacheHit := rulesEngine.auditCache.Get(candidatePath, contentHash); cacheHit {
			findings = append(findings, cachedFindings...)
			continue
		}
		fileFindings, auditError := fileAuditor.AuditFile(executionContext, repositoryScanner, configuration, candidatePath)
		if auditError != nil {
			return nil, auditError
		}
		rulesEngine.auditCache.Insert(candidatePath, contentHash, fileFindings)
		findings = append(findings, fileFindings...)
	}

	repositoryFindings, repositoryError := fileAuditor.RepositoryFindings(executionContext, repositoryScanner, configuration)
	if repositoryError != nil {
		return nil, repositoryError
	}
	return append(findings, repositoryFindings...), nil
}
