package audit

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/delfour-co/repolens/internal/cache"
	"github.com/delfour-co/repolens/internal/config"
	"github.com/delfour-co/repolens/internal/execshell"
	"github.com/delfour-co/repolens/internal/planner"
	"github.com/delfour-co/repolens/internal/report"
	"github.com/delfour-co/repolens/internal/rules"
	"github.com/delfour-co/repolens/internal/rules/engine"
	"github.com/delfour-co/repolens/internal/scanner"
	"github.com/delfour-co/repolens/internal/ui"
	"github.com/delfour-co/repolens/internal/utils"
)

const (
	defaultRepositoryPathConstant              = "."
	repositoryConfigurationNameConstant        = ".repolens"
	repositoryConfigurationTypeConstant        = "yaml"
	repositoryEnvironmentPrefixConstant        = "REPOLENS"
	presetConfigurationKeyConstant             = "preset"
	invalidRepositoryPathTemplateConstant      = "repository path %q is not a directory"
	configurationLoadErrorTemplateConstant     = "unable to load audit configuration: %w"
	unknownPresetTemplateConstant              = "unknown preset %q"
	unknownCategoryTemplateConstant            = "unknown category %q"
	auditRunErrorTemplateConstant              = "audit run failed: %w"
	renderErrorTemplateConstant                = "unable to render report: %w"
	reportWriteErrorTemplateConstant           = "unable to write report to %s: %w"
	reportWrittenTemplateConstant              = "Report written to %s\n"
	cacheClearedMessageConstant                = "Audit cache cleared.\n"
	cacheSaveFailedMessageConstant             = "cache save failed"
	criticalFindingsExitMessageConstant        = "audit found critical issues"
	warningFindingsExitMessageConstant         = "audit found warnings"
	timingHeaderMessageConstant                = "Category timings:\n"
	timingRowTemplateConstant                  = "  %-14s %3d rules, %3d findings in %s\n"
	timingTotalTemplateConstant                = "Total: %s\n"
	reportFilePermissionsConstant              = 0o644
	logFieldRepositoryRootConstant             = "repository_root"
	logFieldCacheEntriesConstant               = "cache_entries"
	configurationLoadedDebugMessageConstant    = "audit configuration loaded"
	cacheLoadedDebugMessageConstant            = "audit cache attached"
	logFieldConfigurationFileConstant          = "configuration_file"
	repositoryPathResolutionTemplateConstant   = "unable to resolve repository path %q: %w"
	cacheDeletionErrorTemplateConstant         = "unable to clear audit cache: %w"
	newlineConstant                            = "\n"
	configurationPresetFieldConstant           = "preset"
	repositoryConfigurationDefaultPresetString = "opensource"
)

// RunOptions configure a single audit execution.
type RunOptions struct {
	RepositoryPath string
	ConfigFilePath string
	PresetOverride string
	OnlyCategories []string
	SkipCategories []string
	DisableCache   bool
	ShowProgress   bool
	ShowTiming     bool
	OutputFormat   report.Format
	OutputPath     string
}

// RunOutcome captures the artifacts of a completed audit run.
type RunOutcome struct {
	RepositoryRoot string
	Configuration  *config.Config
	Results        *rules.AuditResults
	Timing         *rules.AuditTiming
}

// Service coordinates configuration loading, rule execution, cache
// persistence, and report rendering for a repository audit.
type Service struct {
	logger        *zap.Logger
	shellExecutor *execshell.ShellExecutor
	outputWriter  io.Writer
	errorWriter   io.Writer
}

// NewService constructs a Service using the provided dependencies.
func NewService(logger *zap.Logger, shellExecutor *execshell.ShellExecutor, outputWriter io.Writer, errorWriter io.Writer) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if outputWriter == nil {
		outputWriter = io.Discard
	}
	if errorWriter == nil {
		errorWriter = io.Discard
	}
	return &Service{
		logger:        logger,
		shellExecutor: shellExecutor,
		outputWriter:  outputWriter,
		errorWriter:   errorWriter,
	}
}

// Run executes a full audit and renders the report according to the options.
func (service *Service) Run(executionContext context.Context, options RunOptions) (*RunOutcome, error) {
	outcome, auditError := service.executeAudit(executionContext, options)
	if auditError != nil {
		return nil, auditError
	}

	outputFormat := options.OutputFormat
	if len(outputFormat) == 0 {
		outputFormat = report.FormatText
	}

	renderer, rendererError := report.NewRenderer(outputFormat)
	if rendererError != nil {
		return nil, NewExitError(ExitCodeInvalidArguments, rendererError.Error())
	}

	renderedReport, renderError := renderer.Render(outcome.Results)
	if renderError != nil {
		return nil, fmt.Errorf(renderErrorTemplateConstant, renderError)
	}

	if len(options.OutputPath) > 0 {
		if writeError := os.WriteFile(options.OutputPath, renderedReport, reportFilePermissionsConstant); writeError != nil {
			return nil, fmt.Errorf(reportWriteErrorTemplateConstant, options.OutputPath, writeError)
		}
		fmt.Fprintf(service.outputWriter, reportWrittenTemplateConstant, options.OutputPath)
	} else {
		service.writeRendered(renderedReport)
	}

	if options.ShowTiming {
		service.writeTiming(outcome.Timing)
	}

	return outcome, nil
}

// Plan executes a quiet audit and derives the remediation action plan from
// its findings.
func (service *Service) Plan(executionContext context.Context, options RunOptions) (*planner.ActionPlan, *RunOutcome, error) {
	outcome, auditError := service.executeAudit(executionContext, options)
	if auditError != nil {
		return nil, nil, auditError
	}

	actionPlanner := planner.NewActionPlanner(outcome.Configuration)
	actionPlan := actionPlanner.CreatePlan(outcome.Results)
	return actionPlan, outcome, nil
}

// ClearCache removes the persisted audit cache of the target repository.
func (service *Service) ClearCache(repositoryPath string, configFilePath string) error {
	repositoryRoot, pathError := service.resolveRepositoryRoot(repositoryPath)
	if pathError != nil {
		return pathError
	}

	configuration, configurationError := service.loadConfiguration(repositoryRoot, configFilePath)
	if configurationError != nil {
		return configurationError
	}

	cacheDirectory := resolveCacheDirectory(repositoryRoot, configuration.Cache)
	auditCache := cache.NewAuditCache(cacheDirectory, configuration.Cache.EffectiveMaxAgeHours(), service.logger)
	if deleteError := auditCache.Delete(); deleteError != nil {
		return fmt.Errorf(cacheDeletionErrorTemplateConstant, deleteError)
	}

	fmt.Fprint(service.outputWriter, cacheClearedMessageConstant)
	return nil
}

func (service *Service) executeAudit(executionContext context.Context, options RunOptions) (*RunOutcome, error) {
	repositoryRoot, pathError := service.resolveRepositoryRoot(options.RepositoryPath)
	if pathError != nil {
		return nil, pathError
	}

	configuration, configurationError := service.loadConfiguration(repositoryRoot, options.ConfigFilePath)
	if configurationError != nil {
		return nil, configurationError
	}

	if presetError := applyPresetOverride(configuration, options.PresetOverride); presetError != nil {
		return nil, presetError
	}

	if categoryError := validateCategoryNames(options.OnlyCategories); categoryError != nil {
		return nil, categoryError
	}
	if categoryError := validateCategoryNames(options.SkipCategories); categoryError != nil {
		return nil, categoryError
	}

	repositoryScanner := scanner.NewScanner(repositoryRoot)
	rulesEngine := engine.NewRulesEngine(service.logger, service.shellExecutor)
	rulesEngine.SetOnlyCategories(options.OnlyCategories)
	rulesEngine.SetSkipCategories(options.SkipCategories)

	if options.ShowProgress {
		progressPrinter := ui.NewProgressPrinter(service.errorWriter, countSelectedCategories(options))
		rulesEngine.SetProgressCallback(progressPrinter.CategoryProgress)
	}

	if !options.DisableCache && configuration.Cache.IsEnabled() {
		cacheDirectory := resolveCacheDirectory(repositoryRoot, configuration.Cache)
		auditCache := cache.NewAuditCache(cacheDirectory, configuration.Cache.EffectiveMaxAgeHours(), service.logger)
		auditCache.Load()
		rulesEngine.SetCache(auditCache)
		service.logger.Debug(cacheLoadedDebugMessageConstant, zap.Int(logFieldCacheEntriesConstant, auditCache.Len()))
	}

	auditResults, auditTiming, runError := rulesEngine.RunWithTiming(executionContext, repositoryScanner, configuration)

	if auditCache := rulesEngine.TakeCache(); auditCache != nil && auditCache.Dirty() {
		if saveError := auditCache.Save(); saveError != nil {
			service.logger.Warn(cacheSaveFailedMessageConstant, zap.Error(saveError))
		}
	}

	if runError != nil {
		return nil, fmt.Errorf(auditRunErrorTemplateConstant, runError)
	}

	outcome := &RunOutcome{
		RepositoryRoot: repositoryRoot,
		Configuration:  configuration,
		Results:        auditResults,
		Timing:         auditTiming,
	}
	return outcome, nil
}

func (service *Service) resolveRepositoryRoot(repositoryPath string) (string, error) {
	candidatePath := strings.TrimSpace(repositoryPath)
	if len(candidatePath) == 0 {
		candidatePath = defaultRepositoryPathConstant
	}

	absolutePath, absoluteError := filepath.Abs(candidatePath)
	if absoluteError != nil {
		return "", fmt.Errorf(repositoryPathResolutionTemplateConstant, candidatePath, absoluteError)
	}

	pathInformation, statError := os.Stat(absolutePath)
	if statError != nil || !pathInformation.IsDir() {
		return "", NewExitError(ExitCodeInvalidArguments, fmt.Sprintf(invalidRepositoryPathTemplateConstant, candidatePath))
	}

	return absolutePath, nil
}

func (service *Service) loadConfiguration(repositoryRoot string, configFilePath string) (*config.Config, error) {
	configurationLoader := utils.NewConfigurationLoader(
		repositoryConfigurationNameConstant,
		repositoryConfigurationTypeConstant,
		repositoryEnvironmentPrefixConstant,
		[]string{repositoryRoot},
	)

	defaultValues := map[string]any{
		presetConfigurationKeyConstant: repositoryConfigurationDefaultPresetString,
	}

	configuration := config.DefaultConfig()
	loadedConfiguration, loadError := configurationLoader.LoadConfiguration(configFilePath, defaultValues, configuration)
	if loadError != nil {
		return nil, fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	configuration.Sanitize()

	service.logger.Debug(
		configurationLoadedDebugMessageConstant,
		zap.String(logFieldRepositoryRootConstant, repositoryRoot),
		zap.String(logFieldConfigurationFileConstant, loadedConfiguration.ConfigFileUsed),
		zap.String(configurationPresetFieldConstant, configuration.Preset),
	)

	return configuration, nil
}

func (service *Service) writeRendered(renderedReport []byte) {
	fmt.Fprint(service.outputWriter, string(renderedReport))
	if len(renderedReport) > 0 && renderedReport[len(renderedReport)-1] != '\n' {
		fmt.Fprint(service.outputWriter, newlineConstant)
	}
}

func (service *Service) writeTiming(auditTiming *rules.AuditTiming) {
	if auditTiming == nil {
		return
	}

	fmt.Fprint(service.outputWriter, timingHeaderMessageConstant)
	for _, categoryTiming := range auditTiming.Categories {
		fmt.Fprintf(
			service.outputWriter,
			timingRowTemplateConstant,
			categoryTiming.Name,
			categoryTiming.RuleCount,
			categoryTiming.FindingsCount,
			rules.FormatDuration(categoryTiming.Duration),
		)
	}
	fmt.Fprintf(service.outputWriter, timingTotalTemplateConstant, rules.FormatDuration(auditTiming.TotalDuration))
}

func applyPresetOverride(configuration *config.Config, presetOverride string) error {
	trimmedOverride := strings.TrimSpace(presetOverride)
	if len(trimmedOverride) > 0 {
		parsedPreset, parseError := config.ParsePreset(trimmedOverride)
		if parseError != nil {
			return NewExitError(ExitCodeInvalidArguments, fmt.Sprintf(unknownPresetTemplateConstant, trimmedOverride))
		}
		configuration.Preset = string(parsedPreset)
	}

	if _, presetError := configuration.ActivePreset(); presetError != nil {
		return NewExitError(ExitCodeInvalidArguments, fmt.Sprintf(unknownPresetTemplateConstant, configuration.Preset))
	}
	return nil
}

func validateCategoryNames(categoryNames []string) error {
	knownCategories := map[string]struct{}{}
	for _, categoryName := range rules.CategoryNames() {
		knownCategories[categoryName] = struct{}{}
	}

	for _, categoryName := range categoryNames {
		if _, known := knownCategories[categoryName]; !known {
			return NewExitError(ExitCodeInvalidArguments, fmt.Sprintf(unknownCategoryTemplateConstant, categoryName))
		}
	}
	return nil
}

func countSelectedCategories(options RunOptions) int {
	if len(options.OnlyCategories) > 0 {
		return len(options.OnlyCategories)
	}

	selectedCount := len(rules.CategoryNames()) - len(options.SkipCategories)
	if selectedCount < 0 {
		return 0
	}
	return selectedCount
}

func resolveCacheDirectory(repositoryRoot string, cacheConfiguration config.CacheConfig) string {
	cacheDirectory := cacheConfiguration.EffectiveDirectory()
	if filepath.IsAbs(cacheDirectory) {
		return cacheDirectory
	}
	return filepath.Join(repositoryRoot, cacheDirectory)
}

// ResultExitError maps audit findings to the documented exit statuses. A
// clean run returns nil.
func ResultExitError(auditResults *rules.AuditResults) error {
	switch {
	case auditResults == nil:
		return nil
	case auditResults.HasCritical():
		return NewExitError(ExitCodeCriticalFindings, criticalFindingsExitMessageConstant)
	case auditResults.HasWarnings():
		return NewExitError(ExitCodeWarningFindings, warningFindingsExitMessageConstant)
	default:
		return nil
	}
}
