package audit

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/delfour-co/repolens/internal/execshell"
	"github.com/delfour-co/repolens/internal/report"
	"github.com/delfour-co/repolens/internal/utils"
	"github.com/delfour-co/repolens/internal/utils/flags"
	pathutils "github.com/delfour-co/repolens/internal/utils/path"
)

const (
	auditCommandUseConstant           = "audit [path]"
	auditCommandShortDescription      = "Audit a repository against the configured policy rules"
	auditCommandLongDescription       = "Audit runs every enabled rule category against the repository tree and prints a findings report.\nThe exit status reflects the most severe finding: 0 clean, 1 critical, 2 warnings."
	flagPresetName                    = "preset"
	flagPresetDescription             = "Override the configured preset (opensource, enterprise, or strict)."
	flagOnlyName                      = "only"
	flagOnlyDescription               = "Comma-separated list of the only categories to run."
	flagSkipName                      = "skip"
	flagSkipDescription               = "Comma-separated list of categories to skip."
	flagNoCacheName                   = "no-cache"
	flagNoCacheDescription            = "Ignore and do not update the audit result cache."
	flagProgressName                  = "progress"
	flagProgressDescription           = "Print a progress line per completed category."
	flagTimingName                    = "timing"
	flagTimingDescription             = "Print per-category execution timings after the report."
	flagFormatName                    = "format"
	flagFormatDescription             = "Report output format."
	flagOutputName                    = "output"
	flagOutputDescription             = "Write the report to a file instead of standard output."
	flagConfigName                    = "config"
	flagConfigDescription             = "Path to an audit configuration file overriding discovery."
	categoryListSeparatorConstant     = ","
	defaultReportFormatNameConstant   = "text"
)

var reportFormatChoices = []string{
	string(report.FormatText),
	string(report.FormatJSON),
	string(report.FormatSARIF),
}

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the audit cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider LoggerProvider
	ShellExecutor  *execshell.ShellExecutor
}

// Build constructs the cobra command running repository audits.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   auditCommandUseConstant,
		Short: auditCommandShortDescription,
		Long:  auditCommandLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}

	command.Flags().String(flagPresetName, "", flagPresetDescription)
	command.Flags().String(flagOnlyName, "", flagOnlyDescription)
	command.Flags().String(flagSkipName, "", flagSkipDescription)
	command.Flags().Bool(flagNoCacheName, false, flagNoCacheDescription)
	command.Flags().Bool(flagProgressName, false, flagProgressDescription)
	command.Flags().Bool(flagTimingName, false, flagTimingDescription)
	command.Flags().String(flagFormatName, defaultReportFormatNameConstant, flags.FormatChoiceUsage(defaultReportFormatNameConstant, reportFormatChoices, flagFormatDescription))
	command.Flags().String(flagOutputName, "", flagOutputDescription)
	command.Flags().String(flagConfigName, "", flagConfigDescription)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command, arguments)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger()
	shellExecutor, executorError := builder.resolveShellExecutor(logger)
	if executorError != nil {
		return executorError
	}

	service := NewService(logger, shellExecutor, utils.NewFlushingWriter(command.OutOrStdout()), command.ErrOrStderr())
	outcome, runError := service.Run(command.Context(), options)
	if runError != nil {
		return runError
	}

	return ResultExitError(outcome.Results)
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, arguments []string) (RunOptions, error) {
	presetFlag, _ := command.Flags().GetString(flagPresetName)
	onlyFlag, _ := command.Flags().GetString(flagOnlyName)
	skipFlag, _ := command.Flags().GetString(flagSkipName)
	noCacheFlag, _ := command.Flags().GetBool(flagNoCacheName)
	progressFlag, _ := command.Flags().GetBool(flagProgressName)
	timingFlag, _ := command.Flags().GetBool(flagTimingName)
	formatFlag, _ := command.Flags().GetString(flagFormatName)
	outputFlag, _ := command.Flags().GetString(flagOutputName)
	configFlag, _ := command.Flags().GetString(flagConfigName)

	outputFormat, formatError := report.ParseFormat(formatFlag)
	if formatError != nil {
		return RunOptions{}, NewExitError(ExitCodeInvalidArguments, formatError.Error())
	}

	options := RunOptions{
		RepositoryPath: repositoryPathFromArguments(arguments),
		ConfigFilePath: strings.TrimSpace(configFlag),
		PresetOverride: presetFlag,
		OnlyCategories: splitCategoryList(onlyFlag),
		SkipCategories: splitCategoryList(skipFlag),
		DisableCache:   noCacheFlag,
		ShowProgress:   progressFlag,
		ShowTiming:     timingFlag,
		OutputFormat:   outputFormat,
		OutputPath:     strings.TrimSpace(outputFlag),
	}

	return options, nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveShellExecutor(logger *zap.Logger) (*execshell.ShellExecutor, error) {
	if builder.ShellExecutor != nil {
		return builder.ShellExecutor, nil
	}
	return execshell.NewShellExecutor(execshell.NewOSCommandRunner(), logger)
}

func repositoryPathFromArguments(arguments []string) string {
	sanitizedPaths := pathutils.NewRepositoryPathSanitizer().Sanitize(arguments)
	if len(sanitizedPaths) == 0 {
		return defaultRepositoryPathConstant
	}
	return sanitizedPaths[0]
}

func splitCategoryList(flagValue string) []string {
	categoryNames := []string{}
	for _, categoryName := range strings.Split(flagValue, categoryListSeparatorConstant) {
		trimmedName := strings.TrimSpace(categoryName)
		if len(trimmedName) == 0 {
			continue
		}
		categoryNames = append(categoryNames, strings.ToLower(trimmedName))
	}
	return categoryNames
}
