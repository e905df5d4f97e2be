package audit

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/delfour-co/repolens/internal/execshell"
	"github.com/delfour-co/repolens/internal/report"
	"github.com/delfour-co/repolens/internal/utils/flags"
)

const (
	reportCommandUseConstant         = "report [path]"
	reportCommandShortDescription    = "Run an audit and write a machine-readable report file"
	reportCommandLongDescription     = "Report audits the repository and writes the findings to a report file suitable for CI pipelines and code-scanning uploads."
	defaultReportFileNameConstant    = "repolens-report.json"
	defaultReportFormatConstant      = "json"
	flagReportFormatDescription      = "Report file format."
	flagReportOutputDescription      = "Report file path."
)

var reportFileFormatChoices = []string{
	string(report.FormatJSON),
	string(report.FormatSARIF),
}

// ReportCommandBuilder assembles the report cobra command.
type ReportCommandBuilder struct {
	LoggerProvider LoggerProvider
	ShellExecutor  *execshell.ShellExecutor
}

// Build constructs the cobra command producing report files.
func (builder *ReportCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   reportCommandUseConstant,
		Short: reportCommandShortDescription,
		Long:  reportCommandLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}

	command.Flags().String(flagPresetName, "", flagPresetDescription)
	command.Flags().String(flagOnlyName, "", flagOnlyDescription)
	command.Flags().String(flagSkipName, "", flagSkipDescription)
	command.Flags().Bool(flagNoCacheName, false, flagNoCacheDescription)
	command.Flags().String(flagFormatName, defaultReportFormatConstant, flags.FormatChoiceUsage(defaultReportFormatConstant, reportFileFormatChoices, flagReportFormatDescription))
	command.Flags().String(flagOutputName, defaultReportFileNameConstant, flagReportOutputDescription)
	command.Flags().String(flagConfigName, "", flagConfigDescription)

	return command, nil
}

func (builder *ReportCommandBuilder) run(command *cobra.Command, arguments []string) error {
	presetFlag, _ := command.Flags().GetString(flagPresetName)
	onlyFlag, _ := command.Flags().GetString(flagOnlyName)
	skipFlag, _ := command.Flags().GetString(flagSkipName)
	noCacheFlag, _ := command.Flags().GetBool(flagNoCacheName)
	formatFlag, _ := command.Flags().GetString(flagFormatName)
	outputFlag, _ := command.Flags().GetString(flagOutputName)
	configFlag, _ := command.Flags().GetString(flagConfigName)

	outputFormat, formatError := report.ParseFormat(formatFlag)
	if formatError != nil {
		return NewExitError(ExitCodeInvalidArguments, formatError.Error())
	}

	outputPath := strings.TrimSpace(outputFlag)
	if len(outputPath) == 0 {
		outputPath = defaultReportFileNameConstant
	}

	options := RunOptions{
		RepositoryPath: repositoryPathFromArguments(arguments),
		ConfigFilePath: strings.TrimSpace(configFlag),
		PresetOverride: presetFlag,
		OnlyCategories: splitCategoryList(onlyFlag),
		SkipCategories: splitCategoryList(skipFlag),
		DisableCache:   noCacheFlag,
		OutputFormat:   outputFormat,
		OutputPath:     outputPath,
	}

	commandBuilder := CommandBuilder{LoggerProvider: builder.LoggerProvider, ShellExecutor: builder.ShellExecutor}
	logger := commandBuilder.resolveLogger()
	shellExecutor, executorError := commandBuilder.resolveShellExecutor(logger)
	if executorError != nil {
		return executorError
	}

	service := NewService(logger, shellExecutor, command.OutOrStdout(), command.ErrOrStderr())
	_, runError := service.Run(command.Context(), options)
	return runError
}
