package audit

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/delfour-co/repolens/internal/execshell"
	"github.com/delfour-co/repolens/internal/planner"
)

const (
	planCommandUseConstant        = "plan [path]"
	planCommandShortDescription   = "Preview the remediation actions derived from audit findings"
	planCommandLongDescription    = "Plan audits the repository and prints the remediation actions that would address the findings, without changing anything."
	planHeaderTemplateConstant    = "Planned actions for %s:\n"
	planEmptyMessageConstant      = "No actions planned.\n"
	planActionTemplateConstant    = "%2d. [%s] %s\n"
	planTargetTemplateConstant    = "      target: %s\n"
	planDetailTemplateConstant    = "      - %s\n"
	flagPlanOnlyDescription       = "Comma-separated list of the only action categories to include."
	flagPlanSkipDescription       = "Comma-separated list of action categories to exclude."
)

// PlanCommandBuilder assembles the plan cobra command.
type PlanCommandBuilder struct {
	LoggerProvider LoggerProvider
	ShellExecutor  *execshell.ShellExecutor
}

// Build constructs the cobra command previewing remediation plans.
func (builder *PlanCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   planCommandUseConstant,
		Short: planCommandShortDescription,
		Long:  planCommandLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.run,
	}

	command.Flags().String(flagPresetName, "", flagPresetDescription)
	command.Flags().String(flagOnlyName, "", flagPlanOnlyDescription)
	command.Flags().String(flagSkipName, "", flagPlanSkipDescription)
	command.Flags().String(flagConfigName, "", flagConfigDescription)

	return command, nil
}

func (builder *PlanCommandBuilder) run(command *cobra.Command, arguments []string) error {
	presetFlag, _ := command.Flags().GetString(flagPresetName)
	onlyFlag, _ := command.Flags().GetString(flagOnlyName)
	skipFlag, _ := command.Flags().GetString(flagSkipName)
	configFlag, _ := command.Flags().GetString(flagConfigName)

	options := RunOptions{
		RepositoryPath: repositoryPathFromArguments(arguments),
		ConfigFilePath: strings.TrimSpace(configFlag),
		PresetOverride: presetFlag,
		DisableCache:   true,
	}

	commandBuilder := CommandBuilder{LoggerProvider: builder.LoggerProvider, ShellExecutor: builder.ShellExecutor}
	logger := commandBuilder.resolveLogger()
	shellExecutor, executorError := commandBuilder.resolveShellExecutor(logger)
	if executorError != nil {
		return executorError
	}

	service := NewService(logger, shellExecutor, command.OutOrStdout(), command.ErrOrStderr())
	actionPlan, outcome, planError := service.Plan(command.Context(), options)
	if planError != nil {
		return planError
	}

	actionPlan.FilterOnly(splitCategoryList(onlyFlag))
	actionPlan.FilterSkip(splitCategoryList(skipFlag))

	writePlan(command, outcome.Results.RepositoryName, actionPlan)
	return nil
}

func writePlan(command *cobra.Command, repositoryName string, actionPlan *planner.ActionPlan) {
	outputWriter := command.OutOrStdout()

	if actionPlan.IsEmpty() {
		fmt.Fprint(outputWriter, planEmptyMessageConstant)
		return
	}

	fmt.Fprintf(outputWriter, planHeaderTemplateConstant, repositoryName)
	for actionIndex, plannedAction := range actionPlan.Actions {
		fmt.Fprintf(outputWriter, planActionTemplateConstant, actionIndex+1, plannedAction.Category, plannedAction.Description)
		if len(plannedAction.TargetPath) > 0 {
			fmt.Fprintf(outputWriter, planTargetTemplateConstant, plannedAction.TargetPath)
		}
		for _, actionDetail := range plannedAction.Details {
			fmt.Fprintf(outputWriter, planDetailTemplateConstant, actionDetail)
		}
	}
}
