package execshell

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// CommandName identifies the executable being launched.
type CommandName string

// Executables launched by repolens.
const (
	CommandShell CommandName = "sh"
)

const (
	shellCommandFlagConstant           = "-c"
	commandStartedLogMessageConstant   = "external command started"
	commandCompletedLogMessageConstant = "external command completed"
	commandFailedLogMessageConstant    = "external command failed"
	missingRunnerErrorMessageConstant  = "command runner is required"
	commandFailureTemplateConstant     = "execute %s: %w"
)

// CommandDetails captures the inputs for one process invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand couples an executable name with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable outcome of a process invocation.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes a shell command and reports its result. A non-zero
// exit code is a result, not an error; errors are reserved for failures to
// launch or deliver the process outcome.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// ShellExecutor runs commands through a CommandRunner with logging and
// optional per-invocation timeouts.
type ShellExecutor struct {
	commandRunner CommandRunner
	logger        *zap.Logger
}

// NewShellExecutor constructs a ShellExecutor. The runner is required; a nil
// logger falls back to a no-op logger.
func NewShellExecutor(commandRunner CommandRunner, logger *zap.Logger) (*ShellExecutor, error) {
	if commandRunner == nil {
		return nil, errors.New(missingRunnerErrorMessageConstant)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShellExecutor{commandRunner: commandRunner, logger: logger}, nil
}

// Execute runs the supplied command, applying the timeout when positive.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand, timeout time.Duration) (ExecutionResult, error) {
	if timeout > 0 {
		timeoutContext, cancelTimeout := context.WithTimeout(executionContext, timeout)
		defer cancelTimeout()
		executionContext = timeoutContext
	}

	executor.logger.Debug(commandStartedLogMessageConstant,
		zap.String("command", string(command.Name)),
		zap.Strings("arguments", command.Details.Arguments),
		zap.String("working_directory", command.Details.WorkingDirectory))

	executionResult, executionError := executor.commandRunner.Run(executionContext, command)
	if executionError != nil {
		executor.logger.Debug(commandFailedLogMessageConstant,
			zap.String("command", string(command.Name)),
			zap.Error(executionError))
		return ExecutionResult{}, fmt.Errorf(commandFailureTemplateConstant, command.Name, executionError)
	}

	executor.logger.Debug(commandCompletedLogMessageConstant,
		zap.String("command", string(command.Name)),
		zap.Int("exit_code", executionResult.ExitCode))
	return executionResult, nil
}

// ExecuteShellScript runs a script line through `sh -c` in the working
// directory. Extra arguments become the script's positional parameters.
func (executor *ShellExecutor) ExecuteShellScript(executionContext context.Context, scriptText string, workingDirectory string, extraArguments []string, timeout time.Duration) (ExecutionResult, error) {
	shellArguments := append([]string{shellCommandFlagConstant, scriptText, string(CommandShell)}, extraArguments...)
	command := ShellCommand{
		Name: CommandShell,
		Details: CommandDetails{
			Arguments:        shellArguments,
			WorkingDirectory: workingDirectory,
		},
	}
	return executor.Execute(executionContext, command, timeout)
}
