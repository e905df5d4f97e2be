package execshell_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/delfour-co/repolens/internal/execshell"
)

const (
	testScriptTextConstant       = "grep -q TODO \"$1\""
	testWorkingDirectoryConstant = "/tmp/repository"
	testPositionalFileConstant   = "notes.txt"
)

type recordingCommandRunner struct {
	recordedCommand    execshell.ShellCommand
	recordedDeadline   bool
	resultToReturn     execshell.ExecutionResult
	errorToReturn      error
	invocationCounting int
}

func (runner *recordingCommandRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.invocationCounting++
	runner.recordedCommand = command
	_, runner.recordedDeadline = executionContext.Deadline()
	return runner.resultToReturn, runner.errorToReturn
}

func TestNewShellExecutorRequiresRunner(testInstance *testing.T) {
	_, constructionError := execshell.NewShellExecutor(nil, nil)
	require.Error(testInstance, constructionError)
}

func TestExecuteShellScriptShape(testInstance *testing.T) {
	commandRunner := &recordingCommandRunner{resultToReturn: execshell.ExecutionResult{ExitCode: 0}}
	executor, constructionError := execshell.NewShellExecutor(commandRunner, nil)
	require.NoError(testInstance, constructionError)

	executionResult, executionError := executor.ExecuteShellScript(
		context.Background(), testScriptTextConstant, testWorkingDirectoryConstant,
		[]string{testPositionalFileConstant}, 5*time.Second)
	require.NoError(testInstance, executionError)
	require.Zero(testInstance, executionResult.ExitCode)

	require.Equal(testInstance, execshell.CommandShell, commandRunner.recordedCommand.Name)
	require.Equal(testInstance,
		[]string{"-c", testScriptTextConstant, "sh", testPositionalFileConstant},
		commandRunner.recordedCommand.Details.Arguments)
	require.Equal(testInstance, testWorkingDirectoryConstant, commandRunner.recordedCommand.Details.WorkingDirectory)
	require.True(testInstance, commandRunner.recordedDeadline)
}

func TestExecutePropagatesNonZeroExitAsResult(testInstance *testing.T) {
	commandRunner := &recordingCommandRunner{resultToReturn: execshell.ExecutionResult{ExitCode: 2, StandardError: "not found"}}
	executor, constructionError := execshell.NewShellExecutor(commandRunner, nil)
	require.NoError(testInstance, constructionError)

	executionResult, executionError := executor.Execute(context.Background(), execshell.ShellCommand{Name: execshell.CommandShell}, 0)
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, 2, executionResult.ExitCode)
	require.Equal(testInstance, "not found", executionResult.StandardError)
}

func TestExecuteWrapsRunnerFailure(testInstance *testing.T) {
	runnerFailure := errors.New("executable not found")
	commandRunner := &recordingCommandRunner{errorToReturn: runnerFailure}
	executor, constructionError := execshell.NewShellExecutor(commandRunner, nil)
	require.NoError(testInstance, constructionError)

	_, executionError := executor.Execute(context.Background(), execshell.ShellCommand{Name: execshell.CommandShell}, 0)
	require.Error(testInstance, executionError)
	require.ErrorIs(testInstance, executionError, runnerFailure)
}

func TestExecuteWithoutTimeoutHasNoDeadline(testInstance *testing.T) {
	commandRunner := &recordingCommandRunner{}
	executor, constructionError := execshell.NewShellExecutor(commandRunner, nil)
	require.NoError(testInstance, constructionError)

	_, executionError := executor.Execute(context.Background(), execshell.ShellCommand{Name: execshell.CommandShell}, 0)
	require.NoError(testInstance, executionError)
	require.False(testInstance, commandRunner.recordedDeadline)
}
