package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/delfour-co/repolens/internal/audit"
	"github.com/delfour-co/repolens/internal/utils"
)

const (
	auditCommandNameConstant  = "audit"
	reportCommandNameConstant = "report"
	planCommandNameConstant   = "plan"
	cacheCommandNameConstant  = "cache"
)

func TestNewApplicationRegistersAuditCommands(testInstance *testing.T) {
	application := NewApplication()

	registeredNames := map[string]bool{}
	for _, registeredCommand := range application.rootCommand.Commands() {
		registeredNames[registeredCommand.Name()] = true
	}

	require.True(testInstance, registeredNames[auditCommandNameConstant])
	require.True(testInstance, registeredNames[reportCommandNameConstant])
	require.True(testInstance, registeredNames[planCommandNameConstant])
	require.True(testInstance, registeredNames[cacheCommandNameConstant])
}

func TestInitializeConfigurationAppliesEmbeddedDefaults(testInstance *testing.T) {
	application := NewApplication()

	require.NoError(testInstance, application.initializeConfiguration(application.rootCommand))
	require.Equal(testInstance, string(utils.LogLevelInfo), application.configuration.Common.LogLevel)
	require.Equal(testInstance, string(utils.LogFormatConsole), application.configuration.Common.LogFormat)
	require.NotNil(testInstance, application.logger)
}

func TestApplicationAuditCommandReportsCriticalExitCode(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	readmePath := filepath.Join(repositoryRoot, "README.md")
	require.NoError(testInstance, os.WriteFile(readmePath, []byte("# Demo\n"), 0o644))

	application := NewApplication()
	application.rootCommand.SetOut(&bytes.Buffer{})
	application.rootCommand.SetErr(&bytes.Buffer{})
	application.rootCommand.SetArgs([]string{auditCommandNameConstant, repositoryRoot, "--no-cache"})

	executionError := application.Execute()
	require.Error(testInstance, executionError)

	exitError := &audit.ExitError{}
	require.ErrorAs(testInstance, executionError, &exitError)
	require.Equal(testInstance, audit.ExitCodeCriticalFindings, exitError.Code)
}
