package docs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/delfour-co/repolens/internal/config"
)

const (
	readmeFileNameConstant           = "README.md"
	yamlFenceStartConstant           = "```yaml"
	yamlFenceEndConstant             = "```"
	configHeaderMarkerConstant       = "# .repolens.yml"
	parentDirectoryReferenceConstant = ".."
	missingHeaderMessageConstant     = "README example missing config header marker"
	missingStartFenceMessageConstant = "README example missing yaml fence start"
	missingEndFenceMessageConstant   = "README example missing yaml fence end"
)

func TestReadmeConfigurationExampleParses(testInstance *testing.T) {
	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	readmePath := filepath.Join(workingDirectory, parentDirectoryReferenceConstant, readmeFileNameConstant)
	contentBytes, readError := os.ReadFile(readmePath)
	require.NoError(testInstance, readError)

	contentText := string(contentBytes)
	headerIndex := strings.Index(contentText, configHeaderMarkerConstant)
	require.NotEqual(testInstance, -1, headerIndex, missingHeaderMessageConstant)

	fenceStartIndex := strings.LastIndex(contentText[:headerIndex], yamlFenceStartConstant)
	require.NotEqual(testInstance, -1, fenceStartIndex, missingStartFenceMessageConstant)

	remainingText := contentText[headerIndex:]
	fenceEndRelativeIndex := strings.Index(remainingText, yamlFenceEndConstant)
	require.NotEqual(testInstance, -1, fenceEndRelativeIndex, missingEndFenceMessageConstant)
	fenceEndIndex := headerIndex + fenceEndRelativeIndex

	snippetContent := strings.TrimSpace(contentText[fenceStartIndex+len(yamlFenceStartConstant) : fenceEndIndex])

	exampleConfiguration := config.Config{}
	require.NoError(testInstance, yaml.Unmarshal([]byte(snippetContent), &exampleConfiguration))

	activePreset, presetError := (&exampleConfiguration).ActivePreset()
	require.NoError(testInstance, presetError)
	require.Equal(testInstance, config.PresetOpenSource, activePreset)

	require.Contains(testInstance, exampleConfiguration.Rules, "docs/license")
	require.Equal(testInstance, "critical", exampleConfiguration.Rules["docs/license"].Severity)
	require.False(testInstance, (&exampleConfiguration).IsRuleEnabled("quality/tests"))

	require.True(testInstance, exampleConfiguration.LicenseCompliance.Enabled)
	require.Contains(testInstance, exampleConfiguration.LicenseCompliance.DeniedLicenses, "AGPL-3.0")

	require.Contains(testInstance, exampleConfiguration.CustomRules, "no-todos")
	customRule := exampleConfiguration.CustomRules["no-todos"]
	require.Equal(testInstance, "TODO", customRule.Pattern)
	require.Equal(testInstance, "info", customRule.EffectiveSeverity())

	require.True(testInstance, exampleConfiguration.Cache.IsEnabled())
	require.Equal(testInstance, 24, exampleConfiguration.Cache.EffectiveMaxAgeHours())
}
