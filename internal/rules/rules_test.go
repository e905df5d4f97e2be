package rules_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/delfour-co/repolens/internal/rules"
)

const (
	testRepositoryNameConstant = "sample-repository"
	testPresetNameConstant     = "opensource"
	testRuleIdentifierConstant = "SEC001"
	testFindingMessageConstant = "hardcoded credential detected"
	testFindingFileConstant    = "src/main.go"
)

func TestParseSeverity(testInstance *testing.T) {
	testCases := []struct {
		name             string
		severityName     string
		expectedSeverity rules.Severity
		expectError      bool
	}{
		{name: "critical", severityName: "critical", expectedSeverity: rules.SeverityCritical},
		{name: "error_alias", severityName: "error", expectedSeverity: rules.SeverityCritical},
		{name: "warning", severityName: "warning", expectedSeverity: rules.SeverityWarning},
		{name: "warn_alias", severityName: "warn", expectedSeverity: rules.SeverityWarning},
		{name: "info", severityName: "info", expectedSeverity: rules.SeverityInfo},
		{name: "information_alias", severityName: "information", expectedSeverity: rules.SeverityInfo},
		{name: "note_alias", severityName: "note", expectedSeverity: rules.SeverityInfo},
		{name: "uppercase_input", severityName: "  CRITICAL ", expectedSeverity: rules.SeverityCritical},
		{name: "unknown_value", severityName: "catastrophic", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			parsedSeverity, parseError := rules.ParseSeverity(testCase.severityName)
			if testCase.expectError {
				require.Error(subtestInstance, parseError)
				return
			}
			require.NoError(subtestInstance, parseError)
			require.Equal(subtestInstance, testCase.expectedSeverity, parsedSeverity)
		})
	}
}

func TestSeverityOrdering(testInstance *testing.T) {
	require.True(testInstance, rules.SeverityCritical.MoreSevereThan(rules.SeverityWarning))
	require.True(testInstance, rules.SeverityWarning.MoreSevereThan(rules.SeverityInfo))
	require.False(testInstance, rules.SeverityInfo.MoreSevereThan(rules.SeverityCritical))
}

func TestFindingBuilders(testInstance *testing.T) {
	finding := rules.NewFinding(testRuleIdentifierConstant, rules.CategorySecrets, rules.SeverityCritical, testFindingMessageConstant).
		WithLocation(testFindingFileConstant, 42).
		WithDescription("credential committed to source control").
		WithRemediation("rotate the credential and purge it from history")

	require.Equal(testInstance, testRuleIdentifierConstant, finding.RuleID)
	require.Equal(testInstance, rules.CategorySecrets, finding.Category)
	require.NotNil(testInstance, finding.Location)
	require.Equal(testInstance, testFindingFileConstant, finding.Location.FilePath)
	require.Equal(testInstance, 42, finding.Location.Line)
	require.Equal(testInstance, testFindingFileConstant, finding.FilePath())
	require.NotEmpty(testInstance, finding.Description)
	require.NotEmpty(testInstance, finding.Remediation)
}

func TestFindingWithoutLocation(testInstance *testing.T) {
	finding := rules.NewFinding(testRuleIdentifierConstant, rules.CategoryDocs, rules.SeverityInfo, testFindingMessageConstant)
	require.Nil(testInstance, finding.Location)
	require.Empty(testInstance, finding.FilePath())
}

func TestAuditResultsAggregation(testInstance *testing.T) {
	results := rules.NewAuditResults(testRepositoryNameConstant, testPresetNameConstant, time.Now())
	require.True(testInstance, results.IsClean())
	require.NotEqual(testInstance, "00000000-0000-0000-0000-000000000000", results.RunID.String())

	results.AddFindings([]rules.Finding{
		rules.NewFinding("SEC001", rules.CategorySecrets, rules.SeverityCritical, "credential"),
		rules.NewFinding("DOC001", rules.CategoryDocs, rules.SeverityWarning, "missing readme"),
		rules.NewFinding("DOC002", rules.CategoryDocs, rules.SeverityInfo, "missing license"),
	})

	require.False(testInstance, results.IsClean())
	require.True(testInstance, results.HasCritical())
	require.True(testInstance, results.HasWarnings())
	require.Equal(testInstance, 3, results.TotalCount())

	severityCounts := results.CountBySeverity()
	require.Equal(testInstance, 1, severityCounts[rules.SeverityCritical])
	require.Equal(testInstance, 1, severityCounts[rules.SeverityWarning])
	require.Equal(testInstance, 1, severityCounts[rules.SeverityInfo])

	categoryFindings := results.FindingsByCategory()
	require.Len(testInstance, categoryFindings[rules.CategorySecrets], 1)
	require.Len(testInstance, categoryFindings[rules.CategoryDocs], 2)
}

func TestFormatDuration(testInstance *testing.T) {
	testCases := []struct {
		name           string
		duration       time.Duration
		expectedOutput string
	}{
		{name: "sub_millisecond", duration: 400 * time.Microsecond, expectedOutput: "< 1ms"},
		{name: "milliseconds", duration: 456 * time.Millisecond, expectedOutput: "456ms"},
		{name: "seconds", duration: 1230 * time.Millisecond, expectedOutput: "1.23s"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			require.Equal(subtestInstance, testCase.expectedOutput, rules.FormatDuration(testCase.duration))
		})
	}
}

func TestCategoryNamesOrder(testInstance *testing.T) {
	expectedOrder := []string{
		"secrets", "files", "docs", "security", "workflows", "quality",
		"dependencies", "licenses", "docker", "git", "custom",
	}
	require.Equal(testInstance, expectedOrder, rules.CategoryNames())
	require.True(testInstance, rules.IsValidCategory("secrets"))
	require.False(testInstance, rules.IsValidCategory("cosmetics"))
}

func TestAuditTimingAccumulation(testInstance *testing.T) {
	timing := &rules.AuditTiming{}
	timing.AddCategory(rules.CategoryTiming{Name: rules.CategorySecrets, RuleCount: 3, FindingsCount: 1, Duration: 20 * time.Millisecond})
	timing.AddCategory(rules.CategoryTiming{Name: rules.CategoryDocs, RuleCount: 7, FindingsCount: 2, Duration: 5 * time.Millisecond})
	require.Len(testInstance, timing.Categories, 2)
	require.Equal(testInstance, 25*time.Millisecond, timing.TotalDuration)
}
