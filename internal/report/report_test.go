package report_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/delfour-co/repolens/internal/report"
	"github.com/delfour-co/repolens/internal/rules"
)

func sampleResults() *rules.AuditResults {
	auditResults := rules.NewAuditResults("demo", "opensource", time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC))
	auditResults.AddFindings([]rules.Finding{
		rules.NewFinding("SEC001", rules.CategorySecrets, rules.SeverityCritical, "Hardcoded Stripe key").
			WithLocation("src/pay.js", 12),
		rules.NewFinding("DOC001", rules.CategoryDocs, rules.SeverityWarning, "README is missing"),
		rules.NewFinding("GIT002", rules.CategoryGit, rules.SeverityInfo, ".gitattributes file is missing"),
	})
	return auditResults
}

func TestParseFormat(testInstance *testing.T) {
	testCases := []struct {
		name           string
		input          string
		expectedFormat report.Format
		expectError    bool
	}{
		{name: "json lowercase", input: "json", expectedFormat: report.FormatJSON},
		{name: "sarif mixed case", input: " SARIF ", expectedFormat: report.FormatSARIF},
		{name: "text", input: "text", expectedFormat: report.FormatText},
		{name: "unknown", input: "yaml", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			parsedFormat, parseError := report.ParseFormat(testCase.input)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedFormat, parsedFormat)
		})
	}
}

func TestJSONRendererRoundTrips(testInstance *testing.T) {
	renderer, rendererError := report.NewRenderer(report.FormatJSON)
	require.NoError(testInstance, rendererError)

	document, renderError := renderer.Render(sampleResults())
	require.NoError(testInstance, renderError)

	var decodedResults rules.AuditResults
	require.NoError(testInstance, json.Unmarshal(document, &decodedResults))
	require.Equal(testInstance, "demo", decodedResults.RepositoryName)
	require.Len(testInstance, decodedResults.Findings, 3)
	require.Equal(testInstance, "SEC001", decodedResults.Findings[0].RuleID)
}

func TestSARIFRendererMapsSeverityLevels(testInstance *testing.T) {
	renderer, rendererError := report.NewRenderer(report.FormatSARIF)
	require.NoError(testInstance, rendererError)

	document, renderError := renderer.Render(sampleResults())
	require.NoError(testInstance, renderError)

	var sarifDocument struct {
		Schema  string `json:"$schema"`
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name  string `json:"name"`
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID    string `json:"ruleId"`
				Level     string `json:"level"`
				Locations []struct {
					PhysicalLocation struct {
						ArtifactLocation struct {
							URI string `json:"uri"`
						} `json:"artifactLocation"`
						Region *struct {
							StartLine int `json:"startLine"`
						} `json:"region"`
					} `json:"physicalLocation"`
				} `json:"locations"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(testInstance, json.Unmarshal(document, &sarifDocument))

	require.Equal(testInstance, "2.1.0", sarifDocument.Version)
	require.Len(testInstance, sarifDocument.Runs, 1)
	require.Equal(testInstance, "repolens", sarifDocument.Runs[0].Tool.Driver.Name)
	require.Len(testInstance, sarifDocument.Runs[0].Tool.Driver.Rules, 3)

	sarifResults := sarifDocument.Runs[0].Results
	require.Len(testInstance, sarifResults, 3)
	require.Equal(testInstance, "error", sarifResults[0].Level)
	require.Equal(testInstance, "warning", sarifResults[1].Level)
	require.Equal(testInstance, "note", sarifResults[2].Level)

	firstLocation := sarifResults[0].Locations[0].PhysicalLocation
	require.Equal(testInstance, "src/pay.js", firstLocation.ArtifactLocation.URI)
	require.NotNil(testInstance, firstLocation.Region)
	require.Equal(testInstance, 12, firstLocation.Region.StartLine)

	secondLocation := sarifResults[1].Locations[0].PhysicalLocation
	require.Equal(testInstance, "unknown", secondLocation.ArtifactLocation.URI)
	require.Nil(testInstance, secondLocation.Region)
}

func TestTextRendererSummarizesFindings(testInstance *testing.T) {
	renderer, rendererError := report.NewRenderer(report.FormatText)
	require.NoError(testInstance, rendererError)

	document, renderError := renderer.Render(sampleResults())
	require.NoError(testInstance, renderError)

	renderedText := string(document)
	require.Contains(testInstance, renderedText, "Repository: demo")
	require.Contains(testInstance, renderedText, "[critical] SEC001 Hardcoded Stripe key (src/pay.js:12)")
	require.Contains(testInstance, renderedText, "Findings: 3 total, 1 critical, 1 warnings, 1 info")
}

func TestTextRendererCleanRepository(testInstance *testing.T) {
	renderer := &report.TextRenderer{}
	document, renderError := renderer.Render(rules.NewAuditResults("demo", "opensource", time.Now()))
	require.NoError(testInstance, renderError)
	require.Contains(testInstance, string(document), "No issues found.")
}
