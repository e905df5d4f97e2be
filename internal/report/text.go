package report

import (
	"bytes"
	"fmt"

	"github.com/delfour-co/repolens/internal/rules"
)

const (
	cleanRepositoryMessageConstant = "No issues found."
	severityMarkerCritical         = "[critical]"
	severityMarkerWarning          = "[warning]"
	severityMarkerInfo             = "[info]"
)

// TextRenderer emits a human-readable summary grouped by category.
type TextRenderer struct{}

// Render writes the findings grouped by category followed by totals.
func (renderer *TextRenderer) Render(auditResults *rules.AuditResults) ([]byte, error) {
	var outputBuffer bytes.Buffer

	fmt.Fprintf(&outputBuffer, "Repository: %s\n", auditResults.RepositoryName)
	fmt.Fprintf(&outputBuffer, "Preset: %s\n\n", auditResults.Preset)

	if auditResults.IsClean() {
		outputBuffer.WriteString(cleanRepositoryMessageConstant + "\n")
		return outputBuffer.Bytes(), nil
	}

	findingsByCategory := auditResults.FindingsByCategory()
	for _, categoryName := range rules.CategoryNames() {
		categoryFindings := findingsByCategory[categoryName]
		if len(categoryFindings) == 0 {
			continue
		}
		fmt.Fprintf(&outputBuffer, "%s (%d)\n", categoryName, len(categoryFindings))
		for _, finding := range categoryFindings {
			outputBuffer.WriteString("  " + severityMarker(finding.Severity) + " " + finding.RuleID + " " + finding.Message)
			if finding.Location != nil {
				outputBuffer.WriteString(" (" + finding.Location.FilePath)
				if finding.Location.Line > 0 {
					fmt.Fprintf(&outputBuffer, ":%d", finding.Location.Line)
				}
				outputBuffer.WriteString(")")
			}
			outputBuffer.WriteString("\n")
		}
		outputBuffer.WriteString("\n")
	}

	severityCounts := auditResults.CountBySeverity()
	fmt.Fprintf(&outputBuffer, "Findings: %d total, %d critical, %d warnings, %d info\n",
		auditResults.TotalCount(),
		severityCounts[rules.SeverityCritical],
		severityCounts[rules.SeverityWarning],
		severityCounts[rules.SeverityInfo])

	return outputBuffer.Bytes(), nil
}

func severityMarker(severity rules.Severity) string {
	switch severity {
	case rules.SeverityCritical:
		return severityMarkerCritical
	case rules.SeverityWarning:
		return severityMarkerWarning
	default:
		return severityMarkerInfo
	}
}
