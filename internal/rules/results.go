package rules

import (
	"time"

	"github.com/google/uuid"
)

// AuditResults aggregates the findings produced by a complete audit run.
type AuditResults struct {
	RunID          uuid.UUID `json:"run_id"`
	RepositoryName string    `json:"repository_name"`
	Preset         string    `json:"preset"`
	Findings       []Finding `json:"findings"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// NewAuditResults creates an empty results container stamped with a fresh
// run identifier.
func NewAuditResults(repositoryName string, presetName string, generatedAt time.Time) *AuditResults {
	return &AuditResults{
		RunID:          uuid.New(),
		RepositoryName: repositoryName,
		Preset:         presetName,
		Findings:       []Finding{},
		GeneratedAt:    generatedAt,
	}
}

// AddFindings appends findings to the results.
func (results *AuditResults) AddFindings(findings []Finding) {
	results.Findings = append(results.Findings, findings...)
}

// HasCritical reports whether any finding carries critical severity.
func (results *AuditResults) HasCritical() bool {
	for _, finding := range results.Findings {
		if finding.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any finding carries warning severity.
func (results *AuditResults) HasWarnings() bool {
	for _, finding := range results.Findings {
		if finding.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// CountBySeverity tallies findings per severity value.
func (results *AuditResults) CountBySeverity() map[Severity]int {
	severityCounts := map[Severity]int{}
	for _, finding := range results.Findings {
		severityCounts[finding.Severity]++
	}
	return severityCounts
}

// FindingsByCategory groups findings by their category name.
func (results *AuditResults) FindingsByCategory() map[string][]Finding {
	categoryFindings := map[string][]Finding{}
	for _, finding := range results.Findings {
		categoryFindings[finding.Category] = append(categoryFindings[finding.Category], finding)
	}
	return categoryFindings
}

// IsClean reports whether the audit produced no findings at all.
func (results *AuditResults) IsClean() bool {
	return len(results.Findings) == 0
}

// TotalCount returns the number of findings across all categories.
func (results *AuditResults) TotalCount() int {
	return len(results.Findings)
}
