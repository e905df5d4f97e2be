package rules

import (
	"fmt"
	"strings"
)

// Severity classifies how serious a finding is.
type Severity string

// Supported severity values.
const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

const unknownSeverityErrorTemplateConstant = "unknown severity %q"

var severityRankValues = map[Severity]int{
	SeverityCritical: 3,
	SeverityWarning:  2,
	SeverityInfo:     1,
}

var severityAliasValues = map[string]Severity{
	"critical":    SeverityCritical,
	"error":       SeverityCritical,
	"warning":     SeverityWarning,
	"warn":        SeverityWarning,
	"info":        SeverityInfo,
	"information": SeverityInfo,
	"note":        SeverityInfo,
}

// ParseSeverity resolves a severity name, accepting common aliases.
func ParseSeverity(severityName string) (Severity, error) {
	normalizedName := strings.ToLower(strings.TrimSpace(severityName))
	resolvedSeverity, severityKnown := severityAliasValues[normalizedName]
	if !severityKnown {
		return "", fmt.Errorf(unknownSeverityErrorTemplateConstant, severityName)
	}
	return resolvedSeverity, nil
}

// Rank returns the ordering weight of the severity; higher is more severe.
func (severity Severity) Rank() int {
	return severityRankValues[severity]
}

// MoreSevereThan reports whether the receiver outranks the other severity.
func (severity Severity) MoreSevereThan(other Severity) bool {
	return severity.Rank() > other.Rank()
}
