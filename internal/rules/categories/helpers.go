package categories

import (
	"strings"

	"github.com/delfour-co/repolens/internal/config"
	"github.com/delfour-co/repolens/internal/rules"
)

// lineNumberOfOffset converts a byte offset inside content to a 1-based line.
func lineNumberOfOffset(content string, byteOffset int) int {
	if byteOffset > len(content) {
		byteOffset = len(content)
	}
	return strings.Count(content[:byteOffset], "\n") + 1
}

// resolveSeverity applies a configured severity override for the rule slug,
// falling back to the category default when none is set or it fails to parse.
func resolveSeverity(configuration *config.Config, ruleSlug string, defaultSeverity rules.Severity) rules.Severity {
	overrideValue := configuration.RuleSeverityOverride(ruleSlug)
	if strings.TrimSpace(overrideValue) == "" {
		return defaultSeverity
	}
	parsedSeverity, parseError := rules.ParseSeverity(overrideValue)
	if parseError != nil {
		return defaultSeverity
	}
	return parsedSeverity
}
