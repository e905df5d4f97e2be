package scanner

import (
	"os"
	"path/filepath"
	"strings"
)

type ignoreRule struct {
	pattern       string
	anchored      bool
	directoryOnly bool
}

type ignoreMatcher struct {
	rules []ignoreRule
}

// loadIgnoreMatcher parses the root .gitignore. The supported subset covers
// blank lines, comments, directory rules ending in a slash, leading slash
// anchoring, and * globs. Negation rules are not supported.
func loadIgnoreMatcher(repositoryRoot string) *ignoreMatcher {
	matcher := &ignoreMatcher{}
	ignoreContent, readError := os.ReadFile(filepath.Join(repositoryRoot, gitIgnoreFileNameConstant))
	if readError != nil {
		return matcher
	}
	for _, rawLine := range strings.Split(string(ignoreContent), "\n") {
		trimmedLine := strings.TrimSpace(rawLine)
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, "#") || strings.HasPrefix(trimmedLine, "!") {
			continue
		}
		rule := ignoreRule{pattern: trimmedLine}
		if strings.HasSuffix(rule.pattern, "/") {
			rule.directoryOnly = true
			rule.pattern = strings.TrimSuffix(rule.pattern, "/")
		}
		if strings.HasPrefix(rule.pattern, "/") {
			rule.anchored = true
			rule.pattern = strings.TrimPrefix(rule.pattern, "/")
		}
		matcher.rules = append(matcher.rules, rule)
	}
	return matcher
}

// Matches reports whether the relative slash path is ignored.
func (matcher *ignoreMatcher) Matches(relativePath string, isDirectory bool) bool {
	for _, rule := range matcher.rules {
		if rule.directoryOnly && !isDirectory {
			continue
		}
		if rule.anchored || strings.Contains(rule.pattern, "/") {
			if GlobMatch(ensureSlashPattern(rule.pattern), relativePath) {
				return true
			}
			continue
		}
		for _, pathSegment := range strings.Split(relativePath, "/") {
			if matchSegment(rule.pattern, pathSegment) {
				return true
			}
		}
	}
	return false
}

func ensureSlashPattern(patternValue string) string {
	if strings.Contains(patternValue, "/") {
		return patternValue
	}
	return patternValue + "/**"
}
