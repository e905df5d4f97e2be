package config

import "github.com/delfour-co/repolens/internal/scanner"

func anyPatternMatches(globPatterns []string, candidateValue string) bool {
	for _, globPattern := range globPatterns {
		if scanner.GlobMatch(globPattern, candidateValue) {
			return true
		}
	}
	return false
}
