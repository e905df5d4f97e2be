package scanner

import "strings"

// GlobMatch reports whether a slash-separated path matches a glob pattern.
// A single * matches within one path segment, ** matches across segments,
// and a pattern without a slash matches against the base name alone.
func GlobMatch(globPattern string, candidatePath string) bool {
	normalizedPattern := strings.TrimPrefix(filepathToSlash(globPattern), "./")
	normalizedPath := strings.TrimPrefix(filepathToSlash(candidatePath), "./")
	if !strings.Contains(normalizedPattern, "/") {
		baseName := normalizedPath
		if slashIndex := strings.LastIndex(normalizedPath, "/"); slashIndex >= 0 {
			baseName = normalizedPath[slashIndex+1:]
		}
		return matchSegments(splitSegments(normalizedPattern), splitSegments(baseName))
	}
	return matchSegments(splitSegments(normalizedPattern), splitSegments(normalizedPath))
}

func filepathToSlash(pathValue string) string {
	return strings.ReplaceAll(pathValue, "\\", "/")
}

func splitSegments(pathValue string) []string {
	if pathValue == "" {
		return nil
	}
	return strings.Split(pathValue, "/")
}

func matchSegments(patternSegments []string, pathSegments []string) bool {
	if len(patternSegments) == 0 {
		return len(pathSegments) == 0
	}
	if patternSegments[0] == "**" {
		if matchSegments(patternSegments[1:], pathSegments) {
			return true
		}
		if len(pathSegments) == 0 {
			return false
		}
		return matchSegments(patternSegments, pathSegments[1:])
	}
	if len(pathSegments) == 0 {
		return false
	}
	if !matchSegment(patternSegments[0], pathSegments[0]) {
		return false
	}
	return matchSegments(patternSegments[1:], pathSegments[1:])
}

func matchSegment(segmentPattern string, segmentValue string) bool {
	patternIndex, valueIndex := 0, 0
	starPatternIndex, starValueIndex := -1, 0
	for valueIndex < len(segmentValue) {
		switch {
		case patternIndex < len(segmentPattern) && (segmentPattern[patternIndex] == '?' || segmentPattern[patternIndex] == segmentValue[valueIndex]):
			patternIndex++
			valueIndex++
		case patternIndex < len(segmentPattern) && segmentPattern[patternIndex] == '*':
			starPatternIndex = patternIndex
			starValueIndex = valueIndex
			patternIndex++
		case starPatternIndex >= 0:
			patternIndex = starPatternIndex + 1
			starValueIndex++
			valueIndex = starValueIndex
		default:
			return false
		}
	}
	for patternIndex < len(segmentPattern) && segmentPattern[patternIndex] == '*' {
		patternIndex++
	}
	return patternIndex == len(segmentPattern)
}
