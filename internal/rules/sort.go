package rules

import "sort"

// SortFindings orders findings deterministically: findings without a location
// first, then by file path, line, and rule identifier.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(firstIndex, secondIndex int) bool {
		firstFinding, secondFinding := findings[firstIndex], findings[secondIndex]
		firstPath, secondPath := firstFinding.FilePath(), secondFinding.FilePath()
		if firstPath != secondPath {
			return firstPath < secondPath
		}
		firstLine, secondLine := locationLine(firstFinding), locationLine(secondFinding)
		if firstLine != secondLine {
			return firstLine < secondLine
		}
		return firstFinding.RuleID < secondFinding.RuleID
	})
}

func locationLine(finding Finding) int {
	if finding.Location == nil {
		return 0
	}
	return finding.Location.Line
}
