package report

import (
	"encoding/json"

	"github.com/delfour-co/repolens/internal/rules"
)

const (
	sarifSchemaURIConstant     = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	sarifVersionConstant       = "2.1.0"
	sarifToolNameConstant      = "repolens"
	sarifToolVersionConstant   = "1.0.0"
	sarifInformationURI        = "https://github.com/delfour-co/repolens"
	sarifUnknownArtifactURI    = "unknown"
	sarifLevelErrorConstant    = "error"
	sarifLevelWarningConstant  = "warning"
	sarifLevelNoteConstant     = "note"
)

type sarifDocument struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID                   string             `json:"id"`
	Name                 string             `json:"name"`
	ShortDescription     sarifMessage       `json:"shortDescription"`
	DefaultConfiguration sarifConfiguration `json:"defaultConfiguration"`
}

type sarifConfiguration struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

// SARIFRenderer emits the audit results as a SARIF 2.1.0 document.
type SARIFRenderer struct{}

// Render builds the SARIF document. Each distinct rule appears once in the
// driver rule list; every finding becomes a result.
func (renderer *SARIFRenderer) Render(auditResults *rules.AuditResults) ([]byte, error) {
	driverRules := []sarifRule{}
	seenRuleIdentifiers := map[string]struct{}{}
	sarifResults := make([]sarifResult, 0, len(auditResults.Findings))

	for _, finding := range auditResults.Findings {
		if _, alreadySeen := seenRuleIdentifiers[finding.RuleID]; !alreadySeen {
			seenRuleIdentifiers[finding.RuleID] = struct{}{}
			driverRules = append(driverRules, sarifRule{
				ID:                   finding.RuleID,
				Name:                 finding.RuleID,
				ShortDescription:     sarifMessage{Text: finding.Message},
				DefaultConfiguration: sarifConfiguration{Level: severityToLevel(finding.Severity)},
			})
		}
		sarifResults = append(sarifResults, findingToResult(finding))
	}

	document := sarifDocument{
		Schema:  sarifSchemaURIConstant,
		Version: sarifVersionConstant,
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:           sarifToolNameConstant,
				Version:        sarifToolVersionConstant,
				InformationURI: sarifInformationURI,
				Rules:          driverRules,
			}},
			Results: sarifResults,
		}},
	}
	return json.MarshalIndent(document, "", "  ")
}

func severityToLevel(severity rules.Severity) string {
	switch severity {
	case rules.SeverityCritical:
		return sarifLevelErrorConstant
	case rules.SeverityWarning:
		return sarifLevelWarningConstant
	default:
		return sarifLevelNoteConstant
	}
}

func findingToResult(finding rules.Finding) sarifResult {
	artifactURI := sarifUnknownArtifactURI
	var region *sarifRegion
	if finding.Location != nil {
		artifactURI = finding.Location.FilePath
		if finding.Location.Line > 0 {
			region = &sarifRegion{StartLine: finding.Location.Line}
		}
	}
	return sarifResult{
		RuleID:  finding.RuleID,
		Level:   severityToLevel(finding.Severity),
		Message: sarifMessage{Text: finding.Message},
		Locations: []sarifLocation{{
			PhysicalLocation: sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{URI: artifactURI},
				Region:           region,
			},
		}},
	}
}
