package rules

// Location points a finding at a file, optionally at a specific line.
// A zero Line means the finding applies to the whole file.
type Location struct {
	FilePath string `json:"file_path"`
	Line     int    `json:"line,omitempty"`
}

// Finding records a single policy violation discovered during an audit.
type Finding struct {
	RuleID      string    `json:"rule_id"`
	Category    string    `json:"category"`
	Severity    Severity  `json:"severity"`
	Message     string    `json:"message"`
	Location    *Location `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	Remediation string    `json:"remediation,omitempty"`
}

// NewFinding constructs a finding with the required fields populated.
func NewFinding(ruleIdentifier string, categoryName string, severity Severity, message string) Finding {
	return Finding{
		RuleID:   ruleIdentifier,
		Category: categoryName,
		Severity: severity,
		Message:  message,
	}
}

// WithLocation attaches a file location to the finding.
func (finding Finding) WithLocation(filePath string, lineNumber int) Finding {
	finding.Location = &Location{FilePath: filePath, Line: lineNumber}
	return finding
}

// WithDescription attaches an explanatory description to the finding.
func (finding Finding) WithDescription(description string) Finding {
	finding.Description = description
	return finding
}

// WithRemediation attaches remediation guidance to the finding.
func (finding Finding) WithRemediation(remediation string) Finding {
	finding.Remediation = remediation
	return finding
}

// FilePath returns the located file path or an empty string when the finding
// has no location.
func (finding Finding) FilePath() string {
	if finding.Location == nil {
		return ""
	}
	return finding.Location.FilePath
}
