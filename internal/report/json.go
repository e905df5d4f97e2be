package report

import (
	"encoding/json"

	"github.com/delfour-co/repolens/internal/rules"
)

// JSONRenderer emits the audit results as indented JSON.
type JSONRenderer struct{}

// Render marshals the results document.
func (renderer *JSONRenderer) Render(auditResults *rules.AuditResults) ([]byte, error) {
	return json.MarshalIndent(auditResults, "", "  ")
}
