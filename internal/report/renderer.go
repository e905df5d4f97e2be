package report

import (
	"fmt"
	"strings"

	"github.com/delfour-co/repolens/internal/rules"
)

// Format selects an output renderer.
type Format string

// Supported output formats.
const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatSARIF Format = "sarif"
)

const unknownFormatTemplateConstant = "unknown output format %q"

// Renderer turns audit results into an output document.
type Renderer interface {
	Render(auditResults *rules.AuditResults) ([]byte, error)
}

// ParseFormat resolves a format name, case insensitively.
func ParseFormat(formatName string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(formatName))) {
	case FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatSARIF:
		return FormatSARIF, nil
	default:
		return "", fmt.Errorf(unknownFormatTemplateConstant, formatName)
	}
}

// NewRenderer returns the renderer for the format.
func NewRenderer(outputFormat Format) (Renderer, error) {
	switch outputFormat {
	case FormatText:
		return &TextRenderer{}, nil
	case FormatJSON:
		return &JSONRenderer{}, nil
	case FormatSARIF:
		return &SARIFRenderer{}, nil
	default:
		return nil, fmt.Errorf(unknownFormatTemplateConstant, string(outputFormat))
	}
}
