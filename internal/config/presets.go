package config

import (
	"fmt"
	"strings"
)

// Preset names a published audit profile.
type Preset string

// Published presets.
const (
	PresetOpenSource Preset = "opensource"
	PresetEnterprise Preset = "enterprise"
	PresetStrict     Preset = "strict"
)

const unknownPresetErrorTemplateConstant = "unknown preset %q"

var presetAliasValues = map[string]Preset{
	"opensource":  PresetOpenSource,
	"oss":         PresetOpenSource,
	"open-source": PresetOpenSource,
	"enterprise":  PresetEnterprise,
	"ent":         PresetEnterprise,
	"internal":    PresetEnterprise,
	"strict":      PresetStrict,
	"secure":      PresetStrict,
	"compliance":  PresetStrict,
}

// ParsePreset resolves a preset name, accepting published aliases.
func ParsePreset(presetName string) (Preset, error) {
	normalizedName := strings.ToLower(strings.TrimSpace(presetName))
	resolvedPreset, presetKnown := presetAliasValues[normalizedName]
	if !presetKnown {
		return "", fmt.Errorf(unknownPresetErrorTemplateConstant, presetName)
	}
	return resolvedPreset, nil
}

// Description returns the human summary of the preset.
func (preset Preset) Description() string {
	switch preset {
	case PresetOpenSource:
		return "Checks suited to public open source repositories"
	case PresetEnterprise:
		return "Checks suited to internal enterprise repositories"
	case PresetStrict:
		return "Maximum security and compliance checks"
	default:
		return ""
	}
}

// EnabledRules lists the rule slugs the preset turns on by default.
func (preset Preset) EnabledRules() []string {
	switch preset {
	case PresetOpenSource:
		return []string{
			"secrets/hardcoded", "secrets/files", "secrets/env",
			"docs/readme", "docs/license", "docs/contributing",
			"docs/code-of-conduct", "docs/security", "docs/changelog",
			"files/sensitive", "files/large", "files/gitignore",
			"security/dependencies",
			"workflows/secrets", "workflows/permissions", "workflows/linters-in-ci",
			"docker/dockerfile-presence", "docker/dockerignore",
			"docker/from-pinning", "docker/user",
			"github/branch-protection", "github/settings",
		}
	case PresetEnterprise:
		return []string{
			"secrets/hardcoded", "secrets/files", "secrets/env",
			"docs/readme", "docs/security",
			"files/sensitive", "files/large", "files/gitignore",
			"security/dependencies", "security/codeowners", "security/signed-commits",
			"workflows/secrets", "workflows/permissions", "workflows/timeout",
			"workflows/pull-request-target",
			"docker/dockerfile-presence", "docker/dockerignore",
			"docker/from-pinning", "docker/user", "docker/secrets-in-env",
			"docker/healthcheck",
			"quality/coverage",
			"github/branch-protection", "github/settings",
		}
	case PresetStrict:
		return []string{
			"secrets/hardcoded", "secrets/files", "secrets/env", "secrets/history",
			"docs/readme", "docs/license", "docs/contributing",
			"docs/code-of-conduct", "docs/security", "docs/changelog",
			"docs/changelog-format", "docs/changelog-unreleased",
			"files/sensitive", "files/large", "files/gitignore", "files/editorconfig",
			"security/dependencies", "security/codeowners", "security/signed-commits",
			"workflows/secrets", "workflows/permissions", "workflows/pinned-actions",
			"workflows/timeout", "workflows/concurrency", "workflows/reusable-workflows",
			"workflows/artifacts-retention", "workflows/pull-request-target",
			"workflows/linters-in-ci",
			"docker/dockerfile-presence", "docker/dockerignore",
			"docker/from-pinning", "docker/user", "docker/healthcheck",
			"docker/multistage", "docker/secrets-in-env", "docker/copy-all",
			"quality/tests", "quality/linting", "quality/coverage",
			"quality/api-docs", "quality/complexity", "quality/dead-code",
			"quality/naming-conventions",
			"github/branch-protection", "github/settings",
		}
	default:
		return nil
	}
}

// CriticalRules lists the rule slugs the preset escalates to critical.
func (preset Preset) CriticalRules() []string {
	switch preset {
	case PresetOpenSource:
		return []string{"secrets/hardcoded", "secrets/files", "docs/license"}
	case PresetEnterprise:
		return []string{"secrets/hardcoded", "secrets/files", "security/codeowners"}
	case PresetStrict:
		return []string{
			"secrets/hardcoded", "secrets/files", "secrets/history",
			"docs/license", "security/codeowners", "security/signed-commits",
			"docker/from-pinning",
		}
	default:
		return nil
	}
}

// ActivePreset resolves the configured preset, defaulting to opensource for
// an empty value.
func (configuration *Config) ActivePreset() (Preset, error) {
	if strings.TrimSpace(configuration.Preset) == "" {
		return PresetOpenSource, nil
	}
	return ParsePreset(configuration.Preset)
}
