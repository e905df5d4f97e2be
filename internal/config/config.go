package config

import "strings"

// Cache configuration defaults.
const (
	DefaultCacheMaxAgeHours      = 24
	DefaultCacheDirectory        = ".repolens/cache"
	DefaultCustomRuleTimeoutSecs = 30
	defaultCustomRuleSeverity    = "warning"
)

// RuleConfig toggles a single rule and optionally overrides its severity.
type RuleConfig struct {
	Enabled  *bool  `mapstructure:"enabled" yaml:"enabled,omitempty"`
	Severity string `mapstructure:"severity" yaml:"severity,omitempty"`
}

// SecretsConfig lists files and paths excluded from secret scanning.
type SecretsConfig struct {
	IgnorePatterns []string `mapstructure:"ignore_patterns" yaml:"ignore_patterns,omitempty"`
	IgnoreFiles    []string `mapstructure:"ignore_files" yaml:"ignore_files,omitempty"`
}

// URLConfig lists internal URL patterns permitted in enterprise mode.
type URLConfig struct {
	AllowedInternal []string `mapstructure:"allowed_internal" yaml:"allowed_internal,omitempty"`
}

// CustomRule defines a user-supplied rule driven by either a regular
// expression pattern or an external command. The command string is handed to
// the shell verbatim; configuration files are a trusted input.
type CustomRule struct {
	Pattern        string   `mapstructure:"pattern" yaml:"pattern,omitempty"`
	Command        string   `mapstructure:"command" yaml:"command,omitempty"`
	Severity       string   `mapstructure:"severity" yaml:"severity,omitempty"`
	Files          []string `mapstructure:"files" yaml:"files,omitempty"`
	Message        string   `mapstructure:"message" yaml:"message,omitempty"`
	Description    string   `mapstructure:"description" yaml:"description,omitempty"`
	Remediation    string   `mapstructure:"remediation" yaml:"remediation,omitempty"`
	Invert         bool     `mapstructure:"invert" yaml:"invert,omitempty"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds" yaml:"timeout_seconds,omitempty"`
}

// EffectiveSeverity returns the configured severity or the warning default.
func (rule CustomRule) EffectiveSeverity() string {
	if strings.TrimSpace(rule.Severity) == "" {
		return defaultCustomRuleSeverity
	}
	return rule.Severity
}

// EffectiveTimeoutSeconds returns the configured command timeout or the
// default when unset.
func (rule CustomRule) EffectiveTimeoutSeconds() int {
	if rule.TimeoutSeconds <= 0 {
		return DefaultCustomRuleTimeoutSecs
	}
	return rule.TimeoutSeconds
}

// LicenseComplianceConfig controls dependency license policy enforcement.
type LicenseComplianceConfig struct {
	Enabled         bool     `mapstructure:"enabled" yaml:"enabled,omitempty"`
	AllowedLicenses []string `mapstructure:"allowed_licenses" yaml:"allowed_licenses,omitempty"`
	DeniedLicenses  []string `mapstructure:"denied_licenses" yaml:"denied_licenses,omitempty"`
}

// CacheConfig controls the on-disk audit result cache.
type CacheConfig struct {
	Enabled     *bool  `mapstructure:"enabled" yaml:"enabled,omitempty"`
	MaxAgeHours int    `mapstructure:"max_age_hours" yaml:"max_age_hours,omitempty"`
	Directory   string `mapstructure:"directory" yaml:"directory,omitempty"`
}

// IsEnabled reports whether caching is on; caching defaults to enabled.
func (cacheConfiguration CacheConfig) IsEnabled() bool {
	if cacheConfiguration.Enabled == nil {
		return true
	}
	return *cacheConfiguration.Enabled
}

// EffectiveMaxAgeHours returns the configured entry lifetime or the default.
func (cacheConfiguration CacheConfig) EffectiveMaxAgeHours() int {
	if cacheConfiguration.MaxAgeHours <= 0 {
		return DefaultCacheMaxAgeHours
	}
	return cacheConfiguration.MaxAgeHours
}

// EffectiveDirectory returns the configured cache directory or the default.
func (cacheConfiguration CacheConfig) EffectiveDirectory() string {
	if strings.TrimSpace(cacheConfiguration.Directory) == "" {
		return DefaultCacheDirectory
	}
	return cacheConfiguration.Directory
}

// Config is the complete audit configuration.
type Config struct {
	Preset            string                  `mapstructure:"preset" yaml:"preset,omitempty"`
	Rules             map[string]RuleConfig   `mapstructure:"rules" yaml:"rules,omitempty"`
	Secrets           SecretsConfig           `mapstructure:"secrets" yaml:"secrets,omitempty"`
	URLs              URLConfig               `mapstructure:"urls" yaml:"urls,omitempty"`
	CustomRules       map[string]CustomRule   `mapstructure:"custom_rules" yaml:"custom_rules,omitempty"`
	LicenseCompliance LicenseComplianceConfig `mapstructure:"license_compliance" yaml:"license_compliance,omitempty"`
	Cache             CacheConfig             `mapstructure:"cache" yaml:"cache,omitempty"`
}

// DefaultConfig returns a configuration with the opensource preset and the
// cache defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Preset:      string(PresetOpenSource),
		Rules:       map[string]RuleConfig{},
		CustomRules: map[string]CustomRule{},
	}
}

// IsRuleEnabled reports whether the rule is active. Rules without an explicit
// configuration entry are enabled.
func (configuration *Config) IsRuleEnabled(ruleSlug string) bool {
	ruleConfiguration, ruleConfigured := configuration.Rules[ruleSlug]
	if !ruleConfigured || ruleConfiguration.Enabled == nil {
		return true
	}
	return *ruleConfiguration.Enabled
}

// RuleSeverityOverride returns the configured severity override for a rule,
// or an empty string when none is set.
func (configuration *Config) RuleSeverityOverride(ruleSlug string) string {
	return configuration.Rules[ruleSlug].Severity
}

// ShouldIgnoreFile reports whether secret scanning skips the file entirely.
func (configuration *Config) ShouldIgnoreFile(filePath string) bool {
	return anyPatternMatches(configuration.Secrets.IgnoreFiles, filePath)
}

// ShouldIgnorePattern reports whether secret findings in the path are muted.
func (configuration *Config) ShouldIgnorePattern(filePath string) bool {
	return anyPatternMatches(configuration.Secrets.IgnorePatterns, filePath)
}

// IsURLAllowed reports whether the URL matches an allowed internal pattern.
func (configuration *Config) IsURLAllowed(urlValue string) bool {
	if len(configuration.URLs.AllowedInternal) == 0 {
		return false
	}
	return anyPatternMatches(configuration.URLs.AllowedInternal, urlValue)
}

// Sanitize trims whitespace from string fields that commonly arrive padded
// from configuration files and flag values.
func (configuration *Config) Sanitize() {
	configuration.Preset = strings.TrimSpace(configuration.Preset)
	configuration.Cache.Directory = strings.TrimSpace(configuration.Cache.Directory)
	for ruleIdentifier, customRule := range configuration.CustomRules {
		customRule.Pattern = strings.TrimSpace(customRule.Pattern)
		customRule.Command = strings.TrimSpace(customRule.Command)
		customRule.Severity = strings.TrimSpace(customRule.Severity)
		configuration.CustomRules[ruleIdentifier] = customRule
	}
}
