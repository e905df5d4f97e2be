package categories

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/delfour-co/repolens/internal/config"
	"github.com/delfour-co/repolens/internal/rules"
	"github.com/delfour-co/repolens/internal/scanner"
)

const (
	licenseComplianceRuleSlug = "licenses/compliance"

	missingProjectLicenseRuleID = "LIC001"
	licensePolicyRuleID         = "LIC002"
	unknownLicenseRuleID        = "LIC003"
	undeclaredLicenseRuleID     = "LIC004"
)

// DependencyLicense pairs a dependency with its declared license, when one
// could be resolved from the manifests.
type DependencyLicense struct {
	Name       string
	License    string
	SourceFile string
}

// LicensesCategory checks dependency licenses against the configured policy.
type LicensesCategory struct{}

// NewLicensesCategory constructs the licenses category.
func NewLicensesCategory() *LicensesCategory {
	return &LicensesCategory{}
}

// Name identifies the category.
func (category *LicensesCategory) Name() string {
	return rules.CategoryLicenses
}

// Run evaluates the project license and every collected dependency license
// against the allow, deny, and compatibility policies.
func (category *LicensesCategory) Run(executionContext context.Context, repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error) {
	if !configuration.IsRuleEnabled(licenseComplianceRuleSlug) {
		return nil, nil
	}
	if !configuration.LicenseCompliance.Enabled {
		return nil, nil
	}

	findings := []rules.Finding{}

	projectLicense := detectProjectLicense(repositoryScanner)
	if projectLicense == "" {
		findings = append(findings, rules.NewFinding(missingProjectLicenseRuleID, rules.CategoryLicenses, rules.SeverityWarning,
			"Project license could not be determined").
			WithDescription("No LICENSE file or manifest license declaration was found.").
			WithRemediation("Declare the project license in a LICENSE file or in the project manifest."))
	}

	deniedLicenses := map[string]struct{}{}
	for _, deniedLicense := range configuration.LicenseCompliance.DeniedLicenses {
		deniedLicenses[normalizeLicense(deniedLicense)] = struct{}{}
	}
	allowedLicenses := map[string]struct{}{}
	for _, allowedLicense := range configuration.LicenseCompliance.AllowedLicenses {
		allowedLicenses[normalizeLicense(allowedLicense)] = struct{}{}
	}

	for _, dependencyLicense := range collectDependencyLicenses(repositoryScanner) {
		if dependencyLicense.License == "" {
			findings = append(findings, rules.NewFinding(undeclaredLicenseRuleID, rules.CategoryLicenses, rules.SeverityWarning,
				fmt.Sprintf("Dependency %s has no declared license", dependencyLicense.Name)).
				WithLocation(dependencyLicense.SourceFile, 0))
			continue
		}

		normalizedLicense := normalizeLicense(dependencyLicense.License)
		if !isKnownLicense(normalizedLicense) {
			findings = append(findings, rules.NewFinding(unknownLicenseRuleID, rules.CategoryLicenses, rules.SeverityInfo,
				fmt.Sprintf("Dependency %s uses unrecognized license %q", dependencyLicense.Name, dependencyLicense.License)).
				WithLocation(dependencyLicense.SourceFile, 0))
		}

		if _, denied := deniedLicenses[normalizedLicense]; denied {
			findings = append(findings, rules.NewFinding(licensePolicyRuleID, rules.CategoryLicenses, rules.SeverityCritical,
				fmt.Sprintf("Dependency %s uses denied license %s", dependencyLicense.Name, normalizedLicense)).
				WithLocation(dependencyLicense.SourceFile, 0).
				WithRemediation("Replace the dependency or remove the license from the denied list."))
			continue
		}

		if len(allowedLicenses) > 0 {
			if _, allowed := allowedLicenses[normalizedLicense]; !allowed {
				findings = append(findings, rules.NewFinding(licensePolicyRuleID, rules.CategoryLicenses, rules.SeverityWarning,
					fmt.Sprintf("Dependency %s license %s is not on the allowed list", dependencyLicense.Name, normalizedLicense)).
					WithLocation(dependencyLicense.SourceFile, 0))
			}
		}

		if projectLicense != "" && !isCompatibleLicense(normalizedLicense, projectLicense) {
			findings = append(findings, rules.NewFinding(licensePolicyRuleID, rules.CategoryLicenses, rules.SeverityCritical,
				fmt.Sprintf("Dependency %s license %s is incompatible with project license %s", dependencyLicense.Name, normalizedLicense, projectLicense)).
				WithLocation(dependencyLicense.SourceFile, 0))
		}
	}

	return findings, nil
}

var projectLicenseFileNames = []string{"LICENSE", "LICENSE.md", "LICENSE.txt", "LICENCE", "LICENCE.md"}

func detectProjectLicense(repositoryScanner *scanner.Scanner) string {
	for _, licenseFileName := range projectLicenseFileNames {
		if !repositoryScanner.FileExists(licenseFileName) {
			continue
		}
		licenseContent, readError := repositoryScanner.ReadFile(licenseFileName)
		if readError != nil {
			continue
		}
		if detectedLicense := detectLicenseFromContent(string(licenseContent)); detectedLicense != "" {
			return detectedLicense
		}
	}

	if repositoryScanner.FileExists("Cargo.toml") {
		if manifestContent, readError := repositoryScanner.ReadFile("Cargo.toml"); readError == nil {
			var cargoManifest struct {
				Package struct {
					License string `toml:"license"`
				} `toml:"package"`
			}
			if toml.Unmarshal(manifestContent, &cargoManifest) == nil && cargoManifest.Package.License != "" {
				return normalizeLicense(cargoManifest.Package.License)
			}
		}
	}

	if repositoryScanner.FileExists("package.json") {
		if manifestContent, readError := repositoryScanner.ReadFile("package.json"); readError == nil {
			var nodeManifest struct {
				License string `json:"license"`
			}
			if json.Unmarshal(manifestContent, &nodeManifest) == nil && nodeManifest.License != "" {
				return normalizeLicense(nodeManifest.License)
			}
		}
	}

	if repositoryScanner.FileExists("setup.cfg") {
		if manifestContent, readError := repositoryScanner.ReadFile("setup.cfg"); readError == nil {
			for _, configurationLine := range strings.Split(string(manifestContent), "\n") {
				trimmedLine := strings.TrimSpace(configurationLine)
				if licenseValue, found := strings.CutPrefix(trimmedLine, "license"); found {
					licenseValue = strings.TrimSpace(licenseValue)
					if licenseValue, found = strings.CutPrefix(licenseValue, "="); found {
						if trimmedValue := strings.TrimSpace(licenseValue); trimmedValue != "" {
							return normalizeLicense(trimmedValue)
						}
					}
				}
			}
		}
	}

	if repositoryScanner.FileExists("pyproject.toml") {
		if manifestContent, readError := repositoryScanner.ReadFile("pyproject.toml"); readError == nil {
			if pythonLicense := detectPyprojectLicense(manifestContent); pythonLicense != "" {
				return pythonLicense
			}
		}
	}

	return ""
}

func detectPyprojectLicense(manifestContent []byte) string {
	var projectDocument struct {
		Project struct {
			License any `toml:"license"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				License string `toml:"license"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if toml.Unmarshal(manifestContent, &projectDocument) != nil {
		return ""
	}
	switch licenseValue := projectDocument.Project.License.(type) {
	case string:
		if licenseValue != "" {
			return normalizeLicense(licenseValue)
		}
	case map[string]any:
		if licenseText, isString := licenseValue["text"].(string); isString && licenseText != "" {
			return normalizeLicense(licenseText)
		}
	}
	if projectDocument.Tool.Poetry.License != "" {
		return normalizeLicense(projectDocument.Tool.Poetry.License)
	}
	return ""
}

func detectLicenseFromContent(licenseText string) string {
	lowerText := strings.ToLower(licenseText)
	switch {
	case strings.Contains(lowerText, "permission is hereby granted, free of charge"):
		return "MIT"
	case strings.Contains(lowerText, "apache license") && strings.Contains(lowerText, "version 2.0"):
		return "Apache-2.0"
	case strings.Contains(lowerText, "gnu affero general public license"):
		return "AGPL-3.0"
	case strings.Contains(lowerText, "gnu lesser general public license") && strings.Contains(lowerText, "version 3"):
		return "LGPL-3.0"
	case strings.Contains(lowerText, "gnu lesser general public license"):
		return "LGPL-2.1"
	case strings.Contains(lowerText, "gnu general public license") && strings.Contains(lowerText, "version 3"):
		return "GPL-3.0"
	case strings.Contains(lowerText, "gnu general public license"):
		return "GPL-2.0"
	case strings.Contains(lowerText, "neither the name"):
		return "BSD-3-Clause"
	case strings.Contains(lowerText, "redistribution and use in source and binary forms"):
		return "BSD-2-Clause"
	case strings.Contains(lowerText, "permission to use, copy, modify, and/or distribute"):
		return "ISC"
	case strings.Contains(lowerText, "mozilla public license") && strings.Contains(lowerText, "2.0"):
		return "MPL-2.0"
	case strings.Contains(lowerText, "this is free and unencumbered software"):
		return "Unlicense"
	default:
		return ""
	}
}

func collectDependencyLicenses(repositoryScanner *scanner.Scanner) []DependencyLicense {
	dependencyLicenses := []DependencyLicense{}

	if repositoryScanner.FileExists("Cargo.toml") {
		if manifestContent, readError := repositoryScanner.ReadFile("Cargo.toml"); readError == nil {
			var cargoManifest struct {
				Dependencies      map[string]any `toml:"dependencies"`
				DevDependencies   map[string]any `toml:"dev-dependencies"`
				BuildDependencies map[string]any `toml:"build-dependencies"`
			}
			if toml.Unmarshal(manifestContent, &cargoManifest) == nil {
				for _, dependencySection := range []map[string]any{cargoManifest.Dependencies, cargoManifest.DevDependencies, cargoManifest.BuildDependencies} {
					for _, dependencyName := range sortedDependencyNames(dependencySection) {
						dependencyLicenses = append(dependencyLicenses, DependencyLicense{Name: dependencyName, SourceFile: "Cargo.toml"})
					}
				}
			}
		}
	}

	if repositoryScanner.FileExists("package.json") {
		if manifestContent, readError := repositoryScanner.ReadFile("package.json"); readError == nil {
			var nodeManifest struct {
				Dependencies    map[string]string `json:"dependencies"`
				DevDependencies map[string]string `json:"devDependencies"`
			}
			if json.Unmarshal(manifestContent, &nodeManifest) == nil {
				for _, dependencySection := range []map[string]string{nodeManifest.Dependencies, nodeManifest.DevDependencies} {
					for _, dependencyName := range sortedDependencyNames(dependencySection) {
						dependencyLicenses = append(dependencyLicenses, DependencyLicense{
							Name:       dependencyName,
							License:    resolveInstalledNodeLicense(repositoryScanner, dependencyName),
							SourceFile: "package.json",
						})
					}
				}
			}
		}
	}

	for _, requirementsFileName := range requirementsFileNames {
		if !repositoryScanner.FileExists(requirementsFileName) {
			continue
		}
		requirementsContent, readError := repositoryScanner.ReadFile(requirementsFileName)
		if readError != nil {
			continue
		}
		for _, requirementLine := range strings.Split(string(requirementsContent), "\n") {
			trimmedLine := strings.TrimSpace(requirementLine)
			if trimmedLine == "" || strings.HasPrefix(trimmedLine, "#") || strings.HasPrefix(trimmedLine, "-") {
				continue
			}
			if packageName, _, lineParsed := parsePipRequirement(trimmedLine); lineParsed {
				dependencyLicenses = append(dependencyLicenses, DependencyLicense{Name: packageName, SourceFile: requirementsFileName})
			}
		}
	}

	if repositoryScanner.FileExists("go.mod") {
		if moduleContent, readError := repositoryScanner.ReadFile("go.mod"); readError == nil {
			for _, moduleName := range parseGoModuleRequirements(string(moduleContent)) {
				dependencyLicenses = append(dependencyLicenses, DependencyLicense{Name: moduleName, SourceFile: "go.mod"})
			}
		}
	}

	return dependencyLicenses
}

// sortedDependencyNames orders manifest dependency names so findings derived
// from them keep a stable order across runs.
func sortedDependencyNames[ValueType any](dependencySection map[string]ValueType) []string {
	dependencyNames := make([]string, 0, len(dependencySection))
	for dependencyName := range dependencySection {
		dependencyNames = append(dependencyNames, dependencyName)
	}
	sort.Strings(dependencyNames)
	return dependencyNames
}

func resolveInstalledNodeLicense(repositoryScanner *scanner.Scanner, packageName string) string {
	installedManifestPath := "node_modules/" + packageName + "/package.json"
	manifestContent, readError := repositoryScanner.ReadFile(installedManifestPath)
	if readError != nil {
		return ""
	}
	var installedManifest struct {
		License string `json:"license"`
	}
	if json.Unmarshal(manifestContent, &installedManifest) != nil {
		return ""
	}
	return installedManifest.License
}

func parseGoModuleRequirements(moduleContent string) []string {
	moduleNames := []string{}
	insideRequireBlock := false
	for _, moduleLine := range strings.Split(moduleContent, "\n") {
		trimmedLine := strings.TrimSpace(moduleLine)
		switch {
		case trimmedLine == "require (":
			insideRequireBlock = true
		case insideRequireBlock && trimmedLine == ")":
			insideRequireBlock = false
		case insideRequireBlock:
			lineFields := strings.Fields(trimmedLine)
			if len(lineFields) >= 2 && !strings.HasPrefix(lineFields[0], "//") {
				moduleNames = append(moduleNames, lineFields[0])
			}
		case strings.HasPrefix(trimmedLine, "require "):
			lineFields := strings.Fields(trimmedLine)
			if len(lineFields) >= 3 {
				moduleNames = append(moduleNames, lineFields[1])
			}
		}
	}
	return moduleNames
}

var licenseAliasValues = map[string]string{
	"mit":                "MIT",
	"mit license":        "MIT",
	"apache 2.0":         "Apache-2.0",
	"apache-2.0":         "Apache-2.0",
	"apache2":            "Apache-2.0",
	"apache license 2.0": "Apache-2.0",
	"gpl-2.0":            "GPL-2.0",
	"gpl-2.0-only":       "GPL-2.0",
	"gplv2":              "GPL-2.0",
	"gpl-3.0":            "GPL-3.0",
	"gpl-3.0-only":       "GPL-3.0",
	"gpl-3.0-or-later":   "GPL-3.0",
	"gplv3":              "GPL-3.0",
	"lgpl-2.1":           "LGPL-2.1",
	"lgpl-2.1-only":      "LGPL-2.1",
	"lgpl-3.0":           "LGPL-3.0",
	"lgpl-3.0-only":      "LGPL-3.0",
	"agpl-3.0":           "AGPL-3.0",
	"agpl-3.0-only":      "AGPL-3.0",
	"bsd":                "BSD-3-Clause",
	"bsd-2-clause":       "BSD-2-Clause",
	"bsd-3-clause":       "BSD-3-Clause",
	"isc":                "ISC",
	"mpl-2.0":            "MPL-2.0",
	"mozilla public license 2.0": "MPL-2.0",
	"unlicense":     "Unlicense",
	"public domain": "Unlicense",
	"0bsd":          "0BSD",
	"cc0-1.0":       "CC0-1.0",
	"cc0":           "CC0-1.0",
	"zlib":          "Zlib",
	"artistic-2.0":  "Artistic-2.0",
	"bsl-1.0":       "BSL-1.0",
}

func normalizeLicense(licenseIdentifier string) string {
	trimmedIdentifier := strings.TrimSpace(licenseIdentifier)
	if canonicalIdentifier, aliasFound := licenseAliasValues[strings.ToLower(trimmedIdentifier)]; aliasFound {
		return canonicalIdentifier
	}
	return trimmedIdentifier
}

var knownLicenseIdentifiers = map[string]struct{}{
	"MIT": {}, "Apache-2.0": {}, "GPL-2.0": {}, "GPL-3.0": {},
	"LGPL-2.1": {}, "LGPL-3.0": {}, "AGPL-3.0": {},
	"BSD-2-Clause": {}, "BSD-3-Clause": {}, "ISC": {}, "MPL-2.0": {},
	"Unlicense": {}, "0BSD": {}, "CC0-1.0": {}, "Zlib": {},
	"Artistic-2.0": {}, "BSL-1.0": {},
}

func isKnownLicense(licenseIdentifier string) bool {
	_, known := knownLicenseIdentifiers[licenseIdentifier]
	return known
}

var permissiveLicenseIdentifiers = map[string]struct{}{
	"MIT": {}, "BSD-2-Clause": {}, "BSD-3-Clause": {}, "ISC": {},
	"Unlicense": {}, "0BSD": {}, "CC0-1.0": {}, "Zlib": {}, "BSL-1.0": {},
}

func isCompatibleLicense(dependencyLicense string, projectLicense string) bool {
	if dependencyLicense == projectLicense {
		return true
	}
	if _, permissive := permissiveLicenseIdentifiers[dependencyLicense]; permissive {
		return true
	}
	switch dependencyLicense {
	case "Apache-2.0":
		return projectLicense != "GPL-2.0"
	case "MPL-2.0":
		switch projectLicense {
		case "GPL-2.0", "MIT", "BSD-2-Clause", "BSD-3-Clause", "ISC":
			return false
		default:
			return true
		}
	case "Artistic-2.0":
		return true
	case "LGPL-2.1", "LGPL-3.0":
		switch projectLicense {
		case "GPL-2.0", "GPL-3.0", "LGPL-2.1", "LGPL-3.0", "AGPL-3.0":
			return true
		default:
			return false
		}
	case "GPL-2.0":
		return projectLicense == "GPL-2.0" || projectLicense == "GPL-3.0"
	case "GPL-3.0":
		return projectLicense == "GPL-3.0" || projectLicense == "AGPL-3.0"
	case "AGPL-3.0":
		return projectLicense == "AGPL-3.0"
	default:
		return false
	}
}
