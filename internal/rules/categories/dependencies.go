package categories

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/delfour-co/repolens/internal/config"
	"github.com/delfour-co/repolens/internal/rules"
	"github.com/delfour-co/repolens/internal/scanner"
)

const (
	dependencyInventoryRuleSlug = "dependencies/vulnerabilities"

	unparseableManifestRuleID = "DEP000"
	manifestSummaryRuleID     = "DEP001"
)

// Ecosystem names the package registry a dependency belongs to.
type Ecosystem string

// Supported ecosystems.
const (
	EcosystemCargo     Ecosystem = "crates.io"
	EcosystemNpm       Ecosystem = "npm"
	EcosystemPyPI      Ecosystem = "PyPI"
	EcosystemGo        Ecosystem = "Go"
	EcosystemMaven     Ecosystem = "Maven"
	EcosystemPackagist Ecosystem = "Packagist"
)

// Dependency is one resolved package recorded from a manifest or lock file.
type Dependency struct {
	Name       string
	Version    string
	Ecosystem  Ecosystem
	SourceFile string
}

// DependenciesCategory inventories declared dependencies across ecosystems.
type DependenciesCategory struct{}

// NewDependenciesCategory constructs the dependencies category.
func NewDependenciesCategory() *DependenciesCategory {
	return &DependenciesCategory{}
}

// Name identifies the category.
func (category *DependenciesCategory) Name() string {
	return rules.CategoryDependencies
}

// Run parses every recognized manifest and reports the inventory. Manifests
// that exist but cannot be parsed produce a warning finding instead of
// failing the category.
func (category *DependenciesCategory) Run(executionContext context.Context, repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error) {
	if !configuration.IsRuleEnabled(dependencyInventoryRuleSlug) {
		return nil, nil
	}

	dependencies, parseFailures := ParseDependencies(repositoryScanner)

	findings := []rules.Finding{}
	for _, parseFailure := range parseFailures {
		findings = append(findings, rules.NewFinding(unparseableManifestRuleID, rules.CategoryDependencies, rules.SeverityWarning, "Could not parse dependency manifest").
			WithLocation(parseFailure.SourceFile, 0).
			WithDescription(parseFailure.Reason))
	}

	for _, manifestSummary := range summarizeByManifest(dependencies) {
		findings = append(findings, rules.NewFinding(manifestSummaryRuleID, rules.CategoryDependencies, rules.SeverityInfo,
			fmt.Sprintf("%d dependencies recorded from %s", manifestSummary.count, manifestSummary.sourceFile)).
			WithLocation(manifestSummary.sourceFile, 0))
	}

	return findings, nil
}

// ParseFailure records one manifest that could not be read or decoded.
type ParseFailure struct {
	SourceFile string
	Reason     string
}

// ParseDependencies records dependencies from every recognized manifest and
// lock file in the repository.
func ParseDependencies(repositoryScanner *scanner.Scanner) ([]Dependency, []ParseFailure) {
	dependencies := []Dependency{}
	parseFailures := []ParseFailure{}

	appendParsed := func(parsed []Dependency, parseError error, sourceFile string) {
		if parseError != nil {
			parseFailures = append(parseFailures, ParseFailure{SourceFile: sourceFile, Reason: parseError.Error()})
			return
		}
		dependencies = append(dependencies, parsed...)
	}

	if repositoryScanner.FileExists("Cargo.lock") {
		parsed, parseError := parseCargoLock(repositoryScanner)
		appendParsed(parsed, parseError, "Cargo.lock")
	}
	if repositoryScanner.FileExists("package-lock.json") {
		parsed, parseError := parsePackageLock(repositoryScanner)
		appendParsed(parsed, parseError, "package-lock.json")
	}
	parsed, parseError := parseRequirementsFiles(repositoryScanner)
	appendParsed(parsed, parseError, "requirements.txt")
	if repositoryScanner.FileExists("go.sum") {
		parsedGo, goError := parseGoSum(repositoryScanner)
		appendParsed(parsedGo, goError, "go.sum")
	}
	if repositoryScanner.FileExists("pom.xml") {
		parsedMaven, mavenError := parsePomManifest(repositoryScanner)
		appendParsed(parsedMaven, mavenError, "pom.xml")
	}
	parsedGradle, gradleError := parseGradleBuild(repositoryScanner)
	appendParsed(parsedGradle, gradleError, "build.gradle")
	if repositoryScanner.FileExists("composer.lock") {
		parsedComposer, composerError := parseComposerLock(repositoryScanner)
		appendParsed(parsedComposer, composerError, "composer.lock")
	} else if repositoryScanner.FileExists("composer.json") {
		parsedComposer, composerError := parseComposerManifest(repositoryScanner)
		appendParsed(parsedComposer, composerError, "composer.json")
	}

	return dependencies, parseFailures
}

type manifestSummary struct {
	sourceFile string
	count      int
}

func summarizeByManifest(dependencies []Dependency) []manifestSummary {
	countsBySource := map[string]int{}
	for _, dependency := range dependencies {
		countsBySource[dependency.SourceFile]++
	}
	summaries := []manifestSummary{}
	for sourceFile, dependencyCount := range countsBySource {
		summaries = append(summaries, manifestSummary{sourceFile: sourceFile, count: dependencyCount})
	}
	sort.Slice(summaries, func(firstIndex, secondIndex int) bool {
		return summaries[firstIndex].sourceFile < summaries[secondIndex].sourceFile
	})
	return summaries
}

type cargoLockDocument struct {
	Package []struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"package"`
}

func parseCargoLock(repositoryScanner *scanner.Scanner) ([]Dependency, error) {
	lockContent, readError := repositoryScanner.ReadFile("Cargo.lock")
	if readError != nil {
		return nil, readError
	}
	var lockDocument cargoLockDocument
	if unmarshalError := toml.Unmarshal(lockContent, &lockDocument); unmarshalError != nil {
		return nil, unmarshalError
	}
	dependencies := []Dependency{}
	for _, lockPackage := range lockDocument.Package {
		if lockPackage.Name == "" || lockPackage.Version == "" {
			continue
		}
		dependencies = append(dependencies, Dependency{
			Name:       lockPackage.Name,
			Version:    lockPackage.Version,
			Ecosystem:  EcosystemCargo,
			SourceFile: "Cargo.lock",
		})
	}
	return dependencies, nil
}

type packageLockDocument struct {
	Packages     map[string]packageLockEntry `json:"packages"`
	Dependencies map[string]packageLockEntry `json:"dependencies"`
}

type packageLockEntry struct {
	Version      string                      `json:"version"`
	Dependencies map[string]packageLockEntry `json:"dependencies"`
}

func parsePackageLock(repositoryScanner *scanner.Scanner) ([]Dependency, error) {
	lockContent, readError := repositoryScanner.ReadFile("package-lock.json")
	if readError != nil {
		return nil, readError
	}
	var lockDocument packageLockDocument
	if unmarshalError := json.Unmarshal(lockContent, &lockDocument); unmarshalError != nil {
		return nil, unmarshalError
	}

	dependencies := []Dependency{}
	if len(lockDocument.Packages) > 0 {
		for packagePath, lockEntry := range lockDocument.Packages {
			if packagePath == "" || lockEntry.Version == "" {
				continue
			}
			packageName := strings.TrimPrefix(packagePath, "node_modules/")
			if nestedIndex := strings.LastIndex(packageName, "/node_modules/"); nestedIndex >= 0 {
				packageName = packageName[nestedIndex+len("/node_modules/"):]
			}
			dependencies = append(dependencies, Dependency{
				Name:       packageName,
				Version:    lockEntry.Version,
				Ecosystem:  EcosystemNpm,
				SourceFile: "package-lock.json",
			})
		}
		return dependencies, nil
	}

	var collectLegacy func(entries map[string]packageLockEntry)
	collectLegacy = func(entries map[string]packageLockEntry) {
		for packageName, lockEntry := range entries {
			if lockEntry.Version != "" {
				dependencies = append(dependencies, Dependency{
					Name:       packageName,
					Version:    lockEntry.Version,
					Ecosystem:  EcosystemNpm,
					SourceFile: "package-lock.json",
				})
			}
			if len(lockEntry.Dependencies) > 0 {
				collectLegacy(lockEntry.Dependencies)
			}
		}
	}
	collectLegacy(lockDocument.Dependencies)
	return dependencies, nil
}

var requirementsFileNames = []string{
	"requirements.txt", "requirements-dev.txt", "requirements/base.txt", "requirements/production.txt",
}

var pipVersionSeparators = []string{"==", ">=", "<=", "~=", "!=", ">", "<"}

func parseRequirementsFiles(repositoryScanner *scanner.Scanner) ([]Dependency, error) {
	dependencies := []Dependency{}
	for _, requirementsFileName := range requirementsFileNames {
		if !repositoryScanner.FileExists(requirementsFileName) {
			continue
		}
		requirementsContent, readError := repositoryScanner.ReadFile(requirementsFileName)
		if readError != nil {
			return nil, readError
		}
		for _, requirementLine := range strings.Split(string(requirementsContent), "\n") {
			trimmedLine := strings.TrimSpace(requirementLine)
			if trimmedLine == "" || strings.HasPrefix(trimmedLine, "#") || strings.HasPrefix(trimmedLine, "-") {
				continue
			}
			packageName, packageVersion, lineParsed := parsePipRequirement(trimmedLine)
			if !lineParsed {
				continue
			}
			dependencies = append(dependencies, Dependency{
				Name:       packageName,
				Version:    packageVersion,
				Ecosystem:  EcosystemPyPI,
				SourceFile: requirementsFileName,
			})
		}
	}
	return dependencies, nil
}

func parsePipRequirement(requirementLine string) (string, string, bool) {
	baseLine := strings.TrimSpace(strings.SplitN(requirementLine, ";", 2)[0])
	baseLine = strings.TrimSpace(strings.SplitN(baseLine, "#", 2)[0])
	if openBracket := strings.Index(baseLine, "["); openBracket >= 0 {
		closeBracket := strings.Index(baseLine, "]")
		if closeBracket < 0 {
			return "", "", false
		}
		baseLine = baseLine[:openBracket] + baseLine[closeBracket+1:]
	}
	for _, versionSeparator := range pipVersionSeparators {
		separatorIndex := strings.Index(baseLine, versionSeparator)
		if separatorIndex < 0 {
			continue
		}
		packageName := strings.ToLower(strings.TrimSpace(baseLine[:separatorIndex]))
		packageVersion := strings.TrimSpace(strings.SplitN(baseLine[separatorIndex+len(versionSeparator):], ",", 2)[0])
		if packageName == "" || packageVersion == "" {
			return "", "", false
		}
		return packageName, packageVersion, true
	}
	return "", "", false
}

func parseGoSum(repositoryScanner *scanner.Scanner) ([]Dependency, error) {
	sumContent, readError := repositoryScanner.ReadFile("go.sum")
	if readError != nil {
		return nil, readError
	}
	dependencies := []Dependency{}
	seenModules := map[string]struct{}{}
	for _, sumLine := range strings.Split(string(sumContent), "\n") {
		lineFields := strings.Fields(sumLine)
		if len(lineFields) < 2 {
			continue
		}
		modulePath := lineFields[0]
		moduleVersion := strings.TrimSuffix(lineFields[1], "/go.mod")
		moduleKey := modulePath + "@" + moduleVersion
		if _, alreadySeen := seenModules[moduleKey]; alreadySeen {
			continue
		}
		seenModules[moduleKey] = struct{}{}
		normalizedVersion := strings.TrimPrefix(moduleVersion, "v")
		normalizedVersion = strings.SplitN(normalizedVersion, "-", 2)[0]
		dependencies = append(dependencies, Dependency{
			Name:       modulePath,
			Version:    normalizedVersion,
			Ecosystem:  EcosystemGo,
			SourceFile: "go.sum",
		})
	}
	return dependencies, nil
}

var (
	dependencyManagementExpression = regexp.MustCompile(`(?s)<dependencyManagement>.*?</dependencyManagement>`)
	dependenciesBlockExpression    = regexp.MustCompile(`(?s)<dependencies>(.*?)</dependencies>`)
	dependencyEntryExpression      = regexp.MustCompile(`(?s)<dependency>(.*?)</dependency>`)
	groupIdentifierExpression      = regexp.MustCompile(`<groupId>\s*([^<]+?)\s*</groupId>`)
	artifactIdentifierExpression   = regexp.MustCompile(`<artifactId>\s*([^<]+?)\s*</artifactId>`)
	artifactVersionExpression      = regexp.MustCompile(`<version>\s*([^<]+?)\s*</version>`)
	gradleDependencyExpression     = regexp.MustCompile(`(?:implementation|api|compile|testImplementation|runtimeOnly|compileOnly)\s*\(?\s*['"]([^'"]+)['"]`)
)

func parsePomManifest(repositoryScanner *scanner.Scanner) ([]Dependency, error) {
	manifestContent, readError := repositoryScanner.ReadFile("pom.xml")
	if readError != nil {
		return nil, readError
	}
	// Managed (non-direct) dependencies are intentionally excluded.
	contentText := dependencyManagementExpression.ReplaceAllString(string(manifestContent), "")

	dependencies := []Dependency{}
	for _, blockMatch := range dependenciesBlockExpression.FindAllStringSubmatch(contentText, -1) {
		for _, entryMatch := range dependencyEntryExpression.FindAllStringSubmatch(blockMatch[1], -1) {
			entryContent := entryMatch[1]
			groupMatch := groupIdentifierExpression.FindStringSubmatch(entryContent)
			artifactMatch := artifactIdentifierExpression.FindStringSubmatch(entryContent)
			versionMatch := artifactVersionExpression.FindStringSubmatch(entryContent)
			if groupMatch == nil || artifactMatch == nil || versionMatch == nil {
				continue
			}
			if strings.HasPrefix(versionMatch[1], "${") {
				continue
			}
			dependencies = append(dependencies, Dependency{
				Name:       groupMatch[1] + ":" + artifactMatch[1],
				Version:    versionMatch[1],
				Ecosystem:  EcosystemMaven,
				SourceFile: "pom.xml",
			})
		}
	}
	return dependencies, nil
}

func parseGradleBuild(repositoryScanner *scanner.Scanner) ([]Dependency, error) {
	gradleFileName := ""
	switch {
	case repositoryScanner.FileExists("build.gradle.kts"):
		gradleFileName = "build.gradle.kts"
	case repositoryScanner.FileExists("build.gradle"):
		gradleFileName = "build.gradle"
	default:
		return nil, nil
	}
	buildContent, readError := repositoryScanner.ReadFile(gradleFileName)
	if readError != nil {
		return nil, readError
	}
	dependencies := []Dependency{}
	for _, coordinateMatch := range gradleDependencyExpression.FindAllStringSubmatch(string(buildContent), -1) {
		coordinateParts := strings.Split(coordinateMatch[1], ":")
		if len(coordinateParts) < 3 {
			continue
		}
		dependencies = append(dependencies, Dependency{
			Name:       coordinateParts[0] + ":" + coordinateParts[1],
			Version:    coordinateParts[2],
			Ecosystem:  EcosystemMaven,
			SourceFile: gradleFileName,
		})
	}
	return dependencies, nil
}

type composerLockDocument struct {
	Packages    []composerLockPackage `json:"packages"`
	PackagesDev []composerLockPackage `json:"packages-dev"`
}

type composerLockPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func parseComposerLock(repositoryScanner *scanner.Scanner) ([]Dependency, error) {
	lockContent, readError := repositoryScanner.ReadFile("composer.lock")
	if readError != nil {
		return nil, readError
	}
	var lockDocument composerLockDocument
	if unmarshalError := json.Unmarshal(lockContent, &lockDocument); unmarshalError != nil {
		return nil, unmarshalError
	}
	dependencies := []Dependency{}
	for _, lockPackage := range append(lockDocument.Packages, lockDocument.PackagesDev...) {
		if lockPackage.Name == "" || lockPackage.Version == "" {
			continue
		}
		dependencies = append(dependencies, Dependency{
			Name:       lockPackage.Name,
			Version:    strings.TrimPrefix(lockPackage.Version, "v"),
			Ecosystem:  EcosystemPackagist,
			SourceFile: "composer.lock",
		})
	}
	return dependencies, nil
}

type composerManifestDocument struct {
	Require    map[string]string `json:"require"`
	RequireDev map[string]string `json:"require-dev"`
}

func parseComposerManifest(repositoryScanner *scanner.Scanner) ([]Dependency, error) {
	manifestContent, readError := repositoryScanner.ReadFile("composer.json")
	if readError != nil {
		return nil, readError
	}
	var manifestDocument composerManifestDocument
	if unmarshalError := json.Unmarshal(manifestContent, &manifestDocument); unmarshalError != nil {
		return nil, unmarshalError
	}
	dependencies := []Dependency{}
	appendSection := func(sectionRequirements map[string]string) {
		for packageName, versionConstraint := range sectionRequirements {
			if packageName == "php" || strings.HasPrefix(packageName, "ext-") {
				continue
			}
			dependencies = append(dependencies, Dependency{
				Name:       packageName,
				Version:    cleanComposerConstraint(versionConstraint),
				Ecosystem:  EcosystemPackagist,
				SourceFile: "composer.json",
			})
		}
	}
	appendSection(manifestDocument.Require)
	appendSection(manifestDocument.RequireDev)
	return dependencies, nil
}

func cleanComposerConstraint(versionConstraint string) string {
	cleanedVersion := strings.TrimSpace(strings.SplitN(versionConstraint, ",", 2)[0])
	for _, constraintPrefix := range []string{"^", "~", ">=", "<=", ">", "<", "v"} {
		cleanedVersion = strings.TrimPrefix(cleanedVersion, constraintPrefix)
	}
	return strings.TrimSpace(cleanedVersion)
}
