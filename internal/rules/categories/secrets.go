package categories

import (
	"context"
	"strings"

	"github.com/delfour-co/repolens/internal/config"
	"github.com/delfour-co/repolens/internal/rules"
	"github.com/delfour-co/repolens/internal/rules/patterns"
	"github.com/delfour-co/repolens/internal/scanner"
)

const (
	hardcodedSecretRuleSlug = "secrets/hardcoded"
	sensitiveFileRuleSlug   = "secrets/files"
	environmentFileRuleSlug = "secrets/env"

	hardcodedSecretRuleID   = "SEC001"
	sensitiveFileRuleID     = "SEC002"
	environmentFileRuleID   = "SEC003"
	secretRemediationAdvice = "Remove the secret and use environment variables or a secrets manager instead."
)

// secretScanExtensions are the file extensions worth scanning for secrets.
var secretScanExtensions = []string{
	"js", "ts", "jsx", "tsx", "py", "rb", "php", "java", "go", "rs",
	"cpp", "c", "yml", "yaml", "json", "toml", "env", "config", "conf",
	"sql", "sh", "bash",
}

var sensitiveFilePatterns = []struct {
	globPattern string
	description string
}{
	{"*.pem", "Private key file"},
	{"*.key", "Private key file"},
	{"*.p12", "PKCS#12 certificate bundle"},
	{"*.pfx", "PKCS#12 certificate bundle"},
	{"*.jks", "Java keystore"},
	{"id_rsa", "SSH private key"},
	{"id_dsa", "SSH private key"},
	{"id_ecdsa", "SSH private key"},
	{"id_ed25519", "SSH private key"},
	{".htpasswd", "Apache password file"},
	{"credentials.json", "Credentials file"},
	{"service-account.json", "Service account credentials"},
	{"secrets.yml", "Secrets configuration"},
	{"secrets.yaml", "Secrets configuration"},
	{"secrets.json", "Secrets configuration"},
}

var environmentFilePatterns = []string{
	".env", ".env.local", ".env.production", ".env.development", ".env.test",
}

var environmentFileExemptMarkers = []string{".example", ".template", ".sample"}

// SecretsCategory detects hardcoded secrets, sensitive files, and committed
// environment files.
type SecretsCategory struct{}

// NewSecretsCategory constructs the secrets category.
func NewSecretsCategory() *SecretsCategory {
	return &SecretsCategory{}
}

// Name identifies the category.
func (category *SecretsCategory) Name() string {
	return rules.CategorySecrets
}

// Run executes every secrets check.
func (category *SecretsCategory) Run(executionContext context.Context, repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error) {
	findings := []rules.Finding{}

	candidatePaths, candidateError := category.CandidateFiles(repositoryScanner, configuration)
	if candidateError != nil {
		return nil, candidateError
	}
	for _, candidatePath := range candidatePaths {
		fileFindings, fileError := category.AuditFile(executionContext, repositoryScanner, configuration, candidatePath)
		if fileError != nil {
			continue
		}
		findings = append(findings, fileFindings...)
	}

	repositoryFindings, repositoryError := category.RepositoryFindings(executionContext, repositoryScanner, configuration)
	if repositoryError != nil {
		return nil, repositoryError
	}
	return append(findings, repositoryFindings...), nil
}

// CandidateFiles lists the files eligible for per-file secret scanning.
func (category *SecretsCategory) CandidateFiles(repositoryScanner *scanner.Scanner, configuration *config.Config) ([]string, error) {
	if !configuration.IsRuleEnabled(hardcodedSecretRuleSlug) {
		return nil, nil
	}
	extensionPaths, extensionError := repositoryScanner.FilesWithExtensions(secretScanExtensions)
	if extensionError != nil {
		return nil, extensionError
	}
	candidatePaths := []string{}
	for _, candidatePath := range extensionPaths {
		if configuration.ShouldIgnoreFile(candidatePath) {
			continue
		}
		candidatePaths = append(candidatePaths, candidatePath)
	}
	return candidatePaths, nil
}

// AuditFile scans one file's content against the secret pattern table.
// Unreadable files yield no findings.
func (category *SecretsCategory) AuditFile(executionContext context.Context, repositoryScanner *scanner.Scanner, configuration *config.Config, filePath string) ([]rules.Finding, error) {
	fileContent, readError := repositoryScanner.ReadFile(filePath)
	if readError != nil {
		return nil, nil
	}
	if configuration.ShouldIgnorePattern(filePath) {
		return nil, nil
	}
	contentText := string(fileContent)
	severity := resolveSeverity(configuration, hardcodedSecretRuleSlug, rules.SeverityCritical)

	findings := []rules.Finding{}
	for _, secretPattern := range patterns.SecretPatterns() {
		matchLocation := secretPattern.Expression.FindStringIndex(contentText)
		if matchLocation == nil {
			continue
		}
		findings = append(findings, rules.NewFinding(hardcodedSecretRuleID, rules.CategorySecrets, severity, secretPattern.Name+" detected").
			WithLocation(filePath, lineNumberOfOffset(contentText, matchLocation[0])).
			WithDescription(secretPattern.Description).
			WithRemediation(secretRemediationAdvice))
	}
	return findings, nil
}

// RepositoryFindings runs the repository-level checks for sensitive and
// environment files.
func (category *SecretsCategory) RepositoryFindings(executionContext context.Context, repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error) {
	findings := []rules.Finding{}

	if configuration.IsRuleEnabled(sensitiveFileRuleSlug) {
		sensitiveFindings, sensitiveError := checkSensitiveFiles(repositoryScanner, configuration)
		if sensitiveError != nil {
			return nil, sensitiveError
		}
		findings = append(findings, sensitiveFindings...)
	}

	if configuration.IsRuleEnabled(environmentFileRuleSlug) {
		environmentFindings, environmentError := checkEnvironmentFiles(repositoryScanner, configuration)
		if environmentError != nil {
			return nil, environmentError
		}
		findings = append(findings, environmentFindings...)
	}

	return findings, nil
}

func checkSensitiveFiles(repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error) {
	severity := resolveSeverity(configuration, sensitiveFileRuleSlug, rules.SeverityCritical)
	findings := []rules.Finding{}
	for _, sensitivePattern := range sensitiveFilePatterns {
		matchingPaths, matchError := repositoryScanner.FilesMatchingPattern(sensitivePattern.globPattern)
		if matchError != nil {
			return nil, matchError
		}
		for _, matchingPath := range matchingPaths {
			findings = append(findings, rules.NewFinding(sensitiveFileRuleID, rules.CategorySecrets, severity, sensitivePattern.description+" found in repository").
				WithLocation(matchingPath, 0).
				WithDescription("The file '"+matchingPath+"' appears to contain sensitive data and should not be committed to version control.").
				WithRemediation("Remove the file from the repository and add it to .gitignore. If the file was previously committed, consider rotating any contained credentials."))
		}
	}
	return findings, nil
}

func checkEnvironmentFiles(repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error) {
	severity := resolveSeverity(configuration, environmentFileRuleSlug, rules.SeverityCritical)
	findings := []rules.Finding{}
	for _, environmentPattern := range environmentFilePatterns {
		matchingPaths, matchError := repositoryScanner.FilesMatchingPattern(environmentPattern)
		if matchError != nil {
			return nil, matchError
		}
		for _, matchingPath := range matchingPaths {
			if hasExemptMarker(matchingPath) {
				continue
			}
			findings = append(findings, rules.NewFinding(environmentFileRuleID, rules.CategorySecrets, severity, "Environment file found in repository").
				WithLocation(matchingPath, 0).
				WithDescription("Environment files often contain sensitive configuration and secrets that should not be committed.").
				WithRemediation("Add the file to .gitignore and create a .env.example file as a template."))
		}
	}
	return findings, nil
}

func hasExemptMarker(filePath string) bool {
	for _, exemptMarker := range environmentFileExemptMarkers {
		if strings.Contains(filePath, exemptMarker) {
			return true
		}
	}
	return false
}
