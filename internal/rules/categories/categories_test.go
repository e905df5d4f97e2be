package categories_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/delfour-co/repolens/internal/config"
	"github.com/delfour-co/repolens/internal/execshell"
	"github.com/delfour-co/repolens/internal/rules"
	"github.com/delfour-co/repolens/internal/rules/categories"
	"github.com/delfour-co/repolens/internal/scanner"
)

const testStripeSecretLineConstant = `const stripeKey = "sk_test_1234567890abcdefghijklmnop";` + "\n"

func writeRepositoryFile(testInstance *testing.T, repositoryRoot string, relativePath string, content string) {
	testInstance.Helper()
	absolutePath := filepath.Join(repositoryRoot, filepath.FromSlash(relativePath))
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(absolutePath), 0o755))
	require.NoError(testInstance, os.WriteFile(absolutePath, []byte(content), 0o644))
}

func findingsWithRule(findings []rules.Finding, ruleIdentifier string) []rules.Finding {
	matching := []rules.Finding{}
	for _, finding := range findings {
		if finding.RuleID == ruleIdentifier {
			matching = append(matching, finding)
		}
	}
	return matching
}

func TestSecretsCategoryDetectsHardcodedKey(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	writeRepositoryFile(testInstance, repositoryRoot, "src/payment.js", testStripeSecretLineConstant)

	secretsCategory := categories.NewSecretsCategory()
	findings, runError := secretsCategory.Run(context.Background(), scanner.NewScanner(repositoryRoot), config.DefaultConfig())
	require.NoError(testInstance, runError)

	secretFindings := findingsWithRule(findings, "SEC001")
	require.NotEmpty(testInstance, secretFindings)
	require.Equal(testInstance, rules.SeverityCritical, secretFindings[0].Severity)
	require.NotNil(testInstance, secretFindings[0].Location)
	require.Equal(testInstance, "src/payment.js", secretFindings[0].Location.FilePath)
	require.Equal(testInstance, 1, secretFindings[0].Location.Line)
}

func TestSecretsCategoryIgnoresEnvironmentTemplates(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	writeRepositoryFile(testInstance, repositoryRoot, ".env.example", "API_KEY=\n")

	secretsCategory := categories.NewSecretsCategory()
	findings, runError := secretsCategory.Run(context.Background(), scanner.NewScanner(repositoryRoot), config.DefaultConfig())
	require.NoError(testInstance, runError)
	require.Empty(testInstance, findingsWithRule(findings, "SEC003"))
}

func TestDocsCategoryFlagsMissingReadmeAndLicense(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	writeRepositoryFile(testInstance, repositoryRoot, "main.go", "package main\n")

	docsCategory := categories.NewDocsCategory()
	findings, runError := docsCategory.Run(context.Background(), scanner.NewScanner(repositoryRoot), config.DefaultConfig())
	require.NoError(testInstance, runError)

	require.NotEmpty(testInstance, findingsWithRule(findings, "DOC001"))
	licenseFindings := findingsWithRule(findings, "DOC004")
	require.NotEmpty(testInstance, licenseFindings)
	require.Equal(testInstance, rules.SeverityCritical, licenseFindings[0].Severity)
}

func TestDocsCategoryMissingLicenseExemptForEnterprisePreset(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	writeRepositoryFile(testInstance, repositoryRoot, "main.go", "package main\n")

	enterpriseConfiguration := config.DefaultConfig()
	enterpriseConfiguration.Preset = string(config.PresetEnterprise)

	docsCategory := categories.NewDocsCategory()
	findings, runError := docsCategory.Run(context.Background(), scanner.NewScanner(repositoryRoot), enterpriseConfiguration)
	require.NoError(testInstance, runError)
	require.Empty(testInstance, findingsWithRule(findings, "DOC004"))
}

func TestFilesCategoryFlagsMissingGitIgnore(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	writeRepositoryFile(testInstance, repositoryRoot, "main.go", "package main\n")

	filesCategory := categories.NewFilesCategory()
	findings, runError := filesCategory.Run(context.Background(), scanner.NewScanner(repositoryRoot), config.DefaultConfig())
	require.NoError(testInstance, runError)
	require.NotEmpty(testInstance, findingsWithRule(findings, "FILE002"))
}

func TestParseDependenciesFromCargoLock(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	writeRepositoryFile(testInstance, repositoryRoot, "Cargo.lock", `version = 3

[[package]]
name = "serde"
version = "1.0.210"

[[package]]
name = "tokio"
version = "1.40.0"
`)

	dependencies, parseFailures := categories.ParseDependencies(scanner.NewScanner(repositoryRoot))
	require.Empty(testInstance, parseFailures)
	require.Len(testInstance, dependencies, 2)
	require.Equal(testInstance, "serde", dependencies[0].Name)
	require.Equal(testInstance, "1.0.210", dependencies[0].Version)
	require.Equal(testInstance, categories.EcosystemCargo, dependencies[0].Ecosystem)
	require.Equal(testInstance, "tokio", dependencies[1].Name)
}

func TestParseDependenciesFromRequirements(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	writeRepositoryFile(testInstance, repositoryRoot, "requirements.txt", `# comment
Flask==2.3.0
requests[security]>=2.31.0,<3
-r other.txt

`)

	dependencies, parseFailures := categories.ParseDependencies(scanner.NewScanner(repositoryRoot))
	require.Empty(testInstance, parseFailures)
	require.Len(testInstance, dependencies, 2)
	require.Equal(testInstance, "flask", dependencies[0].Name)
	require.Equal(testInstance, "2.3.0", dependencies[0].Version)
	require.Equal(testInstance, "requests", dependencies[1].Name)
	require.Equal(testInstance, "2.31.0", dependencies[1].Version)
	require.Equal(testInstance, categories.EcosystemPyPI, dependencies[1].Ecosystem)
}

func TestDependenciesCategorySummarizesManifests(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	writeRepositoryFile(testInstance, repositoryRoot, "Cargo.lock", `[[package]]
name = "serde"
version = "1.0.210"
`)

	dependenciesCategory := categories.NewDependenciesCategory()
	findings, runError := dependenciesCategory.Run(context.Background(), scanner.NewScanner(repositoryRoot), config.DefaultConfig())
	require.NoError(testInstance, runError)

	summaryFindings := findingsWithRule(findings, "DEP001")
	require.Len(testInstance, summaryFindings, 1)
	require.Equal(testInstance, rules.SeverityInfo, summaryFindings[0].Severity)
	require.Contains(testInstance, summaryFindings[0].Message, "Cargo.lock")
}

func TestDependenciesCategoryReportsUnparseableManifest(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	writeRepositoryFile(testInstance, repositoryRoot, "package-lock.json", "{not json")

	dependenciesCategory := categories.NewDependenciesCategory()
	findings, runError := dependenciesCategory.Run(context.Background(), scanner.NewScanner(repositoryRoot), config.DefaultConfig())
	require.NoError(testInstance, runError)

	failureFindings := findingsWithRule(findings, "DEP000")
	require.Len(testInstance, failureFindings, 1)
	require.Equal(testInstance, rules.SeverityWarning, failureFindings[0].Severity)
}

func TestLicensesCategoryDisabledByDefault(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	writeRepositoryFile(testInstance, repositoryRoot, "Cargo.toml", "[dependencies]\nserde = \"1\"\n")

	licensesCategory := categories.NewLicensesCategory()
	findings, runError := licensesCategory.Run(context.Background(), scanner.NewScanner(repositoryRoot), config.DefaultConfig())
	require.NoError(testInstance, runError)
	require.Empty(testInstance, findings)
}

func TestLicensesCategoryFlagsDeniedLicense(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	writeRepositoryFile(testInstance, repositoryRoot, "LICENSE", "Permission is hereby granted, free of charge, to any person\n")
	writeRepositoryFile(testInstance, repositoryRoot, "package.json", `{"license": "MIT", "dependencies": {"left-pad": "^1.3.0"}}`)
	writeRepositoryFile(testInstance, repositoryRoot, "node_modules/left-pad/package.json", `{"license": "AGPL-3.0"}`)

	complianceConfiguration := config.DefaultConfig()
	complianceConfiguration.LicenseCompliance.Enabled = true
	complianceConfiguration.LicenseCompliance.DeniedLicenses = []string{"agpl-3.0"}

	licensesCategory := categories.NewLicensesCategory()
	findings, runError := licensesCategory.Run(context.Background(), scanner.NewScanner(repositoryRoot), complianceConfiguration)
	require.NoError(testInstance, runError)

	policyFindings := findingsWithRule(findings, "LIC002")
	require.NotEmpty(testInstance, policyFindings)
	require.Equal(testInstance, rules.SeverityCritical, policyFindings[0].Severity)
	require.Contains(testInstance, policyFindings[0].Message, "left-pad")
}

func TestLicensesCategoryFlagsUndeclaredDependencyLicense(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	writeRepositoryFile(testInstance, repositoryRoot, "LICENSE", "Permission is hereby granted, free of charge, to any person\n")
	writeRepositoryFile(testInstance, repositoryRoot, "Cargo.toml", "[package]\nname = \"demo\"\nlicense = \"MIT\"\n\n[dependencies]\nserde = \"1\"\n")

	complianceConfiguration := config.DefaultConfig()
	complianceConfiguration.LicenseCompliance.Enabled = true

	licensesCategory := categories.NewLicensesCategory()
	findings, runError := licensesCategory.Run(context.Background(), scanner.NewScanner(repositoryRoot), complianceConfiguration)
	require.NoError(testInstance, runError)

	undeclaredFindings := findingsWithRule(findings, "LIC004")
	require.Len(testInstance, undeclaredFindings, 1)
	require.Contains(testInstance, undeclaredFindings[0].Message, "serde")
}

func TestLicensesCategoryOrdersDependencyFindingsDeterministically(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	writeRepositoryFile(testInstance, repositoryRoot, "LICENSE", "Permission is hereby granted, free of charge, to any person\n")
	writeRepositoryFile(testInstance, repositoryRoot, "Cargo.toml",
		"[package]\nname = \"demo\"\nlicense = \"MIT\"\n\n[dependencies]\n"+
			"serde = \"1\"\ntokio = \"1\"\nanyhow = \"1\"\nclap = \"4\"\nregex = \"1\"\nuuid = \"1\"\nrand = \"0.8\"\nchrono = \"0.4\"\n")

	complianceConfiguration := config.DefaultConfig()
	complianceConfiguration.LicenseCompliance.Enabled = true

	licensesCategory := categories.NewLicensesCategory()
	repositoryScanner := scanner.NewScanner(repositoryRoot)

	referenceFindings, referenceError := licensesCategory.Run(context.Background(), repositoryScanner, complianceConfiguration)
	require.NoError(testInstance, referenceError)
	rules.SortFindings(referenceFindings)
	require.Len(testInstance, findingsWithRule(referenceFindings, "LIC004"), 8)

	for repetition := 0; repetition < 20; repetition++ {
		repeatedFindings, repeatedError := licensesCategory.Run(context.Background(), repositoryScanner, complianceConfiguration)
		require.NoError(testInstance, repeatedError)
		rules.SortFindings(repeatedFindings)
		require.Equal(testInstance, referenceFindings, repeatedFindings)
	}
}

func TestDockerCategoryFlagsCommonDockerfileIssues(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	writeRepositoryFile(testInstance, repositoryRoot, "Dockerfile", "FROM ubuntu\nENV DB_PASSWORD=hunter2\nCOPY . .\nCMD [\"bash\"]\n")

	dockerCategory := categories.NewDockerCategory()
	findings, runError := dockerCategory.Run(context.Background(), scanner.NewScanner(repositoryRoot), config.DefaultConfig())
	require.NoError(testInstance, runError)

	for _, expectedRuleIdentifier := range []string{"DOCKER002", "DOCKER003", "DOCKER004", "DOCKER005", "DOCKER006", "DOCKER007", "DOCKER008"} {
		require.NotEmpty(testInstance, findingsWithRule(findings, expectedRuleIdentifier), expectedRuleIdentifier)
	}
}

func TestDockerCategoryAcceptsPinnedMultiStageBuild(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	writeRepositoryFile(testInstance, repositoryRoot, "Dockerfile", "FROM golang:1.24-alpine AS builder\nRUN go build -o /app ./cmd\nFROM scratch\nCOPY --from=builder /app /app\nUSER 1001\nHEALTHCHECK CMD [\"/app\", \"health\"]\n")
	writeRepositoryFile(testInstance, repositoryRoot, ".dockerignore", ".git\n")

	dockerCategory := categories.NewDockerCategory()
	findings, runError := dockerCategory.Run(context.Background(), scanner.NewScanner(repositoryRoot), config.DefaultConfig())
	require.NoError(testInstance, runError)
	require.Empty(testInstance, findings)
}

func TestGitCategoryFlagsSensitiveFileNotIgnored(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	writeRepositoryFile(testInstance, repositoryRoot, ".env", "TOKEN=abc\n")

	gitCategory := categories.NewGitCategory()
	findings, runError := gitCategory.Run(context.Background(), scanner.NewScanner(repositoryRoot), config.DefaultConfig())
	require.NoError(testInstance, runError)

	sensitiveFindings := findingsWithRule(findings, "GIT003")
	require.NotEmpty(testInstance, sensitiveFindings)
	require.NotEmpty(testInstance, findingsWithRule(findings, "GIT002"))
}

func TestGitCategoryAcceptsIgnoredSensitiveFile(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	writeRepositoryFile(testInstance, repositoryRoot, ".gitignore", ".env\n")
	writeRepositoryFile(testInstance, repositoryRoot, ".gitattributes", "* text=auto\n")
	writeRepositoryFile(testInstance, repositoryRoot, "main.go", "package main\n")

	gitCategory := categories.NewGitCategory()
	findings, runError := gitCategory.Run(context.Background(), scanner.NewScanner(repositoryRoot), config.DefaultConfig())
	require.NoError(testInstance, runError)
	require.Empty(testInstance, findingsWithRule(findings, "GIT003"))
	require.Empty(testInstance, findingsWithRule(findings, "GIT002"))
}

func TestCustomCategoryPatternRule(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	writeRepositoryFile(testInstance, repositoryRoot, "notes.md", "TODO: finish the rollout\nTODO: remove flag\n")
	writeRepositoryFile(testInstance, repositoryRoot, "clean.md", "nothing pending\n")

	customConfiguration := config.DefaultConfig()
	customConfiguration.CustomRules = map[string]config.CustomRule{
		"no-todos": {
			Pattern:  "TODO",
			Severity: "info",
			Files:    []string{"*.md"},
			Message:  "Unresolved TODO marker",
		},
	}

	customCategory := categories.NewCustomCategory(nil)
	findings, runError := customCategory.Run(context.Background(), scanner.NewScanner(repositoryRoot), customConfiguration)
	require.NoError(testInstance, runError)

	require.Len(testInstance, findings, 1)
	require.Equal(testInstance, "custom/no-todos", findings[0].RuleID)
	require.Equal(testInstance, rules.SeverityInfo, findings[0].Severity)
	require.Equal(testInstance, "Unresolved TODO marker", findings[0].Message)
	require.NotNil(testInstance, findings[0].Location)
	require.Equal(testInstance, "notes.md", findings[0].Location.FilePath)
	require.Equal(testInstance, 1, findings[0].Location.Line)
}

func TestCustomCategoryInvertedPatternRule(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	writeRepositoryFile(testInstance, repositoryRoot, "README.md", "# Demo\n")

	customConfiguration := config.DefaultConfig()
	customConfiguration.CustomRules = map[string]config.CustomRule{
		"license-header": {
			Pattern: "Copyright",
			Files:   []string{"README.md"},
			Invert:  true,
		},
	}

	customCategory := categories.NewCustomCategory(nil)
	findings, runError := customCategory.Run(context.Background(), scanner.NewScanner(repositoryRoot), customConfiguration)
	require.NoError(testInstance, runError)

	require.Len(testInstance, findings, 1)
	require.Equal(testInstance, "custom/license-header", findings[0].RuleID)
	require.Equal(testInstance, rules.SeverityWarning, findings[0].Severity)
}

func TestCustomCategoryCommandRule(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	writeRepositoryFile(testInstance, repositoryRoot, "broken.txt", "FIXME: legacy path\n")

	shellExecutor, executorError := execshell.NewShellExecutor(execshell.NewOSCommandRunner(), nil)
	require.NoError(testInstance, executorError)

	customConfiguration := config.DefaultConfig()
	customConfiguration.CustomRules = map[string]config.CustomRule{
		"no-fixme": {
			Command: `! grep -q FIXME "$1"`,
			Files:   []string{"*.txt"},
			Message: "FIXME marker present",
		},
	}

	customCategory := categories.NewCustomCategory(shellExecutor)
	findings, runError := customCategory.Run(context.Background(), scanner.NewScanner(repositoryRoot), customConfiguration)
	require.NoError(testInstance, runError)

	require.Len(testInstance, findings, 1)
	require.Equal(testInstance, "custom/no-fixme", findings[0].RuleID)
	require.Equal(testInstance, "FIXME marker present", findings[0].Message)
}

func TestWorkflowsCategoryFlagsInlineSecret(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	writeRepositoryFile(testInstance, repositoryRoot, ".github/workflows/ci.yml", "name: ci\npermissions: read-all\njobs:\n  build:\n    env:\n      password: \"hunter2\"\n    steps:\n      - run: ./deploy.sh\n")

	workflowsCategory := categories.NewWorkflowsCategory()
	findings, runError := workflowsCategory.Run(context.Background(), scanner.NewScanner(repositoryRoot), config.DefaultConfig())
	require.NoError(testInstance, runError)
	require.NotEmpty(testInstance, findingsWithRule(findings, "WF001"))
	require.Empty(testInstance, findingsWithRule(findings, "WF002"))
}

func TestSecurityCategoryFlagsMissingLockFile(testInstance *testing.T) {
	repositoryRoot := testInstance.TempDir()
	writeRepositoryFile(testInstance, repositoryRoot, "package.json", `{"name": "demo"}`)

	securityCategory := categories.NewSecurityCategory()
	findings, runError := securityCategory.Run(context.Background(), scanner.NewScanner(repositoryRoot), config.DefaultConfig())
	require.NoError(testInstance, runError)
	require.NotEmpty(testInstance, findingsWithRule(findings, "SECURITY002"))
}
