package categories

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/delfour-co/repolens/internal/config"
	"github.com/delfour-co/repolens/internal/rules"
	"github.com/delfour-co/repolens/internal/scanner"
)

const (
	dockerfilePresenceRuleSlug = "docker/dockerfile-presence"
	dockerignoreRuleSlug       = "docker/dockerignore"
	pinnedTagRuleSlug          = "docker/pinned-tag"
	userInstructionRuleSlug    = "docker/user-instruction"
	healthcheckRuleSlug        = "docker/healthcheck"
	multiStageRuleSlug         = "docker/multi-stage"
	secretsInEnvRuleSlug       = "docker/secrets-in-env"
	copyAllRuleSlug            = "docker/copy-all"

	missingDockerfileRuleID   = "DOCKER001"
	missingDockerignoreRuleID = "DOCKER002"
	unpinnedBaseImageRuleID   = "DOCKER003"
	missingUserRuleID         = "DOCKER004"
	missingHealthcheckRuleID  = "DOCKER005"
	singleStageBuildRuleID    = "DOCKER006"
	secretInBuildRuleID       = "DOCKER007"
	copyAllContextRuleID      = "DOCKER008"

	dockerignoreFileName = ".dockerignore"
)

var composeFileNames = []string{"docker-compose.yml", "docker-compose.yaml", "compose.yml", "compose.yaml"}

var dockerSecretIndicators = []string{
	"password", "passwd", "secret", "token", "api_key", "apikey", "api-key",
	"private_key", "access_key", "secret_key", "credentials",
}

// DockerCategory checks Dockerfile and container build hygiene.
type DockerCategory struct{}

// NewDockerCategory constructs the docker category.
func NewDockerCategory() *DockerCategory {
	return &DockerCategory{}
}

// Name identifies the category.
func (category *DockerCategory) Name() string {
	return rules.CategoryDocker
}

// Run evaluates every enabled docker rule against the repository.
func (category *DockerCategory) Run(executionContext context.Context, repositoryScanner *scanner.Scanner, configuration *config.Config) ([]rules.Finding, error) {
	findings := []rules.Finding{}
	dockerfilePaths, discoveryError := findDockerfiles(repositoryScanner)
	if discoveryError != nil {
		return nil, discoveryError
	}

	if configuration.IsRuleEnabled(dockerfilePresenceRuleSlug) {
		findings = append(findings, checkDockerfilePresence(repositoryScanner, configuration, dockerfilePaths)...)
	}
	if configuration.IsRuleEnabled(dockerignoreRuleSlug) {
		findings = append(findings, checkDockerignorePresence(repositoryScanner, configuration, dockerfilePaths)...)
	}
	if configuration.IsRuleEnabled(pinnedTagRuleSlug) {
		findings = append(findings, checkPinnedBaseImages(repositoryScanner, configuration, dockerfilePaths)...)
	}
	if configuration.IsRuleEnabled(userInstructionRuleSlug) {
		findings = append(findings, checkUserInstruction(repositoryScanner, configuration, dockerfilePaths)...)
	}
	if configuration.IsRuleEnabled(healthcheckRuleSlug) {
		findings = append(findings, checkHealthcheckInstruction(repositoryScanner, configuration, dockerfilePaths)...)
	}
	if configuration.IsRuleEnabled(multiStageRuleSlug) {
		findings = append(findings, checkMultiStageBuild(repositoryScanner, configuration, dockerfilePaths)...)
	}
	if configuration.IsRuleEnabled(secretsInEnvRuleSlug) {
		findings = append(findings, checkSecretsInBuildInstructions(repositoryScanner, configuration, dockerfilePaths)...)
	}
	if configuration.IsRuleEnabled(copyAllRuleSlug) {
		findings = append(findings, checkCopyEntireContext(repositoryScanner, configuration, dockerfilePaths)...)
	}

	return findings, nil
}

func findDockerfiles(repositoryScanner *scanner.Scanner) ([]string, error) {
	dockerfilePaths := []string{}
	if repositoryScanner.FileExists("Dockerfile") {
		dockerfilePaths = append(dockerfilePaths, "Dockerfile")
	}
	for _, namePattern := range []string{"Dockerfile.*", "*.Dockerfile"} {
		matchingPaths, matchError := repositoryScanner.FilesMatchingPattern(namePattern)
		if matchError != nil {
			return nil, matchError
		}
		dockerfilePaths = append(dockerfilePaths, matchingPaths...)
	}
	sort.Strings(dockerfilePaths)
	deduplicatedPaths := dockerfilePaths[:0]
	for pathIndex, dockerfilePath := range dockerfilePaths {
		if pathIndex > 0 && dockerfilePath == dockerfilePaths[pathIndex-1] {
			continue
		}
		deduplicatedPaths = append(deduplicatedPaths, dockerfilePath)
	}
	return deduplicatedPaths, nil
}

func checkDockerfilePresence(repositoryScanner *scanner.Scanner, configuration *config.Config, dockerfilePaths []string) []rules.Finding {
	if len(dockerfilePaths) > 0 {
		return nil
	}
	hasComposeFile := false
	for _, composeFileName := range composeFileNames {
		if repositoryScanner.FileExists(composeFileName) {
			hasComposeFile = true
			break
		}
	}
	if !hasComposeFile && !repositoryScanner.FileExists(dockerignoreFileName) {
		return nil
	}
	return []rules.Finding{
		rules.NewFinding(missingDockerfileRuleID, rules.CategoryDocker,
			resolveSeverity(configuration, dockerfilePresenceRuleSlug, rules.SeverityWarning),
			"Dockerfile is missing but Docker-related files exist").
			WithDescription("A docker-compose file or .dockerignore was found, but no Dockerfile exists.").
			WithRemediation("Create a Dockerfile to define the container image."),
	}
}

func checkDockerignorePresence(repositoryScanner *scanner.Scanner, configuration *config.Config, dockerfilePaths []string) []rules.Finding {
	if len(dockerfilePaths) == 0 || repositoryScanner.FileExists(dockerignoreFileName) {
		return nil
	}
	return []rules.Finding{
		rules.NewFinding(missingDockerignoreRuleID, rules.CategoryDocker,
			resolveSeverity(configuration, dockerignoreRuleSlug, rules.SeverityWarning),
			".dockerignore file is missing").
			WithDescription("Without a .dockerignore, unnecessary files may be included in the build context, increasing image size and potentially leaking sensitive data.").
			WithRemediation("Create a .dockerignore file excluding files like .git, node_modules, and .env."),
	}
}

func checkPinnedBaseImages(repositoryScanner *scanner.Scanner, configuration *config.Config, dockerfilePaths []string) []rules.Finding {
	findings := []rules.Finding{}
	for _, dockerfilePath := range dockerfilePaths {
		dockerfileContent, readError := repositoryScanner.ReadFile(dockerfilePath)
		if readError != nil {
			continue
		}
		for lineIndex, dockerfileLine := range strings.Split(string(dockerfileContent), "\n") {
			trimmedLine := strings.TrimSpace(dockerfileLine)
			if !strings.HasPrefix(strings.ToUpper(trimmedLine), "FROM ") {
				continue
			}
			instructionParts := strings.Fields(trimmedLine)
			if len(instructionParts) < 2 {
				continue
			}
			baseImage := instructionParts[1]
			if baseImage == "scratch" || strings.HasPrefix(baseImage, "$") {
				continue
			}

			imageTag, imageHasTag := baseImageTag(baseImage)
			switch {
			case !imageHasTag:
				findings = append(findings, rules.NewFinding(unpinnedBaseImageRuleID, rules.CategoryDocker,
					resolveSeverity(configuration, pinnedTagRuleSlug, rules.SeverityCritical),
					fmt.Sprintf("Base image %q is not pinned to a specific tag", baseImage)).
					WithLocation(dockerfilePath, lineIndex+1).
					WithDescription("An unpinned base image can lead to non-reproducible builds when the upstream image changes.").
					WithRemediation("Pin the base image to a specific version tag, e.g. node:20-alpine."))
			case imageTag == "latest":
				findings = append(findings, rules.NewFinding(unpinnedBaseImageRuleID, rules.CategoryDocker,
					resolveSeverity(configuration, pinnedTagRuleSlug, rules.SeverityCritical),
					fmt.Sprintf("Base image %q uses the latest tag", baseImage)).
					WithLocation(dockerfilePath, lineIndex+1).
					WithDescription("The latest tag is equivalent to not pinning the image at all.").
					WithRemediation("Pin the base image to a specific version tag, e.g. node:20-alpine."))
			}
		}
	}
	return findings
}

// baseImageTag reports the tag portion of an image reference. A colon followed
// by a slash is a registry port, not a tag.
func baseImageTag(imageReference string) (string, bool) {
	colonPosition := strings.LastIndex(imageReference, ":")
	if colonPosition < 0 {
		return "", false
	}
	afterColon := imageReference[colonPosition+1:]
	if strings.Contains(afterColon, "/") {
		return "", false
	}
	return afterColon, true
}

func checkUserInstruction(repositoryScanner *scanner.Scanner, configuration *config.Config, dockerfilePaths []string) []rules.Finding {
	findings := []rules.Finding{}
	for _, dockerfilePath := range dockerfilePaths {
		if dockerfileContainsInstruction(repositoryScanner, dockerfilePath, "USER ") {
			continue
		}
		findings = append(findings, rules.NewFinding(missingUserRuleID, rules.CategoryDocker,
			resolveSeverity(configuration, userInstructionRuleSlug, rules.SeverityWarning),
			fmt.Sprintf("No USER instruction in %s", dockerfilePath)).
			WithLocation(dockerfilePath, 0).
			WithDescription("Without a USER instruction the container runs as root, increasing the attack surface if it is compromised.").
			WithRemediation("Add a USER instruction to run the container as a non-root user."))
	}
	return findings
}

func checkHealthcheckInstruction(repositoryScanner *scanner.Scanner, configuration *config.Config, dockerfilePaths []string) []rules.Finding {
	findings := []rules.Finding{}
	for _, dockerfilePath := range dockerfilePaths {
		if dockerfileContainsInstruction(repositoryScanner, dockerfilePath, "HEALTHCHECK ") {
			continue
		}
		findings = append(findings, rules.NewFinding(missingHealthcheckRuleID, rules.CategoryDocker,
			resolveSeverity(configuration, healthcheckRuleSlug, rules.SeverityWarning),
			fmt.Sprintf("No HEALTHCHECK instruction in %s", dockerfilePath)).
			WithLocation(dockerfilePath, 0).
			WithDescription("Without a HEALTHCHECK, orchestrators cannot determine whether the container's main process is still healthy.").
			WithRemediation("Add a HEALTHCHECK instruction, e.g. HEALTHCHECK CMD curl -f http://localhost/ || exit 1."))
	}
	return findings
}

func dockerfileContainsInstruction(repositoryScanner *scanner.Scanner, dockerfilePath string, instructionPrefix string) bool {
	dockerfileContent, readError := repositoryScanner.ReadFile(dockerfilePath)
	if readError != nil {
		return true
	}
	for _, dockerfileLine := range strings.Split(string(dockerfileContent), "\n") {
		if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(dockerfileLine)), instructionPrefix) {
			return true
		}
	}
	return false
}

func checkMultiStageBuild(repositoryScanner *scanner.Scanner, configuration *config.Config, dockerfilePaths []string) []rules.Finding {
	findings := []rules.Finding{}
	for _, dockerfilePath := range dockerfilePaths {
		dockerfileContent, readError := repositoryScanner.ReadFile(dockerfilePath)
		if readError != nil {
			continue
		}
		fromCount := 0
		for _, dockerfileLine := range strings.Split(string(dockerfileContent), "\n") {
			if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(dockerfileLine)), "FROM ") {
				fromCount++
			}
		}
		if fromCount != 1 {
			continue
		}
		findings = append(findings, rules.NewFinding(singleStageBuildRuleID, rules.CategoryDocker,
			resolveSeverity(configuration, multiStageRuleSlug, rules.SeverityInfo),
			fmt.Sprintf("No multi-stage build in %s", dockerfilePath)).
			WithLocation(dockerfilePath, 0).
			WithDescription("Multi-stage builds reduce final image size by separating build dependencies from runtime dependencies.").
			WithRemediation("Consider splitting the Dockerfile into build and runtime stages."))
	}
	return findings
}

func checkSecretsInBuildInstructions(repositoryScanner *scanner.Scanner, configuration *config.Config, dockerfilePaths []string) []rules.Finding {
	findings := []rules.Finding{}
	for _, dockerfilePath := range dockerfilePaths {
		dockerfileContent, readError := repositoryScanner.ReadFile(dockerfilePath)
		if readError != nil {
			continue
		}
		for lineIndex, dockerfileLine := range strings.Split(string(dockerfileContent), "\n") {
			trimmedLine := strings.TrimSpace(dockerfileLine)
			upperLine := strings.ToUpper(trimmedLine)
			if !strings.HasPrefix(upperLine, "ENV ") && !strings.HasPrefix(upperLine, "ARG ") {
				continue
			}
			instructionName := "ENV"
			if strings.HasPrefix(upperLine, "ARG ") {
				instructionName = "ARG"
			}
			lowerLine := strings.ToLower(trimmedLine)
			for _, secretIndicator := range dockerSecretIndicators {
				if !strings.Contains(lowerLine, secretIndicator) {
					continue
				}
				findings = append(findings, rules.NewFinding(secretInBuildRuleID, rules.CategoryDocker,
					resolveSeverity(configuration, secretsInEnvRuleSlug, rules.SeverityWarning),
					fmt.Sprintf("Potential secret in %s instruction", instructionName)).
					WithLocation(dockerfilePath, lineIndex+1).
					WithDescription(fmt.Sprintf("The instruction contains %q which may indicate a credential. Values in ENV and ARG are baked into image layers and can be extracted.", secretIndicator)).
					WithRemediation("Use Docker build secrets (--mount=type=secret) or runtime environment variables instead."))
				break
			}
		}
	}
	return findings
}

func checkCopyEntireContext(repositoryScanner *scanner.Scanner, configuration *config.Config, dockerfilePaths []string) []rules.Finding {
	if repositoryScanner.FileExists(dockerignoreFileName) {
		return nil
	}
	findings := []rules.Finding{}
	for _, dockerfilePath := range dockerfilePaths {
		dockerfileContent, readError := repositoryScanner.ReadFile(dockerfilePath)
		if readError != nil {
			continue
		}
		for lineIndex, dockerfileLine := range strings.Split(string(dockerfileContent), "\n") {
			trimmedLine := strings.TrimSpace(dockerfileLine)
			if !strings.HasPrefix(strings.ToUpper(trimmedLine), "COPY ") {
				continue
			}
			operandParts := []string{}
			for _, instructionPart := range strings.Fields(trimmedLine)[1:] {
				if strings.HasPrefix(instructionPart, "--") {
					continue
				}
				operandParts = append(operandParts, instructionPart)
			}
			if len(operandParts) < 2 || operandParts[0] != "." {
				continue
			}
			findings = append(findings, rules.NewFinding(copyAllContextRuleID, rules.CategoryDocker,
				resolveSeverity(configuration, copyAllRuleSlug, rules.SeverityInfo),
				"COPY with entire build context used without .dockerignore").
				WithLocation(dockerfilePath, lineIndex+1).
				WithDescription("Copying the entire build context without a .dockerignore may include files like .git, node_modules, or sensitive data in the image.").
				WithRemediation("Create a .dockerignore file or use more specific COPY instructions."))
		}
	}
	return findings
}
