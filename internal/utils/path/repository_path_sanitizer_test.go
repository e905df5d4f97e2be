package pathutils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pathutils "github.com/delfour-co/repolens/internal/utils/path"
)

const (
	testCaseAbsolutePathSuffixConstant = "repository-path-sanitizer"
	testCaseTildeRelativePathConstant  = "Projects/example"
	testCaseWhitespacePrefixConstant   = "  "
	testCaseWhitespaceSuffixConstant   = "\t"
)

func TestRepositoryPathSanitizerNormalizesInputs(testInstance *testing.T) {
	testInstance.Helper()

	homeDirectory, homeDirectoryError := os.UserHomeDir()
	require.NoError(testInstance, homeDirectoryError)

	temporaryDirectory := testInstance.TempDir()
	absolutePath := filepath.Join(temporaryDirectory, testCaseAbsolutePathSuffixConstant)
	tildeInput := filepath.Join("~", testCaseTildeRelativePathConstant)
	expandedTilde := filepath.Join(homeDirectory, testCaseTildeRelativePathConstant)

	sanitizer := pathutils.NewRepositoryPathSanitizer()
	sanitized := sanitizer.Sanitize([]string{
		"",
		testCaseWhitespacePrefixConstant + absolutePath + testCaseWhitespaceSuffixConstant,
		testCaseWhitespacePrefixConstant + tildeInput + testCaseWhitespaceSuffixConstant,
	})
	require.Equal(testInstance, []string{absolutePath, expandedTilde}, sanitized)
}

func TestRepositoryPathSanitizerReturnsNilForEmptyResults(testInstance *testing.T) {
	testInstance.Helper()

	sanitizer := pathutils.NewRepositoryPathSanitizer()

	sanitized := sanitizer.Sanitize([]string{"   ", "\n"})
	require.Nil(testInstance, sanitized)
}
