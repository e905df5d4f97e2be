package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const (
	gitDirectoryNameConstant  = ".git"
	gitIgnoreFileNameConstant = ".gitignore"
)

// FileInfo describes one regular file discovered during the repository walk.
type FileInfo struct {
	Path string
	Size int64
}

// Scanner exposes read-only queries over a repository working tree.
type Scanner struct {
	repositoryRoot string
	walkOnce       sync.Once
	walkError      error
	cachedFiles    []FileInfo
	ignoreMatcher  *ignoreMatcher
}

// NewScanner creates a scanner rooted at the supplied repository path.
func NewScanner(repositoryRoot string) *Scanner {
	return &Scanner{repositoryRoot: repositoryRoot}
}

// Root returns the repository root path the scanner was created with.
func (repositoryScanner *Scanner) Root() string {
	return repositoryScanner.repositoryRoot
}

// RepositoryName returns the base name of the absolute repository root.
func (repositoryScanner *Scanner) RepositoryName() string {
	absoluteRoot, absoluteError := filepath.Abs(repositoryScanner.repositoryRoot)
	if absoluteError != nil {
		return filepath.Base(repositoryScanner.repositoryRoot)
	}
	return filepath.Base(absoluteRoot)
}

// FileExists reports whether the relative path exists under the root.
func (repositoryScanner *Scanner) FileExists(relativePath string) bool {
	_, statError := os.Stat(repositoryScanner.absolutePath(relativePath))
	return statError == nil
}

// DirectoryExists reports whether the relative path is an existing directory.
func (repositoryScanner *Scanner) DirectoryExists(relativePath string) bool {
	pathInformation, statError := os.Stat(repositoryScanner.absolutePath(relativePath))
	return statError == nil && pathInformation.IsDir()
}

// ReadFile returns the content of the file at the relative path.
func (repositoryScanner *Scanner) ReadFile(relativePath string) ([]byte, error) {
	return os.ReadFile(repositoryScanner.absolutePath(relativePath))
}

// Files returns every tracked file discovered by the walk.
func (repositoryScanner *Scanner) Files() ([]FileInfo, error) {
	repositoryScanner.walkOnce.Do(repositoryScanner.performWalk)
	return repositoryScanner.cachedFiles, repositoryScanner.walkError
}

// FilesWithExtensions returns relative paths whose extension matches any of
// the supplied extensions. Extensions are compared without a leading dot.
func (repositoryScanner *Scanner) FilesWithExtensions(extensions []string) ([]string, error) {
	discoveredFiles, walkError := repositoryScanner.Files()
	if walkError != nil {
		return nil, walkError
	}
	extensionSet := map[string]struct{}{}
	for _, extension := range extensions {
		extensionSet[strings.TrimPrefix(strings.ToLower(extension), ".")] = struct{}{}
	}
	matchingPaths := []string{}
	for _, fileInformation := range discoveredFiles {
		fileExtension := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileInformation.Path)), ".")
		if _, extensionMatches := extensionSet[fileExtension]; extensionMatches {
			matchingPaths = append(matchingPaths, fileInformation.Path)
		}
	}
	return matchingPaths, nil
}

// FilesMatchingPattern returns relative paths matching a glob pattern
// supporting single-segment * and multi-segment ** wildcards.
func (repositoryScanner *Scanner) FilesMatchingPattern(globPattern string) ([]string, error) {
	discoveredFiles, walkError := repositoryScanner.Files()
	if walkError != nil {
		return nil, walkError
	}
	matchingPaths := []string{}
	for _, fileInformation := range discoveredFiles {
		if GlobMatch(globPattern, fileInformation.Path) {
			matchingPaths = append(matchingPaths, fileInformation.Path)
		}
	}
	return matchingPaths, nil
}

// FilesLargerThan returns files whose size strictly exceeds the byte limit.
func (repositoryScanner *Scanner) FilesLargerThan(sizeLimitBytes int64) ([]FileInfo, error) {
	discoveredFiles, walkError := repositoryScanner.Files()
	if walkError != nil {
		return nil, walkError
	}
	largeFiles := []FileInfo{}
	for _, fileInformation := range discoveredFiles {
		if fileInformation.Size > sizeLimitBytes {
			largeFiles = append(largeFiles, fileInformation)
		}
	}
	return largeFiles, nil
}

// FilesInDirectory returns files whose path sits under the given directory.
func (repositoryScanner *Scanner) FilesInDirectory(directoryPath string) ([]string, error) {
	discoveredFiles, walkError := repositoryScanner.Files()
	if walkError != nil {
		return nil, walkError
	}
	normalizedDirectory := strings.Trim(filepath.ToSlash(directoryPath), "/")
	directoryPrefix := normalizedDirectory + "/"
	containedPaths := []string{}
	for _, fileInformation := range discoveredFiles {
		if strings.HasPrefix(fileInformation.Path, directoryPrefix) {
			containedPaths = append(containedPaths, fileInformation.Path)
		}
	}
	return containedPaths, nil
}

func (repositoryScanner *Scanner) absolutePath(relativePath string) string {
	return filepath.Join(repositoryScanner.repositoryRoot, filepath.FromSlash(relativePath))
}

func (repositoryScanner *Scanner) performWalk() {
	repositoryScanner.ignoreMatcher = loadIgnoreMatcher(repositoryScanner.repositoryRoot)
	collectedFiles := []FileInfo{}
	walkError := filepath.WalkDir(repositoryScanner.repositoryRoot, func(currentPath string, directoryEntry fs.DirEntry, entryError error) error {
		if entryError != nil {
			// Unreadable entries are skipped rather than failing the walk.
			if directoryEntry != nil && directoryEntry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		relativePath, relativeError := filepath.Rel(repositoryScanner.repositoryRoot, currentPath)
		if relativeError != nil {
			return relativeError
		}
		normalizedPath := filepath.ToSlash(relativePath)
		if normalizedPath == "." {
			return nil
		}
		if directoryEntry.IsDir() {
			if directoryEntry.Name() == gitDirectoryNameConstant {
				return fs.SkipDir
			}
			if repositoryScanner.ignoreMatcher.Matches(normalizedPath, true) {
				return fs.SkipDir
			}
			return nil
		}
		if !directoryEntry.Type().IsRegular() {
			return nil
		}
		if repositoryScanner.ignoreMatcher.Matches(normalizedPath, false) {
			return nil
		}
		entryInformation, informationError := directoryEntry.Info()
		if informationError != nil {
			return nil
		}
		collectedFiles = append(collectedFiles, FileInfo{Path: normalizedPath, Size: entryInformation.Size()})
		return nil
	})
	sort.Slice(collectedFiles, func(firstIndex, secondIndex int) bool {
		return collectedFiles[firstIndex].Path < collectedFiles[secondIndex].Path
	})
	repositoryScanner.cachedFiles = collectedFiles
	repositoryScanner.walkError = walkError
}
