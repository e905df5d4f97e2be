// Package scanner provides a read-only view over a repository working tree.
//
// The Scanner walks the tree once, skipping .git and gitignored paths, and
// serves all subsequent queries from the cached file list. Paths are always
// reported relative to the repository root using forward slashes.
package scanner
