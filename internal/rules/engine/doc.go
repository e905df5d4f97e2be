// Package engine runs rule categories against a repository in a fixed order
// and aggregates their findings. Categories that audit individual files can
// opt into content-hash caching so unchanged files are not re-evaluated.
package engine
