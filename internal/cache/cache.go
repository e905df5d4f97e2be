package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/delfour-co/repolens/internal/rules"
)

const (
	cacheFileNameConstant          = "audit_cache.json"
	cacheTemporaryPatternConstant  = "audit_cache-*.json"
	cacheDirectoryPermissions      = 0o755
	cacheFilePermissions           = 0o644
	corruptCacheLogMessageConstant = "audit cache unreadable, starting empty"
	cacheWriteErrorTemplate        = "write audit cache: %w"
	cacheDeleteErrorTemplate       = "delete audit cache: %w"
)

// Entry stores the findings recorded for one file at one content version.
type Entry struct {
	FilePath    string          `json:"file_path"`
	ContentHash string          `json:"content_hash"`
	Findings    []rules.Finding `json:"findings"`
	Timestamp   time.Time       `json:"timestamp"`
}

type cacheDocument struct {
	Entries map[string]Entry `json:"entries"`
}

// AuditCache holds cached findings for a single repository.
type AuditCache struct {
	cacheDirectory string
	maxEntryAge    time.Duration
	entries        map[string]Entry
	dirty          bool
	logger         *zap.Logger
	clock          func() time.Time
}

// Option adjusts cache construction.
type Option func(*AuditCache)

// WithClock overrides the time source used for entry timestamps and expiry.
func WithClock(clock func() time.Time) Option {
	return func(auditCache *AuditCache) {
		auditCache.clock = clock
	}
}

// NewAuditCache creates an empty cache bound to a cache directory.
func NewAuditCache(cacheDirectory string, maxAgeHours int, logger *zap.Logger, options ...Option) *AuditCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	auditCache := &AuditCache{
		cacheDirectory: cacheDirectory,
		maxEntryAge:    time.Duration(maxAgeHours) * time.Hour,
		entries:        map[string]Entry{},
		logger:         logger,
		clock:          time.Now,
	}
	for _, option := range options {
		option(auditCache)
	}
	return auditCache
}

// ContentHash returns the lowercase hex SHA-256 digest of file content.
func ContentHash(content []byte) string {
	digest := sha256.Sum256(content)
	return hex.EncodeToString(digest[:])
}

func (auditCache *AuditCache) cacheFilePath() string {
	return filepath.Join(auditCache.cacheDirectory, cacheFileNameConstant)
}

// Load reads the cache document from disk. A missing or corrupt document
// leaves the cache empty; expired entries are discarded during the load.
func (auditCache *AuditCache) Load() {
	auditCache.entries = map[string]Entry{}
	documentContent, readError := os.ReadFile(auditCache.cacheFilePath())
	if readError != nil {
		return
	}
	var document cacheDocument
	if unmarshalError := json.Unmarshal(documentContent, &document); unmarshalError != nil {
		auditCache.logger.Warn(corruptCacheLogMessageConstant,
			zap.String("cache_file", auditCache.cacheFilePath()),
			zap.Error(unmarshalError))
		return
	}
	expiryCutoff := auditCache.clock().Add(-auditCache.maxEntryAge)
	for filePath, entry := range document.Entries {
		if entry.Timestamp.Before(expiryCutoff) {
			continue
		}
		auditCache.entries[filePath] = entry
	}
}

// Get returns the cached findings for a file when the content hash matches.
func (auditCache *AuditCache) Get(filePath string, contentHash string) ([]rules.Finding, bool) {
	entry, entryPresent := auditCache.entries[filePath]
	if !entryPresent || entry.ContentHash != contentHash {
		return nil, false
	}
	return entry.Findings, true
}

// Insert records findings for a file version and marks the cache dirty.
func (auditCache *AuditCache) Insert(filePath string, contentHash string, findings []rules.Finding) {
	auditCache.entries[filePath] = Entry{
		FilePath:    filePath,
		ContentHash: contentHash,
		Findings:    findings,
		Timestamp:   auditCache.clock(),
	}
	auditCache.dirty = true
}

// Dirty reports whether the cache holds unsaved insertions.
func (auditCache *AuditCache) Dirty() bool {
	return auditCache.dirty
}

// Len returns the number of live entries.
func (auditCache *AuditCache) Len() int {
	return len(auditCache.entries)
}

// Save writes the cache document when dirty. The write goes through a
// temporary file and rename so readers never observe a partial document.
func (auditCache *AuditCache) Save() error {
	if !auditCache.dirty {
		return nil
	}
	if directoryError := os.MkdirAll(auditCache.cacheDirectory, cacheDirectoryPermissions); directoryError != nil {
		return fmt.Errorf(cacheWriteErrorTemplate, directoryError)
	}
	documentContent, marshalError := json.MarshalIndent(cacheDocument{Entries: auditCache.entries}, "", "  ")
	if marshalError != nil {
		return fmt.Errorf(cacheWriteErrorTemplate, marshalError)
	}
	temporaryFile, temporaryError := os.CreateTemp(auditCache.cacheDirectory, cacheTemporaryPatternConstant)
	if temporaryError != nil {
		return fmt.Errorf(cacheWriteErrorTemplate, temporaryError)
	}
	temporaryPath := temporaryFile.Name()
	if _, writeError := temporaryFile.Write(documentContent); writeError != nil {
		temporaryFile.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf(cacheWriteErrorTemplate, writeError)
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf(cacheWriteErrorTemplate, closeError)
	}
	if chmodError := os.Chmod(temporaryPath, cacheFilePermissions); chmodError != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf(cacheWriteErrorTemplate, chmodError)
	}
	if renameError := os.Rename(temporaryPath, auditCache.cacheFilePath()); renameError != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf(cacheWriteErrorTemplate, renameError)
	}
	auditCache.dirty = false
	return nil
}

// Delete removes the cache directory and all cached documents.
func (auditCache *AuditCache) Delete() error {
	if removeError := os.RemoveAll(auditCache.cacheDirectory); removeError != nil {
		return fmt.Errorf(cacheDeleteErrorTemplate, removeError)
	}
	auditCache.entries = map[string]Entry{}
	auditCache.dirty = false
	return nil
}
