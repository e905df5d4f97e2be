package cache_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/delfour-co/repolens/internal/cache"
	"github.com/delfour-co/repolens/internal/rules"
)

const (
	testCachedFilePathConstant = "src/main.go"
	testCacheMaxAgeHours       = 24
)

func sampleFindings() []rules.Finding {
	return []rules.Finding{
		rules.NewFinding("SEC001", rules.CategorySecrets, rules.SeverityCritical, "credential detected").
			WithLocation(testCachedFilePathConstant, 7),
	}
}

func TestCacheRoundTrip(testInstance *testing.T) {
	cacheDirectory := filepath.Join(testInstance.TempDir(), ".repolens", "cache")
	contentHash := cache.ContentHash([]byte("package main\n"))

	writerCache := cache.NewAuditCache(cacheDirectory, testCacheMaxAgeHours, zap.NewNop())
	writerCache.Load()
	require.Zero(testInstance, writerCache.Len())
	require.False(testInstance, writerCache.Dirty())

	writerCache.Insert(testCachedFilePathConstant, contentHash, sampleFindings())
	require.True(testInstance, writerCache.Dirty())
	require.NoError(testInstance, writerCache.Save())
	require.False(testInstance, writerCache.Dirty())

	readerCache := cache.NewAuditCache(cacheDirectory, testCacheMaxAgeHours, zap.NewNop())
	readerCache.Load()
	cachedFindings, cacheHit := readerCache.Get(testCachedFilePathConstant, contentHash)
	require.True(testInstance, cacheHit)
	require.Equal(testInstance, sampleFindings(), cachedFindings)
}

func TestCacheMissOnContentChange(testInstance *testing.T) {
	auditCache := cache.NewAuditCache(testInstance.TempDir(), testCacheMaxAgeHours, zap.NewNop())
	auditCache.Insert(testCachedFilePathConstant, cache.ContentHash([]byte("old content")), sampleFindings())

	_, cacheHit := auditCache.Get(testCachedFilePathConstant, cache.ContentHash([]byte("new content")))
	require.False(testInstance, cacheHit)
}

func TestCacheSaveSkippedWhenClean(testInstance *testing.T) {
	cacheDirectory := filepath.Join(testInstance.TempDir(), "cache")
	auditCache := cache.NewAuditCache(cacheDirectory, testCacheMaxAgeHours, zap.NewNop())
	auditCache.Load()
	require.NoError(testInstance, auditCache.Save())

	_, statError := os.Stat(filepath.Join(cacheDirectory, "audit_cache.json"))
	require.True(testInstance, os.IsNotExist(statError))
}

func TestCorruptCacheDegradesToEmpty(testInstance *testing.T) {
	cacheDirectory := testInstance.TempDir()
	require.NoError(testInstance, os.WriteFile(filepath.Join(cacheDirectory, "audit_cache.json"), []byte("{not json"), 0o644))

	auditCache := cache.NewAuditCache(cacheDirectory, testCacheMaxAgeHours, zap.NewNop())
	auditCache.Load()
	require.Zero(testInstance, auditCache.Len())
}

func TestExpiredEntriesDroppedAtLoad(testInstance *testing.T) {
	cacheDirectory := filepath.Join(testInstance.TempDir(), "cache")
	contentHash := cache.ContentHash([]byte("package main\n"))
	baseTime := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	writerCache := cache.NewAuditCache(cacheDirectory, testCacheMaxAgeHours, zap.NewNop(),
		cache.WithClock(func() time.Time { return baseTime }))
	writerCache.Insert(testCachedFilePathConstant, contentHash, sampleFindings())
	require.NoError(testInstance, writerCache.Save())

	readerCache := cache.NewAuditCache(cacheDirectory, testCacheMaxAgeHours, zap.NewNop(),
		cache.WithClock(func() time.Time { return baseTime.Add(25 * time.Hour) }))
	readerCache.Load()
	_, cacheHit := readerCache.Get(testCachedFilePathConstant, contentHash)
	require.False(testInstance, cacheHit)
}

func TestDeleteRemovesCacheDirectory(testInstance *testing.T) {
	cacheDirectory := filepath.Join(testInstance.TempDir(), ".repolens", "cache")
	auditCache := cache.NewAuditCache(cacheDirectory, testCacheMaxAgeHours, zap.NewNop())
	auditCache.Insert(testCachedFilePathConstant, cache.ContentHash([]byte("content")), sampleFindings())
	require.NoError(testInstance, auditCache.Save())

	require.NoError(testInstance, auditCache.Delete())
	_, statError := os.Stat(cacheDirectory)
	require.True(testInstance, os.IsNotExist(statError))
	require.Zero(testInstance, auditCache.Len())
}

func TestContentHashIsStableHex(testInstance *testing.T) {
	firstHash := cache.ContentHash([]byte("abc"))
	secondHash := cache.ContentHash([]byte("abc"))
	require.Equal(testInstance, firstHash, secondHash)
	require.Len(testInstance, firstHash, 64)
	require.Equal(testInstance, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", firstHash)
}
