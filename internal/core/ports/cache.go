package ports

import "go.trai.ch/shrink/internal/core/domain"

// Cache is the content-addressed compression cache of one build.
// All methods are safe for concurrent use.
//
//go:generate go run go.uber.org/mock/mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks
type Cache interface {
	// Lookup returns the entry for path if it is valid for the given hash and settings.
	// Stale entries are invalidated; entries whose artifact vanished are dropped.
	Lookup(path, hash string, settings domain.FormatConfig) (domain.CacheEntry, bool)
	// Peek returns the entry for path without validating it.
	Peek(path string) (domain.CacheEntry, bool)
	// ReadArtifact returns the cached bytes of an entry.
	ReadArtifact(entry domain.CacheEntry) ([]byte, error)
	// Store writes data as the artifact for path and records the entry in memory.
	Store(path, hash string, originalSize int64, data []byte, settings domain.FormatConfig) (domain.CacheEntry, error)
	// Invalidate removes the entry for path and, best-effort, its artifact.
	Invalidate(path string)
	// Flush persists the manifest.
	Flush() error
	// Len returns the number of entries in the manifest.
	Len() int
	// Dir returns the cache directory.
	Dir() string
}

// CacheOpener opens the cache stored in a directory.
type CacheOpener interface {
	// Open creates dir if needed and loads its manifest, falling back to an empty
	// manifest when none can be read. It fails only if dir cannot be created.
	Open(dir string) (Cache, error)
}
