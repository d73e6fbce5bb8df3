package domain

// EntrySize records the byte counts of a cache entry.
type EntrySize struct {
	Original   int64 `json:"original"`
	Compressed int64 `json:"compressed"`
}

// CacheEntry is the manifest record for one original file path.
type CacheEntry struct {
	// SourceHash is the hex digest of the original, uncompressed bytes.
	SourceHash string `json:"sourceHash"`
	// CompressedPath is the location of the cached artifact.
	CompressedPath string `json:"compressedPath"`
	// Timestamp is the creation time in epoch milliseconds. It is informative only.
	Timestamp int64        `json:"timestamp"`
	Settings  FormatConfig `json:"settings"`
	Size      EntrySize    `json:"size"`
}

// Manifest is the persisted index of all cache entries of a cache directory.
type Manifest struct {
	Version string                `json:"version"`
	Entries map[string]CacheEntry `json:"entries"`
}

// NewManifest returns an empty manifest of the current version.
func NewManifest() Manifest {
	return Manifest{
		Version: ManifestVersion,
		Entries: make(map[string]CacheEntry),
	}
}
