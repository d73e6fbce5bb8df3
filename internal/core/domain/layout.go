package domain

import "path/filepath"

const (
	// ShrinkDirName is the name of the tool-private project directory.
	ShrinkDirName = ".shrink"
	// CacheDirName is the name of the compression cache directory.
	CacheDirName = "cache"
	// ManifestFileName is the name of the manifest inside the cache directory.
	ManifestFileName = "manifest.json"
	// ManifestVersion is the manifest schema version written by this build.
	ManifestVersion = "1"
	// DefaultOutputDir is the build output directory used when none is configured.
	DefaultOutputDir = "dist"
	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750
	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// ConfigFileNames lists the configuration files looked up in the project root, in order.
var ConfigFileNames = []string{"shrink.yaml", "shrink.yml", "shrink.jsonc", "shrink.json"}

// DefaultCachePath returns the default cache directory relative to the project root.
// It joins .shrink and cache.
func DefaultCachePath() string {
	return filepath.Join(ShrinkDirName, CacheDirName)
}

// ArtifactName returns the cache file name for content with the given hash,
// taken from a file with the given path.
func ArtifactName(sourceHash, originalPath string) string {
	ext := Extension(originalPath)
	if ext == "" {
		return sourceHash
	}
	return sourceHash + "." + ext
}
