package domain

import "go.trai.ch/zerr"

var (
	// ErrUnknownFormat is returned when a format name is not part of the supported set.
	ErrUnknownFormat = zerr.New("unknown format")

	// ErrBiggerOrEqualSize marks a compression result that is not smaller than its input.
	ErrBiggerOrEqualSize = zerr.New("compressed size is not smaller than the original")

	// ErrUnknownMediaFormat marks input bytes the adapter could not decode.
	ErrUnknownMediaFormat = zerr.New("unknown media format")

	// ErrNoOutputProduced marks an adapter call that returned no bytes.
	ErrNoOutputProduced = zerr.New("no output produced")

	// ErrAdapterFailure marks a failure reported by a compression adapter.
	ErrAdapterFailure = zerr.New("compression adapter failed")

	// ErrUnrecognizedExtension marks a file that is not a compression candidate.
	ErrUnrecognizedExtension = zerr.New("unrecognized extension")

	// ErrFileReadFailed is returned when a candidate file cannot be read.
	ErrFileReadFailed = zerr.New("failed to read file")

	// ErrFileWriteFailed is returned when a candidate file cannot be written.
	ErrFileWriteFailed = zerr.New("failed to write file")

	// ErrWalkFailed is returned when the output directory cannot be walked.
	ErrWalkFailed = zerr.New("failed to walk output directory")

	// ErrCacheCreateFailed is returned when the cache directory cannot be created.
	ErrCacheCreateFailed = zerr.New("failed to create cache directory")

	// ErrCacheWriteFailed is returned when a cache artifact cannot be written.
	ErrCacheWriteFailed = zerr.New("failed to write cache artifact")

	// ErrArtifactConflict is returned when an artifact shared with another entry holds different bytes.
	ErrArtifactConflict = zerr.New("cache artifact is shared with different content")

	// ErrCacheReadFailed is returned when a cache artifact cannot be read.
	ErrCacheReadFailed = zerr.New("failed to read cache artifact")

	// ErrManifestMarshalFailed is returned when the manifest cannot be serialized.
	ErrManifestMarshalFailed = zerr.New("failed to marshal manifest")

	// ErrManifestWriteFailed is returned when the manifest cannot be written.
	ErrManifestWriteFailed = zerr.New("failed to write manifest")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidFormatSettings is returned when a format entry is neither false nor a mapping.
	ErrInvalidFormatSettings = zerr.New("format settings must be false or a mapping")

	// ErrNotConfigured is returned when a build finishes before it was configured.
	ErrNotConfigured = zerr.New("build was not configured")

	// ErrOutputDirNotFound is returned when the output directory does not exist.
	ErrOutputDirNotFound = zerr.New("output directory not found")

	// ErrOptimizeFailed is returned when the optimization run fails as a whole.
	ErrOptimizeFailed = zerr.New("optimization failed")
)
