package domain

import (
	"encoding/json"
	"maps"
	"runtime"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// FormatConfig is the fingerprint unit compared for cache invalidation:
// a format identifier together with the effective settings used for it.
type FormatConfig struct {
	Format Format         `json:"format"`
	Config map[string]any `json:"config"`
}

// NewFormatConfig returns a FormatConfig whose settings are normalized to the
// JSON data model, so that values loaded from YAML, JSON or Go literals compare equal.
func NewFormatConfig(format Format, config map[string]any) FormatConfig {
	return FormatConfig{Format: format, Config: normalizeConfig(config)}
}

// Equal reports whether both configs are structurally equal.
// Key order and integer/float spelling of numbers do not matter.
func (c FormatConfig) Equal(other FormatConfig) bool {
	if c.Format != other.Format {
		return false
	}
	left, right := normalizeConfig(c.Config), normalizeConfig(other.Config)
	if digestOf(c.Format, left) != digestOf(other.Format, right) {
		return false
	}
	return cmp.Equal(left, right, cmpopts.EquateEmpty())
}

// Digest returns a 64-bit digest of the canonical encoding of the config.
// Equal configs always have equal digests.
func (c FormatConfig) Digest() uint64 {
	return digestOf(c.Format, normalizeConfig(c.Config))
}

// Decode unmarshals the settings into a typed options struct.
func (c FormatConfig) Decode(v any) error {
	data, err := json.Marshal(c.Config)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func digestOf(format Format, config map[string]any) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(format.String())
	_, _ = d.Write([]byte{0})
	// encoding/json sorts map keys, which makes the encoding canonical.
	data, err := json.Marshal(config)
	if err == nil {
		_, _ = d.Write(data)
	}
	return d.Sum64()
}

func normalizeConfig(config map[string]any) map[string]any {
	if len(config) == 0 {
		return map[string]any{}
	}
	data, err := json.Marshal(config)
	if err != nil {
		return config
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return config
	}
	return out
}

// CacheSettings configures the compression cache.
type CacheSettings struct {
	Enabled bool
	// Dir is the cache directory. Relative paths are resolved against the project root.
	Dir string
}

// Settings is the settings bundle consumed by the pipeline.
type Settings struct {
	// Formats holds the effective settings per enabled format.
	// A format missing from the map is disabled.
	Formats     map[Format]map[string]any
	Cache       CacheSettings
	Concurrency int
	// Exclude lists glob patterns matched against file and directory names.
	Exclude []string
}

// DefaultSettings returns the default settings: caching enabled and every format
// enabled with maximum compression effort.
func DefaultSettings() Settings {
	return Settings{
		Formats: DefaultFormatSettings(),
		Cache: CacheSettings{
			Enabled: true,
			Dir:     DefaultCachePath(),
		},
	}
}

// DefaultFormatSettings returns a fresh copy of the per-format defaults.
func DefaultFormatSettings() map[Format]map[string]any {
	return map[Format]map[string]any{
		FormatCSS: {"precision": 0},
		FormatHTML: {
			"keepComments":        false,
			"keepDefaultAttrVals": false,
			"keepDocumentTags":    false,
			"keepEndTags":         false,
			"keepQuotes":          false,
			"keepWhitespace":      false,
		},
		FormatJS:   {"precision": 0, "keepVarNames": false},
		FormatSVG:  {"precision": 0, "keepComments": false},
		FormatSVGZ: {"precision": 0, "level": 9},
		FormatAVIF: {"effort": 9, "lossless": true},
		FormatGIF:  {"numColors": 256},
		FormatHEIF: {"effort": 9, "lossless": true},
		FormatJPEG: {"quality": 90},
		FormatPNG:  {"level": 9},
		FormatTIFF: {"compression": "deflate", "predictor": true},
		FormatWebP: {"effort": 9, "lossless": true},
	}
}

// Resolve maps a path to its format and effective settings.
// It reports false for unknown extensions and disabled formats.
func (s Settings) Resolve(path string) (FormatConfig, bool) {
	format, ok := FormatFromPath(path)
	if !ok {
		return FormatConfig{}, false
	}
	config, enabled := s.Formats[format]
	if !enabled {
		return FormatConfig{}, false
	}
	return NewFormatConfig(format, config), true
}

// Parallelism returns the number of files processed concurrently.
func (s Settings) Parallelism() int {
	if s.Concurrency > 0 {
		return s.Concurrency
	}
	return runtime.NumCPU()
}

// Clone returns a deep enough copy of s for callers to modify formats safely.
func (s Settings) Clone() Settings {
	out := s
	out.Formats = make(map[Format]map[string]any, len(s.Formats))
	for f, config := range s.Formats {
		out.Formats[f] = maps.Clone(config)
	}
	out.Exclude = append([]string(nil), s.Exclude...)
	return out
}
