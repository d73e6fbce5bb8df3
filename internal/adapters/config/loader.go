// Package config provides the configuration loader for shrink.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
	"go.trai.ch/shrink/internal/core/domain"
	"go.trai.ch/shrink/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader by looking up a shrink config file in a directory.
type Loader struct {
	logger ports.Logger
}

// NewLoader creates a new Loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads the configuration from the given working directory.
// The first existing file of domain.ConfigFileNames wins; without one, defaults apply.
func (l *Loader) Load(cwd string) (*domain.Config, error) {
	root, err := filepath.Abs(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	for _, name := range domain.ConfigFileNames {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
		}

		cfg, err := Load(path)
		if err != nil {
			return nil, err
		}
		if cfg.Source != "" && l.logger != nil {
			l.logger.Info("using configuration " + name)
		}
		return cfg, nil
	}

	return defaultConfig(root), nil
}

func defaultConfig(root string) *domain.Config {
	return &domain.Config{
		Root:      root,
		OutputDir: domain.DefaultOutputDir,
		Settings:  domain.DefaultSettings(),
	}
}

// Load reads a configuration file from the given path. The decoder is chosen by extension.
func Load(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	file, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}

	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	cfg, err := file.toDomain(root)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	cfg.Source = path
	return cfg, nil
}

// Parse decodes raw configuration. ext selects the syntax: ".json" and ".jsonc"
// are read as JSON with comments, anything else as YAML.
func Parse(data []byte, ext string) (*Shrinkfile, error) {
	var file Shrinkfile

	switch ext {
	case ".json", ".jsonc":
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&file); err != nil {
			return nil, zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return nil, zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
		}
	}

	return &file, nil
}

func (f *Shrinkfile) toDomain(root string) (*domain.Config, error) {
	cfg := defaultConfig(root)

	if f.Output != "" {
		cfg.OutputDir = f.Output
	}

	if f.Concurrency < 0 {
		return nil, zerr.With(zerr.New("concurrency must not be negative"), "concurrency", f.Concurrency)
	}
	cfg.Settings.Concurrency = f.Concurrency
	cfg.Settings.Exclude = f.Exclude

	if f.Cache != nil {
		if f.Cache.Enabled != nil {
			cfg.Settings.Cache.Enabled = *f.Cache.Enabled
		}
		if f.Cache.Dir != "" {
			cfg.Settings.Cache.Dir = f.Cache.Dir
		}
	}

	formats, err := mergeFormats(cfg.Settings.Formats, f.Formats)
	if err != nil {
		return nil, err
	}
	cfg.Settings.Formats = formats

	return cfg, nil
}

// mergeFormats applies user format entries over the defaults. A mapping overrides
// default keys one by one, false disables the format and true keeps the defaults.
func mergeFormats(defaults map[domain.Format]map[string]any, user map[string]any) (map[domain.Format]map[string]any, error) {
	seen := make(map[domain.Format]string, len(user))

	for name, raw := range user {
		format, ok := domain.ParseFormat(name)
		if !ok {
			return nil, zerr.With(domain.ErrUnknownFormat, "format", name)
		}
		if prev, dup := seen[format]; dup {
			return nil, zerr.With(zerr.With(zerr.New("format configured twice"), "format", name), "other", prev)
		}
		seen[format] = name

		switch v := raw.(type) {
		case bool:
			if !v {
				delete(defaults, format)
			}
		case map[string]any:
			merged := maps.Clone(defaults[format])
			if merged == nil {
				merged = make(map[string]any, len(v))
			}
			maps.Copy(merged, v)
			defaults[format] = merged
		case nil:
			// An empty YAML entry keeps the defaults.
		default:
			return nil, zerr.With(domain.ErrInvalidFormatSettings, "format", name)
		}
	}

	return defaults, nil
}
