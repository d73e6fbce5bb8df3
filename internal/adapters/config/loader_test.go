package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/shrink/internal/adapters/config"
	"go.trai.ch/shrink/internal/core/domain"
	"go.trai.ch/shrink/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newLoader(t *testing.T) *config.Loader {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	return config.NewLoader(logger)
}

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoader_Defaults(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := newLoader(t).Load(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, tmpDir, cfg.Root)
	assert.Empty(t, cfg.Source)
	assert.Equal(t, domain.DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, domain.DefaultSettings(), cfg.Settings)
}

func TestLoader_YAML(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, "shrink.yaml", `
version: "1"
output: public
concurrency: 4
exclude: ["*.map", "vendor"]
cache:
  enabled: false
  dir: tmp/cache
formats:
  jpg:
    quality: 75
  css:
    precision: 2
  gif: false
`)

	cfg, err := newLoader(t).Load(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tmpDir, "shrink.yaml"), cfg.Source)
	assert.Equal(t, "public", cfg.OutputDir)
	assert.Equal(t, 4, cfg.Settings.Concurrency)
	assert.Equal(t, []string{"*.map", "vendor"}, cfg.Settings.Exclude)
	assert.False(t, cfg.Settings.Cache.Enabled)
	assert.Equal(t, "tmp/cache", cfg.Settings.Cache.Dir)

	assert.Equal(t, 75, cfg.Settings.Formats[domain.FormatJPEG]["quality"])
	assert.Equal(t, 2, cfg.Settings.Formats[domain.FormatCSS]["precision"])
	assert.NotContains(t, cfg.Settings.Formats, domain.FormatGIF)
	assert.Contains(t, cfg.Settings.Formats, domain.FormatPNG)
}

func TestLoader_ShallowMergeKeepsDefaultKeys(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, "shrink.yaml", `
formats:
  js:
    keepVarNames: true
`)

	cfg, err := newLoader(t).Load(tmpDir)
	require.NoError(t, err)

	js := cfg.Settings.Formats[domain.FormatJS]
	assert.Equal(t, true, js["keepVarNames"])
	assert.Equal(t, 0, js["precision"])
}

func TestLoader_JSONC(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, "shrink.jsonc", `{
  // keep the cache next to the build
  "cache": {"dir": "dist/.cache"},
  "formats": {
    "png": {"level": 6}, /* faster */
    "webp": false,
  },
}`)

	cfg, err := newLoader(t).Load(tmpDir)
	require.NoError(t, err)

	assert.True(t, cfg.Settings.Cache.Enabled)
	assert.Equal(t, "dist/.cache", cfg.Settings.Cache.Dir)
	assert.InDelta(t, 6.0, cfg.Settings.Formats[domain.FormatPNG]["level"], 0)
	assert.NotContains(t, cfg.Settings.Formats, domain.FormatWebP)
}

func TestLoader_YAMLTakesPrecedenceOverJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, "shrink.json", `{"output": "from-json"}`)
	writeConfig(t, tmpDir, "shrink.yaml", `output: from-yaml`)

	cfg, err := newLoader(t).Load(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "from-yaml", cfg.OutputDir)
}

func TestLoader_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, "shrink.yml", "")

	cfg, err := newLoader(t).Load(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultSettings(), cfg.Settings)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{
			name:    "unknown format",
			file:    "shrink.yaml",
			content: "formats:\n  bmp: false\n",
			want:    domain.ErrUnknownFormat.Error(),
		},
		{
			name:    "invalid format settings",
			file:    "shrink.yaml",
			content: "formats:\n  png: 9\n",
			want:    domain.ErrInvalidFormatSettings.Error(),
		},
		{
			name:    "duplicate alias",
			file:    "shrink.yaml",
			content: "formats:\n  jpg: false\n  jpeg: false\n",
			want:    "format configured twice",
		},
		{
			name:    "unknown field",
			file:    "shrink.yaml",
			content: "outptu: dist\n",
			want:    domain.ErrConfigParseFailed.Error(),
		},
		{
			name:    "malformed json",
			file:    "shrink.json",
			content: `{"output": `,
			want:    domain.ErrConfigParseFailed.Error(),
		},
		{
			name:    "negative concurrency",
			file:    "shrink.yaml",
			content: "concurrency: -1\n",
			want:    "concurrency must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			writeConfig(t, tmpDir, tt.file, tt.content)

			_, err := newLoader(t).Load(tmpDir)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestParse_ResolvedSettingsCompareEqualAcrossSyntaxes(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "a.yaml")
	jsonPath := filepath.Join(tmpDir, "b.json")
	require.NoError(t, os.WriteFile(yamlPath, []byte("formats:\n  css:\n    precision: 3\n"), 0o600))
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"formats": {"css": {"precision": 3.0}}}`), 0o600))

	fromYAML, err := config.Load(yamlPath)
	require.NoError(t, err)
	fromJSON, err := config.Load(jsonPath)
	require.NoError(t, err)

	left, ok := fromYAML.Settings.Resolve("/site/a.css")
	require.True(t, ok)
	right, ok := fromJSON.Settings.Resolve("/site/a.css")
	require.True(t, ok)
	assert.True(t, left.Equal(right))
}
