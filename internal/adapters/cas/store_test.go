package cas_test

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/shrink/internal/adapters/cas"
	"go.trai.ch/shrink/internal/core/domain"
	"go.trai.ch/shrink/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func cssSettings(precision int) domain.FormatConfig {
	return domain.NewFormatConfig(domain.FormatCSS, map[string]any{"precision": precision})
}

func newStore(t *testing.T, dir string) *cas.Store {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()

	store, err := cas.NewStore(dir, logger)
	require.NoError(t, err)
	return store
}

func readManifest(t *testing.T, dir string) domain.Manifest {
	t.Helper()
	//nolint:gosec // Test file with controlled path
	data, err := os.ReadFile(filepath.Join(dir, domain.ManifestFileName))
	require.NoError(t, err)

	var manifest domain.Manifest
	require.NoError(t, json.Unmarshal(data, &manifest))
	return manifest
}

func TestStore_OpenCreatesDirAndManifest(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".shrink", "cache")

	store := newStore(t, dir)

	assert.Equal(t, dir, store.Dir())
	assert.Equal(t, 0, store.Len())
	manifest := readManifest(t, dir)
	assert.Equal(t, domain.ManifestVersion, manifest.Version)
	assert.Empty(t, manifest.Entries)
}

func TestStore_OpenFailsWhenDirCannotBeCreated(t *testing.T) {
	tmpDir := t.TempDir()
	blocker := filepath.Join(tmpDir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	ctrl := gomock.NewController(t)
	_, err := cas.NewStore(filepath.Join(blocker, "cache"), mocks.NewMockLogger(ctrl))

	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrCacheCreateFailed.Error())
}

func TestStore_CorruptManifestFallsBackToEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.ManifestFileName), []byte("{not json"), 0o600))

	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Warn(gomock.Any()).Times(1)

	store, err := cas.NewStore(dir, logger)
	require.NoError(t, err)

	assert.Equal(t, 0, store.Len())
	assert.Equal(t, domain.ManifestVersion, readManifest(t, dir).Version)
}

func TestStore_WrongVersionIsTreatedAsCorrupt(t *testing.T) {
	dir := t.TempDir()
	content := `{"version":"0","entries":{"/a.css":{"sourceHash":"x"}}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.ManifestFileName), []byte(content), 0o600))

	store := newStore(t, dir)

	assert.Equal(t, 0, store.Len())
}

func TestStore_StoreAndLookup(t *testing.T) {
	dir := t.TempDir()
	store := newStore(t, dir)

	entry, err := store.Store("/site/a.css", "abc", 10, []byte("a{}"), cssSettings(0))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "abc.css"), entry.CompressedPath)
	assert.Equal(t, int64(10), entry.Size.Original)
	assert.Equal(t, int64(3), entry.Size.Compressed)
	assert.Less(t, entry.Size.Compressed, entry.Size.Original)

	got, ok := store.Lookup("/site/a.css", "abc", cssSettings(0))
	require.True(t, ok)
	assert.Equal(t, entry.CompressedPath, got.CompressedPath)

	data, err := store.ReadArtifact(got)
	require.NoError(t, err)
	assert.Equal(t, []byte("a{}"), data)
}

func TestStore_LookupMiss(t *testing.T) {
	store := newStore(t, t.TempDir())

	_, ok := store.Lookup("/site/missing.css", "abc", cssSettings(0))
	assert.False(t, ok)
}

func TestStore_LookupHashMismatchInvalidates(t *testing.T) {
	store := newStore(t, t.TempDir())
	entry, err := store.Store("/site/a.css", "old", 10, []byte("a{}"), cssSettings(0))
	require.NoError(t, err)

	_, ok := store.Lookup("/site/a.css", "new", cssSettings(0))

	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
	assert.NoFileExists(t, entry.CompressedPath)
}

func TestStore_LookupSettingsMismatchInvalidates(t *testing.T) {
	store := newStore(t, t.TempDir())
	entry, err := store.Store("/site/a.css", "abc", 10, []byte("a{}"), cssSettings(0))
	require.NoError(t, err)

	_, ok := store.Lookup("/site/a.css", "abc", cssSettings(2))

	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
	assert.NoFileExists(t, entry.CompressedPath)
}

func TestStore_LookupSettingsNumberSpelling(t *testing.T) {
	store := newStore(t, t.TempDir())
	_, err := store.Store("/site/a.css", "abc", 10, []byte("a{}"), cssSettings(0))
	require.NoError(t, err)

	floatSettings := domain.NewFormatConfig(domain.FormatCSS, map[string]any{"precision": 0.0})
	_, ok := store.Lookup("/site/a.css", "abc", floatSettings)

	assert.True(t, ok)
}

func TestStore_LookupMissingArtifactDropsEntry(t *testing.T) {
	store := newStore(t, t.TempDir())
	entry, err := store.Store("/site/a.css", "abc", 10, []byte("a{}"), cssSettings(0))
	require.NoError(t, err)
	require.NoError(t, os.Remove(entry.CompressedPath))

	_, ok := store.Lookup("/site/a.css", "abc", cssSettings(0))

	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestStore_PeekHasNoSideEffects(t *testing.T) {
	store := newStore(t, t.TempDir())
	_, err := store.Store("/site/a.css", "abc", 10, []byte("a{}"), cssSettings(0))
	require.NoError(t, err)

	entry, ok := store.Peek("/site/a.css")

	require.True(t, ok)
	assert.Equal(t, "abc", entry.SourceHash)
	assert.Equal(t, 1, store.Len())
	assert.FileExists(t, entry.CompressedPath)
}

func TestStore_SharedArtifactSurvivesInvalidation(t *testing.T) {
	store := newStore(t, t.TempDir())
	first, err := store.Store("/site/a.css", "same", 10, []byte("a{}"), cssSettings(0))
	require.NoError(t, err)
	second, err := store.Store("/site/b.css", "same", 10, []byte("a{}"), cssSettings(0))
	require.NoError(t, err)
	require.Equal(t, first.CompressedPath, second.CompressedPath)

	store.Invalidate("/site/a.css")

	assert.FileExists(t, second.CompressedPath)
	_, ok := store.Lookup("/site/b.css", "same", cssSettings(0))
	assert.True(t, ok)

	store.Invalidate("/site/b.css")
	assert.NoFileExists(t, second.CompressedPath)
}

func TestStore_SharedArtifactIsNotReplaced(t *testing.T) {
	store := newStore(t, t.TempDir())
	first, err := store.Store("/site/a.css", "same", 10, []byte("a{}"), cssSettings(0))
	require.NoError(t, err)

	_, err = store.Store("/site/copy/a.css", "same", 10, []byte("a {  }    "), cssSettings(0))
	require.ErrorIs(t, err, domain.ErrArtifactConflict)

	_, ok := store.Peek("/site/copy/a.css")
	assert.False(t, ok)
	data, err := store.ReadArtifact(first)
	require.NoError(t, err)
	assert.Equal(t, []byte("a{}"), data)
}

func TestStore_SharedArtifactIsReusedForEqualBytes(t *testing.T) {
	store := newStore(t, t.TempDir())
	first, err := store.Store("/site/a.css", "same", 10, []byte("a{}"), cssSettings(0))
	require.NoError(t, err)
	info, err := os.Stat(first.CompressedPath)
	require.NoError(t, err)

	second, err := store.Store("/site/copy/a.css", "same", 10, []byte("a{}"), cssSettings(0))
	require.NoError(t, err)

	assert.Equal(t, first.CompressedPath, second.CompressedPath)
	after, err := os.Stat(second.CompressedPath)
	require.NoError(t, err)
	assert.True(t, os.SameFile(info, after), "artifact must not be rewritten")
	assert.Equal(t, 2, store.Len())
}

func TestStore_VanishedSharedArtifactIsRewritten(t *testing.T) {
	store := newStore(t, t.TempDir())
	first, err := store.Store("/site/a.css", "same", 10, []byte("a{}"), cssSettings(0))
	require.NoError(t, err)
	require.NoError(t, os.Remove(first.CompressedPath))

	_, err = store.Store("/site/copy/a.css", "same", 10, []byte("a {  }"), cssSettings(0))
	require.NoError(t, err)

	_, ok := store.Peek("/site/a.css")
	assert.False(t, ok, "the entry of the vanished artifact is dropped")
	_, ok = store.Lookup("/site/copy/a.css", "same", cssSettings(0))
	assert.True(t, ok)
}

func TestStore_LookupDropsEntryWhenArtifactSizeDiffers(t *testing.T) {
	store := newStore(t, t.TempDir())
	entry, err := store.Store("/site/a.css", "abc", 10, []byte("a{}"), cssSettings(0))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(entry.CompressedPath, []byte("a {\n}\n"), 0o600))

	_, ok := store.Lookup("/site/a.css", "abc", cssSettings(0))

	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestStore_StoreRacingInvalidateKeepsArtifact(t *testing.T) {
	store := newStore(t, t.TempDir())

	for i := range 100 {
		_, err := store.Store("/site/b.css", "same", 10, []byte("a{}"), cssSettings(0))
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = store.Store("/site/a.css", "same", 10, []byte("a{}"), cssSettings(0))
		}()
		go func() {
			defer wg.Done()
			store.Invalidate("/site/b.css")
		}()
		wg.Wait()

		entry, ok := store.Peek("/site/a.css")
		require.True(t, ok)
		require.FileExists(t, entry.CompressedPath, "iteration %d", i)

		store.Invalidate("/site/a.css")
	}
}

func TestStore_InvalidateUnknownPath(t *testing.T) {
	store := newStore(t, t.TempDir())

	assert.NotPanics(t, func() { store.Invalidate("/site/none.css") })
}

func TestStore_ArtifactWithoutExtension(t *testing.T) {
	dir := t.TempDir()
	store := newStore(t, dir)

	entry, err := store.Store("/site/LICENSE", "abc", 10, []byte("x"), cssSettings(0))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "abc"), entry.CompressedPath)
}

func TestStore_FlushPersists(t *testing.T) {
	dir := t.TempDir()
	store := newStore(t, dir)
	_, err := store.Store("/site/a.css", "abc", 10, []byte("a{}"), cssSettings(0))
	require.NoError(t, err)

	require.NoError(t, store.Flush())

	manifest := readManifest(t, dir)
	require.Contains(t, manifest.Entries, "/site/a.css")
	entry := manifest.Entries["/site/a.css"]
	assert.Equal(t, "abc", entry.SourceHash)
	assert.Equal(t, domain.FormatCSS, entry.Settings.Format)

	reopened := newStore(t, dir)
	_, ok := reopened.Lookup("/site/a.css", "abc", cssSettings(0))
	assert.True(t, ok)
}

func TestStore_StoreDoesNotPersist(t *testing.T) {
	dir := t.TempDir()
	store := newStore(t, dir)

	_, err := store.Store("/site/a.css", "abc", 10, []byte("a{}"), cssSettings(0))
	require.NoError(t, err)

	assert.Empty(t, readManifest(t, dir).Entries)
}

func TestStore_ConcurrentStores(t *testing.T) {
	store := newStore(t, t.TempDir())

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			path := fmt.Sprintf("/site/file-%d.css", i)
			_, err := store.Store(path, fmt.Sprintf("hash%d", i%5), 10, []byte("a{}"), cssSettings(0))
			assert.NoError(t, err)
			_, ok := store.Lookup(path, fmt.Sprintf("hash%d", i%5), cssSettings(0))
			assert.True(t, ok)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, store.Len())
	require.NoError(t, store.Flush())
}

func TestOpener_Open(t *testing.T) {
	ctrl := gomock.NewController(t)
	opener := cas.NewOpener(mocks.NewMockLogger(ctrl))
	dir := filepath.Join(t.TempDir(), "cache")

	cache, err := opener.Open(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, cache.Dir())
	assert.DirExists(t, dir)
}
