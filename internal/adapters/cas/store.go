// Package cas implements the content-addressed compression cache.
package cas

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.trai.ch/shrink/internal/core/domain"
	"go.trai.ch/shrink/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.Cache       = (*Store)(nil)
	_ ports.CacheOpener = (*Opener)(nil)
)

// Opener opens cache stores, sharing one logger between them.
type Opener struct {
	logger ports.Logger
}

// NewOpener creates a new Opener.
func NewOpener(logger ports.Logger) *Opener {
	return &Opener{logger: logger}
}

// Open implements ports.CacheOpener.
func (o *Opener) Open(dir string) (ports.Cache, error) {
	return NewStore(dir, o.logger)
}

// Store implements ports.Cache with a JSON manifest and one artifact file per entry.
type Store struct {
	dir      string
	logger   ports.Logger
	mu       sync.RWMutex
	manifest domain.Manifest
	now      func() time.Time
}

// NewStore opens the cache in dir, creating the directory when needed.
// An unreadable, corrupt or outdated manifest is replaced by an empty one.
func NewStore(dir string, logger ports.Logger) (*Store, error) {
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheCreateFailed.Error()), "dir", dir)
	}

	s := &Store{
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}

	manifest, found, err := s.load()
	if err != nil {
		s.logger.Warn("cache manifest is unusable, starting with an empty cache: " + err.Error())
	}
	if !found || err != nil {
		s.manifest = domain.NewManifest()
		if err := s.Flush(); err != nil {
			s.logger.Error(err)
		}
		return s, nil
	}
	s.manifest = manifest
	return s, nil
}

func (s *Store) manifestPath() string {
	return filepath.Join(s.dir, domain.ManifestFileName)
}

// load reads the manifest. found is false when no manifest exists yet.
func (s *Store) load() (manifest domain.Manifest, found bool, err error) {
	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.manifestPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Manifest{}, false, nil
		}
		return domain.Manifest{}, true, zerr.Wrap(err, "failed to read manifest")
	}

	if err := json.Unmarshal(data, &manifest); err != nil {
		return domain.Manifest{}, true, zerr.Wrap(err, "failed to unmarshal manifest")
	}
	if manifest.Version != domain.ManifestVersion {
		return domain.Manifest{}, true, zerr.With(zerr.New("unsupported manifest version"), "version", manifest.Version)
	}
	if manifest.Entries == nil {
		manifest.Entries = make(map[string]domain.CacheEntry)
	}
	return manifest, true, nil
}

// Lookup implements ports.Cache.
func (s *Store) Lookup(path, hash string, settings domain.FormatConfig) (domain.CacheEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.manifest.Entries[path]
	if !ok {
		return domain.CacheEntry{}, false
	}

	if entry.SourceHash != hash || !entry.Settings.Equal(settings) {
		s.invalidateLocked(path)
		return domain.CacheEntry{}, false
	}

	info, err := os.Stat(entry.CompressedPath)
	if err != nil {
		// The artifact vanished; nothing is left to delete.
		delete(s.manifest.Entries, path)
		return domain.CacheEntry{}, false
	}
	if info.Size() != entry.Size.Compressed {
		// The artifact no longer matches the recorded entry.
		delete(s.manifest.Entries, path)
		return domain.CacheEntry{}, false
	}

	return entry, true
}

// Peek implements ports.Cache.
func (s *Store) Peek(path string) (domain.CacheEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.manifest.Entries[path]
	return entry, ok
}

// ReadArtifact implements ports.Cache.
func (s *Store) ReadArtifact(entry domain.CacheEntry) ([]byte, error) {
	//nolint:gosec // Artifact paths are produced by the store itself
	data, err := os.ReadFile(entry.CompressedPath)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheReadFailed.Error()), "path", entry.CompressedPath)
	}
	return data, nil
}

// Store implements ports.Cache. An artifact referenced by another entry is
// never replaced with different bytes; ErrArtifactConflict is returned instead.
func (s *Store) Store(
	path, hash string,
	originalSize int64,
	data []byte,
	settings domain.FormatConfig,
) (domain.CacheEntry, error) {
	artifact := filepath.Join(s.dir, domain.ArtifactName(hash, path))
	entry := domain.CacheEntry{
		SourceHash:     hash,
		CompressedPath: artifact,
		Timestamp:      s.now().UnixMilli(),
		Settings:       domain.NewFormatConfig(settings.Format, settings.Config),
		Size: domain.EntrySize{
			Original:   originalSize,
			Compressed: int64(len(data)),
		},
	}

	// The lock covers the write so that invalidation of another path cannot
	// remove the artifact between the rename and the insert.
	s.mu.Lock()
	defer s.mu.Unlock()

	write, err := s.claimLocked(path, artifact, data)
	if err != nil {
		return domain.CacheEntry{}, err
	}
	if write {
		if err := writeAtomic(artifact, data); err != nil {
			return domain.CacheEntry{}, zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "path", artifact)
		}
	}

	s.manifest.Entries[path] = entry
	return entry, nil
}

// claimLocked decides whether artifact has to be written for path. Entries of
// other paths that point at a vanished artifact are dropped.
func (s *Store) claimLocked(path, artifact string, data []byte) (bool, error) {
	var sharers []string
	for other, e := range s.manifest.Entries {
		if other != path && e.CompressedPath == artifact {
			sharers = append(sharers, other)
		}
	}
	if len(sharers) == 0 {
		return true, nil
	}

	//nolint:gosec // Artifact paths are produced by the store itself
	existing, err := os.ReadFile(artifact)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		for _, other := range sharers {
			delete(s.manifest.Entries, other)
		}
		return true, nil
	case err != nil:
		return false, zerr.With(zerr.Wrap(err, domain.ErrCacheReadFailed.Error()), "path", artifact)
	case bytes.Equal(existing, data):
		return false, nil
	default:
		return false, errors.Join(domain.ErrArtifactConflict, zerr.With(zerr.New("refusing to replace artifact"), "path", artifact))
	}
}

// Invalidate implements ports.Cache.
func (s *Store) Invalidate(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked(path)
}

func (s *Store) invalidateLocked(path string) {
	entry, ok := s.manifest.Entries[path]
	if !ok {
		return
	}
	delete(s.manifest.Entries, path)

	for _, other := range s.manifest.Entries {
		if other.CompressedPath == entry.CompressedPath {
			return
		}
	}

	if err := os.Remove(entry.CompressedPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("failed to delete cache artifact " + entry.CompressedPath + ": " + err.Error())
	}
}

// Flush implements ports.Cache.
func (s *Store) Flush() error {
	s.mu.RLock()
	// encoding/json writes map keys in sorted order.
	data, err := json.MarshalIndent(s.manifest, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return zerr.Wrap(err, domain.ErrManifestMarshalFailed.Error())
	}

	if err := writeAtomic(s.manifestPath(), data); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrManifestWriteFailed.Error()), "path", s.manifestPath())
	}
	return nil
}

// Len implements ports.Cache.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.manifest.Entries)
}

// Dir implements ports.Cache.
func (s *Store) Dir() string {
	return s.dir
}

// writeAtomic writes data next to path and renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
