// Package fs provides file system adapters for walking and hashing files.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
	"strings"

	"go.trai.ch/shrink/internal/core/domain"
	"go.trai.ch/shrink/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Walker = (*Walker)(nil)

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields the absolute path of every regular file under root.
// Directories named .git are always skipped. Relative ignore patterns are globs
// matched against entry names; absolute ignore patterns exclude that path and
// everything below it.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			yield("", zerr.With(zerr.Wrap(err, domain.ErrWalkFailed.Error()), "root", root))
			return
		}

		walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if w.shouldSkip(path, d, ignores) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Symlinks, sockets and devices are not candidates.
			if !d.Type().IsRegular() {
				return nil
			}

			if !yield(path, nil) {
				return filepath.SkipAll
			}
			return nil
		})
		if walkErr != nil {
			yield("", zerr.With(zerr.Wrap(walkErr, domain.ErrWalkFailed.Error()), "root", absRoot))
		}
	}
}

// shouldSkip reports whether an entry is excluded by the built-in rules or the ignore patterns.
func (w *Walker) shouldSkip(path string, d fs.DirEntry, ignores []string) bool {
	name := d.Name()

	if d.IsDir() && name == ".git" {
		return true
	}

	for _, ignore := range ignores {
		if filepath.IsAbs(ignore) {
			clean := filepath.Clean(ignore)
			if path == clean || strings.HasPrefix(path, clean+string(filepath.Separator)) {
				return true
			}
			continue
		}
		if matched, _ := filepath.Match(ignore, name); matched {
			return true
		}
	}
	return false
}
