// Package pipeline implements the per-file optimization pipeline.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.trai.ch/shrink/internal/core/domain"
	"go.trai.ch/shrink/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Pipeline optimizes every candidate file below a root directory in place.
type Pipeline struct {
	walker     ports.Walker
	hasher     ports.Hasher
	compressor ports.Compressor
	tracer     ports.Tracer
	logger     ports.Logger
}

// New creates a new Pipeline with the given dependencies.
func New(
	walker ports.Walker,
	hasher ports.Hasher,
	compressor ports.Compressor,
	tracer ports.Tracer,
	logger ports.Logger,
) *Pipeline {
	return &Pipeline{
		walker:     walker,
		hasher:     hasher,
		compressor: compressor,
		tracer:     tracer,
		logger:     logger,
	}
}

// WithTracer returns a copy of the pipeline that records spans with tracer.
func (p *Pipeline) WithTracer(tracer ports.Tracer) *Pipeline {
	cp := *p
	cp.tracer = tracer
	return &cp
}

// Run processes root and folds the file results into a summary.
// cache may be nil to disable caching.
func (p *Pipeline) Run(ctx context.Context, root string, settings domain.Settings, cache ports.Cache) (domain.Summary, error) {
	results, err := p.Process(ctx, root, settings, cache)
	return domain.Reduce(results), err
}

// Process handles every candidate file below root and returns one result per
// handled file. Files fail individually; the returned error is only set when
// root cannot be walked or ctx is canceled, in which case the results cover
// the files handled so far.
func (p *Pipeline) Process(
	ctx context.Context,
	root string,
	settings domain.Settings,
	cache ports.Cache,
) ([]domain.FileResult, error) {
	ignores := append([]string(nil), settings.Exclude...)
	if cache != nil {
		dir, err := filepath.Abs(cache.Dir())
		if err == nil {
			ignores = append(ignores, dir)
		}
	}

	var paths []string
	for path, err := range p.walker.WalkFiles(root, ignores) {
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	results := make([]domain.FileResult, len(paths))
	started := make([]bool, len(paths))

	g := &errgroup.Group{}
	g.SetLimit(settings.Parallelism())

	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}
		started[i] = true
		g.Go(func() error {
			results[i] = p.processFile(ctx, path, settings, cache)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		handled := make([]domain.FileResult, 0, len(results))
		for i, ok := range started {
			if ok {
				handled = append(handled, results[i])
			}
		}
		return handled, err
	}
	return results, nil
}

// processFile runs every step for one file and records the file span.
func (p *Pipeline) processFile(
	ctx context.Context,
	path string,
	settings domain.Settings,
	cache ports.Cache,
) domain.FileResult {
	ctx, span := p.tracer.Start(ctx, domain.FileSpanName)
	defer span.End()

	cfg, ok := settings.Resolve(path)
	result := p.optimize(ctx, path, cfg, ok, cache)

	span.SetAttribute(domain.AttrPath, result.Path)
	span.SetAttribute(domain.AttrFormat, result.Format.String())
	span.SetAttribute(domain.AttrOutcome, result.Outcome.String())
	span.SetAttribute(domain.AttrReason, result.Reason.String())
	span.SetAttribute(domain.AttrSizeOriginal, result.OriginalSize)
	span.SetAttribute(domain.AttrSizeFinal, result.FinalSize)
	if ok {
		span.SetAttribute(domain.AttrSettingsDigest, cfg.Digest())
	}
	if result.Outcome == domain.OutcomeFailed {
		span.RecordError(result.Err)
	}

	return result
}

func (p *Pipeline) optimize(
	ctx context.Context,
	path string,
	cfg domain.FormatConfig,
	candidate bool,
	cache ports.Cache,
) domain.FileResult {
	result := domain.FileResult{Path: path, Format: cfg.Format}

	if !candidate {
		result.Outcome = domain.OutcomeSkipped
		result.Reason = domain.ReasonUnrecognizedExtension
		result.Err = domain.ErrUnrecognizedExtension
		return result
	}

	info, err := os.Stat(path)
	if err != nil {
		return p.fail(result, zerr.With(zerr.Wrap(err, domain.ErrFileReadFailed.Error()), "path", path))
	}
	//nolint:gosec // Path comes from walking the output directory
	data, err := os.ReadFile(path)
	if err != nil {
		return p.fail(result, zerr.With(zerr.Wrap(err, domain.ErrFileReadFailed.Error()), "path", path))
	}
	hash := p.hasher.ComputeHash(data)
	result.OriginalSize = int64(len(data))

	if cache != nil {
		if hit, ok := p.alreadyOptimized(cache, path, hash, data, cfg); ok {
			return hit
		}
		if hit, ok, err := p.restore(cache, path, hash, data, info.Mode(), cfg); err != nil {
			return p.fail(result, err)
		} else if ok {
			return hit
		}
	}

	out, err := p.compress(ctx, data, cfg)
	if err == nil && len(out) >= len(data) {
		err = errors.Join(domain.ErrBiggerOrEqualSize,
			zerr.With(zerr.With(zerr.New("compressed output rejected"), "original", len(data)), "compressed", len(out)))
	}

	if err != nil {
		result.Outcome = domain.OutcomeSkipped
		result.Reason = domain.ReasonOf(err)
		result.Err = err
		result.FinalSize = result.OriginalSize
		if ctxErr := ctx.Err(); ctxErr != nil {
			// An interrupted attempt says nothing about the file, so it is not cached.
			result.Reason = domain.ReasonAdapterFailure
			result.Err = errors.Join(domain.ErrAdapterFailure, ctxErr, err)
			return result
		}
		if result.Reason == domain.ReasonBiggerOrEqualSize {
			p.logger.Warn(fmt.Sprintf("%s: compressed output is not smaller, keeping the original", path))
		}
		if cache != nil {
			result.Cached = p.store(cache, path, hash, int64(len(data)), data, cfg)
		}
		return result
	}

	if err := replaceFile(path, out, info.Mode()); err != nil {
		return p.fail(result, zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "path", path))
	}

	result.Outcome = domain.OutcomeProcessed
	result.FinalSize = int64(len(out))
	if cache != nil {
		result.Cached = p.store(cache, path, hash, int64(len(data)), out, cfg)
	}
	return result
}

// alreadyOptimized reports a cache hit for a file that already holds the cached
// output of an earlier run with the same settings.
func (p *Pipeline) alreadyOptimized(
	cache ports.Cache,
	path, hash string,
	data []byte,
	cfg domain.FormatConfig,
) (domain.FileResult, bool) {
	entry, ok := cache.Peek(path)
	if !ok || entry.SourceHash == hash || entry.Size.Compressed != int64(len(data)) || !entry.Settings.Equal(cfg) {
		return domain.FileResult{}, false
	}

	artifact, err := cache.ReadArtifact(entry)
	if err != nil || !bytes.Equal(artifact, data) {
		return domain.FileResult{}, false
	}

	return hitResult(path, cfg, entry), true
}

// restore serves a valid cache entry by writing its artifact over path.
func (p *Pipeline) restore(
	cache ports.Cache,
	path, hash string,
	data []byte,
	mode os.FileMode,
	cfg domain.FormatConfig,
) (domain.FileResult, bool, error) {
	entry, ok := cache.Lookup(path, hash, cfg)
	if !ok {
		return domain.FileResult{}, false, nil
	}

	artifact, err := cache.ReadArtifact(entry)
	if err != nil {
		p.logger.Warn(fmt.Sprintf("%s: cached artifact is unreadable, compressing again", path))
		cache.Invalidate(path)
		return domain.FileResult{}, false, nil
	}

	if !bytes.Equal(artifact, data) {
		if err := replaceFile(path, artifact, mode); err != nil {
			return domain.FileResult{}, false, zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "path", path)
		}
	}

	return hitResult(path, cfg, entry), true, nil
}

func hitResult(path string, cfg domain.FormatConfig, entry domain.CacheEntry) domain.FileResult {
	return domain.FileResult{
		Path:         path,
		Format:       cfg.Format,
		Outcome:      domain.OutcomeCacheHit,
		OriginalSize: entry.Size.Original,
		FinalSize:    entry.Size.Compressed,
	}
}

// compress calls the compressor and turns a panic into an adapter failure.
func (p *Pipeline) compress(ctx context.Context, data []byte, cfg domain.FormatConfig) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = errors.Join(domain.ErrAdapterFailure, zerr.With(zerr.New("compressor panicked"), "panic", fmt.Sprint(r)))
		}
	}()
	return p.compressor.Compress(ctx, data, cfg)
}

func (p *Pipeline) store(
	cache ports.Cache,
	path, hash string,
	originalSize int64,
	data []byte,
	cfg domain.FormatConfig,
) bool {
	if _, err := cache.Store(path, hash, originalSize, data, cfg); err != nil {
		if errors.Is(err, domain.ErrArtifactConflict) {
			p.logger.Warn(fmt.Sprintf("%s: not cached, the shared artifact holds a different result", path))
			return false
		}
		p.logger.Error(err)
		return false
	}
	return true
}

func (p *Pipeline) fail(result domain.FileResult, err error) domain.FileResult {
	p.logger.Error(err)
	result.Outcome = domain.OutcomeFailed
	result.Reason = domain.ReasonIOFailure
	result.Err = err
	return result
}

// replaceFile writes data next to path and renames it over path, keeping mode.
func replaceFile(path string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, mode.Perm()); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
