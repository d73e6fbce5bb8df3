// Package app implements the application layer for shrink.
package app

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/shrink/internal/adapters/linear"
	"go.trai.ch/shrink/internal/adapters/telemetry"
	"go.trai.ch/shrink/internal/core/domain"
	"go.trai.ch/shrink/internal/core/ports"
	"go.trai.ch/shrink/internal/engine/pipeline"
	"go.trai.ch/zerr"
)

// jsonSwitcher is implemented by loggers that can emit JSON.
type jsonSwitcher interface {
	SetJSON(enable bool)
}

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	cacheOpener  ports.CacheOpener
	pipeline     *pipeline.Pipeline
	logger       ports.Logger
	stdout       io.Writer

	mu    sync.Mutex
	build *buildState
}

// buildState is what OnBuildConfigured hands over to OnBuildFinished.
type buildState struct {
	root     string
	settings domain.Settings
	// cache is nil when caching is disabled.
	cache ports.Cache
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	opener ports.CacheOpener,
	pipe *pipeline.Pipeline,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		cacheOpener:  opener,
		pipeline:     pipe,
		logger:       log,
		stdout:       os.Stdout,
	}
}

// WithOutput sets the writer the run report is printed to.
func (a *App) WithOutput(w io.Writer) *App {
	a.stdout = w
	return a
}

// OnBuildConfigured prepares a build rooted at rootDir: it records the settings
// and opens the cache. A cache that cannot be opened disables caching for the
// build instead of failing it.
func (a *App) OnBuildConfigured(_ context.Context, rootDir string, settings domain.Settings) error {
	root, err := filepath.Abs(rootDir)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to resolve project root"), "root", rootDir)
	}

	state := &buildState{root: root, settings: settings.Clone()}

	if settings.Cache.Enabled {
		dir := resolve(root, settings.Cache.Dir, domain.DefaultCachePath())
		cache, err := a.cacheOpener.Open(dir)
		if err != nil {
			a.logger.Error(err)
			a.logger.Warn("caching is disabled for this build")
		} else {
			state.cache = cache
		}
	}

	a.mu.Lock()
	a.build = state
	a.mu.Unlock()
	return nil
}

// OnBuildFinished optimizes every file below outputDir, persists the cache
// manifest and returns the counters. Relative output directories are resolved
// against the configured root.
func (a *App) OnBuildFinished(ctx context.Context, outputDir string) (domain.Summary, error) {
	return a.finish(ctx, outputDir, a.pipeline)
}

func (a *App) finish(ctx context.Context, outputDir string, pipe *pipeline.Pipeline) (domain.Summary, error) {
	a.mu.Lock()
	state := a.build
	a.mu.Unlock()

	if state == nil {
		return domain.Summary{}, domain.ErrNotConfigured
	}

	dir := resolve(state.root, outputDir, domain.DefaultOutputDir)
	info, err := os.Stat(dir)
	if err != nil {
		return domain.Summary{}, zerr.With(zerr.Wrap(err, domain.ErrOutputDirNotFound.Error()), "dir", dir)
	}
	if !info.IsDir() {
		return domain.Summary{}, zerr.With(domain.ErrOutputDirNotFound, "dir", dir)
	}

	summary, err := pipe.Run(ctx, dir, state.settings, state.cache)
	if err != nil {
		// The manifest keeps the state of the last complete run.
		return summary, errors.Join(domain.ErrOptimizeFailed, err)
	}

	if state.cache != nil {
		if err := state.cache.Flush(); err != nil {
			a.logger.Error(err)
		}
		summary.CacheEntries = state.cache.Len()
	}
	return summary, nil
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	// Dir overrides the configured output directory.
	Dir         string
	NoCache     bool
	CacheDir    string
	Concurrency int
	Verbose     bool
	JSON        bool
}

// Run loads the configuration from the working directory, optimizes the output
// directory and prints the report.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	if opts.JSON {
		if l, ok := a.logger.(jsonSwitcher); ok {
			l.SetJSON(true)
		}
	}

	cfg, err := a.configLoader.Load(".")
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	settings := cfg.Settings.Clone()
	if opts.NoCache {
		settings.Cache.Enabled = false
	}
	if opts.CacheDir != "" {
		settings.Cache.Dir = opts.CacheDir
	}
	if opts.Concurrency > 0 {
		settings.Concurrency = opts.Concurrency
	}

	outputDir := cfg.OutputDir
	if opts.Dir != "" {
		outputDir = opts.Dir
	}

	renderer := linear.NewRenderer(a.stdout, linear.Options{
		Verbose: opts.Verbose,
		JSON:    opts.JSON,
		Root:    resolve(cfg.Root, outputDir, domain.DefaultOutputDir),
	})

	tp := telemetry.NewProvider(telemetry.NewBridge(renderer))
	defer func() {
		_ = tp.Shutdown(context.WithoutCancel(ctx))
	}()
	tracer := telemetry.NewOTelTracerFromProvider(tp, telemetry.InstrumentationName)

	if err := a.OnBuildConfigured(ctx, cfg.Root, settings); err != nil {
		return err
	}

	summary, err := a.finish(ctx, outputDir, a.pipeline.WithTracer(tracer))
	if err != nil {
		return err
	}

	renderer.OnSummary(summary)
	return nil
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	// CacheDir overrides the configured cache directory.
	CacheDir string
}

// Clean removes the cache directory.
func (a *App) Clean(_ context.Context, opts CleanOptions) error {
	cfg, err := a.configLoader.Load(".")
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	dir := opts.CacheDir
	if dir == "" {
		dir = cfg.Settings.Cache.Dir
	}
	dir = resolve(cfg.Root, dir, domain.DefaultCachePath())

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		a.logger.Info("cache is already empty")
		return nil
	}

	if err := os.RemoveAll(dir); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to remove cache"), "dir", dir)
	}
	a.logger.Info("removed cache " + dir)
	return nil
}

// resolve returns path made absolute against root, or fallback when path is empty.
func resolve(root, path, fallback string) string {
	if path == "" {
		path = fallback
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}
