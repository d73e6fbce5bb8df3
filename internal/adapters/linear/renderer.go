// Package linear provides a synchronous, line-oriented renderer.
package linear

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"
	"go.trai.ch/shrink/internal/core/domain"
	"go.trai.ch/shrink/internal/core/ports"
	"go.trai.ch/shrink/internal/ui/output"
	"go.trai.ch/shrink/internal/ui/style"
)

var _ ports.Renderer = (*Renderer)(nil)

// Options configures a Renderer.
type Options struct {
	// Verbose prints one line per file.
	Verbose bool
	// JSON prints one JSON object per file and one for the summary.
	JSON bool
	// Root shortens file paths to be relative to it.
	Root string
}

// Renderer implements ports.Renderer by writing lines to an io.Writer.
type Renderer struct {
	mu     sync.Mutex
	w      io.Writer
	output *termenv.Output
	opts   Options
}

// NewRenderer creates a new Renderer. A nil writer means os.Stdout.
func NewRenderer(w io.Writer, opts Options) *Renderer {
	if w == nil {
		w = os.Stdout
	}
	return &Renderer{
		w:      w,
		output: output.New(w),
		opts:   opts,
	}
}

type fileLine struct {
	Path         string `json:"path"`
	Format       string `json:"format"`
	Outcome      string `json:"outcome"`
	Reason       string `json:"reason,omitempty"`
	OriginalSize int64  `json:"originalSize"`
	FinalSize    int64  `json:"finalSize"`
	DurationMS   int64  `json:"durationMs"`
	Error        string `json:"error,omitempty"`
}

type summaryLine struct {
	Processed       int   `json:"processed"`
	CacheHits       int   `json:"cacheHits"`
	Skipped         int   `json:"skipped"`
	Failed          int   `json:"failed"`
	OriginalBytes   int64 `json:"originalBytes"`
	CompressedBytes int64 `json:"compressedBytes"`
	SavedBytes      int64 `json:"savedBytes"`
	CacheEntries    int   `json:"cacheEntries,omitempty"`
}

// OnFileComplete prints the file in verbose or JSON mode.
func (r *Renderer) OnFileComplete(e domain.FileEvent) {
	if !r.opts.Verbose && !r.opts.JSON {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	path := r.relative(e.Path)

	if r.opts.JSON {
		line := fileLine{
			Path:         path,
			Format:       e.Format,
			Outcome:      e.Outcome.String(),
			Reason:       e.Reason,
			OriginalSize: e.OriginalSize,
			FinalSize:    e.FinalSize,
			DurationMS:   e.Duration.Milliseconds(),
		}
		if e.Err != nil {
			line.Error = e.Err.Error()
		}
		r.writeJSON(line)
		return
	}

	var text string
	var color termenv.Color
	switch e.Outcome {
	case domain.OutcomeProcessed:
		text = fmt.Sprintf("%s %s %s %s %s", style.Check, path,
			humanize.Bytes(uint64(e.OriginalSize)), style.Arrow, humanize.Bytes(uint64(e.FinalSize)))
		color = r.output.Color(string(style.Green))
	case domain.OutcomeCacheHit:
		text = fmt.Sprintf("%s %s %s %s %s (cached)", style.Recycle, path,
			humanize.Bytes(uint64(e.OriginalSize)), style.Arrow, humanize.Bytes(uint64(e.FinalSize)))
		color = r.output.Color(string(style.Cyan))
	case domain.OutcomeSkipped:
		text = fmt.Sprintf("%s %s skipped: %s", style.Dash, path, e.Reason)
		color = r.output.Color(string(style.Slate))
	case domain.OutcomeFailed:
		text = fmt.Sprintf("%s %s failed", style.Cross, path)
		if e.Err != nil {
			text += ": " + e.Err.Error()
		}
		color = r.output.Color(string(style.Red))
	}

	_, _ = fmt.Fprintln(r.w, r.output.String(text).Foreground(color).String())
}

// OnSummary prints the aggregated counters.
func (r *Renderer) OnSummary(s domain.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.opts.JSON {
		r.writeJSON(summaryLine{
			Processed:       s.Processed,
			CacheHits:       s.CacheHits,
			Skipped:         s.Skipped,
			Failed:          s.Failed,
			OriginalBytes:   s.OriginalBytes,
			CompressedBytes: s.CompressedBytes,
			SavedBytes:      s.Saved(),
			CacheEntries:    s.CacheEntries,
		})
		return
	}

	counts := fmt.Sprintf("%d processed, %d cache hits, %d skipped, %d failed",
		s.Processed, s.CacheHits, s.Skipped, s.Failed)
	_, _ = fmt.Fprintln(r.w, r.output.String(counts).Foreground(r.output.Color(string(style.Accent))).String())

	saved := fmt.Sprintf("saved %s of %s (%.1f%%)",
		humanize.Bytes(uint64(max(s.Saved(), 0))), humanize.Bytes(uint64(s.OriginalBytes)), savedPercent(s))
	color := r.output.Color(string(style.Green))
	if s.Saved() <= 0 {
		color = r.output.Color(string(style.Slate))
	}
	_, _ = fmt.Fprintln(r.w, r.output.String(saved).Foreground(color).String())

	if s.CacheEntries > 0 {
		entries := fmt.Sprintf("cache holds %d %s", s.CacheEntries, plural(s.CacheEntries, "entry", "entries"))
		_, _ = fmt.Fprintln(r.w, r.output.String(entries).Foreground(r.output.Color(string(style.Slate))).String())
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func savedPercent(s domain.Summary) float64 {
	if s.OriginalBytes <= 0 {
		return 0
	}
	return float64(s.Saved()) * 100 / float64(s.OriginalBytes)
}

func (r *Renderer) relative(path string) string {
	if r.opts.Root == "" {
		return path
	}
	rel, err := filepath.Rel(r.opts.Root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// writeJSON must be called with mu held.
func (r *Renderer) writeJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = r.w.Write(append(data, '\n'))
}
