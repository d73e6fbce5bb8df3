package linear_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/shrink/internal/adapters/linear"
	"go.trai.ch/shrink/internal/core/domain"
)

func events() []domain.FileEvent {
	return []domain.FileEvent{
		{Path: "/site/css/a.css", Format: "css", Outcome: domain.OutcomeProcessed, OriginalSize: 2000, FinalSize: 800},
		{Path: "/site/js/app.js", Format: "js", Outcome: domain.OutcomeCacheHit, OriginalSize: 1000, FinalSize: 400},
		{Path: "/site/img/photo.webp", Format: "webp", Outcome: domain.OutcomeSkipped, Reason: "adapter-failure"},
		{
			Path:    "/site/broken.css",
			Format:  "css",
			Outcome: domain.OutcomeFailed,
			Reason:  "io-failure",
			Err:     errors.New("permission denied"),
		},
	}
}

func summary() domain.Summary {
	return domain.Summary{
		OriginalBytes:   3000,
		CompressedBytes: 1200,
		Processed:       2,
		CacheHits:       1,
		Skipped:         1,
	}
}

func TestRenderer_VerboseFiles(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	r := linear.NewRenderer(&buf, linear.Options{Verbose: true, Root: "/site"})

	for _, e := range events() {
		r.OnFileComplete(e)
	}

	g := goldie.New(t)
	g.Assert(t, "verbose_files", buf.Bytes())
}

func TestRenderer_QuietSkipsFiles(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	r := linear.NewRenderer(&buf, linear.Options{})

	for _, e := range events() {
		r.OnFileComplete(e)
	}

	assert.Empty(t, buf.String())
}

func TestRenderer_Summary(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	r := linear.NewRenderer(&buf, linear.Options{})

	r.OnSummary(summary())

	g := goldie.New(t)
	g.Assert(t, "summary", buf.Bytes())
}

func TestRenderer_SummaryWithoutBytes(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	r := linear.NewRenderer(&buf, linear.Options{})

	r.OnSummary(domain.Summary{Skipped: 3})

	assert.Contains(t, buf.String(), "0 processed, 0 cache hits, 3 skipped, 0 failed")
	assert.Contains(t, buf.String(), "saved 0 B of 0 B (0.0%)")
	assert.NotContains(t, buf.String(), "cache holds")
}

func TestRenderer_SummaryCacheEntries(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	tests := []struct {
		entries int
		want    string
	}{
		{1, "cache holds 1 entry\n"},
		{12, "cache holds 12 entries\n"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var buf bytes.Buffer
			r := linear.NewRenderer(&buf, linear.Options{})

			s := summary()
			s.CacheEntries = tt.entries
			r.OnSummary(s)

			assert.True(t, strings.HasSuffix(buf.String(), tt.want), buf.String())
		})
	}
}

func TestRenderer_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := linear.NewRenderer(&buf, linear.Options{JSON: true, Root: "/site"})

	e := events()[3]
	e.Duration = 1500 * time.Millisecond
	r.OnFileComplete(e)
	s := summary()
	s.CacheEntries = 4
	r.OnSummary(s)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var file map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &file))
	assert.Equal(t, "broken.css", file["path"])
	assert.Equal(t, "failed", file["outcome"])
	assert.Equal(t, "io-failure", file["reason"])
	assert.Equal(t, "permission denied", file["error"])
	assert.InDelta(t, 1500, file["durationMs"], 0)

	var sum map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &sum))
	assert.InDelta(t, 2, sum["processed"], 0)
	assert.InDelta(t, 1800, sum["savedBytes"], 0)
	assert.InDelta(t, 4, sum["cacheEntries"], 0)
}
