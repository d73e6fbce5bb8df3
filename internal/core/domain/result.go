package domain

import (
	"errors"
	"time"
)

// Outcome is the final state of one candidate file.
type Outcome uint8

const (
	// OutcomeSkipped means the file was left untouched.
	OutcomeSkipped Outcome = iota
	// OutcomeProcessed means the file was replaced by a smaller compressed version.
	OutcomeProcessed
	// OutcomeCacheHit means the file was restored from or already matched the cache.
	OutcomeCacheHit
	// OutcomeFailed means an I/O error aborted processing of the file.
	OutcomeFailed
)

var outcomeNames = map[Outcome]string{
	OutcomeSkipped:   "skipped",
	OutcomeProcessed: "processed",
	OutcomeCacheHit:  "cache-hit",
	OutcomeFailed:    "failed",
}

func (o Outcome) String() string {
	return outcomeNames[o]
}

// ParseOutcome parses the String form of an outcome.
func ParseOutcome(s string) (Outcome, bool) {
	for o, name := range outcomeNames {
		if name == s {
			return o, true
		}
	}
	return OutcomeSkipped, false
}

// Reason explains why a file was skipped or failed.
type Reason uint8

const (
	// ReasonNone is used for processed files and cache hits.
	ReasonNone Reason = iota
	// ReasonBiggerOrEqualSize means compression did not shrink the file.
	ReasonBiggerOrEqualSize
	// ReasonUnknownMediaFormat means the adapter could not decode the input.
	ReasonUnknownMediaFormat
	// ReasonNoOutputProduced means the adapter returned no bytes.
	ReasonNoOutputProduced
	// ReasonAdapterFailure means the adapter reported any other failure.
	ReasonAdapterFailure
	// ReasonUnrecognizedExtension means the file is not a compression candidate.
	ReasonUnrecognizedExtension
	// ReasonIOFailure means the candidate file itself could not be read or written.
	ReasonIOFailure
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return ""
	case ReasonBiggerOrEqualSize:
		return "bigger-or-equal-size"
	case ReasonUnknownMediaFormat:
		return "unknown-media-format"
	case ReasonNoOutputProduced:
		return "no-output-produced"
	case ReasonAdapterFailure:
		return "adapter-failure"
	case ReasonUnrecognizedExtension:
		return "unrecognized-extension"
	case ReasonIOFailure:
		return "io-failure"
	default:
		return "unknown"
	}
}

// ReasonOf classifies an adapter or pipeline error.
func ReasonOf(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrBiggerOrEqualSize):
		return ReasonBiggerOrEqualSize
	case errors.Is(err, ErrUnknownMediaFormat):
		return ReasonUnknownMediaFormat
	case errors.Is(err, ErrNoOutputProduced):
		return ReasonNoOutputProduced
	case errors.Is(err, ErrUnrecognizedExtension):
		return ReasonUnrecognizedExtension
	case errors.Is(err, ErrFileReadFailed), errors.Is(err, ErrFileWriteFailed):
		return ReasonIOFailure
	default:
		return ReasonAdapterFailure
	}
}

// FileResult is the immutable record produced by processing one candidate file.
type FileResult struct {
	Path    string
	Format  Format
	Outcome Outcome
	Reason  Reason
	// Err carries the detailed cause for skipped and failed files.
	Err error
	// OriginalSize is the size of the file before processing.
	OriginalSize int64
	// FinalSize is the size of the file after processing.
	FinalSize int64
	// Cached reports whether a cache entry was written for the file.
	Cached bool
}

// Summary aggregates the results of one pipeline run.
type Summary struct {
	OriginalBytes   int64
	CompressedBytes int64
	Processed       int
	Skipped         int
	CacheHits       int
	Failed          int
	// CacheEntries is the number of manifest entries after the run; zero without a cache.
	CacheEntries int
}

// Add folds one file result into the summary.
// Byte totals only account for processed files and cache hits.
func (s Summary) Add(r FileResult) Summary {
	switch r.Outcome {
	case OutcomeProcessed:
		s.Processed++
		s.OriginalBytes += r.OriginalSize
		s.CompressedBytes += r.FinalSize
	case OutcomeCacheHit:
		s.CacheHits++
		s.OriginalBytes += r.OriginalSize
		s.CompressedBytes += r.FinalSize
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
	return s
}

// Saved returns the number of bytes saved.
func (s Summary) Saved() int64 {
	return s.OriginalBytes - s.CompressedBytes
}

// Reduce combines file results into a summary. The result does not depend on
// the order of results.
func Reduce(results []FileResult) Summary {
	var s Summary
	for _, r := range results {
		s = s.Add(r)
	}
	return s
}

// FileEvent describes a finished file for renderers.
type FileEvent struct {
	Path         string
	Format       string
	Outcome      Outcome
	Reason       string
	OriginalSize int64
	FinalSize    int64
	Duration     time.Duration
	Err          error
}
