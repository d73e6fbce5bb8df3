// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/shrink/internal/core/domain"
)

// Compressor performs the byte-level compression of one file.
//
//go:generate go run go.uber.org/mock/mockgen -source=compressor.go -destination=mocks/mock_compressor.go -package=mocks
type Compressor interface {
	// Compress returns the compressed form of data using the given format settings.
	//
	// Failures are reported as errors joined with one of domain.ErrUnknownMediaFormat,
	// domain.ErrNoOutputProduced or domain.ErrAdapterFailure. The returned bytes may be
	// larger than the input; deciding whether to keep them is up to the caller.
	Compress(ctx context.Context, data []byte, cfg domain.FormatConfig) ([]byte, error)
}
