// Package codec implements the compression adapters behind ports.Compressor.
package codec

import (
	"context"
	"errors"

	"go.trai.ch/shrink/internal/core/domain"
	"go.trai.ch/shrink/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Compressor = (*Compressor)(nil)

// Compressor dispatches to a codec by format family.
type Compressor struct{}

// NewCompressor creates a new Compressor.
func NewCompressor() *Compressor {
	return &Compressor{}
}

// Compress implements ports.Compressor. Returned errors always match one of
// domain.ErrUnknownMediaFormat, domain.ErrNoOutputProduced or domain.ErrAdapterFailure.
func (c *Compressor) Compress(ctx context.Context, data []byte, cfg domain.FormatConfig) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(domain.ErrAdapterFailure, err)
	}

	var (
		out []byte
		err error
	)
	switch cfg.Format.Family() {
	case domain.FamilyText:
		out, err = minifyText(data, cfg)
	case domain.FamilyArchive:
		out, err = compressSVGZ(data, cfg)
	case domain.FamilyImage:
		out, err = encodeImage(data, cfg)
	}
	if err != nil {
		return nil, err
	}

	if len(out) == 0 {
		return nil, domain.ErrNoOutputProduced
	}
	return out, nil
}

// undecodable marks err as input the codec could not parse.
func undecodable(err error) error {
	return errors.Join(domain.ErrUnknownMediaFormat, err)
}

// failed marks err as any other codec failure.
func failed(err error) error {
	return errors.Join(domain.ErrAdapterFailure, err)
}

// decodeOptions reads the format settings into opts.
func decodeOptions(cfg domain.FormatConfig, opts any) error {
	if err := cfg.Decode(opts); err != nil {
		return failed(zerr.Wrap(err, domain.ErrInvalidFormatSettings.Error()))
	}
	return nil
}
