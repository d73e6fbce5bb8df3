package codec

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"go.trai.ch/shrink/internal/core/domain"
	"go.trai.ch/zerr"
)

type svgzOptions struct {
	Precision int `json:"precision"`
	Level     int `json:"level"`
}

// compressSVGZ unpacks a gzip-wrapped SVG, minifies it and packs it again.
func compressSVGZ(data []byte, cfg domain.FormatConfig) ([]byte, error) {
	var opts svgzOptions
	if err := decodeOptions(cfg, &opts); err != nil {
		return nil, err
	}

	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, undecodable(zerr.Wrap(err, "failed to open gzip stream"))
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, undecodable(zerr.Wrap(err, "failed to read gzip stream"))
	}
	if err := zr.Close(); err != nil {
		return nil, undecodable(zerr.Wrap(err, "failed to close gzip stream"))
	}

	svgCfg := domain.NewFormatConfig(domain.FormatSVG, map[string]any{"precision": opts.Precision})
	minified, err := minifyText(raw, svgCfg)
	if err != nil {
		return nil, err
	}

	level := opts.Level
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		level = gzip.BestCompression
	}

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, failed(zerr.Wrap(err, "failed to create gzip writer"))
	}
	if _, err := zw.Write(minified); err != nil {
		return nil, failed(zerr.Wrap(err, "failed to write gzip stream"))
	}
	if err := zw.Close(); err != nil {
		return nil, failed(zerr.Wrap(err, "failed to finish gzip stream"))
	}
	return buf.Bytes(), nil
}
