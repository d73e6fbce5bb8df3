package codec

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"go.trai.ch/shrink/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/image/tiff"
)

type pngOptions struct {
	Level int `json:"level"`
}

type jpegOptions struct {
	Quality int `json:"quality"`
}

type gifOptions struct {
	NumColors int `json:"numColors"`
}

type tiffOptions struct {
	Compression string `json:"compression"`
	Predictor   bool   `json:"predictor"`
}

// encodeImage decodes data and re-encodes it in the same format.
func encodeImage(data []byte, cfg domain.FormatConfig) ([]byte, error) {
	switch cfg.Format {
	case domain.FormatPNG:
		return encodePNG(data, cfg)
	case domain.FormatJPEG:
		return encodeJPEG(data, cfg)
	case domain.FormatGIF:
		return encodeGIF(data, cfg)
	case domain.FormatTIFF:
		return encodeTIFF(data, cfg)
	case domain.FormatWebP, domain.FormatAVIF, domain.FormatHEIF:
		return nil, failed(zerr.With(zerr.New("no encoder available"), "format", cfg.Format.String()))
	default:
		return nil, failed(zerr.With(zerr.New("format is not an image format"), "format", cfg.Format.String()))
	}
}

func pngLevel(level int) png.CompressionLevel {
	switch {
	case level <= 0:
		return png.DefaultCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

func encodePNG(data []byte, cfg domain.FormatConfig) ([]byte, error) {
	var opts pngOptions
	if err := decodeOptions(cfg, &opts); err != nil {
		return nil, err
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, undecodable(zerr.Wrap(err, "failed to decode png"))
	}

	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: pngLevel(opts.Level)}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, failed(zerr.Wrap(err, "failed to encode png"))
	}
	return buf.Bytes(), nil
}

func encodeJPEG(data []byte, cfg domain.FormatConfig) ([]byte, error) {
	var opts jpegOptions
	if err := decodeOptions(cfg, &opts); err != nil {
		return nil, err
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, undecodable(zerr.Wrap(err, "failed to decode jpeg"))
	}

	quality := min(max(opts.Quality, 1), 100)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, failed(zerr.Wrap(err, "failed to encode jpeg"))
	}
	return buf.Bytes(), nil
}

// encodeGIF re-encodes still images with a palette of at most numColors entries.
// Animations keep their frames and palettes.
func encodeGIF(data []byte, cfg domain.FormatConfig) ([]byte, error) {
	var opts gifOptions
	if err := decodeOptions(cfg, &opts); err != nil {
		return nil, err
	}

	anim, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, undecodable(zerr.Wrap(err, "failed to decode gif"))
	}

	var buf bytes.Buffer
	if len(anim.Image) == 1 {
		numColors := min(max(opts.NumColors, 1), 256)
		var img image.Image = anim.Image[0]
		if err := gif.Encode(&buf, img, &gif.Options{NumColors: numColors}); err != nil {
			return nil, failed(zerr.Wrap(err, "failed to encode gif"))
		}
		return buf.Bytes(), nil
	}

	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, failed(zerr.Wrap(err, "failed to encode gif"))
	}
	return buf.Bytes(), nil
}

func encodeTIFF(data []byte, cfg domain.FormatConfig) ([]byte, error) {
	var opts tiffOptions
	if err := decodeOptions(cfg, &opts); err != nil {
		return nil, err
	}

	var compression tiff.CompressionType
	switch opts.Compression {
	case "", "deflate":
		compression = tiff.Deflate
	case "none":
		compression = tiff.Uncompressed
	default:
		return nil, failed(zerr.With(domain.ErrInvalidFormatSettings, "compression", opts.Compression))
	}

	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, undecodable(zerr.Wrap(err, "failed to decode tiff"))
	}

	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, &tiff.Options{Compression: compression, Predictor: opts.Predictor}); err != nil {
		return nil, failed(zerr.Wrap(err, "failed to encode tiff"))
	}
	return buf.Bytes(), nil
}
