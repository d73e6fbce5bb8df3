package domain

import (
	"path/filepath"
	"strings"
)

// Format identifies a compression format. The set is closed: every supported
// format is listed below and every switch over Format is exhaustive.
type Format uint8

const (
	// FormatUnknown is the zero value and never resolves to a codec.
	FormatUnknown Format = iota
	// FormatCSS is a stylesheet.
	FormatCSS
	// FormatHTML is an HTML document.
	FormatHTML
	// FormatJS is a JavaScript module or script.
	FormatJS
	// FormatSVG is an SVG document.
	FormatSVG
	// FormatSVGZ is a gzip-compressed SVG document.
	FormatSVGZ
	// FormatAVIF is an AVIF image.
	FormatAVIF
	// FormatGIF is a GIF image.
	FormatGIF
	// FormatHEIF is a HEIF/HEIC image.
	FormatHEIF
	// FormatJPEG is a JPEG image.
	FormatJPEG
	// FormatPNG is a PNG image.
	FormatPNG
	// FormatTIFF is a TIFF image.
	FormatTIFF
	// FormatWebP is a WebP image.
	FormatWebP
)

// Family groups formats by the kind of codec that handles them.
type Family uint8

const (
	// FamilyText covers minifiable text documents.
	FamilyText Family = iota
	// FamilyArchive covers text documents wrapped in a compression container.
	FamilyArchive
	// FamilyImage covers raster image formats.
	FamilyImage
)

// Formats lists every supported format in declaration order.
var Formats = []Format{
	FormatCSS,
	FormatHTML,
	FormatJS,
	FormatSVG,
	FormatSVGZ,
	FormatAVIF,
	FormatGIF,
	FormatHEIF,
	FormatJPEG,
	FormatPNG,
	FormatTIFF,
	FormatWebP,
}

var formatNames = map[Format]string{
	FormatCSS:  "css",
	FormatHTML: "html",
	FormatJS:   "js",
	FormatSVG:  "svg",
	FormatSVGZ: "svgz",
	FormatAVIF: "avif",
	FormatGIF:  "gif",
	FormatHEIF: "heif",
	FormatJPEG: "jpeg",
	FormatPNG:  "png",
	FormatTIFF: "tiff",
	FormatWebP: "webp",
}

// extensionAliases maps secondary extensions to their canonical format name.
var extensionAliases = map[string]string{
	"htm":  "html",
	"mjs":  "js",
	"cjs":  "js",
	"jpg":  "jpeg",
	"jpe":  "jpeg",
	"tif":  "tiff",
	"heic": "heif",
}

// String returns the canonical identifier of the format.
func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// Family returns the codec family of the format.
func (f Format) Family() Family {
	switch f {
	case FormatCSS, FormatHTML, FormatJS, FormatSVG:
		return FamilyText
	case FormatSVGZ:
		return FamilyArchive
	case FormatAVIF, FormatGIF, FormatHEIF, FormatJPEG, FormatPNG, FormatTIFF, FormatWebP:
		return FamilyImage
	default:
		return FamilyText
	}
}

// MarshalText encodes the format as its canonical identifier.
func (f Format) MarshalText() ([]byte, error) {
	if f == FormatUnknown {
		return nil, ErrUnknownFormat
	}
	return []byte(f.String()), nil
}

// UnmarshalText decodes a canonical identifier or alias.
func (f *Format) UnmarshalText(text []byte) error {
	parsed, ok := ParseFormat(string(text))
	if !ok {
		return ErrUnknownFormat
	}
	*f = parsed
	return nil
}

// ParseFormat resolves a format name or alias, case-insensitively.
func ParseFormat(name string) (Format, bool) {
	name = strings.ToLower(strings.TrimPrefix(name, "."))
	if canonical, ok := extensionAliases[name]; ok {
		name = canonical
	}
	for f, n := range formatNames {
		if n == name {
			return f, true
		}
	}
	return FormatUnknown, false
}

// FormatFromPath resolves the format from the extension of the final path segment.
func FormatFromPath(path string) (Format, bool) {
	ext := Extension(path)
	if ext == "" {
		return FormatUnknown, false
	}
	return ParseFormat(ext)
}

// Extension returns the lower-cased extension of path without the leading dot.
func Extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filepath.Base(path)), "."))
}
