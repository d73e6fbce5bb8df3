package codec

import (
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
	"go.trai.ch/shrink/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	mimeCSS  = "text/css"
	mimeHTML = "text/html"
	mimeJS   = "application/javascript"
	mimeSVG  = "image/svg+xml"
)

var jsMimePattern = regexp.MustCompile(`^(application|text)/(x-)?(java|ecma)script$`)

type cssOptions struct {
	Precision int `json:"precision"`
}

type htmlOptions struct {
	KeepComments        bool `json:"keepComments"`
	KeepDefaultAttrVals bool `json:"keepDefaultAttrVals"`
	KeepDocumentTags    bool `json:"keepDocumentTags"`
	KeepEndTags         bool `json:"keepEndTags"`
	KeepQuotes          bool `json:"keepQuotes"`
	KeepWhitespace      bool `json:"keepWhitespace"`
}

type jsOptions struct {
	Precision    int  `json:"precision"`
	KeepVarNames bool `json:"keepVarNames"`
}

type svgOptions struct {
	Precision    int  `json:"precision"`
	KeepComments bool `json:"keepComments"`
}

// minifyText minifies css, html, js and svg documents.
// HTML documents also get their embedded styles, scripts and inline SVG minified.
func minifyText(data []byte, cfg domain.FormatConfig) ([]byte, error) {
	m := minify.New()
	var mime string

	switch cfg.Format {
	case domain.FormatCSS:
		var opts cssOptions
		if err := decodeOptions(cfg, &opts); err != nil {
			return nil, err
		}
		m.Add(mimeCSS, &css.Minifier{Precision: opts.Precision})
		mime = mimeCSS
	case domain.FormatJS:
		var opts jsOptions
		if err := decodeOptions(cfg, &opts); err != nil {
			return nil, err
		}
		m.Add(mimeJS, &js.Minifier{Precision: opts.Precision, KeepVarNames: opts.KeepVarNames})
		mime = mimeJS
	case domain.FormatSVG:
		var opts svgOptions
		if err := decodeOptions(cfg, &opts); err != nil {
			return nil, err
		}
		m.Add(mimeCSS, &css.Minifier{Precision: opts.Precision})
		m.Add(mimeSVG, &svg.Minifier{Precision: opts.Precision, KeepComments: opts.KeepComments})
		mime = mimeSVG
	case domain.FormatHTML:
		var opts htmlOptions
		if err := decodeOptions(cfg, &opts); err != nil {
			return nil, err
		}
		m.Add(mimeHTML, &html.Minifier{
			KeepComments:        opts.KeepComments,
			KeepDefaultAttrVals: opts.KeepDefaultAttrVals,
			KeepDocumentTags:    opts.KeepDocumentTags,
			KeepEndTags:         opts.KeepEndTags,
			KeepQuotes:          opts.KeepQuotes,
			KeepWhitespace:      opts.KeepWhitespace,
		})
		m.Add(mimeCSS, &css.Minifier{})
		m.AddRegexp(jsMimePattern, &js.Minifier{})
		m.Add(mimeSVG, &svg.Minifier{})
		mime = mimeHTML
	default:
		return nil, failed(zerr.With(zerr.New("format is not a text format"), "format", cfg.Format.String()))
	}

	out, err := m.Bytes(mime, data)
	if err != nil {
		return nil, undecodable(zerr.Wrap(err, "failed to minify "+cfg.Format.String()))
	}
	return out, nil
}
