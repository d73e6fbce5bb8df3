package domain

// FileSpanName is the name of the span recorded for every candidate file.
const FileSpanName = "shrink.file"

// Span attribute keys of FileSpanName spans.
const (
	AttrPath           = "shrink.path"
	AttrFormat         = "shrink.format"
	AttrOutcome        = "shrink.outcome"
	AttrReason         = "shrink.reason"
	AttrSizeOriginal   = "shrink.size.original"
	AttrSizeFinal      = "shrink.size.final"
	AttrSettingsDigest = "shrink.settings.digest"
)
