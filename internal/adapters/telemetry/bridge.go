package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/shrink/internal/core/domain"
	"go.trai.ch/shrink/internal/core/ports"
)

var _ sdktrace.SpanProcessor = (*Bridge)(nil)

// Bridge implements sdktrace.SpanProcessor and reports ended file spans to a Renderer.
type Bridge struct {
	renderer ports.Renderer
}

// NewBridge returns a new Bridge.
func NewBridge(renderer ports.Renderer) *Bridge {
	return &Bridge{renderer: renderer}
}

// OnStart does nothing; files are reported once they are done.
func (b *Bridge) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd converts a file span into a domain.FileEvent.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.renderer == nil || s.Name() != domain.FileSpanName {
		return
	}

	event := domain.FileEvent{
		Duration: s.EndTime().Sub(s.StartTime()),
	}

	for _, kv := range s.Attributes() {
		switch string(kv.Key) {
		case domain.AttrPath:
			event.Path = kv.Value.AsString()
		case domain.AttrFormat:
			event.Format = kv.Value.AsString()
		case domain.AttrOutcome:
			if outcome, ok := domain.ParseOutcome(kv.Value.AsString()); ok {
				event.Outcome = outcome
			}
		case domain.AttrReason:
			event.Reason = kv.Value.AsString()
		case domain.AttrSizeOriginal:
			event.OriginalSize = kv.Value.AsInt64()
		case domain.AttrSizeFinal:
			event.FinalSize = kv.Value.AsInt64()
		}
	}

	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "file failed"
		}
		event.Err = errors.New(desc)
	}

	b.renderer.OnFileComplete(event)
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}
