package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/shrink/internal/adapters/telemetry"
	"go.trai.ch/shrink/internal/core/domain"
	"go.trai.ch/shrink/internal/core/ports"
	"go.trai.ch/shrink/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestInterfaceSatisfaction(_ *testing.T) {
	var _ ports.Tracer = (*telemetry.OTelTracer)(nil)
	var _ ports.Span = (*telemetry.OTelSpan)(nil)
	var _ ports.Tracer = (*telemetry.NoOpTracer)(nil)
	var _ ports.Span = telemetry.NoOpSpan{}
	var _ sdktrace.SpanProcessor = (*telemetry.Bridge)(nil)
}

func TestNoOpTracer(t *testing.T) {
	ctx := context.Background()

	got, span := telemetry.NewNoOpTracer().Start(ctx, domain.FileSpanName)
	span.SetAttribute(domain.AttrPath, "/a.css")
	span.RecordError(errors.New("boom"))
	span.End()

	assert.Equal(t, ctx, got)
}

func TestBridge_ReportsFileSpans(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)

	var got domain.FileEvent
	renderer.EXPECT().OnFileComplete(gomock.Any()).Do(func(e domain.FileEvent) { got = e }).Times(1)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(renderer)))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	tracer := telemetry.NewOTelTracerFromProvider(tp, telemetry.InstrumentationName)

	_, span := tracer.Start(context.Background(), domain.FileSpanName)
	span.SetAttribute(domain.AttrPath, "/site/a.css")
	span.SetAttribute(domain.AttrFormat, domain.FormatCSS)
	span.SetAttribute(domain.AttrOutcome, domain.OutcomeProcessed)
	span.SetAttribute(domain.AttrReason, domain.ReasonNone)
	span.SetAttribute(domain.AttrSizeOriginal, int64(100))
	span.SetAttribute(domain.AttrSizeFinal, int64(40))
	span.SetAttribute(domain.AttrSettingsDigest, uint64(42))
	span.End()

	assert.Equal(t, "/site/a.css", got.Path)
	assert.Equal(t, "css", got.Format)
	assert.Equal(t, domain.OutcomeProcessed, got.Outcome)
	assert.Empty(t, got.Reason)
	assert.Equal(t, int64(100), got.OriginalSize)
	assert.Equal(t, int64(40), got.FinalSize)
	assert.NoError(t, got.Err)
}

func TestBridge_ReportsErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)

	var got domain.FileEvent
	renderer.EXPECT().OnFileComplete(gomock.Any()).Do(func(e domain.FileEvent) { got = e }).Times(1)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(renderer)))
	tracer := telemetry.NewOTelTracerFromProvider(tp, telemetry.InstrumentationName)

	_, span := tracer.Start(context.Background(), domain.FileSpanName)
	span.SetAttribute(domain.AttrOutcome, domain.OutcomeFailed)
	span.SetAttribute(domain.AttrReason, domain.ReasonIOFailure)
	span.RecordError(errors.New("permission denied"))
	span.End()

	assert.Equal(t, domain.OutcomeFailed, got.Outcome)
	assert.Equal(t, "io-failure", got.Reason)
	require.Error(t, got.Err)
	assert.Equal(t, "permission denied", got.Err.Error())
}

func TestBridge_IgnoresOtherSpans(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(renderer)))
	tracer := telemetry.NewOTelTracerFromProvider(tp, telemetry.InstrumentationName)

	_, span := tracer.Start(context.Background(), "optimize")
	span.End()
}

func TestBridge_NilRenderer(t *testing.T) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(nil)))
	tracer := telemetry.NewOTelTracerFromProvider(tp, telemetry.InstrumentationName)

	assert.NotPanics(t, func() {
		_, span := tracer.Start(context.Background(), domain.FileSpanName)
		span.End()
	})
}

func TestNewProvider(t *testing.T) {
	tp := telemetry.NewProvider(telemetry.NewBridge(nil))

	require.NotNil(t, tp)
	require.NoError(t, tp.Shutdown(context.Background()))
}
