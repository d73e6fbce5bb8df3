package ports

import "go.trai.ch/shrink/internal/core/domain"

// Renderer presents the progress and result of an optimization run.
//
//go:generate go run go.uber.org/mock/mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// OnFileComplete is called once per candidate file when it has been handled.
	// It may be called concurrently.
	OnFileComplete(event domain.FileEvent)
	// OnSummary is called once after the run with the aggregated counters.
	OnSummary(summary domain.Summary)
}
