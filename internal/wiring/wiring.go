// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/shrink/internal/adapters/cas"
	_ "go.trai.ch/shrink/internal/adapters/codec"
	_ "go.trai.ch/shrink/internal/adapters/config"
	_ "go.trai.ch/shrink/internal/adapters/fs"
	_ "go.trai.ch/shrink/internal/adapters/logger"
	_ "go.trai.ch/shrink/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/shrink/internal/app"
	_ "go.trai.ch/shrink/internal/engine/pipeline"
)
