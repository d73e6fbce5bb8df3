package ports

import "go.trai.ch/shrink/internal/core/domain"

// ConfigLoader defines the interface for loading the project configuration.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration from the given working directory.
	// Defaults are returned when no configuration file exists.
	Load(cwd string) (*domain.Config, error)
}
