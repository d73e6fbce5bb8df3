package domain

// Config is the loaded project configuration.
type Config struct {
	// Root is the absolute project root the configuration was loaded from.
	Root string
	// Source is the configuration file path, empty when defaults are used.
	Source string
	// OutputDir is the build output directory, relative to Root unless absolute.
	OutputDir string
	Settings  Settings
}
