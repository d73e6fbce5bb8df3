package config

// Shrinkfile represents the structure of the shrink.yaml configuration file.
// The same shape is accepted from shrink.json and shrink.jsonc.
type Shrinkfile struct {
	Version     string         `yaml:"version" json:"version"`
	Output      string         `yaml:"output" json:"output"`
	Concurrency int            `yaml:"concurrency" json:"concurrency"`
	Exclude     []string       `yaml:"exclude" json:"exclude"`
	Cache       *CacheDTO      `yaml:"cache" json:"cache"`
	Formats     map[string]any `yaml:"formats" json:"formats"`
}

// CacheDTO represents the cache section of the configuration.
type CacheDTO struct {
	Enabled *bool  `yaml:"enabled" json:"enabled"`
	Dir     string `yaml:"dir" json:"dir"`
}
