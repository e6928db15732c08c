package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ConfigPath points at the HCL file describing the runs.
	ConfigPath string

	LogFormat string
	LogLevel  string

	// Describe prints the expressions that would run instead of running them.
	Describe bool

	// StorePath overrides the store path from the configuration file.
	StorePath string
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
