package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Load reads, defaults and validates a YAML configuration file
func Load(filename string) (*Config, error) {
	cfgFile, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(cfgFile, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", filename, err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", filename, err)
	}

	return &config, nil
}
