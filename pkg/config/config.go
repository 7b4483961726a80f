// Package config provides configuration loading and management for imagemath.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"imagemath/pkg/logging"
	"imagemath/pkg/pixelop"
)

// Parameters is the last selection made by the user. It is remembered
// between runs so the same pair and operation are offered again.
type Parameters struct {
	// Operation is the name of the selected operation, see pixelop.ParseOperation
	Operation string `yaml:"operation"`

	// Series1Index and Series2Index select the operands from the loaded series
	Series1Index int `yaml:"series1Index"`
	Series2Index int `yaml:"series2Index"`

	// Series1Description and Series2Description record what was selected
	Series1Description string `yaml:"series1Description,omitempty"`
	Series2Description string `yaml:"series2Description,omitempty"`
}

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// NumCores specifies how many frames are computed concurrently
		NumCores int `yaml:"numCores"`

		// GuardSentinel is stored wherever a division by zero or a
		// non-positive logarithm argument is met
		GuardSentinel float64 `yaml:"guardSentinel"`
	} `yaml:"processing"`

	Logging struct {
		// Level is one of debug, info, warn, error
		Level string `yaml:"level"`

		TimeFormat string `yaml:"timeFormat"`
	} `yaml:"logging"`

	// Output parameters
	Output struct {
		// Dir is where result series are written
		Dir string `yaml:"dir"`

		// WritePreviews adds a 16-bit PNG rendering of every frame
		WritePreviews bool `yaml:"writePreviews"`

		// ResultDescription overrides the generated series description
		ResultDescription string `yaml:"resultDescription"`
	} `yaml:"output"`

	// Database export
	Database struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		DBName   string `yaml:"dbName"`
		SSLMode  string `yaml:"sslMode"`

		// SignatureBins is the length of the stored intensity histogram
		SignatureBins int `yaml:"signatureBins"`
	} `yaml:"database"`

	Parameters Parameters `yaml:"parameters"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.NumCores = runtime.NumCPU()
	cfg.Processing.GuardSentinel = pixelop.DefaultSentinel

	cfg.Logging.Level = "info"
	cfg.Logging.TimeFormat = "15:04:05"

	cfg.Output.Dir = "imagemath_results"
	cfg.Output.WritePreviews = false

	cfg.Database.Enabled = false
	cfg.Database.Host = "localhost"
	cfg.Database.Port = "5432"
	cfg.Database.SSLMode = "disable"
	cfg.Database.SignatureBins = 16

	cfg.Parameters.Operation = pixelop.Subtract.String()
	cfg.Parameters.Series1Index = 0
	cfg.Parameters.Series2Index = 1

	return cfg
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Processing.NumCores < 1 {
		return fmt.Errorf("processing.numCores must be at least 1, got %d", c.Processing.NumCores)
	}
	if math.IsNaN(c.Processing.GuardSentinel) || math.IsInf(c.Processing.GuardSentinel, 0) {
		return errors.New("processing.guardSentinel must be finite")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if _, err := pixelop.ParseOperation(c.Parameters.Operation); err != nil {
		return fmt.Errorf("parameters.operation: %w", err)
	}
	if c.Parameters.Series1Index < 0 || c.Parameters.Series2Index < 0 {
		return errors.New("parameters series indices must not be negative")
	}
	if c.Database.Enabled {
		if c.Database.DBName == "" {
			return errors.New("database.dbName is required when the database is enabled")
		}
		if c.Database.SignatureBins < 1 {
			return fmt.Errorf("database.signatureBins must be at least 1, got %d", c.Database.SignatureBins)
		}
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// SaveParameters records the last selection in the configuration file,
// leaving every other setting as it is. A missing file is created from the
// defaults.
func SaveParameters(configPath string, params Parameters) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	cfg.Parameters = params
	return SaveConfig(cfg, configPath)
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
