package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"image-size-reducer/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the main configuration structure
type Config struct {
	Reduction ReductionConfig `mapstructure:"reduction"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ReductionConfig contains the search bounds and codec settings
type ReductionConfig struct {
	CompressionCeiling float64 `mapstructure:"compression_ceiling"`
	CompressionStep    float64 `mapstructure:"compression_step"`
	ScalingCeiling     float64 `mapstructure:"scaling_ceiling"`
	ScalingStep        float64 `mapstructure:"scaling_step"`
	ScratchDir         string  `mapstructure:"scratch_dir"` // empty means os.TempDir()
	ResampleFilter     string  `mapstructure:"resample_filter"`
}

// LoggingConfig contains logging settings. Its fields mirror logger.LoggerConfig
// so the two convert into each other.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
	Console    bool   `mapstructure:"console"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Reduction: ReductionConfig{
			CompressionCeiling: 0.7,
			CompressionStep:    0.7,
			ScalingCeiling:     0.5,
			ScalingStep:        0.1,
			ResampleFilter:     "lanczos",
		},
		Logging: LoggingConfig(logger.DefaultConfig()),
	}
}

// LoadConfig loads configuration from file and environment variables.
// A .env file in the working directory is applied to the environment first.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	config := DefaultConfig()
	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.image-reducer")
		v.AddConfigPath("/etc/image-reducer")
	}

	v.SetEnvPrefix("IMAGE_REDUCER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindDefaults(v, config)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// bindDefaults registers every key so AutomaticEnv can override keys absent from the file.
func bindDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("reduction.compression_ceiling", c.Reduction.CompressionCeiling)
	v.SetDefault("reduction.compression_step", c.Reduction.CompressionStep)
	v.SetDefault("reduction.scaling_ceiling", c.Reduction.ScalingCeiling)
	v.SetDefault("reduction.scaling_step", c.Reduction.ScalingStep)
	v.SetDefault("reduction.scratch_dir", c.Reduction.ScratchDir)
	v.SetDefault("reduction.resample_filter", c.Reduction.ResampleFilter)
	v.SetDefault("logging.level", c.Logging.Level)
	v.SetDefault("logging.file_path", c.Logging.FilePath)
	v.SetDefault("logging.max_size", c.Logging.MaxSize)
	v.SetDefault("logging.max_backups", c.Logging.MaxBackups)
	v.SetDefault("logging.max_age", c.Logging.MaxAge)
	v.SetDefault("logging.compress", c.Logging.Compress)
	v.SetDefault("logging.console", c.Logging.Console)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	r := c.Reduction

	if r.CompressionCeiling < 0 || r.CompressionCeiling > 1 {
		return fmt.Errorf("compression_ceiling must be in [0, 1]: %v", r.CompressionCeiling)
	}
	if r.CompressionStep <= 0 || r.CompressionStep > 1 {
		return fmt.Errorf("compression_step must be in (0, 1]: %v", r.CompressionStep)
	}
	if r.ScalingCeiling <= 0 || r.ScalingCeiling > 1 {
		return fmt.Errorf("scaling_ceiling must be in (0, 1]: %v", r.ScalingCeiling)
	}
	if r.ScalingStep <= 0 || r.ScalingStep > 1 {
		return fmt.Errorf("scaling_step must be in (0, 1]: %v", r.ScalingStep)
	}

	validFilters := map[string]bool{
		"lanczos":    true,
		"catmullrom": true,
		"linear":     true,
		"box":        true,
		"nearest":    true,
	}
	if c.Reduction.ResampleFilter == "" {
		c.Reduction.ResampleFilter = "lanczos"
	}
	if !validFilters[strings.ToLower(c.Reduction.ResampleFilter)] {
		return fmt.Errorf("invalid resample_filter: %s (valid: lanczos, catmullrom, linear, box, nearest)",
			c.Reduction.ResampleFilter)
	}

	// Validate logging settings
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	return nil
}
