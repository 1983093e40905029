package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"studentperf/internal/errors"
	"studentperf/internal/migration"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Models   ModelsConfig   `yaml:"models"`
	Training TrainingConfig `yaml:"training"`
	Cache    CacheConfig    `yaml:"cache"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
}

// ModelsConfig holds the artifact store location
type ModelsConfig struct {
	Dir string `yaml:"dir"`
}

// TrainingConfig holds the held-out split and optimizer settings
type TrainingConfig struct {
	TestFraction      float64 `yaml:"testFraction"`
	Seed              int64   `yaml:"seed"`
	GradientTolerance float64 `yaml:"gradientTolerance"`
}

// CacheConfig sizes the loaded-model cache
type CacheConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// MetricsConfig holds the prometheus textfile location; empty disables the flush
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: "postgres"},
		Models:   ModelsConfig{Dir: "./models"},
		Training: TrainingConfig{TestFraction: 0.3, Seed: 12, GradientTolerance: 1e-5},
		Cache:    CacheConfig{Size: 16, TTL: 30 * time.Minute},
		Log:      LogConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE if set, then environment variables, and validates it
func Load() (*Config, error) {
	config := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFromYAML(path, config); err != nil {
			return nil, errors.Wrap(err, "failed to load configuration file")
		}
	}

	applyEnv(config)

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadFromYAML(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("failed to parse config file: %w", err))
	}
	return nil
}

func applyEnv(config *Config) {
	config.Database.Driver = getEnvOrDefault("DB_DRIVER", config.Database.Driver)
	config.Database.URL = getEnvOrDefault("DATABASE_URL", config.Database.URL)
	config.Models.Dir = getEnvOrDefault("MODELS_DIR", config.Models.Dir)
	config.Training.TestFraction = getEnvFloatOrDefault("TEST_FRACTION", config.Training.TestFraction)
	config.Training.Seed = int64(getEnvIntOrDefault("SPLIT_SEED", int(config.Training.Seed)))
	config.Training.GradientTolerance = getEnvFloatOrDefault("GRADIENT_TOLERANCE", config.Training.GradientTolerance)
	config.Cache.Size = getEnvIntOrDefault("MODEL_CACHE_SIZE", config.Cache.Size)
	config.Cache.TTL = getEnvDurationOrDefault("MODEL_CACHE_TTL", config.Cache.TTL)
	config.Log.Level = strings.ToLower(getEnvOrDefault("LOG_LEVEL", config.Log.Level))
	config.Log.JSON = getEnvBoolOrDefault("LOG_JSON", config.Log.JSON)
	config.Metrics.Textfile = getEnvOrDefault("METRICS_TEXTFILE", config.Metrics.Textfile)
}

func validateConfig(config *Config) error {
	if _, err := migration.DialectFor(config.Database.Driver); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	if config.Models.Dir == "" {
		return errors.ConfigInvalid("models directory is required")
	}
	if f := config.Training.TestFraction; f <= 0 || f >= 1 {
		return errors.ConfigInvalid(fmt.Sprintf("test fraction must be in (0, 1), got %v", f))
	}
	if config.Training.GradientTolerance <= 0 {
		return errors.ConfigInvalid("gradient tolerance must be positive")
	}
	if config.Cache.Size < 1 {
		return errors.ConfigInvalid("model cache size must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
