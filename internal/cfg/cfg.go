// Package cfg loads and validates the service configuration from a
// YAML file with environment variable overrides.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the fully resolved runtime configuration.
type Settings struct {
	ListenPort  int
	MetricsPort int

	DataPath    string // bbolt directory; empty disables persistence
	DatasetPath string // CSV to ingest at startup; empty skips it
	DatasetName string

	FeatureColumns []string // empty means every column except the label
	LabelColumn    string   // empty means the last CSV column

	Kernel       string
	Gamma        float64
	Cost         float64
	TrainOnStart bool

	SolverMode    string // "local" or "remote"
	SolverURL     string
	SolverTimeout time.Duration

	ShutdownTimeout time.Duration
}

// ConfigFile mirrors the YAML layout.
type ConfigFile struct {
	Server struct {
		ListenPort  int `yaml:"listenPort"`
		MetricsPort int `yaml:"metricsPort"`
	} `yaml:"server"`

	Data struct {
		Path        string   `yaml:"path"`
		DatasetPath string   `yaml:"datasetPath"`
		DatasetName string   `yaml:"datasetName"`
		Features    []string `yaml:"featureColumns"`
		Label       string   `yaml:"labelColumn"`
	} `yaml:"data"`

	Training struct {
		Kernel       string  `yaml:"kernel"`
		Gamma        float64 `yaml:"gamma"`
		Cost         float64 `yaml:"cost"`
		TrainOnStart bool    `yaml:"trainOnStart"`
	} `yaml:"training"`

	Solver struct {
		Mode    string `yaml:"mode"`
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"solver"`

	System struct {
		ShutdownTimeout string `yaml:"shutdownTimeout"`
	} `yaml:"system"`
}

// Load reads configuration from the file named by CONFIG_FILE, falling
// back to environment variables alone when it is unset.
func Load() (Settings, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	solverTimeout, err := time.ParseDuration(config.Solver.Timeout)
	if err != nil {
		solverTimeout = 30 * time.Second
	}
	shutdownTimeout, err := time.ParseDuration(config.System.ShutdownTimeout)
	if err != nil {
		shutdownTimeout = 10 * time.Second
	}

	settings := Settings{
		ListenPort:      getIntFromEnvOrConfig("LISTEN_PORT", config.Server.ListenPort, 8090),
		MetricsPort:     getIntFromEnvOrConfig("METRICS_PORT", config.Server.MetricsPort, 9090),
		DataPath:        getEnvOrDefault("DATA_PATH", config.Data.Path),
		DatasetPath:     getEnvOrDefault("DATASET_PATH", config.Data.DatasetPath),
		DatasetName:     getEnvOrDefault("DATASET_NAME", config.Data.DatasetName),
		FeatureColumns:  getColumnsFromEnvOrConfig(config.Data.Features),
		LabelColumn:     getEnvOrDefault("LABEL_COLUMN", config.Data.Label),
		Kernel:          getEnvOrDefault("KERNEL", defaultString(config.Training.Kernel, "linear")),
		Gamma:           getFloatFromEnvOrConfig("GAMMA", config.Training.Gamma, 0),
		Cost:            getFloatFromEnvOrConfig("COST", config.Training.Cost, 1.0),
		TrainOnStart:    getBoolFromEnvOrConfig("TRAIN_ON_START", config.Training.TrainOnStart),
		SolverMode:      getEnvOrDefault("SOLVER_MODE", defaultString(config.Solver.Mode, "local")),
		SolverURL:       getEnvOrDefault("SOLVER_URL", config.Solver.URL),
		SolverTimeout:   solverTimeout,
		ShutdownTimeout: shutdownTimeout,
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		ListenPort:      getIntOrDefault("LISTEN_PORT", 8090),
		MetricsPort:     getIntOrDefault("METRICS_PORT", 9090),
		DataPath:        os.Getenv("DATA_PATH"), // optional
		DatasetPath:     os.Getenv("DATASET_PATH"),
		DatasetName:     getEnvOrDefault("DATASET_NAME", "default"),
		FeatureColumns:  splitOrNil(os.Getenv("FEATURE_COLUMNS")),
		LabelColumn:     os.Getenv("LABEL_COLUMN"),
		Kernel:          getEnvOrDefault("KERNEL", "linear"),
		Gamma:           getFloatOrDefault("GAMMA", 0),
		Cost:            getFloatOrDefault("COST", 1.0),
		TrainOnStart:    getBoolOrDefault("TRAIN_ON_START", false),
		SolverMode:      getEnvOrDefault("SOLVER_MODE", "local"),
		SolverURL:       os.Getenv("SOLVER_URL"),
		SolverTimeout:   getDurationOrDefault("SOLVER_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func defaultString(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitOrNil(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func getColumnsFromEnvOrConfig(configCols []string) []string {
	if env := os.Getenv("FEATURE_COLUMNS"); env != "" {
		return splitOrNil(env)
	}
	return configCols
}

func getIntFromEnvOrConfig(key string, configValue, def int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return def
}

func getFloatFromEnvOrConfig(key string, configValue, def float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return def
}

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseBool(env); err == nil {
			return val
		}
	}
	return configValue
}

var validKernels = map[string]bool{
	"linear":     true,
	"polynomial": true,
	"poly":       true,
	"rbf":        true,
	"gaussian":   true,
	"sigmoid":    true,
}

// validateSettings performs validation of configuration values.
func validateSettings(settings *Settings) error {
	if settings.ListenPort < 1024 || settings.ListenPort > 65535 {
		return fmt.Errorf("listen port must be between 1024 and 65535, got %d", settings.ListenPort)
	}
	if settings.MetricsPort < 1024 || settings.MetricsPort > 65535 {
		return fmt.Errorf("metrics port must be between 1024 and 65535, got %d", settings.MetricsPort)
	}
	if settings.ListenPort == settings.MetricsPort {
		return fmt.Errorf("listen port and metrics port must differ, both are %d", settings.ListenPort)
	}

	if !validKernels[settings.Kernel] {
		return fmt.Errorf("unknown kernel %q", settings.Kernel)
	}
	if settings.Cost <= 0 {
		return fmt.Errorf("cost must be positive, got %f", settings.Cost)
	}

	switch settings.SolverMode {
	case "local":
	case "remote":
		if settings.SolverURL == "" {
			return fmt.Errorf("solver URL is required in remote mode")
		}
	default:
		return fmt.Errorf("solver mode must be \"local\" or \"remote\", got %q", settings.SolverMode)
	}

	if settings.SolverTimeout < time.Second || settings.SolverTimeout > 10*time.Minute {
		return fmt.Errorf("solver timeout must be between 1s and 10m, got %v", settings.SolverTimeout)
	}

	if settings.TrainOnStart && settings.DatasetPath == "" {
		return fmt.Errorf("trainOnStart requires a dataset path")
	}

	return nil
}
