package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SIEVE_"

// PathEnvVar names the variable that points at a config file.
const PathEnvVar = EnvPrefix + "CONFIG"

// DefaultPaths are searched in order when no explicit path is given.
var DefaultPaths = []string{
	"sieve.yaml",
	"sieve.yml",
	"/etc/sieve/sieve.yaml",
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimit:       0,
			RateWindow:      time.Minute,
		},
		Artifacts: ArtifactsConfig{
			Dir:        "artifacts",
			Encoder:    "encoder.json",
			Vectorizer: "vectorizer.json",
			Classifier: "model.onnx",
		},
		Delivery: DeliveryConfig{
			Host:           "logstash",
			Port:           5045,
			Source:         "/data/corrupted_logs.csv",
			SendDelay:      time.Millisecond,
			MaxRetries:     10,
			RetryDelay:     5 * time.Second,
			ConnectTimeout: 10 * time.Second,
			WriteTimeout:   10 * time.Second,
			ProbeTimeout:   time.Millisecond,
			StartupDelay:   15 * time.Second,
			ProgressEvery:  100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration. path, when non-empty, must exist; otherwise
// SIEVE_CONFIG and then DefaultPaths are consulted and a missing file is not
// an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	cfgPath, err := findFile(path)
	if err != nil {
		return nil, err
	}
	if cfgPath != "" {
		if err := k.Load(file.Provider(cfgPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", cfgPath, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config: %w", err)
		}
		return explicit, nil
	}
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("config: %s: %w", PathEnvVar, err)
		}
		return p, nil
	}
	for _, p := range DefaultPaths {
		_, err := os.Stat(p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("config: %w", err)
		}
	}
	return "", nil
}

// envKey maps SIEVE_DELIVERY_MAX_RETRIES to delivery.max_retries. Only the
// first underscore after the prefix separates section from key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if s == "config" {
		return ""
	}
	section, key, ok := strings.Cut(s, "_")
	if !ok {
		return ""
	}
	return section + "." + key
}
