// Package config loads sieve settings from defaults, an optional YAML file,
// and SIEVE_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"time"

	"github.com/crimson-sun/sieve/internal/artifact"
	"github.com/crimson-sun/sieve/internal/validation"
)

// Config holds all sieve configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Artifacts ArtifactsConfig `koanf:"artifacts"`
	Delivery  DeliveryConfig  `koanf:"delivery"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the inference HTTP service.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	RateLimit       int           `koanf:"rate_limit" validate:"gte=0"` // requests per window per IP; 0 disables
	RateWindow      time.Duration `koanf:"rate_window" validate:"gt=0"`
}

// Addr returns host:port for the listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ArtifactsConfig locates the trained artifacts.
type ArtifactsConfig struct {
	Dir         string `koanf:"dir" validate:"required"`
	Encoder     string `koanf:"encoder" validate:"required"`
	Vectorizer  string `koanf:"vectorizer" validate:"required"`
	Classifier  string `koanf:"classifier" validate:"required"`
	ONNXLibrary string `koanf:"onnx_library"`
}

// Path resolves an artifact file name against Dir. Absolute names are
// returned unchanged.
func (a ArtifactsConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(a.Dir, name)
}

// Paths resolves all three artifact locations.
func (a ArtifactsConfig) Paths() artifact.Paths {
	return artifact.Paths{
		Encoder:    a.Path(a.Encoder),
		Vectorizer: a.Path(a.Vectorizer),
		Classifier: a.Path(a.Classifier),
	}
}

// DeliveryConfig configures the replay client.
type DeliveryConfig struct {
	Host           string        `koanf:"host" validate:"required"`
	Port           int           `koanf:"port" validate:"min=1,max=65535"`
	Source         string        `koanf:"source" validate:"required"`
	SendDelay      time.Duration `koanf:"send_delay" validate:"gte=0"`
	MaxRetries     int           `koanf:"max_retries" validate:"min=1"`
	RetryDelay     time.Duration `koanf:"retry_delay" validate:"gte=0"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" validate:"gt=0"`
	WriteTimeout   time.Duration `koanf:"write_timeout" validate:"gte=0"`
	ProbeTimeout   time.Duration `koanf:"probe_timeout" validate:"gte=0"`
	StartupDelay   time.Duration `koanf:"startup_delay" validate:"gte=0"`
	ProgressEvery  int           `koanf:"progress_every" validate:"gte=0"`
}

// Address returns host:port of the collector.
func (d DeliveryConfig) Address() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn warning error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks every constraint and reports all violations at once.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return fmt.Errorf("config: %w", verr)
	}
	return nil
}
