package packbit

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines archiver configuration.
type Config struct {
	// Backend is an optional pre-built storage backend. When set, the
	// Storage section is ignored.
	Backend StorageBackend `yaml:"-"`

	// Storage selects and configures the archive storage backend.
	Storage StorageConfig `yaml:"storage"`

	// Codec is the compression policy: "auto", "huffman", "snappy" or
	// "none". Default: auto.
	Codec string `yaml:"codec"`

	// MinCompressionRatio is the minimum original/compressed ratio the
	// auto policy requires before keeping a compressed payload.
	// Default: 1.0 (any saving at all).
	MinCompressionRatio float64 `yaml:"min_compression_ratio"`

	// Encryption configures archive payload encryption.
	// If nil or Enabled is false, archives are stored unencrypted.
	Encryption *EncryptionConfig `yaml:"encryption"`

	// Catalog configures the SQLite archive catalog.
	// If nil or Enabled is false, no catalog is kept.
	Catalog *CatalogConfig `yaml:"catalog"`

	// HTTP configures the archive HTTP service.
	// If nil or Enabled is false, no server is started.
	HTTP *HTTPConfig `yaml:"http"`

	// Retry configures backend retry behavior (S3 only).
	Retry RetryConfig `yaml:"retry"`
}

// StorageConfig selects the storage backend.
type StorageConfig struct {
	// Type is "memory", "file" or "s3". Default: memory.
	Type string `yaml:"type"`

	// Dir is the base directory for the file backend.
	Dir string `yaml:"dir"`

	// S3 configures the S3 backend.
	S3 *S3BackendConfig `yaml:"s3"`
}

// HTTPConfig configures the archive HTTP service.
type HTTPConfig struct {
	// Enabled turns on the HTTP server.
	Enabled bool `yaml:"enabled"`

	// Addr is the listen address. Default: 127.0.0.1:8097.
	Addr string `yaml:"addr"`

	// MaxBodyBytes limits request body size. Default: 32MB.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// ReadTimeout and WriteTimeout bound request handling.
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DefaultConfig returns a configuration with an in-memory backend, the
// auto codec policy, and no catalog, encryption or HTTP service.
func DefaultConfig() Config {
	return Config{
		Storage:             StorageConfig{Type: "memory"},
		Codec:               "auto",
		MinCompressionRatio: 1.0,
		Retry:               DefaultRetryConfig(),
	}
}

// LoadConfig reads a YAML configuration file on top of defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// validate normalizes and checks the configuration.
func (c *Config) validate() error {
	if c.Codec == "" {
		c.Codec = "auto"
	}
	if _, err := ParseCodec(c.Codec); err != nil {
		return err
	}
	if c.MinCompressionRatio < 0 {
		return fmt.Errorf("min_compression_ratio must be >= 0")
	}
	if c.Backend == nil {
		switch c.Storage.Type {
		case "", "memory", "file":
		case "s3":
			if c.Storage.S3 == nil {
				return fmt.Errorf("storage type s3 requires an s3 section")
			}
		default:
			return fmt.Errorf("unknown storage type %q", c.Storage.Type)
		}
		if c.Storage.Type == "file" && c.Storage.Dir == "" {
			return fmt.Errorf("storage type file requires dir")
		}
	}
	if c.HTTP != nil && c.HTTP.Enabled {
		if c.HTTP.Addr == "" {
			c.HTTP.Addr = "127.0.0.1:8097"
		}
		if c.HTTP.MaxBodyBytes <= 0 {
			c.HTTP.MaxBodyBytes = 32 << 20
		}
		if c.HTTP.ReadTimeout <= 0 {
			c.HTTP.ReadTimeout = 15 * time.Second
		}
		if c.HTTP.WriteTimeout <= 0 {
			c.HTTP.WriteTimeout = 15 * time.Second
		}
	}
	return nil
}
