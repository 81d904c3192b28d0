package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/psync/psync/internal/rollsum"
)

// Config holds the CLI's persisted defaults. Unlike the teacher's backup
// repository config, this has no exclusion globs or repository-init
// settings: a single target/seed pair per invocation has nothing to walk.
type Config struct {
	Chunking    ChunkingConfig    `yaml:"chunking" json:"chunking"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
	Encryption  EncryptionConfig  `yaml:"encryption" json:"encryption"`
	Compression CompressionConfig `yaml:"compression" json:"compression"`
	Cloud       CloudConfig       `yaml:"cloud" json:"cloud"`
}

// ChunkingConfig defines the chunk producer's defaults (spec §4.2): a
// maximum chunk size and whether tar-entry boundaries are honoured. There is
// no min/avg size or CDC algorithm choice here — chunk boundaries come from
// breakpoints, not content-defined splitting.
type ChunkingConfig struct {
	MaxSize int  `yaml:"max_size" json:"max_size"`
	Tar     bool `yaml:"tar" json:"tar"`
}

// LoggingConfig defines the default log level the CLI uses when PSYNC_LOG
// is unset in the environment.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"` // debug, info, warn
}

// EncryptionConfig controls optional control-file-at-rest encryption
// (internal/ctlcrypto), not chunk-payload encryption.
type EncryptionConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	KeyFile string `yaml:"key_file" json:"key_file"`
}

// CompressionConfig controls optional control-file-at-rest compression
// (internal/ctlcompress), not chunk-payload compression.
type CompressionConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Level   int  `yaml:"level" json:"level"`
}

// CloudConfig defines S3-compatible source defaults (internal/source).
type CloudConfig struct {
	Enabled      bool   `yaml:"enabled" json:"enabled"`
	Bucket       string `yaml:"bucket" json:"bucket"`
	Region       string `yaml:"region" json:"region"`
	Endpoint     string `yaml:"endpoint" json:"endpoint"`
	AccessKey    string `yaml:"access_key" json:"access_key"`
	SecretKey    string `yaml:"secret_key" json:"secret_key"`
	Prefix       string `yaml:"prefix" json:"prefix"`
	MaxBandwidth int64  `yaml:"max_bandwidth" json:"max_bandwidth"` // bytes/sec, 0 = unlimited
}

// DefaultMaxSize is the chunk producer's default maximum chunk size (spec
// §6's example CLI invocation).
const DefaultMaxSize = 65536

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			MaxSize: DefaultMaxSize,
			Tar:     false,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		Encryption: EncryptionConfig{
			Enabled: false,
		},
		Compression: CompressionConfig{
			Enabled: false,
			Level:   3,
		},
		Cloud: CloudConfig{
			Enabled: false,
		},
	}
}

// Load reads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	ext := filepath.Ext(path)
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		// Try YAML first, then JSON
		if err = yaml.Unmarshal(data, cfg); err != nil {
			err = json.Unmarshal(data, cfg)
		}
	}

	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to a file
func (c *Config) Save(path string) error {
	var data []byte
	var err error

	ext := filepath.Ext(path)
	switch ext {
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
	default:
		data, err = yaml.Marshal(c)
	}

	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate clamps out-of-range values to usable defaults, the way the
// teacher's Validate clamps chunk/compression settings rather than
// rejecting the whole config outright.
func (c *Config) Validate() error {
	if c.Chunking.MaxSize < rollsum.WindowSize {
		c.Chunking.MaxSize = DefaultMaxSize
	}

	switch c.Logging.Level {
	case "debug", "info", "warn":
		// Valid.
	default:
		c.Logging.Level = "warn"
	}

	if c.Compression.Level < 1 {
		c.Compression.Level = 1
	}
	if c.Compression.Level > 19 {
		c.Compression.Level = 19
	}

	return nil
}
