package main

import (
	"fmt"

	"github.com/psync/psync/internal/config"
	"github.com/psync/psync/internal/logging"
	"github.com/psync/psync/internal/source"
)

// loadAppConfig reads the --config-defaults file, if any, and validates it.
// An empty configPath is not an error: every subcommand falls back to
// config.DefaultConfig()'s values.
func loadAppConfig() (*config.Config, error) {
	if configPath == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config-defaults %s: %w", configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config-defaults %s: %w", configPath, err)
	}
	return cfg, nil
}

// cliLogger builds the CLI-boundary logger: --verbose overrides PSYNC_LOG to
// debug, otherwise the environment variable (or the config file's default
// level, if the environment is unset) decides.
func cliLogger(cfg *config.Config) *logging.Logger {
	if verbose {
		return logging.New(logging.LevelDebug, logging.Stderr())
	}
	if level, ok := logging.FromEnvString(); ok {
		return logging.New(level, logging.Stderr())
	}
	return logging.New(logging.ParseLevel(cfg.Logging.Level), logging.Stderr())
}

// openSource resolves where input bytes come from: an S3-compatible bucket
// when the config-defaults file enables cloud source, the local filesystem
// otherwise. Both branches satisfy the same source.Source contract, so
// callers never special-case which one they got.
func openSource(cfg *config.Config) (source.Source, error) {
	if cfg.Cloud.Enabled {
		return source.NewS3Source(source.S3Config{
			Bucket:       cfg.Cloud.Bucket,
			Region:       cfg.Cloud.Region,
			Endpoint:     cfg.Cloud.Endpoint,
			AccessKey:    cfg.Cloud.AccessKey,
			SecretKey:    cfg.Cloud.SecretKey,
			Prefix:       cfg.Cloud.Prefix,
			MaxBandwidth: cfg.Cloud.MaxBandwidth,
		})
	}
	return source.NewLocalSource(""), nil
}

// readInput fetches the full contents of path through src, reporting
// progress through log at debug level every time the underlying reader
// advances.
func readInput(src source.Source, path string, log *logging.Logger) ([]byte, error) {
	return source.ReadAll(src, path, func(read, total int64) {
		log.Debug("read %d/%d bytes from %s", read, total, path)
	})
}
