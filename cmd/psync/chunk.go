package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/psync/psync/internal/cache"
	"github.com/psync/psync/internal/chunker"
	"github.com/psync/psync/internal/config"
	"github.com/psync/psync/internal/controlfile"
	"github.com/psync/psync/internal/ctlcompress"
	"github.com/psync/psync/internal/ctlcrypto"
)

func chunkCmd() *cobra.Command {
	var (
		maxSize  int
		tar      bool
		at       string
		compress bool
		encrypt  string
		cacheDir string
	)

	cmd := &cobra.Command{
		Use:   "chunk <path>",
		Short: "Produce a control file describing a target file",
		Long: `Reads <path> and writes a control file at <path>.psync, refusing to
overwrite one that already exists. By default the only breakpoints are the
start and end of the file; --tar adds tar-entry boundaries and --max-size
bounds every chunk's length.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appConfig, err := loadAppConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-size") {
				maxSize = appConfig.Chunking.MaxSize
			}
			if !cmd.Flags().Changed("tar") {
				tar = appConfig.Chunking.Tar
			}
			if !cmd.Flags().Changed("compress") {
				compress = appConfig.Compression.Enabled
			}
			if !cmd.Flags().Changed("encrypt") && encrypt == "" && appConfig.Encryption.Enabled && appConfig.Encryption.KeyFile != "" {
				key, err := os.ReadFile(appConfig.Encryption.KeyFile)
				if err != nil {
					return fmt.Errorf("read encryption key-file %s: %w", appConfig.Encryption.KeyFile, err)
				}
				encrypt = strings.TrimSpace(string(key))
			}
			return runChunk(args[0], appConfig, chunkOptions{
				maxSize:    maxSize,
				tar:        tar,
				at:         at,
				compress:   compress,
				passphrase: encrypt,
				cacheDir:   cacheDir,
			})
		},
	}

	cmd.Flags().IntVar(&maxSize, "max-size", 65536, "maximum chunk length in bytes")
	cmd.Flags().BoolVar(&tar, "tar", false, "add tar-entry boundaries to the breakpoint set")
	cmd.Flags().StringVar(&at, "at", "", "debug mode: emit a single chunk at from:length instead of running the producer")
	cmd.Flags().BoolVar(&compress, "compress", false, "zstd-compress the control file at rest")
	cmd.Flags().StringVar(&encrypt, "encrypt", "", "passphrase to encrypt the control file at rest (empty disables encryption)")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "control-file cache directory (empty disables the cache)")

	return cmd
}

type chunkOptions struct {
	maxSize    int
	tar        bool
	at         string
	compress   bool
	passphrase string
	cacheDir   string
}

func runChunk(path string, appConfig *config.Config, opts chunkOptions) error {
	log := cliLogger(appConfig)

	outPath := path + ".psync"
	if _, err := os.Stat(outPath); err == nil {
		return &controlfile.AlreadyExistsError{Path: outPath}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", outPath, err)
	}

	src, err := openSource(appConfig)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	file, err := readInput(src, path, log)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	log.Info("read %d bytes from %s", len(file), path)

	whole := controlfile.HashWholeFile(file)

	if opts.cacheDir != "" {
		c, err := cache.Open(opts.cacheDir)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		if cf, ok, err := c.Get(whole); err != nil {
			log.Warn("cache lookup failed: %v", err)
		} else if ok {
			log.Info("cache hit for %s, skipping producer", path)
			return writeControlFile(outPath, cf, opts)
		}
	}

	var cf *controlfile.ControlFile
	if opts.at != "" {
		from, length, err := parseAt(opts.at)
		if err != nil {
			return err
		}
		c, err := chunker.MaterialiseAt(file, from, length)
		if err != nil {
			return err
		}
		cf = controlfile.FromChunks(len(file), whole, []chunker.Chunk{c})
	} else {
		chunks, err := chunker.Produce(file, chunker.Options{MaxSize: opts.maxSize, Tar: opts.tar})
		if err != nil {
			return err
		}
		log.Info("produced %d chunks", len(chunks))
		cf = controlfile.FromChunks(len(file), whole, chunks)
	}

	if opts.cacheDir != "" {
		c, err := cache.Open(opts.cacheDir)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		if err := c.Put(whole, cf); err != nil {
			log.Warn("failed to populate cache: %v", err)
		}
	}

	return writeControlFile(outPath, cf, opts)
}

func writeControlFile(outPath string, cf *controlfile.ControlFile, opts chunkOptions) error {
	var buf strings.Builder
	if err := controlfile.Write(&buf, cf, "this file was created by psync"); err != nil {
		return fmt.Errorf("render control file: %w", err)
	}
	payload := []byte(buf.String())

	if opts.compress {
		codec, err := ctlcompress.NewDefault()
		if err != nil {
			return fmt.Errorf("build control-file compressor: %w", err)
		}
		defer codec.Close()
		payload = codec.Compress(payload)
	}

	if opts.passphrase != "" {
		sealed, err := ctlcrypto.SealEnvelope(opts.passphrase, payload)
		if err != nil {
			return fmt.Errorf("seal control file: %w", err)
		}
		payload = sealed
	}

	if err := os.WriteFile(outPath, payload, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	fmt.Fprintf(os.Stdout, "wrote %s\n", outPath)
	return nil
}

func parseAt(spec string) (from, length int, err error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("--at must be from:length, got %q", spec)
	}
	from, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("--at from: %w", err)
	}
	length, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("--at length: %w", err)
	}
	return from, length, nil
}
