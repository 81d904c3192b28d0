package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/psync/psync/internal/config"
	"github.com/psync/psync/internal/controlfile"
	"github.com/psync/psync/internal/coverage"
	"github.com/psync/psync/internal/ctlcompress"
	"github.com/psync/psync/internal/ctlcrypto"
	"github.com/psync/psync/internal/search"
)

func searchCmd() *cobra.Command {
	var (
		configFlag string
		seedFlag   string
		passphrase string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Scan a seed file against a control file and report reusable ranges",
		Long: `If the seed's length and SHA-256 already match the control file's target,
reports up-to-date and exits. Otherwise scans the seed and, for every byte
range of the target, reports whether it is REUSABLE (with the seed offset
delta to apply) or MISSING.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configFlag == "" || seedFlag == "" {
				return fmt.Errorf("both --config and --seed are required")
			}
			appConfig, err := loadAppConfig()
			if err != nil {
				return err
			}
			return runSearch(appConfig, configFlag, seedFlag, passphrase)
		},
	}

	cmd.Flags().StringVar(&configFlag, "config", "", "control file produced by \"psync chunk\"")
	cmd.Flags().StringVar(&seedFlag, "seed", "", "local seed file to scan")
	cmd.Flags().StringVar(&passphrase, "decrypt", "", "passphrase, if the control file was encrypted at rest")

	return cmd
}

func runSearch(appConfig *config.Config, configPath, seedPath, passphrase string) error {
	log := cliLogger(appConfig)

	src, err := openSource(appConfig)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	raw, err := readInput(src, configPath, log)
	if err != nil {
		return fmt.Errorf("read %s: %w", configPath, err)
	}

	if passphrase != "" {
		opened, err := ctlcrypto.OpenEnvelope(passphrase, raw)
		if err != nil {
			return fmt.Errorf("decrypt %s: %w", configPath, err)
		}
		raw = opened
	}

	if isZstdFramed(raw) {
		codec, err := ctlcompress.NewDefault()
		if err != nil {
			return fmt.Errorf("build control-file decompressor: %w", err)
		}
		defer codec.Close()
		decompressed, err := codec.Decompress(raw)
		if err != nil {
			return fmt.Errorf("decompress %s: %w", configPath, err)
		}
		raw = decompressed
	}

	cf, err := controlfile.Parse(bytes.NewReader(raw), func(msg string) { log.Warn("%s", msg) })
	if err != nil {
		return fmt.Errorf("parse %s: %w", configPath, err)
	}

	seed, err := readInput(src, seedPath, log)
	if err != nil {
		return fmt.Errorf("read %s: %w", seedPath, err)
	}

	if len(seed) == cf.TotalLen && controlfile.HashWholeFile(seed) == cf.TotalSHA256 {
		fmt.Fprintln(os.Stdout, "up-to-date")
		return nil
	}

	filter, err := cf.BuildFilter()
	if err != nil {
		return err
	}

	progress := func(i int) {
		if cf.TotalLen > 0 {
			log.Info("scanned %d/%d bytes (%.1f%%)", i, len(seed), 100*float64(i)/float64(len(seed)))
		}
	}

	found := search.Run(seed, cf, filter, progress)
	report(cf, found)
	return nil
}

func report(cf *controlfile.ControlFile, found search.Appearances) {
	m := coverage.FromControlFile(cf, found)
	for _, r := range m.Reusable {
		fmt.Fprintf(os.Stdout, "REUSABLE [%d,%d) delta=%d\n", r.From, r.End(), r.Delta)
	}
	for _, g := range m.Gaps {
		fmt.Fprintf(os.Stdout, "MISSING [%d,%d)\n", g.From, g.End())
	}
}

func isZstdFramed(b []byte) bool {
	return len(b) >= 4 && b[0] == 0x28 && b[1] == 0xB5 && b[2] == 0x2F && b[3] == 0xFD
}
