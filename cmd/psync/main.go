package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"

	configPath string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "psync",
		Short: "psync — content-addressed delta-transfer core",
		Long: `psync locates the parts of a target file already present in a local
seed file, using a rolling checksum, a binary fuse membership filter and
SHA-256 verification:
  • chunk  — produce a control file describing a target
  • search — scan a seed against a control file and report reusable ranges`,
		Version: version,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config-defaults", "c", "", "CLI defaults file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "equivalent to PSYNC_LOG=debug")

	rootCmd.AddCommand(chunkCmd())
	rootCmd.AddCommand(searchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
