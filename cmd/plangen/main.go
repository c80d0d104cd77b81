// Command plangen generates programs and manages corpus bundles from the shell.
package main

import (
	"fmt"
	"os"

	"alcyxob/movement-program/internal/config"
	"alcyxob/movement-program/internal/logger"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configDir string
	logMode   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "plangen",
		Short:         "Generate 7-day movement programs and manage the exercise corpus",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configDir, "config", ".", "directory holding config.yaml")
	root.PersistentFlags().StringVar(&opts.logMode, "log-mode", "", "override log.mode (dev or prod)")

	root.AddCommand(
		newGenerateCmd(opts),
		newVersionsCmd(opts),
		newValidateCorpusCmd(),
		newSeedCmd(opts),
	)
	return root
}

// load reads configuration and builds the logger. Logs go to stderr so stdout
// stays machine-readable.
func (o *rootOptions) load() (config.Config, *logger.Logger, error) {
	cfg, err := config.LoadConfig(o.configDir)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	mode := cfg.Log.Mode
	if o.logMode != "" {
		mode = o.logMode
	}
	log, err := logger.New(mode)
	if err != nil {
		return cfg, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, log, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
