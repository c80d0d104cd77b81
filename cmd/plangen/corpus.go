package main

import (
	"fmt"
	"os"

	"alcyxob/movement-program/internal/app"
	"alcyxob/movement-program/internal/corpus"

	"github.com/spf13/cobra"
)

func newVersionsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List the scoring versions published in the configured corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer log.Sync()
			cfg.Enhancement.Provider = ""

			components, err := app.Build(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer components.Close()

			versions, err := components.Source.Versions(cmd.Context())
			if err != nil {
				return err
			}
			for _, v := range versions {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
}

func newValidateCorpusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-corpus [bundle.yaml...]",
		Short: "Check corpus bundles before publishing",
		Long: `Parses each bundle and checks its templates and fallback set. Exits non-zero
if any bundle is rejected.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				bundle, err := readBundle(path)
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", path, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "OK   %s: version %s, %d templates, %d fallbacks\n",
					path, bundle.ScoringVersion, len(bundle.Templates), len(corpus.FallbacksOf(bundle.Templates)))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d bundles rejected", failed, len(args))
			}
			return nil
		},
	}
}

// readBundle parses a bundle file and checks it can serve a full week.
func readBundle(path string) (*corpus.Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bundle, err := corpus.ParseBundle(f)
	if err != nil {
		return nil, err
	}
	if err := corpus.CheckFallbacks(bundle.ScoringVersion, corpus.FallbacksOf(bundle.Templates)); err != nil {
		return nil, err
	}
	return bundle, nil
}
