package main

import (
	"encoding/json"
	"fmt"

	"alcyxob/movement-program/internal/app"
	"alcyxob/movement-program/internal/config"
	"alcyxob/movement-program/internal/domain"
	"alcyxob/movement-program/internal/service"

	"github.com/spf13/cobra"
)

type generateOptions struct {
	level          string
	focus          []string
	avoid          []string
	budget         int
	confidence     int
	scoringVersion string
	corpusFiles    []string
	enhance        bool
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a program for one profile and print it as JSON",
		Example: `  plangen generate --level 2 --focus hip_mobility --avoid knee_load
  plangen generate --level 1 --budget 10 --corpus-file ./bundles/2.0.0.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, root, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.level, "level", "", "assessed level, 1..3 (required)")
	f.StringSliceVar(&opts.focus, "focus", nil, "focus tags, in priority order")
	f.StringSliceVar(&opts.avoid, "avoid", nil, "contraindication tags")
	f.IntVar(&opts.budget, "budget", 0, "daily time budget in minutes (0 uses the configured default)")
	f.IntVar(&opts.confidence, "confidence", -1, "assessment confidence 0..100 (-1 means unknown)")
	f.StringVar(&opts.scoringVersion, "scoring-version", "", "exact version, semver constraint or latest")
	f.StringSliceVar(&opts.corpusFiles, "corpus-file", nil, "serve these YAML bundles instead of the configured corpus")
	f.BoolVar(&opts.enhance, "enhance", false, "personalize the text with the configured model")
	_ = cmd.MarkFlagRequired("level")
	return cmd
}

func runGenerate(cmd *cobra.Command, root *rootOptions, opts *generateOptions) error {
	level, err := domain.ParseLevel(opts.level)
	if err != nil {
		return err
	}

	cfg, log, err := root.load()
	if err != nil {
		return err
	}
	defer log.Sync()

	if len(opts.corpusFiles) > 0 {
		cfg.Corpus.Source = config.CorpusFile
		cfg.Corpus.Files = opts.corpusFiles
	}
	if !opts.enhance {
		cfg.Enhancement.Provider = ""
	}
	cfg.Program.PresignMedia = false

	components, err := app.Build(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer components.Close()

	profile := domain.UserProgramProfile{
		Level:                  level,
		FocusTags:              opts.focus,
		AvoidTags:              opts.avoid,
		DailyTimeBudgetMinutes: opts.budget,
	}
	if opts.confidence >= 0 {
		confidence := opts.confidence
		profile.Confidence = &confidence
	}

	result, err := components.ProgramService(cfg, log).Generate(cmd.Context(), service.GenerateRequest{
		Profile:        profile,
		ScoringVersion: opts.scoringVersion,
	})
	if err != nil {
		return fmt.Errorf("generate program: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result.Program)
}
